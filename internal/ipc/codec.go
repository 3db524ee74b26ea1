package ipc

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the wire messages.
const (
	reqKind      protowire.Number = 1
	reqActivity  protowire.Number = 2
	reqMode      protowire.Number = 3
	reqDirection protowire.Number = 4
	reqDuration  protowire.Number = 5

	respOK         protowire.Number = 1
	respMessage    protowire.Number = 2
	respActivities protowire.Number = 3
	respUptime     protowire.Number = 4
	respModules    protowire.Number = 5

	actID         protowire.Number = 1
	actMode       protowire.Number = 2
	actProperties protowire.Number = 3
	actFocused    protowire.Number = 4

	propName  protowire.Number = 1
	propType  protowire.Number = 2
	propValue protowire.Number = 3

	modName       protowire.Number = 1
	modStatus     protowire.Number = 2
	modActivities protowire.Number = 3
	modError      protowire.Number = 4
)

// ErrDecode is returned for bodies that are not valid messages.
var ErrDecode = errors.New("malformed message")

// MarshalRequest encodes r.
func MarshalRequest(r Request) []byte {
	var b []byte
	b = appendVarint(b, reqKind, uint64(r.Kind))
	if r.Activity != "" {
		b = appendString(b, reqActivity, r.Activity)
	}
	if r.Mode != 0 {
		b = appendVarint(b, reqMode, uint64(r.Mode))
	}
	if r.Direction != 0 {
		b = appendVarint(b, reqDirection, protowire.EncodeZigZag(int64(r.Direction)))
	}
	if r.Duration != 0 {
		b = appendVarint(b, reqDuration, uint64(r.Duration.Milliseconds()))
	}
	return b
}

// UnmarshalRequest decodes a request body. Unknown fields are skipped.
func UnmarshalRequest(b []byte) (Request, error) {
	var r Request
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error {
		switch num {
		case reqKind:
			r.Kind = RequestKind(v)
		case reqActivity:
			r.Activity = string(data)
		case reqMode:
			r.Mode = int(v)
		case reqDirection:
			r.Direction = int(protowire.DecodeZigZag(v))
		case reqDuration:
			r.Duration = time.Duration(v) * time.Millisecond
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	if r.Kind == KindUnknown {
		return Request{}, fmt.Errorf("%w: missing request kind", ErrDecode)
	}
	return r, nil
}

// MarshalResponse encodes r.
func MarshalResponse(r Response) []byte {
	var b []byte
	b = appendVarint(b, respOK, protowire.EncodeBool(r.OK))
	if r.Message != "" {
		b = appendString(b, respMessage, r.Message)
	}
	for _, a := range r.Activities {
		b = appendMessage(b, respActivities, marshalActivity(a))
	}
	if r.Uptime != 0 {
		b = appendVarint(b, respUptime, uint64(r.Uptime.Milliseconds()))
	}
	for _, m := range r.Modules {
		b = appendMessage(b, respModules, marshalModule(m))
	}
	return b
}

// UnmarshalResponse decodes a response body.
func UnmarshalResponse(b []byte) (Response, error) {
	var r Response
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error {
		switch num {
		case respOK:
			r.OK = protowire.DecodeBool(v)
		case respMessage:
			r.Message = string(data)
		case respActivities:
			a, err := unmarshalActivity(data)
			if err != nil {
				return err
			}
			r.Activities = append(r.Activities, a)
		case respUptime:
			r.Uptime = time.Duration(v) * time.Millisecond
		case respModules:
			m, err := unmarshalModule(data)
			if err != nil {
				return err
			}
			r.Modules = append(r.Modules, m)
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return r, nil
}

func marshalActivity(a ActivityInfo) []byte {
	var b []byte
	b = appendString(b, actID, a.ID)
	b = appendVarint(b, actMode, uint64(a.Mode))
	for _, p := range a.Properties {
		var pb []byte
		pb = appendString(pb, propName, p.Name)
		pb = appendString(pb, propType, p.Type)
		pb = appendString(pb, propValue, p.Value)
		b = appendMessage(b, actProperties, pb)
	}
	if a.Focused {
		b = appendVarint(b, actFocused, 1)
	}
	return b
}

func unmarshalActivity(b []byte) (ActivityInfo, error) {
	var a ActivityInfo
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error {
		switch num {
		case actID:
			a.ID = string(data)
		case actMode:
			a.Mode = int(v)
		case actFocused:
			a.Focused = protowire.DecodeBool(v)
		case actProperties:
			var p PropertyInfo
			err := walk(data, func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error {
				switch num {
				case propName:
					p.Name = string(data)
				case propType:
					p.Type = string(data)
				case propValue:
					p.Value = string(data)
				}
				return nil
			})
			if err != nil {
				return err
			}
			a.Properties = append(a.Properties, p)
		}
		return nil
	})
	return a, err
}

func marshalModule(m ModuleInfo) []byte {
	var b []byte
	b = appendString(b, modName, m.Name)
	b = appendString(b, modStatus, m.Status)
	b = appendVarint(b, modActivities, uint64(m.Activities))
	if m.Error != "" {
		b = appendString(b, modError, m.Error)
	}
	return b
}

func unmarshalModule(b []byte) (ModuleInfo, error) {
	var m ModuleInfo
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error {
		switch num {
		case modName:
			m.Name = string(data)
		case modStatus:
			m.Status = string(data)
		case modActivities:
			m.Activities = int(v)
		case modError:
			m.Error = string(data)
		}
		return nil
	})
	return m, err
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// walk visits every field of a message. Varint fields pass their value in v,
// length-delimited fields pass their payload in data. Fields of other wire
// types are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v uint64, data []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			data, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, typ, 0, data); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
