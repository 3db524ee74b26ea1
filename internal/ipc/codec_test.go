package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Kind:      KindActivityNotification,
		Activity:  "latest@notifications",
		Mode:      2,
		Duration:  3 * time.Second,
		Direction: -1,
	}
	got, err := UnmarshalRequest(MarshalRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{
		OK:      true,
		Message: "ok",
		Uptime:  90 * time.Minute,
		Activities: []ActivityInfo{{
			ID:      "clock@clock",
			Mode:    1,
			Focused: true,
			Properties: []PropertyInfo{
				{Name: "format", Type: "string", Value: "15:04"},
			},
		}},
		Modules: []ModuleInfo{{Name: "clock", Status: "running", Activities: 1}},
	}
	got, err := UnmarshalResponse(MarshalResponse(resp))
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestUnmarshalRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"truncated tag", []byte{0x80}},
		{"truncated string", protowire.AppendTag(nil, reqActivity, protowire.BytesType)},
		{"garbage", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRequest(tt.body)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestUnmarshalRequest_SkipsUnknownFields(t *testing.T) {
	b := MarshalRequest(Request{Kind: KindReload})
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)

	got, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, KindReload, got.Kind)
}

func TestFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	require.NoError(t, WriteFrame(&buf, nil))

	body, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)

	body, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, body)

	_, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrame_Limits(t *testing.T) {
	err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1))
	var ferr *FrameError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, uint32(MaxFrameSize+1), ferr.Size)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrameSize+1)
	_, err = ReadFrame(bytes.NewReader(hdr[:]))
	assert.ErrorAs(t, err, &ferr)

	binary.BigEndian.PutUint32(hdr[:], 10)
	_, err = ReadFrame(bytes.NewReader(append(hdr[:], 1, 2, 3)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
