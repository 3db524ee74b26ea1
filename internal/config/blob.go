package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/isle/internal/model"
)

// DecodeBlob strictly decodes a plugin configuration fragment into v.
// Unknown keys and type mismatches fail with model.ErrConfigParse. An empty
// blob leaves v untouched.
//
// v is decoded as a whole, so callers pass a copy of their current config
// and swap it in only on success.
func DecodeBlob(blob []byte, v any) error {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil
	}
	dec := toml.NewDecoder(bytes.NewReader(blob))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfigParse, err)
	}
	return nil
}
