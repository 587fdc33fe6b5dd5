// Package codec provides the symmetric payload encodings used between a host and a provider.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes the records exchanged with the host.
// Unmarshal(Marshal(v)) must reproduce v.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// MsgPack encodes records as MessagePack maps keyed by field name.
type MsgPack struct{}

// Name returns "msgpack".
func (MsgPack) Name() string { return "msgpack" }

// Marshal encodes v.
func (MsgPack) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data into v.
func (MsgPack) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

// JSON encodes records as JSON objects.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Marshal encodes v.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "msgpack":
		return MsgPack{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

var (
	_ Codec = MsgPack{}
	_ Codec = JSON{}
)
