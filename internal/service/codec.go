package service

import (
	"encoding/json"
	"fmt"
)

// jsonCodec carries the plain Go message structs of this package over
// Connect as application/json.
type jsonCodec struct{}

// Codec is registered on every handler and client of the settleup services.
var Codec jsonCodec

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
