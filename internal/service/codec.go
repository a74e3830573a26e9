package service

import "encoding/json"

// jsonCodec carries plain Go request and response structs over Connect.
// It registers under the name "json" so it replaces the built-in protojson
// codec for application/json traffic.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
