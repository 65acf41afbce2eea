package config

import (
	"bytes"
	"encoding/json"
)

func strictJSONDecode(data []byte, cfg *Config) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(cfg)
}
