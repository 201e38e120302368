package model

import "encoding/json"

// Detection is a single object instance reported by the inference provider.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// RawResult is the provider payload exactly as received. Its shape varies
// with the provider mode; only the tally extraction step decodes it.
type RawResult json.RawMessage

// MarshalJSON keeps the payload verbatim when a RawResult is re-encoded.
func (r RawResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}
