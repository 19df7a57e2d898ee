package session

import (
	"encoding/json"
	"errors"
)

const recordFormatVersionCurrent = 1

// Encode serializes r as a version byte followed by JSON.
func Encode(r *Record) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, recordFormatVersionCurrent)
	return append(out, body...), nil
}

// Decode parses data produced by [Encode].
func Decode(data []byte) (*Record, error) {
	if len(data) < 2 {
		return nil, errors.New("record too short")
	}
	if data[0] != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}
	if err := json.Unmarshal(data[1:], r); err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, errors.New("record missing user id")
	}
	if r.Keys == nil {
		r.Keys = make(map[string]*KeySet)
	}
	for id, ks := range r.Keys {
		if ks == nil {
			delete(r.Keys, id)
		}
	}
	return r, nil
}
