package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// ErrMalformed is returned for payloads that are not base64 JSON or lack
// required fields.
var ErrMalformed = errors.New("malformed credential")

// Bearer is the access credential presented on every request.
type Bearer struct {
	SessionID string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Secret    string `json:"secret"`
}

// Refresh is the credential presented to extend a session.
type Refresh struct {
	SessionID string `json:"id"`
	UserID    string `json:"userId"`
	Secret    string `json:"secret"`
}

// Encode returns the opaque string form of b.
func (b Bearer) Encode() (string, error) {
	return encode(b)
}

// Encode returns the opaque string form of r.
func (r Refresh) Encode() (string, error) {
	return encode(r)
}

// DecodeBearer parses an access credential.
func DecodeBearer(s string) (Bearer, error) {
	var b Bearer
	if err := decode(s, &b); err != nil {
		return Bearer{}, err
	}
	if b.SessionID == "" || b.UserID == "" || b.Secret == "" {
		return Bearer{}, ErrMalformed
	}
	return b, nil
}

// DecodeRefresh parses a refresh credential.
func DecodeRefresh(s string) (Refresh, error) {
	var r Refresh
	if err := decode(s, &r); err != nil {
		return Refresh{}, err
	}
	if r.SessionID == "" || r.UserID == "" || r.Secret == "" {
		return Refresh{}, ErrMalformed
	}
	return r, nil
}

// Hash returns lowercase hex SHA-256 of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Signature returns Hash(binding + code), the value a client submits to
// exchange a login code.
func Signature(binding, code string) string {
	return Hash(binding + code)
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decode(s string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ErrMalformed
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrMalformed
	}
	return nil
}
