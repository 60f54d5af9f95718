// Package encoding provides JSON-serializable encoding types for audio payloads.
//
// Both transports the bridge speaks carry audio as standard base64 strings
// inside JSON. StdBase64Data decodes them eagerly so that a corrupt payload is
// rejected at the decoding boundary instead of deep inside a relay.
package encoding

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidBase64 is returned when a JSON value cannot be decoded as base64.
var ErrInvalidBase64 = errors.New("encoding: invalid base64 data")

// StdBase64Data is a byte slice that serializes to/from standard base64 in JSON.
type StdBase64Data []byte

// MarshalJSON implements json.Marshaler.
func (b StdBase64Data) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, base64.StdEncoding.EncodedLen(len(b))+2)
	out = append(out, '"')
	out = base64.StdEncoding.AppendEncode(out, b)
	out = append(out, '"')
	return out, nil
}

// UnmarshalJSON implements json.Unmarshaler.
// A JSON null leaves the value untouched; anything other than a string is an error.
func (b *StdBase64Data) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalidBase64)
	}
	switch data[0] {
	case 'n':
		return nil
	case '"':
		if len(data) < 2 || data[len(data)-1] != '"' {
			return fmt.Errorf("%w: unterminated string", ErrInvalidBase64)
		}
		decoded, err := DecodeStdBase64(string(data[1 : len(data)-1]))
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	default:
		return fmt.Errorf("%w: %.32s", ErrInvalidBase64, data)
	}
}

// String returns the base64-encoded string representation.
func (b StdBase64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeStdBase64 decodes s and wraps failures in ErrInvalidBase64.
func DecodeStdBase64(s string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return decoded, nil
}
