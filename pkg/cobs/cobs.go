// Package cobs implements Consistent Overhead Byte Stuffing, the framing used
// by the sensor co-processor on its UART link. A zero byte delimits frames on
// the wire and never appears inside an encoded frame body.
package cobs

import "errors"

// Delimiter marks the end of every frame on the wire.
const Delimiter = 0x00

// DefaultMaxFrame matches the receive buffer of the sender's packet library.
const DefaultMaxFrame = 256

// ErrMalformed is returned for a frame body that cannot be decoded.
var ErrMalformed = errors.New("cobs: malformed frame")

// Encode stuffs payload so it contains no zero bytes. The trailing delimiter
// is not appended.
func Encode(payload []byte) []byte {
	out := make([]byte, 1, len(payload)+len(payload)/254+2)
	codeIdx := 0
	code := byte(1)
	for _, b := range payload {
		if b == Delimiter {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// Decode reverses Encode for a single frame body (without the delimiter).
func Decode(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); {
		code := int(encoded[i])
		if code == 0 {
			return nil, ErrMalformed
		}
		i++
		end := i + code - 1
		if end > len(encoded) {
			return nil, ErrMalformed
		}
		for _, b := range encoded[i:end] {
			if b == Delimiter {
				return nil, ErrMalformed
			}
		}
		out = append(out, encoded[i:end]...)
		i = end
		if code < 0xFF && i < len(encoded) {
			out = append(out, 0)
		}
	}
	return out, nil
}
