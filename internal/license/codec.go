package license

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"strings"
	"time"
)

// ErrInvalidKey indicates a key that is not validly formatted or does not
// decode to the expected structure.
var ErrInvalidKey = errors.New("license: invalid key")

const keyPrefix = "PDK1."

// Keys are obfuscated, not signed. The encoding exists so keys are opaque to
// casual inspection; the checksum catches truncation and typos.
var keystream = []byte("pulsedesk-license-keystream-v1")

// Encode turns a payload into an opaque key string. Encode and Decode are
// exact inverses for every valid payload.
func Encode(payload Payload) (string, error) {
	payload.ExpiresAt = payload.ExpiresAt.UTC().Truncate(time.Second)
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	buf := make([]byte, len(data)+4)
	copy(buf, data)
	binary.BigEndian.PutUint32(buf[len(data):], crc32.ChecksumIEEE(data))
	applyKeystream(buf)
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Decode reverses Encode. Any malformed input reports ErrInvalidKey.
func Decode(key string) (Payload, error) {
	encoded, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || encoded == "" {
		return Payload{}, ErrInvalidKey
	}
	buf, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrInvalidKey
	}
	applyKeystream(buf)
	if len(buf) < 4 {
		return Payload{}, ErrInvalidKey
	}
	data, sum := buf[:len(buf)-4], binary.BigEndian.Uint32(buf[len(buf)-4:])
	if crc32.ChecksumIEEE(data) != sum {
		return Payload{}, ErrInvalidKey
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, ErrInvalidKey
	}
	if payload.CustomerID == "" || payload.ExpiresAt.IsZero() || payload.MaxUsers < 0 {
		return Payload{}, ErrInvalidKey
	}
	return payload, nil
}

func applyKeystream(buf []byte) {
	for i := range buf {
		buf[i] ^= keystream[i%len(keystream)]
	}
}
