package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrInvalidKeyLength is returned when the master key is not 32 bytes.
var ErrInvalidKeyLength = errors.New("invalid key length")

// Keys is the key material derived from the master key.
type Keys struct {
	SessionHash  []byte // 64 bytes, cookie HMAC
	SessionBlock []byte // 32 bytes, cookie AES
	VendorToken  []byte // 32 bytes, HS256 vendor tokens
}

// DeriveKeys expands the master key into independent subkeys with HKDF-SHA256.
func DeriveKeys(master []byte) (Keys, error) {
	if len(master) != 32 {
		return Keys{}, ErrInvalidKeyLength
	}
	hash, err := derive(master, "session-hash", 64)
	if err != nil {
		return Keys{}, err
	}
	block, err := derive(master, "session-block", 32)
	if err != nil {
		return Keys{}, err
	}
	vendor, err := derive(master, "vendor-token", 32)
	if err != nil {
		return Keys{}, err
	}
	return Keys{SessionHash: hash, SessionBlock: block, VendorToken: vendor}, nil
}

func derive(master []byte, info string, n int) ([]byte, error) {
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewMasterKeyHex returns a fresh random master key, hex encoded.
func NewMasterKeyHex() (string, error) {
	b, err := generateRandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateRandomBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
