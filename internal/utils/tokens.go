package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns nBytes of cryptographically strong randomness, hex encoded.
func RandomHex(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits by default
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewAuthToken — opaque single-use token sent to the user out of band.
func NewAuthToken() (string, error) {
	return RandomHex(16)
}

// NewHexAddress — synthetic 20-byte address ("0x" + 40 hex).
func NewHexAddress() (string, error) {
	h, err := RandomHex(20)
	if err != nil {
		return "", err
	}
	return "0x" + h, nil
}

// NewTxHash — synthetic 32-byte transaction hash ("0x" + 64 hex).
func NewTxHash() (string, error) {
	h, err := RandomHex(32)
	if err != nil {
		return "", err
	}
	return "0x" + h, nil
}
