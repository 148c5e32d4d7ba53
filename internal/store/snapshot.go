package store

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// EncodeSnapshot turns a database image into the text stored in the slot:
// standard padded base64, the same text btoa produces in the browser.
func EncodeSnapshot(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return data, nil
}

func digest(encoded string) [sha256.Size]byte {
	return sha256.Sum256([]byte(encoded))
}
