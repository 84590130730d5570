package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is a hex-encoded SHA-256 digest. Generation audits carry
// prompt and response hashes so a rewrite can be matched to the exact
// text that produced it.
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}
