package common

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Hasher accumulates a SHA-256 over a stream as it is read.
type Hasher struct {
	h hash.Hash
}

func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}
