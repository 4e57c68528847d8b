package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from document content. Keying on the raw
// bytes means a re-OCR of the same file invalidates its cached review
// while a plain rename does not.
func Key(content []byte) string {
	hash := sha256.Sum256(content)
	return "titletrace:v1:" + hex.EncodeToString(hash[:])
}
