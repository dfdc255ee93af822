// Package xid generates prefixed record ids like "sale-1756380000000-a1b2c3d4e5f6".
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// New returns a fresh id carrying the given prefix, a millisecond timestamp
// for rough ordering, and a random suffix for uniqueness. An empty prefix
// falls back to "rec".
func New(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rec"
	}
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
