// Package xid mints synthetic identifiers: line codes for items sold outside
// the catalog and handles for held carts.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const customPrefix = "CUSTOM"

// NewCustom returns a unique CUSTOM-* code for a one-off line item. Codes
// carry a timestamp plus random suffix so two customs added in the same
// nanosecond still differ.
func NewCustom() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", customPrefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", customPrefix, time.Now().UnixNano(), strings.ToUpper(hex.EncodeToString(buf)))
}

// IsCustom reports whether code was minted by NewCustom rather than taken
// from the catalog.
func IsCustom(code string) bool {
	return strings.HasPrefix(code, customPrefix+"-")
}

// NewCart returns a handle for a held cart. Handles are opaque to clients;
// only uniqueness matters.
func NewCart() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("CART-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("CART-%s", strings.ToUpper(hex.EncodeToString(buf)))
}
