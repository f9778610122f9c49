package store

import (
	"crypto/rand"
	"encoding/base32"
)

// idEncoding is lowercase RFC 4648 base32 without padding, so ids are easy
// to type and never need escaping in shells or URLs.
var idEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// newRandomID returns "<prefix>-" plus 8 random base32 characters (40 bits).
func newRandomID(prefix string) (string, error) {
	var raw [5]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return prefix + "-" + idEncoding.EncodeToString(raw[:]), nil
}
