// Package roundid generates sortable identifiers for blackjack rounds.
//
// IDs are UUIDv7 values written in Crockford base32 (26 characters), so they
// sort by creation time and stay short enough for logs and file names.
package roundid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

// Crockford's base32 alphabet, lower case
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the size of every generated ID
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// RandSource is satisfied by *rand.Rand from math/rand/v2.
type RandSource interface {
	IntN(n int) int
}

// Generator builds round IDs from a clock and an optional random source
type Generator struct {
	rand RandSource
	now  func() time.Time
}

// NewGenerator creates a generator. A nil RandSource falls back to crypto/rand.
func NewGenerator(rs RandSource) *Generator {
	return &Generator{rand: rs, now: time.Now}
}

// Generate returns an ID using crypto randomness
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns the next round ID
func (g *Generator) Generate() string {
	var id [16]byte

	ms := g.now().UnixMilli()
	for i := range 6 {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < len(id); i++ {
			id[i] = byte(g.rand.IntN(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("roundid: crypto/rand failed: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return encoding.EncodeToString(id[:])
}

// Time returns the creation time embedded in an ID
func Time(id string) (time.Time, error) {
	raw, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := range 6 {
		ms = ms<<8 | int64(raw[i])
	}
	return time.UnixMilli(ms), nil
}

// Validate checks that id could have come from Generate
func Validate(id string) error {
	raw, err := decode(id)
	if err != nil {
		return err
	}
	if raw[6]>>4 != 0x7 {
		return fmt.Errorf("round ID %q is not version 7", id)
	}
	return nil
}

func decode(id string) ([]byte, error) {
	if len(id) != Length {
		return nil, fmt.Errorf("round ID must be %d characters, got %d", Length, len(id))
	}
	if i := strings.IndexFunc(id, func(r rune) bool { return !strings.ContainsRune(alphabet, r) }); i >= 0 {
		return nil, fmt.Errorf("invalid character %q at position %d", id[i], i)
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("decode round ID: %w", err)
	}
	return raw, nil
}
