package utils

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"
)

// SixID is a random 6-byte id. Documents store its 10-character Crockford
// Base32 form, e.g. "3K9QZ0B7TM".
type SixID [6]byte

// NewSixIDHook lets tests pin the ids NewSixID returns. When it reports
// override=false the random id is used.
var NewSixIDHook func() (id SixID, override bool)

var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

var errBadSixID = errors.New("invalid SixID: want 10 Crockford Base32 characters")

// Lenient input: lowercase, hyphens, spaces and the usual look-alikes.
var sixIDNormalizer = strings.NewReplacer("-", "", " ", "", "O", "0", "I", "1", "L", "1")

func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}
	var id SixID
	_, _ = rand.Read(id[:]) // never fails on supported platforms
	return id
}

func (id SixID) String() string {
	return crockford.EncodeToString(id[:])
}

// ParseSixID decodes the string form of a SixID.
func ParseSixID(s string) (SixID, error) {
	s = sixIDNormalizer.Replace(strings.ToUpper(s))
	if len(s) != 10 {
		return SixID{}, errBadSixID
	}
	raw, err := crockford.DecodeString(s)
	if err != nil || len(raw) != 6 {
		return SixID{}, errBadSixID
	}
	var id SixID
	copy(id[:], raw)
	return id, nil
}

// IsSixID reports whether s is a well-formed SixID string.
func IsSixID(s string) bool {
	_, err := ParseSixID(s)
	return err == nil
}
