package deviceid

import (
	"fmt"
	"strings"
	"unicode"
)

// Length is the size of a well-formed identifier.
const Length = 8

// ID is a canonical vendor+product identifier such as "05A60A00".
type ID string

var prefixReplacer = strings.NewReplacer(
	"VID_", "",
	"PID_", "",
	"&", "",
	":", "",
	"_", "",
)

// Normalize strips VID_/PID_ prefixes, separators, and whitespace, then
// uppercases the remainder. Matching is case-insensitive so "vid_05a6" and
// "VID_05A6" reduce to the same key. The result is not checked for length.
func Normalize(raw string) ID {
	upper := strings.ToUpper(raw)
	stripped := prefixReplacer.Replace(upper)
	if strings.IndexFunc(stripped, unicode.IsSpace) < 0 {
		return ID(stripped)
	}
	return ID(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, stripped))
}

// NormalizeAny normalizes a decoded document value. Non-string values yield
// an empty ID and false.
func NormalizeAny(value any) (ID, bool) {
	switch v := value.(type) {
	case string:
		return Normalize(v), true
	case ID:
		return Normalize(string(v)), true
	case fmt.Stringer:
		return Normalize(v.String()), true
	default:
		return "", false
	}
}

// Valid reports whether the identifier has the expected length.
func (id ID) Valid() bool {
	return len(id) == Length
}

// Vendor returns the vendor half of a well-formed identifier.
func (id ID) Vendor() string {
	if !id.Valid() {
		return ""
	}
	return string(id[:4])
}

// Product returns the product half of a well-formed identifier.
func (id ID) Product() string {
	if !id.Valid() {
		return ""
	}
	return string(id[4:])
}

func (id ID) String() string {
	return string(id)
}

// Set is an unordered collection of identifiers.
type Set map[ID]struct{}

// NewSet builds a set from already-normalized identifiers.
func NewSet(ids ...ID) Set {
	set := make(Set, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports membership. A nil set contains nothing.
func (s Set) Contains(id ID) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}
