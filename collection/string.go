// Package collection implements the heap forms of spec.md §3's String,
// Range, List, and Dict: length-prefixed immutable strings, structural
// ranges, a dense resizable List, and an open-addressed Dict with
// separated index/entry arrays.
package collection

import (
	"github.com/semi-lang/semi/value"
)

// StringObj is the heap form of a String: a length-prefixed,
// hash-cached, immutable byte buffer (spec.md §3).
type StringObj struct {
	bytes    []byte
	hash     uint64
	hashDone bool
}

// NewStringObj copies b into a new immutable StringObj.
func NewStringObj(b []byte) *StringObj {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &StringObj{bytes: cp}
}

func (s *StringObj) HeapVariant() value.Variant { return value.VariantHeapString }

// StringBytes implements value.StringBytes.
func (s *StringObj) StringBytes() []byte { return s.bytes }

// Hash caches the FNV-1a hash on first use (spec.md §3).
func (s *StringObj) Hash() uint64 {
	if !s.hashDone {
		s.hash = value.FNV1a64(s.bytes)
		s.hashDone = true
	}
	return s.hash
}

func (s *StringObj) Len() int { return len(s.bytes) }

// Contains implements spec.md §4.5's naive substring search, grounded
// on tinyrange-rtg/std/strings/strings.go's hand-rolled Index (a
// manual byte loop rather than the stdlib's strings.Index), since
// spec.md pins "naive substring search" as normative VM behavior, not
// an implementation detail free to optimize.
func Contains(haystack, needle []byte) bool {
	if len(needle) == 0 {
		return true
	}
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i <= len(haystack)-len(needle); i++ {
		j := 0
		for j < len(needle) && haystack[i+j] == needle[j] {
			j++
		}
		if j == len(needle) {
			return true
		}
	}
	return false
}

// Compare implements memcmp-style byte comparison with ties broken by
// length (spec.md §4.5).
func Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
