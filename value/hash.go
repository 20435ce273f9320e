package value

import "fmt"

// Hashing per spec.md §4.5: strings hash via FNV-1a over bytes;
// integers and floats hash via the MurmurHash3 64-bit finalizer applied
// to the bit-widened integer / aliased float bit pattern.

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// FNV1a64 hashes b with the 64-bit FNV-1a algorithm (spec.md §4.5,
// §3's "both hash via FNV-1a over bytes").
func FNV1a64(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// murmur3Finalizer64 is the 64-bit finalizer mix from MurmurHash3,
// normative per spec.md §4.5 for numeric hashing.
func murmur3Finalizer64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// Hash computes the 64-bit ValueHash for v (spec.md §4.5's `hash`
// dispatch group, exposed here since the algorithm itself is identical
// across base types and belongs with the value model per spec.md §2).
func Hash(v Value) uint64 {
	switch v.typ {
	case Invalid:
		return 0
	case Bool:
		if v.boolean {
			return murmur3Finalizer64(1)
		}
		return murmur3Finalizer64(0)
	case Int:
		return murmur3Finalizer64(uint64(v.i))
	case Float:
		return murmur3Finalizer64(v.FloatBits())
	case String:
		return FNV1a64(v.Bytes())
	case Range:
		s, e, step, isInt := v.RangeParts()
		h := Hash(s)
		h = h*31 + Hash(e)
		h = h*31 + Hash(step)
		if isInt {
			h = h*31 + 1
		}
		return h
	default:
		// Collections/closures are not specified as hashable keys;
		// identity hash keeps the table contract total without
		// claiming structural semantics spec.md never defines for them.
		return murmur3Finalizer64(FNV1a64([]byte(fmt.Sprintf("%p", v.obj))))
	}
}
