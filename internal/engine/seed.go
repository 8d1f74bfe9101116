package engine

import (
	"encoding/binary"
	"fmt"
)

// SeedSize is the length of an oracle request seed.
const SeedSize = 32

// RequestKind tags what a randomness request will resolve.
type RequestKind uint8

const (
	// KindSpawn places a new creature at a derived position.
	KindSpawn RequestKind = 0
	// KindThrow resolves a catch attempt.
	KindThrow RequestKind = 1
)

func (k RequestKind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindThrow:
		return "throw"
	}
	return "unknown"
}

// ParseRequestKind is the inverse of String, for journal records.
func ParseRequestKind(s string) (RequestKind, error) {
	switch s {
	case "spawn":
		return KindSpawn, nil
	case "throw":
		return KindThrow, nil
	}
	return 0, fmt.Errorf("invalid request kind %q", s)
}

// seedTag marks seeds produced by this engine. Occupies bytes [24..32].
var seedTag = [8]byte{'w', 'l', 'd', 'c', 'a', 't', 'c', 'h'}

// MakeSeed builds the unique oracle seed for a request. The sequence
// counter guarantees uniqueness; the kind byte keeps spawn and throw
// seeds from ever colliding even at the same counter value.
func MakeSeed(sequence uint64, kind RequestKind) [SeedSize]byte {
	var seed [SeedSize]byte
	binary.LittleEndian.PutUint64(seed[0:8], sequence)
	seed[8] = byte(kind)
	copy(seed[24:32], seedTag[:])
	return seed
}
