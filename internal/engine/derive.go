// Package engine derives game outcomes from oracle randomness.
//
// Every random decision in the game is taken from one 64-byte
// randomness blob published by the oracle. Each decision reads its own
// disjoint byte range, so the catch roll, the vault pick and the
// relocation coordinates are independent even though they come from a
// single oracle round.
package engine

import "encoding/binary"

// RandomnessSize is the length of a fulfilled oracle randomness blob.
const RandomnessSize = 64

// MaxCoordinate is the largest valid position on either axis.
const MaxCoordinate uint16 = 999

// Byte range assignments within the 64-byte blob. Ranges must never
// overlap between two different decisions.
//
//	[0..2]   spawn x        [2..4]   spawn y
//	[0..8]   catch roll (spawn and throw requests never share a blob)
//	[8..16]  vault pick
//	[16..18] relocation x   [18..20] relocation y

// SpawnPosition returns the spawn coordinates for a spawn request.
func SpawnPosition(randomness [RandomnessSize]byte) (x, y uint16) {
	x = binary.LittleEndian.Uint16(randomness[0:2]) % (MaxCoordinate + 1)
	y = binary.LittleEndian.Uint16(randomness[2:4]) % (MaxCoordinate + 1)
	return x, y
}

// CatchRoll reduces bytes [0..8] to a roll in [0, 100).
func CatchRoll(randomness [RandomnessSize]byte) uint8 {
	return uint8(binary.LittleEndian.Uint64(randomness[0:8]) % 100)
}

// Caught reports whether a throw with the given catch rate succeeds.
// rate is a percentage in [0, 100].
func Caught(randomness [RandomnessSize]byte, rate uint8) bool {
	return CatchRoll(randomness) < rate
}

// VaultPick selects an index in [0, count) for the asset award. Only
// meaningful when count > 0; callers must check before deriving.
func VaultPick(randomness [RandomnessSize]byte, count int) int {
	return int(binary.LittleEndian.Uint64(randomness[8:16]) % uint64(count))
}

// RelocationPosition returns the coordinates a creature flees to when
// its attempt budget is exhausted.
func RelocationPosition(randomness [RandomnessSize]byte) (x, y uint16) {
	x = binary.LittleEndian.Uint16(randomness[16:18]) % (MaxCoordinate + 1)
	y = binary.LittleEndian.Uint16(randomness[18:20]) % (MaxCoordinate + 1)
	return x, y
}
