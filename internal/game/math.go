package game

import "math"

// Checked arithmetic for counters that represent identity or money.
// Overflow is surfaced as ErrMathOverflow, never wrapped or saturated.

func addU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func addU32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func addU8(a, b uint8) (uint8, error) {
	if a > math.MaxUint8-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func mulU64(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, ErrMathOverflow
	}
	return a * b, nil
}
