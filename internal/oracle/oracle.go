// Package oracle defines the verifiable-randomness collaborator the
// game consumes. The game never produces randomness itself: it submits
// a unique seed, and some external party later publishes 64 bytes of
// randomness for that seed. The game only ever reads the fulfilled
// blob; how the oracle proves unpredictability is outside this module.
package oracle

import (
	"errors"

	"github.com/wildgrid/wildcatch/internal/engine"
)

// Randomness is one fulfilled oracle answer.
type Randomness = [engine.RandomnessSize]byte

// Seed addresses exactly one randomness round.
type Seed = [engine.SeedSize]byte

var (
	// ErrUnknownSeed is returned when no request exists for a seed.
	ErrUnknownSeed = errors.New("oracle: unknown seed")
	// ErrDuplicateSeed is returned when a seed is requested twice.
	ErrDuplicateSeed = errors.New("oracle: seed already requested")
)

// Oracle is the consumer-side contract.
//
// Request registers intent for one randomness round. Randomness
// reports the round's state: fulfilled=false means the oracle has not
// answered yet and the caller should try again later.
type Oracle interface {
	Request(seed Seed) error
	Randomness(seed Seed) (r Randomness, fulfilled bool, err error)
}
