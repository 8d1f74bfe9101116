package oracle

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Local is an in-process oracle for development and tests. Fulfilled
// randomness is an HMAC-SHA256 chain keyed by a server seed, two
// 32-byte rounds per request, so outcomes are deterministic for a
// given server seed but unpredictable without it.
//
// Latency simulates the real oracle's round trip: a request is not
// fulfilled until Latency has elapsed since it was made.
type Local struct {
	serverSeed string
	latency    time.Duration
	now        func() time.Time

	mu      sync.Mutex
	pending map[Seed]time.Time
}

// NewLocal creates a local oracle. A zero latency fulfills requests
// immediately, which is what tests want.
func NewLocal(serverSeed string, latency time.Duration) *Local {
	return &Local{
		serverSeed: serverSeed,
		latency:    latency,
		now:        time.Now,
		pending:    make(map[Seed]time.Time),
	}
}

// Request registers a randomness round for the seed.
func (o *Local) Request(seed Seed) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.pending[seed]; ok {
		return ErrDuplicateSeed
	}
	o.pending[seed] = o.now()
	return nil
}

// Randomness returns the fulfilled blob once the simulated round trip
// has elapsed.
func (o *Local) Randomness(seed Seed) (Randomness, bool, error) {
	o.mu.Lock()
	requestedAt, ok := o.pending[seed]
	o.mu.Unlock()

	var r Randomness
	if !ok {
		return r, false, ErrUnknownSeed
	}
	if o.now().Sub(requestedAt) < o.latency {
		return r, false, nil
	}
	return o.derive(seed), true, nil
}

// derive expands the seed to 64 bytes with two HMAC-SHA256 rounds.
func (o *Local) derive(seed Seed) Randomness {
	var r Randomness
	for round := 0; round < 2; round++ {
		h := hmac.New(sha256.New, []byte(o.serverSeed))
		fmt.Fprintf(h, "%x:%d", seed[:], round)
		copy(r[round*32:], h.Sum(nil))
	}
	return r
}
