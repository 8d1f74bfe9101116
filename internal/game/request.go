package game

import "github.com/wildgrid/wildcatch/internal/engine"

// Request records the intent to consume one oracle randomness round.
// It is created at request time and is terminal once consumed: the
// Fulfilled flag transitions false to true exactly once and the record
// is never reused. The oracle-side round addressed by Seed is 1:1 with
// this record.
type Request struct {
	// Seq is the request's position in the global sequence; it is also
	// the lookup key for Consume.
	Seq       uint64             `json:"seq"`
	Kind      engine.RequestKind `json:"kind"`
	Requester string             `json:"requester"`
	SlotIndex uint8              `json:"slot_index"`
	// BallTier is only meaningful for throw requests.
	BallTier  uint8                 `json:"ball_tier"`
	Seed      [engine.SeedSize]byte `json:"-"`
	Fulfilled bool                  `json:"fulfilled"`
	CreatedAt int64                 `json:"created_at"`
}
