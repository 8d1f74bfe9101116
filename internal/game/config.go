package game

// Capacity and tier bounds. These are designed invariants (bounded
// state cost), not tunables: the fixed-size arrays in Registry and
// Vault are sized by them.
const (
	// MaxSlots is the hard cap on creature slots.
	MaxSlots = 20
	// MaxThrowAttempts is the attempt budget before a creature flees.
	MaxThrowAttempts = 3
	// MaxVaultSize is the collectible pool capacity.
	MaxVaultSize = 20
	// NumBallTiers is the number of throwable ball tiers.
	NumBallTiers = 4
	// MaxPurchaseAmount caps the total cost of one purchase call, in
	// atomic currency units.
	MaxPurchaseAmount uint64 = 1_000_000_000
)

// DefaultBallPrices is the launch price table in atomic currency
// units, indexed by tier.
var DefaultBallPrices = [NumBallTiers]uint64{1_000_000, 10_000_000, 25_000_000, 49_900_000}

// DefaultCatchRates is the launch catch-probability table in percent,
// indexed by tier.
var DefaultCatchRates = [NumBallTiers]uint8{2, 20, 50, 99}

// Config is the singleton game configuration plus the process-wide
// counters the protocol advances. It is owned by the Game and mutated
// only under its lock.
type Config struct {
	Authority string `json:"authority"`
	Treasury  string `json:"treasury"`

	BallPrices [NumBallTiers]uint64 `json:"ball_prices"`
	CatchRates [NumBallTiers]uint8  `json:"catch_rates"`

	// MaxActive is the soft cap on concurrently active creatures,
	// 1..MaxSlots.
	MaxActive uint8 `json:"max_active"`

	// CreatureIDCounter issues unique creature identities. Overflow is
	// fatal, never wrapped.
	CreatureIDCounter uint64 `json:"creature_id_counter"`

	// RequestSequence issues unique oracle seeds.
	RequestSequence uint64 `json:"request_sequence"`

	// TotalRevenue and TotalWithdrawn track lifetime purchase revenue
	// in atomic currency units.
	TotalRevenue   uint64 `json:"total_revenue"`
	TotalWithdrawn uint64 `json:"total_withdrawn"`

	Initialized bool `json:"initialized"`
}
