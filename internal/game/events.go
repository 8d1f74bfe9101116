package game

// Domain events, emitted for observability. Consumers (journal,
// websocket stream) must not rely on them for correctness; the state
// machine is authoritative.

// Event is implemented by every domain event.
type Event interface {
	EventType() string
}

// Sink receives events as operations emit them. Called synchronously
// while the game lock is held, so implementations must be fast and
// must not call back into the game.
type Sink func(Event)

// RandomnessRequested is emitted when a new oracle round is opened.
type RandomnessRequested struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Requester string `json:"requester"`
	SlotIndex uint8  `json:"slot_index"`
	BallTier  uint8  `json:"ball_tier"`
	// SeedHex is the oracle seed, hex-encoded for the journal.
	SeedHex string `json:"seed_hex"`
}

func (RandomnessRequested) EventType() string { return "randomness_requested" }

// RequestFulfilled is emitted when a request reaches its terminal
// state, after the resolution events of the consume itself.
type RequestFulfilled struct {
	Seq uint64 `json:"seq"`
}

func (RequestFulfilled) EventType() string { return "request_fulfilled" }

// BallsPurchased is emitted when a player buys throwable balls.
type BallsPurchased struct {
	Player    string `json:"player"`
	Tier      uint8  `json:"tier"`
	Quantity  uint32 `json:"quantity"`
	TotalCost uint64 `json:"total_cost"`
}

func (BallsPurchased) EventType() string { return "balls_purchased" }

// ThrowAttempted is emitted when a throw request is created, before
// the oracle answers.
type ThrowAttempted struct {
	Player     string `json:"player"`
	CreatureID uint64 `json:"creature_id"`
	Tier       uint8  `json:"tier"`
	SlotIndex  uint8  `json:"slot_index"`
	RequestSeq uint64 `json:"request_seq"`
}

func (ThrowAttempted) EventType() string { return "throw_attempted" }

// CreatureSpawned is emitted when a creature appears in a slot.
type CreatureSpawned struct {
	CreatureID uint64 `json:"creature_id"`
	SlotIndex  uint8  `json:"slot_index"`
	PosX       uint16 `json:"pos_x"`
	PosY       uint16 `json:"pos_y"`
}

func (CreatureSpawned) EventType() string { return "creature_spawned" }

// CreatureCaught is emitted on a successful catch.
type CreatureCaught struct {
	Catcher    string `json:"catcher"`
	CreatureID uint64 `json:"creature_id"`
	SlotIndex  uint8  `json:"slot_index"`
	AssetID    string `json:"asset_id,omitempty"`
}

func (CreatureCaught) EventType() string { return "creature_caught" }

// ThrowFailed is emitted on a miss.
type ThrowFailed struct {
	Thrower           string `json:"thrower"`
	CreatureID        uint64 `json:"creature_id"`
	SlotIndex         uint8  `json:"slot_index"`
	AttemptsRemaining uint8  `json:"attempts_remaining"`
}

func (ThrowFailed) EventType() string { return "throw_failed" }

// CreatureRelocated is emitted when a creature moves, either by admin
// reposition or by fleeing after its attempt budget is exhausted.
type CreatureRelocated struct {
	CreatureID uint64 `json:"creature_id"`
	SlotIndex  uint8  `json:"slot_index"`
	OldX       uint16 `json:"old_x"`
	OldY       uint16 `json:"old_y"`
	NewX       uint16 `json:"new_x"`
	NewY       uint16 `json:"new_y"`
}

func (CreatureRelocated) EventType() string { return "creature_relocated" }

// CreatureDespawned is emitted when the authority clears a slot.
type CreatureDespawned struct {
	CreatureID uint64 `json:"creature_id"`
	SlotIndex  uint8  `json:"slot_index"`
}

func (CreatureDespawned) EventType() string { return "creature_despawned" }

// AssetAwarded is emitted when a caught creature's collectible has
// been removed from the vault and handed to the winner.
type AssetAwarded struct {
	Winner         string `json:"winner"`
	AssetID        string `json:"asset_id"`
	VaultRemaining uint8  `json:"vault_remaining"`
}

func (AssetAwarded) EventType() string { return "asset_awarded" }

// AssetOwed is the reconciliation fallback: the asset was removed from
// the vault (the award is final) but custody could not be transferred
// in the same operation. Operations tooling settles these manually.
type AssetOwed struct {
	Winner         string `json:"winner"`
	AssetID        string `json:"asset_id"`
	Reason         string `json:"reason"`
	VaultRemaining uint8  `json:"vault_remaining"`
}

func (AssetOwed) EventType() string { return "asset_owed" }

// AssetDeposited is emitted when the authority stocks the vault.
type AssetDeposited struct {
	AssetID    string `json:"asset_id"`
	VaultCount uint8  `json:"vault_count"`
}

func (AssetDeposited) EventType() string { return "asset_deposited" }

// AssetWithdrawn is emitted when the authority removes an asset.
type AssetWithdrawn struct {
	AssetID    string `json:"asset_id"`
	VaultCount uint8  `json:"vault_count"`
}

func (AssetWithdrawn) EventType() string { return "asset_withdrawn" }

// BallPriceUpdated is emitted on an admin price change.
type BallPriceUpdated struct {
	Tier     uint8  `json:"tier"`
	OldPrice uint64 `json:"old_price"`
	NewPrice uint64 `json:"new_price"`
}

func (BallPriceUpdated) EventType() string { return "ball_price_updated" }

// CatchRateUpdated is emitted on an admin rate change.
type CatchRateUpdated struct {
	Tier    uint8 `json:"tier"`
	OldRate uint8 `json:"old_rate"`
	NewRate uint8 `json:"new_rate"`
}

func (CatchRateUpdated) EventType() string { return "catch_rate_updated" }

// MaxActiveUpdated is emitted on an admin cap change.
type MaxActiveUpdated struct {
	OldMax uint8 `json:"old_max"`
	NewMax uint8 `json:"new_max"`
}

func (MaxActiveUpdated) EventType() string { return "max_active_updated" }

// RevenueWithdrawn is emitted when the authority collects revenue.
type RevenueWithdrawn struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

func (RevenueWithdrawn) EventType() string { return "revenue_withdrawn" }
