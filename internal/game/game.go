// Package game implements the authoritative state machine of the
// creature-catch protocol: the slot registry, the collectible vault,
// player inventories and the two-phase randomness request/consume
// protocol that drives spawns and catch resolution.
//
// Every exported operation runs to completion under one lock, so
// callers observe either the full pre-state or the full post-state,
// never a partial write. The Fulfilled flag on a Request, checked
// strictly before any mutation in Consume, is the sole guard against
// double resolution.
package game

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wildgrid/wildcatch/internal/custody"
	"github.com/wildgrid/wildcatch/internal/engine"
	"github.com/wildgrid/wildcatch/internal/oracle"
)

// Options configures a Game.
type Options struct {
	Oracle  oracle.Oracle
	Custody custody.Transferer
	// VaultAccount is the custody account holding pooled assets.
	VaultAccount string
	// Sink receives domain events; nil discards them.
	Sink Sink
	// Now supplies timestamps; nil uses time.Now.
	Now func() time.Time
	// Logger receives operation logs; nil uses the default logger.
	Logger *log.Logger
}

// Game holds all mutable protocol state.
type Game struct {
	mu sync.Mutex

	cfg      Config
	registry Registry
	vault    Vault
	invs     map[string]*Inventory
	requests map[uint64]*Request

	oracle       oracle.Oracle
	custody      custody.Transferer
	vaultAccount string

	sink   Sink
	now    func() time.Time
	logger *log.Logger
}

// New creates an uninitialized game. Initialize must run before any
// other operation.
func New(opts Options) *Game {
	g := &Game{
		vault:        NewVault(),
		invs:         make(map[string]*Inventory),
		requests:     make(map[uint64]*Request),
		oracle:       opts.Oracle,
		custody:      opts.Custody,
		vaultAccount: opts.VaultAccount,
		sink:         opts.Sink,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if g.sink == nil {
		g.sink = func(Event) {}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// Initialize performs the one-time game setup. Prices must be nonzero
// and rates within 0-100; nothing is persisted if any entry fails.
func (g *Game) Initialize(authority, treasury string, prices [NumBallTiers]uint64, rates [NumBallTiers]uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg.Initialized {
		return ErrAlreadyInitialized
	}
	for _, p := range prices {
		if p == 0 {
			return ErrZeroPrice
		}
	}
	for _, r := range rates {
		if r > 100 {
			return ErrInvalidCatchRate
		}
	}

	g.cfg = Config{
		Authority:   authority,
		Treasury:    treasury,
		BallPrices:  prices,
		CatchRates:  rates,
		MaxActive:   MaxSlots,
		Initialized: true,
	}
	g.logger.Printf("game initialized authority=%s treasury=%s", authority, treasury)
	return nil
}

// PurchaseBalls credits qty balls of the tier to the player and
// accrues revenue. The currency transfer itself belongs to the outer
// economic layer; this is the inventory and revenue bookkeeping.
func (g *Game) PurchaseBalls(player string, tier uint8, qty uint32) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cfg.Initialized {
		return 0, ErrNotInitialized
	}
	if int(tier) >= NumBallTiers {
		return 0, ErrInvalidBallTier
	}
	if qty == 0 {
		return 0, ErrZeroQuantity
	}

	cost, err := mulU64(g.cfg.BallPrices[tier], uint64(qty))
	if err != nil {
		return 0, err
	}
	if cost > MaxPurchaseAmount {
		return 0, ErrPurchaseExceedsMax
	}

	inv := g.inventory(player)
	balls, err := addU32(inv.Balls[tier], qty)
	if err != nil {
		return 0, err
	}
	purchased, err := addU64(inv.TotalPurchased, uint64(qty))
	if err != nil {
		return 0, err
	}
	revenue, err := addU64(g.cfg.TotalRevenue, cost)
	if err != nil {
		return 0, err
	}

	inv.Balls[tier] = balls
	inv.TotalPurchased = purchased
	g.cfg.TotalRevenue = revenue

	g.sink(BallsPurchased{Player: player, Tier: tier, Quantity: qty, TotalCost: cost})
	g.logger.Printf("balls purchased player=%s tier=%d qty=%d cost=%d", player, tier, qty, cost)
	return cost, nil
}

// RequestSpawn records a spawn intent for an empty slot and asks the
// oracle for randomness. Authority only. Occupancy and the soft cap
// are validated here, at request time; Consume does not re-check them.
func (g *Game) RequestSpawn(authority string, slotIndex uint8) (Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cfg.Initialized {
		return Request{}, ErrNotInitialized
	}
	if authority != g.cfg.Authority {
		return Request{}, ErrUnauthorized
	}
	if int(slotIndex) >= MaxSlots {
		return Request{}, ErrInvalidSlotIndex
	}
	if g.registry.Slots[slotIndex].Active {
		return Request{}, ErrSlotOccupied
	}
	if g.registry.ActiveCount >= g.cfg.MaxActive {
		return Request{}, ErrMaxActiveReached
	}

	return g.createRequest(engine.KindSpawn, authority, slotIndex, 0)
}

// RequestThrow debits one ball of the tier and records a throw intent
// against an active slot.
func (g *Game) RequestThrow(player string, slotIndex, tier uint8) (Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cfg.Initialized {
		return Request{}, ErrNotInitialized
	}
	if int(slotIndex) >= MaxSlots {
		return Request{}, ErrInvalidSlotIndex
	}
	if int(tier) >= NumBallTiers {
		return Request{}, ErrInvalidBallTier
	}
	slot := g.registry.Slots[slotIndex]
	if !slot.Active {
		return Request{}, ErrSlotNotActive
	}
	if slot.ThrowAttempts >= MaxThrowAttempts {
		return Request{}, ErrMaxAttempts
	}
	inv := g.inventory(player)
	if inv.Balls[tier] == 0 {
		return Request{}, ErrInsufficientBalls
	}
	throws, err := addU64(inv.TotalThrows, 1)
	if err != nil {
		return Request{}, err
	}

	req, err := g.createRequest(engine.KindThrow, player, slotIndex, tier)
	if err != nil {
		return Request{}, err
	}

	inv.Balls[tier]--
	inv.TotalThrows = throws

	g.sink(ThrowAttempted{
		Player:     player,
		CreatureID: slot.CreatureID,
		Tier:       tier,
		SlotIndex:  slotIndex,
		RequestSeq: req.Seq,
	})
	return req, nil
}

// createRequest allocates the next sequence number, submits the seed
// to the oracle and records the Request. Caller holds the lock.
func (g *Game) createRequest(kind engine.RequestKind, requester string, slotIndex, tier uint8) (Request, error) {
	seq := g.cfg.RequestSequence
	nextSeq, err := addU64(seq, 1)
	if err != nil {
		return Request{}, err
	}

	seed := engine.MakeSeed(seq, kind)
	if err := g.oracle.Request(seed); err != nil {
		return Request{}, fmt.Errorf("oracle request: %w", err)
	}

	req := &Request{
		Seq:       seq,
		Kind:      kind,
		Requester: requester,
		SlotIndex: slotIndex,
		BallTier:  tier,
		Seed:      seed,
		CreatedAt: g.now().Unix(),
	}
	g.requests[seq] = req
	g.cfg.RequestSequence = nextSeq

	g.sink(RandomnessRequested{
		Seq:       seq,
		Kind:      kind.String(),
		Requester: requester,
		SlotIndex: slotIndex,
		BallTier:  tier,
		SeedHex:   hex.EncodeToString(seed[:]),
	})
	g.logger.Printf("randomness requested seq=%d kind=%s slot=%d requester=%s", seq, kind, slotIndex, requester)
	return *req, nil
}

// RestoreRequest re-registers an unconsumed request from the journal
// after a restart. The seed is re-derived from the sequence and kind,
// the oracle round is re-opened (an already-known seed is fine), and
// the global sequence advances past the restored one so new requests
// cannot collide with it. Restoring a sequence that is already live
// is a no-op.
func (g *Game) RestoreRequest(seq uint64, kind engine.RequestKind, requester string, slotIndex, tier uint8, createdAt int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cfg.Initialized {
		return ErrNotInitialized
	}
	if _, ok := g.requests[seq]; ok {
		return nil
	}

	seed := engine.MakeSeed(seq, kind)
	if err := g.oracle.Request(seed); err != nil && !errors.Is(err, oracle.ErrDuplicateSeed) {
		return fmt.Errorf("oracle request: %w", err)
	}

	g.requests[seq] = &Request{
		Seq:       seq,
		Kind:      kind,
		Requester: requester,
		SlotIndex: slotIndex,
		BallTier:  tier,
		Seed:      seed,
		CreatedAt: createdAt,
	}
	if seq >= g.cfg.RequestSequence {
		next, err := addU64(seq, 1)
		if err != nil {
			return err
		}
		g.cfg.RequestSequence = next
	}

	g.logger.Printf("request restored seq=%d kind=%s slot=%d requester=%s", seq, kind, slotIndex, requester)
	return nil
}

// ConsumeOptions carries the optional follow-through data for an
// award. A throw consume without a winner account still resolves; a
// won asset is then recorded as owed instead of transferred.
type ConsumeOptions struct {
	// WinnerAccount is the custody account to receive an awarded
	// asset. Empty means no transfer data was supplied.
	WinnerAccount string
}

// Consume resolves a request once its randomness is available. Anyone
// may call it; exactly the first call succeeds. The Fulfilled check
// runs before any mutation so a racing second caller observes
// ErrAlreadyFulfilled against unchanged state.
func (g *Game) Consume(seq uint64, opts ConsumeOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, ok := g.requests[seq]
	if !ok {
		return ErrUnknownRequest
	}
	if req.Fulfilled {
		return ErrAlreadyFulfilled
	}

	randomness, fulfilled, err := g.oracle.Randomness(req.Seed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if !fulfilled {
		return ErrNotReady
	}

	switch req.Kind {
	case engine.KindSpawn:
		err = g.consumeSpawn(req, randomness)
	case engine.KindThrow:
		err = g.consumeThrow(req, randomness, opts)
	default:
		return fmt.Errorf("request %d: invalid kind %d", seq, req.Kind)
	}
	if err != nil {
		return err
	}

	req.Fulfilled = true
	g.sink(RequestFulfilled{Seq: seq})
	return nil
}

// consumeSpawn places a new creature at the derived position. The slot
// was validated empty at request time; this is an authority-gated path
// and is not re-validated here.
func (g *Game) consumeSpawn(req *Request, randomness oracle.Randomness) error {
	id, err := addU64(g.cfg.CreatureIDCounter, 1)
	if err != nil {
		return err
	}

	x, y := engine.SpawnPosition(randomness)
	slot := Slot{
		Active:     true,
		CreatureID: id,
		PosX:       x,
		PosY:       y,
		SpawnedAt:  g.now().Unix(),
	}
	if err := g.registry.activate(int(req.SlotIndex), slot); err != nil {
		return err
	}
	g.cfg.CreatureIDCounter = id

	g.sink(CreatureSpawned{CreatureID: id, SlotIndex: req.SlotIndex, PosX: x, PosY: y})
	g.logger.Printf("creature spawned id=%d slot=%d pos=(%d,%d)", id, req.SlotIndex, x, y)
	return nil
}

// consumeThrow resolves a catch attempt: roll against the tier's rate,
// award and clear on a catch, count the miss otherwise. A creature
// whose attempt budget is exhausted flees to a freshly derived
// position with attempts reset.
func (g *Game) consumeThrow(req *Request, randomness oracle.Randomness, opts ConsumeOptions) error {
	slot := g.registry.Slots[req.SlotIndex]
	if !slot.Active {
		// The creature is gone (caught or despawned between request
		// and consume). The throw resolves as a plain miss so the
		// request still terminates exactly once.
		g.sink(ThrowFailed{Thrower: req.Requester, SlotIndex: req.SlotIndex})
		return nil
	}

	rate := g.cfg.CatchRates[req.BallTier]
	if !engine.Caught(randomness, rate) {
		return g.resolveMiss(req, slot, randomness)
	}

	// Caught. All fallible bookkeeping runs before the vault removal:
	// once an asset leaves the pool the catch must commit, so nothing
	// after the award may error. The award also precedes the slot
	// clear so a failed removal leaves the creature in place.
	inv := g.inventory(req.Requester)
	catches, err := addU64(inv.TotalCatches, 1)
	if err != nil {
		return err
	}

	var awarded string
	if g.vault.Count > 0 {
		awarded, err = g.award(req, randomness, opts)
		if err != nil {
			return err
		}
	}

	inv.TotalCatches = catches

	g.registry.clear(int(req.SlotIndex))

	g.sink(CreatureCaught{
		Catcher:    req.Requester,
		CreatureID: slot.CreatureID,
		SlotIndex:  req.SlotIndex,
		AssetID:    awarded,
	})
	g.logger.Printf("creature caught id=%d slot=%d catcher=%s", slot.CreatureID, req.SlotIndex, req.Requester)
	return nil
}

// award removes the selected asset from the vault and then attempts
// the custody transfer. Removal first: once an asset leaves the pool
// it can never be selected again, even if the transfer is skipped or
// fails. A missing or failing transfer degrades to an AssetOwed event
// for manual reconciliation and is not an error.
func (g *Game) award(req *Request, randomness oracle.Randomness, opts ConsumeOptions) (string, error) {
	pick := engine.VaultPick(randomness, int(g.vault.Count))
	assetID, err := g.vault.Remove(pick)
	if err != nil {
		return "", err
	}

	if opts.WinnerAccount == "" {
		g.sink(AssetOwed{
			Winner:         req.Requester,
			AssetID:        assetID,
			Reason:         "no transfer account supplied",
			VaultRemaining: g.vault.Count,
		})
		g.logger.Printf("asset owed asset=%s winner=%s reason=no-transfer-account", assetID, req.Requester)
		return assetID, nil
	}

	if err := g.custody.Transfer(g.vaultAccount, opts.WinnerAccount, assetID); err != nil {
		g.sink(AssetOwed{
			Winner:         req.Requester,
			AssetID:        assetID,
			Reason:         err.Error(),
			VaultRemaining: g.vault.Count,
		})
		g.logger.Printf("asset owed asset=%s winner=%s reason=%v", assetID, req.Requester, err)
		return assetID, nil
	}

	g.sink(AssetAwarded{Winner: req.Requester, AssetID: assetID, VaultRemaining: g.vault.Count})
	g.logger.Printf("asset awarded asset=%s winner=%s remaining=%d", assetID, req.Requester, g.vault.Count)
	return assetID, nil
}

// resolveMiss counts a failed attempt. Reaching the attempt budget
// relocates the creature instead of despawning it: the slot keeps its
// creature with a new position and a fresh budget.
func (g *Game) resolveMiss(req *Request, slot Slot, randomness oracle.Randomness) error {
	attempts := slot.ThrowAttempts + 1

	if attempts >= MaxThrowAttempts {
		oldX, oldY := slot.PosX, slot.PosY
		newX, newY := engine.RelocationPosition(randomness)
		slot.PosX, slot.PosY = newX, newY
		slot.ThrowAttempts = 0
		g.registry.Slots[req.SlotIndex] = slot

		g.sink(ThrowFailed{
			Thrower:    req.Requester,
			CreatureID: slot.CreatureID,
			SlotIndex:  req.SlotIndex,
		})
		g.sink(CreatureRelocated{
			CreatureID: slot.CreatureID,
			SlotIndex:  req.SlotIndex,
			OldX:       oldX,
			OldY:       oldY,
			NewX:       newX,
			NewY:       newY,
		})
		g.logger.Printf("creature relocated id=%d slot=%d pos=(%d,%d)", slot.CreatureID, req.SlotIndex, newX, newY)
		return nil
	}

	slot.ThrowAttempts = attempts
	g.registry.Slots[req.SlotIndex] = slot

	g.sink(ThrowFailed{
		Thrower:           req.Requester,
		CreatureID:        slot.CreatureID,
		SlotIndex:         req.SlotIndex,
		AttemptsRemaining: MaxThrowAttempts - attempts,
	})
	return nil
}

// inventory returns the player's inventory, creating it on first use.
// Caller holds the lock.
func (g *Game) inventory(player string) *Inventory {
	inv, ok := g.invs[player]
	if !ok {
		inv = &Inventory{Player: player}
		g.invs[player] = inv
	}
	return inv
}
