package game

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"testing"

	"github.com/wildgrid/wildcatch/internal/custody"
	"github.com/wildgrid/wildcatch/internal/engine"
	"github.com/wildgrid/wildcatch/internal/oracle"
)

// scriptedOracle lets tests choose the randomness each request
// resolves to. A request stays pending until the test fulfills it.
type scriptedOracle struct {
	mu        sync.Mutex
	requested map[oracle.Seed]bool
	blobs     map[oracle.Seed]oracle.Randomness
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		requested: make(map[oracle.Seed]bool),
		blobs:     make(map[oracle.Seed]oracle.Randomness),
	}
}

func (o *scriptedOracle) Request(seed oracle.Seed) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.requested[seed] {
		return oracle.ErrDuplicateSeed
	}
	o.requested[seed] = true
	return nil
}

func (o *scriptedOracle) Randomness(seed oracle.Seed) (oracle.Randomness, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.requested[seed] {
		return oracle.Randomness{}, false, oracle.ErrUnknownSeed
	}
	r, ok := o.blobs[seed]
	return r, ok, nil
}

func (o *scriptedOracle) fulfill(seed oracle.Seed, r oracle.Randomness) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blobs[seed] = r
}

// failingTransferer rejects every transfer, for exercising the
// owed-asset fallback.
type failingTransferer struct{ inner custody.Transferer }

func (f *failingTransferer) Transfer(from, to, assetID string) error {
	if from == "vault-account" && to != "admin" {
		return errors.New("token account rejected")
	}
	return f.inner.Transfer(from, to, assetID)
}

type fixture struct {
	g      *Game
	oracle *scriptedOracle
	ledger *custody.Ledger

	mu     sync.Mutex
	events []Event
}

func (f *fixture) record(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fixture) eventsOfType(typ string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.events {
		if e.EventType() == typ {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(t *testing.T, transferer func(*custody.Ledger) custody.Transferer) *fixture {
	t.Helper()

	f := &fixture{
		oracle: newScriptedOracle(),
		ledger: custody.NewLedger(),
	}
	var mover custody.Transferer = f.ledger
	if transferer != nil {
		mover = transferer(f.ledger)
	}
	f.g = New(Options{
		Oracle:       f.oracle,
		Custody:      mover,
		VaultAccount: "vault-account",
		Sink:         f.record,
		Logger:       log.New(io.Discard, "", 0),
	})
	if err := f.g.Initialize("admin", "treasury", DefaultBallPrices, DefaultCatchRates); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return f
}

// randomness builds a blob yielding the given catch roll, vault pick
// and relocation position.
func randomness(roll, pick uint64, relX, relY uint16) oracle.Randomness {
	var r oracle.Randomness
	binary.LittleEndian.PutUint64(r[0:8], roll)
	binary.LittleEndian.PutUint64(r[8:16], pick)
	binary.LittleEndian.PutUint16(r[16:18], relX)
	binary.LittleEndian.PutUint16(r[18:20], relY)
	return r
}

// spawnRandomness builds a blob yielding the given spawn position.
func spawnRandomness(x, y uint16) oracle.Randomness {
	var r oracle.Randomness
	binary.LittleEndian.PutUint16(r[0:2], x)
	binary.LittleEndian.PutUint16(r[2:4], y)
	return r
}

// spawn places a creature in the slot via the full protocol.
func (f *fixture) spawn(t *testing.T, slotIndex uint8, x, y uint16) {
	t.Helper()
	req, err := f.g.RequestSpawn("admin", slotIndex)
	if err != nil {
		t.Fatalf("RequestSpawn: %v", err)
	}
	f.oracle.fulfill(req.Seed, spawnRandomness(x, y))
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatalf("Consume spawn: %v", err)
	}
}

// buyBalls stocks the player with balls of the tier.
func (f *fixture) buyBalls(t *testing.T, player string, tier uint8, qty uint32) {
	t.Helper()
	if _, err := f.g.PurchaseBalls(player, tier, qty); err != nil {
		t.Fatalf("PurchaseBalls: %v", err)
	}
}

// stockVault mints assets to the admin and deposits them.
func (f *fixture) stockVault(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		f.ledger.Mint(id, "admin")
		if err := f.g.DepositAsset("admin", id); err != nil {
			t.Fatalf("DepositAsset(%s): %v", id, err)
		}
	}
}

func TestInitializeValidation(t *testing.T) {
	tests := []struct {
		name    string
		prices  [NumBallTiers]uint64
		rates   [NumBallTiers]uint8
		wantErr error
	}{
		{
			name:    "zero price rejected",
			prices:  [NumBallTiers]uint64{0, 10, 25, 50},
			rates:   DefaultCatchRates,
			wantErr: ErrZeroPrice,
		},
		{
			name:    "rate above 100 rejected",
			prices:  DefaultBallPrices,
			rates:   [NumBallTiers]uint8{2, 20, 50, 101},
			wantErr: ErrInvalidCatchRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Options{
				Oracle:  newScriptedOracle(),
				Custody: custody.NewLedger(),
				Logger:  log.New(io.Discard, "", 0),
			})
			err := g.Initialize("admin", "treasury", tt.prices, tt.rates)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Initialize = %v, want %v", err, tt.wantErr)
			}
			// Rejection must leave nothing persisted.
			if g.ConfigSnapshot().Initialized {
				t.Error("config was persisted despite rejection")
			}
			if _, err := g.PurchaseBalls("p", 0, 1); !errors.Is(err, ErrNotInitialized) {
				t.Errorf("operations should see ErrNotInitialized, got %v", err)
			}
		})
	}
}

func TestInitializeOnce(t *testing.T) {
	f := newFixture(t, nil)
	err := f.g.Initialize("admin", "treasury", DefaultBallPrices, DefaultCatchRates)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize = %v, want ErrAlreadyInitialized", err)
	}
}

func TestPurchaseBalls(t *testing.T) {
	f := newFixture(t, nil)

	cost, err := f.g.PurchaseBalls("alice", 1, 10)
	if err != nil {
		t.Fatalf("PurchaseBalls: %v", err)
	}
	if want := DefaultBallPrices[1] * 10; cost != want {
		t.Errorf("cost = %d, want %d", cost, want)
	}

	inv := f.g.InventorySnapshot("alice")
	if inv.Balls[1] != 10 || inv.TotalPurchased != 10 {
		t.Errorf("inventory = %+v, want 10 balls of tier 1", inv)
	}
	if got := f.g.ConfigSnapshot().TotalRevenue; got != cost {
		t.Errorf("revenue = %d, want %d", got, cost)
	}
	if len(f.eventsOfType("balls_purchased")) != 1 {
		t.Error("expected one balls_purchased event")
	}
}

func TestPurchaseBallsValidation(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.g.PurchaseBalls("alice", NumBallTiers, 1); !errors.Is(err, ErrInvalidBallTier) {
		t.Errorf("bad tier = %v, want ErrInvalidBallTier", err)
	}
	if _, err := f.g.PurchaseBalls("alice", 0, 0); !errors.Is(err, ErrZeroQuantity) {
		t.Errorf("zero qty = %v, want ErrZeroQuantity", err)
	}
	// 49.9 units/ball * 100 balls overflows the per-call cap.
	if _, err := f.g.PurchaseBalls("alice", 3, 100); !errors.Is(err, ErrPurchaseExceedsMax) {
		t.Errorf("over cap = %v, want ErrPurchaseExceedsMax", err)
	}

	inv := f.g.InventorySnapshot("alice")
	if inv.TotalPurchased != 0 {
		t.Error("failed purchases must not credit inventory")
	}
}

func TestRequestSpawnPreconditions(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.g.RequestSpawn("mallory", 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("non-authority = %v, want ErrUnauthorized", err)
	}
	if _, err := f.g.RequestSpawn("admin", MaxSlots); !errors.Is(err, ErrInvalidSlotIndex) {
		t.Errorf("bad index = %v, want ErrInvalidSlotIndex", err)
	}

	f.spawn(t, 0, 100, 200)
	if _, err := f.g.RequestSpawn("admin", 0); !errors.Is(err, ErrSlotOccupied) {
		t.Errorf("occupied slot = %v, want ErrSlotOccupied", err)
	}

	if err := f.g.SetMaxActive("admin", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.g.RequestSpawn("admin", 1); !errors.Is(err, ErrMaxActiveReached) {
		t.Errorf("at cap = %v, want ErrMaxActiveReached", err)
	}
}

func TestConsumeSpawn(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 3, 1234, 42) // 1234 wraps to 234

	reg := f.g.SlotsSnapshot()
	slot := reg.Slots[3]
	if !slot.Active {
		t.Fatal("slot should be active")
	}
	if slot.PosX != 234 || slot.PosY != 42 {
		t.Errorf("pos = (%d,%d), want (234,42)", slot.PosX, slot.PosY)
	}
	if slot.CreatureID != 1 {
		t.Errorf("creature id = %d, want 1", slot.CreatureID)
	}
	if slot.ThrowAttempts != 0 {
		t.Errorf("attempts = %d, want 0", slot.ThrowAttempts)
	}
	if reg.ActiveCount != 1 {
		t.Errorf("active count = %d, want 1", reg.ActiveCount)
	}
	if len(f.eventsOfType("creature_spawned")) != 1 {
		t.Error("expected one creature_spawned event")
	}
}

func TestConsumeExactlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.g.RequestSpawn("admin", 0)
	if err != nil {
		t.Fatal(err)
	}
	f.oracle.fulfill(req.Seed, spawnRandomness(10, 20))

	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	before := f.g.SlotsSnapshot()
	beforeCfg := f.g.ConfigSnapshot()

	// Every subsequent consume fails and leaves state untouched.
	for i := 0; i < 3; i++ {
		if err := f.g.Consume(req.Seq, ConsumeOptions{}); !errors.Is(err, ErrAlreadyFulfilled) {
			t.Fatalf("consume %d = %v, want ErrAlreadyFulfilled", i+2, err)
		}
	}
	if f.g.SlotsSnapshot() != before {
		t.Error("slot registry changed on rejected consume")
	}
	if f.g.ConfigSnapshot() != beforeCfg {
		t.Error("config changed on rejected consume")
	}
	if len(f.eventsOfType("creature_spawned")) != 1 {
		t.Error("spawn resolved more than once")
	}
}

func TestConsumeNotReady(t *testing.T) {
	f := newFixture(t, nil)
	req, err := f.g.RequestSpawn("admin", 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.g.Consume(req.Seq, ConsumeOptions{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("unfulfilled consume = %v, want ErrNotReady", err)
	}
	if err := f.g.Consume(99999, ConsumeOptions{}); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("unknown seq = %v, want ErrUnknownRequest", err)
	}

	// Still resolvable after the oracle answers; pending requests
	// never expire.
	f.oracle.fulfill(req.Seed, spawnRandomness(1, 2))
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatalf("consume after fulfillment: %v", err)
	}
}

func TestRequestThrowPreconditions(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.g.RequestThrow("alice", 0, 1); !errors.Is(err, ErrSlotNotActive) {
		t.Errorf("empty slot = %v, want ErrSlotNotActive", err)
	}

	f.spawn(t, 0, 100, 100)
	if _, err := f.g.RequestThrow("alice", 0, NumBallTiers); !errors.Is(err, ErrInvalidBallTier) {
		t.Errorf("bad tier = %v, want ErrInvalidBallTier", err)
	}
	if _, err := f.g.RequestThrow("alice", 0, 1); !errors.Is(err, ErrInsufficientBalls) {
		t.Errorf("no balls = %v, want ErrInsufficientBalls", err)
	}

	f.buyBalls(t, "alice", 1, 5)
	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatalf("RequestThrow: %v", err)
	}
	if req.Kind.String() != "throw" || req.BallTier != 1 {
		t.Errorf("request = %+v", req)
	}

	inv := f.g.InventorySnapshot("alice")
	if inv.Balls[1] != 4 {
		t.Errorf("ball balance = %d, want 4 (one debited)", inv.Balls[1])
	}
	if inv.TotalThrows != 1 {
		t.Errorf("total throws = %d, want 1", inv.TotalThrows)
	}
}

func TestThrowCatchAwardsAsset(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.stockVault(t, "asset-a", "asset-b", "asset-c")
	f.buyBalls(t, "alice", 1, 1)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Roll 5 < rate 20 catches; pick 1 selects asset-b.
	f.oracle.fulfill(req.Seed, randomness(5, 1, 0, 0))
	if err := f.g.Consume(req.Seq, ConsumeOptions{WinnerAccount: "alice-wallet"}); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	v := f.g.VaultSnapshot()
	if v.Count != 2 {
		t.Errorf("vault count = %d, want 2", v.Count)
	}
	checkVaultInvariant(t, &v)
	if owner, _ := f.ledger.Owner("asset-b"); owner != "alice-wallet" {
		t.Errorf("asset-b owner = %q, want alice-wallet", owner)
	}

	if len(f.eventsOfType("asset_awarded")) != 1 {
		t.Error("expected one asset_awarded event")
	}
	if caught := f.eventsOfType("creature_caught"); len(caught) != 1 {
		t.Error("expected one creature_caught event")
	} else if got := caught[0].(CreatureCaught).AssetID; got != "asset-b" {
		t.Errorf("caught asset = %q, want asset-b", got)
	}

	reg := f.g.SlotsSnapshot()
	if reg.Slots[0].Active || reg.ActiveCount != 0 {
		t.Error("caught creature should leave the slot empty")
	}
	if got := f.g.InventorySnapshot("alice").TotalCatches; got != 1 {
		t.Errorf("total catches = %d, want 1", got)
	}
}

func TestThrowCatchWithoutTransferData(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.stockVault(t, "asset-a")
	f.buyBalls(t, "alice", 1, 1)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.oracle.fulfill(req.Seed, randomness(0, 0, 0, 0))
	// No winner account supplied: the award still happens.
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if got := f.g.VaultSnapshot().Count; got != 0 {
		t.Errorf("vault count = %d, want 0 (removal is the award)", got)
	}
	if len(f.eventsOfType("asset_awarded")) != 0 {
		t.Error("no asset_awarded without transfer data")
	}
	owed := f.eventsOfType("asset_owed")
	if len(owed) != 1 {
		t.Fatal("expected one asset_owed event")
	}
	if e := owed[0].(AssetOwed); e.AssetID != "asset-a" || e.Winner != "alice" {
		t.Errorf("owed event = %+v", e)
	}
	// The asset stays in pool custody pending reconciliation.
	if owner, _ := f.ledger.Owner("asset-a"); owner != "vault-account" {
		t.Errorf("asset-a owner = %q, want vault-account", owner)
	}
}

func TestThrowCatchTransferFailure(t *testing.T) {
	f := newFixture(t, func(l *custody.Ledger) custody.Transferer {
		return &failingTransferer{inner: l}
	})
	f.spawn(t, 0, 100, 100)
	f.stockVault(t, "asset-a")
	f.buyBalls(t, "alice", 1, 1)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.oracle.fulfill(req.Seed, randomness(0, 0, 0, 0))
	if err := f.g.Consume(req.Seq, ConsumeOptions{WinnerAccount: "alice-wallet"}); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// Transfer failed after removal: no rollback, reconciliation owed.
	if got := f.g.VaultSnapshot().Count; got != 0 {
		t.Errorf("vault count = %d, want 0", got)
	}
	if len(f.eventsOfType("asset_owed")) != 1 {
		t.Error("expected one asset_owed event")
	}
}

func TestThrowCatchEmptyVault(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.buyBalls(t, "alice", 3, 1) // master tier, rate 99

	req, err := f.g.RequestThrow("alice", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	f.oracle.fulfill(req.Seed, randomness(0, 0, 0, 0))
	if err := f.g.Consume(req.Seq, ConsumeOptions{WinnerAccount: "alice-wallet"}); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if len(f.eventsOfType("asset_awarded"))+len(f.eventsOfType("asset_owed")) != 0 {
		t.Error("empty vault must award nothing")
	}
	caught := f.eventsOfType("creature_caught")
	if len(caught) != 1 || caught[0].(CreatureCaught).AssetID != "" {
		t.Error("catch should resolve with no asset")
	}
}

func TestThrowMissIncrementsAttempts(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.buyBalls(t, "alice", 1, 5)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.oracle.fulfill(req.Seed, randomness(50, 0, 0, 0)) // 50 >= 20 misses
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatal(err)
	}

	slot := f.g.SlotsSnapshot().Slots[0]
	if !slot.Active || slot.ThrowAttempts != 1 {
		t.Errorf("slot = %+v, want active with 1 attempt", slot)
	}
	failed := f.eventsOfType("throw_failed")
	if len(failed) != 1 {
		t.Fatal("expected one throw_failed event")
	}
	if got := failed[0].(ThrowFailed).AttemptsRemaining; got != MaxThrowAttempts-1 {
		t.Errorf("attempts remaining = %d, want %d", got, MaxThrowAttempts-1)
	}
}

// Three consecutive misses at rate 20: the third exhausts the budget
// and relocates the creature with attempts reset, still active.
func TestAttemptExhaustionRelocates(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.buyBalls(t, "alice", 1, MaxThrowAttempts)

	for i := 0; i < MaxThrowAttempts; i++ {
		req, err := f.g.RequestThrow("alice", 0, 1)
		if err != nil {
			t.Fatalf("throw %d: %v", i+1, err)
		}
		f.oracle.fulfill(req.Seed, randomness(77, 0, 555, 666)) // 77 >= 20
		if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}
	}

	slot := f.g.SlotsSnapshot().Slots[0]
	if !slot.Active {
		t.Fatal("creature must survive exhaustion")
	}
	if slot.ThrowAttempts != 0 {
		t.Errorf("attempts = %d, want 0 after relocation", slot.ThrowAttempts)
	}
	if slot.PosX != 555 || slot.PosY != 666 {
		t.Errorf("pos = (%d,%d), want relocated to (555,666)", slot.PosX, slot.PosY)
	}
	if slot.CreatureID != 1 {
		t.Errorf("creature id changed to %d", slot.CreatureID)
	}

	relocated := f.eventsOfType("creature_relocated")
	if len(relocated) != 1 {
		t.Fatalf("expected one creature_relocated event, got %d", len(relocated))
	}
	e := relocated[0].(CreatureRelocated)
	if e.OldX != 100 || e.OldY != 100 || e.NewX != 555 || e.NewY != 666 {
		t.Errorf("relocation event = %+v", e)
	}
	if len(f.eventsOfType("throw_failed")) != MaxThrowAttempts {
		t.Error("every miss should emit throw_failed")
	}
}

// With a single asset in the vault and two throw resolutions both
// selecting it, exactly one claims it.
func TestAwardAtomicitySingleAsset(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.spawn(t, 1, 200, 200)
	f.stockVault(t, "asset-only")
	f.buyBalls(t, "alice", 3, 1)
	f.buyBalls(t, "bob", 3, 1)

	reqA, err := f.g.RequestThrow("alice", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	reqB, err := f.g.RequestThrow("bob", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	// Both catch (rate 99) and both select index 0.
	f.oracle.fulfill(reqA.Seed, randomness(0, 0, 0, 0))
	f.oracle.fulfill(reqB.Seed, randomness(0, 0, 0, 0))

	if err := f.g.Consume(reqA.Seq, ConsumeOptions{WinnerAccount: "alice-wallet"}); err != nil {
		t.Fatal(err)
	}
	if err := f.g.Consume(reqB.Seq, ConsumeOptions{WinnerAccount: "bob-wallet"}); err != nil {
		t.Fatal(err)
	}

	if got := f.g.VaultSnapshot().Count; got != 0 {
		t.Errorf("vault count = %d, want 0", got)
	}
	if got := len(f.eventsOfType("asset_awarded")); got != 1 {
		t.Errorf("asset_awarded events = %d, want exactly 1", got)
	}
	if owner, _ := f.ledger.Owner("asset-only"); owner != "alice-wallet" {
		t.Errorf("owner = %q, want alice-wallet (first consumer)", owner)
	}
}

func TestThrowAgainstVanishedCreature(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.buyBalls(t, "alice", 1, 1)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.g.Despawn("admin", 0); err != nil {
		t.Fatal(err)
	}

	f.oracle.fulfill(req.Seed, randomness(0, 0, 0, 0))
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	// Request terminates; a second consume is rejected.
	if err := f.g.Consume(req.Seq, ConsumeOptions{}); !errors.Is(err, ErrAlreadyFulfilled) {
		t.Errorf("second consume = %v, want ErrAlreadyFulfilled", err)
	}
	if f.g.SlotsSnapshot().Slots[0].Active {
		t.Error("slot should stay empty")
	}
}

func TestRequestSequenceAdvances(t *testing.T) {
	f := newFixture(t, nil)
	seen := make(map[uint64]bool)
	for i := uint8(0); i < 5; i++ {
		req, err := f.g.RequestSpawn("admin", i)
		if err != nil {
			t.Fatal(err)
		}
		if seen[req.Seq] {
			t.Fatalf("sequence %d reused", req.Seq)
		}
		seen[req.Seq] = true
		f.oracle.fulfill(req.Seed, spawnRandomness(uint16(i), uint16(i)))
		if err := f.g.Consume(req.Seq, ConsumeOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.g.ConfigSnapshot().RequestSequence; got != 5 {
		t.Errorf("request sequence = %d, want 5", got)
	}
	if got := len(f.g.PendingRequests()); got != 0 {
		t.Errorf("pending requests = %d, want 0", got)
	}
}

func TestCatchCounterOverflowKeepsVaultIntact(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, 0, 100, 100)
	f.stockVault(t, "asset-a")
	f.buyBalls(t, "alice", 1, 1)

	req, err := f.g.RequestThrow("alice", 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	f.g.mu.Lock()
	f.g.inventory("alice").TotalCatches = math.MaxUint64
	f.g.mu.Unlock()

	// Roll 5 < rate 20 catches, but the catch counter cannot advance.
	f.oracle.fulfill(req.Seed, randomness(5, 0, 0, 0))
	err = f.g.Consume(req.Seq, ConsumeOptions{WinnerAccount: "alice-wallet"})
	if !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("Consume = %v, want ErrMathOverflow", err)
	}

	// The failure must commit nothing: the asset stays pooled, the
	// creature stays in place and the request stays consumable.
	v := f.g.VaultSnapshot()
	if v.Count != 1 {
		t.Errorf("vault count = %d, want 1", v.Count)
	}
	checkVaultInvariant(t, &v)
	if owner, _ := f.ledger.Owner("asset-a"); owner != "vault-account" {
		t.Errorf("asset-a owner = %q, want vault-account", owner)
	}
	if !f.g.SlotsSnapshot().Slots[0].Active {
		t.Error("creature should remain in its slot")
	}
	if r, ok := f.g.RequestSnapshot(req.Seq); !ok || r.Fulfilled {
		t.Errorf("request fulfilled = %v, want pending", r.Fulfilled)
	}
	if len(f.eventsOfType("asset_awarded"))+len(f.eventsOfType("asset_owed")) != 0 {
		t.Error("no award events expected")
	}
}

func TestRestoreRequestResumesConsume(t *testing.T) {
	f := newFixture(t, nil)

	// A spawn request journaled as seq 7 before a restart.
	if err := f.g.RestoreRequest(7, engine.KindSpawn, "admin", 3, 0, 1234); err != nil {
		t.Fatalf("RestoreRequest: %v", err)
	}
	if got := f.g.PendingRequests(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("pending = %v, want [7]", got)
	}

	seed := engine.MakeSeed(7, engine.KindSpawn)
	if !f.oracle.requested[seed] {
		t.Fatal("restored request not re-registered with the oracle")
	}
	f.oracle.fulfill(seed, spawnRandomness(42, 43))
	if err := f.g.Consume(7, ConsumeOptions{}); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	slot := f.g.SlotsSnapshot().Slots[3]
	if !slot.Active || slot.PosX != 42 || slot.PosY != 43 {
		t.Errorf("slot = %+v, want active at (42,43)", slot)
	}

	// New requests must allocate past the restored sequence.
	req, err := f.g.RequestSpawn("admin", 0)
	if err != nil {
		t.Fatal(err)
	}
	if req.Seq != 8 {
		t.Errorf("next seq = %d, want 8", req.Seq)
	}
}

func TestRestoreRequestIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	req, err := f.g.RequestSpawn("admin", 0)
	if err != nil {
		t.Fatal(err)
	}
	// Restoring a sequence that is already live changes nothing.
	if err := f.g.RestoreRequest(req.Seq, engine.KindSpawn, "admin", 5, 0, 0); err != nil {
		t.Fatalf("RestoreRequest: %v", err)
	}
	got, ok := f.g.RequestSnapshot(req.Seq)
	if !ok || got.SlotIndex != 0 {
		t.Errorf("request slot = %d, want 0", got.SlotIndex)
	}
	if seq := f.g.ConfigSnapshot().RequestSequence; seq != req.Seq+1 {
		t.Errorf("request sequence = %d, want %d", seq, req.Seq+1)
	}
}
