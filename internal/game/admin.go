package game

import (
	"fmt"

	"github.com/wildgrid/wildcatch/internal/engine"
)

// Administrative overrides. These bypass the randomness protocol
// entirely: they are direct, authority-gated mutations.

// requireAuthority validates initialization and the caller identity.
// Caller holds the lock.
func (g *Game) requireAuthority(caller string) error {
	if !g.cfg.Initialized {
		return ErrNotInitialized
	}
	if caller != g.cfg.Authority {
		return ErrUnauthorized
	}
	return nil
}

// ForceSpawn places a creature at explicit coordinates without
// consulting the oracle.
func (g *Game) ForceSpawn(authority string, slotIndex uint8, x, y uint16) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return 0, err
	}
	if int(slotIndex) >= MaxSlots {
		return 0, ErrInvalidSlotIndex
	}
	if x > engine.MaxCoordinate || y > engine.MaxCoordinate {
		return 0, ErrInvalidCoordinate
	}
	if g.registry.Slots[slotIndex].Active {
		return 0, ErrSlotOccupied
	}
	if g.registry.ActiveCount >= g.cfg.MaxActive {
		return 0, ErrMaxActiveReached
	}

	id, err := addU64(g.cfg.CreatureIDCounter, 1)
	if err != nil {
		return 0, err
	}
	slot := Slot{
		Active:     true,
		CreatureID: id,
		PosX:       x,
		PosY:       y,
		SpawnedAt:  g.now().Unix(),
	}
	if err := g.registry.activate(int(slotIndex), slot); err != nil {
		return 0, err
	}
	g.cfg.CreatureIDCounter = id

	g.sink(CreatureSpawned{CreatureID: id, SlotIndex: slotIndex, PosX: x, PosY: y})
	g.logger.Printf("creature force-spawned id=%d slot=%d pos=(%d,%d)", id, slotIndex, x, y)
	return id, nil
}

// Despawn clears an active slot.
func (g *Game) Despawn(authority string, slotIndex uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if int(slotIndex) >= MaxSlots {
		return ErrInvalidSlotIndex
	}
	slot := g.registry.Slots[slotIndex]
	if !slot.Active {
		return ErrSlotNotActive
	}

	g.registry.clear(int(slotIndex))
	g.sink(CreatureDespawned{CreatureID: slot.CreatureID, SlotIndex: slotIndex})
	g.logger.Printf("creature despawned id=%d slot=%d", slot.CreatureID, slotIndex)
	return nil
}

// Reposition moves an active creature to explicit coordinates.
func (g *Game) Reposition(authority string, slotIndex uint8, x, y uint16) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if int(slotIndex) >= MaxSlots {
		return ErrInvalidSlotIndex
	}
	if x > engine.MaxCoordinate || y > engine.MaxCoordinate {
		return ErrInvalidCoordinate
	}
	slot := g.registry.Slots[slotIndex]
	if !slot.Active {
		return ErrSlotNotActive
	}

	oldX, oldY := slot.PosX, slot.PosY
	slot.PosX, slot.PosY = x, y
	g.registry.Slots[slotIndex] = slot

	g.sink(CreatureRelocated{
		CreatureID: slot.CreatureID,
		SlotIndex:  slotIndex,
		OldX:       oldX,
		OldY:       oldY,
		NewX:       x,
		NewY:       y,
	})
	return nil
}

// SetBallPrice updates one tier's price.
func (g *Game) SetBallPrice(authority string, tier uint8, price uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if int(tier) >= NumBallTiers {
		return ErrInvalidBallTier
	}
	if price == 0 {
		return ErrZeroPrice
	}

	old := g.cfg.BallPrices[tier]
	g.cfg.BallPrices[tier] = price
	g.sink(BallPriceUpdated{Tier: tier, OldPrice: old, NewPrice: price})
	g.logger.Printf("ball price updated tier=%d old=%d new=%d", tier, old, price)
	return nil
}

// SetCatchRate updates one tier's catch probability.
func (g *Game) SetCatchRate(authority string, tier uint8, rate uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if int(tier) >= NumBallTiers {
		return ErrInvalidBallTier
	}
	if rate > 100 {
		return ErrInvalidCatchRate
	}

	old := g.cfg.CatchRates[tier]
	g.cfg.CatchRates[tier] = rate
	g.sink(CatchRateUpdated{Tier: tier, OldRate: old, NewRate: rate})
	g.logger.Printf("catch rate updated tier=%d old=%d new=%d", tier, old, rate)
	return nil
}

// SetMaxActive updates the soft cap on concurrent creatures.
func (g *Game) SetMaxActive(authority string, max uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if max < 1 || max > MaxSlots {
		return ErrInvalidMaxActive
	}

	old := g.cfg.MaxActive
	g.cfg.MaxActive = max
	g.sink(MaxActiveUpdated{OldMax: old, NewMax: max})
	return nil
}

// DepositAsset moves an asset from the authority's custody account
// into the pool. Capacity is checked before the transfer so a full
// vault never strands an asset in the pool account.
func (g *Game) DepositAsset(authority, assetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if g.vault.Count >= g.vault.MaxSize {
		return ErrVaultFull
	}
	if err := g.custody.Transfer(authority, g.vaultAccount, assetID); err != nil {
		return fmt.Errorf("deposit transfer: %w", err)
	}
	if err := g.vault.Deposit(assetID); err != nil {
		return err
	}

	g.sink(AssetDeposited{AssetID: assetID, VaultCount: g.vault.Count})
	g.logger.Printf("asset deposited asset=%s count=%d", assetID, g.vault.Count)
	return nil
}

// WithdrawAsset removes the asset at index from the pool and returns
// it to the authority's custody account (admin recovery path).
func (g *Game) WithdrawAsset(authority string, index int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return "", err
	}
	if g.vault.Count == 0 {
		return "", ErrVaultEmpty
	}
	if index < 0 || index >= int(g.vault.Count) {
		return "", ErrInvalidAssetIndex
	}

	assetID := g.vault.Assets[index]
	if err := g.custody.Transfer(g.vaultAccount, authority, assetID); err != nil {
		return "", fmt.Errorf("withdraw transfer: %w", err)
	}
	if _, err := g.vault.Remove(index); err != nil {
		return "", err
	}

	g.sink(AssetWithdrawn{AssetID: assetID, VaultCount: g.vault.Count})
	g.logger.Printf("asset withdrawn asset=%s count=%d", assetID, g.vault.Count)
	return assetID, nil
}

// WithdrawRevenue collects accrued purchase revenue.
func (g *Game) WithdrawRevenue(authority string, amount uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAuthority(authority); err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroQuantity
	}
	withdrawn, err := addU64(g.cfg.TotalWithdrawn, amount)
	if err != nil {
		return err
	}
	if withdrawn > g.cfg.TotalRevenue {
		return ErrInsufficientRevenue
	}

	g.cfg.TotalWithdrawn = withdrawn
	g.sink(RevenueWithdrawn{Recipient: g.cfg.Treasury, Amount: amount})
	g.logger.Printf("revenue withdrawn amount=%d total=%d", amount, withdrawn)
	return nil
}
