package game

// Read-side accessors. Each returns a copy taken under the lock, so
// callers can serialize it without racing live state.

// ConfigSnapshot returns a copy of the configuration and counters.
func (g *Game) ConfigSnapshot() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// SlotsSnapshot returns a copy of the slot registry.
func (g *Game) SlotsSnapshot() Registry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry
}

// VaultSnapshot returns a copy of the vault.
func (g *Game) VaultSnapshot() Vault {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vault
}

// InventorySnapshot returns a copy of the player's inventory. A player
// with no recorded activity gets a zero inventory.
func (g *Game) InventorySnapshot(player string) Inventory {
	g.mu.Lock()
	defer g.mu.Unlock()
	if inv, ok := g.invs[player]; ok {
		return *inv
	}
	return Inventory{Player: player}
}

// RequestSnapshot returns a copy of a request record.
func (g *Game) RequestSnapshot(seq uint64) (Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if req, ok := g.requests[seq]; ok {
		return *req, true
	}
	return Request{}, false
}

// PendingRequests lists the sequence numbers of requests that have not
// been consumed yet. Used by the cranker to find work.
func (g *Game) PendingRequests() []uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var pending []uint64
	for seq, req := range g.requests {
		if !req.Fulfilled {
			pending = append(pending, seq)
		}
	}
	return pending
}
