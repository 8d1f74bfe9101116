// Package custody abstracts the asset-transfer subsystem holding the
// collectible tokens. The game core only ever asks it to move exactly
// one unit of an asset between accounts; escrow rules, signatures and
// token plumbing all live behind this interface.
package custody

import (
	"errors"
	"sync"
)

var (
	// ErrUnknownAsset is returned for an asset the custodian has never seen.
	ErrUnknownAsset = errors.New("custody: unknown asset")
	// ErrNotOwned is returned when the source account does not hold the asset.
	ErrNotOwned = errors.New("custody: asset not held by source account")
)

// Transferer moves one unit of an asset between accounts.
type Transferer interface {
	Transfer(from, to, assetID string) error
}

// Ledger is an in-memory custodian tracking which account holds each
// asset. It stands in for the real token subsystem in development and
// tests.
type Ledger struct {
	mu     sync.Mutex
	owners map[string]string // assetID -> account
}

// NewLedger creates an empty custodian.
func NewLedger() *Ledger {
	return &Ledger{owners: make(map[string]string)}
}

// Mint records an asset as held by the given account. Used to seed
// test and development fixtures.
func (l *Ledger) Mint(assetID, account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.owners[assetID] = account
}

// Owner reports the account currently holding the asset.
func (l *Ledger) Owner(assetID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.owners[assetID]
	return acct, ok
}

// Transfer moves the asset from one account to another.
func (l *Ledger) Transfer(from, to, assetID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return ErrNotOwned
	}
	l.owners[assetID] = to
	return nil
}
