// Package store provides SQLite persistence for the game service: the
// randomness request log, the append-only domain event journal and
// player inventory snapshots. The in-memory game state is
// authoritative while the process runs; the store is the durable
// audit surface.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and enables WAL mode
// for better concurrency.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS requests (
			seq INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			requester TEXT NOT NULL,
			slot_index INTEGER NOT NULL,
			ball_tier INTEGER NOT NULL DEFAULT 0,
			seed TEXT NOT NULL UNIQUE,
			fulfilled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_fulfilled ON requests(fulfilled)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS inventories (
			player TEXT PRIMARY KEY,
			balls TEXT NOT NULL DEFAULT '[]',
			total_purchased INTEGER NOT NULL DEFAULT 0,
			total_throws INTEGER NOT NULL DEFAULT 0,
			total_catches INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return nil
}

// RequestRecord mirrors one randomness request.
type RequestRecord struct {
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	Requester string    `json:"requester"`
	SlotIndex uint8     `json:"slot_index"`
	BallTier  uint8     `json:"ball_tier"`
	Seed      string    `json:"seed"` // hex
	Fulfilled bool      `json:"fulfilled"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveRequest records a newly created request.
func (s *Store) SaveRequest(r RequestRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO requests (seq, kind, requester, slot_index, ball_tier, seed, fulfilled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Seq, r.Kind, r.Requester, r.SlotIndex, r.BallTier, r.Seed, r.Fulfilled,
	)
	if err != nil {
		return fmt.Errorf("store: save request %d: %w", r.Seq, err)
	}
	return nil
}

// MarkFulfilled flips a request to its terminal state.
func (s *Store) MarkFulfilled(seq uint64) error {
	res, err := s.db.Exec(`UPDATE requests SET fulfilled = 1 WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("store: mark request %d fulfilled: %w", seq, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: mark request %d fulfilled: no such request", seq)
	}
	return nil
}

// GetRequest loads one request record.
func (s *Store) GetRequest(seq uint64) (*RequestRecord, error) {
	var r RequestRecord
	err := s.db.QueryRow(
		`SELECT seq, kind, requester, slot_index, ball_tier, seed, fulfilled, created_at
		 FROM requests WHERE seq = ?`, seq,
	).Scan(&r.Seq, &r.Kind, &r.Requester, &r.SlotIndex, &r.BallTier, &r.Seed, &r.Fulfilled, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get request %d: %w", seq, err)
	}
	return &r, nil
}

// ListUnfulfilled returns the sequence numbers of requests whose
// consume never committed, oldest first. Used to resume cranking at
// startup.
func (s *Store) ListUnfulfilled() ([]uint64, error) {
	rows, err := s.db.Query(`SELECT seq FROM requests WHERE fulfilled = 0 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: list unfulfilled: %w", err)
	}
	defer rows.Close()

	var seqs []uint64
	for rows.Next() {
		var seq uint64
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("store: scan seq: %w", err)
		}
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}

// EventRecord is one journaled domain event.
type EventRecord struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// AppendEvent journals a domain event. The payload is stored as JSON.
func (s *Store) AppendEvent(eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: marshal %s event: %w", eventType, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO events (id, type, payload) VALUES (?, ?, ?)`,
		uuid.NewString(), eventType, string(raw),
	)
	if err != nil {
		return fmt.Errorf("store: append %s event: %w", eventType, err)
	}
	return nil
}

// RecentEvents returns the newest events, optionally filtered by type.
func (s *Store) RecentEvents(eventType string, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, type, payload, created_at FROM events`
	args := []any{}
	if eventType != "" {
		query += ` WHERE type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: recent events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var payload string
		if err := rows.Scan(&e.ID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// InventoryRecord is the durable snapshot of one player's inventory.
type InventoryRecord struct {
	Player         string   `json:"player"`
	Balls          []uint32 `json:"balls"`
	TotalPurchased uint64   `json:"total_purchased"`
	TotalThrows    uint64   `json:"total_throws"`
	TotalCatches   uint64   `json:"total_catches"`
}

// SaveInventory upserts a player's inventory snapshot.
func (s *Store) SaveInventory(inv InventoryRecord) error {
	balls, err := json.Marshal(inv.Balls)
	if err != nil {
		return fmt.Errorf("store: marshal balls: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO inventories (player, balls, total_purchased, total_throws, total_catches, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(player) DO UPDATE SET
			balls = excluded.balls,
			total_purchased = excluded.total_purchased,
			total_throws = excluded.total_throws,
			total_catches = excluded.total_catches,
			updated_at = CURRENT_TIMESTAMP`,
		inv.Player, string(balls), inv.TotalPurchased, inv.TotalThrows, inv.TotalCatches,
	)
	if err != nil {
		return fmt.Errorf("store: save inventory %s: %w", inv.Player, err)
	}
	return nil
}

// GetInventory loads a player's inventory snapshot.
func (s *Store) GetInventory(player string) (*InventoryRecord, error) {
	var inv InventoryRecord
	var balls string
	err := s.db.QueryRow(
		`SELECT player, balls, total_purchased, total_throws, total_catches
		 FROM inventories WHERE player = ?`, player,
	).Scan(&inv.Player, &balls, &inv.TotalPurchased, &inv.TotalThrows, &inv.TotalCatches)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get inventory %s: %w", player, err)
	}
	if err := json.Unmarshal([]byte(balls), &inv.Balls); err != nil {
		return nil, fmt.Errorf("store: decode balls for %s: %w", player, err)
	}
	return &inv, nil
}
