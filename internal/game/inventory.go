package game

// Inventory is one player's ball balances and lifetime stats. Owned by
// the economic collaborator conceptually; the core mutates it at
// purchase, throw request and successful catch.
type Inventory struct {
	Player         string               `json:"player"`
	Balls          [NumBallTiers]uint32 `json:"balls"`
	TotalPurchased uint64               `json:"total_purchased"`
	TotalThrows    uint64               `json:"total_throws"`
	TotalCatches   uint64               `json:"total_catches"`
}
