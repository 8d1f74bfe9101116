package api

import (
	"github.com/shopspring/decimal"

	"github.com/wildgrid/wildcatch/internal/game"
)

// currencyDecimals is the exponent of the atomic currency unit.
const currencyDecimals = 6

// display converts atomic units to a human-readable decimal string.
func display(atomic uint64) string {
	return decimal.New(int64(atomic), -currencyDecimals).String()
}

type purchaseRequest struct {
	Player   string `json:"player"`
	Tier     uint8  `json:"tier"`
	Quantity uint32 `json:"quantity"`
}

type purchaseResponse struct {
	TotalCost        uint64 `json:"total_cost"`
	TotalCostDisplay string `json:"total_cost_display"`
}

type spawnRequest struct {
	Authority string `json:"authority"`
	SlotIndex uint8  `json:"slot_index"`
}

type throwRequest struct {
	Player    string `json:"player"`
	SlotIndex uint8  `json:"slot_index"`
	Tier      uint8  `json:"tier"`
}

// requestResponse describes a created randomness request.
type requestResponse struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	SlotIndex uint8  `json:"slot_index"`
}

type consumeRequest struct {
	Seq           uint64 `json:"seq"`
	WinnerAccount string `json:"winner_account,omitempty"`
}

type forceSpawnRequest struct {
	Authority string `json:"authority"`
	SlotIndex uint8  `json:"slot_index"`
	PosX      uint16 `json:"pos_x"`
	PosY      uint16 `json:"pos_y"`
}

type slotTargetRequest struct {
	Authority string `json:"authority"`
	SlotIndex uint8  `json:"slot_index"`
	PosX      uint16 `json:"pos_x"`
	PosY      uint16 `json:"pos_y"`
}

type priceUpdateRequest struct {
	Authority string `json:"authority"`
	Tier      uint8  `json:"tier"`
	Price     uint64 `json:"price"`
}

type rateUpdateRequest struct {
	Authority string `json:"authority"`
	Tier      uint8  `json:"tier"`
	Rate      uint8  `json:"rate"`
}

type maxActiveRequest struct {
	Authority string `json:"authority"`
	MaxActive uint8  `json:"max_active"`
}

type assetDepositRequest struct {
	Authority string `json:"authority"`
	AssetID   string `json:"asset_id"`
}

type assetWithdrawRequest struct {
	Authority string `json:"authority"`
	Index     int    `json:"index"`
}

type revenueWithdrawRequest struct {
	Authority string `json:"authority"`
	Amount    uint64 `json:"amount"`
}

// configResponse augments the raw config with display prices.
type configResponse struct {
	game.Config
	BallPricesDisplay   [game.NumBallTiers]string `json:"ball_prices_display"`
	TotalRevenueDisplay string                    `json:"total_revenue_display"`
}

func newConfigResponse(cfg game.Config) configResponse {
	resp := configResponse{Config: cfg, TotalRevenueDisplay: display(cfg.TotalRevenue)}
	for i, p := range cfg.BallPrices {
		resp.BallPricesDisplay[i] = display(p)
	}
	return resp
}

type vaultResponse struct {
	Assets  []string `json:"assets"`
	Count   uint8    `json:"count"`
	MaxSize uint8    `json:"max_size"`
}
