// Package api exposes the game over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wildgrid/wildcatch/internal/game"
	"github.com/wildgrid/wildcatch/internal/store"
)

// Server handles HTTP requests against the game core.
type Server struct {
	game   *game.Game
	store  *store.Store
	logger *log.Logger
}

// NewServer creates an API server. The store may be nil, which
// disables the journal endpoints (used by tests).
func NewServer(g *game.Game, st *store.Store) *Server {
	return &Server{
		game:   g,
		store:  st,
		logger: log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
	}
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Get("/slots", s.handleGetSlots)
		r.Get("/vault", s.handleGetVault)
		r.Get("/players/{player}", s.handleGetPlayer)
		r.Get("/requests/{seq}", s.handleGetRequest)
		r.Get("/events", s.handleGetEvents)

		r.Post("/purchase", s.handlePurchase)
		r.Post("/spawn", s.handleSpawn)
		r.Post("/throw", s.handleThrow)
		r.Post("/consume", s.handleConsume)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/force-spawn", s.handleForceSpawn)
			r.Post("/despawn", s.handleDespawn)
			r.Post("/reposition", s.handleReposition)
			r.Post("/price", s.handleSetPrice)
			r.Post("/rate", s.handleSetRate)
			r.Post("/max-active", s.handleSetMaxActive)
			r.Post("/vault/deposit", s.handleDepositAsset)
			r.Post("/vault/withdraw", s.handleWithdrawAsset)
			r.Post("/revenue/withdraw", s.handleWithdrawRevenue)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decode parses the request body, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeValidationError(w, r, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"initialized": s.game.ConfigSnapshot().Initialized,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newConfigResponse(s.game.ConfigSnapshot()))
}

func (s *Server) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.game.SlotsSnapshot())
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	v := s.game.VaultSnapshot()
	s.writeJSON(w, http.StatusOK, vaultResponse{
		Assets:  v.Items(),
		Count:   v.Count,
		MaxSize: v.MaxSize,
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	s.writeJSON(w, http.StatusOK, s.game.InventorySnapshot(player))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		s.writeValidationError(w, r, "seq must be an unsigned integer")
		return
	}
	req, ok := s.game.RequestSnapshot(seq)
	if !ok {
		s.writeError(w, r, game.ErrUnknownRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, []store.EventRecord{})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			s.writeValidationError(w, r, "limit must be 1-500")
			return
		}
		limit = n
	}
	events, err := s.store.RecentEvents(r.URL.Query().Get("type"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []store.EventRecord{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.writeValidationError(w, r, "player is required")
		return
	}
	cost, err := s.game.PurchaseBalls(req.Player, req.Tier, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, purchaseResponse{
		TotalCost:        cost,
		TotalCostDisplay: display(cost),
	})
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.game.RequestSpawn(req.Authority, req.SlotIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, requestResponse{
		Seq:       created.Seq,
		Kind:      created.Kind.String(),
		SlotIndex: created.SlotIndex,
	})
}

func (s *Server) handleThrow(w http.ResponseWriter, r *http.Request) {
	var req throwRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.writeValidationError(w, r, "player is required")
		return
	}
	created, err := s.game.RequestThrow(req.Player, req.SlotIndex, req.Tier)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, requestResponse{
		Seq:       created.Seq,
		Kind:      created.Kind.String(),
		SlotIndex: created.SlotIndex,
	})
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.game.Consume(req.Seq, game.ConsumeOptions{WinnerAccount: req.WinnerAccount})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"seq": req.Seq, "fulfilled": true})
}

func (s *Server) handleForceSpawn(w http.ResponseWriter, r *http.Request) {
	var req forceSpawnRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.game.ForceSpawn(req.Authority, req.SlotIndex, req.PosX, req.PosY)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"creature_id": id})
}

func (s *Server) handleDespawn(w http.ResponseWriter, r *http.Request) {
	var req slotTargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.Despawn(req.Authority, req.SlotIndex); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"slot_index": req.SlotIndex})
}

func (s *Server) handleReposition(w http.ResponseWriter, r *http.Request) {
	var req slotTargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.Reposition(req.Authority, req.SlotIndex, req.PosX, req.PosY); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"slot_index": req.SlotIndex})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.SetBallPrice(req.Authority, req.Tier, req.Price); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tier": req.Tier, "price": req.Price})
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req rateUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.SetCatchRate(req.Authority, req.Tier, req.Rate); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tier": req.Tier, "rate": req.Rate})
}

func (s *Server) handleSetMaxActive(w http.ResponseWriter, r *http.Request) {
	var req maxActiveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.SetMaxActive(req.Authority, req.MaxActive); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"max_active": req.MaxActive})
}

func (s *Server) handleDepositAsset(w http.ResponseWriter, r *http.Request) {
	var req assetDepositRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AssetID == "" {
		s.writeValidationError(w, r, "asset_id is required")
		return
	}
	if err := s.game.DepositAsset(req.Authority, req.AssetID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"asset_id": req.AssetID})
}

func (s *Server) handleWithdrawAsset(w http.ResponseWriter, r *http.Request) {
	var req assetWithdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	assetID, err := s.game.WithdrawAsset(req.Authority, req.Index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"asset_id": assetID})
}

func (s *Server) handleWithdrawRevenue(w http.ResponseWriter, r *http.Request) {
	var req revenueWithdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.game.WithdrawRevenue(req.Authority, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"amount":         req.Amount,
		"amount_display": display(req.Amount),
	})
}
