// Command wildcatchd runs the creature-catch service: the HTTP API,
// the websocket event stream, the background request cranker and the
// SQLite journal, wired around one in-process game instance.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"

	"github.com/wildgrid/wildcatch/internal/api"
	"github.com/wildgrid/wildcatch/internal/config"
	"github.com/wildgrid/wildcatch/internal/cranker"
	"github.com/wildgrid/wildcatch/internal/custody"
	"github.com/wildgrid/wildcatch/internal/engine"
	"github.com/wildgrid/wildcatch/internal/game"
	"github.com/wildgrid/wildcatch/internal/oracle"
	"github.com/wildgrid/wildcatch/internal/store"
	"github.com/wildgrid/wildcatch/internal/stream"
)

func main() {
	logger := log.New(os.Stdout, "[WILDCATCHD] ", log.LstdFlags)

	if err := run(logger); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	hub := stream.NewHub(log.New(os.Stdout, "[STREAM] ", log.LstdFlags))

	// Events flow out of the game while its lock is held, so the sink
	// only enqueues; the journal goroutine does the slow work.
	journal := make(chan game.Event, 256)
	sink := func(e game.Event) {
		select {
		case journal <- e:
		default:
			logger.Printf("journal queue full, dropping %s", e.EventType())
		}
	}

	g := game.New(game.Options{
		Oracle:       oracle.NewLocal(cfg.OracleSeed, cfg.OracleLatency),
		Custody:      custody.NewLedger(),
		VaultAccount: cfg.VaultAccount,
		Sink:         sink,
		Logger:       log.New(os.Stdout, "[GAME] ", log.LstdFlags),
	})
	if err := g.Initialize(cfg.Authority, cfg.Treasury, game.DefaultBallPrices, game.DefaultCatchRates); err != nil {
		return err
	}
	if err := resumeRequests(g, st, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journalDone := make(chan struct{})
	go func() {
		defer close(journalDone)
		journalLoop(journal, g, st, hub, logger)
	}()

	crank := cranker.New(g, cfg.CrankInterval, log.New(os.Stdout, "[CRANK] ", log.LstdFlags))
	crankDone := make(chan struct{})
	go func() {
		defer close(crankDone)
		crank.Run(ctx)
	}()

	router := chi.NewRouter()
	router.Mount("/", api.NewServer(g, st).Routes())
	router.Get("/ws", hub.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = multierr.Append(errs, err)
	}
	<-crankDone

	close(journal)
	select {
	case <-journalDone:
	case <-shutdownCtx.Done():
		errs = multierr.Append(errs, errors.New("journal drain timed out"))
	}
	return errs
}

// resumeRequests re-registers the unfulfilled requests recorded in the
// journal so the cranker picks them up after a restart. A corrupt
// record is logged and skipped; it stays in the journal for manual
// inspection.
func resumeRequests(g *game.Game, st *store.Store, logger *log.Logger) error {
	seqs, err := st.ListUnfulfilled()
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		rec, err := st.GetRequest(seq)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		kind, err := engine.ParseRequestKind(rec.Kind)
		if err != nil {
			logger.Printf("resume: skipping request %d: %v", seq, err)
			continue
		}
		if err := g.RestoreRequest(rec.Seq, kind, rec.Requester, rec.SlotIndex, rec.BallTier, rec.CreatedAt.Unix()); err != nil {
			return err
		}
	}
	if len(seqs) > 0 {
		logger.Printf("resumed %d unfulfilled requests", len(seqs))
	}
	return nil
}

// journalLoop persists events and mirrors them to the websocket hub.
// It owns all store writes driven by events, including the request
// write-through and the inventory snapshots, and runs outside the game
// lock so it may read snapshots freely.
func journalLoop(events <-chan game.Event, g *game.Game, st *store.Store, hub *stream.Hub, logger *log.Logger) {
	for e := range events {
		hub.Publish(e)

		if err := st.AppendEvent(e.EventType(), e); err != nil {
			logger.Printf("journal append: %v", err)
		}

		switch ev := e.(type) {
		case game.RandomnessRequested:
			err := st.SaveRequest(store.RequestRecord{
				Seq:       ev.Seq,
				Kind:      ev.Kind,
				Requester: ev.Requester,
				SlotIndex: ev.SlotIndex,
				BallTier:  ev.BallTier,
				Seed:      ev.SeedHex,
			})
			if err != nil {
				logger.Printf("journal save request %d: %v", ev.Seq, err)
			}
			// A throw debits a ball at request time.
			if ev.Kind == "throw" {
				saveInventory(g, st, logger, ev.Requester)
			}
		case game.RequestFulfilled:
			if err := st.MarkFulfilled(ev.Seq); err != nil {
				logger.Printf("journal mark fulfilled %d: %v", ev.Seq, err)
			}
		case game.BallsPurchased:
			saveInventory(g, st, logger, ev.Player)
		case game.CreatureCaught:
			saveInventory(g, st, logger, ev.Catcher)
		}
	}
}

func saveInventory(g *game.Game, st *store.Store, logger *log.Logger, player string) {
	inv := g.InventorySnapshot(player)
	err := st.SaveInventory(store.InventoryRecord{
		Player:         inv.Player,
		Balls:          inv.Balls[:],
		TotalPurchased: inv.TotalPurchased,
		TotalThrows:    inv.TotalThrows,
		TotalCatches:   inv.TotalCatches,
	})
	if err != nil {
		logger.Printf("journal save inventory %s: %v", player, err)
	}
}
