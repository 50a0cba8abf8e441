/*
Package main
File: main.go
Description: Server entry point. Loads configuration and the catalog, restores the
autosave, starts the real-time WebSocket hub, and runs the heartbeat that pushes timer
pulses to clients and checkpoints the world to SQLite.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everforgeworks/gemini-farm/internal/api"
	"github.com/everforgeworks/gemini-farm/internal/config"
	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/play"
	"github.com/everforgeworks/gemini-farm/internal/snapshot"
	"github.com/everforgeworks/gemini-farm/internal/store"
)

func main() {
	configPath := flag.String("config", "farm.yaml", "server config file (optional)")
	flag.Parse()

	// 1. Configuration: defaults, then the YAML file, then FARM_* env
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		slog.Error("config env override failed", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	// 2. Static catalog
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("catalog load failed", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	// 3. Session; a fixed seed makes research and mining rolls reproducible
	var rnd game.Rand
	if cfg.Seed != 0 {
		rnd = rand.New(rand.NewSource(cfg.Seed))
	}
	sess := play.New(play.Config{Catalog: cat, Rand: rnd, Logger: log})

	// 4. Persistence: open the store and resume the autosave slot. Saves are
	// validated against the active catalog's caps.
	codec, err := snapshot.NewCodec(cat.Balance)
	if err != nil {
		log.Error("snapshot codec failed", "error", err)
		os.Exit(1)
	}
	db, err := store.Open(cfg.DBPath, codec)
	if err != nil {
		log.Error("store open failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := restore(context.Background(), db, sess, cfg.AutosaveSlot, time.Now(), log); err != nil {
		log.Error("autosave restore failed", "slot", cfg.AutosaveSlot, "error", err)
		db.Close()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Real-time hub and HTTP surface
	hub := api.NewHub(cfg.AllowedOrigins, log)
	go hub.Run(ctx)
	srv := api.New(api.Options{Session: sess, Saves: db, Hub: hub, Codec: codec, Config: cfg, Logger: log})

	// 6. THE HEARTBEAT
	// Pulses the timer view every PulseEvery and checkpoints every AutosaveEvery.
	go heartbeat(ctx, cfg, srv, func() { checkpoint(db, sess, cfg.AutosaveSlot, log) })

	// 7. SIGHUP forces a checkpoint without stopping the server
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				log.Info("SIGNAL: checkpoint requested")
				checkpoint(db, sess, cfg.AutosaveSlot, log)
			}
		}
	}()

	// 8. Serve until interrupted, then drain and save once more
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("GEMINI FARM server live", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	checkpoint(db, sess, cfg.AutosaveSlot, log)
}

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return game.DefaultCatalog()
	}
	return game.LoadCatalog(path)
}

// restore loads the autosave slot if one exists. A missing slot starts a
// fresh game. A slot that cannot be decoded or loaded is moved aside to
// "<slot>.corrupt-<ms>" first, so the next checkpoint cannot overwrite it.
// The error is non-nil only when the slot could be neither read nor moved.
func restore(ctx context.Context, db *store.DB, sess *play.Session, slot string, now time.Time, log *slog.Logger) error {
	if slot == "" {
		return nil
	}
	w, info, err := db.Load(ctx, slot)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("no autosave found, starting a new game", "slot", slot)
		return nil
	case errors.Is(err, store.ErrCorrupt):
		return quarantine(ctx, db, slot, now, err, log)
	case err != nil:
		return err
	}
	if err := sess.Load(w); err != nil {
		return quarantine(ctx, db, slot, now, err, log)
	}
	log.Info("autosave restored", "slot", slot, "saved_at", time.UnixMilli(info.SavedAt), "money", info.Money)
	return nil
}

func quarantine(ctx context.Context, db *store.DB, slot string, now time.Time, cause error, log *slog.Logger) error {
	moved, err := db.Quarantine(ctx, slot, now)
	if err != nil {
		return fmt.Errorf("autosave unusable (%v) and not moved aside: %w", cause, err)
	}
	log.Warn("autosave unusable, moved aside; starting a new game", "slot", slot, "moved_to", moved, "error", cause)
	return nil
}

func checkpoint(db *store.DB, sess *play.Session, slot string, log *slog.Logger) {
	if slot == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := db.Save(ctx, slot, sess.Snapshot(), time.Now())
	if err != nil {
		log.Error("autosave failed", "slot", slot, "error", err)
		return
	}
	log.Debug("autosave written", "slot", slot, "money", info.Money)
}

func heartbeat(ctx context.Context, cfg config.Config, srv *api.Server, save func()) {
	pulse := time.NewTicker(cfg.PulseEvery)
	defer pulse.Stop()

	var autosave <-chan time.Time
	if cfg.AutosaveEvery > 0 {
		t := time.NewTicker(cfg.AutosaveEvery)
		defer t.Stop()
		autosave = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pulse.C:
			srv.Pulse()
		case <-autosave:
			save()
		}
	}
}
