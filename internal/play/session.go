/*
Package play
File: session.go
Description:
    The collaborator layer between players and the engine. A Session owns
    one World, serializes every dispatch behind a mutex, and does what the
    engine deliberately does not: affordability and readiness checks,
    payout computation, random rolls for research and mining, and minting
    entity ids.

    Every intent follows the same shape:
        1. Validate against the current world (typed error on failure)
        2. Build the action with a fully computed payload
        3. Dispatch it through the engine
        4. Notify subscribers with the new snapshot
*/

package play

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/everforgeworks/gemini-farm/internal/clock"
	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/ids"
)

// Session is safe for concurrent use.
type Session struct {
	*core

	// out receives the world committed by each accepted change made
	// through this view. See Into.
	out *game.World
}

// core is the state every view of a session shares.
type core struct {
	mu     sync.Mutex
	engine *game.Engine
	cat    *game.Catalog
	clock  clock.Clock
	ids    ids.Generator
	rand   game.Rand
	log    *slog.Logger

	world game.World
	subs  []func(game.World)
}

// Config gathers a session's injected capabilities. Zero fields get
// production defaults.
type Config struct {
	Catalog *game.Catalog
	Clock   clock.Clock
	IDs     ids.Generator
	Rand    game.Rand
	Logger  *slog.Logger
}

// New starts a session on a fresh world.
func New(cfg Config) *Session {
	if cfg.Catalog == nil {
		cfg.Catalog = game.MustDefaultCatalog()
	}
	if cfg.IDs == nil {
		cfg.IDs = ids.UUID{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	engine := game.NewEngine(cfg.Catalog, cfg.Clock, cfg.Rand)
	return &Session{core: &core{
		engine: engine,
		cat:    cfg.Catalog,
		clock:  engine.Clock,
		ids:    cfg.IDs,
		rand:   engine.Rand,
		log:    cfg.Logger,
		world:  game.NewWorld(cfg.Catalog, cfg.IDs),
	}}
}

// Into returns a view of the session that shares its world and lock. Each
// change accepted through the view copies the world it committed into
// out, so a caller can report the state its own intent produced even when
// other callers dispatch right after it. out is left untouched on
// rejection. A view is meant for one caller; do not share it.
func (s *Session) Into(out *game.World) *Session {
	return &Session{core: s.core, out: out}
}

// Catalog returns the static catalog the session was built with.
func (s *Session) Catalog() *game.Catalog { return s.cat }

// Snapshot returns a deep copy of the current world.
func (s *Session) Snapshot() game.World {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Clone()
}

// Subscribe registers fn to receive a snapshot after every accepted
// change. fn runs outside the session lock and must treat the snapshot as
// read-only; it is shared by all subscribers.
func (s *Session) Subscribe(fn func(game.World)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Dispatch is the trusted path: the action goes straight to the engine
// with no pre-checks. Replay tooling and the raw dispatch endpoint use it.
func (s *Session) Dispatch(a game.Action) error {
	return s.do(func(game.World) (game.Action, error) { return a, nil })
}

// Load replaces the world with a decoded snapshot.
func (s *Session) Load(w game.World) error {
	return s.Dispatch(game.LoadGame{NewState: &w})
}

// do runs one intent: build under the lock, apply, then notify.
func (s *Session) do(build func(w game.World) (game.Action, error)) error {
	s.mu.Lock()
	a, err := build(s.world)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if a == nil {
		s.mu.Unlock()
		return fmt.Errorf("nil action: %w", ErrBadInput)
	}
	next, ok := s.engine.Try(s.world, a)
	if !ok {
		s.mu.Unlock()
		s.log.Debug("action rejected", "type", a.Kind())
		return fmt.Errorf("%s: %w", a.Kind(), ErrRejected)
	}
	s.world = next
	snap := next.Clone()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	if s.out != nil {
		*s.out = snap
	}
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}
