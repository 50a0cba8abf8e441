/*
Package api
File: server.go
Description:
    Wires the HTTP surface: routes, the error-to-status mapping, JSON
    helpers and middleware (CORS and per-client rate limits).

    The server holds no game state of its own. Every handler reads from or
    dispatches into the play.Session, which serializes access.
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/everforgeworks/gemini-farm/internal/clock"
	"github.com/everforgeworks/gemini-farm/internal/config"
	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/play"
	"github.com/everforgeworks/gemini-farm/internal/snapshot"
	"github.com/everforgeworks/gemini-farm/internal/store"
)

const maxBody = 8 << 20

// Saves is the slot storage the save endpoints need. *store.DB satisfies it.
type Saves interface {
	Save(ctx context.Context, slot string, w game.World, at time.Time) (store.SaveInfo, error)
	Load(ctx context.Context, slot string) (game.World, store.SaveInfo, error)
	List(ctx context.Context) ([]store.SaveInfo, error)
	Delete(ctx context.Context, slot string) error
}

// Options configures a Server. Session is required; a nil Saves disables
// the slot endpoints and a nil Hub disables /ws. Codec validates imported
// saves and must match the session's catalog; nil means the codec for the
// embedded catalog.
type Options struct {
	Session *play.Session
	Saves   Saves
	Hub     *Hub
	Codec   *snapshot.Codec
	Config  config.Config
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Server is the HTTP front of one session.
type Server struct {
	session *play.Session
	saves   Saves
	hub     *Hub
	codec   *snapshot.Codec
	cfg     config.Config
	clock   clock.Clock
	log     *slog.Logger
}

// New builds a server. When a hub is given the session's accepted changes
// are broadcast to it.
func New(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Codec == nil {
		opts.Codec = snapshot.Default()
	}
	s := &Server{
		session: opts.Session,
		saves:   opts.Saves,
		hub:     opts.Hub,
		codec:   opts.Codec,
		cfg:     opts.Config,
		clock:   opts.Clock,
		log:     opts.Logger,
	}
	if s.hub != nil {
		s.session.Subscribe(func(w game.World) {
			s.hub.Broadcast(MsgState, w)
		})
	}
	return s
}

// Pulse broadcasts the current timer view. main calls it on every
// heartbeat.
func (s *Server) Pulse() {
	if s.hub != nil {
		s.hub.Broadcast(MsgPulse, s.session.Status(s.clock.Now()))
	}
}

// Routes returns the complete handler tree with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Read endpoints
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)

	// Farm
	mux.HandleFunc("POST /api/seeds/buy", s.handleBuySeeds)
	mux.HandleFunc("POST /api/facilities/buy", s.handleBuyFacility)
	mux.HandleFunc("POST /api/facilities/plant", s.handlePlant)
	mux.HandleFunc("POST /api/facilities/harvest", s.handleHarvest)
	mux.HandleFunc("POST /api/crops/sell", s.handleSellCrop)
	mux.HandleFunc("POST /api/crops/research", s.handleResearch)

	// Ruins
	mux.HandleFunc("POST /api/fragments/exchange", s.handleExchangeFragment)
	mux.HandleFunc("POST /api/ruins/assemble", s.handleAssembleRuin)
	mux.HandleFunc("POST /api/ruins/profit/start", s.handleStartRuinProfit)
	mux.HandleFunc("POST /api/ruins/profit/claim", s.handleClaimRuinProfit)

	// Economy
	mux.HandleFunc("POST /api/tenants/buy", s.handleBuyTenant)
	mux.HandleFunc("POST /api/tenants/profit/start", s.handleStartTenantProfit)
	mux.HandleFunc("POST /api/tenants/profit/claim", s.handleClaimTenantProfit)
	mux.HandleFunc("POST /api/companies/buy", s.handleBuyCompany)
	mux.HandleFunc("POST /api/companies/assign", s.handleAssignCompany)
	mux.HandleFunc("POST /api/companies/remove", s.handleRemoveCompany)
	mux.HandleFunc("POST /api/companies/produce", s.handleProduce)
	mux.HandleFunc("POST /api/products/sell", s.handleSellCompanyProduct)
	mux.HandleFunc("POST /api/citizens/assign", s.handleAssignCitizens)
	mux.HandleFunc("POST /api/citizens/withdraw", s.handleWithdrawCitizens)

	// Mine
	mux.HandleFunc("POST /api/mine/start", s.handleStartMining)
	mux.HandleFunc("POST /api/mine/collect", s.handleCollectMinerals)
	mux.HandleFunc("POST /api/minerals/sell", s.handleSellMineral)
	mux.HandleFunc("POST /api/weapons/craft", s.handleCraftWeapon)
	mux.HandleFunc("POST /api/weapons/sell", s.handleSellWeapon)

	// Countries
	mux.HandleFunc("POST /api/countries/conquer", s.handleConquer)
	mux.HandleFunc("POST /api/countries/production/start", s.handleStartCountryProduction)
	mux.HandleFunc("POST /api/countries/production/collect", s.handleCollectCountryProduction)
	mux.HandleFunc("POST /api/countries/upgrade", s.handleUpgradeRank)
	mux.HandleFunc("POST /api/specialty/sell", s.handleSellSpecialtyGood)

	// Saves
	mux.HandleFunc("GET /api/save/export", s.handleExport)
	mux.HandleFunc("POST /api/save/import", s.handleImport)
	mux.HandleFunc("POST /api/save/slot", s.handleSaveSlot)
	mux.HandleFunc("POST /api/save/restore", s.handleRestoreSlot)
	mux.HandleFunc("GET /api/save/slots", s.handleListSlots)
	mux.HandleFunc("DELETE /api/save/slots/{slot}", s.handleDeleteSlot)

	// Trusted raw action path
	mux.HandleFunc("POST /api/dispatch", s.handleDispatch)

	// Real-time
	mux.HandleFunc("GET /ws", s.handleWs)

	limiter := newClientLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
	return corsMiddleware(s.cfg.AllowedOrigins, limiter.middleware(mux))
}

// statusFor maps a sentinel error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, play.ErrBadInput),
		errors.Is(err, game.ErrMalformedAction),
		errors.Is(err, snapshot.ErrInvalidFormat),
		errors.Is(err, snapshot.ErrSchema),
		errors.Is(err, snapshot.ErrTransport),
		errors.Is(err, store.ErrBadSlot):
		return http.StatusBadRequest
	case errors.Is(err, play.ErrInsufficient):
		return http.StatusPaymentRequired
	case errors.Is(err, play.ErrUnknown), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, play.ErrConflict),
		errors.Is(err, play.ErrNotReady),
		errors.Is(err, play.ErrLocked),
		errors.Is(err, play.ErrRejected):
		return http.StatusConflict
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	s.log.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request into dst. An empty body leaves dst at its
// zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(play.ErrBadInput, err)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Status(s.clock.Now()))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Catalog())
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.NotFound(w, r)
		return
	}
	s.hub.ServeWs(w, r, func() *Message {
		return &Message{Type: MsgState, Payload: s.session.Snapshot()}
	})
}
