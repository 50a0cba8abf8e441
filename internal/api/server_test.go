package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/gemini-farm/internal/clock"
	"github.com/everforgeworks/gemini-farm/internal/config"
	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/ids"
	"github.com/everforgeworks/gemini-farm/internal/play"
	"github.com/everforgeworks/gemini-farm/internal/store"
)

type fixture struct {
	session *play.Session
	server  *Server
	handler http.Handler
	clock   *clock.Manual
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, tweak func(*config.Config), hub *Hub) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit = 0
	if tweak != nil {
		tweak(&cfg)
	}
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))
	sess := play.New(play.Config{
		Clock:  clk,
		IDs:    ids.NewSequence(),
		Logger: quietLogger(),
	})
	db, err := store.Open(filepath.Join(t.TempDir(), "farm.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(Options{
		Session: sess,
		Saves:   db,
		Hub:     hub,
		Config:  cfg,
		Clock:   clk,
		Logger:  quietLogger(),
	})
	return &fixture{session: sess, server: srv, handler: srv.Routes(), clock: clk}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

func TestIntentRespondsWithState(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(t, http.MethodPost, "/api/seeds/buy", `{"crop_id":"apple","quantity":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[Response](t, rec)
	if resp.State.Seeds["apple"] != 10 {
		t.Fatalf("seeds not in response state: %v", resp.State.Seeds)
	}

	rec = f.do(t, http.MethodGet, "/api/state", "")
	w := decode[game.World](t, rec)
	if w.Seeds["apple"] != 10 {
		t.Fatalf("GET /api/state missing seeds: %v", w.Seeds)
	}
}

func TestIntentReportsItsOwnState(t *testing.T) {
	f := newFixture(t, nil, nil)
	chained := false
	f.session.Subscribe(func(game.World) {
		if chained {
			return
		}
		chained = true
		if err := f.session.BuySeeds("saury", 5); err != nil {
			t.Errorf("chained buy: %v", err)
		}
	})

	resp := decode[Response](t, f.do(t, http.MethodPost, "/api/seeds/buy", `{"crop_id":"apple","quantity":1}`))
	if resp.State.Seeds["apple"] != 1 || resp.State.Seeds["saury"] != 0 {
		t.Fatalf("response carried another change: %v", resp.State.Seeds)
	}
	if f.session.Snapshot().Seeds["saury"] != 5 {
		t.Fatalf("chained change was not applied")
	}
}

func TestIntentResults(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(t, http.MethodPost, "/api/facilities/buy", `{"template_key":"feedlot"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Result game.Facility `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.Category != game.CategoryRanch {
		t.Fatalf("unexpected facility result %+v", resp.Result)
	}

	rec = f.do(t, http.MethodPost, "/api/mine/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start mining with empty body: %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t, nil, nil)
	cases := []struct {
		name, path, body string
		want             int
	}{
		{"unknown crop", "/api/seeds/buy", `{"crop_id":"durian","quantity":1}`, http.StatusNotFound},
		{"zero quantity", "/api/seeds/buy", `{"crop_id":"apple","quantity":0}`, http.StatusBadRequest},
		{"bad json", "/api/seeds/buy", `{"crop_id":`, http.StatusBadRequest},
		{"unknown field", "/api/seeds/buy", `{"crop":"apple"}`, http.StatusBadRequest},
		{"empty facility", "/api/facilities/harvest", `{"facility_id":"fac-1"}`, http.StatusConflict},
		{"unknown facility", "/api/facilities/harvest", `{"facility_id":"fac-99"}`, http.StatusNotFound},
		{"claim idle", "/api/ruins/profit/claim", "", http.StatusConflict},
		{"too poor", "/api/seeds/buy", `{"crop_id":"apple","quantity":1000000000000}`, http.StatusPaymentRequired},
	}
	before := f.session.Snapshot()
	for _, tc := range cases {
		rec := f.do(t, http.MethodPost, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: status %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}
	if f.session.Snapshot().Money != before.Money {
		t.Fatalf("failed requests changed money")
	}
}

func TestExportImport(t *testing.T) {
	f := newFixture(t, nil, nil)
	if err := f.session.BuySeeds("apple", 3); err != nil {
		t.Fatal(err)
	}
	exp := decode[ExportResponse](t, f.do(t, http.MethodGet, "/api/save/export", ""))
	if exp.Shared == "" || !bytes.HasPrefix(exp.JSON, []byte("{")) {
		t.Fatalf("unexpected export %+v", exp)
	}

	if err := f.session.BuySeeds("apple", 5); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(ImportRequest{Data: exp.Shared})
	rec := f.do(t, http.MethodPost, "/api/save/import", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	if got := f.session.Snapshot().Seeds["apple"]; got != 3 {
		t.Fatalf("import did not restore seeds: %d", got)
	}

	// raw JSON is accepted as well
	body, _ = json.Marshal(ImportRequest{Data: string(exp.JSON)})
	if rec := f.do(t, http.MethodPost, "/api/save/import", string(body)); rec.Code != http.StatusOK {
		t.Fatalf("raw import: %d %s", rec.Code, rec.Body.String())
	}
}

func TestImportRejectsBadSaves(t *testing.T) {
	f := newFixture(t, nil, nil)
	before := f.session.Snapshot()
	for _, data := range []string{
		`{"money":"1","facilities":[]}`,
		`{"money":1}`,
		`not a save at all`,
	} {
		body, _ := json.Marshal(ImportRequest{Data: data})
		rec := f.do(t, http.MethodPost, "/api/save/import", string(body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: status %d", data, rec.Code)
		}
	}
	if f.session.Snapshot().Money != before.Money {
		t.Fatalf("rejected import changed the world")
	}
}

func TestSaveSlots(t *testing.T) {
	f := newFixture(t, nil, nil)
	if err := f.session.BuySeeds("apple", 2); err != nil {
		t.Fatal(err)
	}
	rec := f.do(t, http.MethodPost, "/api/save/slot", `{"slot":"one"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}
	if err := f.session.BuySeeds("apple", 2); err != nil {
		t.Fatal(err)
	}

	list := decode[[]store.SaveInfo](t, f.do(t, http.MethodGet, "/api/save/slots", ""))
	if len(list) != 1 || list[0].Slot != "one" {
		t.Fatalf("unexpected slots %+v", list)
	}

	rec = f.do(t, http.MethodPost, "/api/save/restore", `{"slot":"one"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", rec.Code, rec.Body.String())
	}
	if got := f.session.Snapshot().Seeds["apple"]; got != 2 {
		t.Fatalf("restore gave %d seeds", got)
	}

	if rec := f.do(t, http.MethodDelete, "/api/save/slots/one", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/save/restore", `{"slot":"one"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("restore deleted slot: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/save/slot", `{"slot":"../x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad slot name: %d", rec.Code)
	}
}

func TestDispatchGate(t *testing.T) {
	envelope := `{"type":"BUY_SEEDS","payload":{"cropId":"apple","quantity":4,"cost":40}}`

	f := newFixture(t, nil, nil)
	if rec := f.do(t, http.MethodPost, "/api/dispatch", envelope); rec.Code != http.StatusForbidden {
		t.Fatalf("dispatch should be disabled by default: %d", rec.Code)
	}

	f = newFixture(t, func(c *config.Config) { c.AllowRawDispatch = true }, nil)
	rec := f.do(t, http.MethodPost, "/api/dispatch", envelope)
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch: %d %s", rec.Code, rec.Body.String())
	}
	if got := f.session.Snapshot().Seeds["apple"]; got != 4 {
		t.Fatalf("dispatch did not apply: %d", got)
	}
	var echoed struct {
		Result struct {
			Type    string `json:"type"`
			Payload struct {
				CropID   string `json:"cropId"`
				Quantity int64  `json:"quantity"`
			} `json:"payload"`
		} `json:"result"`
		State game.World `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &echoed); err != nil {
		t.Fatal(err)
	}
	if echoed.Result.Type != "BUY_SEEDS" || echoed.Result.Payload.CropID != "apple" || echoed.Result.Payload.Quantity != 4 {
		t.Fatalf("unexpected canonical action %+v", echoed.Result)
	}
	if echoed.State.Seeds["apple"] != 4 {
		t.Fatalf("dispatch response state missing seeds: %v", echoed.State.Seeds)
	}
	if rec := f.do(t, http.MethodPost, "/api/dispatch", `{"payload":{}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing type: %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	}, nil)
	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodGet, "/api/state", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	if rec := f.do(t, http.MethodGet, "/api/state", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.AllowedOrigins = []string{"https://farm.example"} }, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "https://farm.example")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://farm.example" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected CORS grant for foreign origin")
	}
}

func TestCatalogEndpoint(t *testing.T) {
	f := newFixture(t, nil, nil)
	cat := decode[game.Catalog](t, f.do(t, http.MethodGet, "/api/catalog", ""))
	if len(cat.Crops) == 0 || cat.Balance.StartingMoney == 0 {
		t.Fatalf("catalog endpoint returned an empty catalog")
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t, nil, nil)
	if err := f.session.StartMining(); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(10 * time.Second)
	st := decode[play.Status](t, f.do(t, http.MethodGet, "/api/status", ""))
	if st.Mine.Phase != game.PhaseRunning {
		t.Fatalf("mine phase = %s", st.Mine.Phase)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read ws: %v", err)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, quietLogger())
	go hub.Run(ctx)

	f := newFixture(t, nil, hub)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if typ, _ := readMessage(t, conn); typ != MsgState {
		t.Fatalf("greeting type = %q", typ)
	}

	if err := f.session.BuySeeds("apple", 7); err != nil {
		t.Fatal(err)
	}
	typ, payload := readMessage(t, conn)
	if typ != MsgState {
		t.Fatalf("broadcast type = %q", typ)
	}
	var w game.World
	if err := json.Unmarshal(payload, &w); err != nil {
		t.Fatal(err)
	}
	if w.Seeds["apple"] != 7 {
		t.Fatalf("broadcast state missing seeds: %v", w.Seeds)
	}

	f.server.Pulse()
	if typ, _ := readMessage(t, conn); typ != MsgPulse {
		t.Fatalf("pulse type = %q", typ)
	}
}

func TestGreetingFollowsRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, quietLogger())
	go hub.Run(ctx)

	registered := make(chan bool, 1)
	var client *Client
	client = &Client{hub: hub, send: make(chan []byte, sendBuffer), greet: func() *Message {
		registered <- hub.clients[client]
		return &Message{Type: MsgState, Payload: "hello"}
	}}
	hub.register <- client
	if !<-registered {
		t.Fatalf("greeting built before the client was registered")
	}
	hub.Broadcast(MsgPulse, 1)

	for _, want := range []string{MsgState, MsgPulse} {
		select {
		case data := <-client.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatal(err)
			}
			if msg.Type != want {
				t.Fatalf("got %q, want %q", msg.Type, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}
