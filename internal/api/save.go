/*
Package api
File: save.go
Description:
    Save endpoints: export, import, named slots, and the trusted raw
    dispatch path.
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/snapshot"
	"github.com/everforgeworks/gemini-farm/internal/store"
)

var errNoStore = errors.New("save slots are not configured")

// ExportResponse carries the current world both as plain JSON and as a
// compressed share string.
type ExportResponse struct {
	JSON   json.RawMessage `json:"json"`
	Shared string          `json:"shared"`
}

type ImportRequest struct {
	Data string `json:"data"` // raw snapshot JSON or a share string
}

type SlotRequest struct {
	Slot string `json:"slot"`
}

type RestoreResponse struct {
	Info  store.SaveInfo `json:"info"`
	State game.World     `json:"state"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw, err := snapshot.Encode(s.session.Snapshot())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	shared, err := snapshot.Compress(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, ExportResponse{JSON: raw, Shared: shared})
}

// handleImport replaces the world with a pasted save. Validation happens
// before the session sees anything, so a bad save changes nothing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	world, err := s.codec.DecodeAny(req.Data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var state game.World
	if err := s.session.Into(&state).Load(world); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("save imported", "money", world.Money)
	writeJSON(w, state)
}

func (s *Server) handleSaveSlot(w http.ResponseWriter, r *http.Request) {
	if s.saves == nil {
		s.fail(w, r, errNoStore)
		return
	}
	var req SlotRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	world := s.session.Snapshot()
	info, err := s.saves.Save(r.Context(), req.Slot, world, s.clock.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("save written", "slot", info.Slot, "money", info.Money)
	writeJSON(w, info)
}

func (s *Server) handleRestoreSlot(w http.ResponseWriter, r *http.Request) {
	if s.saves == nil {
		s.fail(w, r, errNoStore)
		return
	}
	var req SlotRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	world, info, err := s.saves.Load(r.Context(), req.Slot)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var state game.World
	if err := s.session.Into(&state).Load(world); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("save restored", "slot", info.Slot, "money", info.Money)
	writeJSON(w, RestoreResponse{Info: info, State: state})
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	if s.saves == nil {
		s.fail(w, r, errNoStore)
		return
	}
	list, err := s.saves.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if s.saves == nil {
		s.fail(w, r, errNoStore)
		return
	}
	if err := s.saves.Delete(r.Context(), r.PathValue("slot")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDispatch accepts a raw action envelope on the trusted path. It
// bypasses every session check, so it is off unless configured. The result
// is the canonical envelope of the applied action.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AllowRawDispatch {
		http.Error(w, "raw dispatch is disabled", http.StatusForbidden)
		return
	}
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := game.DecodeAction(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var state game.World
	if err := s.session.Into(&state).Dispatch(a); err != nil {
		s.fail(w, r, err)
		return
	}
	// echo the action as the engine saw it, unknown fields dropped
	canonical, err := game.EncodeAction(a)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, Response{Result: json.RawMessage(canonical), State: state})
}
