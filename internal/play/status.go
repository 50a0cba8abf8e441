/*
Package play
File: status.go
Description:
    The timer view pushed on every pulse.
*/

package play

import (
	"time"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// TimerStatus is one timed operation as seen at a given instant.
type TimerStatus struct {
	Op          string     `json:"op"`
	Target      string     `json:"target,omitempty"` // facility, tenant or country id
	Phase       game.Phase `json:"phase"`
	RemainingMs int64      `json:"remaining_ms"`
	Progress    float64    `json:"progress"`
}

// Status is the pulse payload: every timer in the world, classified, plus
// the split of the citizen labor pool.
type Status struct {
	At        int64         `json:"at"` // Unix milliseconds
	Growth    []TimerStatus `json:"growth"`
	Ruins     TimerStatus   `json:"ruins"`
	Tenants   []TimerStatus `json:"tenants"`
	Mine      TimerStatus   `json:"mine"`
	Countries []TimerStatus `json:"countries"`

	IdleCitizens     int64 `json:"idle_citizens"`
	AssignedCitizens int64 `json:"assigned_citizens"`
}

func timerStatus(op game.Operation, t game.Timer, target string, now time.Time) TimerStatus {
	return TimerStatus{
		Op:          op.Name,
		Target:      target,
		Phase:       op.Phase(t, now),
		RemainingMs: op.Remaining(t, now).Milliseconds(),
		Progress:    op.Progress(t, now),
	}
}

// Status classifies every timer at now.
func (s *Session) Status(now time.Time) Status {
	s.mu.Lock()
	w := s.world
	s.mu.Unlock()

	// w shares maps with the live world, but transitions never write in
	// place, so reading it after unlocking is safe.
	st := Status{
		At:        now.UnixMilli(),
		Growth:    make([]TimerStatus, 0, len(w.Facilities)),
		Tenants:   make([]TimerStatus, 0, len(w.Tenants)),
		Countries: []TimerStatus{},

		IdleCitizens:     w.Citizens,
		AssignedCitizens: w.AssignedCitizens(),
	}
	growth := s.cat.Growth()
	for _, f := range w.Facilities {
		st.Growth = append(st.Growth, timerStatus(growth, game.GrowthTimer(f), f.ID, now))
	}
	st.Ruins = timerStatus(s.cat.RuinProfitOp(), w.RuinProfitState, "", now)
	tenantOp := s.cat.TenantProfitOp()
	for _, t := range w.Tenants {
		st.Tenants = append(st.Tenants, timerStatus(tenantOp, w.TenantProfitState[t.ID], t.ID, now))
	}
	st.Mine = timerStatus(s.cat.MiningOp(), w.MineState, "", now)
	countryOp := s.cat.CountryProductionOp()
	for _, co := range s.cat.Countries {
		if cs, ok := w.Countries[co.ID]; ok {
			st.Countries = append(st.Countries, timerStatus(countryOp, cs.ProductionState, string(co.ID), now))
		}
	}
	return st
}
