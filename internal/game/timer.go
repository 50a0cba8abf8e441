/*
Package game
File: timer.go
Description:
    The single Timed Operation primitive shared by farm growth, ruin profit,
    tenant profit, mining and country production.

    Every subsystem has the same life cycle:
        Start (idle -> running) -> wait Duration -> Collect (running -> idle)
    Only the duration and the payout differ, so there is exactly one
    readiness predicate.
*/

package game

import (
	"time"
)

// Timer is the stored half of a timed operation. A nil StartTime means
// idle (never started, or already collected).
type Timer struct {
	StartTime *int64 `json:"startTime"` // Unix milliseconds
}

// Idle returns a timer with no operation running.
func Idle() Timer {
	return Timer{}
}

// Started returns a timer running since now.
func Started(now time.Time) Timer {
	ms := now.UnixMilli()
	return Timer{StartTime: &ms}
}

// Running reports whether an operation has been started and not collected.
func (t Timer) Running() bool {
	return t.StartTime != nil
}

func (t Timer) clone() Timer {
	if t.StartTime == nil {
		return t
	}
	ms := *t.StartTime
	return Timer{StartTime: &ms}
}

// Phase classifies a timer at a given instant.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseReady   Phase = "ready"
)

// Operation is the static half of a timed operation.
type Operation struct {
	Name     string
	Duration time.Duration
}

// Ready reports start != nil && now - start >= Duration.
func (o Operation) Ready(t Timer, now time.Time) bool {
	if t.StartTime == nil {
		return false
	}
	return now.UnixMilli()-*t.StartTime >= o.Duration.Milliseconds()
}

// Remaining returns max(0, start + Duration - now); zero for idle timers.
func (o Operation) Remaining(t Timer, now time.Time) time.Duration {
	if t.StartTime == nil {
		return 0
	}
	left := *t.StartTime + o.Duration.Milliseconds() - now.UnixMilli()
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}

// Progress returns the completed fraction in [0, 1].
func (o Operation) Progress(t Timer, now time.Time) float64 {
	if t.StartTime == nil {
		return 0
	}
	if o.Duration <= 0 {
		return 1
	}
	done := float64(now.UnixMilli()-*t.StartTime) / float64(o.Duration.Milliseconds())
	switch {
	case done < 0:
		return 0
	case done > 1:
		return 1
	}
	return done
}

// Phase classifies t at now.
func (o Operation) Phase(t Timer, now time.Time) Phase {
	switch {
	case t.StartTime == nil:
		return PhaseIdle
	case o.Ready(t, now):
		return PhaseReady
	}
	return PhaseRunning
}

// GrowthTimer adapts a facility's planting to the shared primitive.
func GrowthTimer(f Facility) Timer {
	if f.PlantedCrop == nil {
		return Idle()
	}
	ms := f.PlantedCrop.PlantedAt
	return Timer{StartTime: &ms}
}
