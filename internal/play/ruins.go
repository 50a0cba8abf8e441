/*
Package play
File: ruins.go
Description:
    Fragment exchange, ruin assembly and ruin profit intents.
*/

package play

import (
	"fmt"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// ExchangeFragment turns one generic fragment into a ruin-specific one.
func (s *Session) ExchangeFragment(to game.FragmentKind) error {
	return s.do(func(w game.World) (game.Action, error) {
		if to != game.FragmentMaya && to != game.FragmentNuevaEspana {
			return nil, fmt.Errorf("fragment %q: %w", to, ErrBadInput)
		}
		if w.Fragments.Something < 1 {
			return nil, fmt.Errorf("no fragments to exchange: %w", ErrInsufficient)
		}
		return game.ExchangeFragment{ToFragment: to}, nil
	})
}

// AssembleRuin spends FragmentsPerRuin fragments of the ruin's kind.
func (s *Session) AssembleRuin(t game.RuinType) error {
	return s.do(func(w game.World) (game.Action, error) {
		info, ok := s.cat.Ruin(t)
		if !ok {
			return nil, fmt.Errorf("ruin %q: %w", t, ErrUnknown)
		}
		need := s.cat.Balance.FragmentsPerRuin
		if have := w.Fragments.Get(info.Fragment); have < need {
			return nil, fmt.Errorf("%s needs %d %s fragments, have %d: %w", t, need, info.Fragment, have, ErrInsufficient)
		}
		return game.AssembleRuin{RuinType: t}, nil
	})
}

// StartRuinProfit starts the global ruin profit timer once any ruin exists.
func (s *Session) StartRuinProfit() error {
	return s.do(func(w game.World) (game.Action, error) {
		if game.TotalRuins(w) == 0 {
			return nil, fmt.Errorf("no ruins: %w", ErrInsufficient)
		}
		if w.RuinProfitState.Running() {
			return nil, fmt.Errorf("ruin profit: %w", ErrConflict)
		}
		return game.StartProfitCollection{}, nil
	})
}

// ClaimRuinProfit collects a finished cycle and returns the payout.
func (s *Session) ClaimRuinProfit() (int64, error) {
	var earnings int64
	err := s.do(func(w game.World) (game.Action, error) {
		if !s.cat.RuinProfitOp().Ready(w.RuinProfitState, s.clock.Now()) {
			return nil, fmt.Errorf("ruin profit: %w", ErrNotReady)
		}
		earnings = game.RuinProfit(game.TotalRuins(w), s.cat.Balance)
		return game.ClaimProfit{Earnings: earnings}, nil
	})
	if err != nil {
		return 0, err
	}
	return earnings, nil
}
