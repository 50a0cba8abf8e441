/*
Package play
File: country.go
Description:
    Conquest, country production, rank upgrades and specialty sales.
*/

package play

import (
	"fmt"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// Conquer attacks the next unlocked country.
func (s *Session) Conquer(id game.CountryID) error {
	return s.do(func(w game.World) (game.Action, error) {
		co, ok := s.cat.Country(id)
		if !ok {
			return nil, fmt.Errorf("country %q: %w", id, ErrUnknown)
		}
		if _, done := w.Countries[id]; done {
			return nil, fmt.Errorf("country %q already conquered: %w", id, ErrConflict)
		}
		if !game.Unlocked(s.cat, w.Countries, id) {
			return nil, fmt.Errorf("country %q: %w", id, ErrLocked)
		}
		if !game.CanAfford(co.ConquestRequirements, w.Weapons, 1) {
			return nil, fmt.Errorf("conquering %s: %w", id, ErrInsufficient)
		}
		return game.ConquerCountry{CountryID: id}, nil
	})
}

// StartCountryProduction starts the production timer of a conquered country.
func (s *Session) StartCountryProduction(id game.CountryID) error {
	return s.do(func(w game.World) (game.Action, error) {
		cs, ok := w.Countries[id]
		if !ok {
			return nil, fmt.Errorf("country %q not conquered: %w", id, ErrUnknown)
		}
		if cs.ProductionState.Running() {
			return nil, fmt.Errorf("country %q production: %w", id, ErrConflict)
		}
		return game.StartCountryProduction{CountryID: id}, nil
	})
}

// CollectCountryProduction finishes a production cycle and returns the
// yield that was credited.
func (s *Session) CollectCountryProduction(id game.CountryID) (game.Yield, error) {
	var y game.Yield
	err := s.do(func(w game.World) (game.Action, error) {
		co, ok := s.cat.Country(id)
		if !ok {
			return nil, fmt.Errorf("country %q: %w", id, ErrUnknown)
		}
		cs, ok := w.Countries[id]
		if !ok {
			return nil, fmt.Errorf("country %q not conquered: %w", id, ErrUnknown)
		}
		if !s.cat.CountryProductionOp().Ready(cs.ProductionState, s.clock.Now()) {
			return nil, fmt.Errorf("country %q production: %w", id, ErrNotReady)
		}
		y = game.CountryYield(cs.TotalLevels(), s.cat.Balance)
		return game.CollectCountryProduction{
			CountryID:       id,
			SpecialtyGoodID: co.SpecialtyGoodID,
			GoodsAmount:     y.Goods,
			BondsAmount:     y.Bonds,
		}, nil
	})
	if err != nil {
		return game.Yield{}, err
	}
	return y, nil
}

// UpgradeCountryRank spends bonds to raise one rank of a conquered country.
// The cost grows with the current level; a rank at the cap is a conflict.
func (s *Session) UpgradeCountryRank(id game.CountryID, rank game.Rank) error {
	return s.do(func(w game.World) (game.Action, error) {
		cs, ok := w.Countries[id]
		if !ok {
			return nil, fmt.Errorf("country %q not conquered: %w", id, ErrUnknown)
		}
		switch rank {
		case game.RankMilitary, game.RankEconomic, game.RankPolitical:
		default:
			return nil, fmt.Errorf("rank %q: %w", rank, ErrBadInput)
		}
		lvl := cs.Level(rank)
		if lvl >= s.cat.Balance.RankCap {
			return nil, fmt.Errorf("%s at cap: %w", rank, ErrConflict)
		}
		if cost := game.RankUpgradeCost(lvl, s.cat.Balance); cs.Bonds < cost {
			return nil, fmt.Errorf("%s upgrade needs %d bonds: %w", rank, cost, ErrInsufficient)
		}
		return game.UpgradeCountryRank{CountryID: id, Rank: rank}, nil
	})
}

// SellSpecialtyGood sells country goods. qty <= 0 sells everything.
func (s *Session) SellSpecialtyGood(goodID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		g, ok := s.cat.SpecialtyGood(goodID)
		if !ok {
			return nil, fmt.Errorf("specialty good %q: %w", goodID, ErrUnknown)
		}
		n, err := sellQty(w.SpecialtyGoods[goodID], qty)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", goodID, err)
		}
		earnings, ok := game.Total(g.SellPrice, n)
		if !ok {
			return nil, fmt.Errorf("%s: %w", goodID, ErrBadInput)
		}
		return game.SellSpecialtyGood{SpecialtyGoodID: goodID, Quantity: n, Earnings: earnings}, nil
	})
}
