/*
Package play
File: farm.go
Description:
    Seed, facility, planting, harvest, sale and research intents.
*/

package play

import (
	"fmt"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// BuySeeds buys qty seeds of a crop at its buy price.
func (s *Session) BuySeeds(cropID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		if qty < 1 {
			return nil, fmt.Errorf("quantity %d: %w", qty, ErrBadInput)
		}
		crop, ok := w.CropData[cropID]
		if !ok {
			return nil, fmt.Errorf("crop %q: %w", cropID, ErrUnknown)
		}
		cost, ok := game.Total(crop.BuyPrice, qty)
		if !ok {
			return nil, fmt.Errorf("quantity %d: %w", qty, ErrBadInput)
		}
		if w.Money < cost {
			return nil, fmt.Errorf("seeds cost %d: %w", cost, ErrInsufficient)
		}
		return game.BuySeeds{CropID: cropID, Quantity: qty, Cost: cost}, nil
	})
}

// BuyFacility buys a facility from a template and returns it.
func (s *Session) BuyFacility(templateKey string) (game.Facility, error) {
	var bought game.Facility
	err := s.do(func(w game.World) (game.Action, error) {
		tpl, ok := s.cat.FacilityTemplate(templateKey)
		if !ok {
			return nil, fmt.Errorf("facility %q: %w", templateKey, ErrUnknown)
		}
		if w.Money < tpl.Price {
			return nil, fmt.Errorf("facility costs %d: %w", tpl.Price, ErrInsufficient)
		}
		bought = game.Facility{
			ID:       s.ids.Next("fac"),
			Name:     tpl.Name,
			Category: tpl.Category,
			Capacity: tpl.Capacity,
		}
		return game.BuyFacility{Facility: bought, Cost: tpl.Price}, nil
	})
	if err != nil {
		return game.Facility{}, err
	}
	return bought, nil
}

// Plant fills a facility with a compatible crop.
func (s *Session) Plant(facilityID, cropID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		f, _, ok := w.Facility(facilityID)
		if !ok {
			return nil, fmt.Errorf("facility %q: %w", facilityID, ErrUnknown)
		}
		if f.PlantedCrop != nil {
			return nil, fmt.Errorf("facility %q already planted: %w", facilityID, ErrConflict)
		}
		crop, ok := w.CropData[cropID]
		if !ok {
			return nil, fmt.Errorf("crop %q: %w", cropID, ErrUnknown)
		}
		if cat, ok := s.cat.CategoryFor(crop.Type); !ok || cat != f.Category {
			return nil, fmt.Errorf("%s cannot grow in a %s facility: %w", crop.Type, f.Category, ErrBadInput)
		}
		if w.Seeds[cropID] < f.Capacity {
			return nil, fmt.Errorf("need %d %s seeds: %w", f.Capacity, cropID, ErrInsufficient)
		}
		return game.Plant{FacilityID: facilityID, CropID: cropID}, nil
	})
}

// Harvest collects a fully grown planting.
func (s *Session) Harvest(facilityID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		f, _, ok := w.Facility(facilityID)
		if !ok {
			return nil, fmt.Errorf("facility %q: %w", facilityID, ErrUnknown)
		}
		if f.PlantedCrop == nil {
			return nil, fmt.Errorf("facility %q is empty: %w", facilityID, ErrConflict)
		}
		if !s.cat.Growth().Ready(game.GrowthTimer(f), s.clock.Now()) {
			return nil, fmt.Errorf("facility %q: %w", facilityID, ErrNotReady)
		}
		return game.Harvest{FacilityID: facilityID}, nil
	})
}

// SellCrop sells harvested products at the stat-adjusted price.
// qty <= 0 sells everything.
func (s *Session) SellCrop(cropID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		crop, ok := w.CropData[cropID]
		if !ok {
			return nil, fmt.Errorf("crop %q: %w", cropID, ErrUnknown)
		}
		n, err := sellQty(w.Products[cropID], qty)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cropID, err)
		}
		earnings, ok := game.Total(game.SellPrice(crop, s.cat.Balance), n)
		if !ok {
			return nil, fmt.Errorf("%s: %w", cropID, ErrBadInput)
		}
		return game.Sell{CropID: cropID, Quantity: n, Earnings: earnings}, nil
	})
}

// Research spends harvested product for a chance at a stat point. It
// returns the stat that was rolled, or nil on a failed attempt.
func (s *Session) Research(cropID string) (*game.Stat, error) {
	var rolled *game.Stat
	err := s.do(func(w game.World) (game.Action, error) {
		if _, ok := w.CropData[cropID]; !ok {
			return nil, fmt.Errorf("crop %q: %w", cropID, ErrUnknown)
		}
		cost := s.cat.Balance.ResearchCost
		if w.Products[cropID] < cost {
			return nil, fmt.Errorf("research needs %d %s: %w", cost, cropID, ErrInsufficient)
		}
		rolled = nil
		if s.rand.Float64() < s.cat.Balance.ResearchSuccessRate {
			st := game.AllStats[s.rand.Intn(len(game.AllStats))]
			rolled = &st
		}
		return game.Research{CropID: cropID, StatToUpgrade: rolled}, nil
	})
	if err != nil {
		return nil, err
	}
	return rolled, nil
}

// sellQty resolves a requested sale against stock. want <= 0 means all.
func sellQty(stock, want int64) (int64, error) {
	if stock <= 0 {
		return 0, ErrInsufficient
	}
	if want <= 0 {
		return stock, nil
	}
	if want > stock {
		return 0, fmt.Errorf("have %d, want %d: %w", stock, want, ErrInsufficient)
	}
	return want, nil
}
