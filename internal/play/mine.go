/*
Package play
File: mine.go
Description:
    Mining, mineral sales and weapon crafting intents.
*/

package play

import (
	"fmt"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// StartMining starts a mining run.
func (s *Session) StartMining() error {
	return s.do(func(w game.World) (game.Action, error) {
		if w.MineState.Running() {
			return nil, fmt.Errorf("mine: %w", ErrConflict)
		}
		return game.StartMining{}, nil
	})
}

// CollectMinerals finishes a mining run and returns the drop: one uniform
// pick from the mineral pool per unit of minerals_per_run.
func (s *Session) CollectMinerals() (map[string]int64, error) {
	var drop map[string]int64
	err := s.do(func(w game.World) (game.Action, error) {
		if !s.cat.MiningOp().Ready(w.MineState, s.clock.Now()) {
			return nil, fmt.Errorf("mine: %w", ErrNotReady)
		}
		pool := s.cat.Minerals
		drop = make(map[string]int64)
		if len(pool) > 0 {
			for i := 0; i < s.cat.Balance.MineralsPerRun; i++ {
				drop[pool[s.rand.Intn(len(pool))].ID]++
			}
		}
		return game.CollectMinerals{Collected: drop}, nil
	})
	if err != nil {
		return nil, err
	}
	return drop, nil
}

// SellMineral sells raw minerals. qty <= 0 sells everything.
func (s *Session) SellMineral(mineralID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		m, ok := s.cat.Mineral(mineralID)
		if !ok {
			return nil, fmt.Errorf("mineral %q: %w", mineralID, ErrUnknown)
		}
		n, err := sellQty(w.Minerals[mineralID], qty)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mineralID, err)
		}
		earnings, ok := game.Total(m.SellPrice, n)
		if !ok {
			return nil, fmt.Errorf("%s: %w", mineralID, ErrBadInput)
		}
		return game.SellMineral{MineralID: mineralID, Quantity: n, Earnings: earnings}, nil
	})
}

// CraftWeapon turns one weapon recipe worth of minerals into a weapon.
func (s *Session) CraftWeapon(weaponID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		wp, ok := s.cat.Weapon(weaponID)
		if !ok {
			return nil, fmt.Errorf("weapon %q: %w", weaponID, ErrUnknown)
		}
		if !game.CanAfford(wp.Recipe, w.Minerals, 1) {
			return nil, fmt.Errorf("%s recipe: %w", weaponID, ErrInsufficient)
		}
		return game.CraftWeapon{WeaponID: weaponID}, nil
	})
}

// SellWeapon sells crafted weapons. qty <= 0 sells everything.
func (s *Session) SellWeapon(weaponID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		wp, ok := s.cat.Weapon(weaponID)
		if !ok {
			return nil, fmt.Errorf("weapon %q: %w", weaponID, ErrUnknown)
		}
		n, err := sellQty(w.Weapons[weaponID], qty)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", weaponID, err)
		}
		earnings, ok := game.Total(wp.SellPrice, n)
		if !ok {
			return nil, fmt.Errorf("%s: %w", weaponID, ErrBadInput)
		}
		return game.SellWeapon{WeaponID: weaponID, Quantity: n, Earnings: earnings}, nil
	})
}
