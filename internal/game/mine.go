/*
Package game
File: mine.go
Description:
    The mine timer, mineral and weapon sales, and weapon crafting.
*/

package game

import "maps"

func (e *Engine) startMining(w World) (World, bool) {
	if w.MineState.Running() {
		return w, false
	}
	w.MineState = Started(e.now())
	return w, true
}

// collectMinerals credits a caller-sampled drop. A negative entry rejects
// the whole drop. An empty drop only resets the timer and leaves the
// mineral map shared with the input.
func (e *Engine) collectMinerals(w World, a CollectMinerals) (World, bool) {
	minerals, cloned := w.Minerals, false
	for id, n := range a.Collected {
		if n < 0 || id == "" {
			return w, false
		}
		if n == 0 {
			continue
		}
		if !cloned {
			minerals, cloned = maps.Clone(w.Minerals), true
			if minerals == nil {
				minerals = make(map[string]int64, len(a.Collected))
			}
		}
		v, ok := add(minerals[id], n)
		if !ok {
			return w, false
		}
		minerals[id] = v
	}
	w.Minerals = minerals
	w.MineState = Idle()
	return w, true
}

func (e *Engine) sellMineral(w World, a SellMineral) (World, bool) {
	money, stock, ok := sale(w.Money, w.Minerals, a.MineralID, a.Quantity, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Minerals = stock
	return w, true
}

// craftWeapon validates the full recipe before debiting any mineral.
func (e *Engine) craftWeapon(w World, a CraftWeapon) (World, bool) {
	wp, ok := e.Catalog.Weapon(a.WeaponID)
	if !ok {
		return w, false
	}
	minerals, ok := debitRecipe(w.Minerals, wp.Recipe, 1)
	if !ok {
		return w, false
	}
	weapons, ok := adjust(w.Weapons, a.WeaponID, 1)
	if !ok {
		return w, false
	}
	w.Minerals = minerals
	w.Weapons = weapons
	return w, true
}

func (e *Engine) sellWeapon(w World, a SellWeapon) (World, bool) {
	money, stock, ok := sale(w.Money, w.Weapons, a.WeaponID, a.Quantity, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Weapons = stock
	return w, true
}
