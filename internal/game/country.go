/*
Package game
File: country.go
Description:
    Conquest, per-country production timers, rank upgrades and specialty
    good sales.
*/

package game

// conquer spends the weapon requirements and founds a level {1,1,1} state.
// Unlock order is a play-layer rule, not checked here.
func (e *Engine) conquer(w World, a ConquerCountry) (World, bool) {
	co, ok := e.Catalog.Country(a.CountryID)
	if !ok {
		return w, false
	}
	if _, conquered := w.Countries[a.CountryID]; conquered {
		return w, false
	}
	weapons, ok := debitRecipe(w.Weapons, co.ConquestRequirements, 1)
	if !ok {
		return w, false
	}
	citizens, ok := add(w.Citizens, co.ConquestCitizenReward)
	if !ok {
		return w, false
	}
	w.Weapons = weapons
	w.Citizens = citizens
	w.Countries = with(w.Countries, a.CountryID, CountryState{
		MilitaryLevel:   1,
		EconomicLevel:   1,
		PoliticalLevel:  1,
		ProductionState: Idle(),
	})
	return w, true
}

func (e *Engine) startCountryProduction(w World, a StartCountryProduction) (World, bool) {
	cs, ok := w.Countries[a.CountryID]
	if !ok || cs.ProductionState.Running() {
		return w, false
	}
	cs.ProductionState = Started(e.now())
	w.Countries = with(w.Countries, a.CountryID, cs)
	return w, true
}

func (e *Engine) collectCountryProduction(w World, a CollectCountryProduction) (World, bool) {
	cs, ok := w.Countries[a.CountryID]
	if !ok || a.SpecialtyGoodID == "" || a.GoodsAmount < 0 || a.BondsAmount < 0 {
		return w, false
	}
	goods, ok := adjust(w.SpecialtyGoods, a.SpecialtyGoodID, a.GoodsAmount)
	if !ok {
		return w, false
	}
	bonds, ok := add(cs.Bonds, a.BondsAmount)
	if !ok {
		return w, false
	}
	cs.Bonds = bonds
	cs.ProductionState = Idle()
	w.SpecialtyGoods = goods
	w.Countries = with(w.Countries, a.CountryID, cs)
	return w, true
}

func (e *Engine) upgradeRank(w World, a UpgradeCountryRank) (World, bool) {
	cs, ok := w.Countries[a.CountryID]
	if !ok || !validRank(a.Rank) {
		return w, false
	}
	lvl := cs.Level(a.Rank)
	if lvl >= e.Catalog.Balance.RankCap {
		return w, false
	}
	cost := RankUpgradeCost(lvl, e.Catalog.Balance)
	if cs.Bonds < cost {
		return w, false
	}
	cs = cs.WithLevel(a.Rank, lvl+1)
	cs.Bonds -= cost
	w.Countries = with(w.Countries, a.CountryID, cs)
	return w, true
}

func (e *Engine) sellSpecialtyGood(w World, a SellSpecialtyGood) (World, bool) {
	money, stock, ok := sale(w.Money, w.SpecialtyGoods, a.SpecialtyGoodID, a.Quantity, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.SpecialtyGoods = stock
	return w, true
}

func validRank(r Rank) bool {
	switch r {
	case RankMilitary, RankEconomic, RankPolitical:
		return true
	}
	return false
}
