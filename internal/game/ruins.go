/*
Package game
File: ruins.go
Description:
    Fragment exchange, ruin assembly and the global ruin profit timer.
*/

package game

func (e *Engine) exchangeFragment(w World, a ExchangeFragment) (World, bool) {
	if a.ToFragment != FragmentMaya && a.ToFragment != FragmentNuevaEspana {
		return w, false
	}
	if w.Fragments.Something < 1 {
		return w, false
	}
	w.Fragments = w.Fragments.Add(FragmentSomething, -1).Add(a.ToFragment, 1)
	return w, true
}

func (e *Engine) assembleRuin(w World, a AssembleRuin) (World, bool) {
	info, ok := e.Catalog.Ruin(a.RuinType)
	if !ok {
		return w, false
	}
	cost := e.Catalog.Balance.FragmentsPerRuin
	if w.Fragments.Get(info.Fragment) < cost {
		return w, false
	}
	ruins, ok := adjust(w.Ruins, a.RuinType, 1)
	if !ok {
		return w, false
	}
	w.Fragments = w.Fragments.Add(info.Fragment, -cost)
	w.Ruins = ruins
	return w, true
}

func (e *Engine) startRuinProfit(w World) (World, bool) {
	if TotalRuins(w) == 0 || w.RuinProfitState.Running() {
		return w, false
	}
	w.RuinProfitState = Started(e.now())
	return w, true
}

// claimRuinProfit credits the caller-computed earnings. Elapsed time is not
// re-checked.
func (e *Engine) claimRuinProfit(w World, a ClaimProfit) (World, bool) {
	if a.Earnings < 0 {
		return w, false
	}
	money, ok := add(w.Money, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.RuinProfitState = Idle()
	return w, true
}
