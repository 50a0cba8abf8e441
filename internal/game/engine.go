/*
Package game
File: engine.go
Description:
    The State Transition Engine. Try applies one action to a World and
    returns the next World, or the input unchanged with ok=false when a
    precondition fails. Rejection is silent at this layer: no errors, no
    panics, no logging. Callers that want diagnostics pre-check (see the
    play package).

    Transitions are copy-on-write. The returned World is a shallow copy in
    which only the maps and slices the action touches are fresh; everything
    else is shared with the input, so callers can detect change by identity.
*/

package game

import (
	"maps"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/everforgeworks/gemini-farm/internal/clock"
)

// Rand is the injected random source. The engine draws from it only for
// the harvest fragment roll; the play package uses it for research and
// mineral drops.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type Engine struct {
	Catalog *Catalog
	Clock   clock.Clock
	Rand    Rand
}

// NewEngine wires an engine. A nil clock means wall time and a nil rand
// means a time-seeded source.
func NewEngine(cat *Catalog, clk clock.Clock, rnd Rand) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{Catalog: cat, Clock: clk, Rand: rnd}
}

// Apply is the reducer: Try without the accepted flag.
func (e *Engine) Apply(w World, a Action) World {
	next, _ := e.Try(w, a)
	return next
}

// Try applies a to w. On rejection it returns w itself and false.
func (e *Engine) Try(w World, a Action) (World, bool) {
	if e == nil || e.Catalog == nil {
		return w, false
	}
	var (
		next World
		ok   bool
	)
	switch act := a.(type) {
	case BuySeeds:
		next, ok = e.buySeeds(w, act)
	case BuyFacility:
		next, ok = e.buyFacility(w, act)
	case Plant:
		next, ok = e.plant(w, act)
	case Harvest:
		next, ok = e.harvest(w, act)
	case Sell:
		next, ok = e.sellCrop(w, act)
	case Research:
		next, ok = e.research(w, act)

	case ExchangeFragment:
		next, ok = e.exchangeFragment(w, act)
	case AssembleRuin:
		next, ok = e.assembleRuin(w, act)
	case StartProfitCollection:
		next, ok = e.startRuinProfit(w)
	case ClaimProfit:
		next, ok = e.claimRuinProfit(w, act)

	case BuyTenant:
		next, ok = e.buyTenant(w, act)
	case BuyCompany:
		next, ok = e.buyCompany(w, act)
	case AssignCompanyToTenant:
		next, ok = e.assignCompany(w, act)
	case RemoveCompanyFromTenant:
		next, ok = e.removeCompany(w, act)
	case ProduceProduct:
		next, ok = e.produce(w, act)
	case SellCompanyProduct:
		next, ok = e.sellCompanyProduct(w, act)
	case AssignCitizens:
		next, ok = e.assignCitizens(w, act)
	case WithdrawCitizens:
		next, ok = e.withdrawCitizens(w, act)
	case StartTenantProfitCollection:
		next, ok = e.startTenantProfit(w, act)
	case ClaimTenantProfit:
		next, ok = e.claimTenantProfit(w, act)

	case StartMining:
		next, ok = e.startMining(w)
	case CollectMinerals:
		next, ok = e.collectMinerals(w, act)
	case SellMineral:
		next, ok = e.sellMineral(w, act)
	case CraftWeapon:
		next, ok = e.craftWeapon(w, act)
	case SellWeapon:
		next, ok = e.sellWeapon(w, act)

	case ConquerCountry:
		next, ok = e.conquer(w, act)
	case StartCountryProduction:
		next, ok = e.startCountryProduction(w, act)
	case CollectCountryProduction:
		next, ok = e.collectCountryProduction(w, act)
	case UpgradeCountryRank:
		next, ok = e.upgradeRank(w, act)
	case SellSpecialtyGood:
		next, ok = e.sellSpecialtyGood(w, act)

	case LoadGame:
		if act.NewState == nil {
			return w, false
		}
		return act.NewState.Normalize(), true
	}
	if !ok {
		return w, false
	}
	return next, true
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

// roll draws in [0, 1). Without a source nothing random ever succeeds.
func (e *Engine) roll() float64 {
	if e.Rand == nil {
		return 1
	}
	return e.Rand.Float64()
}

// --- Checked arithmetic ---

// add returns a+b, or false on signed overflow.
func add(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// mul returns a*b, or false on signed overflow.
func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

// --- Copy-on-write helpers ---

// adjust returns a copy of m with m[id] += delta. The input map is untouched.
func adjust[K comparable](m map[K]int64, id K, delta int64) (map[K]int64, bool) {
	v, ok := add(m[id], delta)
	if !ok {
		return nil, false
	}
	out := make(map[K]int64, len(m)+1)
	maps.Copy(out, m)
	out[id] = v
	return out, true
}

// with returns a copy of m with m[k] = v.
func with[K comparable, V any](m map[K]V, k K, v V) map[K]V {
	out := make(map[K]V, len(m)+1)
	maps.Copy(out, m)
	out[k] = v
	return out
}

// replaced returns a copy of s with s[i] = v.
func replaced[T any](s []T, i int, v T) []T {
	out := slices.Clone(s)
	out[i] = v
	return out
}

// appended returns s + v without ever writing into s's backing array.
func appended[T any](s []T, v T) []T {
	return append(slices.Clip(s), v)
}

// debitRecipe checks every ingredient of recipe×times against stock and only
// then returns the debited copy. Nothing is debited unless everything fits.
func debitRecipe(stock map[string]int64, recipe map[string]int64, times int64) (map[string]int64, bool) {
	if len(recipe) == 0 || times < 1 {
		return nil, false
	}
	if !CanAfford(recipe, stock, times) {
		return nil, false
	}
	out := maps.Clone(stock)
	if out == nil {
		out = make(map[string]int64)
	}
	for id, req := range recipe {
		need, _ := mul(req, times)
		out[id] -= need
	}
	return out, true
}

// sale is the shared SELL-family ledger step: credit earnings, debit stock.
// Stock is trusted, the play layer has already checked it.
func sale(money int64, stock map[string]int64, id string, qty, earnings int64) (int64, map[string]int64, bool) {
	if id == "" || qty <= 0 || earnings < 0 {
		return 0, nil, false
	}
	m, ok := add(money, earnings)
	if !ok {
		return 0, nil, false
	}
	s, ok := adjust(stock, id, -qty)
	if !ok {
		return 0, nil, false
	}
	return m, s, true
}

// debit is the shared purchase-family ledger step.
func debit(money, cost int64) (int64, bool) {
	if cost < 0 {
		return 0, false
	}
	return add(money, -cost)
}
