package game

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/everforgeworks/gemini-farm/internal/clock"
	"github.com/everforgeworks/gemini-farm/internal/ids"
)

// scriptedRand replays fixed values; it repeats the last one when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	if len(r.ints) > 1 {
		r.ints = r.ints[1:]
	}
	return v % n
}

var testStart = time.UnixMilli(1_700_000_000_000)

func newTestEngine(t *testing.T) (*Engine, *clock.Manual, *scriptedRand, World) {
	t.Helper()
	cat := MustDefaultCatalog()
	clk := clock.NewManual(testStart)
	rnd := &scriptedRand{}
	return NewEngine(cat, clk, rnd), clk, rnd, NewWorld(cat, ids.NewSequence())
}

func mustApply(t *testing.T, e *Engine, w World, a Action) World {
	t.Helper()
	next, ok := e.Try(w, a)
	if !ok {
		t.Fatalf("%s rejected", a.Kind())
	}
	return next
}

func mustReject(t *testing.T, e *Engine, w World, a Action) {
	t.Helper()
	next, ok := e.Try(w, a)
	if ok {
		t.Fatalf("%s accepted, expected rejection", a.Kind())
	}
	if !reflect.DeepEqual(next, w) {
		t.Fatalf("%s rejection changed the world", a.Kind())
	}
}

func ptr(m any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func TestNewWorld(t *testing.T) {
	_, _, _, w := newTestEngine(t)
	if w.Money != 10_000_000_000_000 || w.Citizens != 10 {
		t.Fatalf("unexpected starting money/citizens: %d/%d", w.Money, w.Citizens)
	}
	if len(w.Facilities) != 3 {
		t.Fatalf("expected 3 starting facilities, got %d", len(w.Facilities))
	}
	if w.Facilities[0].ID != "fac-1" || w.Facilities[1].Category != CategorySea {
		t.Fatalf("unexpected starting facilities: %+v", w.Facilities)
	}
	if w.Ruins[RuinMaya] != 0 || len(w.Ruins) != 2 {
		t.Fatalf("expected both ruin types at zero, got %v", w.Ruins)
	}
	if _, ok := w.CropData["apple"]; !ok {
		t.Fatalf("expected cropData copied from catalog")
	}
}

func TestBuySeedsScenario(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	next := mustApply(t, e, w, BuySeeds{CropID: "apple", Quantity: 10, Cost: 1000})
	if next.Money != 9_999_999_999_000 {
		t.Fatalf("expected money 9999999999000, got %d", next.Money)
	}
	if next.Seeds["apple"] != 10 {
		t.Fatalf("expected 10 apple seeds, got %d", next.Seeds["apple"])
	}
	if len(w.Seeds) != 0 || w.Money != 10_000_000_000_000 {
		t.Fatalf("input world was mutated")
	}
}

func TestCopyOnWriteSharesUntouchedFields(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	next := mustApply(t, e, w, BuySeeds{CropID: "apple", Quantity: 10, Cost: 1000})

	if ptr(next.Seeds) == ptr(w.Seeds) {
		t.Fatalf("seeds map should be fresh")
	}
	if ptr(next.Products) != ptr(w.Products) || ptr(next.CropData) != ptr(w.CropData) {
		t.Fatalf("untouched maps should keep identity")
	}
	if ptr(next.Facilities) != ptr(w.Facilities) {
		t.Fatalf("untouched facilities should keep identity")
	}

	planted := mustApply(t, e, next, Plant{FacilityID: "fac-1", CropID: "apple"})
	if ptr(planted.Facilities) == ptr(next.Facilities) {
		t.Fatalf("facilities should be fresh after planting")
	}
	if next.Facilities[0].PlantedCrop != nil {
		t.Fatalf("planting leaked into the previous world")
	}
	if ptr(planted.Minerals) != ptr(next.Minerals) {
		t.Fatalf("minerals should keep identity")
	}
}

func TestBuyRejections(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	mustReject(t, e, w, BuySeeds{CropID: "apple", Quantity: 0, Cost: 0})
	mustReject(t, e, w, BuySeeds{CropID: "apple", Quantity: 5, Cost: -1})
	mustReject(t, e, w, BuySeeds{CropID: "durian", Quantity: 5, Cost: 10})
	mustReject(t, e, w, BuyFacility{Facility: Facility{ID: "fac-1", Category: CategoryField, Capacity: 10}})
	mustReject(t, e, w, BuyFacility{Facility: Facility{ID: "x", Category: "Moon", Capacity: 10}})
	mustReject(t, e, w, BuyTenant{Tenant: Tenant{ID: ""}, Cost: 1})
	mustReject(t, e, w, BuyCompany{Company: Company{ID: "c", TypeID: "nope"}, Cost: 1})
}

func TestPurchaseConservation(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	before := w.Money
	w = mustApply(t, e, w, BuyFacility{
		Facility: Facility{ID: "fac-x", Name: "畑", Category: CategoryField, Capacity: 10},
		Cost:     50_000,
	})
	w = mustApply(t, e, w, BuyTenant{Tenant: Tenant{ID: "ten-1", Name: "Tenant #1"}, Cost: 1_000_000})
	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "gemini_foods"}, Cost: 500_000})
	if w.Money != before-50_000-1_000_000-500_000 {
		t.Fatalf("money not conserved: %d", w.Money)
	}
	if len(w.Facilities) != 4 || len(w.Tenants) != 1 || len(w.Companies) != 1 {
		t.Fatalf("entities not appended")
	}
	if w.Companies[0].MarketValue != 200_000 {
		t.Fatalf("market value should be derived on purchase, got %d", w.Companies[0].MarketValue)
	}
	if _, ok := w.TenantProfitState["ten-1"]; !ok {
		t.Fatalf("tenant timer should be created")
	}
}

func TestPlantAndHarvest(t *testing.T) {
	e, clk, rnd, w := newTestEngine(t)
	w = mustApply(t, e, w, BuySeeds{CropID: "apple", Quantity: 10, Cost: 1000})
	w = mustApply(t, e, w, Plant{FacilityID: "fac-1", CropID: "apple"})

	f := w.Facilities[0]
	if f.PlantedCrop == nil || f.PlantedCrop.Quantity != 10 || f.PlantedCrop.PlantedAt != testStart.UnixMilli() {
		t.Fatalf("unexpected planting: %+v", f.PlantedCrop)
	}
	if w.Seeds["apple"] != 0 {
		t.Fatalf("expected seeds debited by capacity, got %d", w.Seeds["apple"])
	}
	mustReject(t, e, w, Plant{FacilityID: "fac-1", CropID: "apple"})
	mustReject(t, e, w, Plant{FacilityID: "nope", CropID: "apple"})

	clk.Advance(time.Minute)
	if !e.Catalog.Growth().Ready(GrowthTimer(w.Facilities[0]), clk.Now()) {
		t.Fatalf("expected growth ready after grow time")
	}

	rnd.floats = []float64{0.9}
	noFragment := mustApply(t, e, w, Harvest{FacilityID: "fac-1"})
	if noFragment.Products["apple"] != 10 || noFragment.Facilities[0].PlantedCrop != nil {
		t.Fatalf("harvest did not credit/clear")
	}
	if noFragment.Fragments.Something != 0 {
		t.Fatalf("roll above chance should not grant a fragment")
	}

	rnd.floats = []float64{0.01}
	lucky := mustApply(t, e, w, Harvest{FacilityID: "fac-1"})
	if lucky.Fragments.Something != 1 {
		t.Fatalf("roll below chance should grant one fragment")
	}
	mustReject(t, e, lucky, Harvest{FacilityID: "fac-1"})
}

func TestHarvestIsLenientAboutTime(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, Plant{FacilityID: "fac-2", CropID: "saury"})
	w = mustApply(t, e, w, Harvest{FacilityID: "fac-2"})
	if w.Products["saury"] != 10 {
		t.Fatalf("early harvest should still credit products")
	}
}

func TestSellConservation(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Products = map[string]int64{"apple": 10}
	before := w.Money
	w = mustApply(t, e, w, Sell{CropID: "apple", Quantity: 10, Earnings: 2000})
	if w.Money != before+2000 || w.Products["apple"] != 0 {
		t.Fatalf("sell did not conserve: money %d, apples %d", w.Money, w.Products["apple"])
	}
	mustReject(t, e, w, Sell{CropID: "apple", Quantity: 1, Earnings: -5})
	mustReject(t, e, w, Sell{CropID: "apple", Quantity: 0, Earnings: 5})
}

func TestResearchStatCap(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Products = map[string]int64{"apple": 1000}
	taste := StatTaste
	for i := 0; i < 10; i++ {
		w = mustApply(t, e, w, Research{CropID: "apple", StatToUpgrade: &taste})
	}
	if got := w.CropData["apple"].Stats.Taste; got != 5 {
		t.Fatalf("expected taste capped at 5, got %d", got)
	}
	if w.Products["apple"] != 1000-10*30 {
		t.Fatalf("expected cost paid on every attempt, got %d", w.Products["apple"])
	}

	failed := mustApply(t, e, w, Research{CropID: "apple"})
	if failed.Products["apple"] != w.Products["apple"]-30 {
		t.Fatalf("failed research should still cost")
	}
	if ptr(failed.CropData) != ptr(w.CropData) {
		t.Fatalf("failed research should not touch cropData")
	}

	bogus := Stat("flavor")
	mustReject(t, e, w, Research{CropID: "apple", StatToUpgrade: &bogus})
	mustReject(t, e, w, Research{CropID: "durian"})
}

func TestFragmentsAndRuins(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	mustReject(t, e, w, ExchangeFragment{ToFragment: FragmentMaya})

	w.Fragments = Fragments{Something: 1, Maya: 99}
	w = mustApply(t, e, w, ExchangeFragment{ToFragment: FragmentMaya})
	if w.Fragments.Something != 0 || w.Fragments.Maya != 100 {
		t.Fatalf("unexpected fragments %+v", w.Fragments)
	}
	mustReject(t, e, w, ExchangeFragment{ToFragment: FragmentSomething})
	mustReject(t, e, w, AssembleRuin{RuinType: RuinNuevaEspana})

	w = mustApply(t, e, w, AssembleRuin{RuinType: RuinMaya})
	if w.Ruins[RuinMaya] != 1 || w.Fragments.Maya != 0 {
		t.Fatalf("assembly failed: ruins %v fragments %+v", w.Ruins, w.Fragments)
	}
}

func TestRuinProfitCycle(t *testing.T) {
	e, clk, _, w := newTestEngine(t)
	mustReject(t, e, w, StartProfitCollection{})

	w.Ruins = map[RuinType]int64{RuinMaya: 2, RuinNuevaEspana: 1}
	w = mustApply(t, e, w, StartProfitCollection{})
	mustReject(t, e, w, StartProfitCollection{})

	op := e.Catalog.RuinProfitOp()
	if op.Phase(w.RuinProfitState, clk.Now()) != PhaseRunning {
		t.Fatalf("expected running timer")
	}
	clk.Advance(time.Minute)
	if op.Phase(w.RuinProfitState, clk.Now()) != PhaseReady {
		t.Fatalf("expected ready timer")
	}

	earnings := RuinProfit(TotalRuins(w), e.Catalog.Balance)
	before := w.Money
	w = mustApply(t, e, w, ClaimProfit{Earnings: earnings})
	if w.Money != before+150_000 || w.RuinProfitState.Running() {
		t.Fatalf("claim failed: money delta %d", w.Money-before)
	}
}

func TestMoneyOverflowRejected(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Money = math.MaxInt64 - 10
	mustReject(t, e, w, ClaimProfit{Earnings: 11})
	mustReject(t, e, w, Sell{CropID: "apple", Quantity: 1, Earnings: 100})
}

func TestTenantCapacity(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, BuyTenant{Tenant: Tenant{ID: "ten-1"}})
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		w = mustApply(t, e, w, BuyCompany{Company: Company{ID: id, TypeID: "gemini_foods"}})
	}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		w = mustApply(t, e, w, AssignCompanyToTenant{CompanyID: id, TenantID: "ten-1"})
	}
	mustReject(t, e, w, AssignCompanyToTenant{CompanyID: "f", TenantID: "ten-1"})
	mustReject(t, e, w, AssignCompanyToTenant{CompanyID: "a", TenantID: "ten-1"})
	mustReject(t, e, w, AssignCompanyToTenant{CompanyID: "f", TenantID: "ten-404"})

	w = mustApply(t, e, w, RemoveCompanyFromTenant{CompanyID: "a"})
	mustReject(t, e, w, RemoveCompanyFromTenant{CompanyID: "a"})
	w = mustApply(t, e, w, AssignCompanyToTenant{CompanyID: "f", TenantID: "ten-1"})
	if len(w.Residents("ten-1")) != 5 {
		t.Fatalf("expected 5 residents, got %d", len(w.Residents("ten-1")))
	}
}

func TestTenantProfitCycle(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, BuyTenant{Tenant: Tenant{ID: "ten-1"}})
	mustReject(t, e, w, StartTenantProfitCollection{TenantID: "ten-1"})

	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "gemini_foods"}})
	w = mustApply(t, e, w, AssignCompanyToTenant{CompanyID: "comp-1", TenantID: "ten-1"})
	w = mustApply(t, e, w, StartTenantProfitCollection{TenantID: "ten-1"})
	mustReject(t, e, w, StartTenantProfitCollection{TenantID: "ten-1"})

	before := w.Money
	w = mustApply(t, e, w, ClaimTenantProfit{TenantID: "ten-1", Earnings: 10_000})
	if w.Money != before+10_000 || w.TenantProfitState["ten-1"].Running() {
		t.Fatalf("claim failed")
	}
	mustReject(t, e, w, ClaimTenantProfit{TenantID: "ten-404", Earnings: 1})
}

func TestProduceAtomicity(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "gemini_foods"}})
	w.Products = map[string]int64{"apple": 25}

	mustReject(t, e, w, ProduceProduct{CompanyID: "comp-1", ProductID: "apple_pie", Quantity: 3})
	mustReject(t, e, w, ProduceProduct{CompanyID: "comp-1", ProductID: "apple_pie", Quantity: 0})
	mustReject(t, e, w, ProduceProduct{CompanyID: "nope", ProductID: "apple_pie", Quantity: 1})

	w = mustApply(t, e, w, ProduceProduct{CompanyID: "comp-1", ProductID: "apple_pie", Quantity: 2})
	if w.Products["apple"] != 5 || w.CompanyProducts["apple_pie"] != 2 {
		t.Fatalf("unexpected stock: %v / %v", w.Products, w.CompanyProducts)
	}
	c := w.Companies[0]
	if c.ProductionRecord != 2 {
		t.Fatalf("expected record 2, got %d", c.ProductionRecord)
	}
	if c.MarketValue != MarketValue(c, w.CompanyData, e.Catalog.Balance) || c.MarketValue != 201_000 {
		t.Fatalf("market value stale: %d", c.MarketValue)
	}

	w.Products = map[string]int64{"apple": 10}
	w = mustApply(t, e, w, ProduceProduct{CompanyID: "comp-1", ProductID: "apple_pie", Quantity: 1})
	if w.Companies[0].ProductionRecord != 2 {
		t.Fatalf("production record must be a running maximum")
	}
}

func TestCraftMusketScenario(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Minerals = map[string]int64{"iron": 1, "copper": 1, "aluminum": 1, "tin": 1, "sulfur": 1, "brass": 1}
	w = mustApply(t, e, w, CraftWeapon{WeaponID: "musket"})
	for id, n := range w.Minerals {
		if n != 0 {
			t.Fatalf("expected %s to be 0, got %d", id, n)
		}
	}
	if w.Weapons["musket"] != 1 {
		t.Fatalf("expected one musket, got %d", w.Weapons["musket"])
	}
}

func TestCraftAtomicity(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Minerals = map[string]int64{"iron": 5, "copper": 5, "aluminum": 5, "tin": 5, "sulfur": 5}
	mustReject(t, e, w, CraftWeapon{WeaponID: "musket"})
	mustReject(t, e, w, CraftWeapon{WeaponID: "laser"})
}

func TestCitizenConservation(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "oceans_bounty"}})
	w = mustApply(t, e, w, BuyTenant{Tenant: Tenant{ID: "ten-1"}})
	total := func(w World) int64 { return w.Citizens + w.AssignedCitizens() }
	want := total(w)

	steps := []Action{
		AssignCitizens{TargetID: "comp-1", TargetType: TargetCompany, Amount: 4},
		AssignCitizens{TargetID: "ten-1", TargetType: TargetTenant, Amount: 3},
		AssignCitizens{TargetID: "ghost", TargetType: TargetCompany, Amount: 2},
		AssignCitizens{TargetID: "comp-1", TargetType: TargetCompany, Amount: 50},
		WithdrawCitizens{TargetID: "ten-1", TargetType: TargetTenant, Amount: 100},
		WithdrawCitizens{TargetID: "ghost", TargetType: TargetTenant, Amount: 1},
		AssignCitizens{TargetID: "comp-1", TargetType: "planet", Amount: 1},
		WithdrawCitizens{TargetID: "comp-1", TargetType: TargetCompany, Amount: 1},
	}
	for _, a := range steps {
		w = e.Apply(w, a)
		if got := total(w); got != want {
			t.Fatalf("after %s: citizens total %d, want %d", a.Kind(), got, want)
		}
	}
	if w.Companies[0].AssignedCitizens != 3 || w.Tenants[0].AssignedCitizens != 0 || w.Citizens != 7 {
		t.Fatalf("unexpected allocation: company %d tenant %d pool %d",
			w.Companies[0].AssignedCitizens, w.Tenants[0].AssignedCitizens, w.Citizens)
	}
	c := w.Companies[0]
	if c.MarketValue != 350_000+3*10_000 {
		t.Fatalf("market value stale after citizen moves: %d", c.MarketValue)
	}
}

func TestWithdrawClampScenario(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "gemini_foods"}})
	w = mustApply(t, e, w, AssignCitizens{TargetID: "comp-1", TargetType: TargetCompany, Amount: 10})
	if w.Citizens != 0 {
		t.Fatalf("expected empty pool, got %d", w.Citizens)
	}
	w = mustApply(t, e, w, WithdrawCitizens{TargetID: "comp-1", TargetType: TargetCompany, Amount: 50})
	if w.Companies[0].AssignedCitizens != 0 || w.Citizens != 10 {
		t.Fatalf("expected clamp to 10, got company %d pool %d", w.Companies[0].AssignedCitizens, w.Citizens)
	}
}

func TestMiningCycle(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w = mustApply(t, e, w, StartMining{})
	mustReject(t, e, w, StartMining{})
	mustReject(t, e, w, CollectMinerals{Collected: map[string]int64{"iron": 3, "tin": -1}})

	w = mustApply(t, e, w, CollectMinerals{Collected: map[string]int64{"iron": 3, "tin": 2}})
	if w.Minerals["iron"] != 3 || w.Minerals["tin"] != 2 || w.MineState.Running() {
		t.Fatalf("collect failed: %v", w.Minerals)
	}
	w = mustApply(t, e, w, SellMineral{MineralID: "iron", Quantity: 3, Earnings: 1500})
	if w.Minerals["iron"] != 0 {
		t.Fatalf("sell mineral did not debit")
	}
}

func TestEmptyDropKeepsMinerals(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Minerals = map[string]int64{"iron": 1}
	w = mustApply(t, e, w, StartMining{})

	next := mustApply(t, e, w, CollectMinerals{Collected: map[string]int64{"tin": 0}})
	if ptr(next.Minerals) != ptr(w.Minerals) {
		t.Fatalf("empty drop reallocated the mineral map")
	}
	if next.MineState.Running() {
		t.Fatalf("empty drop did not reset the mine timer")
	}

	w = mustApply(t, e, next, StartMining{})
	next = mustApply(t, e, w, CollectMinerals{Collected: map[string]int64{"tin": 2}})
	if ptr(next.Minerals) == ptr(w.Minerals) || w.Minerals["tin"] != 0 || next.Minerals["iron"] != 1 {
		t.Fatalf("drop wrote in place or lost stock: before %v after %v", w.Minerals, next.Minerals)
	}
}

func TestConquestAndCountryCycle(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	mustReject(t, e, w, ConquerCountry{CountryID: "ryukyu"})

	w.Weapons = map[string]int64{"musket": 7}
	w = mustApply(t, e, w, ConquerCountry{CountryID: "ryukyu"})
	if w.Weapons["musket"] != 2 || w.Citizens != 30 {
		t.Fatalf("conquest did not debit/reward: weapons %v citizens %d", w.Weapons, w.Citizens)
	}
	cs := w.Countries["ryukyu"]
	if cs.TotalLevels() != 3 || cs.Bonds != 0 || cs.ProductionState.Running() {
		t.Fatalf("unexpected country state: %+v", cs)
	}
	mustReject(t, e, w, ConquerCountry{CountryID: "ryukyu"})
	mustReject(t, e, w, ConquerCountry{CountryID: "atlantis"})

	w = mustApply(t, e, w, StartCountryProduction{CountryID: "ryukyu"})
	mustReject(t, e, w, StartCountryProduction{CountryID: "ryukyu"})
	mustReject(t, e, w, StartCountryProduction{CountryID: "qing"})

	y := CountryYield(cs.TotalLevels(), e.Catalog.Balance)
	w = mustApply(t, e, w, CollectCountryProduction{
		CountryID: "ryukyu", SpecialtyGoodID: "brown_sugar", GoodsAmount: y.Goods, BondsAmount: y.Bonds,
	})
	if w.SpecialtyGoods["brown_sugar"] != 10 || w.Countries["ryukyu"].Bonds != 10 {
		t.Fatalf("collect failed: goods %v bonds %d", w.SpecialtyGoods, w.Countries["ryukyu"].Bonds)
	}
	mustReject(t, e, w, CollectCountryProduction{CountryID: "qing", SpecialtyGoodID: "silk", GoodsAmount: 1})
}

func TestUpgradeRankScenario(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	w.Countries = map[CountryID]CountryState{
		"ryukyu": {MilitaryLevel: 3, EconomicLevel: 1, PoliticalLevel: 1, Bonds: 100},
	}
	w = mustApply(t, e, w, UpgradeCountryRank{CountryID: "ryukyu", Rank: RankMilitary})
	cs := w.Countries["ryukyu"]
	if cs.MilitaryLevel != 4 || cs.Bonds != 20 {
		t.Fatalf("expected level 4 bonds 20, got %d/%d", cs.MilitaryLevel, cs.Bonds)
	}
	mustReject(t, e, w, UpgradeCountryRank{CountryID: "ryukyu", Rank: RankMilitary})
	mustReject(t, e, w, UpgradeCountryRank{CountryID: "ryukyu", Rank: "navalLevel"})

	w.Countries = map[CountryID]CountryState{"ryukyu": {MilitaryLevel: 10, EconomicLevel: 1, PoliticalLevel: 1, Bonds: 1_000_000}}
	mustReject(t, e, w, UpgradeCountryRank{CountryID: "ryukyu", Rank: RankMilitary})
}

func TestTimerStartIdempotence(t *testing.T) {
	e, clk, _, w := newTestEngine(t)
	w.Ruins = map[RuinType]int64{RuinMaya: 1}
	w.Countries = map[CountryID]CountryState{"ryukyu": {MilitaryLevel: 1, EconomicLevel: 1, PoliticalLevel: 1}}
	w = mustApply(t, e, w, BuyTenant{Tenant: Tenant{ID: "ten-1"}})
	w = mustApply(t, e, w, BuyCompany{Company: Company{ID: "comp-1", TypeID: "gemini_foods"}})
	w = mustApply(t, e, w, AssignCompanyToTenant{CompanyID: "comp-1", TenantID: "ten-1"})

	starts := []Action{
		StartProfitCollection{},
		StartTenantProfitCollection{TenantID: "ten-1"},
		StartMining{},
		StartCountryProduction{CountryID: "ryukyu"},
	}
	for _, a := range starts {
		w = mustApply(t, e, w, a)
		clk.Advance(time.Second)
		again := e.Apply(w, a)
		if !reflect.DeepEqual(again, w) {
			t.Fatalf("second %s changed state", a.Kind())
		}
	}
}

func TestLoadGame(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	mustReject(t, e, w, LoadGame{})

	loaded := mustApply(t, e, w, LoadGame{NewState: &World{Money: 42, Facilities: []Facility{}}})
	if loaded.Money != 42 {
		t.Fatalf("expected wholesale replacement")
	}
	if loaded.Seeds == nil || loaded.Countries == nil || loaded.TenantProfitState == nil {
		t.Fatalf("loaded state should be normalized")
	}
	// The loaded save has no cropData, so apple is unknown there.
	mustReject(t, e, loaded, BuySeeds{CropID: "apple", Quantity: 1, Cost: 1})
}

func TestUnknownActionIsNoop(t *testing.T) {
	e, _, _, w := newTestEngine(t)
	mustReject(t, e, w, Unknown{Type: "TELEPORT"})
	if next := e.Apply(w, nil); !reflect.DeepEqual(next, w) {
		t.Fatalf("nil action changed state")
	}
}
