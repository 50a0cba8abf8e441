/*
Package game
File: models.go
Description:
    Defines the World State and every entity it owns.
    This file is the "schema" of a save: the JSON tags below are the
    snapshot keys, so they must stay stable across releases.

    No transition logic lives here; see engine.go and the family files.
*/

package game

import (
	"maps"
	"slices"
)

// FacilityCategory is the kind of production slot a facility provides.
type FacilityCategory string

const (
	CategoryField FacilityCategory = "Field"
	CategorySea   FacilityCategory = "Sea"
	CategoryRanch FacilityCategory = "Ranch"
)

// CropType determines which facility category can grow a crop.
type CropType string

const (
	CropPlant     CropType = "Plant"
	CropFish      CropType = "Fish"
	CropLivestock CropType = "Livestock"
)

// RuinType is the closed set of assemblable ruins.
type RuinType string

const (
	RuinMaya        RuinType = "Maya"
	RuinNuevaEspana RuinType = "NuevaEspana"
)

// FragmentKind names one of the three fragment counters.
type FragmentKind string

const (
	FragmentSomething   FragmentKind = "something"
	FragmentMaya        FragmentKind = "maya"
	FragmentNuevaEspana FragmentKind = "nuevaEspana"
)

// Stat is one of the three research-upgradable crop stats.
type Stat string

const (
	StatTaste      Stat = "taste"
	StatDurability Stat = "durability"
	StatAppearance Stat = "appearance"
)

// AllStats is the uniform pool research picks from.
var AllStats = []Stat{StatTaste, StatDurability, StatAppearance}

// Rank is one of the three upgradable country levels.
type Rank string

const (
	RankMilitary  Rank = "militaryLevel"
	RankEconomic  Rank = "economicLevel"
	RankPolitical Rank = "politicalLevel"
)

// TargetType says which ledger a citizen assignment touches.
type TargetType string

const (
	TargetCompany TargetType = "company"
	TargetTenant  TargetType = "tenant"
)

// CountryID identifies a country from the catalog's closed set.
type CountryID string

// Stats are the research levels of a crop, each within [0, StatCap].
type Stats struct {
	Taste      int `json:"taste" yaml:"taste"`
	Durability int `json:"durability" yaml:"durability"`
	Appearance int `json:"appearance" yaml:"appearance"`
}

// Get returns the level of one stat (0 for an unknown stat).
func (s Stats) Get(st Stat) int {
	switch st {
	case StatTaste:
		return s.Taste
	case StatDurability:
		return s.Durability
	case StatAppearance:
		return s.Appearance
	}
	return 0
}

// With returns a copy with one stat set to v.
func (s Stats) With(st Stat, v int) Stats {
	switch st {
	case StatTaste:
		s.Taste = v
	case StatDurability:
		s.Durability = v
	case StatAppearance:
		s.Appearance = v
	}
	return s
}

// Total is the sum of all three stats.
func (s Stats) Total() int {
	return s.Taste + s.Durability + s.Appearance
}

// Crop is the catalog entry for something that can be planted.
// Only Stats change over the life of a save.
type Crop struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Type          CropType `json:"type" yaml:"type"`
	BuyPrice      int64    `json:"buyPrice" yaml:"buy_price"`
	BaseSellPrice int64    `json:"baseSellPrice" yaml:"base_sell_price"`
	Stats         Stats    `json:"stats" yaml:"stats"`
}

// PlantedCrop is an in-progress planting. Quantity equals the facility
// capacity at the time of planting.
type PlantedCrop struct {
	CropID    string `json:"cropId"`
	Quantity  int64  `json:"quantity"`
	PlantedAt int64  `json:"plantedAt"` // Unix milliseconds
}

// Facility is a production slot holding at most one planting.
type Facility struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    FacilityCategory `json:"category"`
	Capacity    int64            `json:"capacity"`
	PlantedCrop *PlantedCrop     `json:"plantedCrop"`
}

// Product is a company-made good with an ingredient recipe (cropId -> qty).
type Product struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	SellPrice int64            `json:"sellPrice" yaml:"sell_price"`
	Recipe    map[string]int64 `json:"recipe" yaml:"recipe"`
}

// CompanyInfo is a company template.
type CompanyInfo struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	BaseMarketValue int64    `json:"baseMarketValue" yaml:"base_market_value"`
	Products        []string `json:"products" yaml:"products"`
}

// Company is an owned instance of a company template.
// MarketValue is always derived from the other fields; see MarketValue.
type Company struct {
	ID               string  `json:"id"`
	TypeID           string  `json:"typeId"`
	Name             string  `json:"name"`
	MarketValue      int64   `json:"marketValue"`
	ProductionRecord int64   `json:"productionRecord"`
	AssignedCitizens int64   `json:"assignedCitizens"`
	TenantID         *string `json:"tenantId"`
}

// InTenant reports whether the company resides in the given tenant.
func (c Company) InTenant(tenantID string) bool {
	return c.TenantID != nil && *c.TenantID == tenantID
}

// Tenant houses companies by back-reference (Company.TenantID).
type Tenant struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AssignedCitizens int64  `json:"assignedCitizens"`
}

// Fragments are the three fragment counters.
type Fragments struct {
	Something   int64 `json:"something"`
	Maya        int64 `json:"maya"`
	NuevaEspana int64 `json:"nuevaEspana"`
}

// Get returns one counter by kind.
func (f Fragments) Get(k FragmentKind) int64 {
	switch k {
	case FragmentSomething:
		return f.Something
	case FragmentMaya:
		return f.Maya
	case FragmentNuevaEspana:
		return f.NuevaEspana
	}
	return 0
}

// Add returns a copy with delta applied to one counter.
func (f Fragments) Add(k FragmentKind, delta int64) Fragments {
	switch k {
	case FragmentSomething:
		f.Something += delta
	case FragmentMaya:
		f.Maya += delta
	case FragmentNuevaEspana:
		f.NuevaEspana += delta
	}
	return f
}

// CountryState exists only for conquered countries.
type CountryState struct {
	MilitaryLevel   int   `json:"militaryLevel"`
	EconomicLevel   int   `json:"economicLevel"`
	PoliticalLevel  int   `json:"politicalLevel"`
	Bonds           int64 `json:"bonds"`
	ProductionState Timer `json:"productionState"`
}

// Level returns the level of one rank (0 for an unknown rank).
func (c CountryState) Level(r Rank) int {
	switch r {
	case RankMilitary:
		return c.MilitaryLevel
	case RankEconomic:
		return c.EconomicLevel
	case RankPolitical:
		return c.PoliticalLevel
	}
	return 0
}

// WithLevel returns a copy with one rank set to v.
func (c CountryState) WithLevel(r Rank, v int) CountryState {
	switch r {
	case RankMilitary:
		c.MilitaryLevel = v
	case RankEconomic:
		c.EconomicLevel = v
	case RankPolitical:
		c.PoliticalLevel = v
	}
	return c
}

// TotalLevels is the sum of the three ranks.
func (c CountryState) TotalLevels() int {
	return c.MilitaryLevel + c.EconomicLevel + c.PoliticalLevel
}

// World is the single root of game state. The engine never mutates a World
// in place: every transition returns a new value that shares untouched maps
// and slices with its input.
type World struct {
	Money             int64                      `json:"money"`
	Facilities        []Facility                 `json:"facilities"`
	Products          map[string]int64           `json:"products"`
	Seeds             map[string]int64           `json:"seeds"`
	CropData          map[string]Crop            `json:"cropData"`
	Fragments         Fragments                  `json:"fragments"`
	Ruins             map[RuinType]int64         `json:"ruins"`
	RuinProfitState   Timer                      `json:"ruinProfitState"`
	Citizens          int64                      `json:"citizens"`
	Tenants           []Tenant                   `json:"tenants"`
	Companies         []Company                  `json:"companies"`
	CompanyProducts   map[string]int64           `json:"companyProducts"`
	ProductData       map[string]Product         `json:"productData"`
	CompanyData       map[string]CompanyInfo     `json:"companyData"`
	TenantProfitState map[string]Timer           `json:"tenantProfitState"`
	Minerals          map[string]int64           `json:"minerals"`
	Weapons           map[string]int64           `json:"weapons"`
	MineState         Timer                      `json:"mineState"`
	Countries         map[CountryID]CountryState `json:"countries"`
	SpecialtyGoods    map[string]int64           `json:"specialtyGoods"`
}

// Normalize replaces nil maps and slices with empty ones so transitions can
// always copy-and-write. Loaded snapshots may omit any of them.
func (w World) Normalize() World {
	if w.Facilities == nil {
		w.Facilities = []Facility{}
	}
	if w.Tenants == nil {
		w.Tenants = []Tenant{}
	}
	if w.Companies == nil {
		w.Companies = []Company{}
	}
	w.Products = orEmpty(w.Products)
	w.Seeds = orEmpty(w.Seeds)
	w.CompanyProducts = orEmpty(w.CompanyProducts)
	w.Minerals = orEmpty(w.Minerals)
	w.Weapons = orEmpty(w.Weapons)
	w.SpecialtyGoods = orEmpty(w.SpecialtyGoods)
	w.Ruins = orEmpty(w.Ruins)
	w.CropData = orEmpty(w.CropData)
	w.ProductData = orEmpty(w.ProductData)
	w.CompanyData = orEmpty(w.CompanyData)
	w.TenantProfitState = orEmpty(w.TenantProfitState)
	w.Countries = orEmpty(w.Countries)
	return w
}

func orEmpty[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return m
}

// Clone returns a deep copy that shares nothing with w.
func (w World) Clone() World {
	out := w
	out.Facilities = cloneFacilities(w.Facilities)
	out.Products = maps.Clone(w.Products)
	out.Seeds = maps.Clone(w.Seeds)
	out.CropData = maps.Clone(w.CropData)
	out.Ruins = maps.Clone(w.Ruins)
	out.RuinProfitState = w.RuinProfitState.clone()
	out.Tenants = slices.Clone(w.Tenants)
	out.Companies = cloneCompanies(w.Companies)
	out.CompanyProducts = maps.Clone(w.CompanyProducts)
	out.ProductData = cloneProducts(w.ProductData)
	out.CompanyData = cloneCompanyData(w.CompanyData)
	out.Minerals = maps.Clone(w.Minerals)
	out.Weapons = maps.Clone(w.Weapons)
	out.MineState = w.MineState.clone()
	out.SpecialtyGoods = maps.Clone(w.SpecialtyGoods)
	if w.TenantProfitState != nil {
		out.TenantProfitState = make(map[string]Timer, len(w.TenantProfitState))
		for k, t := range w.TenantProfitState {
			out.TenantProfitState[k] = t.clone()
		}
	}
	if w.Countries != nil {
		out.Countries = make(map[CountryID]CountryState, len(w.Countries))
		for k, c := range w.Countries {
			c.ProductionState = c.ProductionState.clone()
			out.Countries[k] = c
		}
	}
	return out
}

func cloneFacilities(in []Facility) []Facility {
	if in == nil {
		return nil
	}
	out := make([]Facility, len(in))
	for i, f := range in {
		if f.PlantedCrop != nil {
			pc := *f.PlantedCrop
			f.PlantedCrop = &pc
		}
		out[i] = f
	}
	return out
}

func cloneCompanies(in []Company) []Company {
	if in == nil {
		return nil
	}
	out := make([]Company, len(in))
	for i, c := range in {
		if c.TenantID != nil {
			id := *c.TenantID
			c.TenantID = &id
		}
		out[i] = c
	}
	return out
}

func cloneProducts(in map[string]Product) map[string]Product {
	if in == nil {
		return nil
	}
	out := make(map[string]Product, len(in))
	for k, p := range in {
		p.Recipe = maps.Clone(p.Recipe)
		out[k] = p
	}
	return out
}

func cloneCompanyData(in map[string]CompanyInfo) map[string]CompanyInfo {
	if in == nil {
		return nil
	}
	out := make(map[string]CompanyInfo, len(in))
	for k, c := range in {
		c.Products = slices.Clone(c.Products)
		out[k] = c
	}
	return out
}

// Facility returns the facility with the given id.
func (w World) Facility(id string) (Facility, int, bool) {
	for i, f := range w.Facilities {
		if f.ID == id {
			return f, i, true
		}
	}
	return Facility{}, -1, false
}

// Company returns the company with the given id.
func (w World) Company(id string) (Company, int, bool) {
	for i, c := range w.Companies {
		if c.ID == id {
			return c, i, true
		}
	}
	return Company{}, -1, false
}

// Tenant returns the tenant with the given id.
func (w World) Tenant(id string) (Tenant, int, bool) {
	for i, t := range w.Tenants {
		if t.ID == id {
			return t, i, true
		}
	}
	return Tenant{}, -1, false
}

// Residents returns the companies housed by a tenant, in display order.
func (w World) Residents(tenantID string) []Company {
	var out []Company
	for _, c := range w.Companies {
		if c.InTenant(tenantID) {
			out = append(out, c)
		}
	}
	return out
}

// AssignedCitizens sums citizens assigned across every company and tenant.
func (w World) AssignedCitizens() int64 {
	var total int64
	for _, c := range w.Companies {
		total += c.AssignedCitizens
	}
	for _, t := range w.Tenants {
		total += t.AssignedCitizens
	}
	return total
}
