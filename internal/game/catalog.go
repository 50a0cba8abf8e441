/*
Package game
File: catalog.go
Description:
    The Static Catalog: crops, facility templates, recipes, company
    templates, minerals, weapons, specialty goods, countries and the
    balance constants. Loaded from YAML (embedded catalog.yaml by default)
    and never mutated afterwards.
*/

package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Balance stores the global tuning variables from the `balance:` section.
type Balance struct {
	StartingMoney      int64    `yaml:"starting_money" json:"starting_money"`
	StartingCitizens   int64    `yaml:"starting_citizens" json:"starting_citizens"`
	StartingFacilities []string `yaml:"starting_facilities" json:"starting_facilities"` // facility template keys

	GrowTime            time.Duration `yaml:"grow_time" json:"grow_time"`
	StatBonusPercent    int64         `yaml:"stat_bonus_percent" json:"stat_bonus_percent"` // sell-price bonus per stat point
	StatCap             int           `yaml:"stat_cap" json:"stat_cap"`
	ResearchCost        int64         `yaml:"research_cost" json:"research_cost"`
	ResearchSuccessRate float64       `yaml:"research_success_rate" json:"research_success_rate"`

	HarvestFragmentChance float64       `yaml:"harvest_fragment_chance" json:"harvest_fragment_chance"`
	FragmentsPerRuin      int64         `yaml:"fragments_per_ruin" json:"fragments_per_ruin"`
	RuinProfitDuration    time.Duration `yaml:"ruin_profit_duration" json:"ruin_profit_duration"`
	BaseProfitPerRuin     int64         `yaml:"base_profit_per_ruin" json:"base_profit_per_ruin"`

	TenantCost                 int64         `yaml:"tenant_cost" json:"tenant_cost"`
	TenantCompanyCapacity      int           `yaml:"tenant_company_capacity" json:"tenant_company_capacity"`
	TenantProfitDuration       time.Duration `yaml:"tenant_profit_duration" json:"tenant_profit_duration"`
	CompanyCost                int64         `yaml:"company_cost" json:"company_cost"`
	CitizenValueMultiplier     int64         `yaml:"citizen_value_multiplier" json:"citizen_value_multiplier"`
	ProductionRecordMultiplier int64         `yaml:"production_record_multiplier" json:"production_record_multiplier"`
	TenantMarketPercent        int64         `yaml:"tenant_market_percent" json:"tenant_market_percent"`
	TenantCitizenBonus         int64         `yaml:"tenant_citizen_bonus" json:"tenant_citizen_bonus"`

	MiningDuration time.Duration `yaml:"mining_duration" json:"mining_duration"`
	MineralsPerRun int           `yaml:"minerals_per_run" json:"minerals_per_run"`

	CountryProductionDuration time.Duration `yaml:"country_production_duration" json:"country_production_duration"`
	BaseGoodsPerProduction    int64         `yaml:"base_goods_per_production" json:"base_goods_per_production"`
	BaseBondsPerProduction    int64         `yaml:"base_bonds_per_production" json:"base_bonds_per_production"`
	RankUpgradeBaseCost       int64         `yaml:"rank_upgrade_base_cost" json:"rank_upgrade_base_cost"`
	RankCap                   int           `yaml:"rank_cap" json:"rank_cap"`
}

// FacilityInfo is a purchasable facility template.
type FacilityInfo struct {
	Key      string           `yaml:"key" json:"key"`
	Name     string           `yaml:"name" json:"name"`
	Category FacilityCategory `yaml:"category" json:"category"`
	Capacity int64            `yaml:"capacity" json:"capacity"`
	Price    int64            `yaml:"price" json:"price"`
}

// RuinInfo ties a ruin type to the fragment it is assembled from.
type RuinInfo struct {
	Type     RuinType     `yaml:"type" json:"type"`
	Name     string       `yaml:"name" json:"name"`
	Fragment FragmentKind `yaml:"fragment" json:"fragment"`
}

// Mineral is a mine drop.
type Mineral struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	SellPrice int64  `yaml:"sell_price" json:"sellPrice"`
}

// Weapon is crafted from minerals and spent on conquest.
type Weapon struct {
	ID        string           `yaml:"id" json:"id"`
	Name      string           `yaml:"name" json:"name"`
	SellPrice int64            `yaml:"sell_price" json:"sellPrice"`
	Recipe    map[string]int64 `yaml:"recipe" json:"recipe"` // mineralId -> qty
}

// SpecialtyGood is produced by conquered countries.
type SpecialtyGood struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	SellPrice int64  `yaml:"sell_price" json:"sellPrice"`
}

// Country is a conquerable target.
type Country struct {
	ID                    CountryID        `yaml:"id" json:"id"`
	Name                  string           `yaml:"name" json:"name"`
	ConquestRequirements  map[string]int64 `yaml:"conquest_requirements" json:"conquestRequirements"` // weaponId -> qty
	ConquestCitizenReward int64            `yaml:"conquest_citizen_reward" json:"conquestCitizenReward"`
	SpecialtyGoodID       string           `yaml:"specialty_good" json:"specialtyGoodId"`
}

// Catalog is the root of catalog.yaml plus lookup indexes.
type Catalog struct {
	Balance        Balance                       `yaml:"balance" json:"balance"`
	CropCategories map[CropType]FacilityCategory `yaml:"crop_categories" json:"crop_categories"`
	Crops          []Crop                        `yaml:"crops" json:"crops"`
	Facilities     []FacilityInfo                `yaml:"facilities" json:"facilities"`
	Products       []Product                     `yaml:"products" json:"products"`
	Companies      []CompanyInfo                 `yaml:"companies" json:"companies"`
	Ruins          []RuinInfo                    `yaml:"ruins" json:"ruins"`
	Minerals       []Mineral                     `yaml:"minerals" json:"minerals"`
	Weapons        []Weapon                      `yaml:"weapons" json:"weapons"`
	SpecialtyGoods []SpecialtyGood               `yaml:"specialty_goods" json:"specialty_goods"`
	Countries      []Country                     `yaml:"countries" json:"countries"` // unlock order

	crops      map[string]Crop
	facilities map[string]FacilityInfo
	products   map[string]Product
	companies  map[string]CompanyInfo
	ruins      map[RuinType]RuinInfo
	minerals   map[string]Mineral
	weapons    map[string]Weapon
	goods      map[string]SpecialtyGood
	countries  map[CountryID]Country
}

var ErrCatalog = errors.New("invalid catalog")

// DefaultCatalog parses the embedded catalog.yaml.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// MustDefaultCatalog is DefaultCatalog for tests and package init paths where
// the embedded file is known-good.
func MustDefaultCatalog() *Catalog {
	cat, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return cat
}

// LoadCatalog reads a catalog override from disk.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog unmarshals and validates a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if err := cat.index(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// index builds the lookup maps and checks cross references.
func (c *Catalog) index() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrCatalog, fmt.Sprintf(format, args...))
	}

	c.crops = make(map[string]Crop, len(c.Crops))
	for _, cr := range c.Crops {
		if _, dup := c.crops[cr.ID]; dup || cr.ID == "" {
			return fail("crop %q duplicated or empty", cr.ID)
		}
		if _, ok := c.CropCategories[cr.Type]; !ok {
			return fail("crop %q has type %q with no facility category", cr.ID, cr.Type)
		}
		c.crops[cr.ID] = cr
	}

	c.facilities = make(map[string]FacilityInfo, len(c.Facilities))
	for _, f := range c.Facilities {
		if _, dup := c.facilities[f.Key]; dup || f.Key == "" {
			return fail("facility %q duplicated or empty", f.Key)
		}
		if f.Capacity <= 0 {
			return fail("facility %q has capacity %d", f.Key, f.Capacity)
		}
		c.facilities[f.Key] = f
	}
	for _, key := range c.Balance.StartingFacilities {
		if _, ok := c.facilities[key]; !ok {
			return fail("starting facility %q unknown", key)
		}
	}

	c.products = make(map[string]Product, len(c.Products))
	for _, p := range c.Products {
		if _, dup := c.products[p.ID]; dup || p.ID == "" {
			return fail("product %q duplicated or empty", p.ID)
		}
		for ing := range p.Recipe {
			if _, ok := c.crops[ing]; !ok {
				return fail("product %q uses unknown crop %q", p.ID, ing)
			}
		}
		c.products[p.ID] = p
	}

	c.companies = make(map[string]CompanyInfo, len(c.Companies))
	for _, ci := range c.Companies {
		if _, dup := c.companies[ci.ID]; dup || ci.ID == "" {
			return fail("company %q duplicated or empty", ci.ID)
		}
		for _, pid := range ci.Products {
			if _, ok := c.products[pid]; !ok {
				return fail("company %q makes unknown product %q", ci.ID, pid)
			}
		}
		c.companies[ci.ID] = ci
	}

	c.ruins = make(map[RuinType]RuinInfo, len(c.Ruins))
	for _, r := range c.Ruins {
		if r.Fragment != FragmentMaya && r.Fragment != FragmentNuevaEspana {
			return fail("ruin %q uses fragment %q", r.Type, r.Fragment)
		}
		c.ruins[r.Type] = r
	}

	c.minerals = make(map[string]Mineral, len(c.Minerals))
	for _, m := range c.Minerals {
		if _, dup := c.minerals[m.ID]; dup || m.ID == "" {
			return fail("mineral %q duplicated or empty", m.ID)
		}
		c.minerals[m.ID] = m
	}

	c.weapons = make(map[string]Weapon, len(c.Weapons))
	for _, wp := range c.Weapons {
		if _, dup := c.weapons[wp.ID]; dup || wp.ID == "" {
			return fail("weapon %q duplicated or empty", wp.ID)
		}
		for m := range wp.Recipe {
			if _, ok := c.minerals[m]; !ok {
				return fail("weapon %q uses unknown mineral %q", wp.ID, m)
			}
		}
		c.weapons[wp.ID] = wp
	}

	c.goods = make(map[string]SpecialtyGood, len(c.SpecialtyGoods))
	for _, g := range c.SpecialtyGoods {
		c.goods[g.ID] = g
	}

	c.countries = make(map[CountryID]Country, len(c.Countries))
	for _, co := range c.Countries {
		if _, dup := c.countries[co.ID]; dup || co.ID == "" {
			return fail("country %q duplicated or empty", co.ID)
		}
		for wp := range co.ConquestRequirements {
			if _, ok := c.weapons[wp]; !ok {
				return fail("country %q requires unknown weapon %q", co.ID, wp)
			}
		}
		if _, ok := c.goods[co.SpecialtyGoodID]; !ok {
			return fail("country %q produces unknown good %q", co.ID, co.SpecialtyGoodID)
		}
		c.countries[co.ID] = co
	}

	b := c.Balance
	for name, d := range map[string]time.Duration{
		"grow_time":                   b.GrowTime,
		"ruin_profit_duration":        b.RuinProfitDuration,
		"tenant_profit_duration":      b.TenantProfitDuration,
		"mining_duration":             b.MiningDuration,
		"country_production_duration": b.CountryProductionDuration,
	} {
		if d <= 0 {
			return fail("%s must be positive", name)
		}
	}
	if b.StatCap <= 0 || b.RankCap <= 0 || b.TenantCompanyCapacity <= 0 {
		return fail("caps must be positive")
	}
	return nil
}

func (c *Catalog) FacilityTemplate(key string) (FacilityInfo, bool) {
	f, ok := c.facilities[key]
	return f, ok
}

func (c *Catalog) Ruin(t RuinType) (RuinInfo, bool) {
	r, ok := c.ruins[t]
	return r, ok
}

func (c *Catalog) Mineral(id string) (Mineral, bool) {
	m, ok := c.minerals[id]
	return m, ok
}

func (c *Catalog) Weapon(id string) (Weapon, bool) {
	wp, ok := c.weapons[id]
	return wp, ok
}

func (c *Catalog) SpecialtyGood(id string) (SpecialtyGood, bool) {
	g, ok := c.goods[id]
	return g, ok
}

func (c *Catalog) Country(id CountryID) (Country, bool) {
	co, ok := c.countries[id]
	return co, ok
}

// CategoryFor returns the facility category that can grow a crop type.
func (c *Catalog) CategoryFor(t CropType) (FacilityCategory, bool) {
	cat, ok := c.CropCategories[t]
	return cat, ok
}

// Timed operations, one per subsystem.

func (c *Catalog) Growth() Operation {
	return Operation{Name: "growth", Duration: c.Balance.GrowTime}
}

func (c *Catalog) RuinProfitOp() Operation {
	return Operation{Name: "ruin_profit", Duration: c.Balance.RuinProfitDuration}
}

func (c *Catalog) TenantProfitOp() Operation {
	return Operation{Name: "tenant_profit", Duration: c.Balance.TenantProfitDuration}
}

func (c *Catalog) MiningOp() Operation {
	return Operation{Name: "mining", Duration: c.Balance.MiningDuration}
}

func (c *Catalog) CountryProductionOp() Operation {
	return Operation{Name: "country_production", Duration: c.Balance.CountryProductionDuration}
}
