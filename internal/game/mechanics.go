/*
Package game
File: mechanics.go
Description:
    Contains the Derived-Value Functions: sell prices, market values and
    the yield formulas the play layer uses to fill action payloads.
    All of them are pure and integer-exact (percentages are whole numbers),
    so a payout computed twice is always the same payout.
*/

package game

// SellPrice applies the stat bonus to a crop's base price.
// Formula: floor(base × (100 + Σstats × bonus%) / 100)
func SellPrice(c Crop, b Balance) int64 {
	pct := 100 + int64(c.Stats.Total())*b.StatBonusPercent
	return c.BaseSellPrice * pct / 100
}

// MarketValue derives a company's value from its template, production
// history and staffing. Unknown templates are worth 0.
// Formula: base + record × K_prod + citizens × K_citizen
func MarketValue(c Company, data map[string]CompanyInfo, b Balance) int64 {
	info, ok := data[c.TypeID]
	if !ok {
		return 0
	}
	return info.BaseMarketValue +
		c.ProductionRecord*b.ProductionRecordMultiplier +
		c.AssignedCitizens*b.CitizenValueMultiplier
}

// TenantEarnings is the payout of one tenant profit cycle.
// Formula: floor(Σ marketValue(residents) × share% / 100) + citizens × bonus
func TenantEarnings(t Tenant, companies []Company, data map[string]CompanyInfo, b Balance) int64 {
	var total int64
	for _, c := range companies {
		if c.InTenant(t.ID) {
			total += MarketValue(c, data, b)
		}
	}
	return total*b.TenantMarketPercent/100 + t.AssignedCitizens*b.TenantCitizenBonus
}

// Yield is one country production payout.
type Yield struct {
	Goods int64 `json:"goods"`
	Bonds int64 `json:"bonds"`
}

// CountryYield scales production with the sum of the three rank levels.
// A fresh conquest (1,1,1) yields exactly the base amounts.
func CountryYield(totalLevels int, b Balance) Yield {
	extra := int64(totalLevels - 3)
	return Yield{
		Goods: b.BaseGoodsPerProduction + floorDiv(extra, 5),
		Bonds: b.BaseBondsPerProduction + extra*2,
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TotalRuins counts every assembled ruin.
func TotalRuins(w World) int64 {
	var n int64
	for _, c := range w.Ruins {
		n += c
	}
	return n
}

// RuinProfit is the payout of one ruin profit cycle.
func RuinProfit(totalRuins int64, b Balance) int64 {
	return totalRuins * b.BaseProfitPerRuin
}

// RankUpgradeCost is the bond price of going from level to level+1.
func RankUpgradeCost(level int, b Balance) int64 {
	return b.RankUpgradeBaseCost * int64(level+1)
}

// MaxProducible returns how many times recipe fits into stock.
func MaxProducible(recipe, stock map[string]int64) int64 {
	if len(recipe) == 0 {
		return 0
	}
	best := int64(-1)
	for id, req := range recipe {
		if req <= 0 {
			continue
		}
		n := stock[id] / req
		if best < 0 || n < best {
			best = n
		}
	}
	return max(best, 0)
}

// CanAfford reports whether stock covers recipe×times for every ingredient.
func CanAfford(recipe, stock map[string]int64, times int64) bool {
	for id, req := range recipe {
		need, ok := mul(req, times)
		if !ok || stock[id] < need {
			return false
		}
	}
	return true
}

// Unlocked reports whether a country may be attacked: every country
// before it in catalog order has been conquered.
func Unlocked(cat *Catalog, countries map[CountryID]CountryState, id CountryID) bool {
	for _, co := range cat.Countries {
		if co.ID == id {
			return true
		}
		if _, ok := countries[co.ID]; !ok {
			return false
		}
	}
	return false
}

// Total is price × qty, or false when the product overflows.
func Total(price, qty int64) (int64, bool) {
	return mul(price, qty)
}
