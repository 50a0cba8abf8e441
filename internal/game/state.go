/*
Package game
File: state.go
Description:
    Builds the initial World State for a new game from the catalog.
    Entity ids come from the injected generator so tests can predict them.
*/

package game

import (
	"maps"
	"slices"

	"github.com/everforgeworks/gemini-farm/internal/ids"
)

// NewWorld returns a fresh game: starting money and citizens, the starting
// facilities, catalog copies of crop/product/company data, and every timer
// idle.
func NewWorld(cat *Catalog, gen ids.Generator) World {
	// 1. Starting facilities, in catalog order
	facilities := make([]Facility, 0, len(cat.Balance.StartingFacilities))
	for _, key := range cat.Balance.StartingFacilities {
		tpl, ok := cat.FacilityTemplate(key)
		if !ok {
			continue
		}
		facilities = append(facilities, Facility{
			ID:       gen.Next("fac"),
			Name:     tpl.Name,
			Category: tpl.Category,
			Capacity: tpl.Capacity,
		})
	}

	// 2. Catalog data carried in state (crop stats evolve per save)
	cropData := make(map[string]Crop, len(cat.Crops))
	for _, c := range cat.Crops {
		cropData[c.ID] = c
	}
	productData := make(map[string]Product, len(cat.Products))
	for _, p := range cat.Products {
		p.Recipe = maps.Clone(p.Recipe)
		productData[p.ID] = p
	}
	companyData := make(map[string]CompanyInfo, len(cat.Companies))
	for _, c := range cat.Companies {
		c.Products = slices.Clone(c.Products)
		companyData[c.ID] = c
	}

	// 3. Ruins start at zero for every known type
	ruins := make(map[RuinType]int64, len(cat.Ruins))
	for _, r := range cat.Ruins {
		ruins[r.Type] = 0
	}

	return World{
		Money:             cat.Balance.StartingMoney,
		Facilities:        facilities,
		Products:          map[string]int64{},
		Seeds:             map[string]int64{},
		CropData:          cropData,
		Ruins:             ruins,
		RuinProfitState:   Idle(),
		Citizens:          cat.Balance.StartingCitizens,
		Tenants:           []Tenant{},
		Companies:         []Company{},
		CompanyProducts:   map[string]int64{},
		ProductData:       productData,
		CompanyData:       companyData,
		TenantProfitState: map[string]Timer{},
		Minerals:          map[string]int64{},
		Weapons:           map[string]int64{},
		MineState:         Idle(),
		Countries:         map[CountryID]CountryState{},
		SpecialtyGoods:    map[string]int64{},
	}
}
