/*
Package game
File: farm.go
Description:
    Farm transitions: seeds, facilities, planting, harvesting, crop sales
    and research.
*/

package game

func (e *Engine) buySeeds(w World, a BuySeeds) (World, bool) {
	if a.Quantity <= 0 {
		return w, false
	}
	if _, ok := w.CropData[a.CropID]; !ok {
		return w, false
	}
	money, ok := debit(w.Money, a.Cost)
	if !ok {
		return w, false
	}
	seeds, ok := adjust(w.Seeds, a.CropID, a.Quantity)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Seeds = seeds
	return w, true
}

func (e *Engine) buyFacility(w World, a BuyFacility) (World, bool) {
	f := a.Facility
	if f.ID == "" || f.Capacity <= 0 || f.PlantedCrop != nil {
		return w, false
	}
	switch f.Category {
	case CategoryField, CategorySea, CategoryRanch:
	default:
		return w, false
	}
	if _, _, exists := w.Facility(f.ID); exists {
		return w, false
	}
	money, ok := debit(w.Money, a.Cost)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Facilities = appended(w.Facilities, f)
	return w, true
}

// plant fills the whole facility. Seed stock is not re-checked here.
func (e *Engine) plant(w World, a Plant) (World, bool) {
	f, i, ok := w.Facility(a.FacilityID)
	if !ok || f.PlantedCrop != nil {
		return w, false
	}
	if _, ok := w.CropData[a.CropID]; !ok {
		return w, false
	}
	seeds, ok := adjust(w.Seeds, a.CropID, -f.Capacity)
	if !ok {
		return w, false
	}
	f.PlantedCrop = &PlantedCrop{
		CropID:    a.CropID,
		Quantity:  f.Capacity,
		PlantedAt: e.now().UnixMilli(),
	}
	w.Seeds = seeds
	w.Facilities = replaced(w.Facilities, i, f)
	return w, true
}

// harvest honors any dispatched harvest, ready or not. It is the one
// transition that draws from the random source.
func (e *Engine) harvest(w World, a Harvest) (World, bool) {
	f, i, ok := w.Facility(a.FacilityID)
	if !ok || f.PlantedCrop == nil {
		return w, false
	}
	pc := *f.PlantedCrop
	products, ok := adjust(w.Products, pc.CropID, pc.Quantity)
	if !ok {
		return w, false
	}
	f.PlantedCrop = nil
	w.Products = products
	w.Facilities = replaced(w.Facilities, i, f)
	if e.roll() < e.Catalog.Balance.HarvestFragmentChance {
		w.Fragments = w.Fragments.Add(FragmentSomething, 1)
	}
	return w, true
}

func (e *Engine) sellCrop(w World, a Sell) (World, bool) {
	money, products, ok := sale(w.Money, w.Products, a.CropID, a.Quantity, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Products = products
	return w, true
}

// research always pays the cost. A successful roll bumps one stat, unless
// that stat is already at the cap.
func (e *Engine) research(w World, a Research) (World, bool) {
	crop, ok := w.CropData[a.CropID]
	if !ok {
		return w, false
	}
	if a.StatToUpgrade != nil && !validStat(*a.StatToUpgrade) {
		return w, false
	}
	products, ok := adjust(w.Products, a.CropID, -e.Catalog.Balance.ResearchCost)
	if !ok {
		return w, false
	}
	w.Products = products
	if a.StatToUpgrade != nil {
		st := *a.StatToUpgrade
		if lvl := crop.Stats.Get(st); lvl < e.Catalog.Balance.StatCap {
			crop.Stats = crop.Stats.With(st, lvl+1)
			w.CropData = with(w.CropData, a.CropID, crop)
		}
	}
	return w, true
}

func validStat(st Stat) bool {
	switch st {
	case StatTaste, StatDurability, StatAppearance:
		return true
	}
	return false
}
