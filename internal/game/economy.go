/*
Package game
File: economy.go
Description:
    Handles the enterprise side of the economy.
    This includes:
    1. Buying tenants and companies.
    2. Housing companies in tenants (by back-reference, capacity-limited).
    3. Company production and product sales.
    4. The citizen labor pool (assign / withdraw).
    5. Per-tenant profit timers.

    Every write to a company's ProductionRecord or AssignedCitizens goes
    through revalue so MarketValue is never stale.
*/

package game

// revalue recomputes the derived market value of c.
func (e *Engine) revalue(w World, c Company) Company {
	c.MarketValue = MarketValue(c, w.CompanyData, e.Catalog.Balance)
	return c
}

func (e *Engine) buyTenant(w World, a BuyTenant) (World, bool) {
	t := a.Tenant
	// A fresh tenant starts empty; anything else would mint citizens.
	if t.ID == "" || t.AssignedCitizens != 0 {
		return w, false
	}
	if _, _, exists := w.Tenant(t.ID); exists {
		return w, false
	}
	money, ok := debit(w.Money, a.Cost)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Tenants = appended(w.Tenants, t)
	w.TenantProfitState = with(w.TenantProfitState, t.ID, Idle())
	return w, true
}

func (e *Engine) buyCompany(w World, a BuyCompany) (World, bool) {
	c := a.Company
	if c.ID == "" || c.AssignedCitizens != 0 || c.ProductionRecord < 0 || c.TenantID != nil {
		return w, false
	}
	if _, ok := w.CompanyData[c.TypeID]; !ok {
		return w, false
	}
	if _, _, exists := w.Company(c.ID); exists {
		return w, false
	}
	money, ok := debit(w.Money, a.Cost)
	if !ok {
		return w, false
	}
	w.Money = money
	w.Companies = appended(w.Companies, e.revalue(w, c))
	return w, true
}

func (e *Engine) assignCompany(w World, a AssignCompanyToTenant) (World, bool) {
	c, i, ok := w.Company(a.CompanyID)
	if !ok || c.InTenant(a.TenantID) {
		return w, false
	}
	if _, _, ok := w.Tenant(a.TenantID); !ok {
		return w, false
	}
	if len(w.Residents(a.TenantID)) >= e.Catalog.Balance.TenantCompanyCapacity {
		return w, false
	}
	id := a.TenantID
	c.TenantID = &id
	w.Companies = replaced(w.Companies, i, c)
	return w, true
}

func (e *Engine) removeCompany(w World, a RemoveCompanyFromTenant) (World, bool) {
	c, i, ok := w.Company(a.CompanyID)
	if !ok || c.TenantID == nil {
		return w, false
	}
	c.TenantID = nil
	w.Companies = replaced(w.Companies, i, c)
	return w, true
}

// produce is all-or-nothing: every ingredient is checked for recipe×quantity
// before anything is debited.
func (e *Engine) produce(w World, a ProduceProduct) (World, bool) {
	product, ok := w.ProductData[a.ProductID]
	if !ok {
		return w, false
	}
	c, i, ok := w.Company(a.CompanyID)
	if !ok {
		return w, false
	}
	products, ok := debitRecipe(w.Products, product.Recipe, a.Quantity)
	if !ok {
		return w, false
	}
	made, ok := adjust(w.CompanyProducts, a.ProductID, a.Quantity)
	if !ok {
		return w, false
	}
	c.ProductionRecord = max(c.ProductionRecord, a.Quantity)
	w.Products = products
	w.CompanyProducts = made
	w.Companies = replaced(w.Companies, i, e.revalue(w, c))
	return w, true
}

func (e *Engine) sellCompanyProduct(w World, a SellCompanyProduct) (World, bool) {
	money, stock, ok := sale(w.Money, w.CompanyProducts, a.ProductID, a.Quantity, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.CompanyProducts = stock
	return w, true
}

func (e *Engine) assignCitizens(w World, a AssignCitizens) (World, bool) {
	if a.Amount < 1 || w.Citizens < a.Amount {
		return w, false
	}
	switch a.TargetType {
	case TargetCompany:
		c, i, ok := w.Company(a.TargetID)
		if !ok {
			return w, false
		}
		c.AssignedCitizens += a.Amount
		w.Companies = replaced(w.Companies, i, e.revalue(w, c))
	case TargetTenant:
		t, i, ok := w.Tenant(a.TargetID)
		if !ok {
			return w, false
		}
		t.AssignedCitizens += a.Amount
		w.Tenants = replaced(w.Tenants, i, t)
	default:
		return w, false
	}
	w.Citizens -= a.Amount
	return w, true
}

// withdrawCitizens returns min(assigned, amount) to the pool.
func (e *Engine) withdrawCitizens(w World, a WithdrawCitizens) (World, bool) {
	if a.Amount < 1 {
		return w, false
	}
	var back int64
	switch a.TargetType {
	case TargetCompany:
		c, i, ok := w.Company(a.TargetID)
		if !ok {
			return w, false
		}
		back = min(c.AssignedCitizens, a.Amount)
		if back <= 0 {
			return w, false
		}
		c.AssignedCitizens -= back
		w.Companies = replaced(w.Companies, i, e.revalue(w, c))
	case TargetTenant:
		t, i, ok := w.Tenant(a.TargetID)
		if !ok {
			return w, false
		}
		back = min(t.AssignedCitizens, a.Amount)
		if back <= 0 {
			return w, false
		}
		t.AssignedCitizens -= back
		w.Tenants = replaced(w.Tenants, i, t)
	default:
		return w, false
	}
	w.Citizens += back
	return w, true
}

func (e *Engine) startTenantProfit(w World, a StartTenantProfitCollection) (World, bool) {
	if _, _, ok := w.Tenant(a.TenantID); !ok {
		return w, false
	}
	if w.TenantProfitState[a.TenantID].Running() {
		return w, false
	}
	if len(w.Residents(a.TenantID)) == 0 {
		return w, false
	}
	w.TenantProfitState = with(w.TenantProfitState, a.TenantID, Started(e.now()))
	return w, true
}

func (e *Engine) claimTenantProfit(w World, a ClaimTenantProfit) (World, bool) {
	if _, _, ok := w.Tenant(a.TenantID); !ok || a.Earnings < 0 {
		return w, false
	}
	money, ok := add(w.Money, a.Earnings)
	if !ok {
		return w, false
	}
	w.Money = money
	w.TenantProfitState = with(w.TenantProfitState, a.TenantID, Idle())
	return w, true
}
