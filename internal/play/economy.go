/*
Package play
File: economy.go
Description:
    Tenant, company, production and citizen intents.
*/

package play

import (
	"fmt"
	"slices"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// BuyTenant buys an empty tenant named "Tenant #n".
func (s *Session) BuyTenant() (game.Tenant, error) {
	var bought game.Tenant
	err := s.do(func(w game.World) (game.Action, error) {
		cost := s.cat.Balance.TenantCost
		if w.Money < cost {
			return nil, fmt.Errorf("tenant costs %d: %w", cost, ErrInsufficient)
		}
		bought = game.Tenant{
			ID:   s.ids.Next("ten"),
			Name: fmt.Sprintf("Tenant #%d", len(w.Tenants)+1),
		}
		return game.BuyTenant{Tenant: bought, Cost: cost}, nil
	})
	if err != nil {
		return game.Tenant{}, err
	}
	return bought, nil
}

// BuyCompany founds a company from a template, numbered per template.
func (s *Session) BuyCompany(typeID string) (game.Company, error) {
	var bought game.Company
	err := s.do(func(w game.World) (game.Action, error) {
		info, ok := w.CompanyData[typeID]
		if !ok {
			return nil, fmt.Errorf("company type %q: %w", typeID, ErrUnknown)
		}
		cost := s.cat.Balance.CompanyCost
		if w.Money < cost {
			return nil, fmt.Errorf("company costs %d: %w", cost, ErrInsufficient)
		}
		n := 0
		for _, c := range w.Companies {
			if c.TypeID == typeID {
				n++
			}
		}
		bought = game.Company{
			ID:          s.ids.Next("comp"),
			TypeID:      typeID,
			Name:        fmt.Sprintf("%s #%d", info.Name, n+1),
			MarketValue: info.BaseMarketValue,
		}
		return game.BuyCompany{Company: bought, Cost: cost}, nil
	})
	if err != nil {
		return game.Company{}, err
	}
	return bought, nil
}

// AssignCompany moves a company into a tenant with free capacity.
func (s *Session) AssignCompany(companyID, tenantID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		c, _, ok := w.Company(companyID)
		if !ok {
			return nil, fmt.Errorf("company %q: %w", companyID, ErrUnknown)
		}
		if _, _, ok := w.Tenant(tenantID); !ok {
			return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrUnknown)
		}
		if c.InTenant(tenantID) {
			return nil, fmt.Errorf("company %q already in %q: %w", companyID, tenantID, ErrConflict)
		}
		if len(w.Residents(tenantID)) >= s.cat.Balance.TenantCompanyCapacity {
			return nil, fmt.Errorf("tenant %q is full: %w", tenantID, ErrConflict)
		}
		return game.AssignCompanyToTenant{CompanyID: companyID, TenantID: tenantID}, nil
	})
}

// RemoveCompany moves a company out of its tenant.
func (s *Session) RemoveCompany(companyID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		c, _, ok := w.Company(companyID)
		if !ok {
			return nil, fmt.Errorf("company %q: %w", companyID, ErrUnknown)
		}
		if c.TenantID == nil {
			return nil, fmt.Errorf("company %q has no tenant: %w", companyID, ErrConflict)
		}
		return game.RemoveCompanyFromTenant{CompanyID: companyID}, nil
	})
}

// Produce makes qty units of one of the company's products and returns the
// quantity made. qty <= 0 makes as many as the warehouse allows.
func (s *Session) Produce(companyID, productID string, qty int64) (int64, error) {
	var made int64
	err := s.do(func(w game.World) (game.Action, error) {
		c, _, ok := w.Company(companyID)
		if !ok {
			return nil, fmt.Errorf("company %q: %w", companyID, ErrUnknown)
		}
		product, ok := w.ProductData[productID]
		if !ok {
			return nil, fmt.Errorf("product %q: %w", productID, ErrUnknown)
		}
		if info, ok := w.CompanyData[c.TypeID]; !ok || !slices.Contains(info.Products, productID) {
			return nil, fmt.Errorf("%s does not make %s: %w", c.Name, productID, ErrBadInput)
		}
		most := game.MaxProducible(product.Recipe, w.Products)
		made = qty
		if qty <= 0 {
			made = most
		}
		if made < 1 || made > most {
			return nil, fmt.Errorf("%s: %w", productID, ErrInsufficient)
		}
		return game.ProduceProduct{CompanyID: companyID, ProductID: productID, Quantity: made}, nil
	})
	if err != nil {
		return 0, err
	}
	return made, nil
}

// SellCompanyProduct sells company-made goods at their list price.
// qty <= 0 sells everything.
func (s *Session) SellCompanyProduct(productID string, qty int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		product, ok := w.ProductData[productID]
		if !ok {
			return nil, fmt.Errorf("product %q: %w", productID, ErrUnknown)
		}
		n, err := sellQty(w.CompanyProducts[productID], qty)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", productID, err)
		}
		earnings, ok := game.Total(product.SellPrice, n)
		if !ok {
			return nil, fmt.Errorf("%s: %w", productID, ErrBadInput)
		}
		return game.SellCompanyProduct{ProductID: productID, Quantity: n, Earnings: earnings}, nil
	})
}

// AssignCitizens moves citizens from the pool to a company or tenant.
func (s *Session) AssignCitizens(targetID string, targetType game.TargetType, amount int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		if amount < 1 {
			return nil, fmt.Errorf("amount %d: %w", amount, ErrBadInput)
		}
		if _, err := assigned(w, targetID, targetType); err != nil {
			return nil, err
		}
		if w.Citizens < amount {
			return nil, fmt.Errorf("pool has %d citizens: %w", w.Citizens, ErrInsufficient)
		}
		return game.AssignCitizens{TargetID: targetID, TargetType: targetType, Amount: amount}, nil
	})
}

// WithdrawCitizens returns up to amount citizens to the pool.
func (s *Session) WithdrawCitizens(targetID string, targetType game.TargetType, amount int64) error {
	return s.do(func(w game.World) (game.Action, error) {
		if amount < 1 {
			return nil, fmt.Errorf("amount %d: %w", amount, ErrBadInput)
		}
		have, err := assigned(w, targetID, targetType)
		if err != nil {
			return nil, err
		}
		if have == 0 {
			return nil, fmt.Errorf("%s %q has no citizens: %w", targetType, targetID, ErrInsufficient)
		}
		return game.WithdrawCitizens{TargetID: targetID, TargetType: targetType, Amount: amount}, nil
	})
}

// assigned returns the citizens currently working at a target.
func assigned(w game.World, id string, t game.TargetType) (int64, error) {
	switch t {
	case game.TargetCompany:
		c, _, ok := w.Company(id)
		if !ok {
			return 0, fmt.Errorf("company %q: %w", id, ErrUnknown)
		}
		return c.AssignedCitizens, nil
	case game.TargetTenant:
		tn, _, ok := w.Tenant(id)
		if !ok {
			return 0, fmt.Errorf("tenant %q: %w", id, ErrUnknown)
		}
		return tn.AssignedCitizens, nil
	}
	return 0, fmt.Errorf("target type %q: %w", t, ErrBadInput)
}

// StartTenantProfit starts a tenant's profit timer. The tenant must house
// at least one company.
func (s *Session) StartTenantProfit(tenantID string) error {
	return s.do(func(w game.World) (game.Action, error) {
		if _, _, ok := w.Tenant(tenantID); !ok {
			return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrUnknown)
		}
		if w.TenantProfitState[tenantID].Running() {
			return nil, fmt.Errorf("tenant %q profit: %w", tenantID, ErrConflict)
		}
		if len(w.Residents(tenantID)) == 0 {
			return nil, fmt.Errorf("tenant %q has no companies: %w", tenantID, ErrInsufficient)
		}
		return game.StartTenantProfitCollection{TenantID: tenantID}, nil
	})
}

// ClaimTenantProfit collects a finished tenant cycle and returns the payout.
func (s *Session) ClaimTenantProfit(tenantID string) (int64, error) {
	var earnings int64
	err := s.do(func(w game.World) (game.Action, error) {
		t, _, ok := w.Tenant(tenantID)
		if !ok {
			return nil, fmt.Errorf("tenant %q: %w", tenantID, ErrUnknown)
		}
		if !s.cat.TenantProfitOp().Ready(w.TenantProfitState[tenantID], s.clock.Now()) {
			return nil, fmt.Errorf("tenant %q profit: %w", tenantID, ErrNotReady)
		}
		earnings = game.TenantEarnings(t, w.Companies, w.CompanyData, s.cat.Balance)
		return game.ClaimTenantProfit{TenantID: tenantID, Earnings: earnings}, nil
	})
	if err != nil {
		return 0, err
	}
	return earnings, nil
}
