/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the player intents.
    Each handler decodes a snake_case request DTO, calls the matching
    play.Session intent, and answers with the intent's result plus the
    new snapshot.

    Key Responsibilities:
    - Input decoding (Is the JSON valid? Are there unknown fields?)
    - Delegating to the session, which validates and dispatches
    - Reporting failures with a status derived from the sentinel error
*/

package api

import (
	"net/http"

	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/play"
)

// Response is the body of every successful intent.
type Response struct {
	Result any        `json:"result,omitempty"`
	State  game.World `json:"state"`
}

// Request DTOs (Data Transfer Objects)

type QuantityRequest struct {
	CropID   string `json:"crop_id"`
	Quantity int64  `json:"quantity"`
}

type FacilityTemplateRequest struct {
	TemplateKey string `json:"template_key"`
}

type PlantRequest struct {
	FacilityID string `json:"facility_id"`
	CropID     string `json:"crop_id"`
}

type FacilityRequest struct {
	FacilityID string `json:"facility_id"`
}

type CropRequest struct {
	CropID string `json:"crop_id"`
}

type ExchangeRequest struct {
	To game.FragmentKind `json:"to"`
}

type RuinRequest struct {
	RuinType game.RuinType `json:"ruin_type"`
}

type TenantRequest struct {
	TenantID string `json:"tenant_id"`
}

type CompanyTypeRequest struct {
	TypeID string `json:"type_id"`
}

type AssignCompanyRequest struct {
	CompanyID string `json:"company_id"`
	TenantID  string `json:"tenant_id"`
}

type CompanyRequest struct {
	CompanyID string `json:"company_id"`
}

type ProduceRequest struct {
	CompanyID string `json:"company_id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"` // 0 produces as many as the stock allows
}

type ProductSaleRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CitizensRequest struct {
	TargetID   string          `json:"target_id"`
	TargetType game.TargetType `json:"target_type"`
	Amount     int64           `json:"amount"`
}

type MineralSaleRequest struct {
	MineralID string `json:"mineral_id"`
	Quantity  int64  `json:"quantity"`
}

type WeaponRequest struct {
	WeaponID string `json:"weapon_id"`
	Quantity int64  `json:"quantity,omitempty"`
}

type CountryRequest struct {
	CountryID game.CountryID `json:"country_id"`
}

type UpgradeRankRequest struct {
	CountryID game.CountryID `json:"country_id"`
	Rank      game.Rank      `json:"rank"`
}

type SpecialtySaleRequest struct {
	GoodID   string `json:"good_id"`
	Quantity int64  `json:"quantity"`
}

// Result DTOs

type ResearchResult struct {
	Upgraded *game.Stat `json:"upgraded"` // null when the attempt failed
}

type EarningsResult struct {
	Earnings int64 `json:"earnings"`
}

type ProducedResult struct {
	Produced int64 `json:"produced"`
}

// command runs one intent: decode, call, respond. run gets a session view
// that records the world its intent committed, and that world is what the
// response carries.
func command[Req any](s *Server, w http.ResponseWriter, r *http.Request, run func(*play.Session, Req) (any, error)) {
	var req Req
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var state game.World
	result, err := run(s.session.Into(&state), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, Response{Result: result, State: state})
}

// noResult adapts an intent that only reports success.
func noResult(err error) (any, error) { return nil, err }

// handleBuySeeds buys seed stock for one crop.
func (s *Server) handleBuySeeds(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req QuantityRequest) (any, error) {
		return noResult(sess.BuySeeds(req.CropID, req.Quantity))
	})
}

func (s *Server) handleBuyFacility(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req FacilityTemplateRequest) (any, error) {
		f, err := sess.BuyFacility(req.TemplateKey)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req PlantRequest) (any, error) {
		return noResult(sess.Plant(req.FacilityID, req.CropID))
	})
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req FacilityRequest) (any, error) {
		return noResult(sess.Harvest(req.FacilityID))
	})
}

// handleSellCrop sells harvested stock. Quantity 0 sells everything.
func (s *Server) handleSellCrop(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req QuantityRequest) (any, error) {
		return noResult(sess.SellCrop(req.CropID, req.Quantity))
	})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CropRequest) (any, error) {
		st, err := sess.Research(req.CropID)
		if err != nil {
			return nil, err
		}
		return ResearchResult{Upgraded: st}, nil
	})
}

func (s *Server) handleExchangeFragment(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req ExchangeRequest) (any, error) {
		return noResult(sess.ExchangeFragment(req.To))
	})
}

func (s *Server) handleAssembleRuin(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req RuinRequest) (any, error) {
		return noResult(sess.AssembleRuin(req.RuinType))
	})
}

func (s *Server) handleStartRuinProfit(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, _ struct{}) (any, error) {
		return noResult(sess.StartRuinProfit())
	})
}

func (s *Server) handleClaimRuinProfit(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, _ struct{}) (any, error) {
		earned, err := sess.ClaimRuinProfit()
		if err != nil {
			return nil, err
		}
		return EarningsResult{Earnings: earned}, nil
	})
}

func (s *Server) handleBuyTenant(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, _ struct{}) (any, error) {
		t, err := sess.BuyTenant()
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}

func (s *Server) handleStartTenantProfit(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req TenantRequest) (any, error) {
		return noResult(sess.StartTenantProfit(req.TenantID))
	})
}

func (s *Server) handleClaimTenantProfit(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req TenantRequest) (any, error) {
		earned, err := sess.ClaimTenantProfit(req.TenantID)
		if err != nil {
			return nil, err
		}
		return EarningsResult{Earnings: earned}, nil
	})
}

func (s *Server) handleBuyCompany(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CompanyTypeRequest) (any, error) {
		c, err := sess.BuyCompany(req.TypeID)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (s *Server) handleAssignCompany(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req AssignCompanyRequest) (any, error) {
		return noResult(sess.AssignCompany(req.CompanyID, req.TenantID))
	})
}

func (s *Server) handleRemoveCompany(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CompanyRequest) (any, error) {
		return noResult(sess.RemoveCompany(req.CompanyID))
	})
}

func (s *Server) handleProduce(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req ProduceRequest) (any, error) {
		n, err := sess.Produce(req.CompanyID, req.ProductID, req.Quantity)
		if err != nil {
			return nil, err
		}
		return ProducedResult{Produced: n}, nil
	})
}

func (s *Server) handleSellCompanyProduct(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req ProductSaleRequest) (any, error) {
		return noResult(sess.SellCompanyProduct(req.ProductID, req.Quantity))
	})
}

func (s *Server) handleAssignCitizens(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CitizensRequest) (any, error) {
		return noResult(sess.AssignCitizens(req.TargetID, req.TargetType, req.Amount))
	})
}

func (s *Server) handleWithdrawCitizens(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CitizensRequest) (any, error) {
		return noResult(sess.WithdrawCitizens(req.TargetID, req.TargetType, req.Amount))
	})
}

func (s *Server) handleStartMining(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, _ struct{}) (any, error) {
		return noResult(sess.StartMining())
	})
}

// handleCollectMinerals answers with the drop that was rolled.
func (s *Server) handleCollectMinerals(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, _ struct{}) (any, error) {
		drop, err := sess.CollectMinerals()
		if err != nil {
			return nil, err
		}
		return drop, nil
	})
}

func (s *Server) handleSellMineral(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req MineralSaleRequest) (any, error) {
		return noResult(sess.SellMineral(req.MineralID, req.Quantity))
	})
}

func (s *Server) handleCraftWeapon(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req WeaponRequest) (any, error) {
		return noResult(sess.CraftWeapon(req.WeaponID))
	})
}

func (s *Server) handleSellWeapon(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req WeaponRequest) (any, error) {
		return noResult(sess.SellWeapon(req.WeaponID, req.Quantity))
	})
}

func (s *Server) handleConquer(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CountryRequest) (any, error) {
		return noResult(sess.Conquer(req.CountryID))
	})
}

func (s *Server) handleStartCountryProduction(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CountryRequest) (any, error) {
		return noResult(sess.StartCountryProduction(req.CountryID))
	})
}

func (s *Server) handleCollectCountryProduction(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req CountryRequest) (any, error) {
		y, err := sess.CollectCountryProduction(req.CountryID)
		if err != nil {
			return nil, err
		}
		return y, nil
	})
}

func (s *Server) handleUpgradeRank(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req UpgradeRankRequest) (any, error) {
		return noResult(sess.UpgradeCountryRank(req.CountryID, req.Rank))
	})
}

func (s *Server) handleSellSpecialtyGood(w http.ResponseWriter, r *http.Request) {
	command(s, w, r, func(sess *play.Session, req SpecialtySaleRequest) (any, error) {
		return noResult(sess.SellSpecialtyGood(req.GoodID, req.Quantity))
	})
}
