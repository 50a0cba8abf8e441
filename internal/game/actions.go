/*
Package game
File: actions.go
Description:
    The closed set of actions the engine understands, one Go type per tag,
    and the JSON envelope codec: {"type": <tag>, "payload": {...}}.
    Payload field names are camelCase so saved replays stay readable by
    older clients.
*/

package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action is anything the engine can be asked to apply.
type Action interface {
	Kind() string
}

const (
	TagBuySeeds                    = "BUY_SEEDS"
	TagBuyFacility                 = "BUY_FACILITY"
	TagPlant                       = "PLANT"
	TagHarvest                     = "HARVEST"
	TagSell                        = "SELL"
	TagResearch                    = "RESEARCH"
	TagExchangeFragment            = "EXCHANGE_FRAGMENT"
	TagAssembleRuin                = "ASSEMBLE_RUIN"
	TagStartProfitCollection       = "START_PROFIT_COLLECTION"
	TagClaimProfit                 = "CLAIM_PROFIT"
	TagBuyTenant                   = "BUY_TENANT"
	TagBuyCompany                  = "BUY_COMPANY"
	TagAssignCompanyToTenant       = "ASSIGN_COMPANY_TO_TENANT"
	TagRemoveCompanyFromTenant     = "REMOVE_COMPANY_FROM_TENANT"
	TagProduceProduct              = "PRODUCE_PRODUCT"
	TagSellCompanyProduct          = "SELL_COMPANY_PRODUCT"
	TagAssignCitizens              = "ASSIGN_CITIZENS"
	TagWithdrawCitizens            = "WITHDRAW_CITIZENS"
	TagStartTenantProfitCollection = "START_TENANT_PROFIT_COLLECTION"
	TagClaimTenantProfit           = "CLAIM_TENANT_PROFIT"
	TagStartMining                 = "START_MINING"
	TagCollectMinerals             = "COLLECT_MINERALS"
	TagSellMineral                 = "SELL_MINERAL"
	TagCraftWeapon                 = "CRAFT_WEAPON"
	TagSellWeapon                  = "SELL_WEAPON"
	TagConquerCountry              = "CONQUER_COUNTRY"
	TagStartCountryProduction      = "START_COUNTRY_PRODUCTION"
	TagCollectCountryProduction    = "COLLECT_COUNTRY_PRODUCTION"
	TagUpgradeCountryRank          = "UPGRADE_COUNTRY_RANK"
	TagSellSpecialtyGood           = "SELL_SPECIALTY_GOOD"
	TagLoadGame                    = "LOAD_GAME"
)

// --- Farm ---

type BuySeeds struct {
	CropID   string `json:"cropId"`
	Quantity int64  `json:"quantity"`
	Cost     int64  `json:"cost"`
}

type BuyFacility struct {
	Facility Facility `json:"facility"`
	Cost     int64    `json:"cost"`
}

type Plant struct {
	FacilityID string `json:"facilityId"`
	CropID     string `json:"cropId"`
}

type Harvest struct {
	FacilityID string `json:"facilityId"`
}

type Sell struct {
	CropID   string `json:"cropId"`
	Quantity int64  `json:"quantity"`
	Earnings int64  `json:"earnings"`
}

// Research carries a pre-rolled outcome: nil StatToUpgrade is a failed attempt.
type Research struct {
	CropID        string `json:"cropId"`
	StatToUpgrade *Stat  `json:"statToUpgrade"`
}

// --- Ruins ---

type ExchangeFragment struct {
	ToFragment FragmentKind `json:"toFragment"`
}

type AssembleRuin struct {
	RuinType RuinType `json:"ruinType"`
}

type StartProfitCollection struct{}

type ClaimProfit struct {
	Earnings int64 `json:"earnings"`
}

// --- Tenants, companies, citizens ---

type BuyTenant struct {
	Tenant Tenant `json:"tenant"`
	Cost   int64  `json:"cost"`
}

type BuyCompany struct {
	Company Company `json:"company"`
	Cost    int64   `json:"cost"`
}

type AssignCompanyToTenant struct {
	CompanyID string `json:"companyId"`
	TenantID  string `json:"tenantId"`
}

type RemoveCompanyFromTenant struct {
	CompanyID string `json:"companyId"`
}

type ProduceProduct struct {
	CompanyID string `json:"companyId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type SellCompanyProduct struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Earnings  int64  `json:"earnings"`
}

type AssignCitizens struct {
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
	Amount     int64      `json:"amount"`
}

type WithdrawCitizens struct {
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
	Amount     int64      `json:"amount"`
}

type StartTenantProfitCollection struct {
	TenantID string `json:"tenantId"`
}

type ClaimTenantProfit struct {
	TenantID string `json:"tenantId"`
	Earnings int64  `json:"earnings"`
}

// --- Mine and smithy ---

type StartMining struct{}

type CollectMinerals struct {
	Collected map[string]int64 `json:"collected"`
}

type SellMineral struct {
	MineralID string `json:"mineralId"`
	Quantity  int64  `json:"quantity"`
	Earnings  int64  `json:"earnings"`
}

type CraftWeapon struct {
	WeaponID string `json:"weaponId"`
}

type SellWeapon struct {
	WeaponID string `json:"weaponId"`
	Quantity int64  `json:"quantity"`
	Earnings int64  `json:"earnings"`
}

// --- Countries ---

type ConquerCountry struct {
	CountryID CountryID `json:"countryId"`
}

type StartCountryProduction struct {
	CountryID CountryID `json:"countryId"`
}

type CollectCountryProduction struct {
	CountryID       CountryID `json:"countryId"`
	SpecialtyGoodID string    `json:"specialtyGoodId"`
	GoodsAmount     int64     `json:"goodsAmount"`
	BondsAmount     int64     `json:"bondsAmount"`
}

type UpgradeCountryRank struct {
	CountryID CountryID `json:"countryId"`
	Rank      Rank      `json:"rank"`
}

type SellSpecialtyGood struct {
	SpecialtyGoodID string `json:"specialtyGoodId"`
	Quantity        int64  `json:"quantity"`
	Earnings        int64  `json:"earnings"`
}

// --- System ---

type LoadGame struct {
	NewState *World `json:"newState"`
}

// Unknown is what DecodeAction yields for an unrecognized tag. The engine
// treats it as a no-op.
type Unknown struct {
	Type string
}

func (BuySeeds) Kind() string                    { return TagBuySeeds }
func (BuyFacility) Kind() string                 { return TagBuyFacility }
func (Plant) Kind() string                       { return TagPlant }
func (Harvest) Kind() string                     { return TagHarvest }
func (Sell) Kind() string                        { return TagSell }
func (Research) Kind() string                    { return TagResearch }
func (ExchangeFragment) Kind() string            { return TagExchangeFragment }
func (AssembleRuin) Kind() string                { return TagAssembleRuin }
func (StartProfitCollection) Kind() string       { return TagStartProfitCollection }
func (ClaimProfit) Kind() string                 { return TagClaimProfit }
func (BuyTenant) Kind() string                   { return TagBuyTenant }
func (BuyCompany) Kind() string                  { return TagBuyCompany }
func (AssignCompanyToTenant) Kind() string       { return TagAssignCompanyToTenant }
func (RemoveCompanyFromTenant) Kind() string     { return TagRemoveCompanyFromTenant }
func (ProduceProduct) Kind() string              { return TagProduceProduct }
func (SellCompanyProduct) Kind() string          { return TagSellCompanyProduct }
func (AssignCitizens) Kind() string              { return TagAssignCitizens }
func (WithdrawCitizens) Kind() string            { return TagWithdrawCitizens }
func (StartTenantProfitCollection) Kind() string { return TagStartTenantProfitCollection }
func (ClaimTenantProfit) Kind() string           { return TagClaimTenantProfit }
func (StartMining) Kind() string                 { return TagStartMining }
func (CollectMinerals) Kind() string             { return TagCollectMinerals }
func (SellMineral) Kind() string                 { return TagSellMineral }
func (CraftWeapon) Kind() string                 { return TagCraftWeapon }
func (SellWeapon) Kind() string                  { return TagSellWeapon }
func (ConquerCountry) Kind() string              { return TagConquerCountry }
func (StartCountryProduction) Kind() string      { return TagStartCountryProduction }
func (CollectCountryProduction) Kind() string    { return TagCollectCountryProduction }
func (UpgradeCountryRank) Kind() string          { return TagUpgradeCountryRank }
func (SellSpecialtyGood) Kind() string           { return TagSellSpecialtyGood }
func (LoadGame) Kind() string                    { return TagLoadGame }
func (u Unknown) Kind() string                   { return u.Type }

var ErrMalformedAction = errors.New("malformed action")

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var a T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

var decoders = map[string]func(json.RawMessage) (Action, error){
	TagBuySeeds:                    decodeAs[BuySeeds],
	TagBuyFacility:                 decodeAs[BuyFacility],
	TagPlant:                       decodeAs[Plant],
	TagHarvest:                     decodeAs[Harvest],
	TagSell:                        decodeAs[Sell],
	TagResearch:                    decodeAs[Research],
	TagExchangeFragment:            decodeAs[ExchangeFragment],
	TagAssembleRuin:                decodeAs[AssembleRuin],
	TagStartProfitCollection:       decodeAs[StartProfitCollection],
	TagClaimProfit:                 decodeAs[ClaimProfit],
	TagBuyTenant:                   decodeAs[BuyTenant],
	TagBuyCompany:                  decodeAs[BuyCompany],
	TagAssignCompanyToTenant:       decodeAs[AssignCompanyToTenant],
	TagRemoveCompanyFromTenant:     decodeAs[RemoveCompanyFromTenant],
	TagProduceProduct:              decodeAs[ProduceProduct],
	TagSellCompanyProduct:          decodeAs[SellCompanyProduct],
	TagAssignCitizens:              decodeAs[AssignCitizens],
	TagWithdrawCitizens:            decodeAs[WithdrawCitizens],
	TagStartTenantProfitCollection: decodeAs[StartTenantProfitCollection],
	TagClaimTenantProfit:           decodeAs[ClaimTenantProfit],
	TagStartMining:                 decodeAs[StartMining],
	TagCollectMinerals:             decodeAs[CollectMinerals],
	TagSellMineral:                 decodeAs[SellMineral],
	TagCraftWeapon:                 decodeAs[CraftWeapon],
	TagSellWeapon:                  decodeAs[SellWeapon],
	TagConquerCountry:              decodeAs[ConquerCountry],
	TagStartCountryProduction:      decodeAs[StartCountryProduction],
	TagCollectCountryProduction:    decodeAs[CollectCountryProduction],
	TagUpgradeCountryRank:          decodeAs[UpgradeCountryRank],
	TagSellSpecialtyGood:           decodeAs[SellSpecialtyGood],
	TagLoadGame:                    decodeAs[LoadGame],
}

// DecodeAction parses an action envelope. Unknown tags are not an error;
// they decode to Unknown so replays from newer clients degrade to no-ops.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedAction)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return Unknown{Type: env.Type}, nil
	}
	a, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedAction, env.Type, err)
	}
	return a, nil
}

// EncodeAction produces the envelope for a.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrMalformedAction)
	}
	env := envelope{Type: a.Kind()}
	switch a.(type) {
	case StartProfitCollection, StartMining, Unknown:
		// payload-less
	default:
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
