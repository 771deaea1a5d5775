package http

// ErrorResponse is the rejection shape. Error carries the stable symbolic
// code; Missing lists the absent required variables when applicable.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

type ConsumptionPointRequest struct {
	Ref                   string  `json:"ref"`
	UtilityCode           string  `json:"utility_code"`
	Jurisdiction          string  `json:"jurisdiction"`
	SubGroup              string  `json:"sub_group"`
	MonthlyConsumptionKWh float64 `json:"monthly_consumption_kwh"`
}

type PremisesRequest struct {
	RoofType        string  `json:"roof_type"`
	Structure       string  `json:"structure"`
	Orientation     string  `json:"orientation"`
	AvailableAreaM2 float64 `json:"available_area_m2"`
}

type KitItemRequest struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
}

type ServiceItemRequest struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

type CommercialTermsRequest struct {
	CommissionPct float64 `json:"commission_pct"`
	OtherCosts    float64 `json:"other_costs"`
	MarginPct     float64 `json:"margin_pct"`
	DiscountPct   float64 `json:"discount_pct"`
}

type ScenarioRequest struct {
	Type                string  `json:"type"`
	Principal           float64 `json:"principal"`
	DownPayment         float64 `json:"down_payment"`
	MonthlyInterestRate float64 `json:"monthly_interest_rate"`
	InstallmentCount    int     `json:"installment_count"`
	InstallmentAmount   float64 `json:"installment_amount"`
	FinancierRef        string  `json:"financier_ref,omitempty"`
}

// GenerateRequest is the POST body for one generation. The tariff group is
// advisory only and re-derived server-side.
type GenerateRequest struct {
	LeadID              string                    `json:"lead_id"`
	ProjectRef          string                    `json:"project_ref,omitempty"`
	ClientRef           string                    `json:"client_ref,omitempty"`
	TemplateRef         string                    `json:"template_ref,omitempty"`
	TariffGroup         string                    `json:"tariff_group,omitempty"`
	InstalledPowerKWp   float64                   `json:"installed_power_kwp"`
	AvgTariff           float64                   `json:"avg_tariff,omitempty"`
	ConsumptionPoints   []ConsumptionPointRequest `json:"consumption_points"`
	Premises            *PremisesRequest          `json:"premises,omitempty"`
	KitItems            []KitItemRequest          `json:"kit_items"`
	Services            []ServiceItemRequest      `json:"services"`
	Commercial          CommercialTermsRequest    `json:"commercial"`
	Scenarios           []ScenarioRequest         `json:"scenarios"`
	Notes               string                    `json:"notes,omitempty"`
	IdempotencyKey      string                    `json:"idempotency_key"`
	SkipCustomVariables bool                      `json:"skip_custom_variables,omitempty"`
	AceiteEstimativa    bool                      `json:"aceite_estimativa,omitempty"`
}

type GenerateResponse struct {
	Success        bool    `json:"success"`
	Idempotent     bool    `json:"idempotent"`
	ProposalID     string  `json:"proposal_id"`
	VersionID      string  `json:"version_id"`
	VersionNumber  int     `json:"version_number"`
	TotalValue     float64 `json:"total_value"`
	PaybackMonths  int     `json:"payback_months"`
	PaybackYears   int     `json:"payback_years"`
	MonthlySavings float64 `json:"monthly_savings"`
	NPV            float64 `json:"npv"`
	IRR            float64 `json:"irr"`
	EngineVersion  string  `json:"engine_version"`
	CalcHash       string  `json:"calc_hash"`
	ScenarioCount  int     `json:"scenario_count"`
}

type VersionHeaderDTO struct {
	VersionID     string `json:"version_id"`
	ProposalID    string `json:"proposal_id"`
	VersionNumber int    `json:"version_number"`
	CalcHash      string `json:"calc_hash"`
	EngineVersion string `json:"engine_version"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type ListVersionsResponse struct {
	Success bool               `json:"success"`
	Data    []VersionHeaderDTO `json:"data"`
}

type GetVersionResponse struct {
	Success bool             `json:"success"`
	Version VersionHeaderDTO `json:"version"`
	// Snapshot is the immutable record exactly as persisted.
	Snapshot any `json:"snapshot"`
}
