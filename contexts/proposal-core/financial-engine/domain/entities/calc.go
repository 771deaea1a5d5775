package entities

// ProjectionYears is the contractual horizon of every financial projection.
const ProjectionYears = 25

// GridUsageShare is the fixed proportion of the tariff attributable to the
// fee-bearing grid-usage component (Fio B). Domain constant, not configurable.
const GridUsageShare = 0.28

// PaybackNever marks a projection whose cumulative cash flow stays negative
// for the whole horizon. Zero is reserved and never produced.
const PaybackNever = -1

// FeeStep is one point of the statutory escalation schedule. Steps arrive
// unsorted and possibly with duplicate years; resolution sorts defensively.
type FeeStep struct {
	Year    int     `json:"year"`
	Percent float64 `json:"percent"`
}

// FeeSchedule is the tenant-overridable Fio B escalation schedule. Resolution
// for a calendar year picks the latest step whose year is not after it, and
// falls back to BasePercent when no step qualifies.
type FeeSchedule struct {
	BaseYear    int       `json:"base_year"`
	BasePercent float64   `json:"base_percent"`
	Steps       []FeeStep `json:"steps"`
}

// CalcInputs is the normalized numeric basis for one projection. Built once
// per generation request and never mutated afterwards.
type CalcInputs struct {
	Investment              float64     `json:"investment"`
	FirstYearMonthlySavings float64     `json:"first_year_monthly_savings"`
	MonthlyGenerationKWh    float64     `json:"monthly_generation_kwh"`
	AvgTariff               float64     `json:"avg_tariff"`
	EnergyInflationRate     float64     `json:"energy_inflation_rate"`
	EfficiencyLossRate      float64     `json:"efficiency_loss_rate"`
	ReplacementYear         int         `json:"replacement_year"`
	ReplacementCostPct      float64     `json:"replacement_cost_pct"`
	DiscountRate            float64     `json:"discount_rate"`
	FeeSchedule             FeeSchedule `json:"fee_schedule"`
}

// SeriesRow is one projection year. Monetary fields are rounded to two
// decimals at the point of computation; cumulative fields are accumulated
// from the rounded values so the persisted series matches the displayed one.
type SeriesRow struct {
	Year               int     `json:"year"`
	GeneratedKWh       float64 `json:"generated_kwh"`
	Tariff             float64 `json:"tariff"`
	Degradation        float64 `json:"degradation"`
	GrossSavings       float64 `json:"gross_savings"`
	FeeCost            float64 `json:"fee_cost"`
	NetSavings         float64 `json:"net_savings"`
	CumulativeNet      float64 `json:"cumulative_net"`
	ReplacementCost    float64 `json:"replacement_cost"`
	CashFlow           float64 `json:"cash_flow"`
	CumulativeCashFlow float64 `json:"cumulative_cash_flow"`
	PresentValue       float64 `json:"present_value"`
}

// CalcResult is the full 25-year projection.
//
// PaybackYears comes from the yearly series; PaybackMonths is an independent
// flat approximation (investment over first-year monthly savings). The two
// may disagree by a few months and both are preserved verbatim.
type CalcResult struct {
	Series           []SeriesRow `json:"series"`
	PaybackYears     int         `json:"payback_years"`
	PaybackMonths    int         `json:"payback_months"`
	NPV              float64     `json:"npv"`
	IRRPercent       float64     `json:"irr_percent"`
	FirstYearSavings float64     `json:"first_year_savings"`
	TotalSavings     float64     `json:"total_25yr_savings"`
}

type ScenarioType string

const (
	ScenarioCash        ScenarioType = "cash"
	ScenarioFinanced    ScenarioType = "financed"
	ScenarioInstallment ScenarioType = "installment"
	ScenarioOther       ScenarioType = "other"
)

// Scenario is one offered payment plan evaluated against the same technical
// and financial base.
type Scenario struct {
	Type                ScenarioType `json:"type"`
	Principal           float64      `json:"principal"`
	DownPayment         float64      `json:"down_payment"`
	MonthlyInterestRate float64      `json:"monthly_interest_rate"`
	InstallmentCount    int          `json:"installment_count"`
	InstallmentAmount   float64      `json:"installment_amount"`
	FinancierRef        string       `json:"financier_ref,omitempty"`
}

// ScenarioResult is the Scenario enriched with the compounded effective
// annual cost rate, the financing-aware payback figure, and the projection
// that was run with the scenario principal as investment.
type ScenarioResult struct {
	Scenario           Scenario   `json:"scenario"`
	EffectiveAnnualPct float64    `json:"effective_annual_pct"`
	PaybackMonths      int        `json:"payback_months"`
	Calc               CalcResult `json:"calc"`
}

// CustomVariable is a tenant-defined formula over the fixed variable context.
type CustomVariable struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// CustomVariableResult carries the evaluated value, nil when the expression
// was rejected or failed to evaluate. One bad formula never fails the batch.
type CustomVariableResult struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}
