package entities

import "time"

// SnapshotSchemaVersion discriminates the persisted snapshot shape. Every
// future shape change bumps this and adds explicit migration code.
const SnapshotSchemaVersion = 2

type TariffGroup string

const (
	TariffGroupA TariffGroup = "A"
	TariffGroupB TariffGroup = "B"
)

type Precision string

const (
	PrecisionExact     Precision = "exact"
	PrecisionEstimated Precision = "estimated"
)

// ConsumptionPoint is one utility account/meter covered by the proposal.
// Group is always resolved server-side from the sub-group code.
type ConsumptionPoint struct {
	Ref                   string      `json:"ref"`
	UtilityCode           string      `json:"utility_code"`
	Jurisdiction          string      `json:"jurisdiction"`
	SubGroup              string      `json:"sub_group"`
	MonthlyConsumptionKWh float64     `json:"monthly_consumption_kwh"`
	Group                 TariffGroup `json:"group"`
}

// ResolveGroup derives the tariff group from the regulatory sub-group code.
// Sub-groups starting with A (A1..AS) are group A, B (B1..B4) group B.
// Anything else does not resolve and must be rejected server-side.
func ResolveGroup(subGroup string) (TariffGroup, bool) {
	if len(subGroup) == 0 {
		return "", false
	}
	switch subGroup[0] {
	case 'A', 'a':
		return TariffGroupA, true
	case 'B', 'b':
		return TariffGroupB, true
	}
	return "", false
}

type Premises struct {
	RoofType        string  `json:"roof_type"`
	Structure       string  `json:"structure"`
	Orientation     string  `json:"orientation"`
	AvailableAreaM2 float64 `json:"available_area_m2"`
}

type KitItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
}

type ServiceItem struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

type CommercialTerms struct {
	CommissionPct float64 `json:"commission_pct"`
	OtherCosts    float64 `json:"other_costs"`
	MarginPct     float64 `json:"margin_pct"`
	DiscountPct   float64 `json:"discount_pct"`
}

// FeeContext is the fully resolved regulatory context captured for audit:
// which rule set applied, which schedule version, and the first-year percent.
type FeeContext struct {
	RuleSet         string      `json:"rule_set"`
	ScheduleVersion string      `json:"schedule_version"`
	Schedule        FeeSchedule `json:"schedule"`
	FirstYearPct    float64     `json:"first_year_pct"`
}

type TaxContext struct {
	Jurisdiction string  `json:"jurisdiction"`
	ICMSPct      float64 `json:"icms_pct"`
	PISPct       float64 `json:"pis_pct"`
	COFINSPct    float64 `json:"cofins_pct"`
}

type TechnicalSummary struct {
	InstalledPowerKWp    float64 `json:"installed_power_kwp"`
	MonthlyGenerationKWh float64 `json:"monthly_generation_kwh"`
	TotalConsumptionKWh  float64 `json:"total_consumption_kwh"`
	GenerationPerKWp     float64 `json:"generation_per_kwp"`
}

// Snapshot is the immutable record persisted with a version. It is assembled
// once per successful generation and never mutated afterwards; a new
// generation always produces a new version row.
type Snapshot struct {
	SchemaVersion      int                    `json:"schema_version"`
	EngineVersion      string                 `json:"engine_version"`
	CalcHash           string                 `json:"calc_hash"`
	GeneratedAt        time.Time              `json:"generated_at"`
	TariffGroup        TariffGroup            `json:"tariff_group"`
	Precision          Precision              `json:"precision"`
	Fee                FeeContext             `json:"fee"`
	Tax                TaxContext             `json:"tax"`
	Technical          TechnicalSummary       `json:"technical"`
	ConsumptionPoints  []ConsumptionPoint     `json:"consumption_points"`
	Premises           Premises               `json:"premises"`
	KitItems           []KitItem              `json:"kit_items"`
	Services           []ServiceItem          `json:"services"`
	Commercial         CommercialTerms        `json:"commercial"`
	Notes              string                 `json:"notes,omitempty"`
	Calc               CalcResult             `json:"calc"`
	Scenarios          []ScenarioResult       `json:"scenarios"`
	CustomVariables    []CustomVariableResult `json:"custom_variables,omitempty"`
	EstimateAcceptedAt *time.Time             `json:"estimate_accepted_at,omitempty"`
	Locked             bool                   `json:"snapshot_locked"`
}

type VersionStatus string

const (
	VersionStatusCommitted VersionStatus = "committed"
)

// Version is one committed generation of a proposal. Version numbers are
// assigned by a single atomic counter scoped to the proposal; the
// idempotency key is unique per tenant.
type Version struct {
	VersionID      string
	ProposalID     string
	TenantID       string
	VersionNumber  int
	IdempotencyKey string
	CalcHash       string
	EngineVersion  string
	Status         VersionStatus
	Snapshot       Snapshot
	CreatedAt      time.Time
}

// TotalValue is the commercial total carried by the snapshot: kit plus
// services plus other costs, with margin and discount applied to the sum.
func (s Snapshot) TotalValue() float64 {
	var total float64
	for _, item := range s.KitItems {
		total += item.Quantity * item.UnitCost
	}
	for _, svc := range s.Services {
		total += svc.Cost
	}
	total += s.Commercial.OtherCosts
	total *= 1 + s.Commercial.MarginPct/100
	total *= 1 - s.Commercial.DiscountPct/100
	return total
}
