package entities

import "time"

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// CallerProfile maps an authenticated subject to a tenant and role.
type CallerProfile struct {
	UserID   string
	TenantID string
	Role     string
	Status   TenantStatus
}

// GenerateRoles are the roles allowed to commit proposal versions.
var GenerateRoles = map[string]bool{
	"owner":      true,
	"admin":      true,
	"consultant": true,
	"sales":      true,
}

type Consultant struct {
	ConsultantID string
	UserID       string
	Name         string
	Email        string
}

// TariffRecord is the currently active tariff for one utility. Computation
// precision is derived from it: a real Fio B component means exact, anything
// else is an estimate the caller must explicitly accept.
type TariffRecord struct {
	UtilityCode  string
	Group        TariffGroup
	EnergyTariff float64
	FioBTariff   float64
	ValidFrom    time.Time
	Active       bool
}

func (t TariffRecord) HasFioBComponent() bool {
	return t.FioBTariff > 0
}

// IrradiationRecord is the average generation yield for a jurisdiction,
// expressed as monthly kWh per installed kWp.
type IrradiationRecord struct {
	Jurisdiction        string
	MonthlyKWhPerKWp    float64
	ReferenceStationRef string
}

// AuditEntry records the server-recomputed trust-sensitive fields of one
// generation attempt, accepted or rejected. Writes are best-effort.
type AuditEntry struct {
	EntryID            string
	TenantID           string
	ProposalID         string
	Outcome            string
	RejectReason       string
	Precision          Precision
	FeeRuleSet         string
	FeeScheduleVersion string
	FirstYearFeePct    float64
	TariffUtility      string
	TariffValidFrom    time.Time
	EstimateAcceptedAt *time.Time
	CreatedAt          time.Time
}
