package ports

import (
	"context"
	"time"

	contractsv1 "helios/contracts/gen/events/v1"
	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

// GenerateInput is the normalized generation request. Trust-sensitive fields
// (tariff group, precision) are advisory here; the service re-derives them.
type GenerateInput struct {
	ProposalID          string
	LeadRef             string
	ProjectRef          string
	ClientRef           string
	TemplateRef         string
	TariffGroupHint     string
	InstalledPowerKWp   float64
	AvgTariff           float64
	ConsumptionPoints   []entities.ConsumptionPoint
	Premises            *entities.Premises
	KitItems            []entities.KitItem
	Services            []entities.ServiceItem
	Commercial          entities.CommercialTerms
	Scenarios           []entities.Scenario
	Notes               string
	IdempotencyKey      string
	SkipCustomVariables bool
	EstimateAccepted    bool
}

// GenerateOutput carries the identifiers and headline figures of the
// committed (or replayed) version.
type GenerateOutput struct {
	Idempotent     bool
	ProposalID     string
	VersionID      string
	VersionNumber  int
	TotalValue     float64
	PaybackMonths  int
	PaybackYears   int
	MonthlySavings float64
	NPV            float64
	IRR            float64
	EngineVersion  string
	CalcHash       string
	ScenarioCount  int
}

// PersistOutcome makes the best-effort granular fan-out observable: the
// version is durable regardless, failures list which breakdown writes were
// lost.
type PersistOutcome struct {
	VersionID            string
	DenormalizedFailures []error
}

// Directory resolves authenticated subjects to tenant profiles.
type Directory interface {
	ResolveCaller(ctx context.Context, userID string) (entities.CallerProfile, bool, error)
}

// ReferenceData serves the read-only lookups gathered before computation.
// None of them depend on each other; the service issues them in parallel.
type ReferenceData interface {
	FeeContext(ctx context.Context, tenantID string, group entities.TariffGroup) (entities.FeeContext, error)
	TaxContext(ctx context.Context, jurisdiction string) (entities.TaxContext, error)
	Irradiation(ctx context.Context, jurisdiction string) (entities.IrradiationRecord, error)
	DefaultPremises(ctx context.Context, tenantID string) (entities.Premises, bool, error)
	ConsultantByUser(ctx context.Context, userID string) (entities.Consultant, bool, error)
	ActiveTariff(ctx context.Context, utilityCode string) (entities.TariffRecord, bool, error)
	CustomVariables(ctx context.Context, tenantID string) ([]entities.CustomVariable, error)
}

// VersionRepository owns proposals, version rows and the per-proposal
// counter. NextVersionNumber must be a single indivisible operation; two
// concurrent generations for one proposal never receive the same number.
// CreateVersion must surface the tenant+key uniqueness violation as
// domainerrors.ErrIdempotencyKeyTaken so the caller can return the winner.
type VersionRepository interface {
	ProposalExists(ctx context.Context, tenantID string, proposalID string) (bool, error)
	FindVersionByKey(ctx context.Context, tenantID string, idempotencyKey string) (entities.Version, bool, error)
	NextVersionNumber(ctx context.Context, proposalID string) (int, error)
	CreateVersion(ctx context.Context, version entities.Version) error
	GetVersion(ctx context.Context, tenantID string, versionID string) (entities.Version, error)
	ListVersions(ctx context.Context, tenantID string, proposalID string) ([]entities.Version, error)
}

// GranularWriter fans the snapshot out into denormalized reporting rows.
// Every method is best-effort: a failure is collected, never fatal.
type GranularWriter interface {
	WriteConsumptionPoints(ctx context.Context, versionID string, points []entities.ConsumptionPoint) error
	WritePremises(ctx context.Context, versionID string, premises entities.Premises) error
	WriteKitItems(ctx context.Context, versionID string, items []entities.KitItem) error
	WriteServices(ctx context.Context, versionID string, services []entities.ServiceItem) error
	WriteScenarioSeries(ctx context.Context, versionID string, scenarios []entities.ScenarioResult) error
	WriteCustomVariables(ctx context.Context, versionID string, results []entities.CustomVariableResult) error
}

// AuditLog persists the server-recomputed trust-sensitive fields of every
// generation attempt. Writes are best-effort and never mask the outcome.
type AuditLog interface {
	Append(ctx context.Context, entry entities.AuditEntry) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
