package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
	domainerrors "helios/contexts/proposal-core/financial-engine/domain/errors"
	"helios/contexts/proposal-core/financial-engine/domain/regulatory"
	"helios/contexts/proposal-core/financial-engine/ports"
	"helios/internal/shared/outbox"
)

// Store backs every port of the financial engine in memory. Tests and local
// runs wire the module against it; seed helpers stand in for the platform
// backend's reference data.
type Store struct {
	mu sync.Mutex

	callers     map[string]entities.CallerProfile
	proposals   map[string]bool
	versions    map[string]entities.Version
	versionKeys map[string]string
	counters    map[string]int

	feeOverrides    map[string]entities.FeeContext
	taxes           map[string]entities.TaxContext
	irradiation     map[string]entities.IrradiationRecord
	defaultPremises map[string]entities.Premises
	consultants     map[string]entities.Consultant
	tariffs         map[string]entities.TariffRecord
	customVars      map[string][]entities.CustomVariable

	granularPoints    map[string][]entities.ConsumptionPoint
	granularPremises  map[string]entities.Premises
	granularKit       map[string][]entities.KitItem
	granularServices  map[string][]entities.ServiceItem
	granularScenarios map[string][]entities.ScenarioResult
	granularVariables map[string][]entities.CustomVariableResult

	auditEntries []entities.AuditEntry
	outbox       map[string]outboxRecord

	// FailWrites forces granular write failures by target name, so tests can
	// assert the best-effort semantics.
	FailWrites map[string]bool

	now func() time.Time
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

func NewStore() *Store {
	return &Store{
		callers:           make(map[string]entities.CallerProfile),
		proposals:         make(map[string]bool),
		versions:          make(map[string]entities.Version),
		versionKeys:       make(map[string]string),
		counters:          make(map[string]int),
		feeOverrides:      make(map[string]entities.FeeContext),
		taxes:             make(map[string]entities.TaxContext),
		irradiation:       make(map[string]entities.IrradiationRecord),
		defaultPremises:   make(map[string]entities.Premises),
		consultants:       make(map[string]entities.Consultant),
		tariffs:           make(map[string]entities.TariffRecord),
		customVars:        make(map[string][]entities.CustomVariable),
		granularPoints:    make(map[string][]entities.ConsumptionPoint),
		granularPremises:  make(map[string]entities.Premises),
		granularKit:       make(map[string][]entities.KitItem),
		granularServices:  make(map[string][]entities.ServiceItem),
		granularScenarios: make(map[string][]entities.ScenarioResult),
		granularVariables: make(map[string][]entities.CustomVariableResult),
		outbox:            make(map[string]outboxRecord),
		FailWrites:        make(map[string]bool),
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// --- seed helpers ---

func (s *Store) SeedCaller(profile entities.CallerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callers[profile.UserID] = profile
}

func (s *Store) SeedProposal(tenantID string, proposalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[tenantID+"/"+proposalID] = true
}

func (s *Store) SeedTariff(record entities.TariffRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tariffs[record.UtilityCode] = record
}

func (s *Store) SeedIrradiation(record entities.IrradiationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.irradiation[record.Jurisdiction] = record
}

func (s *Store) SeedFeeContext(tenantID string, group entities.TariffGroup, fee entities.FeeContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeOverrides[tenantID+"/"+string(group)] = fee
}

func (s *Store) SeedDefaultPremises(tenantID string, premises entities.Premises) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultPremises[tenantID] = premises
}

func (s *Store) SeedConsultant(consultant entities.Consultant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consultants[consultant.UserID] = consultant
}

func (s *Store) SeedCustomVariables(tenantID string, variables []entities.CustomVariable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customVars[tenantID] = variables
}

func (s *Store) SetNow(fixed time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = func() time.Time { return fixed.UTC() }
}

// --- ports.Directory ---

func (s *Store) ResolveCaller(_ context.Context, userID string) (entities.CallerProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, found := s.callers[strings.TrimSpace(userID)]
	return profile, found, nil
}

// --- ports.ReferenceData ---

func (s *Store) FeeContext(_ context.Context, tenantID string, group entities.TariffGroup) (entities.FeeContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fee, found := s.feeOverrides[tenantID+"/"+string(group)]; found {
		return fee, nil
	}
	return regulatory.DefaultFeeContext(group), nil
}

func (s *Store) TaxContext(_ context.Context, jurisdiction string) (entities.TaxContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tax, found := s.taxes[jurisdiction]; found {
		return tax, nil
	}
	return entities.TaxContext{
		Jurisdiction: jurisdiction,
		ICMSPct:      18,
		PISPct:       1.65,
		COFINSPct:    7.6,
	}, nil
}

func (s *Store) Irradiation(_ context.Context, jurisdiction string) (entities.IrradiationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, found := s.irradiation[jurisdiction]; found {
		return record, nil
	}
	return entities.IrradiationRecord{
		Jurisdiction:     jurisdiction,
		MonthlyKWhPerKWp: 115,
	}, nil
}

func (s *Store) DefaultPremises(_ context.Context, tenantID string) (entities.Premises, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	premises, found := s.defaultPremises[tenantID]
	return premises, found, nil
}

func (s *Store) ConsultantByUser(_ context.Context, userID string) (entities.Consultant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	consultant, found := s.consultants[strings.TrimSpace(userID)]
	return consultant, found, nil
}

func (s *Store) ActiveTariff(_ context.Context, utilityCode string) (entities.TariffRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.tariffs[strings.TrimSpace(utilityCode)]
	if !found || !record.Active {
		return entities.TariffRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) CustomVariables(_ context.Context, tenantID string) ([]entities.CustomVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.CustomVariable(nil), s.customVars[tenantID]...), nil
}

// --- ports.VersionRepository ---

func (s *Store) ProposalExists(_ context.Context, tenantID string, proposalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposals[tenantID+"/"+proposalID], nil
}

func (s *Store) FindVersionByKey(_ context.Context, tenantID string, idempotencyKey string) (entities.Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versionID, found := s.versionKeys[tenantID+"/"+idempotencyKey]
	if !found {
		return entities.Version{}, false, nil
	}
	return s.versions[versionID], true, nil
}

// NextVersionNumber increments the per-proposal counter under the store
// lock, matching the single indivisible operation the contract requires.
func (s *Store) NextVersionNumber(_ context.Context, proposalID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[proposalID]++
	return s.counters[proposalID], nil
}

func (s *Store) CreateVersion(_ context.Context, version entities.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keyIndex := version.TenantID + "/" + version.IdempotencyKey
	if _, exists := s.versionKeys[keyIndex]; exists {
		return domainerrors.ErrIdempotencyKeyTaken
	}
	s.versions[version.VersionID] = version
	s.versionKeys[keyIndex] = version.VersionID
	return nil
}

func (s *Store) GetVersion(_ context.Context, tenantID string, versionID string) (entities.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	version, found := s.versions[versionID]
	if !found || version.TenantID != tenantID {
		return entities.Version{}, domainerrors.ErrVersionNotFound
	}
	return version, nil
}

func (s *Store) ListVersions(_ context.Context, tenantID string, proposalID string) ([]entities.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var versions []entities.Version
	for _, version := range s.versions {
		if version.TenantID == tenantID && version.ProposalID == proposalID {
			versions = append(versions, version)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})
	return versions, nil
}

// --- ports.GranularWriter ---

func (s *Store) WriteConsumptionPoints(_ context.Context, versionID string, points []entities.ConsumptionPoint) error {
	if err := s.failWrite("consumption_points"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularPoints[versionID] = points
	return nil
}

func (s *Store) WritePremises(_ context.Context, versionID string, premises entities.Premises) error {
	if err := s.failWrite("premises"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularPremises[versionID] = premises
	return nil
}

func (s *Store) WriteKitItems(_ context.Context, versionID string, items []entities.KitItem) error {
	if err := s.failWrite("kit_items"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularKit[versionID] = items
	return nil
}

func (s *Store) WriteServices(_ context.Context, versionID string, services []entities.ServiceItem) error {
	if err := s.failWrite("services"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularServices[versionID] = services
	return nil
}

func (s *Store) WriteScenarioSeries(_ context.Context, versionID string, scenarios []entities.ScenarioResult) error {
	if err := s.failWrite("scenario_series"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularScenarios[versionID] = scenarios
	return nil
}

func (s *Store) WriteCustomVariables(_ context.Context, versionID string, results []entities.CustomVariableResult) error {
	if err := s.failWrite("custom_variables"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granularVariables[versionID] = results
	return nil
}

func (s *Store) failWrite(target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites[target] {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

// GranularScenarios exposes the persisted scenario rows for assertions.
func (s *Store) GranularScenarios(versionID string) []entities.ScenarioResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granularScenarios[versionID]
}

func (s *Store) GranularKitItems(versionID string) []entities.KitItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granularKit[versionID]
}

// --- ports.AuditLog ---

func (s *Store) Append(_ context.Context, entry entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func (s *Store) AuditEntries() []entities.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.AuditEntry(nil), s.auditEntries...)
}

// --- ports.OutboxWriter / ports.OutboxRepository ---

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := uuid.NewString()
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    s.now(),
		},
		Status: outbox.StatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []ports.OutboxMessage
	for _, record := range s.outbox {
		if record.Status == outbox.StatusPending {
			pending = append(pending, record.Message)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.outbox[outboxID]
	if !found {
		return domainerrors.ErrVersionNotFound
	}
	record.Status = outbox.StatusSent
	record.SentAt = &sentAt
	s.outbox[outboxID] = record
	return nil
}

// --- ports.Clock / ports.IDGenerator ---

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.Directory         = (*Store)(nil)
	_ ports.ReferenceData     = (*Store)(nil)
	_ ports.VersionRepository = (*Store)(nil)
	_ ports.GranularWriter    = (*Store)(nil)
	_ ports.AuditLog          = (*Store)(nil)
	_ ports.OutboxWriter      = (*Store)(nil)
	_ ports.OutboxRepository  = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
)
