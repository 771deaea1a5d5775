package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
	domainerrors "helios/contexts/proposal-core/financial-engine/domain/errors"
	"helios/contexts/proposal-core/financial-engine/domain/regulatory"
	"helios/contexts/proposal-core/financial-engine/ports"
	"helios/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// --- directory ---

func (r *Repository) ResolveCaller(ctx context.Context, userID string) (entities.CallerProfile, bool, error) {
	var row tenantUserModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CallerProfile{}, false, nil
		}
		return entities.CallerProfile{}, false, r.logError("engine_repo_resolve_caller_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return entities.CallerProfile{
		UserID:   row.UserID,
		TenantID: row.TenantID,
		Role:     row.Role,
		Status:   entities.TenantStatus(row.TenantStatus),
	}, true, nil
}

// --- reference data ---

func (r *Repository) FeeContext(ctx context.Context, tenantID string, group entities.TariffGroup) (entities.FeeContext, error) {
	var row feeScheduleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("tariff_group = ?", string(group)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return regulatory.DefaultFeeContext(group), nil
		}
		return entities.FeeContext{}, r.logError("engine_repo_fee_context_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
			"tariff_group", string(group),
		)
	}
	var fee entities.FeeContext
	if err := json.Unmarshal(row.Payload, &fee); err != nil {
		// A corrupt override never blocks generation; the statutory schedule applies.
		r.logger.Warn("tenant fee schedule payload is malformed, using statutory schedule",
			"event", "engine_repo_fee_context_malformed",
			"module", "proposal-core/financial-engine",
			"layer", "adapter",
			"tenant_id", strings.TrimSpace(tenantID),
			"error", err.Error(),
		)
		return regulatory.DefaultFeeContext(group), nil
	}
	return fee, nil
}

func (r *Repository) TaxContext(ctx context.Context, jurisdiction string) (entities.TaxContext, error) {
	var row taxContextModel
	err := r.db.WithContext(ctx).
		Where("jurisdiction = ?", strings.TrimSpace(jurisdiction)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TaxContext{Jurisdiction: strings.TrimSpace(jurisdiction)}, nil
		}
		return entities.TaxContext{}, r.logError("engine_repo_tax_context_failed", err,
			"jurisdiction", strings.TrimSpace(jurisdiction),
		)
	}
	return entities.TaxContext{
		Jurisdiction: row.Jurisdiction,
		ICMSPct:      row.ICMSPct,
		PISPct:       row.PISPct,
		COFINSPct:    row.COFINSPct,
	}, nil
}

func (r *Repository) Irradiation(ctx context.Context, jurisdiction string) (entities.IrradiationRecord, error) {
	var row irradiationModel
	err := r.db.WithContext(ctx).
		Where("jurisdiction = ?", strings.TrimSpace(jurisdiction)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// National average yield applies where no station data exists.
			return entities.IrradiationRecord{
				Jurisdiction:     strings.TrimSpace(jurisdiction),
				MonthlyKWhPerKWp: 115,
			}, nil
		}
		return entities.IrradiationRecord{}, r.logError("engine_repo_irradiation_failed", err,
			"jurisdiction", strings.TrimSpace(jurisdiction),
		)
	}
	return entities.IrradiationRecord{
		Jurisdiction:        row.Jurisdiction,
		MonthlyKWhPerKWp:    row.MonthlyKWhPerKWp,
		ReferenceStationRef: row.StationRef,
	}, nil
}

func (r *Repository) DefaultPremises(ctx context.Context, tenantID string) (entities.Premises, bool, error) {
	var row defaultPremisesModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Premises{}, false, nil
		}
		return entities.Premises{}, false, r.logError("engine_repo_default_premises_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
		)
	}
	return entities.Premises{
		RoofType:        row.RoofType,
		Structure:       row.Structure,
		Orientation:     row.Orientation,
		AvailableAreaM2: row.AvailableAreaM2,
	}, true, nil
}

func (r *Repository) ConsultantByUser(ctx context.Context, userID string) (entities.Consultant, bool, error) {
	var row consultantModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Consultant{}, false, nil
		}
		return entities.Consultant{}, false, r.logError("engine_repo_consultant_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return entities.Consultant{
		ConsultantID: row.ID,
		UserID:       row.UserID,
		Name:         row.Name,
		Email:        row.Email,
	}, true, nil
}

func (r *Repository) ActiveTariff(ctx context.Context, utilityCode string) (entities.TariffRecord, bool, error) {
	var row tariffModel
	err := r.db.WithContext(ctx).
		Where("utility_code = ?", strings.TrimSpace(utilityCode)).
		Where("active = ?", true).
		Order("valid_from DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TariffRecord{}, false, nil
		}
		return entities.TariffRecord{}, false, r.logError("engine_repo_active_tariff_failed", err,
			"utility_code", strings.TrimSpace(utilityCode),
		)
	}
	return entities.TariffRecord{
		UtilityCode:  row.UtilityCode,
		Group:        entities.TariffGroup(row.TariffGroup),
		EnergyTariff: row.EnergyTariff,
		FioBTariff:   row.FioBTariff,
		ValidFrom:    row.ValidFrom.UTC(),
		Active:       row.Active,
	}, true, nil
}

func (r *Repository) CustomVariables(ctx context.Context, tenantID string) ([]entities.CustomVariable, error) {
	var rows []customVariableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_custom_variables_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
		)
	}
	items := make([]entities.CustomVariable, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.CustomVariable{
			Name:       row.Name,
			Expression: row.Expression,
		})
	}
	return items, nil
}

// --- version repository ---

func (r *Repository) ProposalExists(ctx context.Context, tenantID string, proposalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&proposalProjectionModel{}).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("engine_repo_proposal_exists_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	return count > 0, nil
}

func (r *Repository) FindVersionByKey(ctx context.Context, tenantID string, idempotencyKey string) (entities.Version, bool, error) {
	var row versionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("idempotency_key = ?", strings.TrimSpace(idempotencyKey)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Version{}, false, nil
		}
		return entities.Version{}, false, r.logError("engine_repo_find_version_by_key_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
		)
	}
	version, err := row.toEntity()
	if err != nil {
		return entities.Version{}, false, r.logError("engine_repo_find_version_by_key_decode_failed", err,
			"version_id", row.ID,
		)
	}
	return version, true, nil
}

// NextVersionNumber bumps the per-proposal counter in one statement, so
// concurrent generations for the same proposal never share a number.
func (r *Repository) NextVersionNumber(ctx context.Context, proposalID string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO proposal_version_counters (proposal_id, last_number)
		VALUES (?, 1)
		ON CONFLICT (proposal_id)
		DO UPDATE SET last_number = proposal_version_counters.last_number + 1
		RETURNING last_number`,
		strings.TrimSpace(proposalID),
	).Scan(&next).Error
	if err != nil {
		return 0, r.logError("engine_repo_next_version_number_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	return next, nil
}

func (r *Repository) CreateVersion(ctx context.Context, version entities.Version) error {
	row, err := versionModelFromEntity(version)
	if err != nil {
		return r.logError("engine_repo_create_version_encode_failed", err,
			"version_id", strings.TrimSpace(version.VersionID),
		)
	}
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrIdempotencyKeyTaken
		}
		return r.logError("engine_repo_create_version_failed", create.Error,
			"version_id", row.ID,
			"proposal_id", row.ProposalID,
		)
	}
	return nil
}

func (r *Repository) GetVersion(ctx context.Context, tenantID string, versionID string) (entities.Version, error) {
	var row versionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(versionID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Version{}, domainerrors.ErrVersionNotFound
		}
		return entities.Version{}, r.logError("engine_repo_get_version_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	version, err := row.toEntity()
	if err != nil {
		return entities.Version{}, r.logError("engine_repo_get_version_decode_failed", err,
			"version_id", row.ID,
		)
	}
	return version, nil
}

func (r *Repository) ListVersions(ctx context.Context, tenantID string, proposalID string) ([]entities.Version, error) {
	var rows []versionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_versions_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	items := make([]entities.Version, 0, len(rows))
	for _, row := range rows {
		version, err := row.toEntity()
		if err != nil {
			return nil, r.logError("engine_repo_list_versions_decode_failed", err,
				"version_id", row.ID,
			)
		}
		items = append(items, version)
	}
	return items, nil
}

// --- granular writer ---

func (r *Repository) WriteConsumptionPoints(ctx context.Context, versionID string, points []entities.ConsumptionPoint) error {
	rows := make([]consumptionPointRowModel, 0, len(points))
	for i, point := range points {
		rows = append(rows, consumptionPointRowModel{
			ID:                    uuid.NewString(),
			VersionID:             strings.TrimSpace(versionID),
			Position:              i,
			Ref:                   strings.TrimSpace(point.Ref),
			UtilityCode:           strings.TrimSpace(point.UtilityCode),
			Jurisdiction:          strings.TrimSpace(point.Jurisdiction),
			SubGroup:              strings.TrimSpace(point.SubGroup),
			TariffGroup:           string(point.Group),
			MonthlyConsumptionKWh: point.MonthlyConsumptionKWh,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("engine_repo_write_consumption_points_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

func (r *Repository) WritePremises(ctx context.Context, versionID string, premises entities.Premises) error {
	row := premisesRowModel{
		VersionID:       strings.TrimSpace(versionID),
		RoofType:        strings.TrimSpace(premises.RoofType),
		Structure:       strings.TrimSpace(premises.Structure),
		Orientation:     strings.TrimSpace(premises.Orientation),
		AvailableAreaM2: premises.AvailableAreaM2,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return r.logError("engine_repo_write_premises_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

func (r *Repository) WriteKitItems(ctx context.Context, versionID string, items []entities.KitItem) error {
	rows := make([]kitItemRowModel, 0, len(items))
	for i, item := range items {
		rows = append(rows, kitItemRowModel{
			ID:          uuid.NewString(),
			VersionID:   strings.TrimSpace(versionID),
			Position:    i,
			Description: strings.TrimSpace(item.Description),
			Category:    strings.TrimSpace(item.Category),
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("engine_repo_write_kit_items_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

func (r *Repository) WriteServices(ctx context.Context, versionID string, services []entities.ServiceItem) error {
	rows := make([]serviceItemRowModel, 0, len(services))
	for i, svc := range services {
		rows = append(rows, serviceItemRowModel{
			ID:          uuid.NewString(),
			VersionID:   strings.TrimSpace(versionID),
			Position:    i,
			Description: strings.TrimSpace(svc.Description),
			Cost:        svc.Cost,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("engine_repo_write_services_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

func (r *Repository) WriteScenarioSeries(ctx context.Context, versionID string, scenarios []entities.ScenarioResult) error {
	rows := make([]scenarioRowModel, 0, len(scenarios))
	for i, scenario := range scenarios {
		payload, err := json.Marshal(scenario)
		if err != nil {
			return r.logError("engine_repo_write_scenario_encode_failed", err,
				"version_id", strings.TrimSpace(versionID),
			)
		}
		rows = append(rows, scenarioRowModel{
			ID:                 uuid.NewString(),
			VersionID:          strings.TrimSpace(versionID),
			Position:           i,
			ScenarioType:       string(scenario.Scenario.Type),
			EffectiveAnnualPct: scenario.EffectiveAnnualPct,
			PaybackMonths:      scenario.PaybackMonths,
			Payload:            payload,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("engine_repo_write_scenarios_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

func (r *Repository) WriteCustomVariables(ctx context.Context, versionID string, results []entities.CustomVariableResult) error {
	rows := make([]customVariableRowModel, 0, len(results))
	for _, result := range results {
		rows = append(rows, customVariableRowModel{
			ID:        uuid.NewString(),
			VersionID: strings.TrimSpace(versionID),
			Name:      strings.TrimSpace(result.Name),
			Value:     result.Value,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("engine_repo_write_custom_variables_failed", err,
			"version_id", strings.TrimSpace(versionID),
		)
	}
	return nil
}

// --- audit log ---

func (r *Repository) Append(ctx context.Context, entry entities.AuditEntry) error {
	row := auditModel{
		ID:                 strings.TrimSpace(entry.EntryID),
		TenantID:           strings.TrimSpace(entry.TenantID),
		ProposalID:         strings.TrimSpace(entry.ProposalID),
		Outcome:            strings.TrimSpace(entry.Outcome),
		RejectReason:       strings.TrimSpace(entry.RejectReason),
		Precision:          string(entry.Precision),
		FeeRuleSet:         strings.TrimSpace(entry.FeeRuleSet),
		FeeScheduleVersion: strings.TrimSpace(entry.FeeScheduleVersion),
		FirstYearFeePct:    entry.FirstYearFeePct,
		TariffUtility:      strings.TrimSpace(entry.TariffUtility),
		TariffValidFrom:    entry.TariffValidFrom.UTC(),
		EstimateAcceptedAt: normalizeOptionalTime(entry.EstimateAcceptedAt),
		CreatedAt:          entry.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("engine_repo_append_audit_failed", err,
			"proposal_id", row.ProposalID,
			"outcome", row.Outcome,
		)
	}
	return nil
}

// --- outbox ---

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("engine_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("engine_repo_mark_outbox_sent_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVersionNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "proposal-core/financial-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("financial engine repository operation failed", fields...)
	return err
}

// --- models ---

type versionModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	ProposalID     string    `gorm:"column:proposal_id"`
	TenantID       string    `gorm:"column:tenant_id"`
	VersionNumber  int       `gorm:"column:version_number"`
	IdempotencyKey string    `gorm:"column:idempotency_key"`
	CalcHash       string    `gorm:"column:calc_hash"`
	EngineVersion  string    `gorm:"column:engine_version"`
	Status         string    `gorm:"column:status"`
	Snapshot       []byte    `gorm:"column:snapshot"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (versionModel) TableName() string {
	return "proposal_versions"
}

func versionModelFromEntity(version entities.Version) (versionModel, error) {
	snapshot, err := json.Marshal(version.Snapshot)
	if err != nil {
		return versionModel{}, err
	}
	row := versionModel{
		ID:             strings.TrimSpace(version.VersionID),
		ProposalID:     strings.TrimSpace(version.ProposalID),
		TenantID:       strings.TrimSpace(version.TenantID),
		VersionNumber:  version.VersionNumber,
		IdempotencyKey: strings.TrimSpace(version.IdempotencyKey),
		CalcHash:       strings.TrimSpace(version.CalcHash),
		EngineVersion:  strings.TrimSpace(version.EngineVersion),
		Status:         string(version.Status),
		Snapshot:       snapshot,
		CreatedAt:      version.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row, nil
}

func (m versionModel) toEntity() (entities.Version, error) {
	var snapshot entities.Snapshot
	if err := json.Unmarshal(m.Snapshot, &snapshot); err != nil {
		return entities.Version{}, err
	}
	return entities.Version{
		VersionID:      m.ID,
		ProposalID:     m.ProposalID,
		TenantID:       m.TenantID,
		VersionNumber:  m.VersionNumber,
		IdempotencyKey: m.IdempotencyKey,
		CalcHash:       m.CalcHash,
		EngineVersion:  m.EngineVersion,
		Status:         entities.VersionStatus(m.Status),
		Snapshot:       snapshot,
		CreatedAt:      m.CreatedAt.UTC(),
	}, nil
}

type proposalProjectionModel struct {
	ProposalID string `gorm:"column:proposal_id;primaryKey"`
	TenantID   string `gorm:"column:tenant_id"`
	Status     string `gorm:"column:status"`
}

func (proposalProjectionModel) TableName() string {
	return "proposals"
}

type tenantUserModel struct {
	UserID       string `gorm:"column:user_id;primaryKey"`
	TenantID     string `gorm:"column:tenant_id"`
	Role         string `gorm:"column:role"`
	TenantStatus string `gorm:"column:tenant_status"`
}

func (tenantUserModel) TableName() string {
	return "tenant_users"
}

type feeScheduleModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id"`
	TariffGroup string    `gorm:"column:tariff_group"`
	Payload     []byte    `gorm:"column:payload"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (feeScheduleModel) TableName() string {
	return "tenant_fee_schedules"
}

type taxContextModel struct {
	Jurisdiction string  `gorm:"column:jurisdiction;primaryKey"`
	ICMSPct      float64 `gorm:"column:icms_pct"`
	PISPct       float64 `gorm:"column:pis_pct"`
	COFINSPct    float64 `gorm:"column:cofins_pct"`
}

func (taxContextModel) TableName() string {
	return "tax_contexts"
}

type irradiationModel struct {
	Jurisdiction     string  `gorm:"column:jurisdiction;primaryKey"`
	MonthlyKWhPerKWp float64 `gorm:"column:monthly_kwh_per_kwp"`
	StationRef       string  `gorm:"column:station_ref"`
}

func (irradiationModel) TableName() string {
	return "irradiation_records"
}

type defaultPremisesModel struct {
	TenantID        string  `gorm:"column:tenant_id;primaryKey"`
	RoofType        string  `gorm:"column:roof_type"`
	Structure       string  `gorm:"column:structure"`
	Orientation     string  `gorm:"column:orientation"`
	AvailableAreaM2 float64 `gorm:"column:available_area_m2"`
}

func (defaultPremisesModel) TableName() string {
	return "tenant_default_premises"
}

type consultantModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	UserID string `gorm:"column:user_id"`
	Name   string `gorm:"column:name"`
	Email  string `gorm:"column:email"`
}

func (consultantModel) TableName() string {
	return "consultants"
}

type tariffModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	UtilityCode  string    `gorm:"column:utility_code"`
	TariffGroup  string    `gorm:"column:tariff_group"`
	EnergyTariff float64   `gorm:"column:energy_tariff"`
	FioBTariff   float64   `gorm:"column:fio_b_tariff"`
	ValidFrom    time.Time `gorm:"column:valid_from"`
	Active       bool      `gorm:"column:active"`
}

func (tariffModel) TableName() string {
	return "utility_tariffs"
}

type customVariableModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	TenantID   string `gorm:"column:tenant_id"`
	Name       string `gorm:"column:name"`
	Expression string `gorm:"column:expression"`
}

func (customVariableModel) TableName() string {
	return "tenant_custom_variables"
}

type consumptionPointRowModel struct {
	ID                    string  `gorm:"column:id;primaryKey"`
	VersionID             string  `gorm:"column:version_id"`
	Position              int     `gorm:"column:position"`
	Ref                   string  `gorm:"column:ref"`
	UtilityCode           string  `gorm:"column:utility_code"`
	Jurisdiction          string  `gorm:"column:jurisdiction"`
	SubGroup              string  `gorm:"column:sub_group"`
	TariffGroup           string  `gorm:"column:tariff_group"`
	MonthlyConsumptionKWh float64 `gorm:"column:monthly_consumption_kwh"`
}

func (consumptionPointRowModel) TableName() string {
	return "version_consumption_points"
}

type premisesRowModel struct {
	VersionID       string  `gorm:"column:version_id;primaryKey"`
	RoofType        string  `gorm:"column:roof_type"`
	Structure       string  `gorm:"column:structure"`
	Orientation     string  `gorm:"column:orientation"`
	AvailableAreaM2 float64 `gorm:"column:available_area_m2"`
}

func (premisesRowModel) TableName() string {
	return "version_premises"
}

type kitItemRowModel struct {
	ID          string  `gorm:"column:id;primaryKey"`
	VersionID   string  `gorm:"column:version_id"`
	Position    int     `gorm:"column:position"`
	Description string  `gorm:"column:description"`
	Category    string  `gorm:"column:category"`
	Quantity    float64 `gorm:"column:quantity"`
	UnitCost    float64 `gorm:"column:unit_cost"`
}

func (kitItemRowModel) TableName() string {
	return "version_kit_items"
}

type serviceItemRowModel struct {
	ID          string  `gorm:"column:id;primaryKey"`
	VersionID   string  `gorm:"column:version_id"`
	Position    int     `gorm:"column:position"`
	Description string  `gorm:"column:description"`
	Cost        float64 `gorm:"column:cost"`
}

func (serviceItemRowModel) TableName() string {
	return "version_services"
}

type scenarioRowModel struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	VersionID          string  `gorm:"column:version_id"`
	Position           int     `gorm:"column:position"`
	ScenarioType       string  `gorm:"column:scenario_type"`
	EffectiveAnnualPct float64 `gorm:"column:effective_annual_pct"`
	PaybackMonths      int     `gorm:"column:payback_months"`
	Payload            []byte  `gorm:"column:payload"`
}

func (scenarioRowModel) TableName() string {
	return "version_scenario_series"
}

type customVariableRowModel struct {
	ID        string   `gorm:"column:id;primaryKey"`
	VersionID string   `gorm:"column:version_id"`
	Name      string   `gorm:"column:name"`
	Value     *float64 `gorm:"column:value"`
}

func (customVariableRowModel) TableName() string {
	return "version_custom_variables"
}

type auditModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	TenantID           string     `gorm:"column:tenant_id"`
	ProposalID         string     `gorm:"column:proposal_id"`
	Outcome            string     `gorm:"column:outcome"`
	RejectReason       string     `gorm:"column:reject_reason"`
	Precision          string     `gorm:"column:precision"`
	FeeRuleSet         string     `gorm:"column:fee_rule_set"`
	FeeScheduleVersion string     `gorm:"column:fee_schedule_version"`
	FirstYearFeePct    float64    `gorm:"column:first_year_fee_pct"`
	TariffUtility      string     `gorm:"column:tariff_utility"`
	TariffValidFrom    time.Time  `gorm:"column:tariff_valid_from"`
	EstimateAcceptedAt *time.Time `gorm:"column:estimate_accepted_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "proposal_generation_audit"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "proposal_engine_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Directory = (*Repository)(nil)
var _ ports.ReferenceData = (*Repository)(nil)
var _ ports.VersionRepository = (*Repository)(nil)
var _ ports.GranularWriter = (*Repository)(nil)
var _ ports.AuditLog = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
