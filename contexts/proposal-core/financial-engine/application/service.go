package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"helios/contexts/proposal-core/financial-engine/domain/calc"
	"helios/contexts/proposal-core/financial-engine/domain/entities"
	domainerrors "helios/contexts/proposal-core/financial-engine/domain/errors"
	"helios/contexts/proposal-core/financial-engine/domain/expr"
	"helios/contexts/proposal-core/financial-engine/ports"
	"helios/internal/shared/events"
)

// EngineVersion stamps every snapshot so a persisted projection can always
// be traced to the code that produced it.
const EngineVersion = "helios-engine/2.1.0"

const moduleName = "proposal-core/financial-engine"

// EconomicAssumptions are the long-horizon parameters of the projection.
// They are constructed at startup and injected; pure components never read
// ambient configuration.
type EconomicAssumptions struct {
	EnergyInflationRate float64
	EfficiencyLossRate  float64
	ReplacementYear     int
	ReplacementCostPct  float64
	DiscountRate        float64
}

type Service struct {
	Directory ports.Directory
	RefData   ports.ReferenceData
	Versions  ports.VersionRepository
	Granular  ports.GranularWriter
	Audit     ports.AuditLog
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Economics EconomicAssumptions
	Logger    *slog.Logger
}

// gatheredContext collects the independent backend lookups awaited jointly
// before computation starts.
type gatheredContext struct {
	fee         entities.FeeContext
	tax         entities.TaxContext
	irradiation entities.IrradiationRecord
	premises    entities.Premises
	hasPremises bool
	consultant  entities.Consultant
	tariff      entities.TariffRecord
	hasTariff   bool
	variables   []entities.CustomVariable
}

// Generate runs the full pipeline for one generation request:
// resolve tenant and role, replay on a known idempotency key, gather
// reference context, enforce the server-side invariants, compute, commit the
// immutable version atomically, fan out the granular breakdown best-effort
// and leave an audit trail.
func (s Service) Generate(ctx context.Context, userID string, input ports.GenerateInput) (ports.GenerateOutput, error) {
	logger := ResolveLogger(s.Logger)

	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return ports.GenerateOutput{}, err
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyKey == "" {
		return ports.GenerateOutput{}, domainerrors.ErrIdempotencyKeyMissing
	}
	proposalID := strings.TrimSpace(input.ProposalID)
	exists, err := s.Versions.ProposalExists(ctx, caller.TenantID, proposalID)
	if err != nil {
		return ports.GenerateOutput{}, err
	}
	if !exists {
		return ports.GenerateOutput{}, domainerrors.ErrProposalNotFound
	}

	// Idempotency short-circuit: a second request with a known key returns
	// the first version's identifiers without recomputation.
	if existing, found, err := s.Versions.FindVersionByKey(ctx, caller.TenantID, idempotencyKey); err != nil {
		return ports.GenerateOutput{}, err
	} else if found {
		return s.outputFromVersion(existing, true), nil
	}

	group, groupErr := resolveGroups(input.ConsumptionPoints)

	gathered, err := s.gatherContext(ctx, caller, group, input)
	if err != nil {
		return ports.GenerateOutput{}, err
	}

	if err := s.enforceInvariants(ctx, caller, input, groupErr, gathered); err != nil {
		return ports.GenerateOutput{}, err
	}

	version, err := s.compute(ctx, caller, input, group, gathered)
	if err != nil {
		return ports.GenerateOutput{}, err
	}

	committed, idempotent, err := s.persistVersion(ctx, caller, version)
	if err != nil {
		return ports.GenerateOutput{}, err
	}
	if !idempotent {
		s.appendGeneratedOutbox(ctx, committed)
		outcome := s.persistGranular(ctx, committed)
		if len(outcome.DenormalizedFailures) > 0 {
			logger.Warn("granular persistence partially failed",
				"event", "proposal_granular_partial_failure",
				"module", moduleName,
				"layer", "application",
				"version_id", committed.VersionID,
				"failed_writes", len(outcome.DenormalizedFailures),
			)
		}
		s.appendAudit(ctx, caller, input, committed.Snapshot, gathered, "committed", "")

		logger.Info("proposal version generated",
			"event", "proposal_version_generated",
			"module", moduleName,
			"layer", "application",
			"tenant_id", caller.TenantID,
			"proposal_id", committed.ProposalID,
			"version_id", committed.VersionID,
			"version_number", committed.VersionNumber,
			"calc_hash", committed.CalcHash,
		)
	}
	return s.outputFromVersion(committed, idempotent), nil
}

func (s Service) GetVersion(ctx context.Context, userID string, versionID string) (entities.Version, error) {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return entities.Version{}, err
	}
	return s.Versions.GetVersion(ctx, caller.TenantID, strings.TrimSpace(versionID))
}

func (s Service) ListVersions(ctx context.Context, userID string, proposalID string) ([]entities.Version, error) {
	caller, err := s.resolveCaller(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Versions.ListVersions(ctx, caller.TenantID, strings.TrimSpace(proposalID))
}

func (s Service) resolveCaller(ctx context.Context, userID string) (entities.CallerProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.CallerProfile{}, domainerrors.ErrUnauthorized
	}
	caller, found, err := s.Directory.ResolveCaller(ctx, userID)
	if err != nil {
		return entities.CallerProfile{}, err
	}
	if !found || caller.Status != entities.TenantStatusActive || !entities.GenerateRoles[caller.Role] {
		return entities.CallerProfile{}, domainerrors.ErrForbidden
	}
	return caller, nil
}

// resolveGroups derives the tariff group of every consumption point from its
// sub-group code. Caller-supplied group hints are never consulted.
func resolveGroups(points []entities.ConsumptionPoint) (entities.TariffGroup, error) {
	var group entities.TariffGroup
	for _, point := range points {
		resolved, ok := entities.ResolveGroup(point.SubGroup)
		if !ok {
			return "", domainerrors.ErrUndefinedGroup
		}
		if group != "" && resolved != group {
			return "", domainerrors.ErrMixedGroups
		}
		group = resolved
	}
	if group == "" {
		return "", domainerrors.ErrUndefinedGroup
	}
	return group, nil
}

func (s Service) gatherContext(
	ctx context.Context,
	caller entities.CallerProfile,
	group entities.TariffGroup,
	input ports.GenerateInput,
) (gatheredContext, error) {
	var gathered gatheredContext

	jurisdiction, utility := "", ""
	if len(input.ConsumptionPoints) > 0 {
		jurisdiction = strings.TrimSpace(input.ConsumptionPoints[0].Jurisdiction)
		utility = strings.TrimSpace(input.ConsumptionPoints[0].UtilityCode)
	}
	// Group only steers which escalation rule set is fetched; an unresolved
	// group is rejected later and defaults to B here.
	if group == "" {
		group = entities.TariffGroupB
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		fee, err := s.RefData.FeeContext(egCtx, caller.TenantID, group)
		gathered.fee = fee
		return err
	})
	eg.Go(func() error {
		tax, err := s.RefData.TaxContext(egCtx, jurisdiction)
		gathered.tax = tax
		return err
	})
	eg.Go(func() error {
		irradiation, err := s.RefData.Irradiation(egCtx, jurisdiction)
		gathered.irradiation = irradiation
		return err
	})
	eg.Go(func() error {
		premises, found, err := s.RefData.DefaultPremises(egCtx, caller.TenantID)
		gathered.premises, gathered.hasPremises = premises, found
		return err
	})
	eg.Go(func() error {
		consultant, _, err := s.RefData.ConsultantByUser(egCtx, caller.UserID)
		gathered.consultant = consultant
		return err
	})
	eg.Go(func() error {
		tariff, found, err := s.RefData.ActiveTariff(egCtx, utility)
		gathered.tariff, gathered.hasTariff = tariff, found
		return err
	})
	eg.Go(func() error {
		variables, err := s.RefData.CustomVariables(egCtx, caller.TenantID)
		gathered.variables = variables
		return err
	})
	if err := eg.Wait(); err != nil {
		return gatheredContext{}, err
	}
	return gathered, nil
}

// enforceInvariants re-derives every trust-sensitive field server-side and
// rejects on violation. Each rejection leaves a best-effort audit entry
// before the error is returned.
func (s Service) enforceInvariants(
	ctx context.Context,
	caller entities.CallerProfile,
	input ports.GenerateInput,
	groupErr error,
	gathered gatheredContext,
) error {
	reject := func(err error) error {
		s.appendAudit(ctx, caller, input, entities.Snapshot{
			Precision: s.resolvePrecision(gathered),
			Fee:       gathered.fee,
		}, gathered, "rejected", domainerrors.Code(err))
		return err
	}

	// With no consumption points the group invariant is vacuous; the
	// required-fields check below reports the absent consumption instead.
	if groupErr != nil && len(input.ConsumptionPoints) > 0 {
		return reject(groupErr)
	}

	var missing []string
	if strings.TrimSpace(input.LeadRef) == "" {
		missing = append(missing, "lead_id")
	}
	if input.InstalledPowerKWp <= 0 {
		missing = append(missing, "potencia_kwp")
	}
	if totalConsumption(input.ConsumptionPoints) <= 0 {
		missing = append(missing, "consumo_total_kwh")
	}
	if kitCost(input.KitItems) <= 0 {
		missing = append(missing, "custo_kit")
	}
	if len(missing) > 0 {
		return reject(&domainerrors.MissingVariablesError{Fields: missing})
	}

	if s.resolvePrecision(gathered) == entities.PrecisionEstimated && !input.EstimateAccepted {
		return reject(domainerrors.ErrEstimateNotAccepted)
	}
	return nil
}

// resolvePrecision is recomputed from the active tariff record itself and
// never taken from the caller: a real Fio B tariff component means exact.
func (s Service) resolvePrecision(gathered gatheredContext) entities.Precision {
	if gathered.hasTariff && gathered.tariff.HasFioBComponent() {
		return entities.PrecisionExact
	}
	return entities.PrecisionEstimated
}

func (s Service) compute(
	ctx context.Context,
	caller entities.CallerProfile,
	input ports.GenerateInput,
	group entities.TariffGroup,
	gathered gatheredContext,
) (entities.Version, error) {
	now := s.now()
	precision := s.resolvePrecision(gathered)

	points := make([]entities.ConsumptionPoint, len(input.ConsumptionPoints))
	copy(points, input.ConsumptionPoints)
	for i := range points {
		resolved, _ := entities.ResolveGroup(points[i].SubGroup)
		points[i].Group = resolved
	}

	premises := gathered.premises
	if input.Premises != nil {
		premises = *input.Premises
	}

	avgTariff := input.AvgTariff
	if gathered.hasTariff && gathered.tariff.EnergyTariff > 0 {
		avgTariff = gathered.tariff.EnergyTariff
	}
	monthlyGeneration := calc.Round2(input.InstalledPowerKWp * gathered.irradiation.MonthlyKWhPerKWp)
	monthlySavings := calc.Round2(monthlyGeneration * avgTariff)

	snapshot := entities.Snapshot{
		SchemaVersion:     entities.SnapshotSchemaVersion,
		EngineVersion:     EngineVersion,
		GeneratedAt:       now,
		TariffGroup:       group,
		Precision:         precision,
		Fee:               gathered.fee,
		Tax:               gathered.tax,
		ConsumptionPoints: points,
		Premises:          premises,
		KitItems:          input.KitItems,
		Services:          input.Services,
		Commercial:        input.Commercial,
		Notes:             strings.TrimSpace(input.Notes),
		Locked:            true,
	}
	totalValue := calc.Round2(snapshot.TotalValue())

	inputs := entities.CalcInputs{
		Investment:              totalValue,
		FirstYearMonthlySavings: monthlySavings,
		MonthlyGenerationKWh:    monthlyGeneration,
		AvgTariff:               avgTariff,
		EnergyInflationRate:     s.Economics.EnergyInflationRate,
		EfficiencyLossRate:      s.Economics.EfficiencyLossRate,
		ReplacementYear:         s.Economics.ReplacementYear,
		ReplacementCostPct:      s.Economics.ReplacementCostPct,
		DiscountRate:            s.Economics.DiscountRate,
		FeeSchedule:             gathered.fee.Schedule,
	}
	if err := calc.ValidateInputs(inputs); err != nil {
		return entities.Version{}, domainerrors.ErrInvalidInput
	}
	result := calc.CalcSeries25(inputs)

	scenarios := make([]entities.ScenarioResult, 0, len(input.Scenarios))
	for _, scenario := range input.Scenarios {
		scenarios = append(scenarios, calc.CalcScenario(inputs, scenario))
	}

	var variableResults []entities.CustomVariableResult
	if !input.SkipCustomVariables {
		variableResults = evaluateCustomVariables(gathered.variables, variableContext(inputs, result, totalValue, input))
	}

	snapshot.Technical = entities.TechnicalSummary{
		InstalledPowerKWp:    input.InstalledPowerKWp,
		MonthlyGenerationKWh: monthlyGeneration,
		TotalConsumptionKWh:  calc.Round2(totalConsumption(points)),
		GenerationPerKWp:     gathered.irradiation.MonthlyKWhPerKWp,
	}
	snapshot.Calc = result
	snapshot.Scenarios = scenarios
	snapshot.CustomVariables = variableResults
	if precision == entities.PrecisionEstimated && input.EstimateAccepted {
		acceptedAt := now
		snapshot.EstimateAcceptedAt = &acceptedAt
	}
	snapshot.CalcHash = s.hashSnapshotInputs(caller, input, inputs)

	return entities.Version{
		ProposalID:     strings.TrimSpace(input.ProposalID),
		TenantID:       caller.TenantID,
		IdempotencyKey: strings.TrimSpace(input.IdempotencyKey),
		CalcHash:       snapshot.CalcHash,
		EngineVersion:  EngineVersion,
		Status:         entities.VersionStatusCommitted,
		Snapshot:       snapshot,
		CreatedAt:      now,
	}, nil
}

// persistVersion assigns the next number through the repository's atomic
// counter and inserts under the tenant+key uniqueness constraint. Losing the
// insert race to an identical concurrent request is a success path: the
// winner's version is fetched and returned.
func (s Service) persistVersion(
	ctx context.Context,
	caller entities.CallerProfile,
	version entities.Version,
) (entities.Version, bool, error) {
	number, err := s.Versions.NextVersionNumber(ctx, version.ProposalID)
	if err != nil {
		return entities.Version{}, false, err
	}
	versionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Version{}, false, err
	}
	version.VersionID = strings.TrimSpace(versionID)
	version.VersionNumber = number

	if err := s.Versions.CreateVersion(ctx, version); err != nil {
		if errors.Is(err, domainerrors.ErrIdempotencyKeyTaken) {
			winner, found, findErr := s.Versions.FindVersionByKey(ctx, caller.TenantID, version.IdempotencyKey)
			if findErr != nil {
				return entities.Version{}, false, findErr
			}
			if found {
				return winner, true, nil
			}
		}
		return entities.Version{}, false, err
	}
	return version, false, nil
}

// persistGranular fans the denormalized reporting rows out concurrently with
// best-effort semantics. The snapshot is already durable; partial failures
// are collected, not propagated.
func (s Service) persistGranular(ctx context.Context, version entities.Version) ports.PersistOutcome {
	outcome := ports.PersistOutcome{VersionID: version.VersionID}
	if s.Granular == nil {
		return outcome
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	collect := func(name string, write func() error) {
		defer wg.Done()
		if err := write(); err != nil {
			mu.Lock()
			outcome.DenormalizedFailures = append(outcome.DenormalizedFailures, err)
			mu.Unlock()
			ResolveLogger(s.Logger).Warn("granular write failed",
				"event", "proposal_granular_write_failed",
				"module", moduleName,
				"layer", "application",
				"version_id", version.VersionID,
				"target", name,
				"error", err.Error(),
			)
		}
	}

	snapshot := version.Snapshot
	wg.Add(6)
	go collect("consumption_points", func() error {
		return s.Granular.WriteConsumptionPoints(ctx, version.VersionID, snapshot.ConsumptionPoints)
	})
	go collect("premises", func() error {
		return s.Granular.WritePremises(ctx, version.VersionID, snapshot.Premises)
	})
	go collect("kit_items", func() error {
		return s.Granular.WriteKitItems(ctx, version.VersionID, snapshot.KitItems)
	})
	go collect("services", func() error {
		return s.Granular.WriteServices(ctx, version.VersionID, snapshot.Services)
	})
	go collect("scenario_series", func() error {
		return s.Granular.WriteScenarioSeries(ctx, version.VersionID, snapshot.Scenarios)
	})
	go collect("custom_variables", func() error {
		return s.Granular.WriteCustomVariables(ctx, version.VersionID, snapshot.CustomVariables)
	})
	wg.Wait()
	return outcome
}

func (s Service) appendGeneratedOutbox(ctx context.Context, version entities.Version) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"proposal_id":    version.ProposalID,
		"version_id":     version.VersionID,
		"version_number": version.VersionNumber,
		"tenant_id":      version.TenantID,
		"calc_hash":      version.CalcHash,
		"engine_version": version.EngineVersion,
		"generated_at":   version.Snapshot.GeneratedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        events.TypeVersionGenerated,
		OccurredAt:       version.Snapshot.GeneratedAt.UTC(),
		SourceService:    events.SourceService,
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     version.ProposalID,
		Data:             data,
	}); err != nil {
		ResolveLogger(s.Logger).Warn("outbox append failed",
			"event", "proposal_outbox_append_failed",
			"module", moduleName,
			"layer", "application",
			"version_id", version.VersionID,
			"error", err.Error(),
		)
	}
}

// appendAudit writes the server-recomputed trust-sensitive fields. A logging
// failure never masks the request outcome.
func (s Service) appendAudit(
	ctx context.Context,
	caller entities.CallerProfile,
	input ports.GenerateInput,
	snapshot entities.Snapshot,
	gathered gatheredContext,
	outcome string,
	rejectReason string,
) {
	if s.Audit == nil {
		return
	}
	entryID, err := s.IDGen.NewID(ctx)
	if err != nil {
		entryID = ""
	}
	entry := entities.AuditEntry{
		EntryID:            strings.TrimSpace(entryID),
		TenantID:           caller.TenantID,
		ProposalID:         strings.TrimSpace(input.ProposalID),
		Outcome:            outcome,
		RejectReason:       rejectReason,
		Precision:          snapshot.Precision,
		FeeRuleSet:         gathered.fee.RuleSet,
		FeeScheduleVersion: gathered.fee.ScheduleVersion,
		FirstYearFeePct:    gathered.fee.FirstYearPct,
		TariffUtility:      gathered.tariff.UtilityCode,
		TariffValidFrom:    gathered.tariff.ValidFrom,
		EstimateAcceptedAt: snapshot.EstimateAcceptedAt,
		CreatedAt:          s.now(),
	}
	if err := s.Audit.Append(ctx, entry); err != nil {
		ResolveLogger(s.Logger).Warn("audit append failed",
			"event", "proposal_audit_append_failed",
			"module", moduleName,
			"layer", "application",
			"proposal_id", entry.ProposalID,
			"outcome", outcome,
			"error", err.Error(),
		)
	}
}

// hashSnapshotInputs hashes the full logical input set. Map marshalling
// sorts keys at every level, so insertion order never changes the hash.
func (s Service) hashSnapshotInputs(
	caller entities.CallerProfile,
	input ports.GenerateInput,
	inputs entities.CalcInputs,
) string {
	points := make([]map[string]any, 0, len(input.ConsumptionPoints))
	for _, point := range input.ConsumptionPoints {
		points = append(points, map[string]any{
			"ref":          strings.TrimSpace(point.Ref),
			"utility":      strings.TrimSpace(point.UtilityCode),
			"jurisdiction": strings.TrimSpace(point.Jurisdiction),
			"sub_group":    strings.TrimSpace(point.SubGroup),
			"consumption":  point.MonthlyConsumptionKWh,
		})
	}
	kit := make([]map[string]any, 0, len(input.KitItems))
	for _, item := range input.KitItems {
		kit = append(kit, map[string]any{
			"description": strings.TrimSpace(item.Description),
			"category":    strings.TrimSpace(item.Category),
			"quantity":    item.Quantity,
			"unit_cost":   item.UnitCost,
		})
	}
	services := make([]map[string]any, 0, len(input.Services))
	for _, svc := range input.Services {
		services = append(services, map[string]any{
			"description": strings.TrimSpace(svc.Description),
			"cost":        svc.Cost,
		})
	}
	scenarios := make([]map[string]any, 0, len(input.Scenarios))
	for _, scenario := range input.Scenarios {
		scenarios = append(scenarios, map[string]any{
			"type":               string(scenario.Type),
			"principal":          scenario.Principal,
			"down_payment":       scenario.DownPayment,
			"monthly_rate":       scenario.MonthlyInterestRate,
			"installment_count":  scenario.InstallmentCount,
			"installment_amount": scenario.InstallmentAmount,
		})
	}
	return calc.HashInputs(map[string]any{
		"tenant_id":          caller.TenantID,
		"proposal_id":        strings.TrimSpace(input.ProposalID),
		"lead_id":            strings.TrimSpace(input.LeadRef),
		"installed_power":    input.InstalledPowerKWp,
		"consumption_points": points,
		"kit_items":          kit,
		"services":           services,
		"scenarios":          scenarios,
		"commercial": map[string]any{
			"commission_pct": input.Commercial.CommissionPct,
			"other_costs":    input.Commercial.OtherCosts,
			"margin_pct":     input.Commercial.MarginPct,
			"discount_pct":   input.Commercial.DiscountPct,
		},
		"calc_inputs": map[string]any{
			"investment":         inputs.Investment,
			"monthly_savings":    inputs.FirstYearMonthlySavings,
			"monthly_generation": inputs.MonthlyGenerationKWh,
			"avg_tariff":         inputs.AvgTariff,
			"inflation_rate":     inputs.EnergyInflationRate,
			"efficiency_loss":    inputs.EfficiencyLossRate,
			"replacement_year":   inputs.ReplacementYear,
			"replacement_pct":    inputs.ReplacementCostPct,
			"discount_rate":      inputs.DiscountRate,
			"fee_base_year":      inputs.FeeSchedule.BaseYear,
			"fee_base_percent":   inputs.FeeSchedule.BasePercent,
			"fee_steps":          feeStepMaps(inputs.FeeSchedule.Steps),
		},
	})
}

func feeStepMaps(steps []entities.FeeStep) []map[string]any {
	out := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		out = append(out, map[string]any{"year": step.Year, "percent": step.Percent})
	}
	return out
}

// variableContext is the fixed set of names a tenant formula may reference.
func variableContext(
	inputs entities.CalcInputs,
	result entities.CalcResult,
	totalValue float64,
	input ports.GenerateInput,
) map[string]float64 {
	return map[string]float64{
		"valor_total":        totalValue,
		"investimento":       inputs.Investment,
		"custo_kit":          kitCost(input.KitItems),
		"potencia_kwp":       input.InstalledPowerKWp,
		"geracao_mensal_kwh": inputs.MonthlyGenerationKWh,
		"consumo_total_kwh":  totalConsumption(input.ConsumptionPoints),
		"tarifa_media":       inputs.AvgTariff,
		"economia_mensal":    inputs.FirstYearMonthlySavings,
		"economia_ano_1":     result.FirstYearSavings,
		"economia_25_anos":   result.TotalSavings,
		"payback_anos":       float64(result.PaybackYears),
		"payback_meses":      float64(result.PaybackMonths),
		"vpl":                result.NPV,
		"tir":                result.IRRPercent,
	}
}

func evaluateCustomVariables(
	variables []entities.CustomVariable,
	context map[string]float64,
) []entities.CustomVariableResult {
	results := make([]entities.CustomVariableResult, 0, len(variables))
	for _, variable := range variables {
		results = append(results, entities.CustomVariableResult{
			Name:  variable.Name,
			Value: expr.Evaluate(variable.Expression, context),
		})
	}
	return results
}

func (s Service) outputFromVersion(version entities.Version, idempotent bool) ports.GenerateOutput {
	// Monthly savings on the same gross basis payback_months was computed
	// from: first-year gross savings over twelve months.
	monthlySavings := 0.0
	if len(version.Snapshot.Calc.Series) > 0 {
		monthlySavings = calc.Round2(version.Snapshot.Calc.Series[0].GrossSavings / 12)
	}
	return ports.GenerateOutput{
		Idempotent:     idempotent,
		ProposalID:     version.ProposalID,
		VersionID:      version.VersionID,
		VersionNumber:  version.VersionNumber,
		TotalValue:     calc.Round2(version.Snapshot.TotalValue()),
		PaybackMonths:  version.Snapshot.Calc.PaybackMonths,
		PaybackYears:   version.Snapshot.Calc.PaybackYears,
		MonthlySavings: monthlySavings,
		NPV:            version.Snapshot.Calc.NPV,
		IRR:            version.Snapshot.Calc.IRRPercent,
		EngineVersion:  version.EngineVersion,
		CalcHash:       version.CalcHash,
		ScenarioCount:  len(version.Snapshot.Scenarios),
	}
}

func totalConsumption(points []entities.ConsumptionPoint) float64 {
	var total float64
	for _, point := range points {
		total += point.MonthlyConsumptionKWh
	}
	return total
}

func kitCost(items []entities.KitItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Quantity * item.UnitCost
	}
	return total
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
