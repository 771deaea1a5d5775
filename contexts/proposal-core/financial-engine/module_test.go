package financialengine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
	domainerrors "helios/contexts/proposal-core/financial-engine/domain/errors"
	"helios/contexts/proposal-core/financial-engine/ports"
)

func newTestModule(t *testing.T) Module {
	t.Helper()
	module := NewInMemoryModule(slog.New(slog.NewTextHandler(io.Discard, nil)))
	module.Store.SeedCaller(entities.CallerProfile{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     "owner",
		Status:   entities.TenantStatusActive,
	})
	module.Store.SeedProposal("tenant-1", "prop-1")
	module.Store.SeedTariff(entities.TariffRecord{
		UtilityCode:  "CEMIG",
		Group:        entities.TariffGroupB,
		EnergyTariff: 0.85,
		FioBTariff:   0.30,
		ValidFrom:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:       true,
	})
	module.Store.SeedIrradiation(entities.IrradiationRecord{
		Jurisdiction:     "MG",
		MonthlyKWhPerKWp: 120,
	})
	return module
}

func baseInput(key string) ports.GenerateInput {
	return ports.GenerateInput{
		ProposalID:        "prop-1",
		LeadRef:           "lead-1",
		InstalledPowerKWp: 5,
		ConsumptionPoints: []entities.ConsumptionPoint{{
			Ref:                   "uc-1",
			UtilityCode:           "CEMIG",
			Jurisdiction:          "MG",
			SubGroup:              "B1",
			MonthlyConsumptionKWh: 520,
		}},
		KitItems: []entities.KitItem{{
			Description: "Painel 600W",
			Category:    "module",
			Quantity:    10,
			UnitCost:    600,
		}},
		Services:       []entities.ServiceItem{{Description: "Instalacao", Cost: 2000}},
		Commercial:     entities.CommercialTerms{MarginPct: 10},
		IdempotencyKey: key,
	}
}

func TestGenerateCommitsFirstVersion(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	out, err := service.Generate(context.Background(), "user-1", baseInput("key-1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Idempotent {
		t.Fatalf("first generation must not be idempotent")
	}
	if out.VersionNumber != 1 {
		t.Fatalf("version number = %d, want 1", out.VersionNumber)
	}
	// (10*600 + 2000) * 1.10
	if out.TotalValue != 8800.00 {
		t.Fatalf("total value = %v, want 8800.00", out.TotalValue)
	}
	if out.EngineVersion != "helios-engine/2.1.0" {
		t.Fatalf("engine version = %q", out.EngineVersion)
	}
	if len(out.CalcHash) != 64 {
		t.Fatalf("calc hash length = %d, want 64", len(out.CalcHash))
	}
	if out.PaybackYears == 0 {
		t.Fatalf("payback years must never be zero")
	}
	// Gross basis shared with payback_months: 600 kWh * 0.85, then
	// ceil(8800 / 510).
	if out.MonthlySavings != 510.00 {
		t.Fatalf("monthly savings = %v, want 510.00", out.MonthlySavings)
	}
	if out.PaybackMonths != 18 {
		t.Fatalf("payback months = %d, want 18", out.PaybackMonths)
	}

	version, err := service.GetVersion(context.Background(), "user-1", out.VersionID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	snapshot := version.Snapshot
	if !snapshot.Locked {
		t.Fatalf("snapshot must be locked")
	}
	if snapshot.SchemaVersion != entities.SnapshotSchemaVersion {
		t.Fatalf("schema version = %d, want %d", snapshot.SchemaVersion, entities.SnapshotSchemaVersion)
	}
	if snapshot.Precision != entities.PrecisionExact {
		t.Fatalf("precision = %q, want exact with an active Fio B tariff", snapshot.Precision)
	}
	if snapshot.TariffGroup != entities.TariffGroupB {
		t.Fatalf("tariff group = %q, want B", snapshot.TariffGroup)
	}
	if snapshot.ConsumptionPoints[0].Group != entities.TariffGroupB {
		t.Fatalf("point group must be resolved server-side")
	}
	// 5 kWp * 120 kWh/kWp
	if snapshot.Technical.MonthlyGenerationKWh != 600.00 {
		t.Fatalf("monthly generation = %v, want 600.00", snapshot.Technical.MonthlyGenerationKWh)
	}
	if snapshot.Fee.RuleSet != "lei-14300" {
		t.Fatalf("fee rule set = %q, want the statutory default", snapshot.Fee.RuleSet)
	}

	entries := module.Store.AuditEntries()
	if len(entries) != 1 || entries[0].Outcome != "committed" {
		t.Fatalf("audit entries = %+v, want one committed entry", entries)
	}
}

func TestGenerateIdempotentReplay(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	first, err := service.Generate(context.Background(), "user-1", baseInput("key-1"))
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := service.Generate(context.Background(), "user-1", baseInput("key-1"))
	if err != nil {
		t.Fatalf("replay Generate: %v", err)
	}
	if !second.Idempotent {
		t.Fatalf("replay must be flagged idempotent")
	}
	if second.VersionID != first.VersionID || second.VersionNumber != first.VersionNumber {
		t.Fatalf("replay returned %s/%d, want %s/%d",
			second.VersionID, second.VersionNumber, first.VersionID, first.VersionNumber)
	}

	versions, err := service.ListVersions(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("version count = %d, want 1 after replay", len(versions))
	}
}

func TestGenerateRequiresIdempotencyKey(t *testing.T) {
	module := newTestModule(t)

	_, err := module.Handler.Service.Generate(context.Background(), "user-1", baseInput("  "))
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyMissing) {
		t.Fatalf("err = %v, want ErrIdempotencyKeyMissing", err)
	}
}

func TestGenerateUnknownProposal(t *testing.T) {
	module := newTestModule(t)

	input := baseInput("key-1")
	input.ProposalID = "prop-err"
	_, err := module.Handler.Service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("err = %v, want ErrProposalNotFound", err)
	}
}

func TestGenerateCallerChecks(t *testing.T) {
	module := newTestModule(t)
	module.Store.SeedCaller(entities.CallerProfile{
		UserID: "viewer-1", TenantID: "tenant-1", Role: "viewer", Status: entities.TenantStatusActive,
	})
	module.Store.SeedCaller(entities.CallerProfile{
		UserID: "frozen-1", TenantID: "tenant-1", Role: "owner", Status: entities.TenantStatusSuspended,
	})
	service := module.Handler.Service

	if _, err := service.Generate(context.Background(), "", baseInput("key-1")); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("blank subject: err = %v, want ErrUnauthorized", err)
	}
	for _, userID := range []string{"ghost", "viewer-1", "frozen-1"} {
		if _, err := service.Generate(context.Background(), userID, baseInput("key-1")); !errors.Is(err, domainerrors.ErrForbidden) {
			t.Fatalf("user %q: err = %v, want ErrForbidden", userID, err)
		}
	}
}

func TestGenerateRejectsUnresolvableGroup(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	input := baseInput("key-1")
	input.ConsumptionPoints[0].SubGroup = "X1"
	_, err := service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrUndefinedGroup) {
		t.Fatalf("err = %v, want ErrUndefinedGroup", err)
	}

	versions, _ := service.ListVersions(context.Background(), "user-1", "prop-1")
	if len(versions) != 0 {
		t.Fatalf("rejection must not commit a version")
	}
	entries := module.Store.AuditEntries()
	if len(entries) != 1 || entries[0].Outcome != "rejected" || entries[0].RejectReason != "grupo_indefinido" {
		t.Fatalf("audit entries = %+v, want one grupo_indefinido rejection", entries)
	}
}

func TestGenerateRejectsMixedGroups(t *testing.T) {
	module := newTestModule(t)

	input := baseInput("key-1")
	input.ConsumptionPoints = append(input.ConsumptionPoints, entities.ConsumptionPoint{
		Ref:                   "uc-2",
		UtilityCode:           "CEMIG",
		Jurisdiction:          "MG",
		SubGroup:              "A4",
		MonthlyConsumptionKWh: 3000,
	})
	_, err := module.Handler.Service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrMixedGroups) {
		t.Fatalf("err = %v, want ErrMixedGroups", err)
	}
	if domainerrors.Code(err) != "mixed_grupos" {
		t.Fatalf("code = %q, want mixed_grupos", domainerrors.Code(err))
	}
}

func TestGenerateRejectsMissingVariables(t *testing.T) {
	module := newTestModule(t)

	input := baseInput("key-1")
	input.LeadRef = ""
	input.InstalledPowerKWp = 0
	input.ConsumptionPoints[0].MonthlyConsumptionKWh = 0
	input.KitItems = nil

	_, err := module.Handler.Service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrMissingVariables) {
		t.Fatalf("err = %v, want ErrMissingVariables", err)
	}
	var missing *domainerrors.MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("err %v does not carry the missing field list", err)
	}
	want := []string{"lead_id", "potencia_kwp", "consumo_total_kwh", "custo_kit"}
	if len(missing.Fields) != len(want) {
		t.Fatalf("missing fields = %v, want %v", missing.Fields, want)
	}
	for i, field := range want {
		if missing.Fields[i] != field {
			t.Fatalf("missing fields = %v, want %v", missing.Fields, want)
		}
	}
}

func TestGenerateEstimateGate(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	input := baseInput("key-1")
	input.ConsumptionPoints[0].UtilityCode = "ENEL-SP"
	input.AvgTariff = 0.80

	_, err := service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrEstimateNotAccepted) {
		t.Fatalf("err = %v, want ErrEstimateNotAccepted without an active tariff", err)
	}
	if domainerrors.Code(err) != "estimativa_not_accepted" {
		t.Fatalf("code = %q, want estimativa_not_accepted", domainerrors.Code(err))
	}

	input.EstimateAccepted = true
	out, err := service.Generate(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("accepted estimate Generate: %v", err)
	}
	version, err := service.GetVersion(context.Background(), "user-1", out.VersionID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if version.Snapshot.Precision != entities.PrecisionEstimated {
		t.Fatalf("precision = %q, want estimated", version.Snapshot.Precision)
	}
	if version.Snapshot.EstimateAcceptedAt == nil {
		t.Fatalf("accepted estimate must stamp EstimateAcceptedAt")
	}
}

func TestGenerateGranularBestEffort(t *testing.T) {
	module := newTestModule(t)
	module.Store.FailWrites["kit_items"] = true
	service := module.Handler.Service

	input := baseInput("key-1")
	input.Scenarios = []entities.Scenario{{
		Type:                entities.ScenarioFinanced,
		Principal:           8000,
		DownPayment:         500,
		MonthlyInterestRate: 0.018,
		InstallmentCount:    48,
		InstallmentAmount:   250,
	}}
	out, err := service.Generate(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Generate must stay durable past a granular failure: %v", err)
	}
	if out.ScenarioCount != 1 {
		t.Fatalf("scenario count = %d, want 1", out.ScenarioCount)
	}
	if module.Store.GranularKitItems(out.VersionID) != nil {
		t.Fatalf("failed kit write must not leave rows behind")
	}
	if len(module.Store.GranularScenarios(out.VersionID)) != 1 {
		t.Fatalf("scenario rows missing despite an unrelated failure")
	}
	if _, err := service.GetVersion(context.Background(), "user-1", out.VersionID); err != nil {
		t.Fatalf("version must be readable after a partial granular failure: %v", err)
	}
}

func TestGenerateEvaluatesCustomVariables(t *testing.T) {
	module := newTestModule(t)
	module.Store.SeedCustomVariables("tenant-1", []entities.CustomVariable{
		{Name: "preco_por_kwp", Expression: "[valor_total] / [potencia_kwp]"},
		{Name: "quebrada", Expression: "drop table versions"},
	})
	service := module.Handler.Service

	out, err := service.Generate(context.Background(), "user-1", baseInput("key-1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	version, err := service.GetVersion(context.Background(), "user-1", out.VersionID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	results := version.Snapshot.CustomVariables
	if len(results) != 2 {
		t.Fatalf("custom variable results = %d, want 2", len(results))
	}
	if results[0].Value == nil || *results[0].Value != 1760 {
		t.Fatalf("preco_por_kwp = %v, want 1760", results[0].Value)
	}
	if results[1].Value != nil {
		t.Fatalf("a rejected expression must yield a nil value, got %v", *results[1].Value)
	}
}

func TestGenerateConcurrentDistinctKeys(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	var wg sync.WaitGroup
	outputs := make([]ports.GenerateOutput, 2)
	failures := make([]error, 2)
	for i, key := range []string{"key-a", "key-b"} {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			outputs[i], failures[i] = service.Generate(context.Background(), "user-1", baseInput(key))
		}(i, key)
	}
	wg.Wait()

	for i, err := range failures {
		if err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}
	if outputs[0].VersionNumber == outputs[1].VersionNumber {
		t.Fatalf("concurrent generations shared version number %d", outputs[0].VersionNumber)
	}
}

func TestGenerateConcurrentSharedKeyReturnsOneVersion(t *testing.T) {
	module := newTestModule(t)
	service := module.Handler.Service

	const callers = 8
	var wg sync.WaitGroup
	outputs := make([]ports.GenerateOutput, callers)
	failures := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outputs[i], failures[i] = service.Generate(context.Background(), "user-1", baseInput("key-shared"))
		}(i)
	}
	wg.Wait()

	for i, err := range failures {
		if err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}
	winner := outputs[0]
	for i, out := range outputs {
		if out.VersionID != winner.VersionID || out.CalcHash != winner.CalcHash {
			t.Fatalf("caller %d got %s/%s, want the winner %s/%s",
				i, out.VersionID, out.CalcHash, winner.VersionID, winner.CalcHash)
		}
	}

	versions, err := service.ListVersions(context.Background(), "user-1", "prop-1")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("version count = %d after %d shared-key callers, want 1", len(versions), callers)
	}
}

func TestGenerateNoConsumptionPointsReportsMissingConsumption(t *testing.T) {
	module := newTestModule(t)

	input := baseInput("key-1")
	input.ConsumptionPoints = nil

	_, err := module.Handler.Service.Generate(context.Background(), "user-1", input)
	if !errors.Is(err, domainerrors.ErrMissingVariables) {
		t.Fatalf("err = %v, want ErrMissingVariables with no consumption points", err)
	}
	var missing *domainerrors.MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("err %v does not carry the missing field list", err)
	}
	if len(missing.Fields) != 1 || missing.Fields[0] != "consumo_total_kwh" {
		t.Fatalf("missing fields = %v, want [consumo_total_kwh]", missing.Fields)
	}
}

func TestGetVersionTenantIsolation(t *testing.T) {
	module := newTestModule(t)
	module.Store.SeedCaller(entities.CallerProfile{
		UserID: "user-2", TenantID: "tenant-2", Role: "owner", Status: entities.TenantStatusActive,
	})
	service := module.Handler.Service

	out, err := service.Generate(context.Background(), "user-1", baseInput("key-1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := service.GetVersion(context.Background(), "user-2", out.VersionID); !errors.Is(err, domainerrors.ErrVersionNotFound) {
		t.Fatalf("cross-tenant read: err = %v, want ErrVersionNotFound", err)
	}
}
