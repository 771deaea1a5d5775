package financialengine

import (
	"log/slog"

	httpadapter "helios/contexts/proposal-core/financial-engine/adapters/http"
	"helios/contexts/proposal-core/financial-engine/adapters/memory"
	"helios/contexts/proposal-core/financial-engine/application"
	"helios/contexts/proposal-core/financial-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Directory ports.Directory
	RefData   ports.ReferenceData
	Versions  ports.VersionRepository
	Granular  ports.GranularWriter
	Audit     ports.AuditLog
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Economics application.EconomicAssumptions
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Directory: deps.Directory,
		RefData:   deps.RefData,
		Versions:  deps.Versions,
		Granular:  deps.Granular,
		Audit:     deps.Audit,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Economics: deps.Economics,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// DefaultEconomics are the projection assumptions applied when a tenant has
// not overridden them: 5% yearly energy inflation, 0.5% panel efficiency
// loss, inverter replacement in year 13 at 15% of the investment, 8%
// discount rate.
func DefaultEconomics() application.EconomicAssumptions {
	return application.EconomicAssumptions{
		EnergyInflationRate: 0.05,
		EfficiencyLossRate:  0.005,
		ReplacementYear:     13,
		ReplacementCostPct:  0.15,
		DiscountRate:        0.08,
	}
}

// NewInMemoryModule wires the module against the in-memory store. Used by
// tests and local runs without a database.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Directory: store,
		RefData:   store,
		Versions:  store,
		Granular:  store,
		Audit:     store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Economics: DefaultEconomics(),
		Logger:    logger,
	})
	module.Store = store
	return module
}
