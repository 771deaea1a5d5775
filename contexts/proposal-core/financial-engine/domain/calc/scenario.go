package calc

import (
	"math"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

// CalcScenario runs the series calculator with the scenario principal as the
// investment and layers the financing structure on top.
//
// The effective annual cost rate compounds the monthly rate over twelve
// months. For financed plans the payback figure replaces the series one:
// during the financed period the monthly net flow is savings minus the
// installment, and payback only completes when that flow is positive.
func CalcScenario(base entities.CalcInputs, scenario entities.Scenario) entities.ScenarioResult {
	inputs := base
	if scenario.Principal > 0 {
		inputs.Investment = scenario.Principal
	}
	result := CalcSeries25(inputs)

	effectiveAnnual := 0.0
	if scenario.InstallmentCount > 0 && scenario.MonthlyInterestRate > 0 {
		effectiveAnnual = Round2((math.Pow(1+scenario.MonthlyInterestRate, 12) - 1) * 100)
	}

	paybackMonths := result.PaybackMonths
	if scenario.Type == entities.ScenarioFinanced && scenario.InstallmentCount > 0 {
		paybackMonths = financedPaybackMonths(base.FirstYearMonthlySavings, scenario)
	}

	return entities.ScenarioResult{
		Scenario:           scenario,
		EffectiveAnnualPct: effectiveAnnual,
		PaybackMonths:      paybackMonths,
		Calc:               result,
	}
}

func financedPaybackMonths(monthlySavings float64, scenario entities.Scenario) int {
	monthlyNet := monthlySavings - scenario.InstallmentAmount
	if monthlyNet <= 0 {
		return 0
	}
	downPaymentMonths := 0
	if scenario.DownPayment > 0 {
		downPaymentMonths = int(math.Ceil(scenario.DownPayment / monthlyNet))
	}
	return downPaymentMonths + scenario.InstallmentCount
}
