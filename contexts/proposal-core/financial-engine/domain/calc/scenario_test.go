package calc

import (
	"testing"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

func TestCalcScenarioCashKeepsBaseInvestment(t *testing.T) {
	scenario := entities.Scenario{Type: entities.ScenarioCash}

	result := CalcScenario(flatInputs(), scenario)
	if result.Calc.PaybackMonths != 48 {
		t.Fatalf("payback months = %d, want base-investment 48", result.Calc.PaybackMonths)
	}
	if result.EffectiveAnnualPct != 0 {
		t.Fatalf("effective annual = %v, want 0 for cash", result.EffectiveAnnualPct)
	}
	if result.PaybackMonths != result.Calc.PaybackMonths {
		t.Fatalf("cash scenario must carry the series payback")
	}
}

func TestCalcScenarioPrincipalOverridesInvestment(t *testing.T) {
	scenario := entities.Scenario{Type: entities.ScenarioInstallment, Principal: 15000}

	result := CalcScenario(flatInputs(), scenario)
	// ceil(15000 / 425)
	if result.Calc.PaybackMonths != 36 {
		t.Fatalf("payback months = %d, want 36 from the scenario principal", result.Calc.PaybackMonths)
	}
}

func TestCalcScenarioFinancedEffectiveAnnual(t *testing.T) {
	scenario := entities.Scenario{
		Type:                entities.ScenarioFinanced,
		MonthlyInterestRate: 0.02,
		InstallmentCount:    12,
		InstallmentAmount:   300,
	}

	result := CalcScenario(flatInputs(), scenario)
	// (1.02^12 - 1) * 100
	if result.EffectiveAnnualPct != 26.82 {
		t.Fatalf("effective annual = %v, want 26.82", result.EffectiveAnnualPct)
	}
}

func TestCalcScenarioFinancedPaybackAddsDownPaymentMonths(t *testing.T) {
	scenario := entities.Scenario{
		Type:                entities.ScenarioFinanced,
		DownPayment:         1000,
		MonthlyInterestRate: 0.015,
		InstallmentCount:    60,
		InstallmentAmount:   300,
	}

	result := CalcScenario(flatInputs(), scenario)
	// Monthly net flow 425 - 300 = 125; ceil(1000 / 125) = 8, plus the term.
	if result.PaybackMonths != 68 {
		t.Fatalf("financed payback = %d, want 68", result.PaybackMonths)
	}
}

func TestCalcScenarioFinancedInstallmentAboveSavings(t *testing.T) {
	scenario := entities.Scenario{
		Type:              entities.ScenarioFinanced,
		DownPayment:       1000,
		InstallmentCount:  60,
		InstallmentAmount: 500,
	}

	result := CalcScenario(flatInputs(), scenario)
	if result.PaybackMonths != 0 {
		t.Fatalf("financed payback = %d, want 0 when the installment exceeds savings", result.PaybackMonths)
	}
}
