package calc

import (
	"errors"
	"math"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

var errNonFiniteInput = errors.New("calc inputs must be finite")

// ValidateInputs rejects ranges that could leak NaN or Infinity into a
// persisted snapshot. Rounding failures are prevented here, not caught later.
func ValidateInputs(in entities.CalcInputs) error {
	values := []float64{
		in.Investment, in.FirstYearMonthlySavings, in.MonthlyGenerationKWh,
		in.AvgTariff, in.EnergyInflationRate, in.EfficiencyLossRate,
		in.ReplacementCostPct, in.DiscountRate,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errNonFiniteInput
		}
	}
	if in.Investment < 0 || in.MonthlyGenerationKWh < 0 || in.AvgTariff < 0 {
		return errNonFiniteInput
	}
	if in.EfficiencyLossRate < 0 || in.EfficiencyLossRate >= 1 {
		return errNonFiniteInput
	}
	if in.DiscountRate <= -1 || in.EnergyInflationRate <= -1 {
		return errNonFiniteInput
	}
	return nil
}

// CalcSeries25 computes the 25-year row-by-row projection. Deterministic,
// no side effects; inputs must have passed ValidateInputs.
func CalcSeries25(in entities.CalcInputs) entities.CalcResult {
	series := make([]entities.SeriesRow, 0, entities.ProjectionYears)
	cashFlows := make([]float64, 0, entities.ProjectionYears)

	paybackYears := entities.PaybackNever
	cumulativeNet := 0.0
	cumulativeCash := -in.Investment
	npv := -in.Investment

	for year := 1; year <= entities.ProjectionYears; year++ {
		degradation := math.Pow(1-in.EfficiencyLossRate, float64(year-1))
		inflation := math.Pow(1+in.EnergyInflationRate, float64(year-1))

		tariff := Round2(in.AvgTariff * inflation)
		generatedKWh := Round2(in.MonthlyGenerationKWh * 12 * degradation)
		grossSavings := Round2(generatedKWh * tariff)

		feePercent := ResolveFeePercent(in.FeeSchedule, year)
		feeCost := Round2(generatedKWh * tariff * entities.GridUsageShare * feePercent)
		netSavings := Round2(grossSavings - feeCost)

		replacementCost := 0.0
		if year == in.ReplacementYear {
			replacementCost = in.Investment * in.ReplacementCostPct
		}
		cashFlow := Round2(netSavings - replacementCost)

		cumulativeNet = Round2(cumulativeNet + netSavings)
		cumulativeCash = Round2(cumulativeCash + cashFlow)
		presentValue := Round2(cashFlow / math.Pow(1+in.DiscountRate, float64(year)))
		npv = Round2(npv + presentValue)

		if paybackYears == entities.PaybackNever && cumulativeCash >= 0 {
			paybackYears = year
		}

		series = append(series, entities.SeriesRow{
			Year:               year,
			GeneratedKWh:       generatedKWh,
			Tariff:             tariff,
			Degradation:        Round4(degradation),
			GrossSavings:       grossSavings,
			FeeCost:            feeCost,
			NetSavings:         netSavings,
			CumulativeNet:      cumulativeNet,
			ReplacementCost:    Round2(replacementCost),
			CashFlow:           cashFlow,
			CumulativeCashFlow: cumulativeCash,
			PresentValue:       presentValue,
		})
		cashFlows = append(cashFlows, cashFlow)
	}

	paybackMonths := 0
	if in.FirstYearMonthlySavings > 0 {
		paybackMonths = int(math.Ceil(in.Investment / in.FirstYearMonthlySavings))
	}

	return entities.CalcResult{
		Series:           series,
		PaybackYears:     paybackYears,
		PaybackMonths:    paybackMonths,
		NPV:              npv,
		IRRPercent:       Round2(SolveIRR(in.Investment, cashFlows)),
		FirstYearSavings: series[0].NetSavings,
		TotalSavings:     cumulativeNet,
	}
}
