package calc

import (
	"testing"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

func TestResolveFeePercentPicksLatestQualifyingStep(t *testing.T) {
	schedule := entities.FeeSchedule{
		BaseYear:    2023,
		BasePercent: 0.15,
		// Deliberately unsorted.
		Steps: []entities.FeeStep{
			{Year: 2024, Percent: 0.30},
			{Year: 2026, Percent: 0.60},
			{Year: 2025, Percent: 0.45},
		},
	}

	cases := []struct {
		projectionYear int
		want           float64
	}{
		{1, 0.15}, // calendar 2023, before every step
		{2, 0.30}, // 2024
		{3, 0.45}, // 2025
		{4, 0.60}, // 2026
		{10, 0.60},
		{25, 0.60},
	}
	for _, tc := range cases {
		got := ResolveFeePercent(schedule, tc.projectionYear)
		if got != tc.want {
			t.Fatalf("projection year %d: got %v, want %v", tc.projectionYear, got, tc.want)
		}
	}
}

func TestResolveFeePercentEmptyStepsFallsBackToBase(t *testing.T) {
	schedule := entities.FeeSchedule{BaseYear: 2023, BasePercent: 0.28}
	if got := ResolveFeePercent(schedule, 7); got != 0.28 {
		t.Fatalf("got %v, want base percent 0.28", got)
	}
}

func TestResolveFeePercentDuplicateYearsKeepFirstListed(t *testing.T) {
	schedule := entities.FeeSchedule{
		BaseYear:    2023,
		BasePercent: 0.15,
		Steps: []entities.FeeStep{
			{Year: 2024, Percent: 0.30},
			{Year: 2024, Percent: 0.99},
		},
	}
	if got := ResolveFeePercent(schedule, 2); got != 0.30 {
		t.Fatalf("got %v, want first listed step 0.30", got)
	}
}

func TestResolveFeePercentDoesNotMutateSchedule(t *testing.T) {
	steps := []entities.FeeStep{
		{Year: 2026, Percent: 0.60},
		{Year: 2024, Percent: 0.30},
	}
	schedule := entities.FeeSchedule{BaseYear: 2023, BasePercent: 0.15, Steps: steps}
	_ = ResolveFeePercent(schedule, 5)
	if steps[0].Year != 2026 || steps[1].Year != 2024 {
		t.Fatalf("resolver reordered the caller's schedule: %+v", steps)
	}
}
