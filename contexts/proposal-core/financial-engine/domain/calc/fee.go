package calc

import (
	"sort"

	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

// ResolveFeePercent returns the Fio B percentage in effect for the given
// projection year (1-based). The relative year is converted to a calendar
// year against the schedule base year, and the latest step whose year is not
// after it wins. Unsorted, duplicate-year and empty step lists are tolerated;
// with no qualifying step the base percent applies.
func ResolveFeePercent(schedule entities.FeeSchedule, projectionYear int) float64 {
	calendarYear := schedule.BaseYear + projectionYear - 1

	steps := make([]entities.FeeStep, len(schedule.Steps))
	copy(steps, schedule.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Year > steps[j].Year
	})

	for _, step := range steps {
		if step.Year <= calendarYear {
			return step.Percent
		}
	}
	return schedule.BasePercent
}
