// Package regulatory embeds the statutory Fio B escalation schedule used
// when a tenant has no override on file.
package regulatory

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"

	"helios/contexts/proposal-core/financial-engine/domain/calc"
	"helios/contexts/proposal-core/financial-engine/domain/entities"
)

//go:embed fiob_schedule.yaml
var scheduleYAML []byte

type scheduleFile struct {
	Metadata struct {
		RuleSet         string `yaml:"rule_set"`
		ScheduleVersion string `yaml:"schedule_version"`
	} `yaml:"metadata"`
	GroupB scheduleEntry `yaml:"group_b"`
	GroupA scheduleEntry `yaml:"group_a"`
}

type scheduleEntry struct {
	BaseYear    int     `yaml:"base_year"`
	BasePercent float64 `yaml:"base_percent"`
	Steps       []struct {
		Year    int     `yaml:"year"`
		Percent float64 `yaml:"percent"`
	} `yaml:"steps"`
}

// DefaultFeeContext returns the statutory schedule for a tariff group. The
// payload is embedded at build time; a malformed file is a programming
// error and fails loudly.
func DefaultFeeContext(group entities.TariffGroup) entities.FeeContext {
	var file scheduleFile
	if err := yaml.Unmarshal(scheduleYAML, &file); err != nil {
		panic(fmt.Sprintf("regulatory: embedded schedule is malformed: %v", err))
	}

	entry := file.GroupB
	if group == entities.TariffGroupA {
		entry = file.GroupA
	}

	schedule := entities.FeeSchedule{
		BaseYear:    entry.BaseYear,
		BasePercent: entry.BasePercent,
	}
	for _, step := range entry.Steps {
		schedule.Steps = append(schedule.Steps, entities.FeeStep{
			Year:    step.Year,
			Percent: step.Percent,
		})
	}
	return entities.FeeContext{
		RuleSet:         file.Metadata.RuleSet,
		ScheduleVersion: file.Metadata.ScheduleVersion,
		Schedule:        schedule,
		FirstYearPct:    calc.ResolveFeePercent(schedule, 1),
	}
}
