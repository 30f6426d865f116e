// Package survey turns joined survey rows into FlexibilityRecords. Rows come
// from an external provider that has already joined the duration and the
// incentive questionnaires on respondent and appliance; a missing partner
// shows up as empty fields rather than a dropped row.
package survey

import (
	"sort"

	"github.com/kilianp07/drflex/core/model"
)

// Row is one joined survey answer.
type Row struct {
	RespondentID string `json:"respondent_id" yaml:"respondent_id"`
	Appliance    string `json:"appliance" yaml:"appliance"`
	// DurationAnswer is the ordinal bucket label. DurationHours, when set,
	// takes precedence.
	DurationAnswer  string   `json:"duration_answer" yaml:"duration_answer"`
	DurationHours   *float64 `json:"duration_hours" yaml:"duration_hours"`
	IncentiveAnswer string   `json:"incentive_answer" yaml:"incentive_answer"`
	RequiredPct     *float64 `json:"required_incentive_pct" yaml:"required_incentive_pct"`
}

// Normalize converts rows into records using the bucket table. Rows without
// an appliance are skipped.
func Normalize(rows []Row, buckets DurationBuckets) []model.FlexibilityRecord {
	if buckets == nil {
		buckets = DefaultDurationBuckets()
	}
	out := make([]model.FlexibilityRecord, 0, len(rows))
	for _, r := range rows {
		if r.Appliance == "" {
			continue
		}
		var dur *float64
		switch {
		case r.DurationHours != nil && *r.DurationHours >= 0:
			dur = model.Float(*r.DurationHours)
		default:
			if h, ok := buckets.Hours(r.DurationAnswer); ok {
				dur = model.Float(h)
			}
		}
		mode := model.ParseIncentiveMode(r.IncentiveAnswer)
		out = append(out, model.NewFlexibilityRecord(r.RespondentID, r.Appliance, mode, dur, r.RequiredPct))
	}
	return out
}

// Appliances returns the distinct appliances in sorted order.
func Appliances(records []model.FlexibilityRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Appliance] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ForAppliance filters records to one appliance.
func ForAppliance(records []model.FlexibilityRecord, appliance string) []model.FlexibilityRecord {
	var out []model.FlexibilityRecord
	for _, r := range records {
		if r.Appliance == appliance {
			out = append(out, r)
		}
	}
	return out
}

// PositiveDurations returns the strictly positive stated durations for an
// appliance.
func PositiveDurations(records []model.FlexibilityRecord, appliance string) []float64 {
	var out []float64
	for _, r := range records {
		if r.Appliance != appliance || r.MaxDurationH == nil {
			continue
		}
		if d := *r.MaxDurationH; d > 0 {
			out = append(out, d)
		}
	}
	return out
}
