package model

import "strings"

// IncentiveMode describes how a respondent wants to be compensated for
// switching an appliance off.
type IncentiveMode int

const (
	IncentiveUnknown IncentiveMode = iota
	IncentiveFixed
	IncentiveConditional
	IncentiveRefuse
)

// String returns the lower-case name used in datasets and logs.
func (m IncentiveMode) String() string {
	switch m {
	case IncentiveFixed:
		return "fixed"
	case IncentiveConditional:
		return "conditional"
	case IncentiveRefuse:
		return "refuse"
	default:
		return "unknown"
	}
}

// ParseIncentiveMode maps a dataset value to an IncentiveMode. Anything not
// recognised is IncentiveUnknown.
func ParseIncentiveMode(s string) IncentiveMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return IncentiveFixed
	case "conditional":
		return IncentiveConditional
	case "refuse", "refused", "no":
		return IncentiveRefuse
	default:
		return IncentiveUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m IncentiveMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *IncentiveMode) UnmarshalText(b []byte) error {
	*m = ParseIncentiveMode(string(b))
	return nil
}

// FlexibilityRecord is the normalised survey answer of one respondent for one
// appliance. Records are immutable once built.
type FlexibilityRecord struct {
	RespondentID string        `json:"respondent_id" yaml:"respondent_id"`
	Appliance    string        `json:"appliance" yaml:"appliance"`
	Mode         IncentiveMode `json:"incentive_mode" yaml:"incentive_mode"`
	// MaxDurationH is the longest tolerated switch-off in hours, nil if unknown.
	MaxDurationH *float64 `json:"max_tolerable_duration_h" yaml:"max_tolerable_duration_h"`
	// RequiredPct is only set for conditional records; it is 0 for fixed ones.
	RequiredPct *float64 `json:"required_incentive_pct" yaml:"required_incentive_pct"`
}

// NewFlexibilityRecord builds a record enforcing the incentive invariant:
// the required percentage only survives for conditional records and is
// forced to zero for fixed ones.
func NewFlexibilityRecord(respondent, appliance string, mode IncentiveMode, maxDurationH, requiredPct *float64) FlexibilityRecord {
	r := FlexibilityRecord{
		RespondentID: respondent,
		Appliance:    appliance,
		Mode:         mode,
		MaxDurationH: copyFloat(maxDurationH),
	}
	switch mode {
	case IncentiveFixed:
		r.RequiredPct = Float(0)
	case IncentiveConditional:
		r.RequiredPct = copyFloat(requiredPct)
	}
	return r
}

// ToleratesDuration reports whether the stated off-duration covers durationH.
// A stated duration of exactly zero only covers a zero-length event.
func (r FlexibilityRecord) ToleratesDuration(durationH float64) bool {
	if r.MaxDurationH == nil {
		return false
	}
	max := *r.MaxDurationH
	if max == 0 {
		return durationH <= 0
	}
	return max >= durationH
}

// AcceptsIncentive reports whether an offered compensation of incentivePct
// percent satisfies the record's incentive condition.
func (r FlexibilityRecord) AcceptsIncentive(incentivePct float64) bool {
	switch r.Mode {
	case IncentiveFixed:
		return true
	case IncentiveConditional:
		return r.RequiredPct != nil && *r.RequiredPct <= incentivePct
	default:
		return false
	}
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
