package survey

import (
	"fmt"
	"sort"
	"strings"
)

// DurationBuckets maps ordinal survey answers about tolerable switch-off time
// to representative hours. The hour values are calibration choices, not
// measurements, so the table is configuration.
type DurationBuckets map[string]float64

// DefaultDurationBuckets returns the reference bucket table.
func DefaultDurationBuckets() DurationBuckets {
	return DurationBuckets{
		"never":  0,
		"lt_1h":  0.5,
		"1_3h":   2,
		"3_6h":   4.5,
		"6_12h":  9,
		"gt_12h": 12,
	}
}

// Hours returns the representative hours for an answer. Lookups ignore case
// and surrounding whitespace.
func (b DurationBuckets) Hours(answer string) (float64, bool) {
	key := strings.ToLower(strings.TrimSpace(answer))
	if key == "" {
		return 0, false
	}
	h, ok := b[key]
	return h, ok
}

// Validate rejects negative hour values.
func (b DurationBuckets) Validate() error {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if b[k] < 0 {
			return fmt.Errorf("duration bucket %s has negative hours", k)
		}
	}
	return nil
}
