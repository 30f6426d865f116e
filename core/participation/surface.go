package participation

// Surface is a participation-rate grid over durations (rows) and offered
// incentives (columns).
type Surface struct {
	Appliance  string      `json:"appliance"`
	Durations  []float64   `json:"durations_h"`
	Incentives []float64   `json:"incentives_pct"`
	Rates      [][]float64 `json:"rates"`
}

// Surface evaluates the model on every (duration, incentive) pair.
func (m *Model) Surface(appliance string, durations, incentives []float64) Surface {
	s := Surface{
		Appliance:  appliance,
		Durations:  append([]float64(nil), durations...),
		Incentives: append([]float64(nil), incentives...),
		Rates:      make([][]float64, len(durations)),
	}
	for i, d := range durations {
		row := make([]float64, len(incentives))
		for j, pct := range incentives {
			row[j] = m.Participation(appliance, d, pct).Rate
		}
		s.Rates[i] = row
	}
	return s
}
