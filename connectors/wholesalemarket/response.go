package wholesalemarket

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/drflex/core/model"
)

// Response is the France power exchanges payload.
type Response struct {
	FrancePowerExchanges []struct {
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		UpdatedDate string `json:"updated_date"`
		Values      []struct {
			StartDate string  `json:"start_date"`
			EndDate   string  `json:"end_date"`
			Value     float64 `json:"value"`
			Price     float64 `json:"price"`
		} `json:"values"`
	} `json:"france_power_exchanges"`
}

// PriceSeries flattens every exchange day into one EUR/MWh series sorted by
// start time. Duplicate start times keep the last value.
func (r *Response) PriceSeries() (model.PriceSeries, error) {
	byTime := make(map[time.Time]float64)
	for _, exchange := range r.FrancePowerExchanges {
		for _, v := range exchange.Values {
			ts, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return model.PriceSeries{}, fmt.Errorf("failed to parse time: %w", err)
			}
			byTime[ts.UTC()] = v.Price
		}
	}
	times := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	out := model.PriceSeries{
		TimeSeries: model.TimeSeries{Times: times, Values: make([]float64, len(times))},
		Unit:       model.EURPerMWh,
	}
	for i, ts := range times {
		out.Values[i] = byTime[ts]
	}
	return out, nil
}
