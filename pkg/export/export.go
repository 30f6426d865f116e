// Package export writes evaluation results, equilibrium solutions and sweep
// tables as JSON or CSV. Money columns are rounded to cents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/drflex/core/equilibrium"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/scenario"
)

// Format selects the output encoding.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case JSON:
		return JSON, nil
	case CSV:
		return CSV, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Money rounds a euro amount to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Costs is CostBreakdown with money rounding applied.
type Costs struct {
	BaselineMarketCost decimal.Decimal `json:"baseline_market_cost"`
	ScenarioMarketCost decimal.Decimal `json:"scenario_market_cost"`
	MarketSavings      decimal.Decimal `json:"market_savings"`
	IncentiveCost      decimal.Decimal `json:"incentive_cost"`
	BalancingSavings   decimal.Decimal `json:"balancing_savings"`
	NetValue           decimal.Decimal `json:"net_value"`
}

func costs(c model.CostBreakdown) Costs {
	return Costs{
		BaselineMarketCost: Money(c.BaselineMarketCost),
		ScenarioMarketCost: Money(c.ScenarioMarketCost),
		MarketSavings:      Money(c.MarketSavings),
		IncentiveCost:      Money(c.IncentiveCost),
		BalancingSavings:   Money(c.BalancingSavings),
		NetValue:           Money(c.NetValue),
	}
}

// Report is the exported form of one evaluation.
type Report struct {
	ID                string                         `json:"id,omitempty"`
	EventStart        time.Time                      `json:"event_start"`
	EventEnd          time.Time                      `json:"event_end"`
	DurationH         float64                        `json:"duration_h"`
	IncentivePct      float64                        `json:"incentive_pct"`
	Unit              model.PowerUnit                `json:"unit"`
	ParticipationRate float64                        `json:"participation_rate"`
	Participation     map[string]model.Participation `json:"participation"`
	ShiftedKWh        float64                        `json:"shifted_kwh"`
	ApplianceKWh      map[string]float64             `json:"appliance_kwh"`
	Costs             Costs                          `json:"costs"`
	Baseline          model.TimeSeries               `json:"baseline"`
	Scenario          model.TimeSeries               `json:"scenario"`
}

// NewReport builds the exported form of res.
func NewReport(id string, res model.SimulationResult) Report {
	return Report{
		ID:                id,
		EventStart:        res.Event.Start,
		EventEnd:          res.Event.End,
		DurationH:         res.Event.DurationH(),
		IncentivePct:      res.Event.IncentivePct,
		Unit:              res.Unit,
		ParticipationRate: res.ParticipationRate,
		Participation:     res.Participation,
		ShiftedKWh:        res.ShiftedKWh,
		ApplianceKWh:      res.ApplianceKWh,
		Costs:             costs(res.Costs),
		Baseline:          res.Baseline,
		Scenario:          res.Scenario,
	}
}

// WriteResult writes one evaluation. CSV output is the time series table:
// baseline, scenario and the shifted power of every appliance.
func WriteResult(w io.Writer, f Format, id string, res model.SimulationResult) error {
	if f == CSV {
		return writeSeriesCSV(w, res)
	}
	return writeJSON(w, NewReport(id, res))
}

func writeSeriesCSV(w io.Writer, res model.SimulationResult) error {
	apps := res.Appliances()
	header := []string{"timestamp", "baseline_" + string(res.Unit), "scenario_" + string(res.Unit)}
	for _, a := range apps {
		header = append(header, "shifted_"+a)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, ts := range res.Baseline.Times {
		rec := []string{ts.Format(time.RFC3339), formatFloat(res.Baseline.Values[i]), at(res.Scenario, i)}
		for _, a := range apps {
			rec = append(rec, at(res.Shifted[a], i))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SolutionReport is the exported form of an equilibrium search.
type SolutionReport struct {
	ID              string             `json:"id"`
	Status          equilibrium.Status `json:"status"`
	CompensationPct float64            `json:"compensation_pct"`
	Iterations      int                `json:"iterations"`
	History         []equilibrium.Step `json:"history"`
	Result          Report             `json:"result"`
}

// WriteSolution writes an equilibrium solution. CSV output is the iteration
// history.
func WriteSolution(w io.Writer, f Format, s equilibrium.Solution) error {
	if f == JSON {
		return writeJSON(w, SolutionReport{
			ID:              s.ID,
			Status:          s.Status,
			CompensationPct: s.CompensationPct,
			Iterations:      s.Iterations,
			History:         s.History,
			Result:          NewReport("", s.Result),
		})
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"iteration", "guess_pct", "value_per_kwh", "candidate_pct", "next_pct", "shifted_kwh"}); err != nil {
		return err
	}
	for _, st := range s.History {
		rec := []string{
			strconv.Itoa(st.Iteration),
			formatFloat(st.GuessPct),
			decimal.NewFromFloat(st.ValuePerKWh).Round(4).String(),
			formatFloat(st.CandidatePct),
			formatFloat(st.NextPct),
			formatFloat(st.ShiftedKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SweepRow is one combination of a sweep table.
type SweepRow struct {
	EvaluationID      string  `json:"evaluation_id,omitempty"`
	DurationH         float64 `json:"duration_h"`
	IncentivePct      float64 `json:"incentive_pct"`
	ParticipationRate float64 `json:"participation_rate"`
	ShiftedKWh        float64 `json:"shifted_kwh"`
	Costs             Costs   `json:"costs"`
	Error             string  `json:"error,omitempty"`
}

// SweepTable flattens a sweep result in grid order.
func SweepTable(r scenario.SweepResult) []SweepRow {
	rows := make([]SweepRow, len(r.Entries))
	for i, e := range r.Entries {
		row := SweepRow{
			EvaluationID: e.EvaluationID,
			DurationH:    e.DurationH,
			IncentivePct: e.IncentivePct,
		}
		if e.Err != nil {
			row.Error = e.Err.Error()
		} else {
			row.ParticipationRate = e.Result.ParticipationRate
			row.ShiftedKWh = e.Result.ShiftedKWh
			row.Costs = costs(e.Result.Costs)
		}
		rows[i] = row
	}
	return rows
}

// WriteSweep writes a sweep table.
func WriteSweep(w io.Writer, f Format, r scenario.SweepResult) error {
	rows := SweepTable(r)
	if f == JSON {
		return writeJSON(w, struct {
			ID      string     `json:"id"`
			Failed  int        `json:"failed"`
			Entries []SweepRow `json:"entries"`
		}{r.ID, r.Failed, rows})
	}
	cw := csv.NewWriter(w)
	header := []string{"duration_h", "incentive_pct", "participation_rate", "shifted_kwh",
		"market_savings", "incentive_cost", "balancing_savings", "net_value", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			formatFloat(row.DurationH),
			formatFloat(row.IncentivePct),
			formatFloat(row.ParticipationRate),
			formatFloat(row.ShiftedKWh),
			row.Costs.MarketSavings.StringFixed(2),
			row.Costs.IncentiveCost.StringFixed(2),
			row.Costs.BalancingSavings.StringFixed(2),
			row.Costs.NetValue.StringFixed(2),
			row.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func at(s model.TimeSeries, i int) string {
	if i >= len(s.Values) {
		return ""
	}
	return formatFloat(s.Values[i])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
