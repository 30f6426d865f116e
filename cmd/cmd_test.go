package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture creates a survey, a day of 15 minute load data, hourly prices
// and a config pointing at them.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	survey := `rows:
  - {respondent_id: r1, appliance: dishwasher, duration_answer: 3_6h, incentive_answer: fixed}
  - {respondent_id: r2, appliance: dishwasher, duration_hours: 1, incentive_answer: conditional, required_incentive_pct: 15}
  - {respondent_id: r3, appliance: dishwasher, duration_answer: never, incentive_answer: refuse}
`
	var load, prices strings.Builder
	load.WriteString("timestamp,dishwasher\n")
	prices.WriteString("timestamp,price\n")
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 96; i++ {
		ts := day.Add(time.Duration(i) * 15 * time.Minute)
		fmt.Fprintf(&load, "%s,0.8\n", ts.Format(time.RFC3339))
		if i%4 == 0 {
			price := 60
			if ts.Hour() >= 17 && ts.Hour() < 19 {
				price = 250
			}
			fmt.Fprintf(&prices, "%s,%d\n", ts.Format(time.RFC3339), price)
		}
	}
	files := map[string]string{
		"survey.yaml": survey,
		"load.csv":    load.String(),
		"prices.csv":  prices.String(),
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	cfg := fmt.Sprintf(`logging:
  level: error
inputs:
  survey: %[1]s/survey.yaml
  load: %[1]s/load.csv
  prices: %[1]s/prices.csv
scenario:
  event:
    start: "2024-01-15T17:00:00Z"
    end: "2024-01-15T18:00:00Z"
    incentive_pct: 20
  costs:
    household_price_per_kwh: 0.25
  sweep:
    durations_h: [1, 2]
    incentives_pct: [0, 20]
    workers: 2
`, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	outFormat, outPath, noProgress = "json", "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestEvaluateCommand(t *testing.T) {
	cfg := writeFixture(t)
	out := run(t, "evaluate", "--config", cfg)

	var report struct {
		ID                string  `json:"id"`
		ShiftedKWh        float64 `json:"shifted_kwh"`
		ParticipationRate float64 `json:"participation_rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.ID)
	// r1 tolerates and accepts, r2 requires 15 % and gets 20 %, r3 refuses.
	assert.InDelta(t, 2.0/3, report.ParticipationRate, 1e-9)
	assert.InDelta(t, 0.8*2.0/3, report.ShiftedKWh, 1e-9)
}

func TestSweepCommandCSV(t *testing.T) {
	cfg := writeFixture(t)
	outFile := filepath.Join(t.TempDir(), "sweep.csv")
	run(t, "sweep", "--config", cfg, "--format", "csv", "--out", outFile, "--no-progress")

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "duration_h", rows[0][0])
	assert.Equal(t, []string{"1", "0"}, rows[1][:2])
	assert.Equal(t, []string{"2", "20"}, rows[4][:2])
}

func TestSolveCommand(t *testing.T) {
	cfg := writeFixture(t)
	out := run(t, "solve", "--config", cfg)
	var sol struct {
		Status     string `json:"status"`
		Iterations int    `json:"iterations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sol))
	assert.Contains(t, []string{"converged", "exhausted"}, sol.Status)
	assert.GreaterOrEqual(t, sol.Iterations, 1)
}

func TestUnknownFormat(t *testing.T) {
	cfg := writeFixture(t)
	outFormat = "xml"
	rootCmd.SetArgs([]string{"evaluate", "--config", cfg, "--format", "xml"})
	assert.Error(t, rootCmd.Execute())
}
