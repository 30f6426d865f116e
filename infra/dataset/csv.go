package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// parseTime accepts RFC3339 and the common spreadsheet layouts; zoneless
// values are read in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// table is a parsed CSV file: a header row and rows sorted by timestamp.
type table struct {
	header []string
	times  []time.Time
	rows   [][]string
}

func (t table) column(name string) int {
	for i, h := range t.header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// readTable reads a CSV whose first column is a timestamp.
func readTable(path string, comma rune, loc *time.Location) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer func() { _ = f.Close() }()
	return parseTable(f, comma, loc)
}

func parseTable(r io.Reader, comma rune, loc *time.Location) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if comma != 0 {
		cr.Comma = comma
	}
	raw, err := cr.ReadAll()
	if err != nil {
		return table{}, err
	}
	if len(raw) == 0 {
		return table{}, fmt.Errorf("empty csv")
	}
	t := table{header: raw[0]}
	type row struct {
		ts  time.Time
		rec []string
	}
	rows := make([]row, 0, len(raw)-1)
	for i, rec := range raw[1:] {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		ts, err := parseTime(rec[0], loc)
		if err != nil {
			return table{}, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, row{ts: ts, rec: rec})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })
	for _, r := range rows {
		t.times = append(t.times, r.ts)
		t.rows = append(t.rows, r.rec)
	}
	return t, nil
}

// window returns the row range inside [start, end). With keepPrior set the
// last row before start is included so forward fill has a seed. Zero bounds
// are open.
func (t table) window(start, end time.Time, keepPrior bool) (int, int) {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(t.times), func(i int) bool { return !t.times[i].Before(start) })
		if keepPrior && lo > 0 && (lo == len(t.times) || t.times[lo].After(start)) {
			lo--
		}
	}
	hi := len(t.times)
	if !end.IsZero() {
		hi = sort.Search(len(t.times), func(i int) bool { return !t.times[i].Before(end) })
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (t table) float(row, col int) (float64, error) {
	if col < 0 || col >= len(t.rows[row]) {
		return 0, nil
	}
	v, err := parseFloat(t.rows[row][col])
	if err != nil {
		return 0, fmt.Errorf("%s at %s: %w", t.header[col], t.times[row].Format(time.RFC3339), err)
	}
	return v, nil
}
