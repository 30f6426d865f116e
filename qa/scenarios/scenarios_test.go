package scenarios

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	if err := os.WriteFile(path, []byte("name: min\nevent: {start_hour: 17, duration_h: 1.5}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.StepMinutes != 15 || sc.Assumptions.RealityDiscountFactor != 1 || sc.Costs.AvailabilityFactor != 1 {
		t.Fatalf("defaults not applied: %+v", sc)
	}
	ev := sc.Event.ToModel()
	if !ev.Start.Equal(Day.Add(17*time.Hour)) || ev.DurationH() != 1.5 {
		t.Fatalf("unexpected event %+v", ev)
	}
	in := sc.Inputs()
	if len(in.Prices.Times) != 96 || len(in.Load.Times) != 96 {
		t.Fatalf("expected a day of 15 minute steps, got %d prices", len(in.Prices.Times))
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString("name: [unterminated"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
