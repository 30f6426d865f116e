package model

import (
	"reflect"
	"testing"
	"time"
)

func TestResultAppliances(t *testing.T) {
	res := EmptyResult(EventParameters{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}, KW)
	if got := res.Appliances(); len(got) != 0 {
		t.Fatalf("expected no appliances, got %v", got)
	}
	res.Participation["washing_machine"] = Participation{BasePopulation: 2}
	res.Shifted["dishwasher"] = TimeSeries{}
	res.Shifted["washing_machine"] = TimeSeries{}
	want := []string{"dishwasher", "washing_machine"}
	if got := res.Appliances(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
