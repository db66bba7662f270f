package models

import (
	"reflect"
	"testing"
)

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(nil)
	if s.TotalToys != 0 || s.TotalWeight != 0 || s.MarkasCount != 0 || s.AverageWeight != 0 {
		t.Fatalf("empty checklist should summarize to zeros, got %+v", s)
	}
	if len(s.Lots) != 0 || len(s.Grades) != 0 {
		t.Fatalf("empty checklist should have no breakdowns, got %+v", s)
	}
}

func TestBuildSummaryAggregates(t *testing.T) {
	items := []ChecklistItem{
		{BaleID: 1, LotID: 5, NetWeight: 50, Grade: "A"},
		{BaleID: 2, LotID: 3, NetWeight: 48, Grade: "B"},
		{BaleID: 3, LotID: 5, NetWeight: 52, Grade: "A"},
		{BaleID: 4, LotID: 3, NetWeight: 50, Grade: "A"},
	}
	s := BuildSummary(items)

	if s.TotalToys != 4 {
		t.Fatalf("total toys = %d, want 4", s.TotalToys)
	}
	if s.TotalWeight != 200 {
		t.Fatalf("total weight = %v, want 200", s.TotalWeight)
	}
	if s.AverageWeight != 50 {
		t.Fatalf("average weight = %v, want 50", s.AverageWeight)
	}
	if s.MarkasCount != 2 {
		t.Fatalf("markas count = %d, want 2", s.MarkasCount)
	}
	wantLots := []LotBreakdown{
		{LotID: 3, Toys: 2, Weight: 98},
		{LotID: 5, Toys: 2, Weight: 102},
	}
	if !reflect.DeepEqual(s.Lots, wantLots) {
		t.Fatalf("lot breakdown = %+v, want %+v", s.Lots, wantLots)
	}
	wantGrades := map[string]int{"A": 3, "B": 1}
	if !reflect.DeepEqual(s.Grades, wantGrades) {
		t.Fatalf("grades = %v, want %v", s.Grades, wantGrades)
	}
}

func TestLotStatusAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{LotDraft, LotActive, true},
		{LotActive, LotPaused, true},
		{LotPaused, LotActive, true},
		{LotActive, LotClosed, true},
		{LotPaused, LotClosed, true},
		{LotDraft, LotClosed, false},
		{LotClosed, LotActive, false},
		{LotClosed, LotDraft, false},
		{LotActive, LotDraft, false},
	}
	for _, c := range cases {
		if got := LotStatusAllowed(c.from, c.to); got != c.want {
			t.Errorf("LotStatusAllowed(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
