package models

import "testing"

func TestBaleEligibility(t *testing.T) {
	cases := []struct {
		name       string
		bale       Bale
		eligible   bool
		wantReason string
	}{
		{"approved in stock", Bale{Status: BaleInStock, LabStatus: LabApproved}, true, ""},
		{"pending lab", Bale{Status: BaleInStock, LabStatus: LabPending}, false, "lab grading pending"},
		{"rejected by lab", Bale{Status: BaleInStock, LabStatus: LabRejected}, false, "rejected by lab"},
		{"reserved", Bale{Status: BaleReserved, LabStatus: LabApproved}, false, "already reserved on another checklist"},
		{"shipped", Bale{Status: BaleShipped, LabStatus: LabApproved}, false, "not in stock (status shipped)"},
		{"waste", Bale{Status: BaleWaste, LabStatus: LabApproved}, false, "not in stock (status waste)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.bale.Eligible(); got != c.eligible {
				t.Fatalf("Eligible() = %v, want %v", got, c.eligible)
			}
			if got := c.bale.IneligibleReason(); got != c.wantReason {
				t.Fatalf("IneligibleReason() = %q, want %q", got, c.wantReason)
			}
		})
	}
}
