package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKindThroughWrapping(t *testing.T) {
	base := InvalidState("checklist", 12, "locked", "no edits after lock")
	wrapped := fmt.Errorf("confirm checklist: %w", base)

	if !IsKind(wrapped, KindInvalidState) {
		t.Fatal("expected invalid_state through wrapping")
	}
	if IsKind(wrapped, KindNotFound) {
		t.Fatal("wrong kind should not match")
	}
	if IsKind(errors.New("plain"), KindInvalidState) {
		t.Fatal("plain errors carry no kind")
	}
}

func TestFromExtractsDetails(t *testing.T) {
	err := fmt.Errorf("reserve: %w", IneligibleBale(
		BaleFailure{BaleID: 3, Reason: "lab grading pending"},
		BaleFailure{BaleID: 9, Reason: "already reserved on another checklist"},
	))

	ae, ok := From(err)
	if !ok {
		t.Fatal("expected an *Error inside the chain")
	}
	if ae.Kind != KindIneligibleBale {
		t.Fatalf("kind = %s, want %s", ae.Kind, KindIneligibleBale)
	}
	if len(ae.Failures) != 2 || ae.Failures[1].BaleID != 9 {
		t.Fatalf("failures not preserved: %+v", ae.Failures)
	}

	if _, ok := From(errors.New("plain")); ok {
		t.Fatal("plain errors should not extract")
	}
}

func TestErrorString(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{NotFound("lot", 4), "not_found: lot 4: record not found"},
		{InvalidState("checklist", 7, "confirmed", "already confirmed"),
			"invalid_state: checklist 7 (state confirmed): already confirmed"},
		{PermissionDenied("lab role required"), "permission_denied: lab role required"},
		{InvalidTransition("shipment", 2, "pending", "shipped"),
			"invalid_transition: shipment 2 (state pending): cannot move from pending to shipped"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}
