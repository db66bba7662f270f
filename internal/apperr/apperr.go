package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies domain failures so handlers can map them to HTTP codes
// and the UI can decide whether a retry makes sense.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindIneligibleBale    Kind = "ineligible_bale"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindDuplicateRequest  Kind = "duplicate_request"
	KindInvalidTransition Kind = "invalid_transition"
	KindPermissionDenied  Kind = "permission_denied"
	KindValidation        Kind = "validation"
)

// BaleFailure reports why a single bale was rejected from a batch reservation.
type BaleFailure struct {
	BaleID int    `json:"bale_id"`
	Reason string `json:"reason"`
}

// Error carries the failing entity and its state at the time of the failure.
// None of the constructors swallow context: callers always learn which record
// blocked them and why.
type Error struct {
	Kind     Kind          `json:"kind"`
	Entity   string        `json:"entity,omitempty"`
	ID       int           `json:"id,omitempty"`
	State    string        `json:"state,omitempty"`
	Message  string        `json:"message"`
	Failures []BaleFailure `json:"failures,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
		if e.ID != 0 {
			fmt.Fprintf(&b, " %d", e.ID)
		}
	}
	if e.State != "" {
		fmt.Fprintf(&b, " (state %s)", e.State)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// From extracts the *Error from err, if any.
func From(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

func NotFound(entity string, id int) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "record not found"}
}

func InvalidState(entity string, id int, state, msg string) *Error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, State: state, Message: msg}
}

func IneligibleBale(failures ...BaleFailure) *Error {
	return &Error{Kind: KindIneligibleBale, Entity: "bale", Message: "one or more bales are not eligible", Failures: failures}
}

func CapacityExceeded(lotID, capacity int) *Error {
	return &Error{Kind: KindCapacityExceeded, Entity: "lot", ID: lotID,
		Message: fmt.Sprintf("lot is full (capacity %d)", capacity)}
}

func DuplicateRequest(checklistID int) *Error {
	return &Error{Kind: KindDuplicateRequest, Entity: "checklist", ID: checklistID,
		Message: "a pending modification request already exists"}
}

func InvalidTransition(entity string, id int, from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Entity: entity, ID: id, State: from,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to)}
}

func PermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
