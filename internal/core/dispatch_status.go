package core

import (
	"fmt"
	"strings"
)

// DispatchStatus is the shipping state of a Dispatch.
type DispatchStatus string

const (
	StatusPending    DispatchStatus = "PENDING"
	StatusInProgress DispatchStatus = "IN_PROGRESS"
	StatusShipped    DispatchStatus = "SHIPPED"
	StatusDelivered  DispatchStatus = "DELIVERED"
	StatusReturned   DispatchStatus = "RETURNED"
)

// legacyStatusCodes maps the short codes used by older clients.
var legacyStatusCodes = map[string]DispatchStatus{
	"PEN": StatusPending,
	"PRG": StatusInProgress,
	"SHP": StatusShipped,
	"DLV": StatusDelivered,
	"RET": StatusReturned,
}

// statusRank orders the forward path. RETURNED sits outside it.
var statusRank = map[DispatchStatus]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// ParseDispatchStatus accepts full names (case-insensitive) or legacy short codes.
func ParseDispatchStatus(s string) (DispatchStatus, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if st, ok := legacyStatusCodes[up]; ok {
		return st, nil
	}
	st := DispatchStatus(up)
	if st.Valid() {
		return st, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

func (s DispatchStatus) Valid() bool {
	if s == StatusReturned {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s DispatchStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// CanEditTo reports whether an explicit status edit may move a dispatch from s to
// next. DELIVERED is never reachable by edit (only by receipt) and nothing leaves a
// terminal state. Re-asserting the current non-terminal status is allowed.
func (s DispatchStatus) CanEditTo(next DispatchStatus) bool {
	if s.Terminal() || !next.Valid() || next == StatusDelivered {
		return false
	}
	if next == StatusReturned {
		return true
	}
	return statusRank[next] >= statusRank[s]
}

// CanReceive reports whether a dispatch in status s may be received.
func (s DispatchStatus) CanReceive() bool {
	return !s.Terminal()
}

// InitialStatus is the status a new dispatch is first persisted with. A tracking
// number at creation marks it SHIPPED; later edits never apply this rule.
func InitialStatus(trackingNumber string) DispatchStatus {
	if strings.TrimSpace(trackingNumber) != "" {
		return StatusShipped
	}
	return StatusPending
}
