package domain

import "strings"

// Status is the closed set of booking states.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusTentative  Status = "tentative"
	StatusBlocked    Status = "blocked"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status, default first.
var Statuses = []Status{
	StatusConfirmed,
	StatusTentative,
	StatusBlocked,
	StatusPending,
	StatusInProgress,
	StatusDone,
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Normalize maps empty or unknown values to StatusConfirmed.
// "in-progress" and mixed case are accepted.
func (s Status) Normalize() Status {
	v := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(s))), "-", "_"))
	if v.Valid() {
		return v
	}
	return StatusConfirmed
}

// ParseStatus is Normalize with a flag telling whether the input was recognised.
func ParseStatus(s string) (Status, bool) {
	v := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if v.Valid() {
		return v, true
	}
	return StatusConfirmed, false
}
