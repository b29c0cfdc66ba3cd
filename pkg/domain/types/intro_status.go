package types

import "fmt"

// IntroStatus represents the approval lifecycle state of an introduction
type IntroStatus string

const (
	IntroStatusPendingApproval IntroStatus = "PENDING_APPROVAL"
	IntroStatusTellMeMore      IntroStatus = "TELL_ME_MORE"
	IntroStatusApproved        IntroStatus = "APPROVED"
)

// AllIntroStatuses returns all valid introduction statuses
func AllIntroStatuses() []IntroStatus {
	return []IntroStatus{
		IntroStatusPendingApproval,
		IntroStatusTellMeMore,
		IntroStatusApproved,
	}
}

// IsValid checks if the introduction status is valid
func (s IntroStatus) IsValid() bool {
	switch s {
	case IntroStatusPendingApproval,
		IntroStatusTellMeMore,
		IntroStatusApproved:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status accepts no further transitions
func (s IntroStatus) IsTerminal() bool {
	return s == IntroStatusApproved
}

// CanTransitionTo reports whether moving from s to next follows the
// approval state machine. Approved accepts nothing; PendingApproval and
// TellMeMore may move to each other or to Approved. A self-transition on
// PendingApproval is allowed (re-submit of a validated introduction).
func (s IntroStatus) CanTransitionTo(next IntroStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case IntroStatusPendingApproval:
		return next == IntroStatusPendingApproval ||
			next == IntroStatusTellMeMore ||
			next == IntroStatusApproved
	case IntroStatusTellMeMore:
		return next == IntroStatusPendingApproval ||
			next == IntroStatusApproved
	default:
		return false
	}
}

// String returns the string representation of the introduction status
func (s IntroStatus) String() string {
	return string(s)
}

// ParseIntroStatus parses a string into an IntroStatus
func ParseIntroStatus(s string) (IntroStatus, error) {
	status := IntroStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid introduction status: %s", s)
	}
	return status, nil
}
