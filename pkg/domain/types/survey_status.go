package types

import "fmt"

// SurveyStatus tracks whether the feedback survey was delivered for an
// approved introduction
type SurveyStatus string

const (
	SurveyStatusPending SurveyStatus = "PENDING"
	SurveyStatusSent    SurveyStatus = "SENT"
)

// IsValid checks if the survey status is valid
func (s SurveyStatus) IsValid() bool {
	switch s {
	case SurveyStatusPending, SurveyStatusSent:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as SurveyStatusPending
func (s SurveyStatus) Normalize() SurveyStatus {
	if s == "" {
		return SurveyStatusPending
	}
	return s
}

// String returns the string representation of the survey status
func (s SurveyStatus) String() string {
	return string(s)
}

// ParseSurveyStatus parses a string into a SurveyStatus
func ParseSurveyStatus(s string) (SurveyStatus, error) {
	status := SurveyStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid survey status: %s", s)
	}
	return status, nil
}
