package config

import (
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// LearningWeek is one week of the learning plan delivered to the
// matching install-age cohort.
type LearningWeek struct {
	Title string
	Items []string
}

// PairUpConfig controls the peer matchmaking cycle
type PairUpConfig struct {
	// RetentionThresholdDays splits tenured employees from recent hires
	RetentionThresholdDays int
	// IntervalHours is the scheduling interval of the pair-up driver
	IntervalHours int
}

// SurveyConfig controls the feedback survey cycle
type SurveyConfig struct {
	// BatchSize is the number of surveys sent per batch
	BatchSize int
	// HRTeamID receives the monthly feedback summary
	HRTeamID types.TeamID
}

// OnboardingConfig is the domain view of the application configuration
type OnboardingConfig struct {
	Questions     []string
	LearningWeeks []LearningWeek
	PairUp        PairUpConfig
	Survey        SurveyConfig
}
