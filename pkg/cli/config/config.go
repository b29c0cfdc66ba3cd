package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/onramp/pkg/domain/model/config"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// AppConfig represents the application configuration loaded from TOML
type AppConfig struct {
	Questions     []Question     `toml:"question"`
	LearningWeeks []LearningWeek `toml:"learning_week"`
	PairUp        PairUp         `toml:"pair_up"`
	Survey        Survey         `toml:"survey"`
}

// Question is one entry of the active introduction question set
type Question struct {
	Text string `toml:"text"`
}

// LearningWeek is one week of the learning plan
type LearningWeek struct {
	Title string   `toml:"title"`
	Items []string `toml:"items"`
}

// Validate checks if the LearningWeek is valid
func (w *LearningWeek) Validate() error {
	if w.Title == "" {
		return goerr.New("learning week title is required")
	}
	if len(w.Items) == 0 {
		return goerr.New("learning week needs at least one item", goerr.V("title", w.Title))
	}
	return nil
}

// PairUp configures the matchmaking cycle
type PairUp struct {
	RetentionThresholdDays int `toml:"retention_threshold_days"`
	IntervalHours          int `toml:"interval_hours"`
}

// Validate checks if the PairUp config is valid
func (p *PairUp) Validate() error {
	if p.RetentionThresholdDays < 0 {
		return goerr.New("retention threshold cannot be negative", goerr.V("days", p.RetentionThresholdDays))
	}
	if p.IntervalHours < 0 {
		return goerr.New("pair-up interval cannot be negative", goerr.V("hours", p.IntervalHours))
	}
	return nil
}

// Survey configures the feedback survey cycle
type Survey struct {
	BatchSize int    `toml:"batch_size"`
	HRTeamID  string `toml:"hr_team_id"`
}

// Validate checks if the Survey config is valid
func (s *Survey) Validate() error {
	if s.BatchSize < 0 {
		return goerr.New("survey batch size cannot be negative", goerr.V("batch_size", s.BatchSize))
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if len(a.Questions) == 0 {
		return goerr.New("at least one introduction question is required")
	}
	seen := make(map[string]bool)
	for _, q := range a.Questions {
		if q.Text == "" {
			return goerr.New("question text is required")
		}
		if seen[q.Text] {
			return goerr.New("duplicate question", goerr.V("text", q.Text))
		}
		seen[q.Text] = true
	}

	for _, w := range a.LearningWeeks {
		if err := w.Validate(); err != nil {
			return goerr.Wrap(err, "invalid learning week")
		}
	}
	if err := a.PairUp.Validate(); err != nil {
		return goerr.Wrap(err, "invalid pair_up config")
	}
	if err := a.Survey.Validate(); err != nil {
		return goerr.Wrap(err, "invalid survey config")
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML
// file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", path))
	}

	return &config, nil
}

// ToDomainConfig converts AppConfig to the domain OnboardingConfig
func (a *AppConfig) ToDomainConfig() *domainConfig.OnboardingConfig {
	questions := make([]string, len(a.Questions))
	for i, q := range a.Questions {
		questions[i] = q.Text
	}

	weeks := make([]domainConfig.LearningWeek, len(a.LearningWeeks))
	for i, w := range a.LearningWeeks {
		weeks[i] = domainConfig.LearningWeek{
			Title: w.Title,
			Items: w.Items,
		}
	}

	return &domainConfig.OnboardingConfig{
		Questions:     questions,
		LearningWeeks: weeks,
		PairUp: domainConfig.PairUpConfig{
			RetentionThresholdDays: a.PairUp.RetentionThresholdDays,
			IntervalHours:          a.PairUp.IntervalHours,
		},
		Survey: domainConfig.SurveyConfig{
			BatchSize: a.Survey.BatchSize,
			HRTeamID:  types.TeamID(a.Survey.HRTeamID),
		},
	}
}
