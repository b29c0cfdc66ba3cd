package usecase

import "errors"

// Sentinel errors for the workflow layer. These surface conditions the
// bot layer shows to the user as-is; none of them is retried.
var (
	ErrManagerNotFound      = errors.New("manager not found")
	ErrManagerUnavailable   = errors.New("manager has no stored conversation")
	ErrNewHireUnavailable   = errors.New("new hire has no stored conversation")
	ErrIntroductionNotFound = errors.New("introduction not found")
	ErrTeamNotFound         = errors.New("team not found")
)

// Context keys for error values
const (
	NewHireIDKey = "new_hire_id"
	ManagerIDKey = "manager_id"
	TeamIDKey    = "team_id"
)
