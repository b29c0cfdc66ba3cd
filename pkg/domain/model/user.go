package model

import (
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// User is a directory-linked onboarding participant. Skeleton users are
// created by roster reconciliation before their first bot activation
// and carry no conversation reference yet.
type User struct {
	ID                types.UserID
	Role              types.UserRole
	Conversation      ConversationRef
	InstalledAt       *time.Time
	OptedIntoPairUps  bool
	DisplayName       string
	UserPrincipalName string
	ProfileImageURL   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActivated reports whether the user has opened the app in personal
// scope at least once. InstalledAt is set exactly once and never
// cleared.
func (u *User) IsActivated() bool {
	return u.InstalledAt != nil && !u.InstalledAt.IsZero()
}

// Tenure returns how long ago the user installed the app, or zero if
// not yet activated.
func (u *User) Tenure(now time.Time) time.Duration {
	if !u.IsActivated() {
		return 0
	}
	return now.Sub(*u.InstalledAt)
}

// MarkInstalled records the first personal-scope activation. Later
// activations keep the original timestamp.
func (u *User) MarkInstalled(now time.Time) {
	if u.InstalledAt == nil {
		u.InstalledAt = &now
	}
	u.UpdatedAt = now
}
