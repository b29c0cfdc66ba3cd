package model

import (
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// Team is a channel-scope installation record, created on team install
// and deleted on team uninstall.
type Team struct {
	ID           types.TeamID
	Name         string
	Conversation ConversationRef
	InstalledAt  time.Time
}

// Channel is a posting destination within a team
type Channel struct {
	ID   types.ChannelID
	Name string
}

// TeamMapping is one entry of the team/channel selection view offered
// to a manager at approval time.
type TeamMapping struct {
	Team     Team
	Channels []Channel
}
