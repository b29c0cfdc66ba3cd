package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// UserID is the directory (AAD) object ID of a participant
type UserID string

// Validate checks if the UserID is valid
func (x UserID) Validate() error {
	if x == "" {
		return goerr.New("user ID cannot be empty")
	}
	return nil
}

// String returns the string representation of UserID
func (x UserID) String() string {
	return string(x)
}

// TeamID identifies a team the app is installed in
type TeamID string

// Validate checks if the TeamID is valid
func (x TeamID) Validate() error {
	if x == "" {
		return goerr.New("team ID cannot be empty")
	}
	return nil
}

// String returns the string representation of TeamID
func (x TeamID) String() string {
	return string(x)
}

// ChannelID identifies a channel within a team
type ChannelID string

// String returns the string representation of ChannelID
func (x ChannelID) String() string {
	return string(x)
}

// GroupID identifies a directory security group
type GroupID string

// String returns the string representation of GroupID
func (x GroupID) String() string {
	return string(x)
}

// ConversationID identifies a stored chat conversation
type ConversationID string

// String returns the string representation of ConversationID
func (x ConversationID) String() string {
	return string(x)
}
