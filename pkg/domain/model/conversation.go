package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// ConversationRef is a stored pointer to a chat conversation, used for
// proactive notification outside of a direct reply.
type ConversationRef struct {
	ID              types.ConversationID
	ServiceEndpoint string
}

// Validate checks if the conversation reference is complete
func (c ConversationRef) Validate() error {
	if c.ID == "" {
		return goerr.New("conversation ID is required")
	}
	if c.ServiceEndpoint == "" {
		return goerr.New("service endpoint is required")
	}
	return nil
}

// IsZero reports whether the reference has not been populated
func (c ConversationRef) IsZero() bool {
	return c.ID == "" && c.ServiceEndpoint == ""
}
