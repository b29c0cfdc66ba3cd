package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across service boundaries. Delivery
// errors tagged as rate-limited or server-error are the only ones
// eligible for the bounded notification retry.
var (
	ErrTagRateLimited = goerr.NewTag("rate_limited")
	ErrTagServerError = goerr.NewTag("server_error")
	ErrTagConflict    = goerr.NewTag("conflict")
)

// IsRetryableDelivery reports whether a notification send failure may be
// retried under the bounded retry policy.
func IsRetryableDelivery(err error) bool {
	return goerr.HasTag(err, ErrTagRateLimited) || goerr.HasTag(err, ErrTagServerError)
}

// IsConflict reports whether an operation failed because the resource
// already exists (e.g. the app is already installed for a user).
func IsConflict(err error) bool {
	return goerr.HasTag(err, ErrTagConflict)
}
