package errutil

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when
// configured. It returns the error as-is so callers can keep their
// error flow unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	sentry.CaptureException(err)

	return err
}
