package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core error taxonomy. Handlers at the platform
// boundary translate these into user-facing messages; everything else is
// treated as an internal error and logged.
var (
	// ErrContentLoad indicates missing or malformed lesson content. Fatal at
	// startup: the bot must not serve a partial lesson graph.
	ErrContentLoad = errors.New("content load error")

	// ErrValidation indicates rejected user input (empty response, unknown
	// lesson). Recoverable; the user is asked to try again.
	ErrValidation = errors.New("validation error")

	// ErrPersistence indicates a failed storage round-trip. Recoverable; the
	// operation is aborted with no partial mutation.
	ErrPersistence = errors.New("persistence error")

	// ErrNotFound indicates a missing user or lesson record. Recoverable;
	// the user is prompted to restart.
	ErrNotFound = errors.New("not found")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Persistencef wraps ErrPersistence with a formatted message.
func Persistencef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPersistence}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// ContentLoadf wraps ErrContentLoad with a formatted message.
func ContentLoadf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrContentLoad}, args...)...)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool { return errors.Is(err, ErrPersistence) }

// UserMessage maps an error to the message shown to the learner.
func UserMessage(err error) string {
	switch {
	case IsValidation(err):
		return "⚠️ That response didn't look right. Please try again."
	case IsNotFound(err):
		return "⚠️ We couldn't find your progress. Please try /start to restart."
	case IsPersistence(err):
		return "⚠️ Something went wrong saving your response. Please resend your message."
	default:
		return "⚠️ System error. Please try again in a moment."
	}
}
