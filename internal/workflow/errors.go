package workflow

import (
	"errors"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/listquery"
)

// Recovered conditions. They are reported through Result.Reason, never
// returned as errors.
var (
	ErrNotFound             = errors.New("sms not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrLocked               = errors.New("sms is checked out by another user")
	ErrValidationFailed     = errors.New("form validation failed")
	ErrMalformedFilterInput = fmt.Errorf("malformed filter input: %w", listquery.ErrMalformedFilter)
)
