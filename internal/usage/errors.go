package usage

import "errors"

var (
	// ErrNotFound means the user id does not resolve to an account.
	ErrNotFound = errors.New("user not found")

	// ErrLimitExceeded means an accrual attempt was rejected at the tier
	// ceiling. Callers should skip, not retry; the UI shows the upgrade
	// prompt off this error.
	ErrLimitExceeded = errors.New("daily match limit exceeded")
)
