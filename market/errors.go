package market

import "errors"

var (
	// ErrInsufficientData means the sanitized series is too short to replay.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrNotArray means the feed payload was not a JSON array.
	ErrNotArray = errors.New("feed payload is not an array")

	// ErrBadStatus means the feed server answered with a non-200 status.
	ErrBadStatus = errors.New("unexpected feed status")
)
