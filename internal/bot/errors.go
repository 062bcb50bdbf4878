package bot

import "errors"

var (
	// ErrMissingDependency is returned by New when the hub client, name
	// registry or user registry is nil.
	ErrMissingDependency = errors.New("bot: missing dependency")

	// ErrUnknownTimezone is returned for a timezone name the tz database
	// does not know.
	ErrUnknownTimezone = errors.New("bot: unknown timezone")
)
