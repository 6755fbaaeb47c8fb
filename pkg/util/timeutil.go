package util

import "time"

// NowUTC is the default clock of the poller and sessions. Both keep it in a
// field so tests can pin time per instance.
func NowUTC() time.Time {
	return time.Now().UTC()
}
