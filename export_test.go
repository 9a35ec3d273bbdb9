package objstore

import "time"

// SetNow replaces the clock used by TimestampHooks and returns a restore func.
func SetNow(f func() time.Time) (restore func()) {
	prev := now
	now = f
	return func() { now = prev }
}
