package utils

import "time"

// GetTimeDiff returns the gap between two consecutive readings. Negative when
// current precedes previous.
func GetTimeDiff(previous, current time.Time) time.Duration {
	return current.Sub(previous)
}
