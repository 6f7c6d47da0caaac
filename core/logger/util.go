package logger

import "time"

// RoundMS trims sub-millisecond noise from durations before they are logged.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
