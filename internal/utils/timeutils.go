package utils

import "time"

// DaysSince converts timestamps into fractional days elapsed since the first
// entry, the x-axis used for trend fitting. An empty input returns nil.
func DaysSince(timestamps []time.Time) []float64 {
	if len(timestamps) == 0 {
		return nil
	}
	origin := timestamps[0]
	days := make([]float64, len(timestamps))
	for i, ts := range timestamps {
		days[i] = ts.Sub(origin).Hours() / 24
	}
	return days
}
