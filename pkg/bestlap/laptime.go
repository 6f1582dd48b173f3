package bestlap

import "fmt"

// FormatLapTime renders a lap time in milliseconds as mm:ss.fff. Minutes are not capped.
func FormatLapTime(ms uint32) string {
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}
