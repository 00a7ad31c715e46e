package overlay

import "fmt"

// FormatClock renders ms as HH:MM:SS. Hours wrap at 24.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := (ms / (1000 * 60 * 60)) % 24
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
