package plan

import (
	"fmt"
	"strconv"
	"strings"

	"backlot/internal/services"
)

// ParseTimecode converts an "MM:SS" segment marker into seconds.
func ParseTimecode(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return 0, services.Wrap(services.ErrValidation, "plan", "timecode", fmt.Sprintf("invalid marker %q", value), nil)
	}
	minutes, errM := strconv.Atoi(parts[0])
	seconds, errS := strconv.Atoi(parts[1])
	if errM != nil || errS != nil || minutes < 0 || seconds < 0 || seconds > 59 {
		return 0, services.Wrap(services.ErrValidation, "plan", "timecode", fmt.Sprintf("invalid marker %q", value), nil)
	}
	return float64(minutes*60 + seconds), nil
}

// FormatTimecode renders seconds as the "MM:SS" marker used in prompts.
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}
