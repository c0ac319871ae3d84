package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is a timed span of text. Start and End are seconds from the start
// of the source; Start <= End always. Lang is the language code the text
// is written in: the source language for recognized lines, the target
// code for translated ones.
type Line struct {
	Start float64
	End   float64
	Text  string
	Lang  string
}

// FormatTimestamp renders a non-negative second count as the fixed-width
// SRT timestamp HH:MM:SS,mmm. Milliseconds are the truncated fractional
// part; hours grow without bound.
func FormatTimestamp(v float64) string {
	millis := int((v - float64(int(v))) * 1000)
	seconds := int(v) % 60
	totalMinutes := int(v) / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimestamp converts an SRT timestamp back to seconds. A period is
// accepted in place of the standard comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ".", ","))
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
