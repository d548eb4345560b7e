package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timePattern accepts 1-2 digit hours 0-23 and exactly two digit minutes.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// NormalizeTime converts heterogeneous time inputs into the canonical
// zero-padded "HH:MM" form used everywhere downstream. Accepted inputs are
// bare times ("9:30", "13:40:00") and full datetimes ("2024-11-25 13:40:00",
// from which only the local hour and minute are kept). Anything else fails
// with an invalid_time_format field error.
func NormalizeTime(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", invalidTimeError()
	}

	if strings.Contains(s, "-") {
		t, err := parseDatetime(s)
		if err != nil {
			return "", invalidTimeError()
		}
		return t.Format("15:04"), nil
	}

	// Bare time: discard a trailing seconds field, keep HH:MM.
	if parts := strings.Split(s, ":"); len(parts) > 2 {
		s = strings.Join(parts[:2], ":")
	}

	if !timePattern.MatchString(s) {
		return "", invalidTimeError()
	}

	sep := strings.IndexByte(s, ':')
	hours, _ := strconv.Atoi(s[:sep])
	minutes, _ := strconv.Atoi(s[sep+1:])
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("schedule: unrecognized datetime %q", s)
}
