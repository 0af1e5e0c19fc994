package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Accepted shapes: h:mm:ss, hh:mm:ss, m:ss, mm:ss, each with an optional
// fractional second suffix that is truncated.
var timePattern = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})(?:[.,]\d+)?$`)

// ParseTime parses a race or pace time. Zero durations are rejected.
func ParseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	var h int
	if m[1] != "" {
		h, _ = strconv.Atoi(m[1])
	}
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	// Minutes only carry two digits when hours are present.
	if (m[1] != "" && (len(m[2]) != 2 || mins > 59)) || secs > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	d := time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidTime, s)
	}
	return d, nil
}

// IsTimeLike reports whether s parses as a positive time.
func IsTimeLike(s string) bool {
	_, err := ParseTime(s)
	return err == nil
}

// FormatDuration renders d as h:mm:ss.
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// TimeWindow is an exclusive plausibility window for a parsed time.
type TimeWindow struct {
	Min, Max time.Duration
}

// Contains reports whether Min < d < Max.
func (w TimeWindow) Contains(d time.Duration) bool {
	return d > w.Min && d < w.Max
}

// Plausibility windows for total race times and per-km paces.
var (
	RaceTimeWindow = TimeWindow{Min: 10 * time.Minute, Max: 5 * time.Hour}
	PaceWindow     = TimeWindow{Min: 90 * time.Second, Max: 20 * time.Minute}
)
