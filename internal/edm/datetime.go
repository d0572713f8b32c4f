package edm

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

func init() {
	registerType(DateTime, parseDateTime)
	registerType(DateTimeOffset, parseDateTimeOffset)
	registerType(Time, parseTime)
}

// Edm.DateTime literals carry no zone and are read as UTC.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339Nano,
}

var dateTimeOffsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseDateTime(raw string) (any, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("cannot parse '%s' as Edm.DateTime", raw)
}

func parseDateTimeOffset(raw string) (any, error) {
	for _, layout := range dateTimeOffsetLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("cannot parse '%s' as Edm.DateTimeOffset", raw)
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// parseTime accepts both the xsd duration form (PT13H20M) and a clock time
// (13:20:00). The result is a clock string HH:MM:SS, which every supported
// driver binds to a TIME column.
func parseTime(raw string) (any, error) {
	if m := durationPattern.FindStringSubmatch(raw); m != nil && raw != "PT" {
		var h, mins int
		var sec float64
		if m[1] != "" {
			h, _ = strconv.Atoi(m[1])
		}
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			sec, _ = strconv.ParseFloat(m[3], 64)
		}
		if h > 23 || mins > 59 || sec >= 60 {
			return nil, fmt.Errorf("cannot parse '%s' as Edm.Time: out of range", raw)
		}
		return fmt.Sprintf("%02d:%02d:%02d", h, mins, int(sec)), nil
	}
	for _, layout := range []string{"15:04:05", "15:04:05.999999999", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return nil, fmt.Errorf("cannot parse '%s' as Edm.Time", raw)
}
