package util

import (
	"strconv"
	"strings"
	"time"
)

// Provider timestamp layouts, tried in order after RFC3339.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102T150405",
	"20060102T1504",
}

// ParseTime accepts RFC3339, the provider date layouts and unix
// timestamps in seconds or milliseconds. Layouts without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return UnixAuto(ts), true
	}
	return time.Time{}, false
}

// UnixAuto interprets ts as milliseconds when it is too large to be seconds.
func UnixAuto(ts int64) time.Time {
	if ts > 1e12 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
