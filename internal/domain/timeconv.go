package domain

import (
	"time"

	"github.com/pkg/errors"
)

// TimeLayout layout of timestamps in statements and generated reports (always UTC).
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout date-only layout.
const DateLayout = "2006-01-02"

// ParseUTC converts "2022-12-20 20:48:22" to a unix timestamp in milliseconds.
func ParseUTC(s string) (int64, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedInput, "invalid time string: %q", s)
	}
	return t.UnixMilli(), nil
}

// FormatUTC formats a millisecond timestamp as "yyyy-MM-dd HH:mm:ss" in UTC.
func FormatUTC(utcTime int64) string {
	return time.UnixMilli(utcTime).UTC().Format(TimeLayout)
}

// FormatUTCDate formats a millisecond timestamp as "yyyy-MM-dd" in UTC.
func FormatUTCDate(utcTime int64) string {
	return time.UnixMilli(utcTime).UTC().Format(DateLayout)
}

// UTCYear returns the calendar year of the timestamp.
func UTCYear(utcTime int64) int {
	return time.UnixMilli(utcTime).UTC().Year()
}

// YearEndTimestamp returns the timestamp of the last second of the year: YYYY-12-31 23:59:59.
func YearEndTimestamp(year int) int64 {
	return time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC).UnixMilli()
}

// DayStart returns 00:00:00 of the UTC day containing utcTime.
func DayStart(utcTime int64) int64 {
	t := time.UnixMilli(utcTime).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
}
