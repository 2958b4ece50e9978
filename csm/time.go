package csm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeLayout is the layout of date parameters sent to the API.
const DateTimeLayout = "2006-01-02 15:04:05"

// Fractional seconds are accepted after the seconds field of every layout.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	DateTimeLayout,
}

// Time is a timestamp as emitted by the API. Values without a zone are
// interpreted as UTC.
type Time struct {
	time.Time
}

// ParseTime parses s using the layouts the API emits.
func ParseTime(s string) (Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Time{Time: t}, nil
		}
	}

	return Time{}, fmt.Errorf("csm: unsupported time format %q", s)
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves t unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("csm: time must be a string: %w", err)
	}

	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// MarshalJSON implements json.Marshaler using RFC 3339.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Format(time.RFC3339Nano))
}

// formatDateTime renders t the way the API expects date parameters:
// "YYYY-MM-DD HH:MM:SS", followed by microseconds when they are not zero.
func formatDateTime(t time.Time) string {
	s := t.Format(DateTimeLayout)

	if us := t.Nanosecond() / int(time.Microsecond); us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}

	return s
}
