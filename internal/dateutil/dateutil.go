// Package dateutil parses publication dates from document headers and
// renders them with user-friendly format strings.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when no format is given.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// headerLayouts are the date spellings accepted in document headers,
// tried in order. Layouts without a zone are read as UTC.
var headerLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D
// Use brackets to escape literal text: [Date] preserves "Date" literally.
// Any non-token characters outside brackets are preserved as literals.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}

		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// FormatDate renders t with a token format or a preset name (case-insensitive).
// An empty format uses DefaultDateFormat.
func FormatDate(t time.Time, format string) (string, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	goFmt, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(goFmt), nil
}

// ParseDate reads a header date value. The YAML decoder may hand over a
// time.Time or a string depending on quoting. ok is false when the value
// is missing, empty, or in no accepted spelling.
func ParseDate(value any) (t time.Time, ok bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range headerLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
