package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	fieldDelimiter = "|"
	fieldCount     = 6

	// TimeLayout is the local, zone-less timestamp written to the events file.
	TimeLayout      = "2006-01-02T15:04:05"
	shortTimeLayout = "2006-01-02T15:04"
)

var (
	ErrTooFewFields     = errors.New("too few fields")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// DecodeError is returned by Decode for a line that can't be turned into an Event.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode line %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode converts the event to a single line:
//
//	<id>|<name>|<address>|<CATEGORY>|<yyyy-MM-ddTHH:mm:ss>|<description>
//
// Name, address and description are escaped: '|' becomes '/', a newline becomes a space
// and surrounding whitespace is trimmed. The escaping is lossy and Decode does not undo it,
// so text containing those characters doesn't survive a round trip. Existing files depend
// on this exact rule.
func Encode(e Event) string {
	return strings.Join([]string{
		e.id,
		escape(e.name),
		escape(e.address),
		e.category.String(),
		e.when.Format(TimeLayout),
		escape(e.description),
	}, fieldDelimiter)
}

// Decode parses a line produced by Encode. Fields after the sixth are ignored.
// The returned error is always a *DecodeError.
func Decode(line string) (Event, error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) < fieldCount {
		return Event{}, &DecodeError{Line: line, Err: fmt.Errorf("got %d: %w", len(parts), ErrTooFewFields)}
	}

	category, err := ParseCategory(parts[3])
	if err != nil {
		return Event{}, &DecodeError{Line: line, Err: err}
	}

	when, err := parseTime(parts[4])
	if err != nil {
		return Event{}, &DecodeError{Line: line, Err: err}
	}

	return NewEvent(
		parts[0],
		unescape(parts[1]),
		unescape(parts[2]),
		category,
		when,
		unescape(parts[5]),
	), nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, shortTimeLayout} {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", value, ErrInvalidTimestamp)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, fieldDelimiter, "/")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Escaping is one-way.
func unescape(s string) string {
	return s
}
