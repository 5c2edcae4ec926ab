// Package timeline classifies events relative to a reference time.
//
// Events carry no end time, every event is assumed to last DefaultDuration.
// Its window is the closed interval [when, when+DefaultDuration].
package timeline

import (
	"fmt"
	"time"

	"github.com/lomoval/eventregistry/internal/storage"
)

const DefaultDuration = 2 * time.Hour

type StatusKind int

const (
	StatusUpcoming StatusKind = iota
	StatusHappeningNow
	StatusAlreadyHappened
)

type Status struct {
	Kind StatusKind
	// Minutes until the start, set for StatusUpcoming only.
	Minutes int64
}

func (s Status) String() string {
	switch s.Kind {
	case StatusHappeningNow:
		return "happening now"
	case StatusAlreadyHappened:
		return "already happened"
	case StatusUpcoming:
		return fmt.Sprintf("in %d min", s.Minutes)
	default:
		return fmt.Sprintf("StatusKind(%d)", int(s.Kind))
	}
}

func Window(e storage.Event) (time.Time, time.Time) {
	return e.When(), e.When().Add(DefaultDuration)
}

// IsHappeningNow reports whether t lies inside the event window, both ends included.
func IsHappeningNow(e storage.Event, t time.Time) bool {
	start, end := Window(e)
	return !t.Before(start) && !t.After(end)
}

// IsPast reports whether the whole window ended strictly before t.
func IsPast(e storage.Event, t time.Time) bool {
	return e.When().Before(t.Add(-DefaultDuration))
}

// StatusOf uses a plain "started before t" test for already happened events,
// unlike IsPast which waits for the window to end.
func StatusOf(e storage.Event, t time.Time) Status {
	if IsHappeningNow(e, t) {
		return Status{Kind: StatusHappeningNow}
	}
	if e.When().Before(t) {
		return Status{Kind: StatusAlreadyHappened}
	}
	minutes := MinutesUntil(e, t)
	if minutes < 0 {
		minutes = 0
	}
	return Status{Kind: StatusUpcoming, Minutes: minutes}
}

// MinutesUntil returns whole minutes from t to the event start, truncated toward zero.
func MinutesUntil(e storage.Event, t time.Time) int64 {
	return int64(e.When().Sub(t) / time.Minute)
}
