package storage

import (
	"errors"
	"time"
)

var ErrDuplicateEventID = errors.New("event with same ID exists")

// Event is an immutable calendar entry. Use NewEvent to build one.
type Event struct {
	id          string
	name        string
	address     string
	category    Category
	when        time.Time
	description string
}

// NewEvent returns a fully populated event. The start time keeps minute precision only.
func NewEvent(id, name, address string, category Category, when time.Time, description string) Event {
	return Event{
		id:          id,
		name:        name,
		address:     address,
		category:    category,
		when:        truncateToMinute(when),
		description: description,
	}
}

func (e Event) ID() string          { return e.id }
func (e Event) Name() string        { return e.name }
func (e Event) Address() string     { return e.address }
func (e Event) Category() Category  { return e.category }
func (e Event) When() time.Time     { return e.when }
func (e Event) Description() string { return e.description }

func truncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
