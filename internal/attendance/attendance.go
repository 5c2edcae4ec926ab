package attendance

import (
	"github.com/lomoval/eventregistry/internal/storage"
	"github.com/lomoval/eventregistry/internal/user"
)

// EventLookup gives access to the stored events.
type EventLookup interface {
	AllOrdered() []storage.Event
}

// Tracker keeps confirmed attendance per user email in memory.
type Tracker struct {
	events EventLookup
	data   map[string]map[string]struct{}
}

func New(events EventLookup) *Tracker {
	return &Tracker{events: events, data: make(map[string]map[string]struct{})}
}

func (t *Tracker) Confirm(u user.User, e storage.Event) {
	ids, ok := t.data[u.Email()]
	if !ok {
		ids = make(map[string]struct{})
		t.data[u.Email()] = ids
	}
	ids[e.ID()] = struct{}{}
}

func (t *Tracker) Cancel(u user.User, e storage.Event) {
	if ids, ok := t.data[u.Email()]; ok {
		delete(ids, e.ID())
	}
}

func (t *Tracker) IsAttending(u user.User, e storage.Event) bool {
	_, ok := t.data[u.Email()][e.ID()]
	return ok
}

// EventsOf returns the events the user confirmed, sorted by start time.
// Ids of events missing in the storage are ignored.
func (t *Tracker) EventsOf(u user.User) []storage.Event {
	events := make([]storage.Event, 0)
	ids := t.data[u.Email()]
	if len(ids) == 0 {
		return events
	}
	for _, e := range t.events.AllOrdered() {
		if _, ok := ids[e.ID()]; ok {
			events = append(events, e)
		}
	}
	return events
}
