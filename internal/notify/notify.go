package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lomoval/eventregistry/internal/storage"
	"github.com/lomoval/eventregistry/internal/timeline"
	log "github.com/sirupsen/logrus"
)

const DefaultWindow = time.Hour

// Notice tells that an event starts soon.
type Notice struct {
	EventID string    `json:"eventId"`
	Name    string    `json:"name"`
	When    time.Time `json:"when"`
	Minutes int64     `json:"minutes"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Upcoming returns a notice if the event starts within window from now.
func Upcoming(e storage.Event, now time.Time, window time.Duration) (Notice, bool) {
	minutes := timeline.MinutesUntil(e, now)
	if minutes < 0 || minutes > int64(window/time.Minute) {
		return Notice{}, false
	}
	return Notice{EventID: e.ID(), Name: e.Name(), When: e.When(), Minutes: minutes}, true
}

// Console writes notices as text lines.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, n Notice) error {
	_, err := fmt.Fprintf(c.out, "[Notification] Upcoming event: %s in %d min.\n", n.Name, n.Minutes)
	return err
}

type Publisher interface {
	Publish(body []byte) error
}

// Queue publishes notices as JSON, e.g. through rabbit.Provider.
type Queue struct {
	publisher Publisher
}

func NewQueue(publisher Publisher) *Queue {
	return &Queue{publisher: publisher}
}

func (q *Queue) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	if err := q.publisher.Publish(data); err != nil {
		return fmt.Errorf("failed to publish notice for %q: %w", n.EventID, err)
	}
	log.WithField("event", n.EventID).Debug("notice published")
	return nil
}
