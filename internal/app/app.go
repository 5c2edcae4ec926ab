package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lomoval/eventregistry/internal/attendance"
	"github.com/lomoval/eventregistry/internal/ics"
	"github.com/lomoval/eventregistry/internal/notify"
	"github.com/lomoval/eventregistry/internal/storage"
	filestorage "github.com/lomoval/eventregistry/internal/storage/file"
	"github.com/lomoval/eventregistry/internal/timeline"
	"github.com/lomoval/eventregistry/internal/user"
	"github.com/lomoval/eventregistry/internal/validator"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoUser             = errors.New("no registered user")
	ErrIncorrectEventTime = errors.New("incorrect event time")
	ErrIncorrectCategory  = errors.New("incorrect category")
)

// UserInput is stored raw in a '|' separated line, so no field may contain '|' (\x7C) or a line break.
type UserInput struct {
	Name  string `validate:"required|regexp:^[^\\x7C\\r\\n]*$"`
	Email string `validate:"required|regexp:^[^@\\s\\x7C]+@[^@\\s\\x7C]+\\.[^@\\s\\x7C]+$"`
	City  string `validate:"regexp:^[^\\x7C\\r\\n]*$"`
	Phone string `validate:"regexp:^[0-9+()\\- ]*$"`
}

type EventInput struct {
	Name        string `validate:"required"`
	Address     string
	Category    storage.Category
	When        time.Time
	Description string
}

type App struct {
	events       *filestorage.Storage
	users        *user.Store
	attendance   *attendance.Tracker
	notifier     notify.Notifier
	notifyWindow time.Duration
	now          func() time.Time
}

type Option func(a *App)

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

func WithNotifyWindow(window time.Duration) Option {
	return func(a *App) {
		a.notifyWindow = window
	}
}

func New(
	events *filestorage.Storage,
	users *user.Store,
	notifier notify.Notifier,
	opts ...Option,
) *App {
	a := &App{
		events:       events,
		users:        users,
		attendance:   attendance.New(events),
		notifier:     notifier,
		notifyWindow: notify.DefaultWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load reads events and the current user. Failures are reported but both loads are attempted.
func (a *App) Load() error {
	return errors.Join(a.events.Load(), a.users.Load())
}

func (a *App) CurrentUser() (user.User, bool) {
	return a.users.Current()
}

// RegisterUser replaces the current user. The user stays current even if it can't be saved.
func (a *App) RegisterUser(in UserInput) (user.User, error) {
	in = UserInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		City:  strings.TrimSpace(in.City),
		Phone: strings.TrimSpace(in.Phone),
	}
	if err := validator.Validate(in); err != nil {
		return user.User{}, fmt.Errorf("invalid user: %w", err)
	}
	u := user.New(in.Name, in.Email, in.City, in.Phone)
	return u, a.users.SetCurrent(u)
}

// CreateEvent stores a new event with a generated ID. If the events file can't be written
// the event is kept and the error is returned together with it.
func (a *App) CreateEvent(in EventInput) (storage.Event, error) {
	if err := validator.Validate(in); err != nil {
		return storage.Event{}, fmt.Errorf("invalid event: %w", err)
	}
	if !in.Category.Valid() {
		return storage.Event{}, fmt.Errorf("%v: %w", in.Category, ErrIncorrectCategory)
	}
	if in.When.IsZero() {
		return storage.Event{}, ErrIncorrectEventTime
	}

	e := storage.NewEvent(uuid.NewString(), in.Name, in.Address, in.Category, in.When, in.Description)
	if err := a.events.Add(e); err != nil {
		if errors.Is(err, filestorage.ErrWriteFailed) {
			return e, err
		}
		return storage.Event{}, err
	}
	log.WithField("id", e.ID()).Info("event created")
	return e, nil
}

// NotifyIfUpcoming sends a notice when the event starts within the notify window.
func (a *App) NotifyIfUpcoming(ctx context.Context, e storage.Event) (bool, error) {
	n, ok := notify.Upcoming(e, a.now(), a.notifyWindow)
	if !ok {
		return false, nil
	}
	if err := a.notifier.Notify(ctx, n); err != nil {
		return false, fmt.Errorf("failed to notify: %w", err)
	}
	return true, nil
}

func (a *App) Events() []storage.Event {
	return a.events.AllOrdered()
}

func (a *App) HappeningNow() []storage.Event {
	return a.events.HappeningNow(a.now())
}

func (a *App) PastEvents() []storage.Event {
	return a.events.PastEvents(a.now())
}

func (a *App) StatusOf(e storage.Event) timeline.Status {
	return a.events.StatusOf(e, a.now())
}

func (a *App) Participate(e storage.Event) error {
	u, ok := a.users.Current()
	if !ok {
		return ErrNoUser
	}
	a.attendance.Confirm(u, e)
	return nil
}

func (a *App) CancelParticipation(e storage.Event) error {
	u, ok := a.users.Current()
	if !ok {
		return ErrNoUser
	}
	a.attendance.Cancel(u, e)
	return nil
}

func (a *App) MyEvents() ([]storage.Event, error) {
	u, ok := a.users.Current()
	if !ok {
		return nil, ErrNoUser
	}
	return a.attendance.EventsOf(u), nil
}

func (a *App) ExportICS(w io.Writer) error {
	return ics.Export(w, a.events.AllOrdered(), a.now())
}

// Shutdown saves events and the current user.
func (a *App) Shutdown() error {
	return errors.Join(a.events.Save(), a.users.Save())
}
