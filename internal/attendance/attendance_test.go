package attendance_test

import (
	"testing"
	"time"

	"github.com/lomoval/eventregistry/internal/attendance"
	"github.com/lomoval/eventregistry/internal/storage"
	"github.com/lomoval/eventregistry/internal/user"
	"github.com/stretchr/testify/require"
)

type staticEvents []storage.Event

func (s staticEvents) AllOrdered() []storage.Event {
	return s
}

var initDate = time.Date(2025, 9, 10, 19, 0, 0, 0, time.Local)

func TestTracker(t *testing.T) {
	first := storage.NewEvent("1", "first", "a", storage.CategoryShow, initDate, "")
	second := storage.NewEvent("2", "second", "a", storage.CategoryShow, initDate.Add(time.Hour), "")
	third := storage.NewEvent("3", "third", "a", storage.CategoryShow, initDate.Add(2*time.Hour), "")
	unknown := storage.NewEvent("4", "unknown", "a", storage.CategoryShow, initDate, "")

	maria := user.New("Maria", "maria@mail.com", "Recife", "")
	joao := user.New("Joao", "joao@mail.com", "Recife", "")

	t.Run("confirm", func(t *testing.T) {
		tr := attendance.New(staticEvents{first, second, third})
		tr.Confirm(maria, third)
		tr.Confirm(maria, first)
		tr.Confirm(maria, first)
		tr.Confirm(joao, second)

		require.Equal(t, []storage.Event{first, third}, tr.EventsOf(maria))
		require.Equal(t, []storage.Event{second}, tr.EventsOf(joao))
		require.True(t, tr.IsAttending(maria, first))
		require.False(t, tr.IsAttending(maria, second))
	})

	t.Run("cancel", func(t *testing.T) {
		tr := attendance.New(staticEvents{first, second, third})
		tr.Confirm(maria, first)
		tr.Confirm(maria, second)
		tr.Cancel(maria, first)
		tr.Cancel(joao, first)

		require.Equal(t, []storage.Event{second}, tr.EventsOf(maria))
		require.Empty(t, tr.EventsOf(joao))
	})

	t.Run("unknown ids ignored", func(t *testing.T) {
		tr := attendance.New(staticEvents{first})
		tr.Confirm(maria, unknown)
		require.Empty(t, tr.EventsOf(maria))
	})

	t.Run("no attendance", func(t *testing.T) {
		tr := attendance.New(staticEvents{first})
		require.NotNil(t, tr.EventsOf(maria))
		require.Empty(t, tr.EventsOf(maria))
	})
}
