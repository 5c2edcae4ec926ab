package filestorage_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lomoval/eventregistry/internal/storage"
	filestorage "github.com/lomoval/eventregistry/internal/storage/file"
	"github.com/lomoval/eventregistry/internal/timeline"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var initDate = time.Date(2025, 9, 10, 19, 0, 0, 0, time.Local)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestStorage(t *testing.T) {
	t.Run("add keeps order", func(t *testing.T) {
		s := createStorage(t)
		offsets := []int{5, -3, 0, 12, -7, 1, 1, 3}
		for i, offset := range offsets {
			e := createEvent(fmt.Sprintf("id-%d", i), initDate.Add(time.Duration(offset)*time.Hour))
			require.NoError(t, s.Add(e))
			requireSorted(t, s.AllOrdered())
		}
		require.Equal(t, len(offsets), s.Len())
	})

	t.Run("stable for equal times", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Add(createEvent("b", initDate)))
		require.NoError(t, s.Add(createEvent("a", initDate)))
		require.NoError(t, s.Add(createEvent("c", initDate.Add(-time.Hour))))

		require.Equal(t, []string{"c", "b", "a"}, ids(s.AllOrdered()))

		reloaded := filestorage.New(s.Path())
		require.NoError(t, reloaded.Load())
		require.Equal(t, []string{"c", "b", "a"}, ids(reloaded.AllOrdered()))
	})

	t.Run("add persists", func(t *testing.T) {
		s := createStorage(t)
		e := createEvent("id-1", initDate)
		require.NoError(t, s.Add(e))

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		require.Equal(t, storage.Encode(e)+"\n", string(data))
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Add(createEvent("id-1", initDate)))
		err := s.Add(createEvent("id-1", initDate.Add(time.Hour)))
		require.ErrorIs(t, err, storage.ErrDuplicateEventID)
		require.Equal(t, 1, s.Len())
	})

	t.Run("unknown category", func(t *testing.T) {
		s := createStorage(t)
		e := storage.NewEvent("id-1", "name", "address", storage.Category(42), initDate, "")
		require.ErrorIs(t, s.Add(e), storage.ErrUnknownCategory)
		require.Zero(t, s.Len())
		require.NoFileExists(t, s.Path())
	})

	t.Run("all ordered is a copy", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Add(createEvent("id-1", initDate)))
		require.NoError(t, s.Add(createEvent("id-2", initDate.Add(time.Hour))))

		events := s.AllOrdered()
		events[0] = createEvent("changed", initDate)
		require.Equal(t, []string{"id-1", "id-2"}, ids(s.AllOrdered()))
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		s := filestorage.New(filepath.Join(t.TempDir(), "not-exists.data"))
		require.NoError(t, s.Load())
		require.Empty(t, s.AllOrdered())
	})

	t.Run("round trip", func(t *testing.T) {
		s := createStorage(t)
		for i := 0; i < 10; i++ {
			require.NoError(t, s.Add(createEvent(fmt.Sprintf("id-%d", i), initDate.AddDate(0, 0, 10-i))))
		}

		reloaded := filestorage.New(s.Path())
		require.NoError(t, reloaded.Load())
		require.Equal(t, s.AllOrdered(), reloaded.AllOrdered())
	})

	t.Run("skip corrupted", func(t *testing.T) {
		hook := test.NewGlobal()
		defer hook.Reset()

		path := writeFile(t,
			"id-3|third|addr|SHOW|2025-09-12T10:00:00|",
			"id-1|first|addr|PARTY|2025-09-10T10:00:00|desc",
			"id-x|bad|addr|CONCERT|2025-09-10T10:00:00|desc",
			"",
			"   ",
			"id-y|bad time|addr|SHOW|yesterday|desc",
			"id-z|short",
			"id-2|second|addr|OTHER|2025-09-11T10:00|desc",
		)
		s := filestorage.New(path)
		require.NoError(t, s.Load())
		require.Equal(t, []string{"id-1", "id-2", "id-3"}, ids(s.AllOrdered()))
		require.Len(t, hook.AllEntries(), 3)
		require.Equal(t, log.WarnLevel, hook.LastEntry().Level)
		require.Equal(t, 7, hook.LastEntry().Data["line"])
	})

	t.Run("long lines", func(t *testing.T) {
		s := createStorage(t)
		long := storage.NewEvent("long", "long", "address", storage.CategoryOther, initDate.Add(time.Hour),
			strings.Repeat("x", 70000))
		require.NoError(t, s.Add(createEvent("keep-1", initDate)))
		require.NoError(t, s.Add(long))
		require.NoError(t, s.Add(createEvent("keep-2", initDate.Add(2*time.Hour))))

		reloaded := filestorage.New(s.Path())
		require.NoError(t, reloaded.Load())
		require.Equal(t, []string{"keep-1", "long", "keep-2"}, ids(reloaded.AllOrdered()))
		require.Len(t, reloaded.AllOrdered()[1].Description(), 70000)

		require.NoError(t, reloaded.Add(createEvent("new", initDate.Add(3*time.Hour))))
		again := filestorage.New(s.Path())
		require.NoError(t, again.Load())
		require.Equal(t, []string{"keep-1", "long", "keep-2", "new"}, ids(again.AllOrdered()))
	})

	t.Run("crlf and no trailing newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.data")
		data := "id-1|first|addr|PARTY|2025-09-10T10:00:00|desc\r\nid-2|second|addr|SHOW|2025-09-11T10:00:00|last"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		s := filestorage.New(path)
		require.NoError(t, s.Load())
		events := s.AllOrdered()
		require.Equal(t, []string{"id-1", "id-2"}, ids(events))
		require.Equal(t, "desc", events[0].Description())
		require.Equal(t, "last", events[1].Description())
	})

	t.Run("duplicate ids skipped", func(t *testing.T) {
		path := writeFile(t,
			"id-1|first|addr|PARTY|2025-09-10T10:00:00|desc",
			"id-1|again|addr|PARTY|2025-09-09T10:00:00|desc",
		)
		s := filestorage.New(path)
		require.NoError(t, s.Load())
		events := s.AllOrdered()
		require.Len(t, events, 1)
		require.Equal(t, "first", events[0].Name())
	})

	t.Run("load replaces state", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Add(createEvent("id-1", initDate)))
		require.NoError(t, os.WriteFile(s.Path(), []byte("id-2|n|a|SHOW|2025-09-10T10:00:00|d\n"), 0o644))

		require.NoError(t, s.Load())
		require.Equal(t, []string{"id-2"}, ids(s.AllOrdered()))
	})

	t.Run("read failure", func(t *testing.T) {
		s := filestorage.New(t.TempDir())
		err := s.Load()
		require.ErrorIs(t, err, filestorage.ErrReadFailed)
		require.Empty(t, s.AllOrdered())
	})
}

func TestSave(t *testing.T) {
	t.Run("rewrites file", func(t *testing.T) {
		path := writeFile(t, "garbage line", "id-1|first|addr|PARTY|2025-09-10T10:00:00|desc")
		s := filestorage.New(path)
		require.NoError(t, s.Load())
		require.NoError(t, s.Save())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "id-1|first|addr|PARTY|2025-09-10T10:00:00|desc\n", string(data))
	})

	t.Run("empty storage", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Save())
		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		require.Empty(t, data)
	})

	t.Run("no temp files left", func(t *testing.T) {
		s := createStorage(t)
		require.NoError(t, s.Add(createEvent("id-1", initDate)))
		entries, err := os.ReadDir(filepath.Dir(s.Path()))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("write failure keeps memory", func(t *testing.T) {
		s := filestorage.New(filepath.Join(t.TempDir(), "missing-dir", "events.data"))
		err := s.Add(createEvent("id-1", initDate))
		require.ErrorIs(t, err, filestorage.ErrWriteFailed)
		require.Equal(t, []string{"id-1"}, ids(s.AllOrdered()))

		require.ErrorIs(t, s.Save(), filestorage.ErrWriteFailed)
		require.Equal(t, 1, s.Len())
	})
}

func TestQueries(t *testing.T) {
	s := createStorage(t)
	now := initDate
	require.NoError(t, s.Add(createEvent("long-ago", now.Add(-48*time.Hour))))
	require.NoError(t, s.Add(createEvent("three-hours-ago", now.Add(-3*time.Hour))))
	require.NoError(t, s.Add(createEvent("half-hour-ago", now.Add(-30*time.Minute))))
	require.NoError(t, s.Add(createEvent("exactly-two-hours-ago", now.Add(-2*time.Hour))))
	require.NoError(t, s.Add(createEvent("now", now)))
	require.NoError(t, s.Add(createEvent("soon", now.Add(45*time.Minute))))

	t.Run("happening now", func(t *testing.T) {
		require.Equal(t,
			[]string{"exactly-two-hours-ago", "half-hour-ago", "now"},
			ids(s.HappeningNow(now)))
	})

	t.Run("past events", func(t *testing.T) {
		require.Equal(t, []string{"long-ago", "three-hours-ago"}, ids(s.PastEvents(now)))
	})

	t.Run("status", func(t *testing.T) {
		events := s.AllOrdered()
		statuses := make([]string, 0, len(events))
		for _, e := range events {
			statuses = append(statuses, s.StatusOf(e, now).String())
		}
		require.Equal(t, []string{
			"already happened",
			"already happened",
			"happening now",
			"happening now",
			"happening now",
			"in 45 min",
		}, statuses)
	})

	t.Run("status floors minutes", func(t *testing.T) {
		soon := find(t, s, "soon")
		require.Equal(t, "in 45 min", s.StatusOf(soon, now).String())
		require.Equal(t, "in 44 min", s.StatusOf(soon, now.Add(30*time.Second)).String())
	})

	t.Run("asymmetry", func(t *testing.T) {
		e := find(t, s, "now")
		within := now.Add(30 * time.Minute)
		require.Equal(t, timeline.StatusHappeningNow, s.StatusOf(e, within).Kind)
		require.NotContains(t, ids(s.PastEvents(within)), e.ID())

		after := now.Add(3 * time.Hour)
		require.Equal(t, timeline.StatusAlreadyHappened, s.StatusOf(e, after).Kind)
		require.Contains(t, ids(s.PastEvents(after)), e.ID())
	})
}

func createStorage(t *testing.T) *filestorage.Storage {
	t.Helper()
	s := filestorage.New(filepath.Join(t.TempDir(), "events.data"))
	require.NoError(t, s.Load())
	return s
}

func createEvent(id string, when time.Time) storage.Event {
	return storage.NewEvent(id, "name "+id, "address", storage.CategoryTechnology, when, "description")
}

func find(t *testing.T, s *filestorage.Storage, id string) storage.Event {
	t.Helper()
	for _, e := range s.AllOrdered() {
		if e.ID() == id {
			return e
		}
	}
	require.FailNow(t, "event not found", id)
	return storage.Event{}
}

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.data")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func ids(events []storage.Event) []string {
	result := make([]string, 0, len(events))
	for _, e := range events {
		result = append(result, e.ID())
	}
	return result
}

func requireSorted(t *testing.T, events []storage.Event) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		require.False(t, events[i].When().Before(events[i-1].When()), "events are not sorted")
	}
}
