package filestorage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lomoval/eventregistry/internal/storage"
	"github.com/lomoval/eventregistry/internal/timeline"
	log "github.com/sirupsen/logrus"
)

var (
	ErrReadFailed  = errors.New("failed to read events file")
	ErrWriteFailed = errors.New("failed to write events file")
)

// Storage keeps events sorted by start time in memory and mirrors them to a flat file,
// one encoded event per line. It is not safe for concurrent use.
type Storage struct {
	path   string
	events []storage.Event
}

func New(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Len() int {
	return len(s.events)
}

// Load replaces the in-memory events with the file contents. A missing file gives an
// empty storage. Lines that can't be decoded are logged and skipped.
func (s *Storage) Load() error {
	s.events = nil

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		log.Errorf("failed to open events file %q: %v", s.path, err)
		return fmt.Errorf("%w %q: %v", ErrReadFailed, s.path, err)
	}
	defer f.Close()

	events := make([]storage.Event, 0)
	ids := make(map[string]struct{})
	reader := bufio.NewReader(f)
	lineNum := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			log.Errorf("failed to read events file %q: %v", s.path, err)
			return fmt.Errorf("%w %q: %v", ErrReadFailed, s.path, err)
		}
		if line != "" {
			lineNum++
			if e, ok := s.decodeLine(strings.TrimRight(line, "\r\n"), lineNum, ids); ok {
				ids[e.ID()] = struct{}{}
				events = append(events, e)
			}
		}
		if err != nil {
			break
		}
	}

	sortByTime(events)
	s.events = events
	log.Debugf("loaded %d events from %q", len(events), s.path)
	return nil
}

func (s *Storage) decodeLine(line string, lineNum int, ids map[string]struct{}) (storage.Event, bool) {
	if strings.TrimSpace(line) == "" {
		return storage.Event{}, false
	}
	e, err := storage.Decode(line)
	if err != nil {
		log.WithField("file", s.path).WithField("line", lineNum).Warnf("skipping invalid event: %v", err)
		return storage.Event{}, false
	}
	if _, ok := ids[e.ID()]; ok {
		log.WithField("file", s.path).WithField("line", lineNum).
			Warnf("skipping event: duplicate ID %q", e.ID())
		return storage.Event{}, false
	}
	return e, true
}

// Add stores the event and rewrites the file. If the write fails the event is still kept
// in memory and the error is returned.
func (s *Storage) Add(e storage.Event) error {
	if !e.Category().Valid() {
		return fmt.Errorf("event %q has %v: %w", e.ID(), e.Category(), storage.ErrUnknownCategory)
	}
	for _, existing := range s.events {
		if existing.ID() == e.ID() {
			return fmt.Errorf("duplicate ID %q: %w", e.ID(), storage.ErrDuplicateEventID)
		}
	}
	s.events = append(s.events, e)
	sortByTime(s.events)
	return s.Save()
}

// Save rewrites the whole file with the current events. The file is replaced atomically.
func (s *Storage) Save() error {
	if err := writeAtomic(s.path, s.events); err != nil {
		log.Errorf("failed to save events to %q: %v", s.path, err)
		return fmt.Errorf("%w %q: %v", ErrWriteFailed, s.path, err)
	}
	return nil
}

// AllOrdered returns a copy of all events sorted by start time.
func (s *Storage) AllOrdered() []storage.Event {
	events := make([]storage.Event, len(s.events))
	copy(events, s.events)
	return events
}

func (s *Storage) HappeningNow(ref time.Time) []storage.Event {
	return s.filter(func(e storage.Event) bool {
		return timeline.IsHappeningNow(e, ref)
	})
}

// PastEvents returns events whose window ended before ref.
func (s *Storage) PastEvents(ref time.Time) []storage.Event {
	return s.filter(func(e storage.Event) bool {
		return timeline.IsPast(e, ref)
	})
}

func (s *Storage) StatusOf(e storage.Event, ref time.Time) timeline.Status {
	return timeline.StatusOf(e, ref)
}

func (s *Storage) filter(match func(e storage.Event) bool) []storage.Event {
	events := make([]storage.Event, 0)
	for _, e := range s.events {
		if match(e) {
			events = append(events, e)
		}
	}
	return events
}

func sortByTime(events []storage.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].When().Before(events[j].When())
	})
}

func writeAtomic(path string, events []storage.Event) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, e := range events {
		if _, err := w.WriteString(storage.Encode(e) + "\n"); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
