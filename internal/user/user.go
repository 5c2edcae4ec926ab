package user

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const fieldCount = 4

type User struct {
	name  string
	email string
	city  string
	phone string
}

func New(name, email, city, phone string) User {
	return User{name: name, email: email, city: city, phone: phone}
}

func (u User) Name() string  { return u.name }
func (u User) Email() string { return u.email }
func (u User) City() string  { return u.city }
func (u User) Phone() string { return u.phone }

// FirstName returns the first word of the name.
func (u User) FirstName() string {
	parts := strings.Fields(u.name)
	if len(parts) == 0 {
		return u.name
	}
	return parts[0]
}

// Store keeps the current user profile in a single-line file: name|email|city|phone.
type Store struct {
	path    string
	current *User
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Current() (User, bool) {
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

// SetCurrent replaces the current user and saves it.
func (s *Store) SetCurrent(u User) error {
	s.current = &u
	return s.Save()
}

// Load reads the profile from the first line of the file. A missing file or a line with
// too few fields leaves the store without a user.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		log.Errorf("failed to read user: %v", err)
		return fmt.Errorf("failed to read user file %q: %w", s.path, err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		log.Errorf("failed to read user: %v", err)
		return fmt.Errorf("failed to read user file %q: %w", s.path, err)
	}

	parts := strings.Split(strings.TrimRight(line, "\r\n"), "|")
	if len(parts) < fieldCount {
		log.Debugf("ignoring user line with %d fields", len(parts))
		return nil
	}
	u := New(parts[0], parts[1], parts[2], parts[3])
	s.current = &u
	return nil
}

// Save overwrites the file with the current user. Without a user it does nothing.
func (s *Store) Save() error {
	if s.current == nil {
		return nil
	}
	line := strings.Join([]string{s.current.name, s.current.email, s.current.city, s.current.phone}, "|")
	if err := os.WriteFile(s.path, []byte(line), 0o644); err != nil {
		log.Errorf("failed to save user: %v", err)
		return fmt.Errorf("failed to write user file %q: %w", s.path, err)
	}
	return nil
}
