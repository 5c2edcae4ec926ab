package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lomoval/eventregistry/internal/app"
	"github.com/lomoval/eventregistry/internal/storage"
	filestorage "github.com/lomoval/eventregistry/internal/storage/file"
	"github.com/lomoval/eventregistry/internal/validator"
	log "github.com/sirupsen/logrus"
)

const inputTimeLayout = "02/01/2006 15:04"

type Config struct {
	ExportFile string
}

// Console runs the interactive menu.
type Console struct {
	app        *app.App
	in         *bufio.Scanner
	out        io.Writer
	exportFile string
}

func New(config Config, a *app.App, in io.Reader, out io.Writer) *Console {
	return &Console{app: a, in: bufio.NewScanner(in), out: out, exportFile: config.ExportFile}
}

// Run shows the menu until the user quits or the input ends. Data is saved on exit.
func (c *Console) Run(ctx context.Context) error {
	c.showWelcome()
	err := c.mainLoop(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	c.println("Saving and exiting...")
	if err := c.app.Shutdown(); err != nil {
		c.printf("Failed to save: %v\n", err)
		return err
	}
	return nil
}

func (c *Console) showWelcome() {
	c.println("========================================")
	c.println("  EVENT REGISTRY - CONSOLE")
	c.println("========================================")
	c.println()
	c.println("Tip: dates use the format dd/MM/yyyy HH:mm (e.g. 10/09/2025 19:30)")
	c.println()
	if u, ok := c.app.CurrentUser(); ok {
		c.printf("User loaded: %s\n\n", u.Name())
	}
}

func (c *Console) mainLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return io.EOF
		}
		c.printMainMenu()
		opt, err := c.readLine("Choose an option: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(opt) {
		case "1":
			err = c.registerUser()
		case "2":
			err = c.withUser(func() error { return c.createEvent(ctx) })
		case "3":
			c.listAllEvents()
		case "4":
			err = c.withUser(c.participate)
		case "5":
			err = c.withUser(c.listMyEvents)
		case "6":
			err = c.withUser(c.cancelParticipation)
		case "7":
			c.showHappeningNow()
		case "8":
			c.showPastEvents()
		case "9":
			c.listCategories()
		case "e":
			c.export()
		case "0":
			return nil
		default:
			c.println("Invalid option.")
			c.println()
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) printMainMenu() {
	c.println("---------------- MENU ----------------")
	c.println("1) Register/Change user")
	c.println("2) Create event")
	c.println("3) List events (ordered by date/time)")
	c.println("4) Attend an event")
	c.println("5) My confirmed events")
	c.println("6) Cancel attendance")
	c.println("7) Events happening NOW")
	c.println("8) Past events")
	c.println("9) Show categories")
	c.println("e) Export events to iCalendar")
	c.println("0) Exit")
	c.println("--------------------------------------")
}

func (c *Console) withUser(action func() error) error {
	if _, ok := c.app.CurrentUser(); !ok {
		c.println("No user registered. Register to continue.")
		c.println()
		if err := c.registerUser(); err != nil {
			return err
		}
		u, _ := c.app.CurrentUser()
		c.printf("\nWelcome, %s!\n\n", u.FirstName())
	}
	return action()
}

func (c *Console) registerUser() error {
	for {
		c.println("--- User registration ---")
		var in app.UserInput
		var err error
		if in.Name, err = c.readLine("Full name: "); err != nil {
			return err
		}
		if in.Email, err = c.readLine("Email: "); err != nil {
			return err
		}
		if in.City, err = c.readLine("City: "); err != nil {
			return err
		}
		if in.Phone, err = c.readLine("Phone (optional): "); err != nil {
			return err
		}

		_, err = c.app.RegisterUser(in)
		var vErrors validator.ValidationErrors
		switch {
		case err == nil:
			return nil
		case errors.As(err, &vErrors):
			c.printf("Invalid user data: %v\n\n", err)
		default:
			c.printf("User set, but could not be saved: %v\n\n", err)
			return nil
		}
	}
}

func (c *Console) createEvent(ctx context.Context) error {
	c.println("--- Create event ---")
	var in app.EventInput
	var err error
	if in.Name, err = c.readLine("Name: "); err != nil {
		return err
	}
	if in.Address, err = c.readLine("Address: "); err != nil {
		return err
	}
	if in.Category, err = c.askCategory(); err != nil {
		return err
	}
	if in.When, err = c.askDateTime("Date and time (dd/MM/yyyy HH:mm): "); err != nil {
		return err
	}
	if in.Description, err = c.readLine("Description: "); err != nil {
		return err
	}

	e, err := c.app.CreateEvent(in)
	switch {
	case errors.Is(err, filestorage.ErrWriteFailed):
		c.printf("Event registered, but could not be saved: %v\n\n", err)
	case err != nil:
		c.printf("Failed to register event: %v\n\n", err)
		return nil
	default:
		c.println("Event registered successfully!")
		c.println()
	}

	if _, err := c.app.NotifyIfUpcoming(ctx, e); err != nil {
		log.Warnf("failed to send notification for %q: %v", e.ID(), err)
	}
	return nil
}

func (c *Console) listAllEvents() {
	c.println("--- Events (ordered) ---")
	events := c.app.Events()
	if len(events) == 0 {
		c.println("No events registered.")
		c.println()
		return
	}
	c.printNumbered(events)
}

func (c *Console) participate() error {
	events := c.app.Events()
	if len(events) == 0 {
		c.println("No events available.")
		c.println()
		return nil
	}
	c.listAllEvents()
	e, ok, err := c.chooseEvent(events, "Enter the event number to attend: ")
	if err != nil || !ok {
		return err
	}
	if err := c.app.Participate(e); err != nil {
		return err
	}
	c.printf("Attendance confirmed: %s\n\n", e.Name())
	return nil
}

func (c *Console) listMyEvents() error {
	c.println("--- My confirmed events ---")
	events, err := c.app.MyEvents()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		c.println("You haven't confirmed attendance to any event yet.")
		c.println()
		return nil
	}
	c.printNumbered(events)
	return nil
}

func (c *Console) cancelParticipation() error {
	events, err := c.app.MyEvents()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		c.println("You have no confirmed events.")
		c.println()
		return nil
	}
	c.println("--- Cancel attendance ---")
	c.printNumbered(events)
	e, ok, err := c.chooseEvent(events, "Enter the event number to cancel: ")
	if err != nil || !ok {
		return err
	}
	if err := c.app.CancelParticipation(e); err != nil {
		return err
	}
	c.printf("Attendance canceled: %s\n\n", e.Name())
	return nil
}

func (c *Console) showHappeningNow() {
	c.println("--- Events happening NOW ---")
	events := c.app.HappeningNow()
	if len(events) == 0 {
		c.println("No events happening right now.")
		c.println()
		return
	}
	c.printListed(events)
}

func (c *Console) showPastEvents() {
	c.println("--- Past events ---")
	events := c.app.PastEvents()
	if len(events) == 0 {
		c.println("No past events registered.")
		c.println()
		return
	}
	c.printListed(events)
}

func (c *Console) listCategories() {
	c.println("Event categories:")
	for _, category := range storage.Categories() {
		c.printf("- %s\n", category)
	}
	c.println()
}

func (c *Console) export() {
	f, err := os.Create(c.exportFile)
	if err != nil {
		c.printf("Failed to export: %v\n\n", err)
		return
	}
	defer f.Close()
	if err := c.app.ExportICS(f); err != nil {
		c.printf("Failed to export: %v\n\n", err)
		return
	}
	c.printf("Exported %d events to %s\n\n", len(c.app.Events()), c.exportFile)
}

func (c *Console) renderEvent(e storage.Event) string {
	return fmt.Sprintf("%s | %s | %s | %s | %s",
		e.Name(), e.Address(), e.Category(), e.When().Format(inputTimeLayout), c.app.StatusOf(e))
}

func (c *Console) printNumbered(events []storage.Event) {
	for i, e := range events {
		c.printf("%d) %s\n", i+1, c.renderEvent(e))
	}
	c.println()
}

func (c *Console) printListed(events []storage.Event) {
	for _, e := range events {
		c.printf("- %s\n", c.renderEvent(e))
	}
	c.println()
}

func (c *Console) chooseEvent(events []storage.Event, prompt string) (storage.Event, bool, error) {
	idx, err := c.readInt(prompt)
	if err != nil {
		return storage.Event{}, false, err
	}
	if idx < 1 || idx > len(events) {
		c.println("Invalid number.")
		c.println()
		return storage.Event{}, false, nil
	}
	return events[idx-1], true, nil
}

func (c *Console) askCategory() (storage.Category, error) {
	categories := storage.Categories()
	for {
		c.println("Choose the category:")
		for i, category := range categories {
			c.printf("%d) %s\n", i+1, category)
		}
		opt, err := c.readInt("Category number: ")
		if err != nil {
			return 0, err
		}
		if opt >= 1 && opt <= len(categories) {
			return categories[opt-1], nil
		}
		c.println("Invalid option. Try again.")
		c.println()
	}
}

func (c *Console) askDateTime(prompt string) (time.Time, error) {
	for {
		s, err := c.readLine(prompt)
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.ParseInLocation(inputTimeLayout, s, time.Local)
		if err == nil {
			return t, nil
		}
		c.println("Invalid format. Use dd/MM/yyyy HH:mm.")
		c.println()
	}
}

func (c *Console) readInt(prompt string) (int, error) {
	for {
		s, err := c.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, nil
		}
		c.println("Enter a valid number.")
		c.println()
	}
}

// readLine returns io.EOF when the input is over.
func (c *Console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.in.Scan() {
		c.println()
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(args ...interface{}) {
	fmt.Fprintln(c.out, args...)
}
