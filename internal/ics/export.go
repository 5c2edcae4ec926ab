package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/lomoval/eventregistry/internal/storage"
	"github.com/lomoval/eventregistry/internal/timeline"
	log "github.com/sirupsen/logrus"
)

const productID = "-//lomoval//eventregistry//EN"

// Export writes events as an iCalendar document. Every VEVENT lasts timeline.DefaultDuration.
func Export(w io.Writer, events []storage.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		start, end := timeline.Window(e)
		ve := cal.AddEvent(e.ID())
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(e.Name())
		if e.Address() != "" {
			ve.SetLocation(e.Address())
		}
		if e.Description() != "" {
			ve.SetDescription(e.Description())
		}
		ve.SetProperty(ical.ComponentPropertyCategories, e.Category().String())
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	log.Debugf("exported %d events", len(events))
	return nil
}
