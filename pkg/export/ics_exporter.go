package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one weekly recurring timetable session.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Weeks       int
}

// ICSExporter renders calendar events as an iCalendar feed.
type ICSExporter struct {
	productID string
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{productID: "-//timetable-api//timetable export//EN"}
}

// Render serialises events; each event repeats weekly for its Weeks count.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := time.Now().UTC()
	for _, evt := range events {
		if evt.UID == "" {
			return nil, fmt.Errorf("calendar event requires a uid")
		}
		if !evt.End.After(evt.Start) {
			return nil, fmt.Errorf("calendar event %s ends before it starts", evt.UID)
		}
		event := cal.AddEvent(evt.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(evt.Start)
		event.SetEndAt(evt.End)
		event.SetSummary(evt.Summary)
		if evt.Location != "" {
			event.SetLocation(evt.Location)
		}
		if evt.Description != "" {
			event.SetDescription(evt.Description)
		}
		if evt.Weeks > 1 {
			event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", evt.Weeks))
		}
	}
	return []byte(cal.Serialize()), nil
}
