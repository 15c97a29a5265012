package dav

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"davmcp/internal/domain"
)

// CalendarInfo describes one calendar collection.
type CalendarInfo struct {
	Path        string
	Name        string
	Description string
	Components  []string
}

// Event is the facade's view of a VEVENT.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// FindCalendars lists the calendars under the user's calendar home set.
func (c *Client) FindCalendars(ctx context.Context) ([]CalendarInfo, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	cals, err := c.cal.FindCalendars(ctx, c.calHome)
	if err != nil {
		return nil, classify("find calendars", err)
	}
	out := make([]CalendarInfo, 0, len(cals))
	for _, cal := range cals {
		out = append(out, CalendarInfo{
			Path:        cal.Path,
			Name:        cal.Name,
			Description: cal.Description,
			Components:  cal.SupportedComponentSet,
		})
	}
	return out, nil
}

// ListEvents queries VEVENTs in a calendar, optionally limited to a time
// range (zero times mean unbounded).
func (c *Client) ListEvents(ctx context.Context, calendarPath string, start, end time.Time) ([]Event, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	objs, err := c.queryComponents(ctx, calendarPath, ical.CompEvent, start, end)
	if err != nil {
		return nil, err
	}
	var events []Event
	for _, obj := range objs {
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			events = append(events, decodeEvent(comp))
		}
	}
	return events, nil
}

// CreateEvent stores a new VEVENT and returns its generated UID.
func (c *Client) CreateEvent(ctx context.Context, calendarPath string, ev Event) (string, error) {
	if err := c.ensure(); err != nil {
		return "", err
	}
	uid := uuid.NewString()
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	comp.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	comp.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	comp.Props.SetText(ical.PropSummary, ev.Summary)
	if ev.Description != "" {
		comp.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		comp.Props.SetText(ical.PropLocation, ev.Location)
	}

	objPath := path.Join(calendarPath, uid+".ics")
	if _, err := c.cal.PutCalendarObject(ctx, objPath, wrapComponent(comp)); err != nil {
		return "", classify("put event", err)
	}
	return uid, nil
}

// UpdateEvent fetches the VEVENT with the given UID, applies the non-zero
// fields of patch, and stores it back.
func (c *Client) UpdateEvent(ctx context.Context, calendarPath, uid string, patch Event) error {
	if err := c.ensure(); err != nil {
		return err
	}
	obj, comp, err := c.findComponent(ctx, calendarPath, ical.CompEvent, uid)
	if err != nil {
		return err
	}

	if patch.Summary != "" {
		comp.Props.SetText(ical.PropSummary, patch.Summary)
	}
	if patch.Description != "" {
		comp.Props.SetText(ical.PropDescription, patch.Description)
	}
	if patch.Location != "" {
		comp.Props.SetText(ical.PropLocation, patch.Location)
	}
	if !patch.Start.IsZero() {
		comp.Props.SetDateTime(ical.PropDateTimeStart, patch.Start.UTC())
	}
	if !patch.End.IsZero() {
		comp.Props.SetDateTime(ical.PropDateTimeEnd, patch.End.UTC())
	}
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if _, err := c.cal.PutCalendarObject(ctx, obj.Path, obj.Data); err != nil {
		return classify("put event", err)
	}
	return nil
}

// DeleteEvent removes the VEVENT with the given UID.
func (c *Client) DeleteEvent(ctx context.Context, calendarPath, uid string) error {
	return c.deleteComponent(ctx, calendarPath, ical.CompEvent, uid)
}

// --- shared component plumbing (events and todos) ---

func (c *Client) queryComponents(ctx context.Context, calendarPath, compName string, start, end time.Time) ([]caldav.CalendarObject, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{
				{Name: compName, AllProps: true},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{Name: compName, Start: start, End: end},
			},
		},
	}
	objs, err := c.cal.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, classify("query calendar", err)
	}
	return objs, nil
}

func (c *Client) findComponent(ctx context.Context, calendarPath, compName, uid string) (*caldav.CalendarObject, *ical.Component, error) {
	objs, err := c.queryComponents(ctx, calendarPath, compName, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	for i := range objs {
		for _, comp := range objs[i].Data.Children {
			if comp.Name != compName {
				continue
			}
			if textProp(comp.Props, ical.PropUID) == uid {
				return &objs[i], comp, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%s with uid %q in %s: %w", compName, uid, calendarPath, domain.ErrObjectNotFound)
}

func (c *Client) deleteComponent(ctx context.Context, calendarPath, compName, uid string) error {
	if err := c.ensure(); err != nil {
		return err
	}
	obj, _, err := c.findComponent(ctx, calendarPath, compName, uid)
	if err != nil {
		return err
	}
	if err := c.cal.RemoveAll(ctx, obj.Path); err != nil {
		return classify("delete object", err)
	}
	return nil
}

// wrapComponent embeds a single component into a fresh VCALENDAR envelope.
func wrapComponent(comp *ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, "-//davmcp//davmcp//EN")
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, comp)
	return cal
}

func decodeEvent(comp *ical.Component) Event {
	return Event{
		UID:         textProp(comp.Props, ical.PropUID),
		Summary:     textProp(comp.Props, ical.PropSummary),
		Description: textProp(comp.Props, ical.PropDescription),
		Location:    textProp(comp.Props, ical.PropLocation),
		Start:       dateTimeProp(comp.Props, ical.PropDateTimeStart),
		End:         dateTimeProp(comp.Props, ical.PropDateTimeEnd),
	}
}

func textProp(props ical.Props, name string) string {
	v, err := props.Text(name)
	if err != nil {
		return ""
	}
	return v
}

func dateTimeProp(props ical.Props, name string) time.Time {
	t, err := props.DateTime(name, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
