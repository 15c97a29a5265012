package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"davmcp/internal/dav"
	"davmcp/internal/domain"
)

// CalendarTools returns the calendar tool group.
func CalendarTools(client *dav.Client) []domain.Tool {
	return []domain.Tool{
		NewListCalendarsTool(client),
		NewListEventsTool(client),
		NewCreateEventTool(client),
		NewUpdateEventTool(client),
		NewDeleteEventTool(client),
	}
}

// --- list_calendars ---

type ListCalendarsTool struct {
	client *dav.Client
}

func NewListCalendarsTool(client *dav.Client) *ListCalendarsTool {
	return &ListCalendarsTool{client: client}
}

func (t *ListCalendarsTool) Name() string { return "list_calendars" }
func (t *ListCalendarsTool) Description() string {
	return "List all calendars on the server with their paths, names, and supported component types."
}
func (t *ListCalendarsTool) Parameters() map[string]any { return ToolParameters(nil, nil) }
func (t *ListCalendarsTool) Category() string           { return domain.CategoryCalendar }
func (t *ListCalendarsTool) RequiresRemote() bool       { return false }

func (t *ListCalendarsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	cals, err := t.client.FindCalendars(ctx)
	if err != nil {
		return "", err
	}
	if len(cals) == 0 {
		return "No calendars found.", nil
	}
	return formatCalendars(cals), nil
}

func formatCalendars(cals []dav.CalendarInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d calendar(s):\n", len(cals))
	for _, c := range cals {
		fmt.Fprintf(&sb, "- %s (path: %s", c.Name, c.Path)
		if len(c.Components) > 0 {
			fmt.Fprintf(&sb, ", components: %s", strings.Join(c.Components, ","))
		}
		sb.WriteString(")")
		if c.Description != "" {
			fmt.Fprintf(&sb, ": %s", c.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// --- list_events ---

type ListEventsTool struct {
	client *dav.Client
}

func NewListEventsTool(client *dav.Client) *ListEventsTool {
	return &ListEventsTool{client: client}
}

func (t *ListEventsTool) Name() string { return "list_events" }
func (t *ListEventsTool) Description() string {
	return "List events in a calendar, optionally restricted to a time range (RFC3339 timestamps)."
}
func (t *ListEventsTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the calendar, as returned by list_calendars"},
		"start":         {Type: "string", Description: "Range start, RFC3339 (optional)"},
		"end":           {Type: "string", Description: "Range end, RFC3339 (optional)"},
	}, []string{"calendar_path"})
}
func (t *ListEventsTool) Category() string     { return domain.CategoryCalendar }
func (t *ListEventsTool) RequiresRemote() bool { return false }

func (t *ListEventsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	start, err := timeArg(args, "start")
	if err != nil {
		return "", err
	}
	end, err := timeArg(args, "end")
	if err != nil {
		return "", err
	}

	events, err := t.client.ListEvents(ctx, calPath, start, end)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "No events found.", nil
	}
	return formatEvents(events), nil
}

func formatEvents(events []dav.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d event(s):\n", len(events))
	for _, ev := range events {
		fmt.Fprintf(&sb, "- [%s] %s", ev.UID, ev.Summary)
		if !ev.Start.IsZero() {
			fmt.Fprintf(&sb, " %s", ev.Start.Format(time.RFC3339))
		}
		if !ev.End.IsZero() {
			fmt.Fprintf(&sb, " .. %s", ev.End.Format(time.RFC3339))
		}
		if ev.Location != "" {
			fmt.Fprintf(&sb, " @ %s", ev.Location)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// --- create_event ---

type CreateEventTool struct {
	client *dav.Client
}

func NewCreateEventTool(client *dav.Client) *CreateEventTool {
	return &CreateEventTool{client: client}
}

func (t *CreateEventTool) Name() string { return "create_event" }
func (t *CreateEventTool) Description() string {
	return "Create a calendar event. Times are RFC3339. Returns the UID of the new event."
}
func (t *CreateEventTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the target calendar"},
		"summary":       {Type: "string", Description: "Event title"},
		"start":         {Type: "string", Description: "Start time, RFC3339"},
		"end":           {Type: "string", Description: "End time, RFC3339"},
		"description":   {Type: "string", Description: "Event description (optional)"},
		"location":      {Type: "string", Description: "Event location (optional)"},
	}, []string{"calendar_path", "summary", "start", "end"})
}
func (t *CreateEventTool) Category() string     { return domain.CategoryCalendar }
func (t *CreateEventTool) RequiresRemote() bool { return true }

func (t *CreateEventTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	summary, err := requireArg(args, "summary")
	if err != nil {
		return "", err
	}
	start, err := timeArg(args, "start")
	if err != nil {
		return "", err
	}
	end, err := timeArg(args, "end")
	if err != nil {
		return "", err
	}
	if start.IsZero() || end.IsZero() {
		return "", fmt.Errorf("start and end are required")
	}
	if !end.After(start) {
		return "", fmt.Errorf("end must be after start")
	}

	uid, err := t.client.CreateEvent(ctx, calPath, dav.Event{
		Summary:     summary,
		Description: ArgsString(args, "description"),
		Location:    ArgsString(args, "location"),
		Start:       start,
		End:         end,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Event created with UID %s", uid), nil
}

// --- update_event ---

type UpdateEventTool struct {
	client *dav.Client
}

func NewUpdateEventTool(client *dav.Client) *UpdateEventTool {
	return &UpdateEventTool{client: client}
}

func (t *UpdateEventTool) Name() string { return "update_event" }
func (t *UpdateEventTool) Description() string {
	return "Update fields of an existing event identified by UID. Omitted fields are left unchanged."
}
func (t *UpdateEventTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the calendar containing the event"},
		"uid":           {Type: "string", Description: "UID of the event to update"},
		"summary":       {Type: "string", Description: "New title (optional)"},
		"start":         {Type: "string", Description: "New start time, RFC3339 (optional)"},
		"end":           {Type: "string", Description: "New end time, RFC3339 (optional)"},
		"description":   {Type: "string", Description: "New description (optional)"},
		"location":      {Type: "string", Description: "New location (optional)"},
	}, []string{"calendar_path", "uid"})
}
func (t *UpdateEventTool) Category() string     { return domain.CategoryCalendar }
func (t *UpdateEventTool) RequiresRemote() bool { return true }

func (t *UpdateEventTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	start, err := timeArg(args, "start")
	if err != nil {
		return "", err
	}
	end, err := timeArg(args, "end")
	if err != nil {
		return "", err
	}

	patch := dav.Event{
		Summary:     ArgsString(args, "summary"),
		Description: ArgsString(args, "description"),
		Location:    ArgsString(args, "location"),
		Start:       start,
		End:         end,
	}
	if err := t.client.UpdateEvent(ctx, calPath, uid, patch); err != nil {
		return "", err
	}
	return fmt.Sprintf("Event %s updated", uid), nil
}

// --- delete_event ---

type DeleteEventTool struct {
	client *dav.Client
}

func NewDeleteEventTool(client *dav.Client) *DeleteEventTool {
	return &DeleteEventTool{client: client}
}

func (t *DeleteEventTool) Name() string { return "delete_event" }
func (t *DeleteEventTool) Description() string {
	return "Delete an event identified by UID from a calendar."
}
func (t *DeleteEventTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the calendar containing the event"},
		"uid":           {Type: "string", Description: "UID of the event to delete"},
	}, []string{"calendar_path", "uid"})
}
func (t *DeleteEventTool) Category() string     { return domain.CategoryCalendar }
func (t *DeleteEventTool) RequiresRemote() bool { return true }

func (t *DeleteEventTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	if err := t.client.DeleteEvent(ctx, calPath, uid); err != nil {
		return "", err
	}
	return fmt.Sprintf("Event %s deleted", uid), nil
}
