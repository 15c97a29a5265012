package dav

import (
	"context"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Task is the facade's view of a VTODO.
type Task struct {
	UID         string
	Summary     string
	Description string
	Status      string
	Due         time.Time
}

const statusCompleted = "COMPLETED"

// Completed reports whether the task is done.
func (t Task) Completed() bool { return t.Status == statusCompleted }

// ListTasks queries VTODOs in a calendar.
func (c *Client) ListTasks(ctx context.Context, calendarPath string, includeCompleted bool) ([]Task, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	objs, err := c.queryComponents(ctx, calendarPath, ical.CompToDo, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	var tasks []Task
	for _, obj := range objs {
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompToDo {
				continue
			}
			task := decodeTask(comp)
			if task.Completed() && !includeCompleted {
				continue
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// CreateTask stores a new VTODO and returns its generated UID.
func (c *Client) CreateTask(ctx context.Context, calendarPath string, task Task) (string, error) {
	if err := c.ensure(); err != nil {
		return "", err
	}
	uid := uuid.NewString()
	comp := ical.NewComponent(ical.CompToDo)
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	comp.Props.SetText(ical.PropSummary, task.Summary)
	comp.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	if task.Description != "" {
		comp.Props.SetText(ical.PropDescription, task.Description)
	}
	if !task.Due.IsZero() {
		comp.Props.SetDateTime(ical.PropDue, task.Due.UTC())
	}

	objPath := path.Join(calendarPath, uid+".ics")
	if _, err := c.cal.PutCalendarObject(ctx, objPath, wrapComponent(comp)); err != nil {
		return "", classify("put task", err)
	}
	return uid, nil
}

// CompleteTask marks the VTODO with the given UID as completed.
func (c *Client) CompleteTask(ctx context.Context, calendarPath, uid string) error {
	if err := c.ensure(); err != nil {
		return err
	}
	obj, comp, err := c.findComponent(ctx, calendarPath, ical.CompToDo, uid)
	if err != nil {
		return err
	}

	comp.Props.SetText(ical.PropStatus, statusCompleted)
	comp.Props.SetText(ical.PropPercentComplete, "100")
	comp.Props.SetDateTime(ical.PropCompleted, time.Now().UTC())
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if _, err := c.cal.PutCalendarObject(ctx, obj.Path, obj.Data); err != nil {
		return classify("put task", err)
	}
	return nil
}

// DeleteTask removes the VTODO with the given UID.
func (c *Client) DeleteTask(ctx context.Context, calendarPath, uid string) error {
	return c.deleteComponent(ctx, calendarPath, ical.CompToDo, uid)
}

func decodeTask(comp *ical.Component) Task {
	return Task{
		UID:         textProp(comp.Props, ical.PropUID),
		Summary:     textProp(comp.Props, ical.PropSummary),
		Description: textProp(comp.Props, ical.PropDescription),
		Status:      textProp(comp.Props, ical.PropStatus),
		Due:         dateTimeProp(comp.Props, ical.PropDue),
	}
}
