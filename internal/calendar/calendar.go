// Package calendar mirrors meeting tasks into a Google Calendar and reads
// the events of a day for the agenda.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bizdash/internal/agenda"
	"bizdash/internal/core"
	"bizdash/internal/log"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "bizdash_task_id"

// MeetingDuration is the length given to events created from timed tasks.
const MeetingDuration = time.Hour

type Client struct {
	srv        *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *log.Logger
}

// New creates a Calendar client authenticated with a service account key.
// Meeting times are interpreted in loc.
func New(ctx context.Context, calendarID string, credentialsJSON []byte, loc *time.Location, logger *log.Logger) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	srv, err := gcal.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return NewWithService(srv, calendarID, loc, logger)
}

func NewWithService(srv *gcal.Service, calendarID string, loc *time.Location, logger *log.Logger) (*Client, error) {
	if calendarID == "" {
		return nil, errors.New("missing GOOGLE_CALENDAR_ID")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		srv:        srv,
		calendarID: calendarID,
		loc:        loc,
		logger:     logger.WithComponent(log.ComponentCalendar),
	}, nil
}

// SyncMeeting creates or updates the event of a meeting task and returns its id.
// The existing event is looked up by the task's stored event id first, then by
// the task id property, so a lost id does not create a duplicate.
func (c *Client) SyncMeeting(ctx context.Context, task core.Task) (string, error) {
	if task.DueDate.IsZero() {
		return "", fmt.Errorf("meeting %s has no date: %w", task.ID, core.ErrInvalidDate)
	}
	target := c.eventFor(task)

	existing, err := c.findEvent(ctx, task)
	if err != nil {
		return "", err
	}

	if existing != nil {
		patch := eventPatch(existing, target)
		if patch == nil {
			return existing.Id, nil
		}
		updated, err := c.srv.Events.Patch(c.calendarID, existing.Id, patch).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("patch event %s: %w", existing.Id, err)
		}
		c.logger.InfoContext(ctx, "Updated calendar event", log.FieldTaskID, task.ID, log.FieldEventID, updated.Id)
		return updated.Id, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, target).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	c.logger.InfoContext(ctx, "Created calendar event", log.FieldTaskID, task.ID, log.FieldEventID, created.Id)
	return created.Id, nil
}

// DeleteEvent removes an event; one that is already gone is not an error.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

// ListDay returns the events starting on day.
func (c *Client) ListDay(ctx context.Context, day core.Date) ([]agenda.Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)
	end := start.AddDate(0, 0, 1)
	resp, err := c.srv.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}

	out := make([]agenda.Event, 0, len(resp.Items))
	for _, e := range resp.Items {
		ev := agenda.Event{ID: e.Id, Title: e.Summary}
		if e.Start != nil && e.Start.DateTime != "" {
			t, err := time.Parse(time.RFC3339, e.Start.DateTime)
			if err != nil {
				c.logger.WarnContext(ctx, "Skipping event with unparsable start",
					log.FieldEventID, e.Id, log.FieldError, err)
				continue
			}
			ev.Start = t.In(c.loc)
		}
		if e.ExtendedProperties != nil {
			ev.TaskID = e.ExtendedProperties.Private[TaskIDProperty]
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) findEvent(ctx context.Context, task core.Task) (*gcal.Event, error) {
	if task.CalendarEventID != "" {
		e, err := c.srv.Events.Get(c.calendarID, task.CalendarEventID).Context(ctx).Do()
		if err == nil && e.Status != "cancelled" {
			return e, nil
		}
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("get event %s: %w", task.CalendarEventID, err)
		}
	}

	resp, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, task.ID)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}
	if len(resp.Items) > 0 {
		return resp.Items[0], nil
	}
	return nil, nil
}

func (c *Client) eventFor(task core.Task) *gcal.Event {
	e := &gcal.Event{
		Summary: task.Title,
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: task.ID},
		},
	}
	if offset, ok := task.ClockTime(); ok {
		start := time.Date(task.DueDate.Year(), task.DueDate.Month(), task.DueDate.Day(), 0, 0, 0, 0, c.loc).Add(offset)
		e.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)}
		e.End = &gcal.EventDateTime{DateTime: start.Add(MeetingDuration).Format(time.RFC3339)}
		return e
	}
	e.Start = &gcal.EventDateTime{Date: task.DueDate.String()}
	e.End = &gcal.EventDateTime{Date: core.DateOf(task.DueDate.AddDate(0, 0, 1)).String()}
	return e
}

// eventPatch returns the fields of target that differ from existing, or nil.
func eventPatch(existing, target *gcal.Event) *gcal.Event {
	patch := &gcal.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if !sameTime(existing.Start, target.Start) || !sameTime(existing.End, target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}
	if existing.ExtendedProperties == nil || existing.ExtendedProperties.Private[TaskIDProperty] != target.ExtendedProperties.Private[TaskIDProperty] {
		patch.ExtendedProperties = target.ExtendedProperties
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func sameTime(a, b *gcal.EventDateTime) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Date != "" || b.Date != "" {
		return a.Date == b.Date && a.DateTime == "" && b.DateTime == ""
	}
	ta, errA := time.Parse(time.RFC3339, a.DateTime)
	tb, errB := time.Parse(time.RFC3339, b.DateTime)
	if errA != nil || errB != nil {
		return a.DateTime == b.DateTime
	}
	return ta.Equal(tb)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}
