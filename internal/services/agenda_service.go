package services

import (
	"context"
	"fmt"

	"bizdash/internal/agenda"
	"bizdash/internal/core"
	"bizdash/internal/log"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EventCalendar is the calendar the agenda reads from and mirrors meetings into.
type EventCalendar interface {
	SyncMeeting(ctx context.Context, task core.Task) (eventID string, err error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListDay(ctx context.Context, day core.Date) ([]agenda.Event, error)
}

// AgendaService owns task writes and the day view. Calendar failures never
// fail a task write or the agenda; they are logged and the calendar side is
// left for the next save.
type AgendaService struct {
	tasks    storage.Collection[core.Task]
	calendar EventCalendar
	logger   *log.Logger
	newID    func() string
}

// NewAgendaService creates the service. cal may be nil when no calendar is configured.
func NewAgendaService(tasks storage.Collection[core.Task], cal EventCalendar, logger *log.Logger) *AgendaService {
	return &AgendaService{
		tasks:    tasks,
		calendar: cal,
		logger:   logger.WithComponent(log.ComponentCalendar),
		newID:    uuid.NewString,
	}
}

// Day returns the merged agenda for day.
func (s *AgendaService) Day(ctx context.Context, day core.Date) ([]agenda.Item, error) {
	var (
		tasks  []core.Task
		events []agenda.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.List(gctx)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	if s.calendar != nil {
		g.Go(func() error {
			var err error
			events, err = s.calendar.ListDay(gctx, day)
			if err != nil {
				s.logger.WarnContext(ctx, "Calendar unavailable, showing tasks only",
					"date", day.String(), log.FieldError, err)
				events = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return agenda.Merge(tasks, events, day), nil
}

// SaveTask validates and stores a task, assigning an id to new ones. Dated
// meetings are mirrored to the calendar and the event id is kept on the task.
func (s *AgendaService) SaveTask(ctx context.Context, task core.Task) (core.Task, error) {
	if err := task.Validate(); err != nil {
		return core.Task{}, err
	}
	if task.ID == "" {
		task.ID = s.newID()
	}

	if s.calendar != nil && task.IsMeeting && !task.DueDate.IsZero() {
		eventID, err := s.calendar.SyncMeeting(ctx, task)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to sync meeting to calendar",
				log.FieldTaskID, task.ID, log.FieldError, err)
		} else {
			task.CalendarEventID = eventID
		}
	}

	if err := s.tasks.Put(ctx, task); err != nil {
		return core.Task{}, fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return task, nil
}

// DeleteTask removes a task and its calendar event.
func (s *AgendaService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if s.calendar != nil && task.CalendarEventID != "" {
		if err := s.calendar.DeleteEvent(ctx, task.CalendarEventID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete calendar event",
				log.FieldTaskID, id, log.FieldEventID, task.CalendarEventID, log.FieldError, err)
		}
	}
	return nil
}
