// Package agenda builds the day view that combines tasks with calendar events.
package agenda

import (
	"sort"
	"time"

	"bizdash/internal/core"
)

type Kind string

const (
	KindTask  Kind = "task"
	KindEvent Kind = "event"
)

type (
	// Event is a calendar entry reduced to what the agenda shows.
	Event struct {
		ID    string
		Title string
		// Start is zero for all-day events.
		Start time.Time
		// TaskID is set when the event was created from a task.
		TaskID string
	}

	Item struct {
		Kind    Kind   `json:"kind"`
		ID      string `json:"id"`
		Title   string `json:"title"`
		Time    string `json:"time,omitempty"`
		Done    bool   `json:"done"`
		EventID string `json:"eventId,omitempty"`

		offset time.Duration
		timed  bool
	}
)

// Merge returns the tasks due on day followed by the events not already
// represented by one of those tasks, ordered by time of day. Untimed items
// come last; ties keep tasks before events and input order.
func Merge(tasks []core.Task, events []Event, day core.Date) []Item {
	items := make([]Item, 0, len(tasks)+len(events))
	linkedEvents := map[string]bool{}
	taskIDs := map[string]bool{}

	for _, t := range tasks {
		if t.DueDate.IsZero() || !t.DueDate.Equal(day.Time) {
			continue
		}
		it := Item{Kind: KindTask, ID: t.ID, Title: t.Title, Done: t.Done, EventID: t.CalendarEventID}
		if d, ok := t.ClockTime(); ok {
			it.offset, it.timed = d, true
			it.Time = formatOffset(d)
		}
		if t.CalendarEventID != "" {
			linkedEvents[t.CalendarEventID] = true
		}
		taskIDs[t.ID] = true
		items = append(items, it)
	}

	for _, e := range events {
		if linkedEvents[e.ID] || (e.TaskID != "" && taskIDs[e.TaskID]) {
			continue
		}
		it := Item{Kind: KindEvent, ID: e.ID, Title: e.Title, EventID: e.ID}
		if !e.Start.IsZero() {
			h, m, _ := e.Start.Clock()
			it.offset = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
			it.timed = true
			it.Time = formatOffset(it.offset)
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.timed || !b.timed {
			return a.timed && !b.timed
		}
		return a.offset < b.offset
	})
	return items
}

func formatOffset(d time.Duration) string {
	return time.Time{}.Add(d).Format("15:04")
}
