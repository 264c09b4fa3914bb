package http

import (
	"net/http"
	"strings"

	"bizdash/internal/core"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(tasks)).Write(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task core.Task
	if err := decodeJSON(w, r, &task); err != nil {
		writeError(w, r, err)
		return
	}
	task.ID = ""
	task.CalendarEventID = ""
	saved, err := s.agenda.SaveTask(r.Context(), normalizeTask(task))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}

// handleUpdateTask replaces a task, keeping the link to its calendar event.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.Tasks().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var task core.Task
	if err := decodeJSON(w, r, &task); err != nil {
		writeError(w, r, err)
		return
	}
	task.ID = id
	task.CalendarEventID = existing.CalendarEventID
	saved, err := s.agenda.SaveTask(r.Context(), normalizeTask(task))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(saved).Write(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.agenda.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleAgenda returns the merged tasks and calendar events of ?date=,
// today by default.
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	day := s.today()
	if v := r.URL.Query().Get("date"); strings.TrimSpace(v) != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		day = parsed
	}
	items, err := s.agenda.Day(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"date":  day,
		"items": nonNil(items),
	}).Write(w)
}

func normalizeTask(t core.Task) core.Task {
	t.Title = sanitizeInput(t.Title)
	t.Time = strings.TrimSpace(t.Time)
	t.ProjectID = strings.TrimSpace(t.ProjectID)
	return t
}
