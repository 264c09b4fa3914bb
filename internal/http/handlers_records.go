package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/log"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.Projects().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if clientID := strings.TrimSpace(r.URL.Query().Get("clientId")); clientID != "" {
		filtered := projects[:0]
		for _, p := range projects {
			if p.ClientID == clientID {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}
	NewJSONResponse().Body(nonNil(projects)).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var project core.Project
	if err := decodeJSON(w, r, &project); err != nil {
		writeError(w, r, err)
		return
	}
	project = normalizeProject(project, s.today())
	project.ID = s.newID()
	project.CreatedAt = s.now().UTC()
	if err := s.saveProject(r, project); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Project created",
		log.FieldProjectID, project.ID, log.FieldClientID, project.ClientID, log.FieldOperation, log.OpCreate)
	NewJSONResponse().Status(http.StatusCreated).Body(project).Write(w)
}

// handleUpdateProject replaces a project. Status changes must follow the
// project lifecycle; anything else is a 409.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.Projects().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var project core.Project
	if err := decodeJSON(w, r, &project); err != nil {
		writeError(w, r, err)
		return
	}
	project = normalizeProject(project, s.today())
	project.ID = id
	project.CreatedAt = existing.CreatedAt
	if !existing.CanTransition(project.Status) {
		writeError(w, r, fmt.Errorf("%w: %s to %s", core.ErrInvalidTransition, existing.Status, project.Status))
		return
	}
	if err := s.saveProject(r, project); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(project).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Projects().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(r.Context())
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) saveProject(r *http.Request, project core.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if _, err := s.store.Clients().Get(r.Context(), project.ClientID); errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: unknown client %s", errBadRequest, project.ClientID)
	} else if err != nil {
		return err
	}
	if err := s.store.Projects().Put(r.Context(), project); err != nil {
		return err
	}
	s.invalidateSummaries(r.Context())
	return nil
}

// normalizeProject fills defaults. A project marked paid without a date is
// paid today, so it lands in a revenue month.
func normalizeProject(p core.Project, today core.Date) core.Project {
	p.Name = sanitizeInput(p.Name)
	p.Description = sanitizeInput(p.Description)
	p.ClientID = strings.TrimSpace(p.ClientID)
	if p.Status == "" {
		p.Status = core.ProjectPending
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = core.Pending
	}
	switch {
	case p.PaymentStatus == core.Pending:
		p.PaidAt = core.Date{}
	case p.PaidAt.IsZero():
		p.PaidAt = today
	}
	return p
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.Goals().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var goal core.Goal
	if err := decodeJSON(w, r, &goal); err != nil {
		writeError(w, r, err)
		return
	}
	goal.ID = s.newID()
	goal.Title = sanitizeInput(goal.Title)
	if err := s.saveGoal(r, goal); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(goal).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Goals().Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	var goal core.Goal
	if err := decodeJSON(w, r, &goal); err != nil {
		writeError(w, r, err)
		return
	}
	goal.ID = id
	goal.Title = sanitizeInput(goal.Title)
	if err := s.saveGoal(r, goal); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(goal).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Goals().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(r.Context())
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) saveGoal(r *http.Request, goal core.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	if err := s.store.Goals().Put(r.Context(), goal); err != nil {
		return err
	}
	s.invalidateSummaries(r.Context())
	return nil
}
