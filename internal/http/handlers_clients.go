package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.Clients().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(clients)).Write(w)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.store.Clients().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(client).Write(w)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var client core.Client
	if err := decodeJSON(w, r, &client); err != nil {
		writeError(w, r, err)
		return
	}
	client = normalizeClient(client)
	if client.ID == "" {
		client.ID = s.newID()
	} else if _, err := s.store.Clients().Get(ctx, client.ID); err == nil {
		ConflictError(fmt.Sprintf("client %s already exists", client.ID)).Write(w)
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	client.CreatedAt = s.now().UTC()
	if err := client.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Clients().Put(ctx, client); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(ctx)
	log.FromContext(ctx).InfoContext(ctx, "Client created",
		log.FieldClientID, client.ID, log.FieldOperation, log.OpCreate)
	NewJSONResponse().Status(http.StatusCreated).Body(client).Write(w)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	existing, err := s.store.Clients().Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var client core.Client
	if err := decodeJSON(w, r, &client); err != nil {
		writeError(w, r, err)
		return
	}
	client = normalizeClient(client)
	client.ID = id
	client.CreatedAt = existing.CreatedAt
	if err := client.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Clients().Put(ctx, client); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(ctx)
	NewJSONResponse().Body(client).Write(w)
}

// handleDeleteClient removes the client only; its payments stay in the
// ledger and keep counting towards revenue.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := s.store.Clients().Delete(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(ctx)
	log.FromContext(ctx).InfoContext(ctx, "Client deleted",
		log.FieldClientID, id, log.FieldOperation, log.OpDelete)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type clientStatusResponse struct {
	ClientID string                 `json:"clientId"`
	Status   ledger.FinancialStatus `json:"status"`
	AsOf     core.Date              `json:"asOf"`
}

func (s *Server) handleClientStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, err := s.store.Clients().Get(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.store.Payments().List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	today := s.today()
	NewJSONResponse().Body(clientStatusResponse{
		ClientID: client.ID,
		Status:   ledger.ClientFinancialStatus(client, payments, today),
		AsOf:     today,
	}).Write(w)
}

// normalizeClient trims free text and fills the defaults of a new client.
func normalizeClient(c core.Client) core.Client {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = sanitizeInput(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Notes = sanitizeInput(c.Notes)
	if c.Status == "" {
		c.Status = core.ClientActive
	}
	if c.Kind == "" {
		c.Kind = core.OneOff
	}
	return c
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
