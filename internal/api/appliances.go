package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/cloud"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/history"
)

// commandTimeout bounds a single cloud command issued through the API.
const commandTimeout = 15 * time.Second

// applianceSummary is one element of GET /appliances.
type applianceSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Brand           string `json:"brand,omitempty"`
	Model           string `json:"model,omitempty"`
	Connection      string `json:"connection"`
	Entities        int    `json:"entities"`
	OwnCapabilities bool   `json:"own_capabilities"`
	RefetchPending  bool   `json:"refetch_pending"`
}

// applianceDetail is the response body for GET /appliances/{id}.
type applianceDetail struct {
	applianceSummary
	Readings      []entity.Reading         `json:"readings"`
	Alerts        []appliance.Alert        `json:"alerts"`
	Notifications []appliance.Notification `json:"notifications"`
}

// commandRequest is the request body for PUT /appliances/{id}/entities/{entity}.
type commandRequest struct {
	Value any `json:"value"`
}

// commandResponse is the response body for a sent command.
type commandResponse struct {
	ID          string         `json:"id"`
	ApplianceID string         `json:"appliance_id"`
	Entity      string         `json:"entity"`
	Payload     map[string]any `json:"payload"`
}

func (s *Server) summarise(st *appliance.State) applianceSummary {
	return applianceSummary{
		ID:              st.ID,
		Name:            st.Name,
		Brand:           st.Brand,
		Model:           st.Model,
		Connection:      st.ConnectionState(),
		Entities:        len(st.Entities()),
		OwnCapabilities: st.OwnCapabilities(),
		RefetchPending:  s.control.RefetchPending(st.ID),
	}
}

// lookupAppliance resolves the {id} URL parameter, writing a 404 on failure.
func (s *Server) lookupAppliance(w http.ResponseWriter, r *http.Request) (*appliance.State, bool) {
	st, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "appliance not found")
		return nil, false
	}
	return st, true
}

func (s *Server) handleListAppliances(w http.ResponseWriter, _ *http.Request) {
	all := s.registry.All()
	out := make([]applianceSummary, 0, len(all))
	for _, st := range all {
		out = append(out, s.summarise(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliances": out,
		"count":      len(out),
	})
}

func (s *Server) handleGetAppliance(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	alerts := st.Alerts()
	if alerts == nil {
		alerts = []appliance.Alert{}
	}
	notes := st.Notifications(s.title, s.policy)
	if notes == nil {
		notes = []appliance.Notification{}
	}
	writeJSON(w, http.StatusOK, applianceDetail{
		applianceSummary: s.summarise(st),
		Readings:         st.ReadAll(),
		Alerts:           alerts,
		Notifications:    notes,
	})
}

// handleListEntities returns every entity reading. The optional kind query
// parameter filters by platform.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	kind := capability.Kind(r.URL.Query().Get("kind"))

	readings := st.ReadAll()
	out := make([]entity.Reading, 0, len(readings))
	for _, rd := range readings {
		if kind != "" && rd.Kind != kind {
			continue
		}
		out = append(out, rd)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliance_id": st.ID,
		"entities":     out,
		"count":        len(out),
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	rd, err := st.Read(chi.URLParam(r, "entity"))
	if err != nil {
		writeNotFound(w, "entity not found")
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

// handleCommand sends a command for one entity through the controller and
// records it in the command log.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ref := chi.URLParam(r, "entity")

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	cmdID := uuid.NewString()
	payload, err := s.control.SendCommand(ctx, id, ref, req.Value)
	s.logCommand(cmdID, id, ref, req.Value, payload, err)

	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	p, _ := principalFrom(r.Context())
	s.logger.Info("command sent via API",
		"command_id", cmdID,
		"appliance_id", id,
		"entity", ref,
		"subject", p.Subject,
	)
	writeJSON(w, http.StatusAccepted, commandResponse{
		ID:          cmdID,
		ApplianceID: id,
		Entity:      ref,
		Payload:     payload,
	})
}

// writeCommandError maps controller errors to HTTP statuses.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appliance.ErrUnknownAppliance):
		writeNotFound(w, "appliance not found")
	case errors.Is(err, appliance.ErrUnknownEntity):
		writeNotFound(w, "entity not found")
	case errors.Is(err, entity.ErrReadOnly):
		writeBadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidValue), errors.Is(err, entity.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, cloud.ErrUnauthorized):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "cloud rejected credentials")
	default:
		s.logger.Warn("command failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	}
}

func (s *Server) logCommand(cmdID, applianceID, ref string, input any, body map[string]any, cmdErr error) {
	if s.history == nil {
		return
	}
	rec := history.CommandRecord{
		ID:          cmdID,
		ApplianceID: applianceID,
		EntityKey:   ref,
		Source:      history.SourceAPI,
		Success:     cmdErr == nil,
		CreatedAt:   time.Now().UTC(),
	}
	if raw, err := json.Marshal(input); err == nil {
		rec.Input = raw
	}
	if body != nil {
		if raw, err := json.Marshal(body); err == nil {
			rec.Body = raw
		}
	}
	if cmdErr != nil {
		rec.Error = cmdErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.LogCommand(ctx, rec); err != nil {
		s.logger.Warn("failed to log command", "command_id", cmdID, "error", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.control.Refresh(r.Context(), id); err != nil {
		if errors.Is(err, appliance.ErrUnknownAppliance) {
			writeNotFound(w, "appliance not found")
			return
		}
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appliance_id": id, "refreshed": true})
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	if err := s.control.RefreshAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appliances": s.registry.Len(), "refreshed": true})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	alerts := st.Alerts()
	if alerts == nil {
		alerts = []appliance.Alert{}
	}
	notes := st.Notifications(s.title, s.policy)
	if notes == nil {
		notes = []appliance.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliance_id":  st.ID,
		"alerts":        alerts,
		"notifications": notes,
	})
}

// handleDiagnostics returns the raw capability tree and state document.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliance_id":     st.ID,
		"own_capabilities": st.OwnCapabilities(),
		"capabilities":     st.Capabilities(),
		"document":         st.Document(),
		"entities":         st.ReadAll(),
	})
}

func (s *Server) handleApplianceHistory(w http.ResponseWriter, r *http.Request) {
	s.writeHistory(w, r, "")
}

func (s *Server) handleEntityHistory(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupAppliance(w, r)
	if !ok {
		return
	}
	d, err := st.Entity(chi.URLParam(r, "entity"))
	if err != nil {
		writeNotFound(w, "entity not found")
		return
	}
	s.writeHistory(w, r, d.Key())
}

func (s *Server) writeHistory(w http.ResponseWriter, r *http.Request, entityKey string) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history is disabled")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	entries, err := s.history.History(r.Context(), id, entityKey, limit)
	if err != nil {
		s.logger.Error("failed to query history", "appliance_id", id, "error", err)
		writeInternalError(w, "failed to query history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliance_id": id,
		"entries":      entries,
		"count":        len(entries),
	})
}

func (s *Server) handleCommandLog(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history is disabled")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	records, err := s.history.Commands(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("failed to query command log", "appliance_id", id, "error", err)
		writeInternalError(w, "failed to query command log")
		return
	}
	if records == nil {
		records = []history.CommandRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliance_id": id,
		"commands":     records,
		"count":        len(records),
	})
}

// parseLimit reads the optional limit query parameter. Zero means the
// repository default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
