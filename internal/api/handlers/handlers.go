// Package handlers implements the HTTP handlers for the portal UX agent:
// the tool surface, the per-user read path, and the per-session event
// stream.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/microsoft/portal-ux-agent/internal/events"
	"github.com/microsoft/portal-ux-agent/internal/intent"
	"github.com/microsoft/portal-ux-agent/internal/mcp"
	"github.com/microsoft/portal-ux-agent/internal/render"
	"github.com/microsoft/portal-ux-agent/internal/store"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Service *mcp.Service
	Store   store.CompositionStore
	Bus     *events.Bus
}

// New creates a Handlers instance with all dependencies.
func New(svc *mcp.Service, st store.CompositionStore, bus *events.Bus) *Handlers {
	return &Handlers{Service: svc, Store: st, Bus: bus}
}

// ListTools returns the published tool descriptors.
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tools": h.Service.ListTools(),
	})
}

type toolCallRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// CallTool invokes a tool over plain HTTP. Unlike the JSON-RPC transports
// the result comes back as the bare JSON object.
func (h *Handlers) CallTool(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Service.CallTool(r.Context(), req.Name, req.Arguments)
	if err != nil {
		var notFound mcp.ErrToolNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown tool: %s", req.Name))
			return
		}
		var invalid mcp.ErrInvalidArgs
		if errors.As(err, &invalid) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var invIntent *intent.InvalidError
		var genErr *intent.GenerationError
		if errors.As(err, &invIntent) || errors.As(err, &genErr) {
			log.Warn().Err(err).Msg("tool pipeline failed")
			respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("tool call failed")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetComposition returns a user's stored composition as raw JSON.
func (h *Handlers) GetComposition(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	comp, err := h.Store.Get(r.Context(), userID)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, "Composition not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, comp)
}

// ViewUI renders a user's stored composition to a full HTML page.
func (h *Handlers) ViewUI(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	comp, err := h.Store.Get(r.Context(), userID)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, "Composition not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, render.Document(comp))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
