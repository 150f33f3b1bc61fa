package controller

import (
	"maps"
	"net/http"
	"slices"

	"github.com/cassiomorais/checkout/internal/middleware"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProviderController lists providers and manages their settings.
type ProviderController struct {
	registry        *providers.Registry
	settingsService *service.SettingsService
	logger          zerolog.Logger
}

// NewProviderController creates a new ProviderController.
func NewProviderController(registry *providers.Registry, settingsService *service.SettingsService, logger zerolog.Logger) *ProviderController {
	return &ProviderController{registry: registry, settingsService: settingsService, logger: logger}
}

// List handles GET /api/v1/providers
func (h *ProviderController) List(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	resp := make([]ProviderResponse, 0, len(all))
	for _, p := range all {
		resp = append(resp, FromProvider(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Settings handles GET /api/v1/admin/providers/{id}/settings
func (h *ProviderController) Settings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := h.settingsService.Fields(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Provider: id, Fields: fields})
}

// UpdateSettings handles PUT /api/v1/admin/providers/{id}/settings
func (h *ProviderController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.settingsService.Update(r.Context(), id, req.Values); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	h.logger.Info().
		Str("provider", id).
		Str("user_id", userID).
		Strs("keys", slices.Sorted(maps.Keys(req.Values))).
		Msg("provider settings updated")

	fields, err := h.settingsService.Fields(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Provider: id, Fields: fields})
}
