package handlers

import (
	"fmt"
	"net/http"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// GetSettings handles GET /api/workspaces/{workspace}/settings.
// Workspaces that never saved settings get the defaults.
func (h *APIHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.engine.GetSettings(r.Context(), extractID(r, "workspace"))
	if err != nil {
		h.respondEngineError(w, "failed to get settings", err)
		return
	}
	h.respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PATCH /api/workspaces/{workspace}/settings.
// Only fields present in the body change.
func (h *APIHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update types.ContextSettingsUpdate
	if err := decodeBody(w, r, &update, false); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if update.IsEmpty() {
		h.respondEngineError(w, "no settings to update",
			fmt.Errorf("%w: request changes no fields", storage.ErrInvalidInput))
		return
	}

	settings, err := h.engine.UpdateSettings(r.Context(), extractID(r, "workspace"), update)
	if err != nil {
		h.respondEngineError(w, "failed to update settings", err)
		return
	}
	h.respondJSON(w, http.StatusOK, settings)
}
