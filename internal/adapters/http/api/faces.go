package api

import (
	"net/http"
)

// FacesHandler lists the supported target faces and the defaults.
type FacesHandler struct {
	deps Dependencies
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(deps Dependencies) *FacesHandler {
	return &FacesHandler{deps: deps}
}

// HandleGetFaces handles GET /target-faces requests.
func (h *FacesHandler) HandleGetFaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Defaults())
}
