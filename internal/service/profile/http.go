package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/httpx"
	"github.com/onikinet/oniki-match/internal/validation"
)

var updateProfileSchema = validation.MustCompile("update profile", `{
	"type": "object",
	"properties": {
		"name":       {"type": "string", "maxLength": 128},
		"company":    {"type": "string", "maxLength": 128},
		"jobTitle":   {"type": "string", "maxLength": 128},
		"bio":        {"type": "string", "maxLength": 4000},
		"industries": {"type": "array", "items": {"type": "string"}, "maxItems": 50},
		"interests":  {"type": "array", "items": {"type": "string"}, "maxItems": 50},
		"goals":      {"type": "array", "items": {"type": "string"}, "maxItems": 50}
	},
	"additionalProperties": false
}`)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the profile endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/profiles/{profileID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.update)
		r.Delete("/", h.deactivate)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.svc.GetProfile(r.Context(), sess, chi.URLParam(r, "profileID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, updateProfileSchema, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), sess, chi.URLParam(r, "profileID"), req.patch())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeactivateProfile(r.Context(), sess, chi.URLParam(r, "profileID")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
