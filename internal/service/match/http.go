package match

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/onikinet/oniki-match/internal/auth"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/httpx"
	"github.com/onikinet/oniki-match/internal/validation"
)

var (
	createMatchSchema = validation.MustCompile("create match", `{
		"type": "object",
		"properties": {
			"subjectId":   {"type": "string"},
			"candidateId": {"type": "string", "minLength": 1},
			"eventId":     {"type": "string", "minLength": 1}
		},
		"required": ["candidateId", "eventId"]
	}`)

	respondSchema = validation.MustCompile("respond", `{
		"type": "object",
		"properties": {
			"decision": {"type": "string", "minLength": 1}
		},
		"required": ["decision"]
	}`)
)

// Handler exposes Service over HTTP. Routes expect an authenticated session
// in the request context.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the match endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/matches", func(r chi.Router) {
		r.Post("/", h.createMatch)
		r.Get("/", h.listMatches)
		r.Post("/recommendations", h.recommendations)
		r.Get("/explain", h.explain)
		r.Get("/pending/count", h.countPending)
		r.Get("/{matchID}", h.getMatch)
		r.Post("/{matchID}/respond", h.respond)
	})
}

func (h *Handler) createMatch(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req CreateMatchRequest
	if err := httpx.DecodeJSON(r, createMatchSchema, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	subject, err := ActingSubject(sess, req.SubjectID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	m, err := h.svc.CreateMatch(r.Context(), subject, req.CandidateID, req.EventID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req RespondRequest
	if err := httpx.DecodeJSON(r, respondSchema, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	m, err := h.svc.Respond(r.Context(), chi.URLParam(r, "matchID"), sess.UserID, req.Decision)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	persist := false
	if v := q.Get("persist"); v != "" {
		if persist, err = strconv.ParseBool(v); err != nil {
			httpx.WriteError(w, r, svcErr.InvalidInputf("persist must be a boolean"))
			return
		}
	}
	eventID := q.Get("eventId")
	recs, err := h.svc.Recommendations(r.Context(), sess.UserID, eventID, limit, persist)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, RecommendationsResponse{EventID: eventID, Recommendations: recs})
}

func (h *Handler) explain(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q := r.URL.Query()
	e, err := h.svc.Explain(r.Context(), sess.UserID, q.Get("candidateId"), q.Get("eventId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) getMatch(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	m, err := h.svc.GetMatch(r.Context(), chi.URLParam(r, "matchID"), sess.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q := r.URL.Query()
	size, err := intParam(q.Get("pageSize"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req := ListMatchesRequest{EventID: q.Get("eventId"), Status: q.Get("status"), PageSize: size}
	if tok := q.Get("paginationToken"); tok != "" {
		req.PaginationToken = &tok
	}
	resp, err := h.svc.ListMatches(r.Context(), sess.UserID, req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) countPending(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.svc.CountPending(r.Context(), sess.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, CountPendingResponse{Count: n})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, svcErr.InvalidInputf("%q is not an integer", v)
	}
	return n, nil
}
