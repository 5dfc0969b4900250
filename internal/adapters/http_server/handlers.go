// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"reviewgate/internal/adapters/observability"
	"reviewgate/internal/app"
	"reviewgate/internal/domain"
)

const (
	AdminDeletePath  = "/api/adminDeleteReview"
	SubmitReviewPath = "/api/validateReview"

	endpointAdminDelete  = "adminDeleteReview"
	endpointSubmitReview = "validateReview"

	adminAllowHeaders  = "Content-Type, x-admin-secret"
	submitAllowHeaders = "Content-Type, Authorization"

	msgMethodNotAllowed = "Method Not Allowed"
	msgServerError      = "Server Error"
)

type Handlers struct {
	Reviews      *app.ReviewService
	Admin        Authorizer // guards AdminDelete
	Users        Authorizer // guards SubmitReview
	MaxBodyBytes int64
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type deletedBody struct {
	Deleted []domain.Row `json:"deleted"`
}

type insertedBody struct {
	Inserted domain.Row `json:"inserted"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Handle(AdminDeletePath, h.AdminDelete())
	s.mux.Handle(SubmitReviewPath, h.SubmitReview())
}

// AdminDelete is the complete admin delete endpoint, usable with or without the router.
func (h *Handlers) AdminDelete() http.Handler {
	return chain(http.HandlerFunc(h.deleteReview),
		Recover(endpointAdminDelete),
		Preflight(adminAllowHeaders),
		PostOnly(endpointAdminDelete),
		RequireAuth(h.Admin, endpointAdminDelete),
	)
}

// SubmitReview is the complete review submission endpoint.
func (h *Handlers) SubmitReview() http.Handler {
	return chain(http.HandlerFunc(h.submitReview),
		Recover(endpointSubmitReview),
		Preflight(submitAllowHeaders),
		PostOnly(endpointSubmitReview),
		RequireAuth(h.Users, endpointSubmitReview),
	)
}

// chain wraps h so that mws run in the order given.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	var in app.DeleteInput
	if err := h.decode(w, r, &in); err != nil {
		fail(w, r, endpointAdminDelete, "Delete failed", err)
		return
	}
	rows, err := h.Reviews.Delete(r.Context(), in)
	if err != nil {
		fail(w, r, endpointAdminDelete, "Delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, deletedBody{Deleted: rows})
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var in app.SubmitInput
	if err := h.decode(w, r, &in); err != nil {
		fail(w, r, endpointSubmitReview, "Insert failed", err)
		return
	}
	row, err := h.Reviews.Submit(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		fail(w, r, endpointSubmitReview, "Insert failed", err)
		return
	}
	writeJSON(w, http.StatusOK, insertedBody{Inserted: row})
}

// decode reads a JSON object body into v. An empty body decodes as {}.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	body := r.Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &app.ValidationError{Message: app.MsgInvalidBody, Err: err}
	}
	return nil
}

// fail maps a handler error to its response. Upstream rejections carry the
// upstream body as details; anything unexpected gets a generic 500.
func fail(w http.ResponseWriter, r *http.Request, endpoint, upstreamMsg string, err error) {
	var (
		ve *app.ValidationError
		ue *domain.UpstreamError
	)
	reqID := chimw.GetReqID(r.Context())

	switch {
	case errors.As(err, &ve):
		observability.ObserveRejection(endpoint, "bad_request")
		writeError(w, http.StatusBadRequest, ve.Message, "")

	case errors.Is(err, domain.ErrInvalidToken):
		observability.ObserveRejection(endpoint, "unauthorized")
		writeError(w, http.StatusUnauthorized, authMessage(err), "")

	case errors.As(err, &ue):
		log.Error().
			Str("handler", endpoint).
			Str("op", ue.Op).
			Int("upstream_status", ue.Status).
			Str("request_id", reqID).
			Msg("upstream rejected request")
		observability.ObserveRejection(endpoint, "upstream")
		writeError(w, http.StatusInternalServerError, upstreamMsg, ue.Body)

	default:
		log.Error().Err(err).
			Str("handler", endpoint).
			Str("request_id", reqID).
			Msg("request failed")
		observability.ObserveRejection(endpoint, "server_error")
		writeError(w, http.StatusInternalServerError, msgServerError, "")
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}
