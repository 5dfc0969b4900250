package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"reviewgate/internal/adapters/observability"
	"reviewgate/internal/domain"
)

// Authorizer decides whether a request may proceed and who is calling.
type Authorizer interface {
	Authorize(r *http.Request) (domain.Identity, error)
}

// SecretAuthorizer admits requests whose x-admin-secret header equals Secret.
// An empty Secret admits nobody. Admins carry no identity.
type SecretAuthorizer struct{ Secret string }

func (a SecretAuthorizer) Authorize(r *http.Request) (domain.Identity, error) {
	if a.Secret == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	provided := r.Header.Get("x-admin-secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(a.Secret)) != 1 {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{}, nil
}

// BearerAuthorizer verifies the caller's bearer token with the identity service.
type BearerAuthorizer struct{ Verifier domain.IdentityVerifier }

func (a BearerAuthorizer) Authorize(r *http.Request) (domain.Identity, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return a.Verifier.VerifyToken(r.Context(), token)
}

// bearerToken strips an optional "Bearer" scheme. Proxies may trim the
// trailing space of a bare "Bearer ", so that counts as no token too.
func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if rest, ok := strings.CutPrefix(h, "Bearer"); ok && (rest == "" || rest[0] == ' ') {
		h = rest
	}
	return strings.TrimSpace(h)
}

type identityKey struct{}

func identityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// RequireAuth runs a before next and stores the resulting identity in the context.
func RequireAuth(a Authorizer, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := a.Authorize(r)
			if err != nil {
				msg := authMessage(err)
				if msg == "" {
					log.Error().Err(err).
						Str("handler", endpoint).
						Str("request_id", chimw.GetReqID(r.Context())).
						Msg("authorization failed unexpectedly")
					observability.ObserveRejection(endpoint, "server_error")
					writeError(w, http.StatusInternalServerError, msgServerError, "")
					return
				}
				observability.ObserveRejection(endpoint, "unauthorized")
				writeError(w, http.StatusUnauthorized, msg, "")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, who)))
		})
	}
}

// authMessage maps an authorization failure to its client message, or ""
// when the failure is not the caller's fault.
func authMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return "Missing Authorization Token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "Invalid or expired token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	}
	return ""
}
