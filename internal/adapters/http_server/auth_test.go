package httpserver

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"reviewgate/internal/domain"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"Bearer":           "",
		"Bearer ":          "",
		"Bearer    ":       "",
		"Bearer abc.def":   "abc.def",
		"  Bearer  abc  ":  "abc",
		"abc.def":          "abc.def",
		"BearerToken":      "BearerToken",
		"bearer lowercase": "bearer lowercase",
	}
	for in, want := range tests {
		assert.Equal(t, want, bearerToken(in), "%q", in)
	}
}

func TestSecretAuthorizer(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("x-admin-secret", "s3cret")

	_, err := SecretAuthorizer{Secret: "s3cret"}.Authorize(req)
	assert.NoError(t, err)

	_, err = SecretAuthorizer{Secret: ""}.Authorize(req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = SecretAuthorizer{Secret: "other"}.Authorize(req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
