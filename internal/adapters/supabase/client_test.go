package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgate/internal/adapters/supabase"
	"reviewgate/internal/domain"
)

const base = "https://project.supabase.test"

func newClient(t *testing.T) (*supabase.Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	cl, err := supabase.New(base+"/", "service-key",
		supabase.WithHTTPClient(&http.Client{Transport: mt}), supabase.WithRPS(1000))
	require.NoError(t, err)
	return cl, mt
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := supabase.New("", "key")
	assert.Error(t, err)
	_, err = supabase.New(base, "")
	assert.Error(t, err)
}

func TestVerifyToken_Success(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodGet, base+"/auth/v1/user",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer user-token", req.Header.Get("Authorization"))
			assert.Equal(t, "service-key", req.Header.Get("apikey"))
			return httpmock.NewStringResponse(http.StatusOK, `{"id":"u-123","email":"a@b.c"}`), nil
		})

	who, err := cl.VerifyToken(ctx(t), "user-token")

	require.NoError(t, err)
	assert.Equal(t, "u-123", who.UserID)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestVerifyToken_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"msg":"invalid JWT"}`},
		{"forbidden", http.StatusForbidden, `{}`},
		{"server_error", http.StatusInternalServerError, `oops`},
		{"ok_without_id", http.StatusOK, `{"aud":"authenticated"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, mt := newClient(t)
			mt.RegisterResponder(http.MethodGet, base+"/auth/v1/user",
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := cl.VerifyToken(ctx(t), "bad")

			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestVerifyToken_TransportError(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodGet, base+"/auth/v1/user",
		httpmock.NewErrorResponder(errors.New("connection reset")))

	_, err := cl.VerifyToken(ctx(t), "tok")

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.NotErrorIs(t, err, domain.ErrInvalidToken)
}

func TestInsertReview_SendsServiceCredentials(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodPost, base+"/rest/v1/reviews",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "service-key", req.Header.Get("apikey"))
			assert.Equal(t, "Bearer service-key", req.Header.Get("Authorization"))
			assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			b, _ := io.ReadAll(req.Body)
			assert.JSONEq(t,
				`{"user_id":"u1","title":"Test","body":null,"lat":1.5,"lon":null,"rating":3,"approved":false}`,
				string(b))

			var in map[string]any
			_ = json.Unmarshal(b, &in)
			in["id"] = 99
			return httpmock.NewJsonResponse(http.StatusCreated, []any{in})
		})

	rating := 3
	rows, err := cl.InsertReview(ctx(t), domain.NewReview{
		UserID: "u1", Title: "Test", Lat: json.RawMessage(`1.5`), Rating: &rating,
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 99.0, rows[0]["id"])
	assert.Equal(t, false, rows[0]["approved"])
}

func TestInsertReview_UpstreamFailureSingleAttempt(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodPost, base+"/rest/v1/reviews",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"message":"db down"}`))

	_, err := cl.InsertReview(ctx(t), domain.NewReview{UserID: "u1", Title: "T"})

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusServiceUnavailable, ue.Status)
	assert.Equal(t, `{"message":"db down"}`, ue.Body)
	assert.Equal(t, 1, mt.GetTotalCallCount(), "no retries")
}

func TestInsertReview_MalformedBody(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodPost, base+"/rest/v1/reviews",
		httpmock.NewStringResponder(http.StatusCreated, `{not json`))

	_, err := cl.InsertReview(ctx(t), domain.NewReview{UserID: "u1", Title: "T"})

	var te *domain.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestDeleteReview_FiltersByID(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodDelete, base+"/rest/v1/reviews",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "eq.42", req.URL.Query().Get("id"))
			assert.Equal(t, "Bearer service-key", req.Header.Get("Authorization"))
			assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
			return httpmock.NewStringResponse(http.StatusOK, `[{"id":42,"title":"gone"}]`), nil
		})

	rows, err := cl.DeleteReview(ctx(t), "42")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gone", rows[0]["title"])
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestDeleteReview_EscapesID(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodDelete, base+"/rest/v1/reviews",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "eq.1&approved=eq.true", req.URL.Query().Get("id"))
			assert.Empty(t, req.URL.Query().Get("approved"))
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	rows, err := cl.DeleteReview(ctx(t), "1&approved=eq.true")

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteReview_NoContent(t *testing.T) {
	cl, mt := newClient(t)
	mt.RegisterResponder(http.MethodDelete, base+"/rest/v1/reviews",
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	rows, err := cl.DeleteReview(ctx(t), "7")

	require.NoError(t, err)
	assert.Empty(t, rows)
}
