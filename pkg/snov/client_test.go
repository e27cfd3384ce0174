package snov

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth/access_token" {
			require.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 3600}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDomainSearch(t *testing.T) {
	var tokenChecked bool
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/domain-emails-with-info", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		tokenChecked = true
		_, _ = w.Write([]byte(`{
			"success": true,
			"emails": [
				{"email": "info@acme.com", "type": "generic", "confidence": 92},
				{"email": "jane@acme.com", "type": "personal", "confidence": 78},
				{"email": "", "type": "generic"}
			]
		}`))
	})

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	results, err := client.DomainSearch(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.True(t, tokenChecked)

	require.Len(t, results, 2)
	assert.Equal(t, "info@acme.com", results[0].Value)
	assert.Equal(t, 92.0, results[0].Confidence)
	assert.Equal(t, "personal", results[1].Type)
}

func TestDomainSearch_RateLimited(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "acme.com")
	require.Error(t, err)
	// A 429 must stay distinguishable from "no results".
	assert.True(t, resilience.IsRateLimited(err))
}

func TestDomainSearch_ServerErrorIsTransient(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "acme.com")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.False(t, resilience.IsRateLimited(err))
}

func TestVerifyEmail(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/get-emails-verification-status", r.URL.Path)
		assert.Equal(t, "info@acme.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"success": true, "data": {"result": "deliverable", "smtp_score": 95}}`))
	})

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	v, err := client.VerifyEmail(context.Background(), "info@acme.com")
	require.NoError(t, err)
	assert.True(t, v.Deliverable())
	assert.Equal(t, 95.0, v.Score)
}

func TestVerifyEmail_UnknownResult(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {}}`))
	})

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	v, err := client.VerifyEmail(context.Background(), "x@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "unknown", v.Result)
	assert.False(t, v.Deliverable())
}

func TestToken_Cached(t *testing.T) {
	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth/access_token" {
			tokenCalls++
			_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "emails": []}`))
	}))
	defer srv.Close()

	client := NewClient("id", "secret", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "a.com")
	require.NoError(t, err)
	_, err = client.DomainSearch(context.Background(), "b.com")
	require.NoError(t, err)

	assert.Equal(t, 1, tokenCalls)
}

func TestToken_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("id", "bad-secret", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}
