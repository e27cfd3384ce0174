package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func TestDomainSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "key-1", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{
			"data": {"emails": [
				{"value": "contact@acme.com", "type": "generic", "confidence": 88},
				{"value": "bob@acme.com", "type": "personal", "confidence": 64}
			]}
		}`))
	}))
	defer srv.Close()

	client := NewClient("key-1", WithBaseURL(srv.URL))
	results, err := client.DomainSearch(context.Background(), "acme.com")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "contact@acme.com", results[0].Value)
	assert.Equal(t, 88.0, results[0].Confidence)
}

func TestDomainSearch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("key-1", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "acme.com")
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestVerifyEmail_StatusMapping(t *testing.T) {
	tests := []struct {
		providerStatus string
		want           string
	}{
		{"valid", "deliverable"},
		{"invalid", "undeliverable"},
		{"accept_all", "risky"},
		{"webmail", "risky"},
		{"", "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.providerStatus, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/email-verifier", r.URL.Path)
				_, _ = w.Write([]byte(`{"data": {"status": "` + tc.providerStatus + `", "score": 70}}`))
			}))
			defer srv.Close()

			client := NewClient("key-1", WithBaseURL(srv.URL))
			v, err := client.VerifyEmail(context.Background(), "x@acme.com")
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Result)
		})
	}
}

func TestDomainSearch_PermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient("key-1", WithBaseURL(srv.URL))
	_, err := client.DomainSearch(context.Background(), "acme.com")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}
