package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var payload struct {
			Raw      string `json:"raw"`
			ThreadID string `json:"threadId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		mime, err := base64.URLEncoding.DecodeString(payload.Raw)
		require.NoError(t, err)
		assert.Contains(t, string(mime), "To: jane@acme.com")
		assert.Contains(t, string(mime), "Subject: Hello")
		assert.Contains(t, string(mime), "Quick question")
		assert.Equal(t, "thread-9", payload.ThreadID)

		_, _ = w.Write([]byte(`{"id": "msg-42", "threadId": "thread-9"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{AccessToken: "tok-1", BaseURL: srv.URL})
	id, err := client.Send(context.Background(), Message{
		To:       "jane@acme.com",
		From:     "me@sender.com",
		Subject:  "Hello",
		Body:     "Quick question",
		ThreadID: "thread-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)
}

func TestSend_MissingRecipient(t *testing.T) {
	client := NewClient(Config{AccessToken: "tok-1"})
	_, err := client.Send(context.Background(), Message{Subject: "x", Body: "y"})
	assert.Error(t, err)
}

func TestSend_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{AccessToken: "stale", BaseURL: srv.URL})
	_, err := client.Send(context.Background(), Message{To: "jane@acme.com"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshToken_ThenSend(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"access_token": "tok-2"}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id": "msg-1"}`))
	})

	client := NewClient(Config{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/token",
	})

	_, err := client.Send(context.Background(), Message{To: "jane@acme.com"})
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, client.RefreshToken(context.Background()))

	id, err := client.Send(context.Background(), Message{To: "jane@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}

func TestRefreshToken_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(Config{RefreshToken: "r", TokenURL: srv.URL})
	err := client.RefreshToken(context.Background())
	assert.Error(t, err)
}
