package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSend(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewProviderClient(srv.URL, "tok", slog.New(slog.DiscardHandler))
	require.NoError(t, client.Send(context.Background(), "9876543210", "hello"))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "9876543210", gotBody.MobileNumber)
	assert.Equal(t, "hello", gotBody.Message)
}

func TestProviderSendRejectsBadNumber(t *testing.T) {
	client := NewProviderClient("http://127.0.0.1:0", "", slog.New(slog.DiscardHandler))
	err := client.Send(context.Background(), "12345", "hello")
	assert.ErrorIs(t, err, ErrInvalidMobile)
}

func TestProviderSendSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewProviderClient(srv.URL, "", slog.New(slog.DiscardHandler))
	err := client.Send(context.Background(), "9876543210", "hello")
	assert.ErrorIs(t, err, ErrSendFailed)
}
