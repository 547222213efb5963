package epd_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/epdlink/adproxy/epd"
	apperrors "github.com/epdlink/adproxy/internal/errors"
)

func TestClient_RequestAccess(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/epd/access-ad", r.URL.Path)
		require.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"actor":{"displayName":"Jane Doe","uid":"abc-123"}}`, string(body))

		w.Write([]byte("https://epd.example.com/session/42"))
	}))
	defer downstream.Close()

	client := epd.New(downstream.URL, nil)
	request := epd.AccessRequest{Actor: epd.Actor{DisplayName: "Jane Doe", UID: "abc-123"}}

	redirectURL, err := client.RequestAccess(context.Background(), "the-token", request)
	require.NoError(t, err)
	require.Equal(t, "https://epd.example.com/session/42", redirectURL)
}

func TestClient_RequestAccess_OmitsUnsetActorFields(t *testing.T) {
	payload, err := json.Marshal(epd.AccessRequest{Actor: epd.Actor{DisplayName: "Jane Doe", UID: "abc-123"}})
	require.NoError(t, err)
	require.NotContains(t, string(payload), "organization")
	require.NotContains(t, string(payload), "ssin")
}

func TestClient_RequestAccess_NonSuccessStatus(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer downstream.Close()

	client := epd.New(downstream.URL, nil)

	_, err := client.RequestAccess(context.Background(), "the-token", epd.AccessRequest{})
	require.ErrorIs(t, err, apperrors.ErrDownstream)
	require.Contains(t, err.Error(), "502")
	require.Contains(t, err.Error(), "upstream unavailable")
}

func TestClient_RequestAccess_NetworkError(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downstream.Close()

	client := epd.New(downstream.URL, nil)

	_, err := client.RequestAccess(context.Background(), "the-token", epd.AccessRequest{})
	require.Error(t, err)
}
