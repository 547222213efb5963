// Package epd calls the downstream EPD service that decides where an
// authenticated caller should land.
package epd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/epdlink/adproxy/internal/errors"
)

// Actor identifies the caller to the EPD service. Only DisplayName and UID
// are populated in this flow; Organization and Ssin stay unset.
type Actor struct {
	DisplayName  string `json:"displayName"`
	Organization string `json:"organization,omitempty"`
	Ssin         string `json:"ssin,omitempty"`
	UID          string `json:"uid,omitempty"`
}

// AccessRequest is the payload for the access endpoint.
type AccessRequest struct {
	Actor Actor `json:"actor"`
}

// Client calls the EPD service. Timeouts belong to the injected http.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the service at baseURL
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// RequestAccess posts the actor payload bearer-authenticated with token and
// returns the redirect URL the service answers with.
func (c *Client) RequestAccess(ctx context.Context, token string, request AccessRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal access request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/epd/access-ad", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build access request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call access endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read access response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.Wrapf(apperrors.ErrDownstream,
			"access endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return strings.TrimSpace(string(respBody)), nil
}
