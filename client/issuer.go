// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/session"
)

// HTTPIssuer requests access tokens from the server's POST /tokens
type HTTPIssuer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIssuer returns an issuer for the server at baseURL. A nil client
// uses http.DefaultClient.
func NewHTTPIssuer(baseURL string, client *http.Client) *HTTPIssuer {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPIssuer{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (i *HTTPIssuer) IssueToken(ctx context.Context, identity, room string) (string, error) {
	body, err := json.Marshal(models.TokenRequest{Identity: identity, Room: room})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/tokens", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return "", fmt.Errorf("token request rejected (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("token request rejected: %s", resp.Status)
	}

	var out models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("token response had no token")
	}
	return out.Token, nil
}

// expiryTracker remembers when the last issued token expires
type expiryTracker struct {
	inner session.TokenIssuer

	mu      sync.Mutex
	expires time.Time
}

func (t *expiryTracker) IssueToken(ctx context.Context, identity, room string) (string, error) {
	token, err := t.inner.IssueToken(ctx, identity, room)
	if err != nil {
		return "", err
	}
	// Opaque tokens simply have no known expiry
	exp, _ := auth.ExpiresAt(token)

	t.mu.Lock()
	t.expires = exp
	t.mu.Unlock()
	return token, nil
}

func (t *expiryTracker) Expires() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expires
}
