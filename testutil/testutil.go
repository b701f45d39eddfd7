// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/db"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: db.TypeSQLite,
		APIKey:       "test-api-key",
		APISecret:    "test-api-secret",
		TokenTTL:     auth.DefaultTokenTTL,
		PublicURL:    "http://poker.test",
	}
}

// NewTestIssuer returns an issuer matching GetTestConfig's key pair
func NewTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()

	cfg := GetTestConfig()
	issuer, err := auth.NewIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}
	return issuer
}

// NewExpiredToken signs a token for identity and room that expired a minute ago
func NewExpiredToken(t *testing.T, identity, room string) string {
	t.Helper()

	past := time.Now().Add(-auth.DefaultTokenTTL - time.Minute)
	token, err := NewTestIssuer(t).WithClock(func() time.Time { return past }).IssueToken(t.Context(), identity, room)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
