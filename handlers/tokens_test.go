// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/testutil"
)

func TestIssueToken(t *testing.T) {
	cfg := testutil.GetTestConfig()
	issuer := testutil.NewTestIssuer(t)
	handler := NewTokenHandler(issuer, cfg)

	req := testutil.MakeRequest("POST", "/tokens", models.TokenRequest{Identity: " alice ", Room: "sprint-42"}, nil)
	w := httptest.NewRecorder()

	handler.IssueToken(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.TokenResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.URL != cfg.PublicURL {
		t.Errorf("Expected url %q, got %q", cfg.PublicURL, resp.URL)
	}
	if resp.Room != "sprint-42" {
		t.Errorf("Expected room sprint-42, got %q", resp.Room)
	}

	claims, err := issuer.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Issued token did not verify: %v", err)
	}
	if claims.Identity() != "alice" {
		t.Errorf("Expected identity alice, got %q", claims.Identity())
	}
	if claims.Room() != "sprint-42" {
		t.Errorf("Expected room grant sprint-42, got %q", claims.Room())
	}

	remaining := time.Until(resp.ExpiresAt)
	if remaining <= 0 || remaining > cfg.TokenTTL {
		t.Errorf("Expected expiry within %v, got %v", cfg.TokenTTL, remaining)
	}
}

func TestIssueToken_GeneratesRoom(t *testing.T) {
	issuer := testutil.NewTestIssuer(t)
	handler := NewTokenHandler(issuer, testutil.GetTestConfig())

	req := testutil.MakeRequest("POST", "/tokens", models.TokenRequest{Identity: "alice"}, nil)
	w := httptest.NewRecorder()

	handler.IssueToken(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.TokenResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Room == "" {
		t.Fatal("Expected a generated room name")
	}
	claims, err := issuer.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Issued token did not verify: %v", err)
	}
	if claims.Room() != resp.Room {
		t.Errorf("Expected grant for %q, got %q", resp.Room, claims.Room())
	}
}

func TestIssueToken_BadRequests(t *testing.T) {
	handler := NewTokenHandler(testutil.NewTestIssuer(t), testutil.GetTestConfig())

	testCases := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{invalid`},
		{"empty body", ``},
		{"missing identity", `{"room":"sprint-42"}`},
		{"blank identity", `{"identity":"   ","room":"sprint-42"}`},
		{"identity too long", `{"identity":"` + strings.Repeat("a", 65) + `","room":"r"}`},
		{"room too long", `{"identity":"alice","room":"` + strings.Repeat("r", 65) + `"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/tokens", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			handler.IssueToken(w, req)

			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}
