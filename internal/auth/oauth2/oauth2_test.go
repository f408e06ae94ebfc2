package oauth2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func tokenServer(t *testing.T, wantGrant string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.Form.Get("grant_type"); got != wantGrant {
			http.Error(w, "unexpected grant "+got, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResp{AccessToken: "t-" + wantGrant, TokenType: "Bearer"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestToken_ClientCredentials(t *testing.T) {
	srv := tokenServer(t, "client_credentials")
	cfg, err := Load(map[string]any{
		"client_id":     "svc",
		"client_secret": "secret",
		"token_url":     srv.URL + "/token",
		"scopes":        []string{"session:role:LOADER"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tok, err := cfg.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "t-client_credentials" {
		t.Fatalf("token = %q", tok)
	}
}

func TestToken_Password(t *testing.T) {
	srv := tokenServer(t, "password")
	cfg := Config{Grant: GrantPassword, ClientID: "app", TokenURL: srv.URL, Username: "u", Password: "p"}
	tok, err := cfg.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "t-password" {
		t.Fatalf("token = %q", tok)
	}
}

func TestToken_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing token url", cfg: Config{ClientID: "a", ClientSec: "b"}},
		{name: "missing secret", cfg: Config{ClientID: "a", TokenURL: "http://x"}},
		{name: "password grant without user", cfg: Config{Grant: GrantPassword, ClientID: "a", TokenURL: "http://x"}},
		{name: "unknown grant", cfg: Config{Grant: "implicit", TokenURL: "http://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Token(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
