package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"token%d","token_type":"bearer","expires_in":3600}`, n)
	}))
}

func TestGetTokenAndSetAuthHeader(t *testing.T) {
	var calls atomic.Int32
	server := tokenServer(t, &calls)
	defer server.Close()

	cfg := Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL}
	client := NewClientCred(cfg)

	token, err := client.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken returned error: %v", err)
	}
	if token != "token1" {
		t.Fatalf("unexpected token %s", token)
	}

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	if err := client.SetAuthHeader(context.Background(), req); err != nil {
		t.Fatalf("SetAuthHeader returned error: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer token1" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached token, got %d token requests", calls.Load())
	}
}

func TestForceRefresh(t *testing.T) {
	var calls atomic.Int32
	server := tokenServer(t, &calls)
	defer server.Close()

	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL})
	if _, err := client.GetToken(context.Background()); err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	tok, err := client.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if tok != "token2" {
		t.Fatalf("expected refreshed token, got %s", tok)
	}
}

func TestConfValidate(t *testing.T) {
	c := Conf{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error without credentials")
	}
	c = Conf{ClientID: "id", ClientSecret: "secret"}
	c.SetDefaults()
	if c.AuthURL != DefaultTokenURL {
		t.Fatalf("unexpected default auth url %s", c.AuthURL)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
