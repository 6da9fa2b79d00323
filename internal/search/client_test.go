package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shownames/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cb *config.CircuitBreakerConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Options{
		BaseURL:        srv.URL + "/",
		APIKey:         "secret",
		APIUsername:    "system",
		RequestTimeout: 2 * time.Second,
		CircuitBreaker: cb,
		Logger:         zerolog.Nop(),
	})
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != Path {
			t.Errorf("path = %s, want %s", r.URL.Path, Path)
		}
		if got := r.URL.Query().Get("usernames"); got != "alice,team" {
			t.Errorf("usernames = %q, want alice,team", got)
		}
		if got := r.URL.Query().Get("include_groups"); got != "true" {
			t.Errorf("include_groups = %q, want true", got)
		}
		if r.Header.Get("Api-Key") != "secret" || r.Header.Get("Api-Username") != "system" {
			t.Errorf("missing api headers: %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			Users:  []User{{Username: "alice", Name: "Alice A."}},
			Groups: []Group{{Name: "team", FullName: "The Team"}},
		})
	}, nil)

	resp, err := client.Search(context.Background(), Request{
		Usernames:     []string{"alice", "team"},
		IncludeGroups: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Name != "Alice A." {
		t.Errorf("Users = %+v", resp.Users)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].FullName != "The Team" {
		t.Errorf("Groups = %+v", resp.Groups)
	}
	if n := client.Stats().SwapRequestCount(); n != 1 {
		t.Errorf("request count = %d, want 1", n)
	}
}

func TestClient_Search_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, nil)

	_, err := client.Search(context.Background(), Request{Usernames: []string{"alice"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP error 429") {
		t.Errorf("error = %v", err)
	}
	if n := client.Stats().SwapFailureCount(); n != 1 {
		t.Errorf("failure count = %d, want 1", n)
	}
}

func TestClient_Search_BadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}, nil)

	_, err := client.Search(context.Background(), Request{Usernames: []string{"alice"}})
	if err == nil || !strings.Contains(err.Error(), "failed to decode") {
		t.Errorf("error = %v, want decode error", err)
	}
}

func TestClient_Search_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, &config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, RecoveryTimeout: 60000})

	for i := 0; i < 2; i++ {
		if _, err := client.Search(context.Background(), Request{Usernames: []string{"alice"}}); err == nil {
			t.Fatal("expected error")
		}
	}

	_, err := client.Search(context.Background(), Request{Usernames: []string{"alice"}})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server calls = %d, want 2", n)
	}
}
