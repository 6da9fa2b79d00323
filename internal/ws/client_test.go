package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shownames/internal/api"
	"shownames/internal/batcher"
	"shownames/internal/cache"
	"shownames/internal/decorator"
	"shownames/internal/jsonrpc"
	"shownames/internal/namecache"
	"shownames/internal/resolver"
	"shownames/internal/search"
)

type staticSearcher map[string]string

func (s staticSearcher) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	resp := &search.Response{}
	for _, u := range req.Usernames {
		if name, ok := s[u]; ok {
			resp.Users = append(resp.Users, search.User{Username: u, Name: name})
		}
	}
	return resp, nil
}

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()
	logger := zerolog.Nop()
	names := namecache.New()
	coordinator := batcher.NewCoordinator(staticSearcher{"alice": "Alice A."}, names, batcher.Options{Logger: logger})
	r := resolver.New(names, coordinator, logger)
	d := decorator.New(r, decorator.Options{Enabled: true, Template: "{{name}}", Logger: logger})
	service := api.NewService(d, r, cache.NewNoopCache(), logger)

	srv := httptest.NewServer(NewHandler(service, logger))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestClient_Decorate(t *testing.T) {
	conn := dialTestServer(t)

	req := `{"jsonrpc":"2.0","id":7,"method":"mentions_decorate","params":{"cooked":"<a class=\"mention\">@alice</a>"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		t.Fatal(err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	resp, err := jsonrpc.ParseResponse(data)
	if err != nil {
		t.Fatal(err)
	}
	if resp.HasError() {
		t.Fatalf("error response: %v", resp.Error)
	}

	var result api.CookedResult
	if err := resp.GetResultAs(&result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Cooked, ">Alice A.</a>") {
		t.Errorf("cooked = %s", result.Cooked)
	}
}

func TestClient_BatchAndParseError(t *testing.T) {
	conn := dialTestServer(t)

	batch := `[{"jsonrpc":"2.0","id":1,"method":"mentions_resolve","params":{"username":"alice"}},{"jsonrpc":"2.0","id":2,"method":"nope"}]`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(batch)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var responses []*jsonrpc.Response
	if err := json.Unmarshal(data, &responses); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(responses) != 2 || responses[0].HasError() || !responses[1].HasError() {
		t.Errorf("responses = %s", data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	resp, _ := jsonrpc.ParseResponse(data)
	if resp == nil || resp.Error == nil || resp.Error.Code != jsonrpc.CodeParseError {
		t.Errorf("response = %s, want parse error", data)
	}
}
