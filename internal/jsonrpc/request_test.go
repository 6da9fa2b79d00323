package jsonrpc

import (
	"errors"
	"testing"
)

func TestParseBatchRequest(t *testing.T) {
	reqs, isBatch, err := ParseBatchRequest([]byte(`  {"jsonrpc":"2.0","method":"mentions_resolve","params":{"username":"alice"},"id":1}`))
	if err != nil {
		t.Fatalf("ParseBatchRequest: %v", err)
	}
	if isBatch || len(reqs) != 1 || reqs[0].Method != MethodResolve {
		t.Errorf("got %d requests, batch=%v", len(reqs), isBatch)
	}

	reqs, isBatch, err = ParseBatchRequest([]byte(`[{"jsonrpc":"2.0","method":"a","id":1},{"jsonrpc":"2.0","method":"b","id":"x"}]`))
	if err != nil {
		t.Fatalf("ParseBatchRequest: %v", err)
	}
	if !isBatch || len(reqs) != 2 {
		t.Errorf("got %d requests, batch=%v", len(reqs), isBatch)
	}

	for _, body := range []string{``, `   `, `[]`, `{`} {
		if _, _, err := ParseBatchRequest([]byte(body)); err == nil {
			t.Errorf("ParseBatchRequest(%q) succeeded", body)
		}
	}
}

func TestRequest_Validate(t *testing.T) {
	if err := (&Request{JSONRPC: "1.0", Method: "x"}).Validate(); err == nil {
		t.Error("wrong version accepted")
	}
	if err := (&Request{JSONRPC: Version}).Validate(); err == nil {
		t.Error("empty method accepted")
	}
	if err := (&Request{JSONRPC: Version, Method: "x"}).Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
}

func TestRequest_DecodeParams(t *testing.T) {
	type params struct {
		Username string `json:"username"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"object", `{"username":"alice"}`, "alice", false},
		{"positional", `[{"username":"bob"}]`, "bob", false},
		{"two positional", `[{"username":"a"},{"username":"b"}]`, "", true},
		{"missing", ``, "", true},
		{"wrong type", `"alice"`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p params
			err := (&Request{Params: []byte(tt.raw)}).DecodeParams(&p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if p.Username != tt.want {
				t.Errorf("Username = %q, want %q", p.Username, tt.want)
			}
		})
	}
}

func TestError_Wrap(t *testing.T) {
	wrapped := ErrInvalidParams.Wrap(errors.New("username is required"))
	if wrapped.Code != CodeInvalidParams {
		t.Errorf("Code = %d, want %d", wrapped.Code, CodeInvalidParams)
	}
	if wrapped.Message != "Invalid params: username is required" {
		t.Errorf("Message = %q", wrapped.Message)
	}
	if ErrInvalidParams.Message != "Invalid params" {
		t.Errorf("Wrap modified the shared error: %q", ErrInvalidParams.Message)
	}
}
