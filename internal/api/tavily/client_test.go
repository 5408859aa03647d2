package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLookupFormatsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.APIKey != "test-key" || req.MaxResults != 5 {
			t.Errorf("unexpected request payload: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"title": "First", "content": "short content"},
			{"title": "Second", "content": "` + strings.Repeat("x", 300) + `"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Lookup(context.Background(), "test query")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	lines := strings.Split(result, "\n")
	if len(lines) != 2 {
		t.Fatalf("Lookup() returned %d lines, want 2: %q", len(lines), result)
	}
	if lines[0] != "- First: short content" {
		t.Errorf("first line = %q", lines[0])
	}
	if len(lines[1]) != len("- Second: ")+contentPreviewLen {
		t.Errorf("second line length %d, content not capped at %d chars", len(lines[1]), contentPreviewLen)
	}
}

func TestLookupWithoutKeyReturnsMock(t *testing.T) {
	client := NewClient(ClientOptions{})
	result, err := client.Lookup(context.Background(), "test query")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !strings.Contains(result, "Mock search: test query") {
		t.Errorf("Lookup() = %q, want mock result", result)
	}
}
