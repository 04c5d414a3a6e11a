package openaiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// TestRecorderSeesStatus verifies the recorder observes the raw response status.
func TestRecorderSeesStatus(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img/x.png"}]}`))
	}))
	defer server.Close()

	client, recorder := New(Options{BaseURL: server.URL + "/v1/"}, "sk-test")
	if recorder.Status() != 0 {
		t.Fatalf("status before call = %d", recorder.Status())
	}

	if _, err := client.CreateImage(context.Background(), openai.ImageRequest{Prompt: "fox"}); err != nil {
		t.Fatalf("create image: %v", err)
	}
	if recorder.Status() != http.StatusCreated {
		t.Fatalf("status = %d, want 201", recorder.Status())
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", auth)
	}
}
