package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(utils.LLMConfig{
		BaseURL: srv.URL + "/v1/",
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCompleteSendsPromptAndTrimsReply(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  hello there \n"},"finish_reason":"stop"}]}`))
	}, time.Second)

	reply, err := client.Complete(context.Background(), "Say hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}
	if got.Model != "test-model" {
		t.Fatalf("expected model test-model, got %q", got.Model)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Say hi" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}, time.Second)

	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	}, time.Second)

	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}

func TestCompleteTimesOut(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gemini-2.0-flash-lite","object":"model"},{"id":"gemini-1.5-pro","object":"model"}]}`))
	}, time.Second)

	ids, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(ids) != 2 || ids[0] != "gemini-2.0-flash-lite" {
		t.Fatalf("unexpected models %v", ids)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(utils.LLMConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
