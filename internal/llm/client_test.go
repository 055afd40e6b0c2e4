package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// newTestServer returns a chat-completions stub and a client pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *ChatClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewChatClient(ClientConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-35-turbo",
	})
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}
	return srv, client
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestChatClient_Complete(t *testing.T) {
	var gotReq completionRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("the answer"))
	})

	msgs := []Message{
		SystemMessage("you are helpful"),
		UserMessage("what oil do I use?"),
	}
	got, err := client.Complete(context.Background(), msgs, DefaultParams())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Errorf("completion = %q, want %q", got, "the answer")
	}
	if gotReq.Model != "gpt-35-turbo" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.Temperature != DefaultTemperature || gotReq.MaxTokens != DefaultMaxTokens {
		t.Errorf("params = %+v, want defaults", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != RoleSystem {
		t.Errorf("messages not forwarded: %+v", gotReq.Messages)
	}
}

func TestChatClient_Complete_APIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})

	_, err := client.Complete(context.Background(), []Message{UserMessage("q")}, DefaultParams())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !errors.Is(err, ErrModelCall) {
		t.Errorf("errors.Is(err, ErrModelCall) = false, err = %v", err)
	}
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %T", err)
	}
	if callErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", callErr.StatusCode)
	}
}

func TestChatClient_Complete_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("recovered"))
	})

	got, err := client.Complete(context.Background(), []Message{UserMessage("q")}, DefaultParams())
	if err != nil {
		t.Fatalf("Complete after retry: %v", err)
	}
	if got != "recovered" {
		t.Errorf("completion = %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one failure, one success)", calls.Load())
	}
}

func TestChatClient_Complete_EmptyChoices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), []Message{UserMessage("q")}, DefaultParams())
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
	if !errors.Is(err, ErrModelCall) {
		t.Errorf("empty completion should still be a model-call failure, got %v", err)
	}
}

func TestChatClient_Complete_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("never seen"))
	})

	_, err := client.Complete(ctx, []Message{UserMessage("q")}, DefaultParams())
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestNewChatClient_Validation(t *testing.T) {
	if _, err := NewChatClient(ClientConfig{Model: "m"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewChatClient(ClientConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestFacade_ForTier(t *testing.T) {
	std := &ChatClient{model: "gpt-35-turbo"}
	adv := &ChatClient{model: "gpt-4"}

	f, err := NewFacade(std, adv)
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	if got := f.ForTier(TierStandard); got != std {
		t.Errorf("TierStandard resolved to %s", got.Model())
	}
	if got := f.ForTier(TierAdvanced); got != adv {
		t.Errorf("TierAdvanced resolved to %s", got.Model())
	}

	// Without an advanced deployment the standard client serves both tiers.
	f, err = NewFacade(std, nil)
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	if got := f.ForTier(TierAdvanced); got != std {
		t.Errorf("fallback resolved to %s, want standard", got.Model())
	}

	if _, err := NewFacade(nil, nil); err == nil {
		t.Error("expected error for nil standard client")
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"", TierStandard, false},
		{"standard", TierStandard, false},
		{"advanced", TierAdvanced, false},
		{"turbo", TierStandard, true},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTier(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTier(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
