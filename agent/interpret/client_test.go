package interpret

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComposeSentencePromptsModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/models/gemini-2.0-flash-lite:generateContent" {
			t.Fatalf("expected generate content path, got %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Fatalf("expected api key header, got %q", got)
		}

		var request generateRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(request.Contents) != 1 || len(request.Contents[0].Parts) != 1 {
			t.Fatalf("expected a single prompt part, got %+v", request.Contents)
		}
		if prompt := request.Contents[0].Parts[0].Text; !strings.Contains(prompt, "Signs: HELLO MY NAME B O B") {
			t.Fatalf("expected prompt to carry the sign sequence, got %q", prompt)
		}
		if request.GenerationConfig == nil || request.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Fatalf("expected JSON generation config, got %+v", request.GenerationConfig)
		}
		if request.GenerationConfig.ResponseJSONSchema == nil {
			t.Fatalf("expected a response schema to be enforced")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"sentence\":\"Hello, my name is Bob.\"}"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-lite", WithBaseURL(server.URL))

	sentence, err := client.ComposeSentence(context.Background(), []string{"HELLO", "MY", "NAME", "B", "O", "B"})
	if err != nil {
		t.Fatalf("expected composition to succeed, got %v", err)
	}
	if sentence != "Hello, my name is Bob." {
		t.Fatalf("expected composed sentence, got %q", sentence)
	}
}

func TestComposeSentenceStripsMarkdownFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```json\\n{\\\"sentence\\\":\\\"I am happy.\\\"}\\n```" + `"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-lite", WithBaseURL(server.URL))

	sentence, err := client.ComposeSentence(context.Background(), []string{"HAPPY"})
	if err != nil {
		t.Fatalf("expected composition to succeed, got %v", err)
	}
	if sentence != "I am happy." {
		t.Fatalf("expected fenced output to parse, got %q", sentence)
	}
}

func TestComposeSentenceReportsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-lite", WithBaseURL(server.URL))

	if _, err := client.ComposeSentence(context.Background(), []string{"HELLO"}); err == nil {
		t.Fatalf("expected an error on non-OK status")
	}
}

func TestComposeSentenceReportsMissingCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-lite", WithBaseURL(server.URL))

	if _, err := client.ComposeSentence(context.Background(), []string{"HELLO"}); err == nil {
		t.Fatalf("expected an error when no candidates are returned")
	}
}

func TestComposeSentenceSkipsEmptyRuns(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-lite", WithBaseURL(server.URL))

	sentence, err := client.ComposeSentence(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected empty run to succeed, got %v", err)
	}
	if sentence != "" {
		t.Fatalf("expected empty sentence, got %q", sentence)
	}
	if calls != 0 {
		t.Fatalf("expected no model call for an empty run, got %d", calls)
	}
}
