package classify

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInferSendsEncodedFrame(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/asl-hand-gesture-recognition/1" {
			t.Fatalf("expected model path, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Fatalf("expected api key in query, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Fatalf("expected form content type, got %q", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read request body: %v", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(string(body))
		if err != nil {
			t.Fatalf("expected base64 body, got %v", err)
		}
		if string(decoded) != string(frame) {
			t.Fatalf("expected frame bytes to round-trip, got %v", decoded)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[{"class":"A","confidence":0.42},{"class":"B","confidence":0.91}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "asl-hand-gesture-recognition/1", WithBaseURL(server.URL))

	result, err := client.Infer(context.Background(), frame)
	if err != nil {
		t.Fatalf("expected inference to succeed, got %v", err)
	}

	top, ok := result.Top()
	if !ok {
		t.Fatalf("expected a top prediction")
	}
	if top.Class != "B" || top.Confidence != 0.91 {
		t.Fatalf("expected top prediction B@0.91, got %s@%v", top.Class, top.Confidence)
	}
}

func TestInferReportsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("bad-key", "asl-hand-gesture-recognition/1", WithBaseURL(server.URL))

	if _, err := client.Infer(context.Background(), []byte{0x01}); err == nil {
		t.Fatalf("expected an error on non-OK status")
	}
}

func TestTopOnEmptyResult(t *testing.T) {
	result := &Result{}
	if _, ok := result.Top(); ok {
		t.Fatalf("expected no top prediction for an empty result")
	}
}
