package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions/create" {
			t.Fatalf("expected POST /api/sessions/create, got %s %s", r.Method, r.URL.Path)
		}
		var body CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("expected a JSON body, got %v", err)
		}
		if body.UserID != "user-1" || body.DisplayName != "Dana" {
			t.Fatalf("expected the user fields to be forwarded, got %#v", body)
		}
		json.NewEncoder(w).Encode(CreateSessionResponse{
			SessionID:   "signsense-a1b2c3d4",
			SessionType: "default",
			Token:       "jwt-token",
			APIKey:      "stream-key",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	response, err := client.CreateSession(context.Background(), CreateSessionRequest{
		UserID:      "user-1",
		DisplayName: "Dana",
	})
	if err != nil {
		t.Fatalf("expected session creation to succeed, got %v", err)
	}
	if response.SessionID != "signsense-a1b2c3d4" {
		t.Fatalf("expected session id %q, got %q", "signsense-a1b2c3d4", response.SessionID)
	}
	if response.Token != "jwt-token" || response.APIKey != "stream-key" {
		t.Fatalf("expected media credentials, got %#v", response)
	}
}

func TestCreateSessionSurfacesNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"user_id is required"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{}); err == nil {
		t.Fatalf("expected an error for a non-OK response")
	}
}

func TestStartAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions/signsense-test/start-agent" {
			t.Fatalf("expected POST start-agent, got %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			SessionType string `json:"session_type"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.SessionType != "default" {
			t.Fatalf("expected session type %q, got %q", "default", body.SessionType)
		}
		json.NewEncoder(w).Encode(AgentStatus{
			SessionID:   "signsense-test",
			AgentActive: true,
			Message:     "Active",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.StartAgent(context.Background(), "signsense-test", "default")
	if err != nil {
		t.Fatalf("expected agent start to succeed, got %v", err)
	}
	if !status.AgentActive {
		t.Fatalf("expected an active agent, got %#v", status)
	}
}

func TestStopAgentTreatsNotFoundAsStopped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", r.Method)
		}
		http.Error(w, `{"detail":"No active agent for this session."}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.StopAgent(context.Background(), "signsense-test"); err != nil {
		t.Fatalf("expected a 404 to read as already stopped, got %v", err)
	}
}

func TestStopAgentSurfacesOtherFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.StopAgent(context.Background(), "signsense-test"); err == nil {
		t.Fatalf("expected an error for a 500 response")
	}
}

func TestAgentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/sessions/signsense-test/status" {
			t.Fatalf("expected GET status, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(AgentStatus{
			SessionID:   "signsense-test",
			AgentActive: false,
			Message:     "Inactive",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.AgentStatus(context.Background(), "signsense-test")
	if err != nil {
		t.Fatalf("expected status polling to succeed, got %v", err)
	}
	if status.AgentActive {
		t.Fatalf("expected an inactive agent, got %#v", status)
	}
	if status.Message != "Inactive" {
		t.Fatalf("expected message %q, got %q", "Inactive", status.Message)
	}
}
