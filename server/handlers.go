package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type createSessionRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
}

type createSessionResponse struct {
	SessionID   string `json:"session_id"`
	SessionType string `json:"session_type"`
	Token       string `json:"token"`
	APIKey      string `json:"api_key"`
}

type startAgentRequest struct {
	SessionType string `json:"session_type,omitempty"`
}

type agentStatusResponse struct {
	SessionID   string `json:"session_id"`
	AgentActive bool   `json:"agent_active"`
	Message     string `json:"message"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var request createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(request.UserID) == "" {
		writeDetail(w, http.StatusBadRequest, "user_id is required.")
		return
	}

	token, err := mintToken(s.config.Stream.APISecret, request.UserID, tokenTTL)
	if err != nil {
		log.Println("Warning: failed to mint a session token:", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create the session.")
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{
		SessionID:   "signsense-" + uuid.NewString()[:8],
		SessionType: "default",
		Token:       token,
		APIKey:      s.config.Stream.APIKey,
	})
}

func (s *Server) handleStartAgent(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	// The body is optional, absent or empty means defaults.
	var request startAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	sessionType := request.SessionType
	if sessionType == "" {
		sessionType = "default"
	}

	if !s.launchAgent(sessionID, sessionType) {
		writeJSON(w, http.StatusOK, agentStatusResponse{
			SessionID:   sessionID,
			AgentActive: true,
			Message:     "Agent is already active on this session.",
		})
		return
	}

	writeJSON(w, http.StatusOK, agentStatusResponse{
		SessionID:   sessionID,
		AgentActive: true,
		Message:     "Agent started.",
	})
}

func (s *Server) handleStopAgent(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	if !s.haltAgent(sessionID) {
		writeDetail(w, http.StatusNotFound, "No active agent for this session.")
		return
	}

	writeJSON(w, http.StatusOK, agentStatusResponse{
		SessionID:   sessionID,
		AgentActive: false,
		Message:     "Agent stopped.",
	})
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	active := s.agentActive(sessionID)
	message := "No agent is active on this session."
	if active {
		message = "Agent is active."
	}

	writeJSON(w, http.StatusOK, agentStatusResponse{
		SessionID:   sessionID,
		AgentActive: active,
		Message:     message,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the headers go out so an event published right after
	// the client sees the response is never missed.
	subscription, unsubscribe := s.hub.Subscribe(sessionID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(s.keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-subscription:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", `{"type":"ping"}`); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"active_agents": s.activeAgents(),
	})
}

func (s *Server) handleClassifyImage(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Image classification is not configured.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "A multipart file field named file is required.")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read the uploaded file.")
		return
	}

	result, err := s.classifier.Infer(r.Context(), image)
	if err != nil {
		log.Println("Warning: debug classification failed:", err)
		writeDetail(w, http.StatusBadGateway, "Classification failed.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model_id":    s.config.Roboflow.ModelID,
		"predictions": result.Predictions,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("Warning: failed to write response body:", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
