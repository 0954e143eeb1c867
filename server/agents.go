package server

import (
	"context"
	"log"
	"time"

	"github.com/Marophobia/signsense/agent"
	"github.com/Marophobia/signsense/agent/captions"
	"github.com/Marophobia/signsense/agent/classify"
	"github.com/Marophobia/signsense/agent/interpret"
	"github.com/Marophobia/signsense/agent/media"
	"github.com/Marophobia/signsense/config"
)

// stopTimeout caps how long a stop request waits for the agent's final
// sentence flush before giving up on it.
const stopTimeout = 10 * time.Second

// AgentRunner runs the interpretation pipeline for one session until the
// context is cancelled, publishing feed events through publish. The default
// runner wires the real pipeline, tests substitute their own.
type AgentRunner func(ctx context.Context, sessionID string, sessionType string, publish func(event any)) error

// runningAgent tracks one live interpretation worker.
type runningAgent struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// launchAgent starts a background worker for the session. It reports false
// without starting anything when an agent is already active on the session.
func (s *Server) launchAgent(sessionID string, sessionType string) bool {
	s.mu.Lock()
	if _, exists := s.agents[sessionID]; exists {
		s.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	running := &runningAgent{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.agents[sessionID] = running
	s.mu.Unlock()

	go func() {
		defer close(running.done)

		err := s.runner(ctx, sessionID, sessionType, func(event any) {
			s.hub.Publish(sessionID, event)
		})
		if err != nil {
			log.Printf("Warning: agent for session %s ended with an error: %v", sessionID, err)
		}

		// An agent that ends on its own (duration guard, lost bridge)
		// frees its slot so the session can start a fresh one.
		s.mu.Lock()
		if s.agents[sessionID] == running {
			delete(s.agents, sessionID)
		}
		s.mu.Unlock()
	}()
	return true
}

// haltAgent cancels the session's worker and waits for its teardown,
// reporting false when no agent was active.
func (s *Server) haltAgent(sessionID string) bool {
	s.mu.Lock()
	running, ok := s.agents[sessionID]
	if ok {
		delete(s.agents, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	running.cancel()
	select {
	case <-running.done:
	case <-time.After(stopTimeout):
		log.Printf("Warning: agent for session %s did not stop within %s", sessionID, stopTimeout)
	}
	return true
}

func (s *Server) agentActive(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, active := s.agents[sessionID]
	return active
}

func (s *Server) activeAgents() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.agents)
}

// stopAllAgents cancels every running worker and waits for their teardown.
func (s *Server) stopAllAgents() {
	s.mu.Lock()
	agents := make([]*runningAgent, 0, len(s.agents))
	for sessionID, running := range s.agents {
		delete(s.agents, sessionID)
		agents = append(agents, running)
	}
	s.mu.Unlock()

	for _, running := range agents {
		running.cancel()
	}
	for _, running := range agents {
		select {
		case <-running.done:
		case <-time.After(stopTimeout):
		}
	}
}

// newAgentRunner builds the production pipeline from configuration. Legs
// without credentials are left unwired, the agent skips them.
func newAgentRunner(cfg config.Config) AgentRunner {
	return func(ctx context.Context, sessionID string, sessionType string, publish func(event any)) error {
		opts := []agent.Option{
			agent.WithPublisher(publish),
			agent.WithConfidenceThreshold(cfg.Gesture.ConfidenceThreshold),
		}

		if cfg.Roboflow.APIKey != "" {
			opts = append(opts, agent.WithClassifier(classify.NewClient(cfg.Roboflow.APIKey, cfg.Roboflow.ModelID)))
		}
		if cfg.Google.APIKey != "" {
			opts = append(opts, agent.WithSentenceComposer(interpret.NewClient(cfg.Google.APIKey, cfg.Google.Model)))
		}
		if cfg.Deepgram.APIKey != "" {
			opts = append(opts, agent.WithCaptionStreamer(captions.NewClient(cfg.Deepgram.APIKey)))
		}
		if cfg.MediaBridgeURL != "" {
			opts = append(opts, agent.WithFrameSource(media.NewClient(cfg.MediaBridgeURL, cfg.Stream.APIKey)))

			token, err := mintToken(cfg.Stream.APISecret, "signsense-agent", tokenTTL)
			if err != nil {
				log.Println("Warning: failed to mint a media token for the agent:", err)
			} else {
				opts = append(opts, agent.WithToken(token))
			}
		}

		return agent.New(sessionID, opts...).Run(ctx)
	}
}
