// Package agent runs the server-side interpretation pipeline for a single
// session: it pulls frames and audio from the media bridge, classifies sampled
// frames into sign labels, debounces them into gesture events, composes
// silence-delimited sign runs into sentences and publishes everything to the
// session's event feed.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Marophobia/signsense/agent/captions"
	"github.com/Marophobia/signsense/agent/classify"
	"github.com/Marophobia/signsense/agent/interpret"
	"github.com/Marophobia/signsense/agent/media"
	"github.com/Marophobia/signsense/core/gesture"
)

const (
	defaultConfidenceThreshold = 0.65
	defaultFrameInterval       = 100 * time.Millisecond
	defaultMaxDuration         = time.Hour
	defaultCaptionSampleRate   = 16000

	composeTimeout = 15 * time.Second

	// unknownLabel stands in for classifier hits that carry no class name.
	unknownLabel = "[UNKNOWN]"
)

// ErrAgentRunning is returned by [Agent.Run] when the agent is already
// processing a session.
var ErrAgentRunning = errors.New("agent is already running")

// Classifier turns a single frame into gesture predictions.
type Classifier interface {
	Infer(ctx context.Context, image []byte) (*classify.Result, error)
}

// SentenceComposer turns a run of sign labels into a natural sentence.
type SentenceComposer interface {
	ComposeSentence(ctx context.Context, labels []string) (string, error)
}

// FrameSource delivers frames and audio from the media bridge.
type FrameSource interface {
	Connect(ctx context.Context, sessionID string, opts ...media.ConnectOption) error
	Close() error
}

// CaptionStreamer transcribes forwarded voice audio into captions.
type CaptionStreamer interface {
	Stream(ctx context.Context, opts ...captions.StreamOption) error
	SendAudio(audio []byte) error
	Close() error
}

// Agent drives the interpretation pipeline for one session. Construct it with
// [New], wire the stages through options and hand it a context via [Agent.Run];
// cancelling that context shuts the pipeline down and flushes any pending
// sentence.
type Agent struct {
	sessionID string
	token     string

	threshold         float64
	frameInterval     time.Duration
	maxDuration       time.Duration
	captionSampleRate int

	classifier Classifier
	llm        SentenceComposer
	frames     FrameSource
	captioner  CaptionStreamer

	buffer    *gesture.Buffer
	sentences *interpret.Composer

	publishEvent func(event any)

	frameMu     sync.Mutex
	latestFrame *media.Frame

	mu             sync.Mutex
	running        bool
	baseContext    context.Context
	captionsOpen   bool
	classifierDown bool
	audioDown      bool
}

// New creates an agent for the given session. All pipeline stages are
// optional; stages that are not wired are skipped.
func New(sessionID string, opts ...Option) *Agent {
	agent := &Agent{
		sessionID:         sessionID,
		threshold:         defaultConfidenceThreshold,
		frameInterval:     defaultFrameInterval,
		maxDuration:       defaultMaxDuration,
		captionSampleRate: defaultCaptionSampleRate,
	}

	for _, opt := range opts {
		opt(agent)
	}

	agent.sentences = interpret.NewComposer(agent.composeSentence)
	agent.buffer = gesture.NewBuffer(
		gesture.WithConfidenceThreshold(agent.threshold),
		gesture.WithAcceptedCallback(func(accepted gesture.Accepted) {
			agent.publishGesture(accepted.Label, accepted.Confidence)
			agent.sentences.Push(accepted.Label)
		}),
		gesture.WithUnclearCallback(func(confidence float64) {
			agent.publishGesture(gesture.UnclearLabel, confidence)
		}),
	)

	return agent
}

// Run connects the wired stages and processes media until the context is
// cancelled, the media bridge connection is lost or the maximum session
// duration elapses. It always tears the pipeline down before returning,
// composing any pending sign run into a final sentence.
func (a *Agent) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAgentRunning
	}
	a.running = true
	a.baseContext = ctx
	a.mu.Unlock()

	defer func() {
		if a.frames != nil {
			if err := a.frames.Close(); err != nil {
				log.Println("Warning: failed to close media bridge connection:", err)
			}
		}
		if a.captioner != nil {
			if err := a.captioner.Close(); err != nil {
				log.Println("Warning: failed to close caption stream:", err)
			}
		}
		a.buffer.Close()
		a.sentences.Close()
		a.publishStatus(map[string]string{"capture": "disconnected"})

		a.mu.Lock()
		a.running = false
		a.captionsOpen = false
		a.mu.Unlock()
	}()

	if a.captioner != nil {
		err := a.captioner.Stream(ctx,
			captions.WithSampleRate(a.captionSampleRate),
			captions.WithCaptionCallback(a.publishTranscript),
			captions.WithInterimCaptionCallback(a.publishPartialTranscript),
		)
		if err != nil {
			log.Println("Warning: failed to open caption stream, continuing without voice captions:", err)
		} else {
			a.mu.Lock()
			a.captionsOpen = true
			a.mu.Unlock()
		}
	}

	bridgeClosed := make(chan error, 1)
	if a.frames != nil {
		err := a.frames.Connect(ctx, a.sessionID,
			media.WithToken(a.token),
			media.WithFrameCallback(a.storeFrame),
			media.WithAudioCallback(a.forwardAudio),
			media.WithCloseCallback(func(err error) {
				select {
				case bridgeClosed <- err:
				default:
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to connect to media bridge: %w", err)
		}
		a.publishStatus(map[string]string{"capture": "connected"})
	} else {
		log.Println("Warning: agent started without a frame source, no media will be processed")
	}

	sampler := time.NewTicker(a.frameInterval)
	defer sampler.Stop()

	deadline := time.NewTimer(a.maxDuration)
	defer deadline.Stop()

	classifyLatest := panicSafeNamedWorker("classification", a.classifyLatestFrame)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-bridgeClosed:
			if err != nil {
				a.publishError("Media bridge connection lost.")
				return fmt.Errorf("media bridge connection lost: %w", err)
			}
			return nil
		case <-deadline.C:
			log.Println("Warning: session reached the maximum duration, shutting the agent down")
			return nil
		case <-sampler.C:
			if err := classifyLatest(ctx); err != nil {
				log.Println("Warning:", err)
			}
		}
	}
}

// classifyLatestFrame classifies the most recent frame, if any arrived since
// the previous tick. Frames that queue up behind a slow inference call are
// dropped rather than processed late.
func (a *Agent) classifyLatestFrame(ctx context.Context) error {
	if a.classifier == nil {
		return nil
	}

	frame, ok := a.takeLatestFrame()
	if !ok {
		return nil
	}

	result, err := a.classifier.Infer(ctx, frame.Data)
	if err != nil {
		a.noteClassifierFailure()
		return fmt.Errorf("failed to classify frame: %w", err)
	}
	a.noteClassifierRecovery()

	top, ok := result.Top()
	if !ok {
		return nil
	}

	label := strings.ToUpper(strings.TrimSpace(top.Class))
	if label == "" {
		label = unknownLabel
	}

	a.buffer.Accept(gesture.Observation{
		Label:      label,
		Confidence: math.Round(top.Confidence*1000) / 1000,
		At:         frame.At,
	})
	return nil
}

// composeSentence is the composer's flush callback. It survives run context
// cancellation so the final flush during shutdown still reaches the model.
func (a *Agent) composeSentence(labels []string) {
	if a.llm == nil {
		return
	}

	a.mu.Lock()
	base := a.baseContext
	a.mu.Unlock()
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(base), composeTimeout)
	defer cancel()

	sentence, err := a.llm.ComposeSentence(ctx, labels)
	if err != nil {
		log.Println("Warning: failed to compose sentence from signs:", err)
		a.publishError("Sentence interpretation failed.")
		return
	}
	if sentence == "" {
		return
	}

	a.publishTranscript(sentence)
}

func (a *Agent) storeFrame(frame media.Frame) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	a.latestFrame = &frame
}

func (a *Agent) takeLatestFrame() (media.Frame, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.latestFrame == nil {
		return media.Frame{}, false
	}
	frame := *a.latestFrame
	a.latestFrame = nil
	return frame, true
}

func (a *Agent) forwardAudio(chunk media.AudioChunk) {
	a.mu.Lock()
	open := a.captionsOpen
	a.mu.Unlock()
	if !open {
		return
	}

	if err := a.captioner.SendAudio(chunk.Data); err != nil {
		a.mu.Lock()
		down := a.audioDown
		a.audioDown = true
		a.mu.Unlock()
		if !down {
			log.Println("Warning: failed to forward audio to captioning:", err)
		}
		return
	}

	a.mu.Lock()
	a.audioDown = false
	a.mu.Unlock()
}

// noteClassifierFailure publishes a single error event per failure streak so
// a flapping inference endpoint does not flood the feed.
func (a *Agent) noteClassifierFailure() {
	a.mu.Lock()
	down := a.classifierDown
	a.classifierDown = true
	a.mu.Unlock()

	if !down {
		a.publishError("Gesture classification is failing, retrying.")
	}
}

func (a *Agent) noteClassifierRecovery() {
	a.mu.Lock()
	a.classifierDown = false
	a.mu.Unlock()
}
