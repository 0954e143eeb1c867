package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	interpretation "github.com/Marophobia/signsense/core"
	"github.com/Marophobia/signsense/core/controlplane"
	"github.com/Marophobia/signsense/core/stream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[WARN] No .env file found, using system environment variables")
	}

	serverURL := flag.String("server", "http://localhost:8000", "control plane base URL")
	userID := flag.String("user", "guest", "user id presented to the control plane")
	userName := flag.String("name", "", "display name")
	sessionType := flag.String("type", "default", "session type requested from the control plane")
	flag.Parse()

	session := interpretation.NewSession(
		interpretation.WithControlPlaneClient(controlplane.NewClient(*serverURL)),
		interpretation.WithEventFeedClient(stream.NewClient(*serverURL)),
		interpretation.WithUser(*userID, *userName),
		interpretation.WithSessionType(*sessionType),
	)
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := session.Start(ctx,
		interpretation.WithStateCallback(func(state interpretation.State) {
			log.Println("[INFO] session state:", state)
		}),
		interpretation.WithGestureCallback(func(label string, confidence float64) {
			fmt.Printf("sign        %-16s %.3f\n", label, confidence)
		}),
		interpretation.WithUnclearGestureCallback(func(confidence float64) {
			fmt.Printf("sign        %-16s %.3f\n", "[UNCLEAR]", confidence)
		}),
		interpretation.WithSentenceCallback(func(labels []string) {
			fmt.Printf("sentence    %v\n", labels)
		}),
		interpretation.WithTranscriptCallback(func(entry interpretation.TranscriptEntry) {
			marker := "transcript "
			if entry.Partial {
				marker = "transcript~"
			}
			fmt.Printf("%s %s\n", marker, entry.Text)
		}),
		interpretation.WithStatusCallback(func(stages map[interpretation.Stage]interpretation.Status) {
			fmt.Printf("pipeline    capture=%s gesture=%s transcript=%s\n",
				stages[interpretation.StageCapture],
				stages[interpretation.StageGesture],
				stages[interpretation.StageTranscript],
			)
		}),
		interpretation.WithSessionErrorCallback(func(message string) {
			log.Println("[WARN] session error:", message)
		}),
	)
	if err != nil {
		log.Fatalln("[ERROR] failed to start the session:", err)
	}
	log.Println("[INFO] session", session.SessionID(), "started, press Ctrl-C to stop")

	<-ctx.Done()
	stop()

	log.Println("[INFO] stopping session")
	session.Stop(context.Background())
}
