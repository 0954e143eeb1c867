package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Marophobia/signsense/config"
	"github.com/Marophobia/signsense/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[WARN] No .env file found, using system environment variables")
	} else {
		log.Println("[INFO] Loaded environment variables from .env file")
	}

	addr := flag.String("addr", "", "listen address (overrides HTTP_ADDR)")
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln("[ERROR]", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalln("[ERROR] missing required configuration:", strings.Join(missing, ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("[INFO] SignSense control plane listening on", cfg.HTTPAddr)
	if err := server.New(*cfg).ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalln("[ERROR]", err)
	}
	log.Println("[INFO] Server stopped")
}
