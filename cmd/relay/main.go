// Command relay runs the credential-injecting websocket relay in front of
// the upstream realtime endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MiniMax-OpenPlatform/voice-chat-app-realtime"
	"github.com/MiniMax-OpenPlatform/voice-chat-app-realtime/relay"
)

func main() {
	_ = godotenv.Load()

	log := realtime.NewLoggerFromEnv()
	log.SetPrefix("[relay]")

	cfg := relay.Config{
		Addr:         envOr("RELAY_ADDR", ":8080"),
		UpstreamURL:  envOr("RELAY_UPSTREAM_URL", "wss://api.minimaxi.com/ws/v1/realtime"),
		APIKey:       os.Getenv("RELAY_API_KEY"),
		TokenSecret:  os.Getenv("RELAY_TOKEN_SECRET"),
		DefaultModel: envOr("RELAY_DEFAULT_MODEL", "abab-realtime"),
		Logger:       log,
	}
	if ttl := os.Getenv("RELAY_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid RELAY_TOKEN_TTL: %v\n", err)
			os.Exit(1)
		}
		cfg.TokenTTL = d
	}

	srv, err := relay.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]any{"addr": cfg.Addr, "upstream": cfg.UpstreamURL})
		errc <- httpSrv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		log.Info("shutting_down", map[string]any{"signal": sig.String()})
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = srv.Shutdown(ctx)
	log.Info("stopped", map[string]any{"sessions": srv.ActiveSessions()})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
