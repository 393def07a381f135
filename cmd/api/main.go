package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eshu30/AI-Stockbot/internal/config"
	"github.com/eshu30/AI-Stockbot/internal/handler"
	"github.com/eshu30/AI-Stockbot/internal/model/history"
	"github.com/eshu30/AI-Stockbot/internal/service/ai"
	"github.com/eshu30/AI-Stockbot/internal/service/chat"
	"github.com/eshu30/AI-Stockbot/internal/service/market"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := openHistoryStore(ctx, cfg.History)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close history store: %v", err)
		}
	}()

	if !cfg.AI.Enabled() {
		log.Println("GEMINI_API_KEY not set; chat turns will answer with a configuration error")
	}

	aiClient := ai.NewClient(cfg.AI)
	marketClient := market.NewClient(cfg.Market)
	chatService := chat.NewService(aiClient, marketClient, store, cfg.History.AppID)

	router := handler.NewRouter(chatService)

	startServer(ctx, cfg.Server, router)
}

// openHistoryStore picks the durable backend: Postgres when DATABASE_URL
// is set, a BoltDB file otherwise. A misconfigured Postgres is fatal; a
// broken Bolt path degrades to in-memory history like the original
// "no persistence configured" mode.
func openHistoryStore(ctx context.Context, cfg config.HistoryConfig) history.Store {
	if cfg.DatabaseURL != "" {
		store, err := history.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open postgres history store: %v", err)
		}
		log.Println("history store: postgres")
		return store
	}

	store, err := history.NewBoltStore(cfg.BoltPath)
	if err != nil {
		log.Printf("warning: failed to open bolt history store at %s: %v", cfg.BoltPath, err)
		log.Println("continuing with in-memory history only")
		return history.NewMemoryStore()
	}

	log.Printf("history store: bolt at %s", cfg.BoltPath)
	return store
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("AI-Stockbot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
