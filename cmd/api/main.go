package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"goscout/internal/config"
	"goscout/internal/container"
	"goscout/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		queries := splitQueries(os.Getenv("PIPELINE_QUERIES"))
		if len(queries) == 0 {
			log.Fatalf("SCHEDULER_ENABLED requires PIPELINE_QUERIES")
		}
		go scheduler.New(c.Orchestrator, cfg.Scheduler.Interval, queries, cfg.Scheduler.Interval).Start(ctx)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		log.Printf("Starting API server on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func splitQueries(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
