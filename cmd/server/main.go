package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hybrasil/storefront/internal/app"
	"github.com/hybrasil/storefront/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[Server] Failed to load configuration: %v", err)
	}

	log.Println("[Server] ========================================")
	log.Println("[Server] Hybrasil Storefront")
	log.Println("[Server] ========================================")
	log.Printf("[Server] Store backend: %s", cfg.StoreBackend)
	if len(cfg.KafkaBrokers) > 0 {
		log.Printf("[Server] Change relay: Kafka %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[Server] Change relay: disabled")
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
	defer application.Close()

	go func() {
		if err := application.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[Server] Relay error: %v", err)
		}
	}()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: application.Handler,
	}

	go func() {
		log.Println("[Server] ========================================")
		log.Printf("[Server] Listening on %s", cfg.ListenAddr)
		log.Println("[Server] ========================================")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Server] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Server] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
	log.Println("[Server] Stopped")
}
