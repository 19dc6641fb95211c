package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hybrasil/storefront/internal/config"
	"github.com/hybrasil/storefront/internal/infrastructure/relay"
	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

// Standalone change relay. Bridges a node's local state store onto the
// shared Kafka topic so that other storefront nodes observe its writes.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[Relay] Failed to load configuration: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[Relay] KAFKA_BROKERS is required")
	}

	log.Println("[Relay] ========================================")
	log.Println("[Relay] Hybrasil Storefront - Change Relay")
	log.Println("[Relay] ========================================")
	log.Printf("[Relay] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Relay] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Relay] Store backend: %s", cfg.StoreBackend)

	target, err := openTarget(ctx, cfg)
	if err != nil {
		log.Fatalf("[Relay] Failed to open store: %v", err)
	}
	defer target.Close()

	groupID := getEnv("KAFKA_CONSUMER_GROUP", "storefront-relay")
	r := relay.New(cfg.KafkaBrokers, cfg.KafkaTopic, groupID, target)

	go func() {
		log.Println("[Relay] Starting change consumer...")
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[Relay] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Relay] Shutting down...")
	cancel()
}

type relayStore interface {
	store.Store
	store.Broadcaster
	store.ExternalWriter
}

func openTarget(ctx context.Context, cfg config.Config) (relayStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.ConnectPostgres(cfg.PostgresURL)
	case config.BackendDynamo:
		return store.ConnectDynamo(ctx, cfg.DynamoTable)
	default:
		return store.OpenBolt(cfg.DataPath)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
