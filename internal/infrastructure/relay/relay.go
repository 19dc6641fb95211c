package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

// StateChanged is the wire envelope for a whole-value write. Peers apply the
// value as-is; there is no merging and no ordering across keys.
type StateChanged struct {
	NodeID string          `json:"node_id"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
	At     time.Time       `json:"at"`
}

// Target is the store surface a relay attaches to.
type Target interface {
	store.Broadcaster
	store.ExternalWriter
}

// Relay forwards local writes to a Kafka topic and applies writes published
// by peer nodes. Delivery is best-effort: a node that is down while a change
// is published stays stale until its next own write or restart.
type Relay struct {
	nodeID string
	writer *kafka.Writer
	reader *kafka.Reader
	target Target
}

func New(brokers []string, topic, groupID string, target Target) *Relay {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Relay{
		nodeID: uuid.New().String(),
		writer: writer,
		reader: reader,
		target: target,
	}
}

// NodeID identifies this relay; its own messages are dropped on receipt.
func (r *Relay) NodeID() string { return r.nodeID }

// Run attaches to the target's save feed and consumes peer changes until the
// context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	cancel := r.target.OnSave(func(key string, raw []byte) {
		if err := r.publish(ctx, key, raw); err != nil {
			log.Printf("[Relay] Failed to publish change for %q: %v", key, err)
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := r.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Relay] Error reading message: %v", err)
				continue
			}
			if err := r.HandleMessage(ctx, msg.Value); err != nil {
				log.Printf("[Relay] Error applying change: %v", err)
			}
		}
	}
}

func (r *Relay) publish(ctx context.Context, key string, raw []byte) error {
	env := StateChanged{
		NodeID: r.nodeID,
		Key:    key,
		Value:  raw,
		At:     time.Now(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  env.At,
	})
}

// HandleMessage applies one StateChanged envelope. Messages carrying this
// node's own ID are ignored so local writes do not echo.
func (r *Relay) HandleMessage(ctx context.Context, value []byte) error {
	var env StateChanged
	if err := json.Unmarshal(value, &env); err != nil {
		return err
	}
	if env.NodeID == r.nodeID {
		return nil
	}
	log.Printf("[Relay] Applying change to %q from node %s", env.Key, env.NodeID)
	return r.target.ApplyExternal(ctx, env.Key, env.Value)
}

func (r *Relay) Close() error {
	if err := r.writer.Close(); err != nil {
		r.reader.Close()
		return err
	}
	return r.reader.Close()
}
