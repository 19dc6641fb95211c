package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pgChannel = "storefront_state"

// PostgresStore keeps state in a shared key/value table. Nodes sharing the
// database observe each other's writes through LISTEN/NOTIFY: the notify
// payload names the key and the writing node, and each listener re-reads
// the row before fanning out, so large values (inline receipt images) never
// hit the notification payload limit.
type PostgresStore struct {
	db       *sql.DB
	listener *pq.Listener
	nodeID   string
	notifier *notifier
	done     chan struct{}
}

type pgNotification struct {
	Key    string `json:"key"`
	NodeID string `json:"node_id"`
}

func ConnectPostgres(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS storefront_state (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresStore{
		db:       db,
		nodeID:   uuid.New().String(),
		notifier: newNotifier(),
		done:     make(chan struct{}),
	}

	s.listener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[Store] Postgres listener: %v", err)
		}
	})
	if err := s.listener.Listen(pgChannel); err != nil {
		s.listener.Close()
		db.Close()
		return nil, err
	}
	go s.listen()

	return s, nil
}

func (s *PostgresStore) listen() {
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnect marker; anything missed is stale until the
				// next write, per the best-effort contract.
				continue
			}
			var note pgNotification
			if err := json.Unmarshal([]byte(n.Extra), &note); err != nil {
				log.Printf("[Store] Bad notification payload: %v", err)
				continue
			}
			if note.NodeID == s.nodeID {
				continue
			}
			raw, err := s.loadRaw(context.Background(), note.Key)
			if err != nil || raw == nil {
				continue
			}
			s.notifier.publishExternal(note.Key, raw)
		}
	}
}

func (s *PostgresStore) loadRaw(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM storefront_state WHERE key = $1", key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return raw, err
}

func (s *PostgresStore) Load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.loadRaw(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("[Store] Discarding unparsable value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.put(ctx, key, raw); err != nil {
		return err
	}
	s.notifier.publishSave(key, raw)
	return nil
}

func (s *PostgresStore) ApplyExternal(ctx context.Context, key string, raw []byte) error {
	if err := s.put(ctx, key, raw); err != nil {
		return err
	}
	s.notifier.publishExternal(key, raw)
	return nil
}

func (s *PostgresStore) put(ctx context.Context, key string, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO storefront_state (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		key, raw,
	)
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(pgNotification{Key: key, NodeID: s.nodeID})
	_, err = s.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", pgChannel, string(payload))
	return err
}

func (s *PostgresStore) Subscribe(key string, fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeExternal(key, fn)
}

func (s *PostgresStore) OnSave(fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeSave(fn)
}

func (s *PostgresStore) Close() error {
	close(s.done)
	s.listener.Close()
	return s.db.Close()
}
