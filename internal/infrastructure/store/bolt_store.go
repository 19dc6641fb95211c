package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

var stateBucket = []byte("state")

// BoltStore is the default backend: a single-file embedded key/value
// database, the durable local storage of a storefront node.
type BoltStore struct {
	db       *bolt.DB
	notifier *notifier
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, notifier: newNotifier()}, nil
}

func (s *BoltStore) Load(ctx context.Context, key string, v any) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(stateBucket).Get([]byte(key)); data != nil {
			raw = append(raw, data...)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		// Corrupted data is treated as absent; the caller keeps its default.
		log.Printf("[Store] Discarding unparsable value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *BoltStore) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.put(key, raw); err != nil {
		return err
	}
	s.notifier.publishSave(key, raw)
	return nil
}

func (s *BoltStore) ApplyExternal(ctx context.Context, key string, raw []byte) error {
	if err := s.put(key, raw); err != nil {
		return err
	}
	s.notifier.publishExternal(key, raw)
	return nil
}

func (s *BoltStore) put(key string, raw []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), raw)
	})
}

func (s *BoltStore) Subscribe(key string, fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeExternal(key, fn)
}

func (s *BoltStore) OnSave(fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeSave(fn)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
