package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

func newTestRelay(t *testing.T) (*Relay, *store.MemoryStore) {
	t.Helper()
	target := store.NewMemoryStore()
	r := New([]string{"localhost:9092"}, "storefront-changes", "test-node", target)
	return r, target
}

func envelope(t *testing.T, nodeID, key, value string) []byte {
	t.Helper()
	data, err := json.Marshal(StateChanged{
		NodeID: nodeID,
		Key:    key,
		Value:  json.RawMessage(value),
		At:     time.Now(),
	})
	require.NoError(t, err)
	return data
}

func TestRelay_HandleMessage_AppliesPeerChange(t *testing.T) {
	r, target := newTestRelay(t)
	ctx := context.Background()

	var notified []string
	cancel := target.Subscribe(store.KeyOrders, func(key string, raw []byte) {
		notified = append(notified, string(raw))
	})
	defer cancel()

	err := r.HandleMessage(ctx, envelope(t, "peer-node", store.KeyOrders, `[{"id":"HYB-123456"}]`))
	require.NoError(t, err)
	require.Len(t, notified, 1)
	assert.JSONEq(t, `[{"id":"HYB-123456"}]`, notified[0])

	var orders []map[string]string
	found, err := target.Load(ctx, store.KeyOrders, &orders)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "HYB-123456", orders[0]["id"])
}

func TestRelay_HandleMessage_IgnoresOwnWrites(t *testing.T) {
	r, target := newTestRelay(t)
	ctx := context.Background()

	var calls int
	cancel := target.Subscribe(store.KeyConfig, func(key string, raw []byte) { calls++ })
	defer cancel()

	err := r.HandleMessage(ctx, envelope(t, r.NodeID(), store.KeyConfig, `{}`))
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRelay_HandleMessage_RejectsBadEnvelope(t *testing.T) {
	r, _ := newTestRelay(t)

	err := r.HandleMessage(context.Background(), []byte("not an envelope"))
	assert.Error(t, err)
}
