package store

import (
	"context"
	"log"

	"github.com/asaskevich/EventBus"
)

// State keys. One JSON document per key, written whole on every mutation.
const (
	KeyProducts = "products"
	KeyBlog     = "blog"
	KeyConfig   = "config"
	KeyOrders   = "orders"
	KeySession  = "session"
)

// ChangeFunc receives the key and the raw JSON value of a write.
type ChangeFunc func(key string, raw []byte)

// Store is the durability layer backing all non-transient state.
// Writes are synchronous, whole-value, last-write-wins. Readers supply a
// default by pre-filling the destination value: absent or unparsable data
// leaves it untouched and reports found=false.
type Store interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error

	// Subscribe registers fn for writes made by another execution context
	// sharing the same storage. Best-effort: delivery is unordered across
	// keys and a context that is not listening simply stays stale.
	Subscribe(key string, fn ChangeFunc) (cancel func())

	Close() error
}

// Broadcaster is implemented by stores whose local writes can be observed,
// so a relay can forward them to peer contexts.
type Broadcaster interface {
	OnSave(fn ChangeFunc) (cancel func())
}

// ExternalWriter applies a change that originated in another context:
// the value is persisted as-is and Subscribe callbacks fire, but OnSave
// observers do not (the change is not re-broadcast).
type ExternalWriter interface {
	ApplyExternal(ctx context.Context, key string, raw []byte) error
}

const (
	topicExternal = "store:external:"
	topicSave     = "store:save"
)

// notifier fans out change notifications over an in-process event bus.
type notifier struct {
	bus EventBus.Bus
}

func newNotifier() *notifier {
	return &notifier{bus: EventBus.New()}
}

func (n *notifier) subscribeExternal(key string, fn ChangeFunc) func() {
	handler := func(k string, raw []byte) { fn(k, raw) }
	if err := n.bus.Subscribe(topicExternal+key, handler); err != nil {
		log.Printf("[Store] Subscribe %s: %v", key, err)
		return func() {}
	}
	return func() { _ = n.bus.Unsubscribe(topicExternal+key, handler) }
}

func (n *notifier) subscribeSave(fn ChangeFunc) func() {
	handler := func(k string, raw []byte) { fn(k, raw) }
	if err := n.bus.Subscribe(topicSave, handler); err != nil {
		log.Printf("[Store] OnSave subscribe: %v", err)
		return func() {}
	}
	return func() { _ = n.bus.Unsubscribe(topicSave, handler) }
}

func (n *notifier) publishExternal(key string, raw []byte) {
	n.bus.Publish(topicExternal+key, key, raw)
}

func (n *notifier) publishSave(key string, raw []byte) {
	n.bus.Publish(topicSave, key, raw)
}
