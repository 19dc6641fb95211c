package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/hybrasil/storefront/internal/domain/cart"
	"github.com/hybrasil/storefront/internal/domain/session"
	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingReceipt = errors.New("payment receipt is required")
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidStatus  = errors.New("unknown order status")
)

// Order is the durable record of a completed checkout. Items and Total are
// a snapshot taken at creation and never recomputed; receipt is an opaque
// image artifact (URI or inline blob). Orders are never deleted.
type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	UserEmail    string      `json:"userEmail"`
	Date         time.Time   `json:"date"`
	Status       Status      `json:"status"`
	Total        float64     `json:"total"`
	Items        []cart.Item `json:"items"`
	ReceiptImage string      `json:"receiptImage"`
	AdminMessage string      `json:"adminMessage,omitempty"`
}

// Notifier receives a best-effort signal after an order is created. It must
// never fail the checkout.
type Notifier interface {
	OrderPlaced(o Order)
}

// Service owns the orders list, newest first. Checkout creates orders;
// after that only admin mutates them, and only status and message.
type Service struct {
	mu       sync.RWMutex
	st       store.Store
	orders   []Order
	notifier Notifier
}

func NewService(ctx context.Context, st store.Store, notifier Notifier) (*Service, error) {
	s := &Service{st: st, notifier: notifier}
	if _, err := st.Load(ctx, store.KeyOrders, &s.orders); err != nil {
		return nil, err
	}

	st.Subscribe(store.KeyOrders, func(_ string, raw []byte) {
		var orders []Order
		if err := json.Unmarshal(raw, &orders); err != nil {
			log.Printf("[Orders] Ignoring bad external orders value: %v", err)
			return
		}
		s.mu.Lock()
		s.orders = orders
		s.mu.Unlock()
	})

	return s, nil
}

// newOrderID builds a "HYB-" id with a random 6-digit suffix. Collisions
// are improbable, not impossible; uniqueness is not a contract here.
func newOrderID() string {
	return fmt.Sprintf("HYB-%06d", rand.Intn(900000)+100000)
}

// Checkout converts the cart plus a receipt artifact into a Pending order
// owned by the session. The cart snapshot and total are frozen at this
// moment. On success the cart is cleared; on any failure nothing is created
// and the cart is left untouched.
func (s *Service) Checkout(ctx context.Context, sess session.Session, c *cart.Cart, receiptImage string) (Order, error) {
	items := c.Items()
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}
	if receiptImage == "" {
		return Order{}, ErrMissingReceipt
	}

	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}

	o := Order{
		ID:           newOrderID(),
		UserID:       sess.Username,
		UserEmail:    sess.Email,
		Date:         time.Now(),
		Status:       StatusPending,
		Total:        total,
		Items:        items,
		ReceiptImage: receiptImage,
	}

	s.mu.Lock()
	s.orders = append([]Order{o}, s.orders...)
	if err := s.st.Save(ctx, store.KeyOrders, s.orders); err != nil {
		s.orders = s.orders[1:]
		s.mu.Unlock()
		return Order{}, err
	}
	s.mu.Unlock()

	c.Clear()

	if s.notifier != nil {
		s.notifier.OrderPlaced(o)
	}
	return o, nil
}

// SetStatus sets an order to any of the known statuses. There is no
// transition validation on purpose: admin may move an order anywhere at
// any time.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	return s.mutate(ctx, id, func(o *Order) { o.Status = status })
}

// SetAdminMessage attaches or overwrites the free-text message shown to
// the order's owner.
func (s *Service) SetAdminMessage(ctx context.Context, id, msg string) (Order, error) {
	return s.mutate(ctx, id, func(o *Order) { o.AdminMessage = msg })
}

// MarkDelivered is the one-click path from the admin detail view.
func (s *Service) MarkDelivered(ctx context.Context, id string) (Order, error) {
	return s.SetStatus(ctx, id, StatusDelivered)
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Order)) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			prev := s.orders[i]
			fn(&s.orders[i])
			if err := s.st.Save(ctx, store.KeyOrders, s.orders); err != nil {
				s.orders[i] = prev
				return Order{}, err
			}
			return s.orders[i], nil
		}
	}
	return Order{}, ErrOrderNotFound
}

func (s *Service) Get(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// ListByEmail returns exactly the orders owned by the email, preserving
// stored order (newest first).
func (s *Service) ListByEmail(email string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserEmail == email {
			out = append(out, o)
		}
	}
	return out
}

// ListAll returns every order, newest first. Admin only.
func (s *Service) ListAll() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.orders...)
}
