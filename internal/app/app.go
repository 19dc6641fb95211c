package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hybrasil/storefront/internal/api"
	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/config"
	"github.com/hybrasil/storefront/internal/domain/cart"
	"github.com/hybrasil/storefront/internal/domain/catalog"
	"github.com/hybrasil/storefront/internal/domain/order"
	"github.com/hybrasil/storefront/internal/domain/session"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
	"github.com/hybrasil/storefront/internal/email"
	"github.com/hybrasil/storefront/internal/infrastructure/relay"
	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

const sessionExpiry = 24 * time.Hour

// App owns the store backend, the domain services and the HTTP surface.
type App struct {
	Handler http.Handler

	store store.Store
	relay *relay.Relay
}

// relayTarget is the subset of store backends the relay can drive.
type relayTarget interface {
	store.Store
	store.Broadcaster
	store.ExternalWriter
}

// New builds the application from process configuration. The caller is
// responsible for calling Close when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	adminAccount := session.AdminAccount{
		Username:     cfg.Admin.Username,
		Email:        cfg.Admin.Email,
		PasswordHash: passwordHash,
	}

	siteConfig, err := siteconfig.NewService(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	cat, err := catalog.NewService(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	sessions, err := session.NewManager(ctx, st, adminAccount)
	if err != nil {
		st.Close()
		return nil, err
	}

	mail := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	if !mail.Configured() {
		log.Println("[App] SMTP not configured, order notifications disabled")
	}

	orders, err := order.NewService(ctx, st, &orderNotifier{mail: mail, cfg: siteConfig})
	if err != nil {
		st.Close()
		return nil, err
	}

	carts := cart.NewManager()
	jwtService := auth.NewJWTService(cfg.JWTSecret, sessionExpiry)

	handler := api.NewRouter(api.RouterConfig{
		Handlers:      api.NewHandlers(cat, orders, siteConfig, carts),
		AuthHandlers:  api.NewAuthHandlers(sessions, carts, jwtService),
		AdminHandlers: api.NewAdminHandlers(cat, orders, siteConfig),
		JWTService:    jwtService,
		Sessions:      sessions,
		Config:        siteConfig,
	})

	a := &App{Handler: handler, store: st}

	if len(cfg.KafkaBrokers) > 0 {
		target, ok := st.(relayTarget)
		if !ok {
			log.Printf("[App] store backend %s does not support change relay, skipping", cfg.StoreBackend)
		} else {
			a.relay = relay.New(cfg.KafkaBrokers, cfg.KafkaTopic, "storefront-"+cfg.StoreBackend, target)
		}
	}

	return a, nil
}

// Run starts the change relay if one is configured and blocks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.relay == nil {
		<-ctx.Done()
		return nil
	}
	return a.relay.Run(ctx)
}

func (a *App) Close() error {
	return a.store.Close()
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendBolt:
		log.Printf("[App] Opening bolt store at %s", cfg.DataPath)
		return store.OpenBolt(cfg.DataPath)
	case config.BackendPostgres:
		log.Println("[App] Connecting to Postgres store")
		return store.ConnectPostgres(cfg.PostgresURL)
	case config.BackendDynamo:
		log.Printf("[App] Connecting to DynamoDB store (table %s)", cfg.DynamoTable)
		return store.ConnectDynamo(ctx, cfg.DynamoTable)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// orderNotifier mails the administrator about new orders. Delivery is
// best effort, checkout never fails because of it.
type orderNotifier struct {
	mail *email.Service
	cfg  *siteconfig.Service
}

func (n *orderNotifier) OrderPlaced(o order.Order) {
	if !n.mail.Configured() {
		return
	}
	to := n.cfg.Get().AdminEmail
	if to == "" {
		return
	}
	go func() {
		if err := n.mail.SendOrderNotification(to, o); err != nil {
			log.Printf("[App] Failed to send order notification for %s: %v", o.ID, err)
		}
	}()
}
