package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/hybrasil/storefront/internal/api/middleware"
	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/domain/session"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
)

type RouterConfig struct {
	Handlers      *Handlers
	AuthHandlers  *AuthHandlers
	AdminHandlers *AdminHandlers
	JWTService    *auth.JWTService
	Sessions      *session.Manager
	Config        *siteconfig.Service
}

// NewRouter wires the route surface. Gate order: session first (anonymous
// viewers reach only the auth surface and public config), then the
// countdown override, then the admin check for back-office routes.
func NewRouter(cfg RouterConfig) http.Handler {
	requireSession := middleware.RequireSession(cfg.JWTService, cfg.Sessions)
	countdown := middleware.CountdownGate(cfg.Config)

	authed := func(h http.Handler) http.Handler {
		return requireSession(countdown(h))
	}
	admin := func(h http.Handler) http.Handler {
		return requireSession(middleware.RequireAdmin(h))
	}

	mux := http.NewServeMux()

	// Auth surface: reachable anonymously.
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Login(w, r)
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Register(w, r)
	})
	mux.Handle("/auth/logout", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Logout(w, r)
	})))
	mux.Handle("/auth/session", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.GetSession(w, r)
	})))

	// Branding is public so the auth screen can render before login.
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.GetConfig(w, r)
	})

	// Shop and blog.
	mux.Handle("/products", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.GetProducts(w, r)
	})))
	mux.Handle("/posts", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.GetPosts(w, r)
	})))
	mux.Handle("/posts/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.GetPost(w, r)
	})))

	// Cart and checkout.
	mux.Handle("/cart", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetCart(w, r)
		case http.MethodDelete:
			cfg.Handlers.ClearCart(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/cart/items", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.AddToCart(w, r)
	})))
	mux.Handle("/cart/items/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			cfg.Handlers.UpdateCartItem(w, r)
		case http.MethodDelete:
			cfg.Handlers.RemoveFromCart(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/checkout", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.Checkout(w, r)
	})))

	// Order tracking, own orders only.
	mux.Handle("/orders", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.Handlers.GetOrders(w, r)
	})))

	// Back office.
	mux.Handle("/admin/products", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AdminHandlers.CreateProduct(w, r)
	})))
	mux.Handle("/admin/products/", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			cfg.AdminHandlers.UpdateProduct(w, r)
		case http.MethodDelete:
			cfg.AdminHandlers.DeleteProduct(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/admin/posts", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AdminHandlers.CreatePost(w, r)
	})))
	mux.Handle("/admin/posts/", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			cfg.AdminHandlers.UpdatePost(w, r)
		case http.MethodDelete:
			cfg.AdminHandlers.DeletePost(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/admin/orders", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AdminHandlers.GetAllOrders(w, r)
	})))
	mux.Handle("/admin/orders/", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPatch:
			cfg.AdminHandlers.SetOrderStatus(w, r)
		case strings.HasSuffix(path, "/message") && r.Method == http.MethodPatch:
			cfg.AdminHandlers.SetOrderMessage(w, r)
		case strings.HasSuffix(path, "/deliver") && r.Method == http.MethodPost:
			cfg.AdminHandlers.DeliverOrder(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/admin/config", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AdminHandlers.UpdateConfig(w, r)
	})))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
