package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/domain/cart"
	"github.com/hybrasil/storefront/internal/domain/catalog"
	"github.com/hybrasil/storefront/internal/domain/order"
	"github.com/hybrasil/storefront/internal/domain/session"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

const (
	testAdminUsername = "Gab15"
	testAdminEmail    = "admin@hybrasil.com"
	testAdminPassword = "portal-master-key-125674"
	testJWTSecret     = "test-secret-key-minimum-32-characters!!"
)

var (
	adminHashOnce sync.Once
	adminHash     string
)

func adminPasswordHash(t *testing.T) string {
	t.Helper()
	adminHashOnce.Do(func() {
		var err error
		adminHash, err = auth.HashPassword(testAdminPassword)
		if err != nil {
			t.Fatalf("hash admin password: %v", err)
		}
	})
	return adminHash
}

type testRig struct {
	handler http.Handler
	config  *siteconfig.Service
	orders  *order.Service
}

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(order.Order) {}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	cfgService, err := siteconfig.NewService(ctx, st)
	require.NoError(t, err)
	cat, err := catalog.NewService(ctx, st)
	require.NoError(t, err)
	sessions, err := session.NewManager(ctx, st, session.AdminAccount{
		Username:     testAdminUsername,
		Email:        testAdminEmail,
		PasswordHash: adminPasswordHash(t),
	})
	require.NoError(t, err)
	orders, err := order.NewService(ctx, st, noopNotifier{})
	require.NoError(t, err)

	carts := cart.NewManager()
	jwtService := auth.NewJWTService(testJWTSecret, time.Hour)

	handler := NewRouter(RouterConfig{
		Handlers:      NewHandlers(cat, orders, cfgService, carts),
		AuthHandlers:  NewAuthHandlers(sessions, carts, jwtService),
		AdminHandlers: NewAdminHandlers(cat, orders, cfgService),
		JWTService:    jwtService,
		Sessions:      sessions,
		Config:        cfgService,
	})
	return &testRig{handler: handler, config: cfgService, orders: orders}
}

func (rig *testRig) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	rig.handler.ServeHTTP(w, req)
	return w
}

func (rig *testRig) login(t *testing.T, username, email, password string) *http.Cookie {
	t.Helper()
	w := rig.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "hybrasil_session" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestAnonymousIsRejected(t *testing.T) {
	rig := newTestRig(t)

	for _, path := range []string{"/products", "/cart", "/orders", "/posts"} {
		w := rig.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestConfigIsPublic(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodGet, "/config", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cfg := decode[siteconfig.Config](t, w)
	assert.NotEmpty(t, cfg.ServerName)
}

func TestLoginWeakPasswordCountsAttempts(t *testing.T) {
	rig := newTestRig(t)

	creds := map[string]string{"email": "hero@orbis.com", "password": "12345"}

	w := rig.do(t, http.MethodPost, "/auth/login", creds, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[map[string]any](t, w)
	assert.Contains(t, resp["error"], "at least 6")
	assert.Equal(t, float64(1), resp["attempts"])

	w = rig.do(t, http.MethodPost, "/auth/login", creds, nil)
	resp = decode[map[string]any](t, w)
	assert.Equal(t, float64(2), resp["attempts"])
}

func TestLoginMissingEmail(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodPost, "/auth/login", map[string]string{"password": "longenough"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlainLoginUsesEmailLocalPart(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "hero@orbis.com",
		"password": "longenough",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	sess := decode[SessionResponse](t, w)
	assert.True(t, sess.IsLoggedIn)
	assert.False(t, sess.IsAdmin)
	assert.Equal(t, "hero", sess.Username)
}

func TestAdminLoginRequiresExactTriple(t *testing.T) {
	rig := newTestRig(t)

	cookie := rig.login(t, testAdminUsername, testAdminEmail, testAdminPassword)
	w := rig.do(t, http.MethodGet, "/auth/session", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SessionResponse](t, w).IsAdmin)

	// Same email and password but a different username is only a regular
	// login, not a failed one.
	w = rig.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "impostor",
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[SessionResponse](t, w).IsAdmin)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	rig := newTestRig(t)
	cookie := rig.login(t, "", "hero@orbis.com", "longenough")

	w := rig.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// The JWT is still validly signed but the session registry no longer
	// knows it.
	w = rig.do(t, http.MethodGet, "/products", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartFlow(t *testing.T) {
	rig := newTestRig(t)
	cookie := rig.login(t, "", "hero@orbis.com", "longenough")

	w := rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "1"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[CartResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Quantity)
	assert.InDelta(t, 149.90, resp.Total, 0.001)

	// Same product again increments the line instead of adding one.
	w = rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "1"}, cookie)
	resp = decode[CartResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)

	// Decrement clamps at one.
	w = rig.do(t, http.MethodPatch, "/cart/items/1", map[string]int{"delta": -5}, cookie)
	resp = decode[CartResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Quantity)

	w = rig.do(t, http.MethodDelete, "/cart/items/1", nil, cookie)
	resp = decode[CartResponse](t, w)
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.Total)
}

func TestCartUnknownProduct(t *testing.T) {
	rig := newTestRig(t)
	cookie := rig.login(t, "", "hero@orbis.com", "longenough")

	w := rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "nope"}, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout(t *testing.T) {
	rig := newTestRig(t)
	cookie := rig.login(t, "", "hero@orbis.com", "longenough")

	// Empty cart is rejected.
	w := rig.do(t, http.MethodPost, "/checkout", map[string]string{"receipt_image": "data:image/png;base64,xxx"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "2"}, cookie)

	// A receipt image is mandatory.
	w = rig.do(t, http.MethodPost, "/checkout", map[string]string{}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = rig.do(t, http.MethodPost, "/checkout", map[string]string{"receipt_image": "data:image/png;base64,xxx"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	o := decode[order.Order](t, w)
	assert.True(t, strings.HasPrefix(o.ID, "HYB-"))
	assert.Equal(t, order.StatusPending, o.Status)

	// The cart is emptied by a successful checkout.
	w = rig.do(t, http.MethodGet, "/cart", nil, cookie)
	assert.Empty(t, decode[CartResponse](t, w).Items)
}

func TestOrdersAreFilteredByEmail(t *testing.T) {
	rig := newTestRig(t)

	hero := rig.login(t, "", "hero@orbis.com", "longenough")
	rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "1"}, hero)
	w := rig.do(t, http.MethodPost, "/checkout", map[string]string{"receipt_image": "img"}, hero)
	require.Equal(t, http.StatusCreated, w.Code)

	other := rig.login(t, "", "mage@orbis.com", "longenough")

	w = rig.do(t, http.MethodGet, "/orders", nil, hero)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]order.Order](t, w), 1)

	w = rig.do(t, http.MethodGet, "/orders", nil, other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]order.Order](t, w))
}

func TestAdminRoutesRejectRegularSessions(t *testing.T) {
	rig := newTestRig(t)
	cookie := rig.login(t, "", "hero@orbis.com", "longenough")

	w := rig.do(t, http.MethodGet, "/admin/orders", nil, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = rig.do(t, http.MethodPost, "/admin/products", map[string]string{"name": "x"}, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOrderManagement(t *testing.T) {
	rig := newTestRig(t)

	hero := rig.login(t, "", "hero@orbis.com", "longenough")
	rig.do(t, http.MethodPost, "/cart/items", map[string]string{"product_id": "3"}, hero)
	w := rig.do(t, http.MethodPost, "/checkout", map[string]string{"receipt_image": "img"}, hero)
	require.Equal(t, http.StatusCreated, w.Code)
	placed := decode[order.Order](t, w)

	admin := rig.login(t, testAdminUsername, testAdminEmail, testAdminPassword)

	w = rig.do(t, http.MethodGet, "/admin/orders", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]order.Order](t, w), 1)

	w = rig.do(t, http.MethodPatch, "/admin/orders/"+placed.ID+"/status",
		map[string]string{"status": "Processing"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusProcessing, decode[order.Order](t, w).Status)

	w = rig.do(t, http.MethodPatch, "/admin/orders/"+placed.ID+"/status",
		map[string]string{"status": "teleported"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = rig.do(t, http.MethodPatch, "/admin/orders/"+placed.ID+"/message",
		map[string]string{"message": "Seu rank foi ativado!"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Seu rank foi ativado!", decode[order.Order](t, w).AdminMessage)

	w = rig.do(t, http.MethodPost, "/admin/orders/"+placed.ID+"/deliver", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusDelivered, decode[order.Order](t, w).Status)

	w = rig.do(t, http.MethodPost, "/admin/orders/HYB-000000/deliver", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCatalogManagement(t *testing.T) {
	rig := newTestRig(t)
	admin := rig.login(t, testAdminUsername, testAdminEmail, testAdminPassword)

	w := rig.do(t, http.MethodPost, "/admin/products", catalog.Product{
		Name:     "Elmo Ancestral",
		Price:    59.90,
		Category: catalog.CategoryCosmetic,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[catalog.Product](t, w)
	require.NotEmpty(t, created.ID)

	created.Price = 49.90
	w = rig.do(t, http.MethodPut, "/admin/products/"+created.ID, created, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 49.90, decode[catalog.Product](t, w).Price, 0.001)

	w = rig.do(t, http.MethodDelete, "/admin/products/"+created.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	hero := rig.login(t, "", "hero@orbis.com", "longenough")
	w = rig.do(t, http.MethodGet, "/products", nil, hero)
	for _, p := range decode[[]catalog.Product](t, w) {
		assert.NotEqual(t, created.ID, p.ID)
	}
}

func TestCountdownGate(t *testing.T) {
	rig := newTestRig(t)

	hero := rig.login(t, "", "hero@orbis.com", "longenough")
	admin := rig.login(t, testAdminUsername, testAdminEmail, testAdminPassword)

	cfg := rig.config.Get()
	cfg.CountdownActive = true
	cfg.CountdownMessage = "O portal abre em breve"
	w := rig.do(t, http.MethodPut, "/admin/config", cfg, admin)
	require.Equal(t, http.StatusOK, w.Code)

	// Every non-admin route is replaced by the countdown payload.
	for _, path := range []string{"/products", "/cart", "/orders"} {
		w = rig.do(t, http.MethodGet, path, nil, hero)
		require.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		resp := decode[map[string]any](t, w)
		assert.Equal(t, true, resp["countdown"])
		assert.Equal(t, "O portal abre em breve", resp["message"])
	}

	// Admin sessions pass the gate.
	w = rig.do(t, http.MethodGet, "/products", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	// Login stays reachable so the admin can get in at all.
	w = rig.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "late@orbis.com", "password": "longenough",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidatesOnly(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "newbie", "email": "new@orbis.com", "password": "longenough",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = rig.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "new@orbis.com", "password": "longenough",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
