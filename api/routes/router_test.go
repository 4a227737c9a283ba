package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/sandbox"
	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

var fastArgon = config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		Sandbox: config.SandboxConfig{
			JWTSecret:         "test-secret",
			JWTIssuer:         "storefront-test",
			SessionTTLMinutes: 60,
			AllowedOrigins:    []string{"http://localhost:5501"},
		},
	}
}

type harness struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := sandbox.NewStore(sandbox.Params{
		Password:    fastArgon,
		ShippingFee: types.NewMoney(checkout.DefaultShippingFee),
		Catalog:     sandbox.SeedCatalog(),
	})
	reg := prometheus.NewRegistry()
	return &harness{t: t, handler: NewRouter(testConfig(), nil, store, metrics.NewHTTPMetrics(reg), nil)}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login() {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/register", map[string]string{"name": "Amina", "email": "amina@example.com", "password": "Passw0rdOK"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/login", map[string]string{"email": "amina@example.com", "password": "Passw0rdOK"})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == pkgAuth.SessionCookieName {
			h.cookie = c
		}
	}
	require.NotNil(h.t, h.cookie, "login did not set a session cookie")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAuthStatusGuestAndLoggedIn(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/auth/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["isLoggedIn"])

	h.login()
	rec = h.do(http.MethodGet, "/api/auth/status", nil)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["isLoggedIn"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "amina@example.com", user["email"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/login", map[string]string{"email": "nobody@example.com", "password": "whatever1A"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", decode[map[string]any](t, rec)["error"])
}

func TestRegisterValidatesPayload(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/register", map[string]string{"name": "", "email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.NotNil(t, body["details"])
}

func TestCartRequiresSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode[map[string]any](t, rec)["error"])
}

func TestCartLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/api/cart", map[string]any{"productId": "1", "size": "40", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := decode[[]cart.Line](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, types.ID("1-40"), lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)

	rec = h.do(http.MethodPut, "/api/cart", map[string]any{"cartItemId": "1-40", "quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Cart updated", decode[map[string]any](t, rec)["message"])

	rec = h.do(http.MethodGet, "/api/cart", nil)
	lines = decode[[]cart.Line](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	rec = h.do(http.MethodDelete, "/api/cart", map[string]any{"cartItemId": "1-40"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]cart.Line](t, rec))
}

func TestCartAddRejectsUnknownSize(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/api/cart", map[string]any{"productId": "1", "size": "99", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartMergeAcknowledges(t *testing.T) {
	h := newHarness(t)
	h.login()

	guest := []cart.Line{{ID: "9", ProductID: "9", Name: "Wool Scarf", Price: types.NewMoney(1), Quantity: 2}}
	rec := h.do(http.MethodPost, "/api/cart/merge", map[string]any{"cart": guest})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Cart merged successfully", decode[map[string]any](t, rec)["message"])

	lines := decode[[]cart.Line](t, h.do(http.MethodGet, "/api/cart", nil))
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "900.00", lines[0].Price.Display())
}

func TestFavouritesRoutes(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/api/favourites", map[string]any{"productId": "3"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/favourites", nil)
	favs := decode[[]map[string]any](t, rec)
	require.Len(t, favs, 1)
	assert.Equal(t, "3", favs[0]["id"])

	rec = h.do(http.MethodDelete, "/api/favourites/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, h.do(http.MethodGet, "/api/favourites", nil)))

	rec = h.do(http.MethodPost, "/api/favourites", map[string]any{"productId": "404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductsArePublic(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), len(sandbox.SeedCatalog()))

	rec = h.do(http.MethodGet, "/api/products/5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chelsea Boots", decode[map[string]any](t, rec)["name"])

	rec = h.do(http.MethodGet, "/api/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found.", decode[map[string]any](t, rec)["error"])
}

func TestStkPushChecksAmount(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/api/cart", map[string]any{"productId": "9", "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := decode[[]cart.Line](t, rec)

	shipping := checkout.ShippingDetails{Name: "Amina", Address: "1 Moi Ave", City: "Nairobi", PostalCode: "00100", Phone: "254712345678"}
	req := checkout.StkPushRequest{Phone: "254712345678", Cart: lines, ShippingDetails: shipping, Amount: types.NewMoney(1)}

	rec = h.do(http.MethodPost, "/api/mpesa/stk-push", req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Amount mismatch", body["error"])
	assert.Equal(t, "Expected 1400.00 but received 1.00.", body["details"])

	req.Amount = types.NewMoney(1400)
	rec = h.do(http.MethodPost, "/api/mpesa/stk-push", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[checkout.StkPushResponse](t, rec)
	assert.Equal(t, "Success. Request accepted for processing", resp.CustomerMessage)
	assert.NotEmpty(t, resp.CheckoutRequestID)
}

func TestLogoutExpiresCookie(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == pkgAuth.SessionCookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired)
}
