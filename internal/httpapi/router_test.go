package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-console/internal/catalogsync"
	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	catalogdomain "github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/adapters/workflows"
	ordersmemory "github.com/Apurer/go-order-console/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/pages"
	"github.com/Apurer/go-order-console/internal/pages/admin"
	"github.com/Apurer/go-order-console/internal/pages/storefront"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

type fakeProducts struct {
	products []catalogdomain.Product
}

func (f *fakeProducts) ListProducts(context.Context) ([]catalogdomain.Product, error) {
	return f.products, nil
}

func (f *fakeProducts) CreateProduct(_ context.Context, _ authdomain.Credentials, draft catalogdomain.ProductDraft) error {
	f.products = append(f.products, catalogdomain.Product{ID: "p" + draft.Name, Name: draft.Name, Description: draft.Description, Price: draft.Price})
	return nil
}

type countingNotifier struct{ published int }

func (n *countingNotifier) PublishCatalogChanged(context.Context) { n.published++ }

// subscriptionFeed counts live catalog subscriptions.
type subscriptionFeed struct{ active atomic.Int32 }

func (f *subscriptionFeed) OnCatalogChanged(catalogsync.Handler) func() {
	f.active.Add(1)
	return func() { f.active.Add(-1) }
}

type harness struct {
	router   *gin.Engine
	server   *Server
	orders   *ordersmemory.Gateway
	notifier *countingNotifier
	feed     *subscriptionFeed
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	orders := ordersmemory.NewGateway(map[string]string{"admin": "secret"})
	products := &fakeProducts{products: []catalogdomain.Product{
		{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("19.99")},
	}}
	notifier := &countingNotifier{}
	feed := &subscriptionFeed{}
	opts := Options{
		Storefront: storefront.Deps{Products: products, Checkout: workflows.NewInlineCheckout(orders), Tracker: orders, Feed: feed},
		Admin:      admin.Deps{Orders: orders, Products: products, Notifier: notifier, Feed: feed},
	}
	server := NewServer(opts)
	t.Cleanup(server.Close)
	return &harness{router: NewRouter(server, opts), server: server, orders: orders, notifier: notifier, feed: feed}
}

func (h *harness) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func basicAuth(username, password string) func(*http.Request) {
	return func(r *http.Request) { r.SetBasicAuth(username, password) }
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (h *harness) openStorefront(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/storefront/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	opened := decode[openStorefrontResponse](t, rec)
	require.Len(t, opened.Products, 1)
	require.Empty(t, opened.CatalogError)
	return opened.ID
}

func TestStorefrontCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	sid := h.openStorefront(t)
	base := "/api/storefront/sessions/" + sid

	rec := h.do(t, http.MethodPost, base+"/cart/items", addItemRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPost, base+"/cart/items/p1/increment", nil)
	cart := decode[storefront.CartView](t, rec)
	require.Equal(t, 2, cart.Lines[0].Quantity)
	require.Equal(t, "$39.98", cart.Total)

	rec = h.do(t, http.MethodPost, base+"/checkout", checkoutRequest{CustomerName: "Ada", Username: "admin", Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[storefront.CheckoutResult](t, rec)
	require.Equal(t, 1, result.Created)
	require.Equal(t, "Created 1 order(s)! Track them below.", result.Message)
	require.True(t, result.Cart.Empty)
	require.NotNil(t, result.Tracking)
	require.Equal(t, "Pending", result.Tracking.Status)

	rec = h.do(t, http.MethodGet, base+"/recent-orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"productName":"Lamp"`)
}

func TestStorefrontCheckoutFailureIsProblem(t *testing.T) {
	h := newHarness(t)
	sid := h.openStorefront(t)
	base := "/api/storefront/sessions/" + sid

	rec := h.do(t, http.MethodPost, base+"/checkout", checkoutRequest{CustomerName: "Ada", Username: "admin", Password: "secret"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	problem := decode[apierrors.ProblemDetail](t, rec)
	require.Equal(t, "Add items to your cart before checking out.", problem.Detail)

	h.do(t, http.MethodPost, base+"/cart/items", addItemRequest{ProductID: "p1"})
	rec = h.do(t, http.MethodPost, base+"/checkout", checkoutRequest{CustomerName: "Ada", Username: "admin", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	problem = decode[apierrors.ProblemDetail](t, rec)
	require.Equal(t, "Authentication failed. Check the username and password and try again.", problem.Detail)
	require.EqualValues(t, 0, problem.Extensions["created"])

	rec = h.do(t, http.MethodGet, base+"/cart", nil)
	require.False(t, decode[storefront.CartView](t, rec).Empty)
}

func TestStorefrontUnknownSessionAndProduct(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/storefront/sessions/nope/cart", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	sid := h.openStorefront(t)
	rec = h.do(t, http.MethodPost, "/api/storefront/sessions/"+sid+"/cart/items", addItemRequest{ProductID: "ghost"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/storefront/sessions/"+sid, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 0, h.server.storefronts.Len())
}

func TestTrackRejectsNonNumericID(t *testing.T) {
	h := newHarness(t)
	sid := h.openStorefront(t)
	rec := h.do(t, http.MethodGet, "/api/storefront/sessions/"+sid+"/track/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Please enter a numeric order ID (e.g., 42).", decode[apierrors.ProblemDetail](t, rec).Detail)
}

func openAdmin(t *testing.T, h *harness) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/admin/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[map[string]string](t, rec)["id"]
}

func TestAdminOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	base := "/api/admin/sessions/" + openAdmin(t, h)
	auth := basicAuth("admin", "secret")

	rec := h.do(t, http.MethodPost, base+"/orders", ordersdomain.Form{
		CustomerName: "Ada", ProductName: "Lamp", Quantity: "2", Price: "19.99", Status: "Pending", OrderDate: "2026-03-01T10:00:00",
	}, auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[admin.OrdersResult](t, rec)
	require.Equal(t, "Order created successfully.", created.Message)
	require.Len(t, created.Orders, 1)
	id := created.Orders[0].ID
	path := base + "/orders/" + jsonID(id)

	rec = h.do(t, http.MethodPatch, path+"/status", statusRequest{Status: "shipped"}, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Order "+jsonID(id)+" updated to Shipped.", decode[admin.OrdersResult](t, rec).Message)

	rec = h.do(t, http.MethodDelete, path, nil, auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotContains(t, h.orders.Calls(), "delete")

	rec = h.do(t, http.MethodDelete, path+"?confirm=true", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[admin.OrdersResult](t, rec).Orders)
}

func TestAdminRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	base := "/api/admin/sessions/" + openAdmin(t, h)

	rec := h.do(t, http.MethodGet, base+"/orders", nil, basicAuth("admin", "nope"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPatch, base+"/orders/x/cancel", nil, basicAuth("admin", "secret"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEditSession(t *testing.T) {
	h := newHarness(t)
	base := "/api/admin/sessions/" + openAdmin(t, h)
	h.orders.Seed(ordersdomain.Order{ID: 7, CustomerName: "Ada", ProductName: "Lamp", Quantity: 1, Price: decimal.NewFromInt(5), Status: ordersdomain.StatusPending, OrderDate: "2026-03-01T10:00:00"})

	rec := h.do(t, http.MethodGet, base+"/edit", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, base+"/orders", nil, basicAuth("admin", "secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, base+"/orders/7/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	edit := decode[admin.EditResult](t, rec)
	require.Equal(t, "Editing order #7", edit.Message)
	require.Equal(t, "Ada", edit.Form.CustomerName)

	form := edit.Form
	form.Quantity = "3"
	rec = h.do(t, http.MethodPut, base+"/edit", form, basicAuth("admin", "secret"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 3, decode[admin.OrdersResult](t, rec).Orders[0].Quantity)

	rec = h.do(t, http.MethodGet, base+"/edit", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCreateProductPublishesChange(t *testing.T) {
	h := newHarness(t)
	base := "/api/admin/sessions/" + openAdmin(t, h)

	rec := h.do(t, http.MethodPost, base+"/products", catalogdomain.ProductForm{Name: "Desk", Description: "Oak", Price: "120"}, basicAuth("admin", "secret"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Product created successfully.", decode[admin.ProductsResult](t, rec).Message)
	require.Equal(t, 1, h.notifier.published)

	rec = h.do(t, http.MethodPost, base+"/products", catalogdomain.ProductForm{Name: "", Price: "1"}, basicAuth("admin", "secret"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 1, h.notifier.published)
}

func TestAdminFocusRefetchesProducts(t *testing.T) {
	h := newHarness(t)
	base := "/api/admin/sessions/" + openAdmin(t, h)

	rec := h.do(t, http.MethodPost, base+"/focus", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[admin.ProductsResult](t, rec)
	require.Equal(t, "Loaded 1 product(s).", result.Message)
	require.Len(t, result.Products, 1)

	rec = h.do(t, http.MethodPost, "/api/admin/sessions/missing/focus", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIdlePagesArePurged(t *testing.T) {
	h := newHarness(t)
	sid := h.openStorefront(t)
	aid := openAdmin(t, h)
	require.Equal(t, int32(2), h.feed.active.Load())

	require.Zero(t, h.server.purgeIdle(context.Background(), time.Now().Add(-time.Minute)))
	require.Equal(t, 2, h.server.purgeIdle(context.Background(), time.Now().Add(time.Minute)))
	require.Zero(t, h.feed.active.Load())

	rec := h.do(t, http.MethodGet, "/api/storefront/sessions/"+sid+"/catalog", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/admin/sessions/"+aid+"/products", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurgeIdleLoopStopsWithContext(t *testing.T) {
	h := newHarness(t)
	h.openStorefront(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.server.PurgeIdle(ctx, time.Millisecond, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return h.server.storefronts.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not stop")
	}
}

func TestAuthNotices(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/auth/login-notice?logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"You have been signed out successfully.","success":true}`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/auth/login-notice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/auth/register-notice?error&message=Email+taken", nil)
	require.JSONEq(t, `{"message":"Email taken","success":false}`, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/auth/register/check", registrationCheck{Password: "a", Confirmation: "b"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Passwords do not match.", decode[apierrors.ProblemDetail](t, rec).Detail)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/nothing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestStorefrontEventsStream(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.router)
	defer srv.Close()
	sid := h.openStorefront(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/storefront/sessions/" + sid + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered after the upgrade; retry until the event arrives.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	received := make(chan pages.Event, 1)
	go func() {
		for {
			var event pages.Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			if event.Type == pages.EventCart {
				received <- event
				return
			}
		}
	}()
	require.Eventually(t, func() bool {
		h.do(t, http.MethodPost, "/api/storefront/sessions/"+sid+"/cart/items", addItemRequest{ProductID: "p1"})
		select {
		case <-received:
			return true
		default:
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://shop.example"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.True(t, check(req))
	req.Header.Set("Origin", "https://shop.example")
	require.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	require.False(t, check(req))

	sameHost := originChecker(nil)
	req = httptest.NewRequest(http.MethodGet, "http://console.local/", nil)
	req.Header.Set("Origin", "http://console.local")
	require.True(t, sameHost(req))
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestProblemBaseURIPrefixesType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opts := Options{ProblemBaseURI: "https://console.example"}
	server := NewServer(opts)
	defer server.Close()
	router := NewRouter(server, opts)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/storefront/sessions/missing/cart", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	require.Equal(t, "https://console.example/problems/not-found", problem.Type)
	require.Equal(t, "/api/storefront/sessions/missing/cart", problem.Instance)
}
