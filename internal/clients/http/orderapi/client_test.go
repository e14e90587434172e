package orderapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// fakeOrderService serves canned responses and records what it received.
type fakeOrderService struct {
	t        *testing.T
	server   *httptest.Server
	requests []recordedRequest
	status   int
	body     string
}

func newFakeOrderService(t *testing.T) *fakeOrderService {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeOrderService{t: t, status: http.StatusOK}
	router := gin.New()
	router.NoRoute(func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		f.requests = append(f.requests, recordedRequest{
			Method: c.Request.Method,
			Path:   c.Request.URL.EscapedPath(),
			Auth:   c.GetHeader("Authorization"),
			Body:   string(raw),
		})
		c.Data(f.status, "application/json", []byte(f.body))
	})
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOrderService) respond(status int, body string) {
	f.status = status
	f.body = body
}

func (f *fakeOrderService) client() *Client {
	client, err := NewClient(f.server.URL+"/", f.server.Client())
	require.NoError(f.t, err)
	return client
}

func (f *fakeOrderService) last() recordedRequest {
	require.NotEmpty(f.t, f.requests)
	return f.requests[len(f.requests)-1]
}

func requireRemote(t *testing.T, err error, kind error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	var remoteErr *apierrors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.ErrorIs(t, err, kind)
	require.Equal(t, status, remoteErr.StatusCode)
	require.Equal(t, message, remoteErr.Message)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	require.Error(t, err)

	client, err := NewClient("http://orders.local/", nil)
	require.NoError(t, err)
	require.Equal(t, "http://orders.local", client.server)
}

func TestListOrders_SendsBasicAuthAndDecodes(t *testing.T) {
	svc := newFakeOrderService(t)
	svc.respond(http.StatusOK, `[{"id":7,"customerName":"Ada","createdBy":"ada","productName":"Lamp","quantity":2,"price":20.5,"status":"Pending","orderDate":"2024-05-01T10:00:00"}]`)

	orders, err := svc.client().ListOrders(context.Background(), WithBasicAuth("admin", "secret"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(7), orders[0].ID)
	require.Equal(t, "ada", *orders[0].CreatedBy)
	require.True(t, decimal.RequireFromString("20.5").Equal(orders[0].Price))

	req := svc.last()
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/api/orders", req.Path)
	require.Equal(t, "Basic YWRtaW46c2VjcmV0", req.Auth)
}

func TestListOrders_StatusMapping(t *testing.T) {
	svc := newFakeOrderService(t)

	svc.respond(http.StatusUnauthorized, "")
	_, err := svc.client().ListOrders(context.Background())
	requireRemote(t, err, apierrors.ErrUnauthorized, 401, "Authentication failed. Check the username and password.")

	svc.respond(http.StatusInternalServerError, "")
	_, err = svc.client().ListOrders(context.Background())
	requireRemote(t, err, apierrors.ErrGateway, 500, "Failed to load orders (500).")

	svc.respond(http.StatusOK, "not json")
	_, err = svc.client().ListOrders(context.Background())
	require.ErrorIs(t, err, apierrors.ErrDecode)
}

func TestCreateOrder_SendsTwoDecimalPrice(t *testing.T) {
	svc := newFakeOrderService(t)
	svc.respond(http.StatusCreated, `{"id":11,"customerName":"Ada","productName":"Lamp","quantity":2,"price":20.00,"status":"Pending","orderDate":"2024-05-01T10:00"}`)

	order, err := svc.client().CreateOrder(context.Background(), OrderInput{
		CustomerName: "Ada",
		ProductName:  "Lamp",
		Quantity:     2,
		Price:        Money(decimal.RequireFromString("10").Mul(decimal.NewFromInt(2))),
		Status:       "Pending",
		OrderDate:    "2024-05-01T10:00",
	}, WithBasicAuth("ada", "pw"))
	require.NoError(t, err)
	require.Equal(t, int64(11), order.ID)

	req := svc.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Contains(t, req.Body, `"price":20.00`)
	require.Contains(t, req.Body, `"quantity":2`)
	require.NotContains(t, req.Body, "createdBy")

	svc.respond(http.StatusBadRequest, "")
	_, err = svc.client().CreateOrder(context.Background(), OrderInput{})
	requireRemote(t, err, apierrors.ErrGateway, 400, "Failed to create order (400).")
}

func TestCreateOrder_UnreadableBodies(t *testing.T) {
	svc := newFakeOrderService(t)

	svc.respond(http.StatusCreated, "<html>created</html>")
	_, err := svc.client().CreateOrder(context.Background(), OrderInput{CustomerName: "Ada"})
	require.ErrorIs(t, err, apierrors.ErrDecode)

	svc.respond(http.StatusBadGateway, "<html>bad gateway</html>")
	_, err = svc.client().CreateOrder(context.Background(), OrderInput{CustomerName: "Ada"})
	requireRemote(t, err, apierrors.ErrGateway, 502, "Failed to create order (502).")
	require.NotErrorIs(t, err, apierrors.ErrDecode)
}

func TestUpdateOrderAndStatus(t *testing.T) {
	svc := newFakeOrderService(t)
	svc.respond(http.StatusOK, "")

	require.NoError(t, svc.client().UpdateOrder(context.Background(), 3, OrderInput{CustomerName: "Bo"}))
	require.Equal(t, "/api/orders/3", svc.last().Path)
	require.Equal(t, http.MethodPut, svc.last().Method)

	require.NoError(t, svc.client().UpdateOrderStatus(context.Background(), 3, "Shipped"))
	require.Equal(t, "/api/orders/3/status", svc.last().Path)
	require.JSONEq(t, `{"status":"Shipped"}`, svc.last().Body)

	svc.respond(http.StatusBadGateway, "")
	err := svc.client().UpdateOrderStatus(context.Background(), 3, "Shipped")
	requireRemote(t, err, apierrors.ErrGateway, 502, "Failed to update order 3 (502).")
	err = svc.client().UpdateOrder(context.Background(), 3, OrderInput{})
	requireRemote(t, err, apierrors.ErrGateway, 502, "Failed to update order (502).")
}

func TestCancelOrder_DistinctFailures(t *testing.T) {
	svc := newFakeOrderService(t)
	cases := []struct {
		status  int
		kind    error
		message string
	}{
		{http.StatusConflict, apierrors.ErrConflict, "Order 9 can no longer be cancelled."},
		{http.StatusForbidden, apierrors.ErrForbidden, "You do not have permission to cancel this order."},
		{http.StatusNotFound, apierrors.ErrNotFound, "Order 9 was not found."},
		{http.StatusInternalServerError, apierrors.ErrGateway, "Failed to cancel order 9 (500)."},
	}
	for _, tc := range cases {
		svc.respond(tc.status, "")
		err := svc.client().CancelOrder(context.Background(), 9)
		requireRemote(t, err, tc.kind, tc.status, tc.message)
		for _, other := range []error{apierrors.ErrConflict, apierrors.ErrForbidden, apierrors.ErrNotFound} {
			if other != tc.kind {
				assert.NotErrorIs(t, err, other)
			}
		}
	}

	svc.respond(http.StatusOK, "")
	require.NoError(t, svc.client().CancelOrder(context.Background(), 9))
	require.Equal(t, "/api/orders/9/cancel", svc.last().Path)
	require.Equal(t, http.MethodPatch, svc.last().Method)
}

func TestDeleteOrder_OnlyNoContentSucceeds(t *testing.T) {
	svc := newFakeOrderService(t)

	svc.respond(http.StatusNoContent, "")
	require.NoError(t, svc.client().DeleteOrder(context.Background(), 4))
	require.Equal(t, http.MethodDelete, svc.last().Method)

	svc.respond(http.StatusOK, "")
	err := svc.client().DeleteOrder(context.Background(), 4)
	requireRemote(t, err, apierrors.ErrGateway, 200, "Failed to delete order 4 (200).")
}

func TestListProducts(t *testing.T) {
	svc := newFakeOrderService(t)
	svc.respond(http.StatusOK, `[{"id":1,"name":"Lamp","price":"12.50"},{"id":"sku-2","description":"Desk"},{"name":"No id","price":null}]`)

	products, err := svc.client().ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, ProductID("1"), products[0].ID)
	require.True(t, products[0].Price.Valid)
	require.Equal(t, "12.5", products[0].Price.Decimal.String())
	require.Equal(t, ProductID("sku-2"), products[1].ID)
	require.False(t, products[1].Price.Valid)
	require.Equal(t, ProductID(""), products[2].ID)
	require.Empty(t, svc.last().Auth)

	svc.respond(http.StatusOK, `{"items":[]}`)
	products, err = svc.client().ListProducts(context.Background())
	require.NoError(t, err)
	require.Empty(t, products)

	svc.respond(http.StatusServiceUnavailable, "")
	_, err = svc.client().ListProducts(context.Background())
	requireRemote(t, err, apierrors.ErrGateway, 503, "Unable to load products (503).")
}

func TestCreateProduct_Failures(t *testing.T) {
	svc := newFakeOrderService(t)
	input := ProductInput{Name: "Lamp", Description: "Warm light", Price: Money(decimal.RequireFromString("12.5"))}

	svc.respond(http.StatusCreated, `{"id":5}`)
	require.NoError(t, svc.client().CreateProduct(context.Background(), input, WithBasicAuth("admin", "pw")))
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(svc.last().Body), &sent))
	require.Equal(t, "Lamp", sent["name"])
	require.Contains(t, svc.last().Body, `"price":12.50`)

	svc.respond(http.StatusUnauthorized, "")
	requireRemote(t, svc.client().CreateProduct(context.Background(), input), apierrors.ErrUnauthorized, 401,
		"Authentication failed. Check the username and password.")

	svc.respond(http.StatusForbidden, "")
	requireRemote(t, svc.client().CreateProduct(context.Background(), input), apierrors.ErrForbidden, 403,
		"Only administrators can add new products.")

	svc.respond(http.StatusBadRequest, `{"message":"Product name already exists"}`)
	requireRemote(t, svc.client().CreateProduct(context.Background(), input), apierrors.ErrGateway, 400,
		"Product name already exists")

	svc.respond(http.StatusInternalServerError, "<html>oops</html>")
	requireRemote(t, svc.client().CreateProduct(context.Background(), input), apierrors.ErrGateway, 500,
		"Failed to create product (500).")
}

func TestTrackOrder(t *testing.T) {
	svc := newFakeOrderService(t)

	svc.respond(http.StatusOK, `{"orderId":"42","customerName":"Ada","status":"Shipped","estimatedDelivery":"2024-05-06T10:00:00"}`)
	tracking, err := svc.client().TrackOrder(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "42", tracking.OrderID)
	require.Equal(t, "/track/42", svc.last().Path)

	svc.respond(http.StatusNotFound, "")
	_, err = svc.client().TrackOrder(context.Background(), "42")
	requireRemote(t, err, apierrors.ErrNotFound, 404, "We could not find an order with that ID.")

	svc.respond(http.StatusBadRequest, "")
	_, err = svc.client().TrackOrder(context.Background(), "a b")
	requireRemote(t, err, apierrors.ErrInvalidInput, 400, "Order IDs must be numeric.")
	require.Equal(t, "/track/a%20b", svc.last().Path)

	svc.respond(http.StatusInternalServerError, "")
	_, err = svc.client().TrackOrder(context.Background(), "42")
	requireRemote(t, err, apierrors.ErrGateway, 500, "Unable to fetch order status right now. Please try again later.")
}

func TestTransportFailureIsGatewayError(t *testing.T) {
	svc := newFakeOrderService(t)
	client := svc.client()
	svc.server.Close()

	_, err := client.ListOrders(context.Background())
	require.ErrorIs(t, err, apierrors.ErrGateway)
}
