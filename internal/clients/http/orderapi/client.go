// Package orderapi talks to the remote order/product service. It is the only
// package in the module that performs network I/O against that service.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

const (
	msgAuthFailed        = "Authentication failed. Check the username and password."
	msgLoadOrders        = "Failed to load orders (%d)."
	msgCreateOrder       = "Failed to create order (%d)."
	msgUpdateOrder       = "Failed to update order (%d)."
	msgUpdateStatus      = "Failed to update order %d (%d)."
	msgCancelConflict    = "Order %d can no longer be cancelled."
	msgCancelForbidden   = "You do not have permission to cancel this order."
	msgOrderNotFound     = "Order %d was not found."
	msgCancelOrder       = "Failed to cancel order %d (%d)."
	msgDeleteOrder       = "Failed to delete order %d (%d)."
	msgLoadProducts      = "Unable to load products (%d)."
	msgProductsForbidden = "Only administrators can add new products."
	msgCreateProduct     = "Failed to create product (%d)."
	msgTrackNotFound     = "We could not find an order with that ID."
	msgTrackBadID        = "Order IDs must be numeric."
	msgTrackUnavailable  = "Unable to fetch order status right now. Please try again later."
)

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn mutates an outgoing request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// WithBasicAuth attaches an `Authorization: Basic …` header.
func WithBasicAuth(username, password string) RequestEditorFn {
	return func(_ context.Context, req *http.Request) error {
		req.SetBasicAuth(username, password)
		return nil
	}
}

// Client is a typed client for the order/product service.
type Client struct {
	server string
	doer   HttpRequestDoer
}

// NewClient instantiates the client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("order service base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse order service base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{server: baseURL, doer: httpClient}, nil
}

// ListOrders fetches every order visible to the caller.
func (c *Client) ListOrders(ctx context.Context, reqEditors ...RequestEditorFn) ([]Order, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/orders", nil, reqEditors)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, remote(resp.StatusCode, msgAuthFailed)
	}
	if !success(resp.StatusCode) {
		return nil, remote(resp.StatusCode, fmt.Sprintf(msgLoadOrders, resp.StatusCode))
	}
	var orders []Order
	if err := decode(resp, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder creates one order and returns the server's copy.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput, reqEditors ...RequestEditorFn) (Order, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/orders", input, reqEditors)
	if err != nil {
		return Order{}, err
	}
	defer closeBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return Order{}, remote(resp.StatusCode, msgAuthFailed)
	}
	if !success(resp.StatusCode) {
		return Order{}, remote(resp.StatusCode, fmt.Sprintf(msgCreateOrder, resp.StatusCode))
	}
	var order Order
	if err := decode(resp, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrder replaces every editable field of an order.
func (c *Client) UpdateOrder(ctx context.Context, id int64, input OrderInput, reqEditors ...RequestEditorFn) error {
	path, err := orderPath(id, "")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, path, input, reqEditors)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if !success(resp.StatusCode) {
		return remote(resp.StatusCode, fmt.Sprintf(msgUpdateOrder, resp.StatusCode))
	}
	return nil
}

// UpdateOrderStatus writes any status; transitions are not checked client-side.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string, reqEditors ...RequestEditorFn) error {
	path, err := orderPath(id, "/status")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPatch, path, StatusUpdate{Status: status}, reqEditors)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if !success(resp.StatusCode) {
		return remote(resp.StatusCode, fmt.Sprintf(msgUpdateStatus, id, resp.StatusCode))
	}
	return nil
}

// CancelOrder asks the server to cancel an order.
func (c *Client) CancelOrder(ctx context.Context, id int64, reqEditors ...RequestEditorFn) error {
	path, err := orderPath(id, "/cancel")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPatch, path, nil, reqEditors)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	switch status := resp.StatusCode; {
	case success(status):
		return nil
	case status == http.StatusConflict:
		return remote(status, fmt.Sprintf(msgCancelConflict, id))
	case status == http.StatusForbidden:
		return remote(status, msgCancelForbidden)
	case status == http.StatusNotFound:
		return remote(status, fmt.Sprintf(msgOrderNotFound, id))
	default:
		return remote(status, fmt.Sprintf(msgCancelOrder, id, status))
	}
}

// DeleteOrder removes an order. Only 204 No Content counts as success.
func (c *Client) DeleteOrder(ctx context.Context, id int64, reqEditors ...RequestEditorFn) error {
	path, err := orderPath(id, "")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, path, nil, reqEditors)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusNoContent {
		return remote(resp.StatusCode, fmt.Sprintf(msgDeleteOrder, id, resp.StatusCode))
	}
	return nil
}

// ListProducts fetches the public catalog. A body that is not a JSON array yields an empty catalog.
func (c *Client) ListProducts(ctx context.Context, reqEditors ...RequestEditorFn) ([]Product, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/products", nil, reqEditors)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)
	if !success(resp.StatusCode) {
		return nil, remote(resp.StatusCode, fmt.Sprintf(msgLoadProducts, resp.StatusCode))
	}
	var raw json.RawMessage
	if err := decode(resp, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Product{}, nil
	}
	var products []Product
	if err := json.Unmarshal(trimmed, &products); err != nil {
		return nil, fmt.Errorf("%w: %w", apierrors.ErrDecode, err)
	}
	return products, nil
}

// CreateProduct adds a catalog entry. A JSON `message` in a failed response is surfaced verbatim.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput, reqEditors ...RequestEditorFn) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/products", input, reqEditors)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	switch status := resp.StatusCode; {
	case success(status):
		return nil
	case status == http.StatusUnauthorized:
		return remote(status, msgAuthFailed)
	case status == http.StatusForbidden:
		return remote(status, msgProductsForbidden)
	default:
		return remote(status, errorMessage(safeJSON(resp), fmt.Sprintf(msgCreateProduct, status)))
	}
}

// TrackOrder reads the public tracking view of an order.
func (c *Client) TrackOrder(ctx context.Context, orderID string, reqEditors ...RequestEditorFn) (Tracking, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "orderId", runtime.ParamLocationPath, orderID)
	if err != nil {
		return Tracking{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/track/"+pathParam0, nil, reqEditors)
	if err != nil {
		return Tracking{}, err
	}
	defer closeBody(resp)
	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		return Tracking{}, remote(status, msgTrackNotFound)
	case status == http.StatusBadRequest:
		return Tracking{}, &apierrors.RemoteError{Kind: apierrors.ErrInvalidInput, StatusCode: status, Message: msgTrackBadID}
	case !success(status):
		return Tracking{}, remote(status, msgTrackUnavailable)
	}
	var tracking Tracking
	if err := decode(resp, &tracking); err != nil {
		return Tracking{}, err
	}
	return tracking, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, reqEditors []RequestEditorFn) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build order service request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, edit := range reqEditors {
		if err := edit(ctx, req); err != nil {
			return nil, err
		}
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierrors.ErrGateway, err)
	}
	return resp, nil
}

func orderPath(id int64, suffix string) (string, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return "", err
	}
	return "/api/orders/" + pathParam0 + suffix, nil
}

func success(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func remote(status int, message string) error {
	return &apierrors.RemoteError{Kind: apierrors.KindForStatus(status), StatusCode: status, Message: message}
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrDecode, err)
	}
	return nil
}

// safeJSON decodes an error document, returning nil when the body is not JSON.
func safeJSON(resp *http.Response) *ErrorBody {
	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	return &body
}

func errorMessage(body *ErrorBody, fallback string) string {
	if body == nil || body.Message == nil {
		return fallback
	}
	if msg := strings.TrimSpace(*body.Message); msg != "" {
		return *body.Message
	}
	return fallback
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
