//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-service"
	ConsumerName = "order-console"

	StateOrdersBaseline = "orders exist for admin"
	StateOrderShipped   = "order with id 301 is shipped"
	StateOrderExists    = "order with id 301 exists"
	StateOrderMissing   = "no order with id 999"
	StateCatalog        = "products exist"
)

const (
	ExistingOrderID int64 = 301
	MissingOrderID  int64 = 999

	AdminUsername = "pact-admin"
	AdminPassword = "pact-pass"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the console consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderPayload is the order the provider returns in every order interaction.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"id":           ExistingOrderID,
		"customerName": "Ada Lovelace",
		"productName":  "Desk Lamp",
		"quantity":     2,
		"price":        39.98,
		"status":       "Pending",
		"orderDate":    "2024-06-12T10:00",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
