package pages

import "github.com/Apurer/go-order-console/internal/catalogsync"

// CatalogFeed delivers catalog changes made elsewhere.
type CatalogFeed interface {
	OnCatalogChanged(handler catalogsync.Handler) (unsubscribe func())
}
