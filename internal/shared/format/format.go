// Package format renders prices and timestamps for the page surfaces.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown wherever a value is missing.
const Placeholder = "—"

const (
	orderDateLayout = "2006-01-02T15:04"
	deliveryLayout  = "01/02/2006 15:04"
	tableLayout     = "2006-01-02 15:04"
)

// localLayouts are the zone-less shapes the order service emits for LocalDateTime values.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency renders an amount as US dollars, e.g. $1,234.50.
func Currency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "$" + printer.Sprintf("%.2f", rounded.InexactFloat64())
}

// OrderDate renders the local timestamp attached to orders created from the storefront.
func OrderDate(t time.Time) string {
	return t.Format(orderDateLayout)
}

// Delivery describes the estimated delivery of a tracked order. Terminal statuses
// replace the estimate; a timestamp that cannot be parsed is shown verbatim. The
// estimate keeps the date and time written in the timestamp, whatever its zone.
func Delivery(iso, status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "delivered":
		return "Delivery successful."
	case "cancelled", "canceled":
		return "Delivery was cancelled."
	}
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return Placeholder
	}
	t, ok := parseWallClock(iso)
	if !ok {
		return iso
	}
	return t.Format(deliveryLayout)
}

// Timestamp renders a server timestamp for the admin tables.
func Timestamp(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return Placeholder
	}
	t, ok := parse(iso)
	if !ok {
		return iso
	}
	return t.Format(tableLayout)
}

// parse reads a server timestamp and moves zoned values to local time.
func parse(value string) (time.Time, bool) {
	t, ok := parseWallClock(value)
	if !ok {
		return time.Time{}, false
	}
	return t.Local(), true
}

// parseWallClock reads a server timestamp without changing its zone.
func parseWallClock(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
