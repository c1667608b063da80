package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/connect-reports/internal/connect"
)

// Classification is the per-asset financial summary derived from its line
// items and the marketplace catalog.
type Classification struct {
	Type         string
	Currency     string
	Cost         decimal.Decimal
	ResellerCost decimal.Decimal
	MSRP         decimal.Decimal
	Seats        int
}

// Classify derives asset type, currency, cost figures and seat count from the
// asset's line items. With no catalog everything stays at its dash/zero value.
//
// The type classification is deliberately order-dependent: an "Enterprise"
// item promotes "-"→"enterprise" and "team"→"both", while any other item
// (including an Enterprise item seen while the type is already "enterprise"
// or "both") resets the type to "team". This matches the report's historical
// behavior and must not be "fixed" into a commutative variant.
func Classify(items []connect.Item, catalog *Catalog, productID string) Classification {
	c := Classification{
		Type:         "-",
		Currency:     "-",
		Cost:         decimal.Zero,
		ResellerCost: decimal.Zero,
		MSRP:         decimal.Zero,
	}
	if catalog == nil {
		return c
	}

	c.Currency = catalog.Currency
	for _, item := range items {
		enterprise := strings.Contains(item.DisplayName, "Enterprise")
		switch {
		case enterprise && c.Type == "-":
			c.Type = "enterprise"
		case enterprise && c.Type == "team":
			c.Type = "both"
		default:
			c.Type = "team"
		}

		qty := int(item.Quantity)
		if qty <= 0 {
			continue
		}
		c.Seats += qty
		if pp, ok := catalog.Lookup(productID, item.GlobalID); ok {
			q := decimal.NewFromInt(int64(qty))
			c.Cost = c.Cost.Add(pp.Cost.Mul(q))
			c.MSRP = c.MSRP.Add(pp.MSRP.Mul(q))
			c.ResellerCost = c.ResellerCost.Add(pp.ResellerCost.Mul(q))
		}
	}
	return c
}
