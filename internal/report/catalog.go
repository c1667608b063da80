package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/connect"
)

// ErrMissingMSRP signals a price point carrying a non-zero price but no st1p
// (MSRP) attribute. The catalog is unusable without it.
var ErrMissingMSRP = errors.New("price point has no st1p attribute")

// PricePointCost holds the unit prices of one price list point.
type PricePointCost struct {
	Cost         decimal.Decimal
	ResellerCost decimal.Decimal
	MSRP         decimal.Decimal
}

// Catalog is the in-memory price lookup for one marketplace+product pair.
// It is built once, never mutated afterwards, and discarded at run end.
// A nil *Catalog means the marketplace has no active listed price list.
type Catalog struct {
	Currency string
	points   map[string]map[string]PricePointCost // product id → point global id
}

// Lookup returns the unit prices for a product's line item identifier.
func (c *Catalog) Lookup(productID, globalID string) (PricePointCost, bool) {
	byPoint, ok := c.points[productID]
	if !ok {
		return PricePointCost{}, false
	}
	pp, ok := byPoint[globalID]
	return pp, ok
}

// BuildCatalog resolves the active price list for (marketplace, product) and
// indexes its non-zero price points. It returns (nil, nil) when the
// marketplace has no listed listing or its price list is not active.
func BuildCatalog(ctx context.Context, api connect.API, marketplaceID, productID string) (*Catalog, error) {
	listing, err := api.FirstListing(ctx, []connect.Filter{
		connect.Eq("marketplace.id", marketplaceID),
		connect.Eq("product.id", productID),
		connect.Eq("status", "listed"),
	})
	if err != nil {
		return nil, fmt.Errorf("query listing for %s/%s: %w", marketplaceID, productID, err)
	}
	if listing == nil || listing.PriceList == nil || listing.PriceList.Status != "active" {
		// Listing has no pricelist or it is not active
		return nil, nil
	}

	version, err := api.FirstPriceListVersion(ctx, []connect.Filter{
		connect.Eq("pricelist.id", listing.PriceList.ID),
		connect.Eq("status", "active"),
	})
	if err != nil {
		return nil, fmt.Errorf("query version for pricelist %s: %w", listing.PriceList.ID, err)
	}
	if version == nil {
		return nil, fmt.Errorf("pricelist %s has no active version", listing.PriceList.ID)
	}

	points, err := api.PricePoints(ctx, version.ID)
	if err != nil {
		return nil, fmt.Errorf("query points for version %s: %w", version.ID, err)
	}

	catalog := &Catalog{
		Currency: version.PriceList.Currency,
		points:   make(map[string]map[string]PricePointCost),
	}
	for _, point := range points {
		price, err := decimal.NewFromString(point.Attributes["price"])
		if err != nil {
			return nil, fmt.Errorf("price point %s: bad price %q: %w", point.ID, point.Attributes["price"], err)
		}
		if price.IsZero() {
			// Zero price means "not applicable", not "free"
			continue
		}

		msrpRaw, ok := point.Attributes["st1p"]
		if !ok {
			return nil, fmt.Errorf("price point %s: %w", point.ID, ErrMissingMSRP)
		}
		msrp, err := decimal.NewFromString(msrpRaw)
		if err != nil {
			return nil, fmt.Errorf("price point %s: bad st1p %q: %w", point.ID, msrpRaw, err)
		}

		resellerCost := decimal.Zero
		if raw, ok := point.Attributes["st0p"]; ok {
			resellerCost, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("price point %s: bad st0p %q: %w", point.ID, raw, err)
			}
		}

		if catalog.points[productID] == nil {
			catalog.points[productID] = make(map[string]PricePointCost)
		}
		catalog.points[productID][point.ID] = PricePointCost{
			Cost:         price,
			ResellerCost: resellerCost,
			MSRP:         msrp,
		}
	}
	return catalog, nil
}

// CatalogCache memoizes catalogs per marketplace for the lifetime of a single
// report run, including the absent (nil) case. It is owned by one run and is
// not safe for concurrent use; the run is single-threaded by design.
type CatalogCache struct {
	api     connect.API
	logger  *zap.Logger
	entries map[string]*Catalog
}

// NewCatalogCache creates an empty per-run catalog cache.
func NewCatalogCache(api connect.API, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		api:     api,
		logger:  logger,
		entries: make(map[string]*Catalog),
	}
}

// Get returns the marketplace's catalog, building it on first access.
func (cc *CatalogCache) Get(ctx context.Context, marketplaceID, productID string) (*Catalog, error) {
	if catalog, ok := cc.entries[marketplaceID]; ok {
		return catalog, nil
	}
	catalog, err := BuildCatalog(ctx, cc.api, marketplaceID, productID)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		cc.logger.Info("report.catalog_absent",
			zap.String("marketplace", marketplaceID),
			zap.String("product", productID))
	} else {
		cc.logger.Debug("report.catalog_built",
			zap.String("marketplace", marketplaceID),
			zap.String("currency", catalog.Currency))
	}
	cc.entries[marketplaceID] = catalog
	return catalog, nil
}
