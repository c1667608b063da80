package report

import (
	"context"

	"github.com/Checker-Finance/connect-reports/internal/connect"
)

// fakeAPI implements connect.API from in-memory fixtures and records the
// queries it receives.
type fakeAPI struct {
	assets   []connect.Asset
	listings map[string]*connect.Listing          // marketplace id → listing
	versions map[string]*connect.PriceListVersion // pricelist id → version
	points   map[string][]connect.PricePoint      // version id → points

	assetFilters  []connect.Filter
	listingCalls  int
	versionCalls  int
	pointsCalls   int
	queryAssetErr error
}

func (f *fakeAPI) QueryAssets(_ context.Context, filters []connect.Filter) (connect.AssetCursor, error) {
	f.assetFilters = filters
	if f.queryAssetErr != nil {
		return nil, f.queryAssetErr
	}
	return &fakeCursor{assets: f.assets}, nil
}

func (f *fakeAPI) FirstListing(_ context.Context, filters []connect.Filter) (*connect.Listing, error) {
	f.listingCalls++
	return f.listings[filterValue(filters, "marketplace.id")], nil
}

func (f *fakeAPI) FirstPriceListVersion(_ context.Context, filters []connect.Filter) (*connect.PriceListVersion, error) {
	f.versionCalls++
	return f.versions[filterValue(filters, "pricelist.id")], nil
}

func (f *fakeAPI) PricePoints(_ context.Context, versionID string) ([]connect.PricePoint, error) {
	f.pointsCalls++
	return f.points[versionID], nil
}

func filterValue(filters []connect.Filter, field string) string {
	for _, f := range filters {
		if f.Field == field && len(f.Values) > 0 {
			return f.Values[0]
		}
	}
	return ""
}

type fakeCursor struct {
	assets  []connect.Asset
	idx     int
	current *connect.Asset
}

func (c *fakeCursor) Total() int { return len(c.assets) }

func (c *fakeCursor) Next(context.Context) bool {
	if c.idx >= len(c.assets) {
		return false
	}
	c.current = &c.assets[c.idx]
	c.idx++
	return true
}

func (c *fakeCursor) Asset() *connect.Asset { return c.current }

func (c *fakeCursor) Err() error { return nil }

// pricedMarketplace wires a marketplace with one active pricelist version and
// the given points into the fake.
func (f *fakeAPI) pricedMarketplace(marketplaceID, currency string, points []connect.PricePoint) {
	if f.listings == nil {
		f.listings = make(map[string]*connect.Listing)
		f.versions = make(map[string]*connect.PriceListVersion)
		f.points = make(map[string][]connect.PricePoint)
	}
	plID := "PL-" + marketplaceID
	plvID := "PLV-" + marketplaceID
	f.listings[marketplaceID] = &connect.Listing{
		ID:        "LST-" + marketplaceID,
		Status:    "listed",
		PriceList: &connect.ListingPriceList{ID: plID, Status: "active"},
	}
	f.versions[plID] = &connect.PriceListVersion{
		ID:        plvID,
		Status:    "active",
		PriceList: connect.VersionPriceList{ID: plID, Currency: currency},
	}
	f.points[plvID] = points
}
