package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/connect"
)

func TestBuildCatalog(t *testing.T) {
	api := &fakeAPI{}
	api.pricedMarketplace("MP-1", "EUR", []connect.PricePoint{
		{ID: "PRP-1", Attributes: connect.Attributes{"price": "10.50", "st0p": "8.00", "st1p": "12.00"}},
		{ID: "PRP-2", Attributes: connect.Attributes{"price": "0", "st0p": "1.00", "st1p": "1.00"}},
		{ID: "PRP-3", Attributes: connect.Attributes{"price": "4.25", "st1p": "5.00"}},
	})

	catalog, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "EUR", catalog.Currency)

	pp, ok := catalog.Lookup("PRD-1", "PRP-1")
	require.True(t, ok)
	assert.Equal(t, "10.50", pp.Cost.StringFixed(2))
	assert.Equal(t, "12.00", pp.MSRP.StringFixed(2))
	assert.Equal(t, "8.00", pp.ResellerCost.StringFixed(2))

	// Zero-price points are excluded by construction
	_, ok = catalog.Lookup("PRD-1", "PRP-2")
	assert.False(t, ok)

	// st0p is optional and defaults to zero
	pp, ok = catalog.Lookup("PRD-1", "PRP-3")
	require.True(t, ok)
	assert.True(t, pp.ResellerCost.IsZero())
}

func TestBuildCatalog_MissingMSRPFatal(t *testing.T) {
	api := &fakeAPI{}
	api.pricedMarketplace("MP-1", "EUR", []connect.PricePoint{
		{ID: "PRP-1", Attributes: connect.Attributes{"price": "10.50"}},
	})

	_, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.ErrorIs(t, err, ErrMissingMSRP)
}

func TestBuildCatalog_ZeroPriceSkipsMSRPCheck(t *testing.T) {
	// A zero-price point without st1p must not fail the build; it is
	// excluded before the MSRP requirement applies.
	api := &fakeAPI{}
	api.pricedMarketplace("MP-1", "EUR", []connect.PricePoint{
		{ID: "PRP-1", Attributes: connect.Attributes{"price": "0"}},
	})

	catalog, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.NoError(t, err)
	require.NotNil(t, catalog)
	_, ok := catalog.Lookup("PRD-1", "PRP-1")
	assert.False(t, ok)
}

func TestBuildCatalog_NoListing(t *testing.T) {
	api := &fakeAPI{}

	catalog, err := BuildCatalog(context.Background(), api, "MP-404", "PRD-1")
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestBuildCatalog_InactivePriceList(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]*connect.Listing{
			"MP-1": {
				ID:        "LST-1",
				Status:    "listed",
				PriceList: &connect.ListingPriceList{ID: "PL-1", Status: "draft"},
			},
		},
	}

	catalog, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestBuildCatalog_ListingWithoutPriceList(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]*connect.Listing{
			"MP-1": {ID: "LST-1", Status: "listed"},
		},
	}

	catalog, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestBuildCatalog_NoActiveVersion(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]*connect.Listing{
			"MP-1": {
				ID:        "LST-1",
				Status:    "listed",
				PriceList: &connect.ListingPriceList{ID: "PL-1", Status: "active"},
			},
		},
		versions: map[string]*connect.PriceListVersion{},
	}

	_, err := BuildCatalog(context.Background(), api, "MP-1", "PRD-1")
	require.Error(t, err)
}

func TestCatalogCache_Memoizes(t *testing.T) {
	api := &fakeAPI{}
	api.pricedMarketplace("MP-1", "USD", nil)

	cache := NewCatalogCache(api, zap.NewNop())

	first, err := cache.Get(context.Background(), "MP-1", "PRD-1")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "MP-1", "PRD-1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, api.listingCalls, "catalog must be built at most once per marketplace")
}

func TestCatalogCache_MemoizesAbsent(t *testing.T) {
	api := &fakeAPI{}
	cache := NewCatalogCache(api, zap.NewNop())

	catalog, err := cache.Get(context.Background(), "MP-404", "PRD-1")
	require.NoError(t, err)
	assert.Nil(t, catalog)

	_, err = cache.Get(context.Background(), "MP-404", "PRD-1")
	require.NoError(t, err)
	assert.Equal(t, 1, api.listingCalls, "the absent case is memoized too")
}
