package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/connect"
	"github.com/Checker-Finance/connect-reports/internal/metrics"
)

// Name identifies this report in metrics, events and the run registry.
const Name = "active_assets"

// Headers is the fixed column tuple of the active assets report. When CSV
// rendering is requested the header row is the first item of the stream.
var Headers = []string{
	"assetId", "productId", "providerId", "providerName", "marketplaceId", "marketplaceName",
	"resellerId", "resellerName", "createdAt", "customerId", "customerName", "seamlessMove",
	"discountGroup", "action", "renewalDate", "type", "currency", "cost", "msrp",
	"resellerCost", "seats",
}

// ProductFilter restricts the report to a product allowlist when All is false.
type ProductFilter struct {
	All     bool
	Choices []string
}

// Options are the report inputs.
type Options struct {
	Product      ProductFilter
	RendererType string // "csv" prepends the header row
}

// ProgressFunc is invoked after every emitted item with (current, total).
type ProgressFunc func(current, total int)

// Generator produces active-asset report rows from the Connect API.
type Generator struct {
	api    connect.API
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a report generator backed by the given API.
func NewGenerator(api connect.API, logger *zap.Logger) *Generator {
	return &Generator{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// Generate starts one report run and returns its row stream. The run owns a
// fresh catalog cache; re-invoking Generate re-issues all queries. progress
// may be nil.
func (g *Generator) Generate(ctx context.Context, opts Options, progress ProgressFunc) (*RowStream, error) {
	cursor, err := g.api.QueryAssets(ctx, assetFilters(opts.Product))
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}

	s := &RowStream{
		gen:      g,
		cursor:   cursor,
		catalogs: NewCatalogCache(g.api, g.logger),
		progress: progress,
		total:    cursor.Total(),
	}
	if opts.RendererType == "csv" {
		s.pendingHeader = true
		s.total++
	}
	g.logger.Info("report.run_started",
		zap.String("report", Name),
		zap.Int("assets", cursor.Total()),
		zap.Bool("product_all", opts.Product.All),
		zap.Strings("product_choices", opts.Product.Choices))
	return s, nil
}

// assetFilters builds the asset query: active, production connection, and
// optionally restricted to a product allowlist.
func assetFilters(product ProductFilter) []connect.Filter {
	var filters []connect.Filter
	if !product.All {
		filters = append(filters, connect.In("product.id", product.Choices...))
	}
	filters = append(filters,
		connect.In("status", "active"),
		connect.Eq("connection.type", "production"),
	)
	return filters
}

// RowStream is a lazy, finite, non-restartable sequence of report rows.
// It follows the sql.Rows pull pattern: Next, Row, Err.
type RowStream struct {
	gen      *Generator
	cursor   connect.AssetCursor
	catalogs *CatalogCache
	progress ProgressFunc

	pendingHeader bool
	current       []string
	count         int
	total         int
	err           error
}

// Total reports the number of items the stream will produce, including the
// header row when CSV rendering was requested.
func (s *RowStream) Total() int { return s.total }

// Next advances the stream. It returns false at exhaustion or on the first
// error; there is no partial-row recovery.
func (s *RowStream) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}

	if s.pendingHeader {
		s.pendingHeader = false
		s.current = Headers
		s.advance()
		return true
	}

	if !s.cursor.Next(ctx) {
		s.err = s.cursor.Err()
		return false
	}

	asset := s.cursor.Asset()
	catalog, err := s.catalogs.Get(ctx, asset.Marketplace.ID, asset.Product.ID)
	if err != nil {
		s.err = err
		return false
	}

	row, err := buildRow(asset, catalog, s.gen.now())
	if err != nil {
		s.err = fmt.Errorf("asset %s: %w", asset.ID, err)
		return false
	}

	s.current = row
	metrics.IncReportRows(Name, 1)
	s.advance()
	return true
}

// Row returns the current item. Only valid after a true Next.
func (s *RowStream) Row() []string { return s.current }

// Err returns the error that terminated the stream, if any.
func (s *RowStream) Err() error { return s.err }

// Count reports how many items have been emitted so far.
func (s *RowStream) Count() int { return s.count }

func (s *RowStream) advance() {
	s.count++
	if s.progress != nil {
		s.progress(s.count, s.total)
	}
}
