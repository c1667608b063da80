package connect

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/httpclient"
	"github.com/Checker-Finance/connect-reports/internal/metrics"
	"github.com/Checker-Finance/connect-reports/internal/rate"
)

// API is the slice of the Connect platform the report generator consumes.
// Implemented by Client; faked in tests.
type API interface {
	// QueryAssets returns a lazily paginated cursor over matching assets.
	QueryAssets(ctx context.Context, filters []Filter) (AssetCursor, error)
	// FirstListing returns the first matching listing, or nil when none match.
	FirstListing(ctx context.Context, filters []Filter) (*Listing, error)
	// FirstPriceListVersion returns the first matching price list version,
	// or nil when none match.
	FirstPriceListVersion(ctx context.Context, filters []Filter) (*PriceListVersion, error)
	// PricePoints returns every price point of a price list version.
	PricePoints(ctx context.Context, versionID string) ([]PricePoint, error)
}

// AssetCursor is a pull-based iterator over an asset collection.
type AssetCursor interface {
	// Total reports the collection size known at query time.
	Total() int
	// Next advances to the next asset, fetching further pages as needed.
	Next(ctx context.Context) bool
	// Asset returns the current asset. Only valid after a true Next.
	Asset() *Asset
	// Err returns the first error encountered while iterating.
	Err() error
}

const defaultPageSize = 100

// Client wraps low-level HTTP communication with the Connect public API.
// It handles token authorization, rate limiting, retries and pagination.
type Client struct {
	logger   *zap.Logger
	baseURL  string
	token    string
	exec     *httpclient.Executor
	pageSize int
}

// NewClient constructs a new Connect HTTP client instance.
func NewClient(logger *zap.Logger, baseURL, token string, rateMgr *rate.Manager) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, "connect", func(status int, body []byte) error {
		logger.Warn("connect.client_error",
			zap.Int("status", status),
			zap.String("body", string(body)))
		return fmt.Errorf("connect returned %d: %s", status, string(body))
	})
	return &Client{
		logger:   logger,
		baseURL:  baseURL,
		token:    token,
		exec:     exec,
		pageSize: defaultPageSize,
	}
}

// QueryAssets lists assets matching the filters. The first page is fetched
// eagerly so the collection total is known up front; further pages are
// fetched on demand as the cursor advances.
func (c *Client) QueryAssets(ctx context.Context, filters []Filter) (AssetCursor, error) {
	cur := &assetCursor{client: c, query: EncodeRQL(filters)}
	if err := cur.fetchPage(ctx); err != nil {
		return nil, err
	}
	return cur, nil
}

// FirstListing returns the first listing matching the filters, or nil.
func (c *Client) FirstListing(ctx context.Context, filters []Filter) (*Listing, error) {
	var page []Listing
	path := fmt.Sprintf("/listings?%s&limit=1&offset=0", EncodeRQL(filters))
	if _, err := c.getJSON(ctx, "listings", path, &page); err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}
	return &page[0], nil
}

// FirstPriceListVersion returns the first price list version matching the
// filters, or nil.
func (c *Client) FirstPriceListVersion(ctx context.Context, filters []Filter) (*PriceListVersion, error) {
	var page []PriceListVersion
	path := fmt.Sprintf("/pricing/versions?%s&limit=1&offset=0", EncodeRQL(filters))
	if _, err := c.getJSON(ctx, "pricing_versions", path, &page); err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}
	return &page[0], nil
}

// PricePoints retrieves every point of a price list version, paging through
// the collection.
func (c *Client) PricePoints(ctx context.Context, versionID string) ([]PricePoint, error) {
	var points []PricePoint
	offset := 0
	for {
		var page []PricePoint
		path := fmt.Sprintf("/pricing/versions/%s/points?limit=%d&offset=%d", versionID, c.pageSize, offset)
		if _, err := c.getJSON(ctx, "pricing_points", path, &page); err != nil {
			return nil, err
		}
		points = append(points, page...)
		if len(page) < c.pageSize {
			return points, nil
		}
		offset += len(page)
	}
}

// getJSON performs an authenticated GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) (http.Header, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.token)

	start := time.Now()
	hdr, err := c.exec.DoJSON(ctx, req, "connect_api", out)
	metrics.ObserveDuration(metrics.ConnectRequestDuration, start, endpoint)
	if err != nil {
		metrics.IncConnectRequest(endpoint, "error")
		return hdr, err
	}
	metrics.IncConnectRequest(endpoint, "ok")
	return hdr, nil
}

// assetCursor pages through /assets lazily.
type assetCursor struct {
	client  *Client
	query   string
	total   int
	page    []Asset
	idx     int
	offset  int
	done    bool
	current *Asset
	err     error
}

func (c *assetCursor) Total() int { return c.total }

func (c *assetCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	for c.idx >= len(c.page) {
		if c.done {
			return false
		}
		if err := c.fetchPage(ctx); err != nil {
			c.err = err
			return false
		}
		if len(c.page) == 0 {
			return false
		}
	}
	c.current = &c.page[c.idx]
	c.idx++
	return true
}

func (c *assetCursor) Asset() *Asset { return c.current }

func (c *assetCursor) Err() error { return c.err }

func (c *assetCursor) fetchPage(ctx context.Context) error {
	path := fmt.Sprintf("/assets?%s&limit=%d&offset=%d", c.query, c.client.pageSize, c.offset)
	var page []Asset
	hdr, err := c.client.getJSON(ctx, "assets", path, &page)
	if err != nil {
		return err
	}

	first := c.offset == 0
	c.page = page
	c.idx = 0
	c.offset += len(page)

	if total, ok := parseContentRange(hdr.Get("Content-Range")); ok {
		c.total = total
	} else if first {
		// No range header; best effort with what we got.
		c.total = len(page)
	}

	if len(page) < c.client.pageSize || (c.total > 0 && c.offset >= c.total) {
		c.done = true
	}
	return nil
}

var contentRangeRegex = regexp.MustCompile(`items \d+-\d+/(\d+)`)

// parseContentRange extracts the collection total from a Connect
// "Content-Range: items 0-99/342" header.
func parseContentRange(value string) (int, bool) {
	m := contentRangeRegex.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	total, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return total, true
}
