package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Checker-Finance/connect-reports/internal/connect"
)

const datetimeFormat = "2006-01-02 15:04:05"

// buildRow assembles the 21-column row for one asset.
func buildRow(asset *connect.Asset, catalog *Catalog, now time.Time) ([]string, error) {
	params := ExtractParams(asset.Params)

	if params.Action != "purchase" && !params.HasRenewalDate {
		return nil, ErrMissingRenewalDate
	}
	renewal, err := RenewalDate(params.Action, params.RenewalDate, asset.Events.Created.At, now)
	if err != nil {
		return nil, err
	}

	created, err := parseTimestamp(asset.Events.Created.At)
	if err != nil {
		return nil, fmt.Errorf("created date %q: %w", asset.Events.Created.At, err)
	}

	cls := Classify(asset.Items, catalog, asset.Product.ID)

	return []string{
		orDash(asset.ID),
		orDash(asset.Product.ID),
		orDash(asset.Connection.Provider.ID),
		orDash(asset.Connection.Provider.Name),
		orDash(asset.Marketplace.ID),
		orDash(asset.Marketplace.Name),
		orDash(asset.Tiers.Tier1.ID),
		orDash(asset.Tiers.Tier1.Name),
		created.UTC().Format(datetimeFormat),
		orDash(asset.Tiers.Customer.ID),
		orDash(asset.Tiers.Customer.Name),
		paramValue(params.SeamlessMove, params.HasSeamlessMove),
		paramValue(params.Discount, params.HasDiscount),
		paramValue(params.Action, params.HasAction),
		renewal.UTC().Format(datetimeFormat),
		cls.Type,
		cls.Currency,
		cls.Cost.StringFixed(2),
		cls.MSRP.StringFixed(2),
		cls.ResellerCost.StringFixed(2),
		strconv.Itoa(cls.Seats),
	}, nil
}

// orDash substitutes "-" for values the platform did not supply.
func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// paramValue passes a parameter value through verbatim when present
// (including the empty string) and renders "-" when the parameter is absent.
func paramValue(value string, present bool) string {
	if !present {
		return "-"
	}
	return value
}
