package connect

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Reference is the id/name pair Connect uses for nested entities
// (products, marketplaces, tiers, providers).
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Connection describes the hub connection an asset was provisioned through.
type Connection struct {
	Type     string    `json:"type"` // "production", "test", ...
	Provider Reference `json:"provider"`
}

// Tiers holds the distribution chain parties associated with an asset.
type Tiers struct {
	Customer Reference `json:"customer"`
	Tier1    Reference `json:"tier1"`
	Tier2    Reference `json:"tier2"`
}

// Events carries entity lifecycle timestamps.
type Events struct {
	Created EventAt `json:"created"`
	Updated EventAt `json:"updated"`
}

type EventAt struct {
	At string `json:"at"`
}

// Param is an ordered id/value request parameter on an asset.
type Param struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Item is a single asset line item.
type Item struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	GlobalID    string  `json:"global_id"`
	Quantity    FlexInt `json:"quantity"`
}

// Asset is a subscription/entitlement instance tracked by Connect.
type Asset struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Product     Reference  `json:"product"`
	Connection  Connection `json:"connection"`
	Marketplace Reference  `json:"marketplace"`
	Tiers       Tiers      `json:"tiers"`
	Events      Events     `json:"events"`
	Params      []Param    `json:"params"`
	Items       []Item     `json:"items"`
}

// Listing is a product listing on a marketplace.
type Listing struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	PriceList *ListingPriceList `json:"pricelist,omitempty"`
}

type ListingPriceList struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PriceListVersion is one published version of a price list.
type PriceListVersion struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	PriceList VersionPriceList `json:"pricelist"`
}

type VersionPriceList struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
}

// PricePoint is one line of a price list version. Attribute values are
// decimal strings keyed by attribute id ("price", "st0p", "st1p", ...).
type PricePoint struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

// Attributes tolerates both string and numeric JSON values, normalizing
// everything to strings so presence checks stay meaningful.
type Attributes map[string]string

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = n.String()
			continue
		}
		return fmt.Errorf("attribute %q: unsupported value %s", k, string(v))
	}
	*a = out
	return nil
}

// FlexInt decodes integers that Connect serializes either as numbers or as
// numeric strings. Anything else (e.g. "unlimited") is an error.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		i, err := num.Int64()
		if err != nil {
			return fmt.Errorf("quantity %s: %w", num.String(), err)
		}
		*n = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", s, err)
	}
	*n = FlexInt(i)
	return nil
}
