package annualrates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AnnualRate is a yearly price and fee proposal for a property.
type AnnualRate struct {
	ID         int64           `json:"id"`
	PropertyID int64           `json:"property_id"`
	Year       int64           `json:"year"`
	Rate       decimal.Decimal `json:"rate"`
	Fee        decimal.Decimal `json:"fee"`
	Status     string          `json:"status"`
	ApprovedBy *Reference      `json:"approved_by,omitempty"`
}

// Reference points at the operator that approved a rate. Upstream sends either a bare id or
// an {id, name} object.
type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '{':
		type plain Reference
		var ref plain
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}
		*r = Reference(ref)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("approved_by: %w", err)
		}
		r.ID = id
		return nil
	default:
		var id int64
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("approved_by: %w", err)
		}
		r.ID = id
		return nil
	}
}

// Listing is one decoded page of annual rates plus the catalog that describes them.
type Listing struct {
	Items   []AnnualRate
	Meta    map[string]any
	Years   []int64
	Catalog Catalog
}

type listingPayload struct {
	Data     []AnnualRate    `json:"data"`
	Meta     json.RawMessage `json:"meta"`
	Years    []json.Number   `json:"years"`
	Statuses json.RawMessage `json:"statuses"`
}

// DecodeListing parses the upstream {data, meta, years, statuses} payload.
// meta and statuses are optional objects; an empty array, null or a malformed value counts
// as absent, so the fallback catalog still applies.
func DecodeListing(raw []byte) (*Listing, error) {
	var payload listingPayload
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	years := make([]int64, 0, len(payload.Years))
	for _, y := range payload.Years {
		if v, err := y.Int64(); err == nil {
			years = append(years, v)
		}
	}
	items := payload.Data
	if items == nil {
		items = []AnnualRate{}
	}
	meta, ok := decodeOptionalObject[map[string]any](payload.Meta)
	if !ok || meta == nil {
		meta = map[string]any{}
	}
	statuses, _ := decodeOptionalObject[map[string]StatusEntry](payload.Statuses)
	return &Listing{
		Items:   items,
		Meta:    meta,
		Years:   years,
		Catalog: NewCatalog(statuses),
	}, nil
}

func decodeOptionalObject[T any](raw json.RawMessage) (T, bool) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return zero, false
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var decoded T
	if err := decoder.Decode(&decoded); err != nil {
		return zero, false
	}
	return decoded, true
}

// Find returns the rate with the given id on this page.
func (l *Listing) Find(rateID int64) (AnnualRate, bool) {
	for _, item := range l.Items {
		if item.ID == rateID {
			return item, true
		}
	}
	return AnnualRate{}, false
}

// lastPage reads meta.last_page; zero when absent, which ends pagination after the current page.
func (l *Listing) lastPage() int {
	if v, ok := l.Meta["last_page"]; ok {
		switch n := v.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		case float64:
			return int(n)
		}
	}
	return 0
}

// RateView is a rate with its presentation resolved.
type RateView struct {
	AnnualRate
	StatusLabel string `json:"status_label"`
	StatusStyle string `json:"status_style,omitempty"`
	CanApprove  bool   `json:"can_approve"`
}

type ListView struct {
	Items    []RateView             `json:"items"`
	Meta     map[string]any         `json:"meta"`
	Years    []int64                `json:"years"`
	Statuses map[string]StatusEntry `json:"statuses"`
}

type ApprovalView struct {
	Rate     RateView               `json:"rate"`
	Statuses map[string]StatusEntry `json:"statuses"`
}

func buildRateView(rate AnnualRate, catalog Catalog) RateView {
	entry, _ := catalog.Lookup(rate.Status)
	return RateView{
		AnnualRate:  rate,
		StatusLabel: catalog.DisplayLabel(rate.Status),
		StatusStyle: entry.Style,
		CanApprove:  CanApprove(rate.Status),
	}
}

func buildListView(listing *Listing) *ListView {
	items := make([]RateView, 0, len(listing.Items))
	for _, rate := range listing.Items {
		items = append(items, buildRateView(rate, listing.Catalog))
	}
	return &ListView{
		Items:    items,
		Meta:     listing.Meta,
		Years:    listing.Years,
		Statuses: listing.Catalog.Entries(),
	}
}
