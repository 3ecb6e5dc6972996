package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DetailsKind identifies the payload shape an operation writes to the log.
type DetailsKind string

const (
	DetailsDeparture DetailsKind = "departure"
	DetailsPurchase  DetailsKind = "purchase"
	DetailsTrade     DetailsKind = "trade"
	DetailsCost      DetailsKind = "cost"
	DetailsUnknown   DetailsKind = "unknown"
)

// Details is the closed set of parsed operation payloads.
// The unexported method keeps the set closed to this package.
type Details interface {
	Kind() DetailsKind
	// Figures returns the cash values the payload exposes for value matching.
	Figures() Figures
	details()
}

// Figures holds the cash values extracted from a payload.
// HasTotal is false when the payload carries no total at all, which is
// different from a total of zero.
type Figures struct {
	Total      int64
	HasTotal   bool
	UnitPrice  int64
	ItemPrices []int64
}

// Amount is a whole-unit money value. The game API sometimes encodes money as
// a float; it is rounded to the nearest unit when decoded.
type Amount int64

// UnmarshalJSON accepts integers, floats, and numeric strings.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*a = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = Amount(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	f = math.Round(f)
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("amount %q: out of range", s)
	}
	*a = Amount(f)
	return nil
}

// VesselDetail is one per-vessel sub-record of a bulk departure payload.
type VesselDetail struct {
	VesselID   Amount `json:"vesselId"`
	VesselName string `json:"name"`
	Income     Amount `json:"income"`
	HarborFee  Amount `json:"harborFee"`
	Guards     Amount `json:"guards"`
}

// Snapshot returns the denormalized copy stored as pod2_vessel_snapshot.
func (v VesselDetail) Snapshot() *VesselSnapshot {
	return &VesselSnapshot{
		VesselID:   int64(v.VesselID),
		VesselName: v.VesselName,
		Income:     int64(v.Income),
		HarborFee:  int64(v.HarborFee),
		Guards:     int64(v.Guards),
	}
}

// DepartureDetails is written by departure operations; one log row may
// carry many vessels.
type DepartureDetails struct {
	Vessels []VesselDetail `json:"vessels"`
}

func (DepartureDetails) Kind() DetailsKind { return DetailsDeparture }
func (DepartureDetails) Figures() Figures  { return Figures{} }
func (DepartureDetails) details()          {}

// PurchaseDetails covers bulk commodity purchases (fuel, CO2 certificates).
type PurchaseDetails struct {
	Amount    Amount  `json:"amount"`
	Price     Amount  `json:"price"`
	TotalCost *Amount `json:"totalCost"`
}

func (PurchaseDetails) Kind() DetailsKind { return DetailsPurchase }
func (PurchaseDetails) details()          {}

func (d PurchaseDetails) Figures() Figures {
	f := Figures{UnitPrice: int64(d.Price)}
	switch {
	case d.TotalCost != nil:
		f.Total, f.HasTotal = int64(*d.TotalCost), true
	case d.Amount != 0 && d.Price != 0:
		f.Total, f.HasTotal = int64(d.Amount)*int64(d.Price), true
	}
	return f
}

// TradeDetails covers stock purchases and sales. TotalValue is the value
// before the exchange fee.
type TradeDetails struct {
	Shares        Amount  `json:"shares"`
	PricePerShare Amount  `json:"pricePerShare"`
	TotalValue    *Amount `json:"totalValue"`
}

func (TradeDetails) Kind() DetailsKind { return DetailsTrade }
func (TradeDetails) details()          {}

func (d TradeDetails) Figures() Figures {
	f := Figures{UnitPrice: int64(d.PricePerShare)}
	switch {
	case d.TotalValue != nil:
		f.Total, f.HasTotal = int64(*d.TotalValue), true
	case d.Shares != 0 && d.PricePerShare != 0:
		f.Total, f.HasTotal = int64(d.Shares)*int64(d.PricePerShare), true
	}
	return f
}

// CostItem is one line of a cost payload (a repaired vessel, a campaign).
type CostItem struct {
	VesselID Amount `json:"vesselId"`
	Name     string `json:"name"`
	Price    Amount `json:"price"`
}

// CostDetails covers repairs, campaigns, drydock and vessel trades: a total
// plus optional per-item prices.
type CostDetails struct {
	TotalCost    *Amount    `json:"totalCost"`
	PricePerUnit Amount     `json:"pricePerUnit"`
	Items        []CostItem `json:"items"`
}

func (CostDetails) Kind() DetailsKind { return DetailsCost }
func (CostDetails) details()          {}

func (d CostDetails) Figures() Figures {
	f := Figures{UnitPrice: int64(d.PricePerUnit)}
	if d.TotalCost != nil {
		f.Total, f.HasTotal = int64(*d.TotalCost), true
	}
	for _, it := range d.Items {
		f.ItemPrices = append(f.ItemPrices, int64(it.Price))
	}
	return f
}

// UnknownDetails is the payload of an operation with no known shape.
// It never satisfies a value rule.
type UnknownDetails struct {
	Keys []string
}

func (UnknownDetails) Kind() DetailsKind { return DetailsUnknown }
func (UnknownDetails) Figures() Figures  { return Figures{} }
func (UnknownDetails) details()          {}

// ParseDetails decodes raw into the payload type for kind. An empty payload
// yields the zero value of that type. Malformed JSON is an error.
func ParseDetails(kind DetailsKind, raw []byte) (Details, error) {
	raw = bytes.TrimSpace(raw)
	empty := len(raw) == 0 || bytes.Equal(raw, []byte("null"))

	var (
		d   Details
		err error
	)
	switch kind {
	case DetailsDeparture:
		var v DepartureDetails
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		d = v
	case DetailsPurchase:
		var v PurchaseDetails
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		d = v
	case DetailsTrade:
		var v TradeDetails
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		d = v
	case DetailsCost:
		var v CostDetails
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		d = v
	default:
		var v UnknownDetails
		if !empty {
			var m map[string]json.RawMessage
			err = json.Unmarshal(raw, &m)
			for k := range m {
				v.Keys = append(v.Keys, k)
			}
			sort.Strings(v.Keys)
		}
		d = v
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s details: %w", kind, err)
	}
	return d, nil
}
