// Package classify maps raw transaction context tags to semantic categories
// and operation names to the context tags they can produce.
//
// Everything here is a static table: no I/O, no state mutated after init.
package classify

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shipledger/internal/model"
)

// Category selects the matching strategy for a context.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryDepartureProceeds
	CategoryHarborFee
	CategoryGuardFee
	CategoryTradeBuy
	CategoryTradeSell
)

var categoryNames = map[Category]string{
	CategoryGeneric:           "generic",
	CategoryDepartureProceeds: "departure_proceeds",
	CategoryHarborFee:         "harbor_fee",
	CategoryGuardFee:          "guard_fee",
	CategoryTradeBuy:          "trade_buy",
	CategoryTradeSell:         "trade_sell",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Raw context tags known to the classifier.
const (
	ContextVesselsDeparted = "vessels_departed"
	ContextHarborFee       = "harbor_fee_on_depart"
	ContextGuardFee        = "guard_payment_on_depart"
	ContextFuel            = "fuel_purchased"
	ContextCO2             = "co2_emission_quota"
	ContextStockPurchase   = "purchase_stock"
	ContextStockSale       = "sell_stock"
	ContextRepair          = "bulk_repair"
	ContextMarketing       = "marketing_campaign_activation"
	ContextVesselPurchase  = "buy_vessel"
	ContextVesselSale      = "sell_vessel"
	ContextDrydock         = "drydock"
	ContextAnchorPoints    = "anchor_points"
)

// ContextInfo describes one context tag.
type ContextInfo struct {
	Context   string
	Kind      string
	Direction model.Direction
	Category  Category
	// MultiMatch contexts come from batched operations: one log record may
	// explain many transactions, so it is never consumed.
	MultiMatch bool
}

var contexts = map[string]ContextInfo{
	ContextVesselsDeparted: {Kind: "Departure", Direction: model.DirectionIncome, Category: CategoryDepartureProceeds, MultiMatch: true},
	ContextHarborFee:       {Kind: "Harbor Fee", Direction: model.DirectionExpense, Category: CategoryHarborFee, MultiMatch: true},
	ContextGuardFee:        {Kind: "Guard Fee", Direction: model.DirectionExpense, Category: CategoryGuardFee, MultiMatch: true},
	ContextFuel:            {Kind: "Fuel", Direction: model.DirectionExpense},
	ContextCO2:             {Kind: "CO2", Direction: model.DirectionExpense},
	ContextStockPurchase:   {Kind: "Stock Purchase", Direction: model.DirectionExpense, Category: CategoryTradeBuy, MultiMatch: true},
	ContextStockSale:       {Kind: "Stock Sale", Direction: model.DirectionIncome, Category: CategoryTradeSell},
	ContextRepair:          {Kind: "Repair", Direction: model.DirectionExpense},
	ContextMarketing:       {Kind: "Marketing", Direction: model.DirectionExpense},
	ContextVesselPurchase:  {Kind: "Vessel Purchase", Direction: model.DirectionExpense},
	ContextVesselSale:      {Kind: "Vessel Sale", Direction: model.DirectionIncome},
	ContextDrydock:         {Kind: "Drydock", Direction: model.DirectionExpense},
	ContextAnchorPoints:    {Kind: "Anchor Points", Direction: model.DirectionExpense},
}

type operationInfo struct {
	contexts []string
	details  model.DetailsKind
}

var departureContexts = []string{ContextVesselsDeparted, ContextHarborFee, ContextGuardFee}

// Keys are normalized operation names.
var operations = map[string]operationInfo{
	"auto-depart":     {departureContexts, model.DetailsDeparture},
	"depart all":      {departureContexts, model.DetailsDeparture},
	"manual depart":   {departureContexts, model.DetailsDeparture},
	"auto-fuel":       {[]string{ContextFuel}, model.DetailsPurchase},
	"buy fuel":        {[]string{ContextFuel}, model.DetailsPurchase},
	"auto-co2":        {[]string{ContextCO2}, model.DetailsPurchase},
	"buy co2":         {[]string{ContextCO2}, model.DetailsPurchase},
	"buy stock":       {[]string{ContextStockPurchase}, model.DetailsTrade},
	"sell stock":      {[]string{ContextStockSale}, model.DetailsTrade},
	"auto-repair":     {[]string{ContextRepair}, model.DetailsCost},
	"bulk repair":     {[]string{ContextRepair}, model.DetailsCost},
	"auto-campaign":   {[]string{ContextMarketing}, model.DetailsCost},
	"auto-drydock":    {[]string{ContextDrydock}, model.DetailsCost},
	"purchase vessel": {[]string{ContextVesselPurchase}, model.DetailsCost},
	"sell vessel":     {[]string{ContextVesselSale}, model.DetailsCost},
	"anchor purchase": {[]string{ContextAnchorPoints}, model.DetailsCost},
}

// Normalize canonicalizes a tag or operation name for table lookup:
// Unicode NFC, surrounding whitespace trimmed, lower case.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Lookup returns the table entry for a context tag.
func Lookup(context string) (ContextInfo, bool) {
	key := Normalize(context)
	info, ok := contexts[key]
	if ok {
		info.Context = key
	}
	return info, ok
}

// Classify returns the semantic kind and direction of a transaction.
// Unknown tags fall back to the tag itself and the sign of cashDelta.
func Classify(context string, cashDelta int64) (string, model.Direction) {
	if info, ok := Lookup(context); ok {
		return info.Kind, info.Direction
	}
	return context, model.DirectionOf(cashDelta)
}

// CategoryOf returns the matching category for a context.
// Unknown tags are generic.
func CategoryOf(context string) Category {
	info, _ := Lookup(context)
	return info.Category
}

// IsDepartureClass reports whether a context also requires a departure match.
func IsDepartureClass(context string) bool {
	switch CategoryOf(context) {
	case CategoryDepartureProceeds, CategoryHarborFee, CategoryGuardFee:
		return true
	}
	return false
}

// IsMultiMatch reports whether one log record may satisfy many transactions
// of this context.
func IsMultiMatch(context string) bool {
	info, _ := Lookup(context)
	return info.MultiMatch
}

// ContextsFor returns the normalized context tags an operation can produce.
// The returned slice must not be modified.
func ContextsFor(operationName string) []string {
	return operations[Normalize(operationName)].contexts
}

// DetailsKindFor returns the payload shape an operation writes.
func DetailsKindFor(operationName string) model.DetailsKind {
	info, ok := operations[Normalize(operationName)]
	if !ok {
		return model.DetailsUnknown
	}
	return info.details
}

// Table returns every known context, sorted by tag.
func Table() []ContextInfo {
	out := make([]ContextInfo, 0, len(contexts))
	for tag, info := range contexts {
		info.Context = tag
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Context < out[j].Context })
	return out
}

// Render writes the classification table as tab-separated lines.
func Render(w io.Writer) error {
	for _, info := range Table() {
		multi := ""
		if info.MultiMatch {
			multi = "multi"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.Context, info.Kind, info.Direction, info.Category, multi); err != nil {
			return err
		}
	}
	return nil
}
