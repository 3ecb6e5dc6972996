package match

import (
	"math/big"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

const (
	// GuardUnitCost is the fixed price of one guard on a departure.
	GuardUnitCost int64 = 700

	// Trade fee multipliers in basis points.
	buyFeeBps  int64 = 10_500
	sellFeeBps int64 = 9_500

	// TradeToleranceBps is the relative tolerance for trade matches.
	TradeToleranceBps int64 = 50
)

// Strategy decides whether rec explains tx. When the decision rests on one
// vessel sub-record of the payload, that sub-record is returned as well.
type Strategy func(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool)

// Strategies returns the default strategy table. Categories without an entry
// fall back to MatchGeneric.
func Strategies() map[classify.Category]Strategy {
	return map[classify.Category]Strategy{
		classify.CategoryDepartureProceeds: MatchDepartureProceeds,
		classify.CategoryHarborFee:         MatchHarborFee,
		classify.CategoryGuardFee:          MatchGuardFee,
		classify.CategoryTradeBuy:          MatchTradeBuy,
		classify.CategoryTradeSell:         MatchTradeSell,
		classify.CategoryGeneric:           MatchGeneric,
	}
}

func vessels(rec *model.OperationLogRecord) []model.VesselDetail {
	d, ok := rec.Details.(model.DepartureDetails)
	if !ok {
		return nil
	}
	return d.Vessels
}

// MatchDepartureProceeds accepts the first vessel whose gross equals the cash.
func MatchDepartureProceeds(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	cash := model.Abs(tx.CashDelta)
	for _, v := range vessels(rec) {
		snap := v.Snapshot()
		if snap.Gross() == cash {
			return snap, true
		}
	}
	return nil, false
}

// MatchHarborFee accepts the first vessel whose fee equals the cash, signed
// or absolute.
func MatchHarborFee(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	for _, v := range vessels(rec) {
		fee := int64(v.HarborFee)
		if fee == 0 {
			continue
		}
		if fee == tx.CashDelta || model.Abs(fee) == model.Abs(tx.CashDelta) {
			return v.Snapshot(), true
		}
	}
	return nil, false
}

// MatchGuardFee accepts the first vessel whose guard count prices out to the
// cash. Failing that, the first vessel carrying any guards is accepted.
func MatchGuardFee(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	cash := model.Abs(tx.CashDelta)
	var fallback *model.VesselSnapshot
	for _, v := range vessels(rec) {
		guards := int64(v.Guards)
		if guards <= 0 {
			continue
		}
		if guards*GuardUnitCost == cash {
			return v.Snapshot(), true
		}
		if fallback == nil {
			fallback = v.Snapshot()
		}
	}
	return fallback, fallback != nil
}

// MatchTradeBuy accepts a trade whose value plus the purchase fee is within
// tolerance of the cash.
func MatchTradeBuy(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	return nil, matchTrade(tx, rec, buyFeeBps)
}

// MatchTradeSell accepts a trade whose value minus the sale fee is within
// tolerance of the cash.
func MatchTradeSell(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	return nil, matchTrade(tx, rec, sellFeeBps)
}

func matchTrade(tx model.TransactionRecord, rec *model.OperationLogRecord, feeBps int64) bool {
	if rec.Details == nil {
		return false
	}
	f := rec.Details.Figures()
	if !f.HasTotal {
		return false
	}
	cash := model.Abs(tx.CashDelta)
	total := model.Abs(f.Total)
	if total == cash {
		return true
	}
	if total == 0 {
		return false
	}

	// Everything is scaled by 10000 so the comparison stays exact:
	// |cash - total*fee| <= total*fee * tolerance. Products of game amounts
	// can exceed int64, so they are formed as big integers.
	bps := big.NewInt(10_000)
	expected := new(big.Int).Mul(big.NewInt(total), big.NewInt(feeBps))
	diff := new(big.Int).Mul(big.NewInt(cash), bps)
	diff.Sub(diff, expected).Abs(diff)
	diff.Mul(diff, bps)
	limit := new(big.Int).Mul(expected, big.NewInt(TradeToleranceBps))
	return diff.Cmp(limit) <= 0
}

// MatchGeneric accepts on the payload total, then on the total less one unit
// price, then on any single item price.
func MatchGeneric(tx model.TransactionRecord, rec *model.OperationLogRecord) (*model.VesselSnapshot, bool) {
	if rec.Details == nil {
		return nil, false
	}
	f := rec.Details.Figures()
	cash := model.Abs(tx.CashDelta)
	if cash == 0 {
		return nil, false
	}

	if f.HasTotal {
		total := model.Abs(f.Total)
		if total == cash {
			return nil, true
		}
		if f.UnitPrice != 0 && total-model.Abs(f.UnitPrice) == cash {
			return nil, true
		}
	}
	for _, p := range f.ItemPrices {
		if model.Abs(p) == cash {
			return nil, true
		}
	}
	return nil, false
}
