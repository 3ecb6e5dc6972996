package model

// Direction is the cash direction of a classified transaction.
type Direction string

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

// DirectionOf returns the direction implied by the sign of a cash delta.
// Zero counts as income.
func DirectionOf(cash int64) Direction {
	if cash < 0 {
		return DirectionExpense
	}
	return DirectionIncome
}

// VesselSnapshot is a denormalized copy of the vessel data a match was made on.
// For POD2 it is the accepted sub-record of the operation payload; for POD3 it
// is the departure record itself.
type VesselSnapshot struct {
	VesselID    int64  `json:"vessel_id,omitempty"`
	VesselName  string `json:"vessel_name,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	RouteName   string `json:"route_name,omitempty"`
	Income      int64  `json:"income"`
	HarborFee   int64  `json:"harbor_fee"`
	Guards      int64  `json:"guards,omitempty"`
}

// Gross is income plus the absolute harbor fee.
func (v VesselSnapshot) Gross() int64 {
	return v.Income + Abs(v.HarborFee)
}

// LookupEntry is one row of the reconciled ledger: a transaction plus at most
// one operation-log match and at most one departure match.
//
// Empty Pod2ID/Pod3ID mean "not matched" and are stored as NULL.
// CashAmount, ClassifiedKind, ClassifiedDirection and Context are fixed when
// the row is created and never rewritten.
type LookupEntry struct {
	ID                  int64           `json:"id"`
	Timestamp           int64           `json:"timestamp"`
	Pod1ID              string          `json:"pod1_id"`
	Pod2ID              string          `json:"pod2_id,omitempty"`
	Pod3ID              string          `json:"pod3_id,omitempty"`
	Pod1Timestamp       int64           `json:"pod1_timestamp"`
	Pod2Timestamp       int64           `json:"pod2_timestamp,omitempty"`
	Pod3Timestamp       int64           `json:"pod3_timestamp,omitempty"`
	Pod2VesselSnapshot  *VesselSnapshot `json:"pod2_vessel_snapshot,omitempty"`
	Pod3VesselSnapshot  *VesselSnapshot `json:"pod3_vessel_snapshot,omitempty"`
	CashAmount          int64           `json:"cash_amount"`
	CashConfirmed       bool            `json:"cash_confirmed"`
	ClassifiedKind      string          `json:"classified_kind"`
	ClassifiedDirection Direction       `json:"classified_direction"`
	Context             string          `json:"context"`
}

// FullyMatched reports whether every correlation required for the row's
// category is present. departureClass must say whether the row's context
// also requires a departure match.
func (e LookupEntry) FullyMatched(departureClass bool) bool {
	if e.Pod2ID == "" {
		return false
	}
	return !departureClass || e.Pod3ID != ""
}

// Abs returns the absolute value of n.
func Abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// OperationMatch is an accepted operation-log candidate for a transaction.
// Vessel is the payload sub-record the value rule accepted, if any.
type OperationMatch struct {
	LogID       string
	TimestampMs int64
	Vessel      *VesselSnapshot
}

// DepartureMatch is an accepted departure record for a transaction.
type DepartureMatch struct {
	DepartureID string
	TimestampMs int64
	Vessel      *VesselSnapshot
}
