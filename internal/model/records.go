package model

// TransactionRecord is one row of the authoritative cash ledger (POD1).
// TimestampSec is in seconds, unlike the other two sources.
type TransactionRecord struct {
	ID           string `json:"id" yaml:"id"`
	TimestampSec int64  `json:"timestamp_sec" yaml:"timestamp_sec"`
	Context      string `json:"context" yaml:"context"`
	CashDelta    int64  `json:"cash_delta" yaml:"cash_delta"`
}

// TimestampMs returns the transaction time in milliseconds.
func (t TransactionRecord) TimestampMs() int64 {
	return t.TimestampSec * 1000
}

// OperationLogRecord is one row of the operation log (POD2).
//
// DetailsRaw is the payload exactly as stored. Details is the parsed,
// typed view produced once at ingestion; matching never looks at DetailsRaw.
type OperationLogRecord struct {
	ID            string  `json:"id"`
	TimestampMs   int64   `json:"timestamp_ms"`
	OperationName string  `json:"operation_name"`
	Status        string  `json:"status"`
	Summary       string  `json:"summary"`
	DetailsRaw    []byte  `json:"-"`
	Details       Details `json:"-"`
}

// DepartureRecord is one vessel departure event (POD3).
type DepartureRecord struct {
	ID          string `json:"id" yaml:"id"`
	TimestampMs int64  `json:"timestamp_ms" yaml:"timestamp_ms"`
	VesselID    int64  `json:"vessel_id" yaml:"vessel_id"`
	VesselName  string `json:"vessel_name" yaml:"vessel_name"`
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
	RouteName   string `json:"route_name" yaml:"route_name"`
	Income      int64  `json:"income" yaml:"income"`
	HarborFee   int64  `json:"harbor_fee" yaml:"harbor_fee"`
}

// Snapshot returns the denormalized copy stored on a ledger row.
func (d DepartureRecord) Snapshot() *VesselSnapshot {
	return &VesselSnapshot{
		VesselID:    d.VesselID,
		VesselName:  d.VesselName,
		Origin:      d.Origin,
		Destination: d.Destination,
		RouteName:   d.RouteName,
		Income:      d.Income,
		HarborFee:   d.HarborFee,
	}
}
