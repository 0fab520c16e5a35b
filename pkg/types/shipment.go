// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Direction classifies a customs transaction as seen by the reporting economy.
type Direction string

const (
	DirectionExport Direction = "EXPORT"
	DirectionImport Direction = "IMPORT"
)

// ShipmentRecord is one immutable customs transaction from the ledger fact
// table. Quantities, logistics identifiers, and the buyer linkage are
// nullable; pointer fields distinguish "absent" from zero values.
type ShipmentRecord struct {
	// TransactionID is the opaque unique key of the transaction.
	TransactionID string `json:"transaction_id" yaml:"transaction_id"`

	// PartitionYear is the year partition the row lives in. Updates must
	// carry it alongside the transaction ID to stay partition-local.
	PartitionYear int `json:"partition_year" yaml:"partition_year"`

	// Direction is EXPORT or IMPORT.
	Direction Direction `json:"direction" yaml:"direction"`

	// ReportingCountry is the economy that filed the record.
	ReportingCountry string `json:"reporting_country" yaml:"reporting_country"`

	// OriginCountry is where the goods were shipped from. May be empty on
	// export records; the reporting country is used as a fallback.
	OriginCountry string `json:"origin_country,omitempty" yaml:"origin_country,omitempty"`

	// DestinationCountry is where the goods were shipped to.
	DestinationCountry string `json:"destination_country,omitempty" yaml:"destination_country,omitempty"`

	// CommodityCode is the HS code at 6-digit granularity.
	CommodityCode string `json:"commodity_code" yaml:"commodity_code"`

	// QuantityKg is the declared net weight. Nil when not declared;
	// positive when present.
	QuantityKg *float64 `json:"quantity_kg,omitempty" yaml:"quantity_kg,omitempty"`

	// ShipmentDate is the declared shipment date (day granularity).
	ShipmentDate time.Time `json:"shipment_date" yaml:"shipment_date"`

	// VesselName and ContainerID are logistics identifiers, frequently absent.
	VesselName  *string `json:"vessel_name,omitempty" yaml:"vessel_name,omitempty"`
	ContainerID *string `json:"container_id,omitempty" yaml:"container_id,omitempty"`

	// DeclaredBuyerName is the consignee string as declared on the record.
	DeclaredBuyerName *string `json:"declared_buyer_name,omitempty" yaml:"declared_buyer_name,omitempty"`

	// BuyerIdentity references a resolved buyer. Populated on imports where
	// identity resolution succeeded, and on exports once mirrored. Set at
	// most once; never overwritten by a later mirror run.
	BuyerIdentity *string `json:"buyer_identity,omitempty" yaml:"buyer_identity,omitempty"`

	// HiddenBuyer is the derived flag: the declared buyer name is null,
	// blank, or matches the placeholder vocabulary.
	HiddenBuyer bool `json:"hidden_buyer" yaml:"hidden_buyer"`
}

// MatchCandidate pairs one eligible export with one candidate import.
// Transient; produced by the finder and consumed by the scorer.
type MatchCandidate struct {
	Export ShipmentRecord
	Import ShipmentRecord
}

// CriterionResult records the outcome of one scoring dimension. Matched is
// nil when the dimension could not be checked (a required input was absent),
// which is distinct from checked-and-failed.
type CriterionResult struct {
	// Matched is true/false when the dimension was evaluated, nil when skipped.
	Matched *bool `json:"matched" yaml:"matched"`

	// Deviation is the raw observed deviation for the dimension: quantity
	// difference in percent, or date lag in days. Nil where not applicable.
	Deviation *float64 `json:"deviation,omitempty" yaml:"deviation,omitempty"`
}

// MatchCriteria is the per-dimension breakdown behind a score. Persisted
// with every accepted match so downstream analytics can explain it.
type MatchCriteria struct {
	Commodity CriterionResult `json:"commodity_code" yaml:"commodity_code"`
	Quantity  CriterionResult `json:"quantity" yaml:"quantity"`
	DateLag   CriterionResult `json:"date_lag" yaml:"date_lag"`
	Container CriterionResult `json:"container_id" yaml:"container_id"`
	Vessel    CriterionResult `json:"vessel_name" yaml:"vessel_name"`
}

// ScoredCandidate is a MatchCandidate with its weighted score (0-100) and
// the full criteria breakdown.
type ScoredCandidate struct {
	Candidate MatchCandidate
	Score     int
	Criteria  MatchCriteria
}

// RejectReason explains why an export was not mirrored in this run.
type RejectReason string

const (
	// RejectNoCandidates: the finder returned an empty candidate set.
	RejectNoCandidates RejectReason = "no_candidates"

	// RejectLowScore: the best candidate scored below the acceptance threshold.
	RejectLowScore RejectReason = "low_score"

	// RejectAmbiguous: the top two candidates are statistically
	// indistinguishable, so no match is committed.
	RejectAmbiguous RejectReason = "ambiguous"
)

// MatchDecision is the verdict for one export: either Best is set and
// Reason is empty (accepted), or Reason is set and Best is nil.
type MatchDecision struct {
	Best   *ScoredCandidate
	Reason RejectReason
}

// Accepted reports whether the decision commits to a match.
func (d MatchDecision) Accepted() bool {
	return d.Best != nil
}

// MirrorMatchLogEntry is the durable audit row behind one accepted decision.
// Unique on the export transaction ID, which doubles as the idempotency key.
type MirrorMatchLogEntry struct {
	ExportTransactionID string        `json:"export_transaction_id" yaml:"export_transaction_id"`
	ExportPartitionYear int           `json:"export_partition_year" yaml:"export_partition_year"`
	ImportTransactionID string        `json:"import_transaction_id" yaml:"import_transaction_id"`
	ImportPartitionYear int           `json:"import_partition_year" yaml:"import_partition_year"`
	Score               int           `json:"score" yaml:"score"`
	Criteria            MatchCriteria `json:"criteria" yaml:"criteria"`
	MatchedAt           time.Time     `json:"matched_at" yaml:"matched_at"`
}

// RouteStat is one origin→destination+commodity aggregate from the match log.
type RouteStat struct {
	OriginCountry      string `json:"origin_country" yaml:"origin_country"`
	DestinationCountry string `json:"destination_country" yaml:"destination_country"`
	CommodityCode      string `json:"commodity_code" yaml:"commodity_code"`
	Matches            int    `json:"matches" yaml:"matches"`
}
