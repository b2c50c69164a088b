package models

import "time"

// MarketMetric is a timestamped scalar observation written by the ingestion
// collaborator. The risk engine consumes it read-only as a prior source for
// baseline rates; it never creates or mutates rows.
type MarketMetric struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Subtype      string    `json:"subtype,omitempty"`
	Region       string    `json:"region,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	DeveloperID  string    `json:"developer_id,omitempty"`
	Source       string    `json:"source,omitempty"`
	Annotation   string    `json:"annotation,omitempty"`
	Value        float64   `json:"value"`
	ObservedAt   time.Time `json:"observed_at"`
}
