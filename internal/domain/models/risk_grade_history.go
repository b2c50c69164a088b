package models

import "time"

// RiskGradeHistory records one observed grade transition for a property.
// Rows are append-only; runs that leave the grade unchanged write nothing.
type RiskGradeHistory struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`

	// OldGrade is nil for a property's first assignment.
	OldGrade *RiskGrade `json:"old_grade"`
	NewGrade RiskGrade  `json:"new_grade"`

	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason"`

	TriggeredAlert   bool `json:"triggered_alert"`
	TriggeredReprice bool `json:"triggered_reprice"`
}

// GradeTransitionEvent is the payload offered to the external alert/reprice
// notifier after a transition commits.
type GradeTransitionEvent struct {
	PropertyID       string     `json:"property_id"`
	OldGrade         *RiskGrade `json:"old_grade"`
	NewGrade         RiskGrade  `json:"new_grade"`
	TriggeredAlert   bool       `json:"triggered_alert"`
	TriggeredReprice bool       `json:"triggered_reprice"`
	OccurredAt       time.Time  `json:"occurred_at"`
}
