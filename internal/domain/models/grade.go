package models

import "fmt"

// RiskGrade is the discrete investment risk classification. It is a closed
// enumeration; every grade decision point matches exhaustively on these three
// values rather than comparing raw strings.
type RiskGrade string

const (
	GradeGreen RiskGrade = "GREEN"
	GradeAmber RiskGrade = "AMBER"
	GradeRed   RiskGrade = "RED"
)

// Severity orders grades from best to worst: GREEN < AMBER < RED.
func (g RiskGrade) Severity() int {
	switch g {
	case GradeGreen:
		return 0
	case GradeAmber:
		return 1
	case GradeRed:
		return 2
	}
	return -1
}

// Valid reports whether g is one of the three defined grades.
func (g RiskGrade) Valid() bool {
	return g.Severity() >= 0
}

// WorseThan reports whether g is strictly more severe than other. A nil
// other (no previous grade) never counts as worsening.
func (g RiskGrade) WorseThan(other *RiskGrade) bool {
	if other == nil {
		return false
	}
	return g.Severity() > other.Severity()
}

// ParseRiskGrade converts a string to a RiskGrade.
func ParseRiskGrade(s string) (RiskGrade, error) {
	g := RiskGrade(s)
	if !g.Valid() {
		return "", fmt.Errorf("invalid risk grade: %q", s)
	}
	return g, nil
}

// AllGrades lists the grades in severity order.
func AllGrades() []RiskGrade {
	return []RiskGrade{GradeGreen, GradeAmber, GradeRed}
}
