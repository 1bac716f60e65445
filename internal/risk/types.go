// Package risk scores legal clauses with an LLM and condenses the scores
// into a document-level report.
package risk

type Category string

const (
	Financial            Category = "Financial"
	Liability            Category = "Liability"
	Operational          Category = "Operational"
	Compliance           Category = "Compliance"
	Termination          Category = "Termination"
	DataPrivacy          Category = "Data Privacy"
	IntellectualProperty Category = "Intellectual Property"
	Uncategorized        Category = "Uncategorized"
)

// Categories lists every category in prompt order.
var Categories = []Category{
	Financial, Liability, Operational, Compliance,
	Termination, DataPrivacy, IntellectualProperty, Uncategorized,
}

func normalizeCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return Uncategorized
}

// Analysis is the model's verdict on one clause.
type Analysis struct {
	Risky    bool     `json:"risky"`
	Score    int      `json:"score"`
	Summary  string   `json:"summary"`
	Reason   string   `json:"reason"`
	Category Category `json:"category"`
}

// Result is one analysed clause as returned to clients.
type Result struct {
	Clause string `json:"Clause"`
	Analysis
}

// Report is the document-level summary.
type Report struct {
	OverallRiskScore int    `json:"overall_risk_score"`
	RiskSummary      string `json:"risk_summary"`
	TotalClauses     int    `json:"total_clauses"`
	RiskyClauseCount int    `json:"risky_clause_count"`
}
