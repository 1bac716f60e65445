package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	NoRiskSummary  = "No significant risks were identified."
	NoTextSummary  = "PDF contains no extractable text."
	NoClausesFound = "No clauses found."

	topRisks = 3
)

// Summarize condenses per-clause results into a document report. The
// overall score is the mean score of risky clauses, rounded half to even.
func Summarize(results []Result) Report {
	var risky []Result
	total := 0
	for _, r := range results {
		if r.Risky {
			risky = append(risky, r)
			total += r.Score
		}
	}

	if len(risky) == 0 {
		return Report{
			OverallRiskScore: 0,
			RiskSummary:      NoRiskSummary,
			TotalClauses:     len(results),
			RiskyClauseCount: 0,
		}
	}

	sort.SliceStable(risky, func(i, j int) bool { return risky[i].Score > risky[j].Score })
	top := risky[:min(topRisks, len(risky))]

	var sb strings.Builder
	sb.WriteString("Primary risks:")
	for _, r := range top {
		fmt.Fprintf(&sb, "\n- %s (Score: %d)", r.Summary, r.Score)
	}

	return Report{
		OverallRiskScore: int(math.RoundToEven(float64(total) / float64(len(risky)))),
		RiskSummary:      sb.String(),
		TotalClauses:     len(results),
		RiskyClauseCount: len(risky),
	}
}

// Empty is the report for a document with nothing to analyse.
func Empty(message string) Report {
	return Report{RiskSummary: message}
}
