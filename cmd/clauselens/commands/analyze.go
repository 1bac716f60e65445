package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericksa/clauselens/internal/audit"
	"github.com/ericksa/clauselens/internal/legal"
)

const auditSource = "cli"

func NewAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <path|url>",
		Short: "Score every clause of a legal PDF",
		Long: `Analyze a legal PDF and print the document summary and per-clause risk
analysis as JSON.

Examples:
  clauselens analyze lease.pdf
  clauselens analyze https://example.com/lease.pdf
  clauselens analyze s3://pdfs/pdf-1700000000000-1b4e.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	source := args[0]
	started := time.Now()

	var analysis *legal.Analysis
	if isURL(source) {
		analysis, err = env.service.AnalyzeURL(ctx, source)
	} else {
		var data []byte
		data, _, err = readLocal(source)
		if err == nil {
			analysis, err = env.service.AnalyzeDocument(ctx, data)
		}
	}

	var summary any
	if analysis != nil {
		summary = analysis.DocumentSummary
	}
	env.auditor.Log(audit.ActionAnalyze, auditSource, map[string]string{"source": source}, summary, started, err)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", source, err)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
	return nil
}
