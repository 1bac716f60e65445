package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericksa/clauselens/internal/audit"
)

func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <path|url> <question>",
		Short: "Answer a question about a legal PDF",
		Long: `Ask a question about a legal PDF. The answer is drawn only from the
clauses most relevant to the question.

Examples:
  clauselens ask lease.pdf "How much notice is needed to terminate?"
  clauselens ask https://example.com/lease.pdf "Can I keep a pet?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	source := args[0]
	question := strings.Join(args[1:], " ")
	started := time.Now()

	var answer string
	if isURL(source) {
		answer, err = env.service.Ask(ctx, source, question)
	} else {
		data, key, rerr := readLocal(source)
		if rerr != nil {
			err = rerr
		} else {
			answer, err = env.service.AskDocument(ctx, key, data, question)
		}
	}

	env.auditor.Log(audit.ActionChat, auditSource, map[string]string{"source": source, "question": question}, answer, started, err)
	if err != nil {
		return fmt.Errorf("asking about %s: %w", source, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
