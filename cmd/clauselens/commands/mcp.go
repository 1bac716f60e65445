package commands

import (
	"log"
	"os/signal"
	"syscall"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/ericksa/clauselens/pkg/mcp"
)

// NewMCPCmd serves the document tools over stdio.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve analyze_document and ask_document over MCP stdio",
		Long: `Run clauselens as an MCP server on stdin/stdout so an agent can call
analyze_document and ask_document directly.`,
		Example: `  # claude_desktop_config.json
  # {
  #   "mcpServers": {
  #     "clauselens": {"command": "clauselens", "args": ["mcp"]}
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	h := mcp.NewHandler(env.service, env.auditor, version)
	log.Printf("clauselens MCP server running on stdio")
	if err := h.Server().Run(ctx, &gomcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
