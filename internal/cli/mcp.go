package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderev/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve reviews over the Model Context Protocol",
	Long: `Start an MCP server on stdio exposing review tools to editor agents.

Tools:
  review_code     — review submitted code and record it in history
  apply_fixes     — apply recommendations to code
  review_history  — list saved reviews`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	st, err := getStore(cmd.Context())
	if err != nil {
		return err
	}
	return mcp.StartMCPServer(cmd.Context(), version, st)
}
