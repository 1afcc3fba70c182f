package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sprite-ai/coderev/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the review engine.

Endpoints:
  GET  /health                       — Health check
  POST /api/submissions              — Submit code and run a full review
  GET  /api/submissions              — List review history
  GET  /api/submissions/{id}         — Fetch a stored submission and review
  GET  /api/submissions/{id}/code    — Fetch current code text
  GET  /api/submissions/{id}/report  — Markdown report
  POST /api/issues/{id}/fix          — Apply one issue's automatic fix
  POST /api/v2/analyze               — Review code without storing it
  POST /api/v2/recommendations/apply — Apply recommendations to code
  GET  /api/v2/languages             — Supported languages
  POST /review                       — Legacy free-text review
  GET  /ws/analysis                  — WebSocket streaming review`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "listen address (default from config)")
	serveCmd.Flags().String("db", "", "sqlite database path (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		viper.Set("db_path", dbPath)
	}
	st, err := getStore(cmd.Context())
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("server.addr")
	}

	srv := api.New(addr, version, st)
	return srv.ListenAndServe()
}
