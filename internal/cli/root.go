// Package cli implements the coderev command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sprite-ai/coderev/internal/output"
	"github.com/sprite-ai/coderev/internal/store"
)

// Shared state initialized by cobra.OnInitialize before any RunE fires.
var (
	cfgFile   string
	verbose   bool
	ui        *output.UI
	dataStore store.Store
)

var rootCmd = &cobra.Command{
	Use:   "coderev",
	Short: "Multi-agent code review with applyable fixes",
	Long: `coderev reviews code with a suite of rule-based agents, normalizes
their findings into scored, line-anchored issues, and can apply the
suggested fixes.

Reviews run fully offline. The serve command exposes the same engine
over HTTP and WebSocket; mcp exposes it to editor agents over stdio.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute runs the root command. main passes the exit status through.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/coderev/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	configDir := filepath.Join(home, ".config", "coderev")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("db_path", filepath.Join(configDir, "coderev.db"))
	viper.SetDefault("server.addr", "127.0.0.1:8000")
	viper.SetDefault("server.url", "http://127.0.0.1:8000")
	viper.SetDefault("review.language", "python")
	viper.SetDefault("review.max_issues", 50)

	viper.SetEnvPrefix("CODEREV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// getStore opens the SQLite store on first use. Commands that never touch
// history skip the database entirely.
func getStore(ctx context.Context) (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	st, err := store.NewSQLiteStore(viper.GetString("db_path"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	dataStore = st
	return dataStore, nil
}
