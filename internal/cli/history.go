package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderev/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved reviews",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum entries to list")
	historyCmd.Flags().Int("offset", 0, "entries to skip")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := getStore(cmd.Context())
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	entries, err := st.ListSubmissions(cmd.Context(), limit, offset)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.Info("No reviews saved yet.")
		return nil
	}

	table := ui.Table([]string{"ID", "Created", "Language", "File", "Score", "Issues", "Fixed"})
	for _, e := range entries {
		file := e.Filename
		if file == "" {
			file = "-"
		}
		table.Append([]string{
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Language,
			file,
			output.ScoreColor(e.Score),
			strconv.Itoa(e.IssueCount),
			strconv.Itoa(e.FixedCount),
		})
	}
	return table.Render()
}
