package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/report"
	"github.com/sprite-ai/coderev/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report [id|file]",
	Short: "Export a review as Markdown",
	Long: `Export a review as a Markdown report. The argument is either a
submission ID from review history or the path to a review exported
with "coderev review -o json".

Examples:
  coderev report 01K2X9Q8KT3VJ5M0NHQ5Y4R2ZD
  coderev report review.json -w report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringP("write", "w", "", "write the report to this file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	rev, sub, err := resolveReview(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	writePath, _ := cmd.Flags().GetString("write")
	if writePath != "" {
		f, err := os.Create(writePath)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := report.Write(w, rev, sub); err != nil {
		return err
	}
	if writePath != "" {
		ui.Success("Wrote %s", writePath)
	}
	return nil
}

// resolveReview loads a review from a JSON export on disk, falling back to
// review history when the argument names no file.
func resolveReview(ctx context.Context, arg string) (*model.Review, model.Submission, error) {
	if data, err := os.ReadFile(arg); err == nil {
		var rev model.Review
		if err := json.Unmarshal(data, &rev); err != nil {
			return nil, model.Submission{}, fmt.Errorf("parsing %s: %w", arg, err)
		}
		return &rev, model.Submission{}, nil
	}

	st, err := getStore(ctx)
	if err != nil {
		return nil, model.Submission{}, err
	}

	stored, err := st.GetSubmission(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.Submission{}, fmt.Errorf("no file or stored submission named %q", arg)
	}
	if err != nil {
		return nil, model.Submission{}, err
	}

	rev, err := st.GetReview(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.Submission{}, fmt.Errorf("submission %s has no saved review", arg)
	}
	if err != nil {
		return nil, model.Submission{}, err
	}

	sub := model.Submission{Code: stored.Code, Language: stored.Language, Filename: stored.Filename}
	return rev, sub, nil
}
