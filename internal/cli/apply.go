package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderev/internal/client"
	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
)

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Apply saved fix recommendations to code",
	Long: `Apply a saved set of fix recommendations to code. Recommendations come
from a JSON file: a bare recommendations array applies as-is, while a
full review export (coderev review -o json) applies only its
auto-fixable proposals.

Examples:
  coderev review main.py -o json > review.json
  coderev apply main.py -r review.json -w main.py   # fix in place
  cat main.py | coderev apply - -r recs.json        # fixed code on stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("recommendations", "r", "", "JSON file with recommendations to apply")
	applyCmd.Flags().StringP("write", "w", "", "write fixed code to this file instead of stdout")
	applyCmd.Flags().Bool("dry-run", false, "report what would change without writing")
	applyCmd.Flags().String("server", "", "apply via a running coderev server instead of in-process")
	applyCmd.MarkFlagRequired("recommendations")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	recsPath, _ := cmd.Flags().GetString("recommendations")
	recs, err := loadRecommendations(recsPath)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		ui.Warning("No applicable recommendations in %s", recsPath)
		return nil
	}

	code, err := readCode(args)
	if err != nil {
		return err
	}

	var out fix.Outcome
	if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
		res, err := client.New(serverURL).ApplyFixes(cmd.Context(), code, recs)
		if err != nil {
			return err
		}
		out = *res
	} else {
		out = fix.ApplyRecommendations(code, recs)
	}

	for _, res := range out.Results {
		if res.Success {
			ui.VerboseLog("applied %s", res.RecommendationID)
		} else {
			ui.Warning("%s: %s", res.RecommendationID, res.Error)
		}
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		ui.DryRun = true
		ui.DryRunMsg("would apply %d of %d recommendation(s)", out.Applied, out.Total)
		if out.Diff != "" {
			fmt.Fprint(ui.Out, out.Diff)
		}
		return nil
	}

	writePath, _ := cmd.Flags().GetString("write")
	if writePath == "" {
		fmt.Print(out.FinalCode)
		fmt.Fprintf(os.Stderr, "Applied %d of %d recommendation(s)\n", out.Applied, out.Total)
		return nil
	}
	if err := os.WriteFile(writePath, []byte(out.FinalCode), 0644); err != nil {
		return fmt.Errorf("writing fixed code: %w", err)
	}
	ui.Success("Applied %d of %d recommendation(s), wrote %s", out.Applied, out.Total, writePath)
	return nil
}

// loadRecommendations accepts a bare recommendations array, a review
// export, or an API apply-request body.
func loadRecommendations(path string) ([]model.Recommendation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recommendations: %w", err)
	}

	var recs []model.Recommendation
	if err := json.Unmarshal(data, &recs); err == nil {
		return recs, nil
	}

	var rev model.Review
	if err := json.Unmarshal(data, &rev); err == nil && len(rev.FixProposals) > 0 {
		return autoFixable(rev.FixProposals), nil
	}

	var wrapper struct {
		Recommendations []model.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.Recommendations) > 0 {
		return wrapper.Recommendations, nil
	}

	return nil, fmt.Errorf("%s holds no recommendations array or review export", path)
}

func readCode(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("nothing to fix: pass a file or \"-\" for stdin")
	}
	if args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
