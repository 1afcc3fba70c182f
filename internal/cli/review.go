package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sprite-ai/coderev/internal/analyze"
	"github.com/sprite-ai/coderev/internal/client"
	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/output"
	"github.com/sprite-ai/coderev/internal/patch"
	"github.com/sprite-ai/coderev/internal/report"
	"github.com/sprite-ai/coderev/internal/store"
	"github.com/sprite-ai/coderev/internal/stream"
	"github.com/sprite-ai/coderev/internal/timing"
	"github.com/sprite-ai/coderev/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review code and print the normalized result",
	Long: `Review code with the rule-based agent suite and print the normalized
result. Code comes from a file argument, stdin, or a diff.

Examples:
  coderev review main.py                   # review a file
  cat main.py | coderev review -           # review stdin
  coderev review --diff changes.patch      # review lines added by a patch
  coderev review --diff-range main...HEAD  # review lines added on a branch
  coderev review main.py --tui             # browse issues, apply fixes
  coderev review main.py --save            # record in review history
  coderev review main.py --server http://localhost:8000 --stream

Exit codes with --fail-on:
  0 — no issues at or above the threshold
  1 — issues at or above the threshold
  2 — issues at high severity or above`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("language", "l", "", "language of the code (default detected from extension)")
	reviewCmd.Flags().String("diff", "", "review added lines from a unified diff file (\"-\" for stdin)")
	reviewCmd.Flags().String("diff-range", "", "review added lines from git diff against a range")
	reviewCmd.Flags().StringP("output", "o", "text", "output format: text, json, markdown, free-text")
	reviewCmd.Flags().Bool("tui", false, "browse the review interactively and apply fixes")
	reviewCmd.Flags().Bool("save", false, "record the submission and review in history")
	reviewCmd.Flags().String("apply", "", "write code with auto-fixable recommendations applied to this file")
	reviewCmd.Flags().String("server", "", "review via a running coderev server instead of in-process")
	reviewCmd.Flags().Bool("stream", false, "stream per-agent progress over WebSocket (implies --server)")
	reviewCmd.Flags().String("fail-on", "", "exit non-zero when issues reach this severity (low, medium, high, critical)")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	diffFile, _ := cmd.Flags().GetString("diff")
	diffRange, _ := cmd.Flags().GetString("diff-range")
	if diffFile != "" || diffRange != "" {
		return runDiffReview(cmd, diffFile, diffRange)
	}

	sub, err := readSubmission(cmd, args)
	if err != nil {
		return err
	}

	rev, err := analyzeSubmission(cmd, sub)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := saveReview(cmd.Context(), sub, rev); err != nil {
			return err
		}
	}

	if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
		return runReviewTUI(cmd, sub, rev)
	}

	if applyPath, _ := cmd.Flags().GetString("apply"); applyPath != "" {
		out := fix.ApplyRecommendations(sub.Code, autoFixable(rev.FixProposals))
		if err := os.WriteFile(applyPath, []byte(out.FinalCode), 0644); err != nil {
			return fmt.Errorf("writing fixed code: %w", err)
		}
		ui.Success("Applied %d of %d fix(es), wrote %s", out.Applied, out.Total, applyPath)
	}

	if err := writeReview(cmd, rev, sub); err != nil {
		return err
	}
	return failOn(cmd, rev)
}

// runDiffReview reviews only the lines a diff adds, remapping issue line
// numbers back onto the post-change files.
func runDiffReview(cmd *cobra.Command, diffFile, diffRange string) error {
	if useTUI, _ := cmd.Flags().GetBool("tui"); useTUI {
		return fmt.Errorf("--tui reviews a single submission and cannot be combined with --diff")
	}
	if applyPath, _ := cmd.Flags().GetString("apply"); applyPath != "" {
		return fmt.Errorf("--apply rewrites a single submission and cannot be combined with --diff")
	}
	if save, _ := cmd.Flags().GetBool("save"); save {
		return fmt.Errorf("--save records a single submission and cannot be combined with --diff")
	}

	raw, err := readDiff(diffFile, diffRange)
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		fmt.Println("No changes to review.")
		return nil
	}

	set, err := patch.Parse(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parsing diff: %w", err)
	}

	files := set.Reviewable()
	if len(files) == 0 {
		fmt.Println("No changes to review.")
		return nil
	}

	nFiles, added, deleted := set.Stats()
	fmt.Fprintf(os.Stderr, "%d file(s) changed, +%d -%d\n", nFiles, added, deleted)

	flagLang, _ := cmd.Flags().GetString("language")

	merged := &model.Review{}
	for _, f := range files {
		code, lineMap := f.AddedCode()
		lang := flagLang
		if lang == "" {
			lang = detectLanguage(f.Name())
		}
		if lang == "" {
			lang = viper.GetString("review.language")
		}
		if !model.LanguageSupported(lang) {
			ui.VerboseLog("Skipping %s: unsupported language %q", f.Name(), lang)
			continue
		}

		rev, err := analyzeSubmission(cmd, model.Submission{Code: code, Language: lang, Filename: f.Name()})
		if err != nil {
			return err
		}
		for _, is := range rev.Issues {
			if is.LineNumber != nil {
				if n := *is.LineNumber; n >= 1 && n <= len(lineMap) {
					mapped := lineMap[n-1]
					is.LineNumber = &mapped
				}
			}
			is.FilePath = f.Name()
			merged.Issues = append(merged.Issues, is)
		}
		merged.AgentsUsed = rev.AgentsUsed
	}

	merged.Score = model.Score(merged.Issues)
	merged.OverallAssessment = analyze.Summary(merged.Issues)

	if err := writeReview(cmd, merged, model.Submission{Language: flagLang}); err != nil {
		return err
	}
	return failOn(cmd, merged)
}

func runReviewTUI(cmd *cobra.Command, sub model.Submission, rev *model.Review) error {
	st, err := tui.Run(rev, sub)
	if err != nil {
		return err
	}
	if st == nil || !st.Changed() {
		return nil
	}

	applyPath, _ := cmd.Flags().GetString("apply")
	if applyPath == "" {
		fmt.Fprintf(os.Stderr, "%d fix(es) applied in session; pass --apply FILE to keep the result.\n", len(st.Records))
		return nil
	}
	if err := os.WriteFile(applyPath, []byte(st.Current), 0644); err != nil {
		return fmt.Errorf("writing fixed code: %w", err)
	}
	ui.Success("Wrote fixed code to %s", applyPath)
	return nil
}

func readSubmission(cmd *cobra.Command, args []string) (model.Submission, error) {
	var sub model.Submission
	if len(args) == 0 {
		return sub, fmt.Errorf("nothing to review: pass a file, \"-\" for stdin, or --diff")
	}

	if args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return sub, fmt.Errorf("reading stdin: %w", err)
		}
		sub.Code = string(data)
	} else {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return sub, fmt.Errorf("reading %s: %w", args[0], err)
		}
		sub.Code = string(data)
		sub.Filename = filepath.Base(args[0])
	}

	if strings.TrimSpace(sub.Code) == "" {
		return sub, fmt.Errorf("nothing to review: input is empty")
	}

	lang, _ := cmd.Flags().GetString("language")
	if lang == "" {
		lang = detectLanguage(sub.Filename)
	}
	if lang == "" {
		lang = viper.GetString("review.language")
	}
	if !model.LanguageSupported(lang) {
		return sub, fmt.Errorf("unsupported language %q; run `coderev languages`", lang)
	}
	sub.Language = lang
	return sub, nil
}

var extLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".go":   "go",
	".rs":   "rust",
	".php":  "php",
	".rb":   "ruby",
}

func detectLanguage(filename string) string {
	return extLanguages[strings.ToLower(filepath.Ext(filename))]
}

// analyzeSubmission runs the review in-process, or against a server when
// --server (or --stream) asks for one.
func analyzeSubmission(cmd *cobra.Command, sub model.Submission) (*model.Review, error) {
	serverURL, _ := cmd.Flags().GetString("server")
	streaming, _ := cmd.Flags().GetBool("stream")
	if serverURL == "" && streaming {
		serverURL = viper.GetString("server.url")
	}
	if serverURL == "" {
		return analyze.Run(sub), nil
	}

	c := client.New(serverURL)
	ui.VerboseLog("Reviewing via %s", serverURL)
	if !streaming {
		return c.Analyze(cmd.Context(), sub)
	}
	return c.StreamAnalysis(cmd.Context(), sub, streamProgress)
}

// streamProgress narrates a streaming analysis on stderr so piped output
// stays clean.
func streamProgress(ev stream.Event) {
	switch ev.Type {
	case stream.EventStatus:
		if ev.Status == "started" {
			fmt.Fprintf(os.Stderr, "Analysis started (%d agents)\n", ev.TotalAgents)
		}
	case stream.EventAgentStart:
		fmt.Fprintf(os.Stderr, "  %s...\n", ev.Agent)
	case stream.EventAgentComplete:
		fmt.Fprintf(os.Stderr, "  %s: %d issue(s) in %.2fs\n", ev.Agent, ev.IssuesFound, ev.ProcessingTime)
	case stream.EventAgentError:
		fmt.Fprintf(os.Stderr, "  %s failed: %s\n", ev.Agent, ev.Error)
	case stream.EventComplete:
		fmt.Fprintf(os.Stderr, "Analysis complete in %.2fs\n", ev.TotalTime)
	}
}

func saveReview(ctx context.Context, sub model.Submission, rev *model.Review) error {
	st, err := getStore(ctx)
	if err != nil {
		return err
	}

	stored := &store.Submission{
		Code:     sub.Code,
		Language: sub.Language,
		Filename: sub.Filename,
		Source:   "cli",
	}
	if err := st.SaveSubmission(ctx, stored); err != nil {
		return fmt.Errorf("saving submission: %w", err)
	}
	if err := st.SaveReview(ctx, stored.ID, rev); err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	ui.Success("Saved review %s", stored.ID)
	return nil
}

func writeReview(cmd *cobra.Command, rev *model.Review, sub model.Submission) error {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rev)
	case "markdown":
		return report.Write(os.Stdout, rev, sub)
	case "free-text":
		fmt.Print(report.FreeText(rev))
		return nil
	case "text", "":
		printReview(rev)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printReview(rev *model.Review) {
	fmt.Fprintf(ui.Out, "Score %s/100", output.ScoreColor(rev.Score))
	if len(rev.AgentsUsed) > 0 {
		fmt.Fprintf(ui.Out, "  (%s)", strings.Join(rev.AgentsUsed, ", "))
	}
	fmt.Fprintln(ui.Out)
	if rev.OverallAssessment != "" {
		fmt.Fprintln(ui.Out, rev.OverallAssessment)
	}
	fmt.Fprintln(ui.Out)

	shown := rev.Issues
	if max := viper.GetInt("review.max_issues"); max > 0 && len(shown) > max {
		shown = shown[:max]
	}

	var order []string
	byFile := make(map[string][]model.Issue)
	for _, is := range shown {
		if _, ok := byFile[is.FilePath]; !ok {
			order = append(order, is.FilePath)
		}
		byFile[is.FilePath] = append(byFile[is.FilePath], is)
	}

	for _, file := range order {
		fmt.Fprintf(ui.Out, "  %s\n", output.Cyan(file))
		for _, is := range byFile[file] {
			loc := ""
			if is.LineNumber != nil {
				loc = fmt.Sprintf(" (line %d)", *is.LineNumber)
			}
			sev := model.ParseSeverity(is.Severity).String()
			fmt.Fprintf(ui.Out, "    [%s] %s%s\n", output.SeverityColor(sev), is.Title, loc)
			if is.Suggestion != "" {
				fmt.Fprintf(ui.Out, "        %s\n", is.Suggestion)
			}
		}
	}
	if hidden := len(rev.Issues) - len(shown); hidden > 0 {
		fmt.Fprintf(ui.Out, "  ... %d more issue(s); raise review.max_issues to see them\n", hidden)
	}
	fmt.Fprintln(ui.Out)

	printList("Best practices", rev.BestPractices)
	printList("Security", rev.SecurityConcerns)
	printList("Performance", rev.PerformanceNotes)
	printList("Recommendations", rev.Recommendations)

	if n := len(autoFixable(rev.FixProposals)); n > 0 {
		ui.Info("%d auto-fixable recommendation(s); re-run with --tui or --apply", n)
	}

	if tm := rev.Timing; tm != nil {
		if len(tm.Steps) > 0 {
			table := ui.Table([]string{"Step", "Time", "Share"})
			for _, s := range tm.Steps {
				table.Append([]string{s.Name, timing.FormatMs(float64(s.Ms)), timing.FormatPercent(s.Percent)})
			}
			table.Render()
		} else if tm.TotalSeconds > 0 {
			ui.VerboseLog("Analyzed in %.2fs", tm.TotalSeconds)
		}
	}
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(ui.Out, "  %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(ui.Out, "    - %s\n", item)
	}
	fmt.Fprintln(ui.Out)
}

func autoFixable(recs []model.Recommendation) []model.Recommendation {
	var out []model.Recommendation
	for _, rec := range recs {
		if rec.AutoFixable {
			out = append(out, rec)
		}
	}
	return out
}

func failOn(cmd *cobra.Command, rev *model.Review) error {
	threshold, _ := cmd.Flags().GetString("fail-on")
	if threshold == "" {
		return nil
	}
	switch threshold {
	case "info", "low", "medium", "high", "critical":
	default:
		return fmt.Errorf("invalid --fail-on severity %q", threshold)
	}

	max := rev.MaxSeverity()
	if max < model.ParseSeverity(threshold) {
		return nil
	}
	if max >= model.SeverityHigh {
		os.Exit(2)
	}
	os.Exit(1)
	return nil
}

func readDiff(diffFile, diffRange string) (string, error) {
	if diffFile == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	if diffFile != "" {
		data, err := os.ReadFile(diffFile)
		if err != nil {
			return "", fmt.Errorf("reading diff: %w", err)
		}
		return string(data), nil
	}

	repoDir, err := gitRepoRoot()
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	return patch.GitDiffRange(repoDir, diffRange, 3)
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
