package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/coderev/internal/model"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := ui.Table([]string{"Language", "Value", "Extensions"})
		for _, l := range model.SupportedLanguages() {
			table.Append([]string{l.Name, l.Value, strings.Join(extensionsFor(l.Value), " ")})
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func extensionsFor(lang string) []string {
	var exts []string
	for ext, l := range extLanguages {
		if l == lang {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
