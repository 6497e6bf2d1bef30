package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// TruncateCmd: codectx truncate
var truncateCmd = &cobra.Command{
	Use:   "truncate [path]",
	Short: "Fit a source file into a token budget.",
	Long: `The 'truncate' subcommand selects the sections of a source file that fit
into a token budget, cheapest first, and prints the selected text together
with a retrieval hint describing what was left out. The budget comes from
--max_tokens or the configured default.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		handleTruncateCommand(rootDependencies, args[0], rootDependencies.Config.MaxTokens, asJSON)
	},
}

func init() {
	truncateCmd.Flags().Bool("json", false, "Emit the truncation result as JSON")
	rootCmd.AddCommand(truncateCmd)
}

func handleTruncateCommand(rootDependencies *RootDependencies, path string, maxTokens int, asJSON bool) {
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerTruncate, _ := spinner.Start("Selecting sections...")

	payload, err := serveCached(rootDependencies, path, map[string]interface{}{"tool": "read_file_truncated", "max_tokens": maxTokens}, func() ([]byte, error) {
		return truncationPayload(rootDependencies, path, maxTokens)
	})

	spinnerTruncate.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if asJSON {
		fmt.Println(string(payload))
		return
	}

	var result models.TruncationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Failed to decode truncation result: %v", err)))
		return
	}

	language := rootDependencies.Analyzer.LanguageForPath(path)
	utils.RenderCode(result.IncludedText, language, rootDependencies.Config.Theme)

	if result.RetrievalHint != "" {
		fmt.Println(lipgloss.Info.Render(result.RetrievalHint))
	}
}

// truncationPayload reads the file, fits it into the budget and renders the
// result as indented JSON.
func truncationPayload(rootDependencies *RootDependencies, path string, maxTokens int) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	language := rootDependencies.Analyzer.LanguageForPath(path)
	result, err := rootDependencies.Analyzer.Truncate(source, language, maxTokens)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}
