package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AnalyzeCmd: codectx analyze
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Show the section-level overview of a source file.",
	Long: `The 'analyze' subcommand splits a source file into declaration-level sections
and reports each section's lines, kind, token cost, complexity and signature,
plus a whole-file complexity summary. Use --section to print a single
section's body instead of the overview.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		sectionName, _ := cmd.Flags().GetString("section")
		asJSON, _ := cmd.Flags().GetBool("json")
		handleAnalyzeCommand(rootDependencies, args[0], sectionName, asJSON)
	},
}

func init() {
	analyzeCmd.Flags().String("section", "", "Print the named section's body instead of the overview")
	analyzeCmd.Flags().Bool("json", false, "Emit the overview as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func handleAnalyzeCommand(rootDependencies *RootDependencies, path string, sectionName string, asJSON bool) {
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerAnalyze, _ := spinner.Start("Analyzing...")

	payload, err := serveCached(rootDependencies, path, map[string]interface{}{"tool": "file_overview"}, func() ([]byte, error) {
		return overviewPayload(rootDependencies, path)
	})

	spinnerAnalyze.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	var overview models.FileOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Failed to decode overview: %v", err)))
		return
	}

	if sectionName != "" {
		printSectionBody(rootDependencies, path, &overview, sectionName)
		return
	}

	if asJSON {
		fmt.Println(string(payload))
		return
	}

	printOverview(&overview)
}

// overviewPayload reads the file and renders its overview as indented JSON,
// the form both the CLI and the MCP server serve and cache.
func overviewPayload(rootDependencies *RootDependencies, path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	language := rootDependencies.Analyzer.LanguageForPath(path)
	overview := rootDependencies.Analyzer.Overview(path, source, language)
	return json.MarshalIndent(overview, "", "  ")
}

func printOverview(overview *models.FileOverview) {
	language := overview.Language
	if language == "" {
		language = "unknown"
	}
	header := fmt.Sprintf("%s\nlanguage: %s  parse: %s  sections: %d  ~%d tokens\ncomplexity: %.2f (%s)",
		overview.Resource, language, overview.ParseMode, len(overview.Sections),
		overview.TotalTokenCost, overview.Complexity.Score, overview.Complexity.Level)
	fmt.Println(lipgloss.BoxStyle.Render(header))

	for _, section := range overview.Sections {
		lines := fmt.Sprintf("%d-%d", section.StartLine, section.EndLine)
		fmt.Printf("%10s  %-8s %-24s %6d tokens  %s\n",
			lines, section.Kind, section.Name, section.TokenCost,
			complexityStyle(section.Complexity).Render(string(section.Complexity)))
		if section.Signature != "" {
			fmt.Printf("%10s  %s\n", "", lipgloss.Info.Render(section.Signature))
		}
	}
}

func printSectionBody(rootDependencies *RootDependencies, path string, overview *models.FileOverview, name string) {
	for _, section := range overview.Sections {
		if section.Name != name {
			continue
		}
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Failed to read %s: %v", path, err)))
			return
		}
		meta := fmt.Sprintf("%s %s  lines %d-%d  ~%d tokens  complexity %s",
			section.Kind, section.Name, section.StartLine, section.EndLine,
			section.TokenCost, section.Complexity)
		fmt.Println(lipgloss.BoxStyle.Render(meta))
		utils.RenderCode(sectionBody(string(source), section.StartLine, section.EndLine), overview.Language, rootDependencies.Config.Theme)
		return
	}

	names := make([]string, 0, len(overview.Sections))
	for _, section := range overview.Sections {
		names = append(names, section.Name)
	}
	fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Section %q not found. Available: %s", name, strings.Join(names, ", "))))
}

// sectionBody slices the 1-based inclusive line range out of source.
func sectionBody(source string, startLine int, endLine int) string {
	lines := strings.Split(source, "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}

func complexityStyle(level models.ComplexityLevel) lipgloss.Style {
	switch level {
	case models.ComplexityHigh:
		return lipgloss.Red
	case models.ComplexityMedium:
		return lipgloss.Yellow
	default:
		return lipgloss.Green
	}
}
