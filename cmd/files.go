package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// FilesCmd: codectx files
var filesCmd = &cobra.Command{
	Use:   "files [root]",
	Short: "List the project files the analyzer would consider.",
	Long: `The 'files' subcommand walks the project (the current directory unless a
root is given) and lists every file that survives the ignore rules, with its
detected language, line count and size.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		root := rootDependencies.Cwd
		if len(args) == 1 {
			root = args[0]
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		handleFilesCommand(rootDependencies, root, asJSON)
	},
}

func init() {
	filesCmd.Flags().Bool("json", false, "Emit the file list as JSON")
	rootCmd.AddCommand(filesCmd)
}

func handleFilesCommand(rootDependencies *RootDependencies, root string, asJSON bool) {
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerFiles, _ := spinner.Start("Scanning project...")

	files, err := rootDependencies.Analyzer.ProjectFiles(root)

	spinnerFiles.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if asJSON {
		payload, marshalErr := json.MarshalIndent(files, "", "  ")
		if marshalErr != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", marshalErr)))
			return
		}
		fmt.Println(string(payload))
		return
	}

	totalLines := 0
	for _, file := range files {
		language := file.Language
		if language == "" {
			language = "-"
		}
		fmt.Printf("%-12s %6d lines  %8d bytes  %s\n", language, file.Lines, file.SizeBytes, file.RelativePath)
		totalLines += file.Lines
	}
	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("%d files, %d lines", len(files), totalLines)))
}
