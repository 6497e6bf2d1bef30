package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/token_management/models"
	"github.com/spf13/cobra"
)

// EstimateCmd: codectx estimate
var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate the token cost of text, code or a structured payload.",
	Long: `The 'estimate' subcommand applies the character-ratio token heuristics to
its argument, or to stdin when no argument (or '-') is given, and reports the
estimate together with projections to the other detail levels.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		kindFlag, _ := cmd.Flags().GetString("kind")
		asJSON, _ := cmd.Flags().GetBool("json")
		handleEstimateCommand(rootDependencies, args, kindFlag, asJSON)
	},
}

func init() {
	estimateCmd.Flags().String("kind", "code", "What the input is: 'text', 'code' or 'structured'")
	estimateCmd.Flags().Bool("json", false, "Emit the estimate as JSON")
	rootCmd.AddCommand(estimateCmd)
}

func handleEstimateCommand(rootDependencies *RootDependencies, args []string, kindFlag string, asJSON bool) {
	content, err := estimateInput(args)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	kind, err := models.ParseEstimateKind(kindFlag)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	level, err := models.ParseDetailLevel(rootDependencies.Config.DetailLevel)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	estimate := rootDependencies.TokenManagement.EstimateWithProjections(content, kind, level)

	if asJSON {
		payload, marshalErr := json.MarshalIndent(estimate, "", "  ")
		if marshalErr != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", marshalErr)))
			return
		}
		fmt.Println(string(payload))
		return
	}

	summary := fmt.Sprintf("~%d tokens (%s, %s detail)", estimate.Tokens, estimate.Kind, estimate.DetailLevel)
	fmt.Println(lipgloss.BoxStyle.Render(summary))
	if estimate.IfMinimal != nil {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("  minimal:  ~%d", *estimate.IfMinimal)))
	}
	if estimate.IfNormal != nil {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("  normal:   ~%d", *estimate.IfNormal)))
	}
	if estimate.IfDetailed != nil {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("  detailed: ~%d", *estimate.IfDetailed)))
	}
}

// estimateInput takes the text from the argument, or from stdin when the
// argument is missing or "-".
func estimateInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(content), "\n"), nil
}
