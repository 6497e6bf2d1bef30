package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/RoscoeTheDog/codectx/cache"
	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Remove the persisted cache snapshot",
	Long: `The 'reset-cache' command removes the cache snapshot the MCP server writes
on exit, so the next session starts cold. The cache itself lives in memory
and is per-session; without a configured snapshot there is nothing to reset.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Remove the snapshot without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show snapshot statistics instead of resetting")
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	snapshotPath := rootDependencies.Config.CacheSnapshotPath
	if snapshotPath == "" {
		fmt.Println(lipgloss.Yellow.Render("No cache snapshot path is configured; the cache is in-memory and per-session, so there is nothing to reset."))
		return
	}

	fileInfo, err := os.Stat(snapshotPath)
	if os.IsNotExist(err) {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No cache snapshot at %s.", snapshotPath)))
		return
	} else if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error checking snapshot: %v", err)))
		return
	}

	// Show snapshot statistics if requested
	if showStats {
		fmt.Println(lipgloss.Info.Render("Cache Snapshot:"))
		fmt.Printf("  Path: %s\n", snapshotPath)
		fmt.Printf("  Size: %.2f KB\n", float64(fileInfo.Size())/1024)

		probe := cache.NewValidatedCache(rootDependencies.Config.CacheCapacity, cache.NewFileReader())
		if loaded, loadErr := probe.LoadSnapshot(snapshotPath); loadErr == nil {
			fmt.Printf("  Entries: %d\n", loaded)
		} else {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: could not decode snapshot: %v", loadErr)))
		}
		return
	}

	// Confirm removal (if not forced)
	if !force {
		confirmed, promptErr := utils.ConfirmPrompt(bufio.NewReader(os.Stdin), fmt.Sprintf("Remove the cache snapshot at %s?", snapshotPath))
		if promptErr != nil || !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Removing cache snapshot...")

	err = os.Remove(snapshotPath)

	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error removing snapshot: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("✓ Cache snapshot removed. The next session starts cold."))
}
