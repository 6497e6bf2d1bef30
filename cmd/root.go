package cmd

import (
	"fmt"
	"os"

	"github.com/RoscoeTheDog/codectx/cache"
	"github.com/RoscoeTheDog/codectx/code_analyzer"
	contracts_analyzer "github.com/RoscoeTheDog/codectx/code_analyzer/contracts"
	"github.com/RoscoeTheDog/codectx/config"
	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/token_management"
	contracts_token "github.com/RoscoeTheDog/codectx/token_management/contracts"
	"github.com/spf13/cobra"
)

// RootDependencies holds the wired services every subcommand works with.
type RootDependencies struct {
	Config          *config.Config
	Analyzer        contracts_analyzer.ICodeAnalyzer
	Cache           *cache.ValidatedCache
	TokenManagement contracts_token.ITokenManagement
	Cwd             string
}

// RootCmd: codectx
var rootCmd = &cobra.Command{
	Use:   "codectx",
	Short: "Serve token-budget-aware views of source code to coding agents.",
	Long: `codectx is a local code context sidecar. It splits source files into
declaration-level sections, scores their complexity, estimates their token
cost and fits them into a token budget, serving the results over a CLI and
an MCP stdio server backed by a content-validated cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads configuration and wires the services subcommands
// share. Returns nil when the environment is unusable.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigWithCache(cmd.Root(), cwd)

	rootDependencies := &RootDependencies{
		Config:          cfg,
		Cwd:             cwd,
		Analyzer:        code_analyzer.NewCodeAnalyzer(cwd),
		TokenManagement: token_management.NewTokenManager(),
	}

	if cfg.EnableCache {
		rootDependencies.Cache = cache.NewValidatedCache(cfg.CacheCapacity, cache.NewFileReader())
	}

	return rootDependencies
}

// serveCached returns the cached payload for (resourceID, params) when it is
// still valid, otherwise computes a fresh one and stores it. With caching
// disabled it always computes.
func serveCached(rootDependencies *RootDependencies, resourceID string, params map[string]interface{}, compute func() ([]byte, error)) ([]byte, error) {
	if rootDependencies.Cache != nil {
		if hit, _ := rootDependencies.Cache.Get(resourceID, params); hit != nil {
			return hit.Payload, nil
		}
	}

	payload, err := compute()
	if err != nil {
		return nil, err
	}

	if rootDependencies.Cache != nil {
		rootDependencies.Cache.Put(resourceID, params, payload)
	}
	return payload, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}
