package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/RoscoeTheDog/codectx/cache"
	"github.com/RoscoeTheDog/codectx/code_analyzer"
	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
	"github.com/RoscoeTheDog/codectx/config"
	token_models "github.com/RoscoeTheDog/codectx/token_management/models"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// McpCmd: codectx mcp
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP stdio server exposing the code context tools",
	Long: `The 'mcp' subcommand serves the analyzer over the Model Context Protocol on
stdio. Agents get section overviews, budget-fitted file bodies, complexity
reports, token estimates and cache controls as read-only tools. With --watch,
file changes under the working directory invalidate cached results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return fmt.Errorf("failed to initialize dependencies")
		}
		watch, _ := cmd.Flags().GetBool("watch")
		return runMCP(rootDependencies, watch)
	},
}

func init() {
	mcpCmd.Flags().Bool("watch", false, "Invalidate cached results when files change on disk")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(rootDependencies *RootDependencies, watch bool) error {
	if rootDependencies.Cache != nil && rootDependencies.Config.CacheSnapshotPath != "" {
		if loaded, err := rootDependencies.Cache.LoadSnapshot(rootDependencies.Config.CacheSnapshotPath); err != nil {
			log.Printf("Warning: could not restore cache snapshot: %v", err)
		} else if loaded > 0 {
			log.Printf("Restored %d cache entries from %s", loaded, rootDependencies.Config.CacheSnapshotPath)
		}
	}

	if watch && rootDependencies.Cache != nil {
		watcher, err := cache.NewWatcher(rootDependencies.Cache, rootDependencies.Cwd)
		if err != nil {
			log.Printf("Warning: file watching disabled: %v", err)
		} else {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			watcher.Start(ctx)
			defer watcher.Close()
		}
	}

	s := mcpserver.NewMCPServer("codectx", config.DefaultConfig.Version, mcpserver.WithToolCapabilities(false))

	s.AddTool(fileOverviewTool(), makeFileOverviewHandler(rootDependencies))
	s.AddTool(readSectionTool(), makeReadSectionHandler(rootDependencies))
	s.AddTool(readFileTruncatedTool(), makeReadFileTruncatedHandler(rootDependencies))
	s.AddTool(analyzeComplexityTool(), makeAnalyzeComplexityHandler(rootDependencies))
	s.AddTool(estimateTokensTool(), makeEstimateTokensHandler(rootDependencies))
	s.AddTool(listProjectFilesTool(), makeListProjectFilesHandler(rootDependencies))
	s.AddTool(cacheStatsTool(), makeCacheStatsHandler(rootDependencies))
	s.AddTool(invalidateCacheTool(), makeInvalidateCacheHandler(rootDependencies))

	err := mcpserver.ServeStdio(s)

	if rootDependencies.Cache != nil && rootDependencies.Config.CacheSnapshotPath != "" {
		if saveErr := rootDependencies.Cache.SaveSnapshot(rootDependencies.Config.CacheSnapshotPath); saveErr != nil {
			log.Printf("Warning: could not save cache snapshot: %v", saveErr)
		}
	}

	rootDependencies.TokenManagement.DisplayServedTokens()

	return err
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func fileOverviewTool() mcp.Tool {
	return mcp.NewTool("file_overview",
		mcp.WithDescription("Get the section-level overview of a source file: every declaration with its lines, kind, token cost, complexity, signature, doc and call graph, plus whole-file complexity. Use this before reading a file to decide what to fetch."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the source file"),
		),
	)
}

func readSectionTool() mcp.Tool {
	return mcp.NewTool("read_section",
		mcp.WithDescription("Read one named section (function, method, class) of a source file with its metadata. Section names come from file_overview or a retrieval hint."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the source file"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the section to read"),
		),
	)
}

func readFileTruncatedTool() mcp.Tool {
	return mcp.NewTool("read_file_truncated",
		mcp.WithDescription("Read a source file fitted into a token budget. Cheap sections are included first; the rest are listed in a retrieval hint so they can be fetched individually with read_section."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the source file"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Token budget (defaults to the configured max_tokens)"),
		),
	)
}

func analyzeComplexityTool() mcp.Tool {
	return mcp.NewTool("analyze_complexity",
		mcp.WithDescription("Analyze the structural complexity of a file or one of its sections: cyclomatic complexity, nesting, branches, loops, a 0-10 score and whether full detail is recommended."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the source file"),
		),
		mcp.WithString("section",
			mcp.Description("Optional section name to analyze instead of the whole file"),
		),
	)
}

func estimateTokensTool() mcp.Tool {
	return mcp.NewTool("estimate_tokens",
		mcp.WithDescription("Estimate the token cost of arbitrary text before sending it anywhere, with projections to the other detail levels."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to estimate"),
		),
		mcp.WithString("kind",
			mcp.Description("What the text is: 'text', 'code' (default) or 'structured'"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Detail level the text is at: 'minimal', 'normal' (default) or 'detailed'"),
		),
	)
}

func listProjectFilesTool() mcp.Tool {
	return mcp.NewTool("list_project_files",
		mcp.WithDescription("List the project's source files after ignore rules, with language, line count and size."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("root",
			mcp.Description("Directory to list (defaults to the working directory)"),
		),
	)
}

func cacheStatsTool() mcp.Tool {
	return mcp.NewTool("cache_stats",
		mcp.WithDescription("Get cache effectiveness counters (entries, hits, misses, hit rate, invalidations, evictions) and the session's served-token totals."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func invalidateCacheTool() mcp.Tool {
	return mcp.NewTool("invalidate_cache",
		mcp.WithDescription("Drop cached results for one file, or the whole cache when no path is given. Returns the number of entries removed."),
		mcp.WithString("path",
			mcp.Description("Path whose cached results should be dropped"),
		),
	)
}

// --- Handler factories ---

func makeFileOverviewHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		payload, err := serveCached(rootDependencies, path, map[string]interface{}{"tool": "file_overview"}, func() ([]byte, error) {
			return overviewPayload(rootDependencies, path)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("overview failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

// sectionPayload is the read_section response: section metadata plus the body.
type sectionPayload struct {
	Resource string             `json:"resource"`
	Section  models.CodeSection `json:"section"`
	Body     string             `json:"body"`
}

func makeReadSectionHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		name := req.GetString("name", "")
		if path == "" || name == "" {
			return mcp.NewToolResultError("path and name are required"), nil
		}

		payload, err := serveCached(rootDependencies, path, map[string]interface{}{"tool": "read_section", "name": name}, func() ([]byte, error) {
			source, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
			}
			language := rootDependencies.Analyzer.LanguageForPath(path)
			sections, _ := rootDependencies.Analyzer.Sections(source, language)
			for _, section := range sections {
				if section.Name != name {
					continue
				}
				return json.MarshalIndent(sectionPayload{
					Resource: path,
					Section:  section,
					Body:     sectionBody(string(source), section.StartLine, section.EndLine),
				}, "", "  ")
			}
			return nil, fmt.Errorf("section %q not found in %s; call file_overview to see available sections", name, path)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read section failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

func makeReadFileTruncatedHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		maxTokens := req.GetInt("max_tokens", rootDependencies.Config.MaxTokens)

		payload, err := serveCached(rootDependencies, path, map[string]interface{}{"tool": "read_file_truncated", "max_tokens": maxTokens}, func() ([]byte, error) {
			return truncationPayload(rootDependencies, path, maxTokens)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("truncated read failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

// complexityPayload wraps the metrics with the detail recommendation.
type complexityPayload struct {
	Resource            string                   `json:"resource"`
	Section             string                   `json:"section,omitempty"`
	Metrics             models.ComplexityMetrics `json:"metrics"`
	RecommendFullDetail bool                     `json:"recommend_full_detail"`
}

func makeAnalyzeComplexityHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		sectionName := req.GetString("section", "")

		params := map[string]interface{}{"tool": "analyze_complexity"}
		if sectionName != "" {
			params["section"] = sectionName
		}

		payload, err := serveCached(rootDependencies, path, params, func() ([]byte, error) {
			source, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
			}
			language := rootDependencies.Analyzer.LanguageForPath(path)

			target := source
			if sectionName != "" {
				sections, _ := rootDependencies.Analyzer.Sections(source, language)
				found := false
				for _, section := range sections {
					if section.Name == sectionName {
						target = []byte(sectionBody(string(source), section.StartLine, section.EndLine))
						found = true
						break
					}
				}
				if !found {
					return nil, fmt.Errorf("section %q not found in %s", sectionName, path)
				}
			}

			metrics := rootDependencies.Analyzer.AnalyzeComplexity(target, language)
			return json.MarshalIndent(complexityPayload{
				Resource:            path,
				Section:             sectionName,
				Metrics:             metrics,
				RecommendFullDetail: code_analyzer.RecommendFullDetail(metrics),
			}, "", "  ")
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("complexity analysis failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

func makeEstimateTokensHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := req.GetString("text", "")
		if text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		kind, err := token_models.ParseEstimateKind(req.GetString("kind", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		level, err := token_models.ParseDetailLevel(req.GetString("detail_level", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		estimate := rootDependencies.TokenManagement.EstimateWithProjections(text, kind, level)
		payload, err := json.MarshalIndent(estimate, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("estimate failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

func makeListProjectFilesHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root := req.GetString("root", "")
		if root == "" {
			root = rootDependencies.Cwd
		}

		files, err := rootDependencies.Analyzer.ProjectFiles(root)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list files failed: %v", err)), nil
		}

		payload, err := json.MarshalIndent(files, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list files failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

// cacheStatsPayload joins cache counters with session serving totals.
type cacheStatsPayload struct {
	CacheEnabled   bool              `json:"cache_enabled"`
	Cache          *cache.CacheStats `json:"cache,omitempty"`
	ServedTokens   int               `json:"served_tokens"`
	ServedRequests int               `json:"served_requests"`
}

func makeCacheStatsHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		served, requests := rootDependencies.TokenManagement.ServedTokens()
		stats := cacheStatsPayload{
			CacheEnabled:   rootDependencies.Cache != nil,
			ServedTokens:   served,
			ServedRequests: requests,
		}
		if rootDependencies.Cache != nil {
			cacheStats := rootDependencies.Cache.Stats()
			stats.Cache = &cacheStats
		}

		payload, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
		}

		return serveResult(rootDependencies, payload), nil
	}
}

func makeInvalidateCacheHandler(rootDependencies *RootDependencies) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if rootDependencies.Cache == nil {
			return mcp.NewToolResultText(`{"removed": 0, "cache_enabled": false}`), nil
		}

		path := req.GetString("path", "")
		var removed int
		if path == "" {
			removed = rootDependencies.Cache.InvalidateAll()
		} else {
			removed = rootDependencies.Cache.Invalidate(path)
		}

		return mcp.NewToolResultText(fmt.Sprintf(`{"removed": %d, "cache_enabled": true}`, removed)), nil
	}
}

// serveResult records the response's estimated token size and wraps it.
func serveResult(rootDependencies *RootDependencies, payload []byte) *mcp.CallToolResult {
	rootDependencies.TokenManagement.AddServedTokens(
		rootDependencies.TokenManagement.EstimateStructured(json.RawMessage(payload)))
	return mcp.NewToolResultText(string(payload))
}
