package code_analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

// Truncate fits source into maxTokens by selecting whole sections. Cheap
// sections are admitted first so the budget covers as many declarations as
// possible, with higher complexity breaking cost ties. When nothing fits,
// the cheapest section is served anyway so a response is never empty.
func (analyzer *CodeAnalyzer) Truncate(source []byte, language string, maxTokens int) (*models.TruncationResult, error) {
	if maxTokens < 0 {
		return nil, fmt.Errorf("max tokens must be non-negative, got %d", maxTokens)
	}

	sections, _ := analyzer.Sections(source, language)
	included, truncated := selectWithinBudget(sections, maxTokens)

	result := &models.TruncationResult{
		Included:  included,
		Truncated: truncated,
	}
	parts := make([]string, 0, len(included))
	for _, section := range included {
		parts = append(parts, section.Content)
	}
	result.IncludedText = strings.Join(parts, "\n\n")
	for _, section := range truncated {
		result.TruncatedTokenTotal += section.TokenCost
	}
	result.RetrievalHint = retrievalHint(truncated)
	return result, nil
}

// selectWithinBudget greedily admits sections ordered by cost ascending,
// complexity descending, then start line. Both returned slices are ordered
// by position in the file.
func selectWithinBudget(sections []models.CodeSection, maxTokens int) (included []models.CodeSection, truncated []models.CodeSection) {
	if len(sections) == 0 {
		return nil, nil
	}

	candidates := make([]models.CodeSection, len(sections))
	copy(candidates, sections)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].TokenCost != candidates[j].TokenCost {
			return candidates[i].TokenCost < candidates[j].TokenCost
		}
		if candidates[i].Complexity.Rank() != candidates[j].Complexity.Rank() {
			return candidates[i].Complexity.Rank() > candidates[j].Complexity.Rank()
		}
		return candidates[i].StartLine < candidates[j].StartLine
	})

	budget := maxTokens
	for _, candidate := range candidates {
		if candidate.TokenCost <= budget {
			included = append(included, candidate)
			budget -= candidate.TokenCost
		} else {
			truncated = append(truncated, candidate)
		}
	}

	// Serve at least the cheapest section even over budget.
	if len(included) == 0 {
		included = candidates[:1]
		truncated = truncated[1:]
	}

	byStartLine := func(sections []models.CodeSection) func(i, j int) bool {
		return func(i, j int) bool {
			if sections[i].StartLine != sections[j].StartLine {
				return sections[i].StartLine < sections[j].StartLine
			}
			return sections[i].EndLine > sections[j].EndLine
		}
	}
	sort.SliceStable(included, byStartLine(included))
	sort.SliceStable(truncated, byStartLine(truncated))
	return included, truncated
}

// retrievalHint tells the caller what was omitted and how to fetch it,
// naming up to three of the most complex omitted sections.
func retrievalHint(truncated []models.CodeSection) string {
	if len(truncated) == 0 {
		return ""
	}
	total := 0
	for _, section := range truncated {
		total += section.TokenCost
	}

	ranked := make([]models.CodeSection, len(truncated))
	copy(ranked, truncated)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Complexity.Rank() != ranked[j].Complexity.Rank() {
			return ranked[i].Complexity.Rank() > ranked[j].Complexity.Rank()
		}
		if ranked[i].TokenCost != ranked[j].TokenCost {
			return ranked[i].TokenCost > ranked[j].TokenCost
		}
		return ranked[i].StartLine < ranked[j].StartLine
	})
	limit := 3
	if len(ranked) < limit {
		limit = len(ranked)
	}
	names := make([]string, 0, limit)
	for _, section := range ranked[:limit] {
		names = append(names, section.Name)
	}

	return fmt.Sprintf("%d sections (~%d tokens) omitted. Most complex: %s. Use read_section to fetch one by name.",
		len(truncated), total, strings.Join(names, ", "))
}
