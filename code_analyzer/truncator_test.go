package code_analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

func makeSection(name string, cost int, startLine int, level models.ComplexityLevel) models.CodeSection {
	return models.CodeSection{
		Name:       name,
		Kind:       models.SectionFunction,
		StartLine:  startLine,
		EndLine:    startLine + 1,
		TokenCost:  cost,
		Complexity: level,
		Content:    fmt.Sprintf("func %s() {}", name),
	}
}

func sectionNames(sections []models.CodeSection) []string {
	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Name)
	}
	return names
}

func TestSelectWithinBudget_GreedyCheapFirst(t *testing.T) {
	sections := []models.CodeSection{
		makeSection("large", 500, 1, models.ComplexityHigh),
		makeSection("small", 40, 10, models.ComplexityLow),
		makeSection("medium", 60, 20, models.ComplexityLow),
	}

	included, truncated := selectWithinBudget(sections, 150)
	assert.Equal(t, []string{"small", "medium"}, sectionNames(included))
	assert.Equal(t, []string{"large"}, sectionNames(truncated))
}

func TestSelectWithinBudget_ResultsOrderedByPosition(t *testing.T) {
	sections := []models.CodeSection{
		makeSection("third", 30, 30, models.ComplexityLow),
		makeSection("first", 50, 1, models.ComplexityLow),
		makeSection("second", 20, 15, models.ComplexityLow),
	}

	included, truncated := selectWithinBudget(sections, 1000)
	assert.Empty(t, truncated)
	assert.Equal(t, []string{"first", "second", "third"}, sectionNames(included))
}

func TestSelectWithinBudget_ComplexityBreaksCostTies(t *testing.T) {
	sections := []models.CodeSection{
		makeSection("plain", 50, 1, models.ComplexityLow),
		makeSection("gnarly", 50, 20, models.ComplexityHigh),
	}

	included, truncated := selectWithinBudget(sections, 50)
	require.Len(t, included, 1)
	assert.Equal(t, "gnarly", included[0].Name)
	assert.Equal(t, []string{"plain"}, sectionNames(truncated))
}

func TestSelectWithinBudget_CheapestGuarantee(t *testing.T) {
	sections := []models.CodeSection{
		makeSection("big", 300, 1, models.ComplexityLow),
		makeSection("bigger", 400, 10, models.ComplexityLow),
	}

	included, truncated := selectWithinBudget(sections, 10)
	require.Len(t, included, 1)
	assert.Equal(t, "big", included[0].Name)
	assert.Equal(t, []string{"bigger"}, sectionNames(truncated))

	included, truncated = selectWithinBudget(sections, 0)
	require.Len(t, included, 1)
	assert.Equal(t, "big", included[0].Name)
	assert.Len(t, truncated, 1)
}

func TestSelectWithinBudget_Empty(t *testing.T) {
	included, truncated := selectWithinBudget(nil, 100)
	assert.Empty(t, included)
	assert.Empty(t, truncated)
}

func TestRetrievalHint(t *testing.T) {
	assert.Empty(t, retrievalHint(nil))

	truncated := []models.CodeSection{
		makeSection("a", 20, 1, models.ComplexityLow),
		makeSection("b", 30, 10, models.ComplexityLow),
		makeSection("c", 40, 20, models.ComplexityMedium),
		makeSection("d", 10, 30, models.ComplexityHigh),
	}

	hint := retrievalHint(truncated)
	assert.Equal(t, "4 sections (~100 tokens) omitted. Most complex: d, c, b. Use read_section to fetch one by name.", hint)
}

func TestTruncate_EndToEnd(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	var builder strings.Builder
	builder.WriteString("package sample\n\n")
	builder.WriteString("func tiny() int {\n\treturn 1\n}\n\n")
	builder.WriteString("func small() int {\n\treturn 1 + 2\n}\n\n")
	builder.WriteString("func large(n int) int {\n\ttotal := 0\n")
	for i := 0; i < 40; i++ {
		builder.WriteString(fmt.Sprintf("\ttotal += n * %d\n", i))
	}
	builder.WriteString("\treturn total\n}\n")
	src := []byte(builder.String())

	sections, _ := analyzer.Sections(src, "go")
	require.Len(t, sections, 3)
	budget := sections[0].TokenCost + sections[1].TokenCost

	result, err := analyzer.Truncate(src, "go", budget)
	require.NoError(t, err)

	assert.Equal(t, []string{"tiny", "small"}, sectionNames(result.Included))
	assert.Equal(t, []string{"large"}, sectionNames(result.Truncated))
	assert.Equal(t, sections[2].TokenCost, result.TruncatedTokenTotal)

	expectedText := sections[0].Content + "\n\n" + sections[1].Content
	assert.Equal(t, expectedText, result.IncludedText)

	assert.Contains(t, result.RetrievalHint, "1 sections")
	assert.Contains(t, result.RetrievalHint, "large")
	assert.Contains(t, result.RetrievalHint, "read_section")
}

func TestTruncate_SectionBoundariesPreserved(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := []byte(`package sample

func alpha() int {
	return 1
}

func beta() int {
	return 2
}
`)

	result, err := analyzer.Truncate(src, "go", 1000000)
	require.NoError(t, err)
	require.Len(t, result.Included, 2)
	assert.Empty(t, result.Truncated)
	assert.Empty(t, result.RetrievalHint)
	assert.Zero(t, result.TruncatedTokenTotal)

	// Every included body survives unmodified.
	for _, section := range result.Included {
		assert.Contains(t, result.IncludedText, section.Content)
	}
}

func TestTruncate_BudgetZeroServesCheapest(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := []byte(`package sample

func only() int {
	return 42
}
`)

	result, err := analyzer.Truncate(src, "go", 0)
	require.NoError(t, err)
	require.Len(t, result.Included, 1)
	assert.Equal(t, "only", result.Included[0].Name)
}

func TestTruncate_NegativeBudget(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.Truncate([]byte("package sample\n"), "go", -1)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestTruncate_EmptyInput(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.Truncate(nil, "go", 100)
	require.NoError(t, err)
	assert.Empty(t, result.Included)
	assert.Empty(t, result.Truncated)
	assert.Empty(t, result.IncludedText)
	assert.Empty(t, result.RetrievalHint)
}

func TestTruncate_Deterministic(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := []byte(`package sample

func a() int { return 1 }

func b() int { return 2 }

func c(n int) int {
	if n > 0 {
		return n
	}
	return -n
}
`)

	first, err := analyzer.Truncate(src, "go", 30)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := analyzer.Truncate(src, "go", 30)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}
