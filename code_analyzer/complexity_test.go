package code_analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

func TestAnalyzeComplexity_TrivialGo(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := "package main\n\nfunc main() {}\n"

	metrics := analyzer.AnalyzeComplexity([]byte(src), "go")
	assert.Equal(t, 1, metrics.Cyclomatic)
	assert.Equal(t, 0, metrics.NestingDepth)
	assert.Equal(t, 2, metrics.LinesOfCode)
	assert.Equal(t, 0, metrics.BranchCount)
	assert.Equal(t, 0, metrics.LoopCount)
	assert.InDelta(t, 0.34, metrics.Score, 0.0001)
	assert.Equal(t, models.ComplexityLow, metrics.Level)
	assert.False(t, RecommendFullDetail(metrics))
}

func TestAnalyzeComplexity_BranchyGo(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := `package main

func process(items []int) int {
	total := 0
	for _, item := range items {
		if item > 2 && item < 100 {
			total += item
		}
	}
	classify := func(n int) bool {
		return n%2 == 0 || n > 50
	}
	if classify(total) {
		total++
	}
	return total
}
`

	metrics := analyzer.AnalyzeComplexity([]byte(src), "go")
	assert.GreaterOrEqual(t, metrics.Cyclomatic, 5)
	assert.GreaterOrEqual(t, metrics.NestingDepth, 2)
	assert.Equal(t, 2, metrics.BranchCount)
	assert.Equal(t, 1, metrics.LoopCount)
	assert.True(t, metrics.HasNestedDeclarations, "func literal inside a function")
	assert.False(t, metrics.HasExceptionHandling)
	assert.Equal(t, models.ComplexityMedium, metrics.Level)
}

func TestAnalyzeComplexity_PythonExceptions(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := `def risky(a, b, c):
    try:
        if a and b and c:
            return 1
    except ValueError:
        return 0
    return 2
`

	metrics := analyzer.AnalyzeComplexity([]byte(src), "python")
	assert.True(t, metrics.HasExceptionHandling)
	assert.True(t, metrics.HasComplexExpressions, "two boolean operators on one line")
	assert.GreaterOrEqual(t, metrics.Cyclomatic, 4)
	assert.Equal(t, 1, metrics.BranchCount)
}

func TestAnalyzeComplexity_UnknownLanguage(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := "if (x && y || z) {\n    while (k) {\n        doThing();\n    }\n}\n"

	metrics := analyzer.AnalyzeComplexity([]byte(src), "")
	assert.Equal(t, 5, metrics.Cyclomatic)
	assert.Equal(t, 1, metrics.BranchCount)
	assert.Equal(t, 1, metrics.LoopCount)
	assert.Equal(t, 2, metrics.NestingDepth)
	assert.True(t, metrics.HasComplexExpressions)
}

func TestAnalyzeComplexity_NeverFails(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	inputs := []struct {
		source   []byte
		language string
	}{
		{nil, "go"},
		{[]byte{}, ""},
		{[]byte("garbage {{{ ) ] }"), "go"},
		{[]byte{0x00, 0xff, 0x13, 0x37}, "python"},
		{[]byte("plain prose, no code at all"), "klingon"},
	}

	for _, input := range inputs {
		metrics := analyzer.AnalyzeComplexity(input.source, input.language)
		assert.GreaterOrEqual(t, metrics.Cyclomatic, 1)
		assert.GreaterOrEqual(t, metrics.Score, 0.0)
		assert.LessOrEqual(t, metrics.Score, 10.0)
		assert.NotEmpty(t, metrics.Level)
	}
}

func TestScoreMetrics_WeightsAndCaps(t *testing.T) {
	saturated := models.ComplexityMetrics{
		Cyclomatic:            10,
		NestingDepth:          4,
		LinesOfCode:           100,
		BranchCount:           10,
		LoopCount:             5,
		HasExceptionHandling:  true,
		HasNestedDeclarations: true,
		HasComplexExpressions: true,
	}
	scoreMetrics(&saturated)
	assert.Equal(t, 10.0, saturated.Score, "score is capped")
	assert.Equal(t, models.ComplexityHigh, saturated.Level)
	assert.True(t, RecommendFullDetail(saturated))

	trivial := models.ComplexityMetrics{Cyclomatic: 1}
	scoreMetrics(&trivial)
	assert.InDelta(t, 0.3, trivial.Score, 0.0001)
	assert.Equal(t, models.ComplexityLow, trivial.Level)

	moderate := models.ComplexityMetrics{
		Cyclomatic:   5,
		NestingDepth: 2,
		LinesOfCode:  50,
		BranchCount:  3,
		LoopCount:    1,
	}
	scoreMetrics(&moderate)
	assert.InDelta(t, 4.0, moderate.Score, 0.0001)
	assert.Equal(t, models.ComplexityMedium, moderate.Level)
	assert.False(t, RecommendFullDetail(moderate))
}

func TestScoreMetrics_LevelBoundaries(t *testing.T) {
	atMedium := models.ComplexityMetrics{Cyclomatic: 10}
	scoreMetrics(&atMedium)
	assert.InDelta(t, 3.0, atMedium.Score, 0.0001)
	assert.Equal(t, models.ComplexityMedium, atMedium.Level, "3.0 is medium, not low")

	atHigh := models.ComplexityMetrics{Cyclomatic: 10, NestingDepth: 4, LinesOfCode: 50}
	scoreMetrics(&atHigh)
	assert.InDelta(t, 6.0, atHigh.Score, 0.0001)
	assert.Equal(t, models.ComplexityHigh, atHigh.Level, "6.0 is high, not medium")
}

func TestAnalyzeComplexity_Deterministic(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	src := []byte(`package main

func loop(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			total += i
		}
	}
	return total
}
`)

	first := analyzer.AnalyzeComplexity(src, "go")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, analyzer.AnalyzeComplexity(src, "go"))
	}
}
