package code_analyzer

import (
	"bytes"
	"context"
	"math"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

// Score weights. Each metric contributes a capped share so that no single
// measurement can dominate, and the total never exceeds 10.
const (
	cyclomaticWeight = 0.30
	cyclomaticCap    = 3.0
	nestingWeight    = 0.50
	nestingCap       = 2.0
	locWeight        = 0.02
	locCap           = 2.0
	branchWeight     = 0.10
	branchCap        = 1.0
	loopWeight       = 0.20
	loopCap          = 1.0
	flagWeight       = 0.5
	scoreCap         = 10.0

	mediumComplexityThreshold = 3.0
	highComplexityThreshold   = 6.0
)

// Keyword fallbacks for text without a usable grammar.
var (
	reBranchKeywords    = regexp.MustCompile(`\b(if|elif|case|when)\b`)
	reLoopKeywords      = regexp.MustCompile(`\b(for|while|foreach|loop|until)\b`)
	reCatchKeywords     = regexp.MustCompile(`\b(catch|except)\b`)
	reExceptionKeywords = regexp.MustCompile(`\b(try|catch|except|finally|raise|throw|rescue)\b`)
	reBoolWordOps       = regexp.MustCompile(`\b(and|or)\b`)
)

// AnalyzeComplexity measures source and derives its score and level. It
// never fails: when no grammar applies, keyword and indentation scanning
// stand in for the tree walk.
func (analyzer *CodeAnalyzer) AnalyzeComplexity(source []byte, language string) models.ComplexityMetrics {
	spec, ok := analyzer.registry.Lookup(language)
	if ok && spec.Grammar != nil {
		parser := sitter.NewParser()
		parser.SetLanguage(spec.Grammar)
		tree, err := parser.ParseCtx(context.Background(), nil, source)
		if err == nil {
			defer tree.Close()
			metrics := metricsFromTree(tree.RootNode(), source, spec)
			scoreMetrics(&metrics)
			return metrics
		}
	}
	metrics := metricsFromText(source, spec)
	scoreMetrics(&metrics)
	return metrics
}

// RecommendFullDetail reports whether a file is complex enough that serving
// it truncated is likely to mislead.
func RecommendFullDetail(metrics models.ComplexityMetrics) bool {
	return metrics.Level == models.ComplexityHigh
}

func metricsFromTree(root *sitter.Node, source []byte, spec *LanguageSpec) models.ComplexityMetrics {
	metrics := models.ComplexityMetrics{
		Cyclomatic:  1,
		LinesOfCode: countLinesOfCode(source),
	}
	boolOpsPerRow := make(map[uint32]int)
	walkMetrics(root, spec, 0, 0, &metrics, boolOpsPerRow)
	for _, count := range boolOpsPerRow {
		if count >= 2 {
			metrics.HasComplexExpressions = true
			break
		}
	}
	return metrics
}

// sectionMetrics measures a single declaration subtree.
func sectionMetrics(node *sitter.Node, source []byte, spec *LanguageSpec) models.ComplexityMetrics {
	metrics := models.ComplexityMetrics{
		Cyclomatic:  1,
		LinesOfCode: countLinesOfCode([]byte(node.Content(source))),
	}
	boolOpsPerRow := make(map[uint32]int)
	walkMetrics(node, spec, 0, 0, &metrics, boolOpsPerRow)
	for _, count := range boolOpsPerRow {
		if count >= 2 {
			metrics.HasComplexExpressions = true
			break
		}
	}
	scoreMetrics(&metrics)
	return metrics
}

func walkMetrics(node *sitter.Node, spec *LanguageSpec, nesting int, declDepth int, metrics *models.ComplexityMetrics, boolOpsPerRow map[uint32]int) {
	nodeType := node.Type()

	if spec.DecisionNodes[nodeType] {
		if nodeType == "binary_expression" || nodeType == "boolean_operator" {
			if isBooleanOperator(node) {
				metrics.Cyclomatic++
				boolOpsPerRow[node.StartPoint().Row]++
			}
		} else {
			metrics.Cyclomatic++
		}
	}
	if spec.BranchNodes[nodeType] {
		metrics.BranchCount++
	}
	if spec.LoopNodes[nodeType] {
		metrics.LoopCount++
	}
	if spec.ExceptionNodes[nodeType] {
		metrics.HasExceptionHandling = true
	}
	if spec.DeclarationNodes[nodeType] {
		if declDepth > 0 {
			metrics.HasNestedDeclarations = true
		}
		declDepth++
	}
	if spec.NestingNodes[nodeType] {
		nesting++
		if nesting > metrics.NestingDepth {
			metrics.NestingDepth = nesting
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkMetrics(node.Child(i), spec, nesting, declDepth, metrics, boolOpsPerRow)
	}
}

// isBooleanOperator reports whether a binary expression node joins its
// operands with a logical operator rather than an arithmetic or comparison
// one. Only logical operators add a decision point.
func isBooleanOperator(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "&&", "||", "and", "or":
			return true
		}
	}
	return false
}

// metricsFromText measures source without a grammar, counting branch and
// loop keywords per line and reading nesting from indentation.
func metricsFromText(source []byte, spec *LanguageSpec) models.ComplexityMetrics {
	indentUnit := 4
	if spec != nil && spec.IndentUnit > 0 {
		indentUnit = spec.IndentUnit
	}
	var declPatterns []DeclPattern
	if spec != nil && len(spec.DeclPatterns) > 0 {
		declPatterns = spec.DeclPatterns
	} else {
		declPatterns = genericSpec().DeclPatterns
	}

	metrics := models.ComplexityMetrics{
		Cyclomatic:  1,
		LinesOfCode: countLinesOfCode(source),
	}

	lines := strings.Split(string(source), "\n")
	baseIndent := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}

		indent := indentColumns(line, indentUnit)
		if baseIndent < 0 {
			baseIndent = indent
		}
		if depth := (indent - baseIndent) / indentUnit; depth > metrics.NestingDepth {
			metrics.NestingDepth = depth
		}

		branches := len(reBranchKeywords.FindAllString(trimmed, -1))
		loops := len(reLoopKeywords.FindAllString(trimmed, -1))
		catches := len(reCatchKeywords.FindAllString(trimmed, -1))
		boolOps := strings.Count(trimmed, "&&") + strings.Count(trimmed, "||") + len(reBoolWordOps.FindAllString(trimmed, -1))

		metrics.BranchCount += branches
		metrics.LoopCount += loops
		metrics.Cyclomatic += branches + loops + catches + boolOps
		if boolOps >= 2 {
			metrics.HasComplexExpressions = true
		}
		if reExceptionKeywords.MatchString(trimmed) {
			metrics.HasExceptionHandling = true
		}
		for _, declPattern := range declPatterns {
			if declPattern.Pattern.MatchString(line) {
				if indent > baseIndent {
					metrics.HasNestedDeclarations = true
				}
				break
			}
		}
	}
	return metrics
}

func countLinesOfCode(source []byte) int {
	count := 0
	for _, line := range bytes.Split(source, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			count++
		}
	}
	return count
}

// scoreMetrics folds the measurements into a capped 0 to 10 score and
// assigns the level bucket.
func scoreMetrics(metrics *models.ComplexityMetrics) {
	score := math.Min(cyclomaticCap, float64(metrics.Cyclomatic)*cyclomaticWeight)
	score += math.Min(nestingCap, float64(metrics.NestingDepth)*nestingWeight)
	score += math.Min(locCap, float64(metrics.LinesOfCode)*locWeight)
	score += math.Min(branchCap, float64(metrics.BranchCount)*branchWeight)
	score += math.Min(loopCap, float64(metrics.LoopCount)*loopWeight)
	if metrics.HasExceptionHandling {
		score += flagWeight
	}
	if metrics.HasNestedDeclarations {
		score += flagWeight
	}
	if metrics.HasComplexExpressions {
		score += flagWeight
	}
	if score > scoreCap {
		score = scoreCap
	}
	metrics.Score = math.Round(score*100) / 100

	switch {
	case metrics.Score < mediumComplexityThreshold:
		metrics.Level = models.ComplexityLow
	case metrics.Score < highComplexityThreshold:
		metrics.Level = models.ComplexityMedium
	default:
		metrics.Level = models.ComplexityHigh
	}
}
