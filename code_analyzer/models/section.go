package models

// SectionKind classifies a code section by the declaration it covers.
type SectionKind string

const (
	SectionClass    SectionKind = "class"
	SectionFunction SectionKind = "function"
	SectionMethod   SectionKind = "method"
	SectionOther    SectionKind = "other"
)

// ComplexityLevel buckets a complexity score into a coarse grade.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "low"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
)

// Rank orders levels so that high sorts above medium above low.
func (l ComplexityLevel) Rank() int {
	switch l {
	case ComplexityHigh:
		return 2
	case ComplexityMedium:
		return 1
	default:
		return 0
	}
}

// ParseMode records which strategy produced a set of sections.
type ParseMode string

const (
	ParseModeTree      ParseMode = "parsed"
	ParseModeHeuristic ParseMode = "heuristic"
)

// CodeSection is one declaration-level slice of a source file. Line numbers
// are 1-based and inclusive. Content carries the raw section body for
// assembly but is not serialized into overviews.
type CodeSection struct {
	Name       string          `json:"name"`
	Kind       SectionKind     `json:"kind"`
	StartLine  int             `json:"start_line"`
	EndLine    int             `json:"end_line"`
	TokenCost  int             `json:"token_cost"`
	Complexity ComplexityLevel `json:"complexity"`
	Signature  string          `json:"signature,omitempty"`
	Doc        string          `json:"doc,omitempty"`
	Calls      []string        `json:"calls,omitempty"`
	CalledBy   []string        `json:"called_by,omitempty"`
	Content    string          `json:"-"`
}

// TruncationResult is the outcome of fitting a file into a token budget.
// Included and Truncated are both ordered by start line.
type TruncationResult struct {
	Included            []CodeSection `json:"included"`
	Truncated           []CodeSection `json:"truncated"`
	IncludedText        string        `json:"included_text"`
	TruncatedTokenTotal int           `json:"truncated_token_total"`
	RetrievalHint       string        `json:"retrieval_hint,omitempty"`
}

// ComplexityMetrics holds the structural measurements and the derived score
// for a piece of source text.
type ComplexityMetrics struct {
	Cyclomatic            int             `json:"cyclomatic"`
	NestingDepth          int             `json:"nesting_depth"`
	LinesOfCode           int             `json:"lines_of_code"`
	BranchCount           int             `json:"branch_count"`
	LoopCount             int             `json:"loop_count"`
	HasExceptionHandling  bool            `json:"has_exception_handling"`
	HasNestedDeclarations bool            `json:"has_nested_declarations"`
	HasComplexExpressions bool            `json:"has_complex_expressions"`
	Score                 float64         `json:"score"`
	Level                 ComplexityLevel `json:"level"`
}

// FileOverview is the section-level summary served for a single resource.
type FileOverview struct {
	Resource       string            `json:"resource"`
	Language       string            `json:"language,omitempty"`
	ParseMode      ParseMode         `json:"parse_mode"`
	Sections       []CodeSection     `json:"sections"`
	TotalTokenCost int               `json:"total_token_cost"`
	Complexity     ComplexityMetrics `json:"complexity"`
}
