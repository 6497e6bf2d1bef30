package code_analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/RoscoeTheDog/codectx/code_analyzer/contracts"
	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
	"github.com/RoscoeTheDog/codectx/token_management"
	"github.com/RoscoeTheDog/codectx/utils"
)

const (
	// fallbackSectionName labels the single whole-file section emitted when
	// no declarations are detected in non-empty input.
	fallbackSectionName = "(file)"

	// maxSignatureLines bounds how far past a declaration's first line the
	// signature scan looks for the body-opening marker.
	maxSignatureLines = 5

	// maxProjectFileSize skips oversized files during project discovery.
	maxProjectFileSize = 100 * 1024
)

// CodeAnalyzer handles section extraction, complexity measurement and
// project file discovery.
type CodeAnalyzer struct {
	Cwd      string
	registry *LanguageRegistry
}

// NewCodeAnalyzer initializes a new CodeAnalyzer rooted at cwd.
func NewCodeAnalyzer(cwd string) contracts.ICodeAnalyzer {
	return &CodeAnalyzer{
		Cwd:      cwd,
		registry: NewLanguageRegistry(),
	}
}

// Sections splits source into declaration-level sections. The grammar-backed
// strategy is used when the language has one, otherwise a line scanner
// takes over. Non-empty input that yields no detected declarations is
// returned as a single whole-file section.
func (analyzer *CodeAnalyzer) Sections(source []byte, language string) ([]models.CodeSection, models.ParseMode) {
	spec, _ := analyzer.registry.Lookup(language)
	mode := models.ParseModeHeuristic
	var sections []models.CodeSection
	if spec != nil && spec.Grammar != nil && spec.SectionQuery != "" {
		parsed, err := analyzer.treeSections(source, spec)
		if err == nil {
			sections = parsed
			mode = models.ParseModeTree
		} else {
			log.Printf("Warning: %s parse failed, falling back to line scan: %v", spec.Name, err)
			sections = analyzer.heuristicSections(source, spec)
		}
	} else {
		sections = analyzer.heuristicSections(source, spec)
	}
	if len(sections) == 0 && len(bytes.TrimSpace(source)) > 0 {
		sections = []models.CodeSection{analyzer.wholeFileSection(source, spec)}
	}
	assignCallGraph(sections)
	return sections, mode
}

// Overview summarizes one resource: its sections, their total token cost
// and the file-level complexity.
func (analyzer *CodeAnalyzer) Overview(resource string, source []byte, language string) *models.FileOverview {
	sections, mode := analyzer.Sections(source, language)
	total := 0
	for _, section := range sections {
		total += section.TokenCost
	}
	return &models.FileOverview{
		Resource:       resource,
		Language:       language,
		ParseMode:      mode,
		Sections:       sections,
		TotalTokenCost: total,
		Complexity:     analyzer.AnalyzeComplexity(source, language),
	}
}

// LanguageForPath resolves a language name from a file extension. Unknown
// extensions return the empty string.
func (analyzer *CodeAnalyzer) LanguageForPath(path string) string {
	if spec, ok := analyzer.registry.LookupPath(path); ok {
		return spec.Name
	}
	return ""
}

// ProjectFiles walks rootDir and returns the source files that survive the
// ignore rules, sorted by relative path.
func (analyzer *CodeAnalyzer) ProjectFiles(rootDir string) ([]models.ProjectFile, error) {
	if rootDir == "" {
		rootDir = analyzer.Cwd
	}
	patterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}

	var files []models.ProjectFile
	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		if d.IsDir() {
			if utils.IsDefaultIgnored(relPath) || utils.IsIgnored(relPath, patterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsDefaultIgnored(relPath) || utils.IsIgnored(relPath, patterns) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil || info.Size() > maxProjectFileSize {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Printf("Warning: skipping unreadable file %s: %v", relPath, readErr)
			return nil
		}
		files = append(files, models.ProjectFile{
			RelativePath: filepath.ToSlash(relPath),
			Language:     analyzer.LanguageForPath(path),
			Lines:        lineCount(string(content)),
			SizeBytes:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk project files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}

type sectionCapture struct {
	node *sitter.Node
	name string
}

func (analyzer *CodeAnalyzer) treeSections(source []byte, spec *LanguageSpec) ([]models.CodeSection, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(spec.Grammar)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s source: %w", spec.Name, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.SectionQuery), spec.Grammar)
	if err != nil {
		return nil, fmt.Errorf("invalid %s section query: %w", spec.Name, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var captures []sectionCapture
	seen := make(map[string]bool)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		var node *sitter.Node
		var name string
		for _, capture := range match.Captures {
			switch q.CaptureNameForId(capture.Index) {
			case "section":
				node = capture.Node
			case "name":
				name = capture.Node.Content(source)
			}
		}
		if node == nil || name == "" {
			continue
		}
		key := fmt.Sprintf("%d-%d-%s", node.StartByte(), node.EndByte(), name)
		if seen[key] {
			continue
		}
		seen[key] = true
		captures = append(captures, sectionCapture{node: node, name: name})
	}

	captures = dropWrappedCaptures(captures, spec)
	sort.Slice(captures, func(i, j int) bool {
		if captures[i].node.StartByte() != captures[j].node.StartByte() {
			return captures[i].node.StartByte() < captures[j].node.StartByte()
		}
		return captures[i].node.EndByte() > captures[j].node.EndByte()
	})

	sections := make([]models.CodeSection, 0, len(captures))
	for _, capture := range captures {
		sections = append(sections, analyzer.sectionFromNode(capture.node, capture.name, source, spec))
	}
	return sections, nil
}

// dropWrappedCaptures removes captures that duplicate a wrapper capture of
// the same declaration, such as a decorated definition and the definition
// inside it. Declarations nested inside other kinds of declarations are
// kept as their own sections.
func dropWrappedCaptures(captures []sectionCapture, spec *LanguageSpec) []sectionCapture {
	if len(spec.WrapperNodes) == 0 || len(captures) < 2 {
		return captures
	}
	kept := make([]sectionCapture, 0, len(captures))
	for _, candidate := range captures {
		wrapped := false
		for _, wrapper := range captures {
			if !spec.WrapperNodes[wrapper.node.Type()] || wrapper.name != candidate.name {
				continue
			}
			if wrapper.node.StartByte() == candidate.node.StartByte() && wrapper.node.EndByte() == candidate.node.EndByte() {
				continue
			}
			if wrapper.node.StartByte() <= candidate.node.StartByte() && candidate.node.EndByte() <= wrapper.node.EndByte() {
				wrapped = true
				break
			}
		}
		if !wrapped {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func (analyzer *CodeAnalyzer) sectionFromNode(node *sitter.Node, name string, source []byte, spec *LanguageSpec) models.CodeSection {
	content := node.Content(source)
	metrics := sectionMetrics(node, source, spec)
	return models.CodeSection{
		Name:       name,
		Kind:       kindForNode(node, spec),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		TokenCost:  token_management.EstimateCode(content),
		Complexity: metrics.Level,
		Signature:  signatureFromContent(content, spec),
		Doc:        docForNode(node, source, spec),
		Content:    content,
	}
}

// kindForNode classifies a captured node. Wrapper nodes resolve through
// their children, and functions declared inside a class body are reported
// as methods.
func kindForNode(node *sitter.Node, spec *LanguageSpec) models.SectionKind {
	if kind, ok := spec.KindByNodeType[node.Type()]; ok {
		if kind == models.SectionFunction && hasClassAncestor(node, spec) {
			return models.SectionMethod
		}
		return kind
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if kind, ok := spec.KindByNodeType[child.Type()]; ok {
			if kind == models.SectionFunction && hasClassAncestor(child, spec) {
				return models.SectionMethod
			}
			return kind
		}
	}
	return models.SectionOther
}

func hasClassAncestor(node *sitter.Node, spec *LanguageSpec) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if spec.ClassNodes[parent.Type()] {
			return true
		}
	}
	return false
}

func (analyzer *CodeAnalyzer) heuristicSections(source []byte, spec *LanguageSpec) []models.CodeSection {
	if spec == nil || len(spec.DeclPatterns) == 0 {
		spec = genericSpec()
	}
	lines := strings.Split(string(source), "\n")
	var sections []models.CodeSection
	for i, line := range lines {
		for _, declPattern := range spec.DeclPatterns {
			match := declPattern.Pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			end := findSectionEnd(lines, i, spec)
			content := strings.Join(lines[i:end+1], "\n")
			kind := declPattern.Kind
			if kind == models.SectionFunction && spec.BlockStyle == BlockIndent && indentColumns(line, spec.IndentUnit) > 0 {
				kind = models.SectionMethod
			}
			metrics := metricsFromText([]byte(content), spec)
			scoreMetrics(&metrics)
			sections = append(sections, models.CodeSection{
				Name:       match[1],
				Kind:       kind,
				StartLine:  i + 1,
				EndLine:    end + 1,
				TokenCost:  token_management.EstimateCode(content),
				Complexity: metrics.Level,
				Signature:  signatureFromContent(content, spec),
				Doc:        docForLines(lines, i, spec),
				Content:    content,
			})
			break
		}
	}
	return sections
}

func (analyzer *CodeAnalyzer) wholeFileSection(source []byte, spec *LanguageSpec) models.CodeSection {
	content := string(source)
	metrics := metricsFromText(source, spec)
	scoreMetrics(&metrics)
	return models.CodeSection{
		Name:       fallbackSectionName,
		Kind:       models.SectionOther,
		StartLine:  1,
		EndLine:    lineCount(content),
		TokenCost:  token_management.EstimateCode(content),
		Complexity: metrics.Level,
		Content:    content,
	}
}

// findSectionEnd locates the last line of the declaration starting at
// start. Brace languages are tracked by brace depth, indent languages by
// dedent back to the declaration's own indentation.
func findSectionEnd(lines []string, start int, spec *LanguageSpec) int {
	if spec.BlockStyle == BlockIndent {
		base := indentColumns(lines[start], spec.IndentUnit)
		end := start
		for j := start + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if indentColumns(lines[j], spec.IndentUnit) <= base {
				break
			}
			end = j
		}
		return end
	}

	depth := 0
	opened := false
	for j := start; j < len(lines); j++ {
		for _, ch := range lines[j] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				if opened {
					depth--
				}
			}
		}
		if opened && depth <= 0 {
			return j
		}
		if !opened && j >= start+maxSignatureLines {
			return start
		}
	}
	if opened {
		return len(lines) - 1
	}
	return start
}

func indentColumns(line string, unit int) int {
	if unit <= 0 {
		unit = 4
	}
	columns := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			columns++
		case '\t':
			columns += unit
		default:
			return columns
		}
	}
	return columns
}

// signatureFromContent collapses the declaration head into a single line,
// cutting at the body-opening marker when one appears within the scan
// window. Leading decorator and annotation lines are skipped.
func signatureFromContent(content string, spec *LanguageSpec) string {
	blockStyle := BlockBraces
	if spec != nil {
		blockStyle = spec.BlockStyle
	}
	lines := strings.Split(content, "\n")
	var parts []string
	scanned := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(parts) == 0 && strings.HasPrefix(trimmed, "@") {
			continue
		}
		scanned++
		if scanned > maxSignatureLines {
			break
		}
		cut := -1
		if blockStyle == BlockIndent {
			cut = strings.LastIndex(line, ":")
		} else {
			cut = strings.Index(line, "{")
		}
		if cut >= 0 {
			parts = append(parts, strings.TrimSpace(line[:cut]))
			break
		}
		parts = append(parts, trimmed)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// docForNode gathers the comment block ending directly above a declaration.
// Languages with docstrings fall back to the first string expression in the
// declaration body.
func docForNode(node *sitter.Node, source []byte, spec *LanguageSpec) string {
	var raw []string
	expected := node.StartPoint().Row
	for prev := node.PrevNamedSibling(); prev != nil && isCommentNode(prev); prev = prev.PrevNamedSibling() {
		if prev.EndPoint().Row+1 < expected {
			break
		}
		raw = append(strings.Split(prev.Content(source), "\n"), raw...)
		expected = prev.StartPoint().Row
	}
	if doc := cleanDocLines(raw); doc != "" {
		return doc
	}
	if spec.HasDocstrings {
		return docstringForNode(node, source)
	}
	return ""
}

func docstringForNode(node *sitter.Node, source []byte) string {
	decl := node
	if node.Type() == "decorated_definition" {
		if definition := node.ChildByFieldName("definition"); definition != nil {
			decl = definition
		}
	}
	body := decl.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return trimStringQuotes(str.Content(source))
}

// docForLines is the line scanner's doc extraction: contiguous comment
// lines directly above the declaration, or a docstring directly below it.
func docForLines(lines []string, declIndex int, spec *LanguageSpec) string {
	var raw []string
	for k := declIndex - 1; k >= 0; k-- {
		trimmed := strings.TrimSpace(lines[k])
		if !isCommentLine(trimmed) {
			break
		}
		raw = append([]string{trimmed}, raw...)
	}
	if doc := cleanDocLines(raw); doc != "" {
		return doc
	}
	if spec != nil && spec.HasDocstrings && declIndex+1 < len(lines) {
		return scanDocstring(lines, declIndex+1)
	}
	return ""
}

func scanDocstring(lines []string, start int) string {
	trimmed := strings.TrimSpace(lines[start])
	var quote string
	switch {
	case strings.HasPrefix(trimmed, `"""`):
		quote = `"""`
	case strings.HasPrefix(trimmed, `'''`):
		quote = `'''`
	default:
		return ""
	}
	if strings.HasSuffix(trimmed, quote) && len(trimmed) > 2*len(quote) {
		return strings.TrimSpace(trimmed[len(quote) : len(trimmed)-len(quote)])
	}
	parts := []string{strings.TrimPrefix(trimmed, quote)}
	for j := start + 1; j < len(lines) && j <= start+20; j++ {
		line := strings.TrimSpace(lines[j])
		if idx := strings.Index(line, quote); idx >= 0 {
			parts = append(parts, line[:idx])
			return strings.TrimSpace(strings.Join(parts, "\n"))
		}
		parts = append(parts, line)
	}
	return ""
}

// isCommentNode matches comment, line_comment and block_comment node types.
func isCommentNode(node *sitter.Node) bool {
	return strings.Contains(node.Type(), "comment")
}

func isCommentLine(trimmed string) bool {
	for _, marker := range []string{"//", "#", "/*", "*", "--"} {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

func cleanDocLines(raw []string) string {
	var out []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"///", "//", "/**", "/*", "#", "--"} {
			line = strings.TrimPrefix(line, prefix)
		}
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(strings.TrimSpace(line), "*")
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func trimStringQuotes(s string) string {
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2*len(quote) {
			return strings.TrimSpace(s[len(quote) : len(s)-len(quote)])
		}
	}
	return strings.TrimSpace(s)
}

func lineCount(content string) int {
	n := strings.Count(content, "\n") + 1
	if strings.HasSuffix(content, "\n") {
		n--
	}
	return n
}

// assignCallGraph links sections by lexical reference: a section calls
// another when the other's name appears followed by an opening parenthesis
// in its body. Self references and shared names are excluded.
func assignCallGraph(sections []models.CodeSection) {
	if len(sections) < 2 {
		return
	}
	patterns := make([]*regexp.Regexp, len(sections))
	for i, section := range sections {
		if section.Name == "" || section.Name == fallbackSectionName {
			continue
		}
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(section.Name) + `\s*\(`)
	}

	calls := make([]map[string]bool, len(sections))
	calledBy := make([]map[string]bool, len(sections))
	for i := range sections {
		for j := range sections {
			if i == j || patterns[j] == nil || sections[i].Name == sections[j].Name {
				continue
			}
			if !patterns[j].MatchString(sections[i].Content) {
				continue
			}
			if calls[i] == nil {
				calls[i] = make(map[string]bool)
			}
			if calledBy[j] == nil {
				calledBy[j] = make(map[string]bool)
			}
			calls[i][sections[j].Name] = true
			calledBy[j][sections[i].Name] = true
		}
	}
	for i := range sections {
		sections[i].Calls = sortedNames(calls[i])
		sections[i].CalledBy = sortedNames(calledBy[i])
	}
}

func sortedNames(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
