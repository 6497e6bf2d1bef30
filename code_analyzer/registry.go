package code_analyzer

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

// BlockStyle tells the line scanner how a language delimits bodies.
type BlockStyle int

const (
	BlockBraces BlockStyle = iota
	BlockIndent
)

// DeclPattern matches one declaration form when no grammar is available.
// The pattern's first capture group holds the declaration name.
type DeclPattern struct {
	Kind    models.SectionKind
	Pattern *regexp.Regexp
}

// LanguageSpec bundles everything the analyzer knows about one language:
// the tree-sitter grammar and section query, the node classes consulted
// while measuring complexity, and the regex fallbacks used when no grammar
// applies.
type LanguageSpec struct {
	Name       string
	Aliases    []string
	Extensions []string

	Grammar      *sitter.Language
	SectionQuery string

	// KindByNodeType maps captured node types to section kinds. Wrapper
	// node types (decorators, export statements) are resolved through
	// their children and listed in WrapperNodes instead.
	KindByNodeType map[string]models.SectionKind
	WrapperNodes   map[string]bool
	ClassNodes     map[string]bool

	DecisionNodes    map[string]bool
	BranchNodes      map[string]bool
	LoopNodes        map[string]bool
	NestingNodes     map[string]bool
	ExceptionNodes   map[string]bool
	DeclarationNodes map[string]bool

	DeclPatterns  []DeclPattern
	BlockStyle    BlockStyle
	IndentUnit    int
	HasDocstrings bool
}

// LanguageRegistry resolves languages by name, alias or file extension.
// It is built once per analyzer and read-only afterwards.
type LanguageRegistry struct {
	byName map[string]*LanguageSpec
	byExt  map[string]*LanguageSpec
}

// NewLanguageRegistry returns a registry with all built-in languages
// registered.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		byName: make(map[string]*LanguageSpec),
		byExt:  make(map[string]*LanguageSpec),
	}
	r.Register(goSpec())
	r.Register(pythonSpec())
	r.Register(javascriptSpec())
	r.Register(typescriptSpec())
	r.Register(javaSpec())
	r.Register(csharpSpec())
	return r
}

// Register adds a language spec and indexes its aliases and extensions.
func (r *LanguageRegistry) Register(spec *LanguageSpec) {
	r.byName[strings.ToLower(spec.Name)] = spec
	for _, alias := range spec.Aliases {
		r.byName[strings.ToLower(alias)] = spec
	}
	for _, ext := range spec.Extensions {
		r.byExt[strings.ToLower(ext)] = spec
	}
}

// Lookup resolves a language by name or alias.
func (r *LanguageRegistry) Lookup(language string) (*LanguageSpec, bool) {
	spec, ok := r.byName[strings.ToLower(strings.TrimSpace(language))]
	return spec, ok
}

// LookupPath resolves a language from a file path's extension.
func (r *LanguageRegistry) LookupPath(path string) (*LanguageSpec, bool) {
	spec, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return spec, ok
}

// Names returns the registered language names in sorted order.
func (r *LanguageRegistry) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, spec := range r.byName {
		if !seen[spec.Name] {
			seen[spec.Name] = true
			names = append(names, spec.Name)
		}
	}
	sort.Strings(names)
	return names
}
