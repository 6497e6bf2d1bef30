package code_analyzer

import (
	"regexp"

	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/RoscoeTheDog/codectx/code_analyzer/models"
)

func goSpec() *LanguageSpec {
	return &LanguageSpec{
		Name:       "go",
		Aliases:    []string{"golang"},
		Extensions: []string{".go"},
		Grammar:    golang.GetLanguage(),
		SectionQuery: `
			(function_declaration name: (identifier) @name) @section
			(method_declaration name: (field_identifier) @name) @section
			(type_declaration (type_spec name: (type_identifier) @name)) @section
		`,
		KindByNodeType: map[string]models.SectionKind{
			"function_declaration": models.SectionFunction,
			"method_declaration":   models.SectionMethod,
			"type_declaration":     models.SectionClass,
		},
		DecisionNodes: map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"expression_case":    true,
			"type_case":          true,
			"communication_case": true,
			"select_statement":   true,
			"binary_expression":  true,
		},
		BranchNodes: map[string]bool{
			"if_statement":       true,
			"expression_case":    true,
			"type_case":          true,
			"communication_case": true,
		},
		LoopNodes: map[string]bool{
			"for_statement": true,
		},
		NestingNodes: map[string]bool{
			"if_statement":                true,
			"for_statement":               true,
			"select_statement":            true,
			"type_switch_statement":       true,
			"expression_switch_statement": true,
			"func_literal":                true,
		},
		ExceptionNodes: map[string]bool{},
		DeclarationNodes: map[string]bool{
			"function_declaration": true,
			"method_declaration":   true,
			"func_literal":         true,
		},
		DeclPatterns: []DeclPattern{
			{models.SectionMethod, regexp.MustCompile(`^func\s*\([^)]*\)\s*([A-Za-z_][A-Za-z0-9_]*)`)},
			{models.SectionFunction, regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)`)},
			{models.SectionClass, regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)`)},
		},
		BlockStyle: BlockBraces,
		IndentUnit: 4,
	}
}

func pythonSpec() *LanguageSpec {
	return &LanguageSpec{
		Name:       "python",
		Aliases:    []string{"py"},
		Extensions: []string{".py"},
		Grammar:    python.GetLanguage(),
		SectionQuery: `
			(function_definition name: (identifier) @name) @section
			(class_definition name: (identifier) @name) @section
			(decorated_definition (function_definition name: (identifier) @name)) @section
			(decorated_definition (class_definition name: (identifier) @name)) @section
		`,
		KindByNodeType: map[string]models.SectionKind{
			"function_definition": models.SectionFunction,
			"class_definition":    models.SectionClass,
		},
		WrapperNodes: map[string]bool{
			"decorated_definition": true,
		},
		ClassNodes: map[string]bool{
			"class_definition": true,
		},
		DecisionNodes: map[string]bool{
			"if_statement":             true,
			"elif_clause":              true,
			"for_statement":            true,
			"while_statement":          true,
			"except_clause":            true,
			"with_statement":           true,
			"boolean_operator":         true,
			"conditional_expression":   true,
			"list_comprehension":       true,
			"dictionary_comprehension": true,
			"set_comprehension":        true,
			"generator_expression":     true,
		},
		BranchNodes: map[string]bool{
			"if_statement":           true,
			"elif_clause":            true,
			"conditional_expression": true,
		},
		LoopNodes: map[string]bool{
			"for_statement":   true,
			"while_statement": true,
		},
		NestingNodes: map[string]bool{
			"if_statement":    true,
			"for_statement":   true,
			"while_statement": true,
			"with_statement":  true,
			"try_statement":   true,
		},
		ExceptionNodes: map[string]bool{
			"try_statement":   true,
			"except_clause":   true,
			"raise_statement": true,
		},
		DeclarationNodes: map[string]bool{
			"function_definition": true,
			"class_definition":    true,
			"lambda":              true,
		},
		DeclPatterns: []DeclPattern{
			{models.SectionFunction, regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`)},
			{models.SectionClass, regexp.MustCompile(`^\s*class\s+([A-Za-z_][A-Za-z0-9_]*)`)},
		},
		BlockStyle:    BlockIndent,
		IndentUnit:    4,
		HasDocstrings: true,
	}
}

func javascriptSpec() *LanguageSpec {
	return &LanguageSpec{
		Name:       "javascript",
		Aliases:    []string{"js", "jsx"},
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Grammar:    javascript.GetLanguage(),
		SectionQuery: `
			(function_declaration name: (identifier) @name) @section
			(class_declaration name: (identifier) @name) @section
			(method_definition name: (property_identifier) @name) @section
			(export_statement (function_declaration name: (identifier) @name)) @section
			(export_statement (class_declaration name: (identifier) @name)) @section
			(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @section
		`,
		KindByNodeType: map[string]models.SectionKind{
			"function_declaration": models.SectionFunction,
			"class_declaration":    models.SectionClass,
			"method_definition":    models.SectionMethod,
			"lexical_declaration":  models.SectionFunction,
		},
		WrapperNodes: map[string]bool{
			"export_statement": true,
		},
		ClassNodes: map[string]bool{
			"class_declaration": true,
			"class":             true,
		},
		DecisionNodes: map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"for_in_statement":   true,
			"while_statement":    true,
			"do_statement":       true,
			"switch_case":        true,
			"catch_clause":       true,
			"ternary_expression": true,
			"binary_expression":  true,
		},
		BranchNodes: map[string]bool{
			"if_statement":       true,
			"switch_case":        true,
			"ternary_expression": true,
		},
		LoopNodes: map[string]bool{
			"for_statement":    true,
			"for_in_statement": true,
			"while_statement":  true,
			"do_statement":     true,
		},
		NestingNodes: map[string]bool{
			"if_statement":     true,
			"for_statement":    true,
			"for_in_statement": true,
			"while_statement":  true,
			"do_statement":     true,
			"switch_statement": true,
			"try_statement":    true,
		},
		ExceptionNodes: map[string]bool{
			"try_statement":   true,
			"catch_clause":    true,
			"throw_statement": true,
		},
		DeclarationNodes: map[string]bool{
			"function_declaration": true,
			"method_definition":    true,
			"arrow_function":       true,
			"function_expression":  true,
			"function":             true,
			"class_declaration":    true,
		},
		DeclPatterns: javascriptDeclPatterns(),
		BlockStyle:   BlockBraces,
		IndentUnit:   2,
	}
}

func typescriptSpec() *LanguageSpec {
	spec := javascriptSpec()
	spec.Name = "typescript"
	spec.Aliases = []string{"ts", "tsx"}
	spec.Extensions = []string{".ts", ".tsx"}
	spec.Grammar = typescript.GetLanguage()
	spec.SectionQuery = `
		(function_declaration name: (identifier) @name) @section
		(class_declaration name: (type_identifier) @name) @section
		(method_definition name: (property_identifier) @name) @section
		(interface_declaration name: (type_identifier) @name) @section
		(type_alias_declaration name: (type_identifier) @name) @section
		(export_statement (function_declaration name: (identifier) @name)) @section
		(export_statement (class_declaration name: (type_identifier) @name)) @section
		(export_statement (interface_declaration name: (type_identifier) @name)) @section
		(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @section
	`
	spec.KindByNodeType["interface_declaration"] = models.SectionClass
	spec.KindByNodeType["type_alias_declaration"] = models.SectionOther
	spec.DeclarationNodes["interface_declaration"] = true
	spec.DeclPatterns = append(javascriptDeclPatterns(),
		DeclPattern{models.SectionClass, regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`)},
		DeclPattern{models.SectionOther, regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`)},
	)
	return spec
}

func javascriptDeclPatterns() []DeclPattern {
	return []DeclPattern{
		{models.SectionFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)`)},
		{models.SectionClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)},
		{models.SectionFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*=>`)},
	}
}

func javaSpec() *LanguageSpec {
	return &LanguageSpec{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    java.GetLanguage(),
		SectionQuery: `
			(class_declaration name: (identifier) @name) @section
			(interface_declaration name: (identifier) @name) @section
			(enum_declaration name: (identifier) @name) @section
			(method_declaration name: (identifier) @name) @section
			(constructor_declaration name: (identifier) @name) @section
		`,
		KindByNodeType: map[string]models.SectionKind{
			"class_declaration":       models.SectionClass,
			"interface_declaration":   models.SectionClass,
			"enum_declaration":        models.SectionClass,
			"method_declaration":      models.SectionMethod,
			"constructor_declaration": models.SectionMethod,
		},
		ClassNodes: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"enum_declaration":      true,
		},
		DecisionNodes: map[string]bool{
			"if_statement":                 true,
			"for_statement":                true,
			"enhanced_for_statement":       true,
			"while_statement":              true,
			"do_statement":                 true,
			"switch_expression":            true,
			"switch_block_statement_group": true,
			"catch_clause":                 true,
			"ternary_expression":           true,
			"binary_expression":            true,
		},
		BranchNodes: map[string]bool{
			"if_statement":                 true,
			"switch_block_statement_group": true,
			"ternary_expression":           true,
		},
		LoopNodes: map[string]bool{
			"for_statement":          true,
			"enhanced_for_statement": true,
			"while_statement":        true,
			"do_statement":           true,
		},
		NestingNodes: map[string]bool{
			"if_statement":           true,
			"for_statement":          true,
			"enhanced_for_statement": true,
			"while_statement":        true,
			"do_statement":           true,
			"switch_expression":      true,
			"try_statement":          true,
		},
		ExceptionNodes: map[string]bool{
			"try_statement":   true,
			"catch_clause":    true,
			"throw_statement": true,
		},
		DeclarationNodes: map[string]bool{
			"class_declaration":       true,
			"method_declaration":      true,
			"constructor_declaration": true,
			"lambda_expression":       true,
		},
		DeclPatterns: []DeclPattern{
			{models.SectionClass, regexp.MustCompile(`^\s*(?:(?:public|private|protected|abstract|final|static)\s+)*(?:class|interface|enum)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)},
			{models.SectionMethod, regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)+[\w<>.\[\],\s]+\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)},
		},
		BlockStyle: BlockBraces,
		IndentUnit: 4,
	}
}

func csharpSpec() *LanguageSpec {
	return &LanguageSpec{
		Name:       "csharp",
		Aliases:    []string{"c#", "cs"},
		Extensions: []string{".cs"},
		Grammar:    csharp.GetLanguage(),
		SectionQuery: `
			(class_declaration name: (identifier) @name) @section
			(interface_declaration name: (identifier) @name) @section
			(struct_declaration name: (identifier) @name) @section
			(enum_declaration name: (identifier) @name) @section
			(method_declaration name: (identifier) @name) @section
			(constructor_declaration name: (identifier) @name) @section
		`,
		KindByNodeType: map[string]models.SectionKind{
			"class_declaration":       models.SectionClass,
			"interface_declaration":   models.SectionClass,
			"struct_declaration":      models.SectionClass,
			"enum_declaration":        models.SectionClass,
			"method_declaration":      models.SectionMethod,
			"constructor_declaration": models.SectionMethod,
		},
		ClassNodes: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"struct_declaration":    true,
			"enum_declaration":      true,
			"record_declaration":    true,
		},
		DecisionNodes: map[string]bool{
			"if_statement":           true,
			"for_statement":          true,
			"for_each_statement":     true,
			"while_statement":        true,
			"do_statement":           true,
			"switch_section":         true,
			"switch_expression_arm":  true,
			"catch_clause":           true,
			"conditional_expression": true,
			"binary_expression":      true,
		},
		BranchNodes: map[string]bool{
			"if_statement":           true,
			"switch_section":         true,
			"switch_expression_arm":  true,
			"conditional_expression": true,
		},
		LoopNodes: map[string]bool{
			"for_statement":      true,
			"for_each_statement": true,
			"while_statement":    true,
			"do_statement":       true,
		},
		NestingNodes: map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"for_each_statement": true,
			"while_statement":    true,
			"do_statement":       true,
			"switch_statement":   true,
			"try_statement":      true,
		},
		ExceptionNodes: map[string]bool{
			"try_statement":   true,
			"catch_clause":    true,
			"throw_statement": true,
		},
		DeclarationNodes: map[string]bool{
			"class_declaration":        true,
			"method_declaration":       true,
			"constructor_declaration":  true,
			"local_function_statement": true,
			"lambda_expression":        true,
		},
		DeclPatterns: []DeclPattern{
			{models.SectionClass, regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|sealed|partial|abstract)\s+)*(?:class|struct|interface|enum|record)\s+([A-Za-z_][A-Za-z0-9_]*)`)},
			{models.SectionMethod, regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|virtual|override|sealed|async|partial)\s+)+[\w<>.\[\],\s]+\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)},
		},
		BlockStyle: BlockBraces,
		IndentUnit: 4,
	}
}

// genericSpec covers files whose language has no registered grammar. Only
// the line scanner applies to it.
func genericSpec() *LanguageSpec {
	return &LanguageSpec{
		Name: "generic",
		DeclPatterns: []DeclPattern{
			{models.SectionFunction, regexp.MustCompile(`^\s*(?:function|func|fn|def|sub|proc)\s+([A-Za-z_][A-Za-z0-9_]*)`)},
			{models.SectionClass, regexp.MustCompile(`^\s*(?:class|struct|trait|interface|enum|impl|record)\s+([A-Za-z_][A-Za-z0-9_]*)`)},
		},
		BlockStyle: BlockBraces,
		IndentUnit: 4,
	}
}
