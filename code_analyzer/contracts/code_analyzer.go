package contracts

import "github.com/RoscoeTheDog/codectx/code_analyzer/models"

type ICodeAnalyzer interface {
	Sections(source []byte, language string) ([]models.CodeSection, models.ParseMode)
	Overview(resource string, source []byte, language string) *models.FileOverview
	Truncate(source []byte, language string, maxTokens int) (*models.TruncationResult, error)
	AnalyzeComplexity(source []byte, language string) models.ComplexityMetrics
	ProjectFiles(rootDir string) ([]models.ProjectFile, error)
	LanguageForPath(path string) string
}
