package models

// ProjectFile describes one source file discovered under a project root.
type ProjectFile struct {
	RelativePath string `json:"relative_path"`
	Language     string `json:"language,omitempty"`
	Lines        int    `json:"lines"`
	SizeBytes    int64  `json:"size_bytes"`
}
