package models

import "fmt"

// DetailLevel is the amount of detail a response is rendered at. Estimates
// can be projected between levels.
type DetailLevel string

const (
	DetailMinimal  DetailLevel = "minimal"
	DetailNormal   DetailLevel = "normal"
	DetailDetailed DetailLevel = "detailed"
)

// Rank orders detail levels from least to most detailed. Unknown levels are
// treated as normal.
func (d DetailLevel) Rank() int {
	switch d {
	case DetailMinimal:
		return 0
	case DetailDetailed:
		return 2
	default:
		return 1
	}
}

// ParseDetailLevel validates a user supplied detail level string.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch DetailLevel(s) {
	case DetailMinimal, DetailNormal, DetailDetailed:
		return DetailLevel(s), nil
	case "":
		return DetailNormal, nil
	default:
		return "", fmt.Errorf("unknown detail level %q (expected minimal, normal or detailed)", s)
	}
}

// EstimateKind selects which estimation ratio applies to a piece of content.
type EstimateKind string

const (
	KindText       EstimateKind = "text"
	KindCode       EstimateKind = "code"
	KindStructured EstimateKind = "structured"
)

// ParseEstimateKind validates a user supplied estimate kind string.
func ParseEstimateKind(s string) (EstimateKind, error) {
	switch EstimateKind(s) {
	case KindText, KindCode, KindStructured:
		return EstimateKind(s), nil
	case "":
		return KindCode, nil
	default:
		return "", fmt.Errorf("unknown estimate kind %q (expected text, code or structured)", s)
	}
}

// TokenEstimate is an estimate at one detail level together with projections
// to the other levels. The projection matching the estimate's own level is
// left nil.
type TokenEstimate struct {
	Tokens      int          `json:"tokens"`
	Kind        EstimateKind `json:"kind"`
	DetailLevel DetailLevel  `json:"detail_level"`
	IfMinimal   *int         `json:"if_minimal,omitempty"`
	IfNormal    *int         `json:"if_normal,omitempty"`
	IfDetailed  *int         `json:"if_detailed,omitempty"`
}
