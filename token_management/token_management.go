package token_management

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/RoscoeTheDog/codectx/token_management/contracts"
	"github.com/RoscoeTheDog/codectx/token_management/models"
)

// Character-per-token ratios. Code tokenizes slightly denser than prose
// because of punctuation, and structured payloads carry key and quoting
// overhead on top of the base ratio.
const (
	textRatio          = 0.25
	codeRatio          = 0.27
	structuredRatio    = 0.22
	structuredOverhead = 1.15
	batchOverhead      = 1.1
)

// projectionMultipliers maps the rank delta between two detail levels to the
// factor applied when projecting an estimate across them.
var projectionMultipliers = map[int]float64{
	-2: 0.2,
	-1: 0.4,
	0:  1.0,
	1:  2.5,
	2:  5.0,
}

type tokenManager struct {
	mu             sync.Mutex
	servedTokens   int
	servedRequests int
}

// NewTokenManager returns a session-scoped token accountant on top of the
// package estimation functions.
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// EstimateText estimates tokens for prose. Empty input costs nothing, any
// other input costs at least one token.
func EstimateText(text string) int {
	return ratioEstimate(len(text), textRatio)
}

// EstimateCode estimates tokens for source code.
func EstimateCode(code string) int {
	return ratioEstimate(len(code), codeRatio)
}

// EstimateStructured estimates tokens for a payload that will be served as
// JSON. The payload is serialized first so that keys and quoting count
// toward the estimate.
func EstimateStructured(payload interface{}) int {
	serialized, err := json.Marshal(payload)
	if err != nil {
		serialized = []byte(fmt.Sprint(payload))
	}
	return structuredEstimate(len(serialized))
}

// EstimateBatch estimates a set of same-kind items served together, with a
// fixed overhead for the combined response framing.
func EstimateBatch(items []string, kind models.EstimateKind) int {
	if len(items) == 0 {
		return 0
	}
	sum := 0
	for _, item := range items {
		sum += EstimateString(item, kind)
	}
	return int(float64(sum) * batchOverhead)
}

// EstimateString estimates one string under the given kind. Structured
// items are assumed to be serialized already.
func EstimateString(content string, kind models.EstimateKind) int {
	switch kind {
	case models.KindText:
		return EstimateText(content)
	case models.KindStructured:
		return structuredEstimate(len(content))
	default:
		return EstimateCode(content)
	}
}

// Project scales an estimate from one detail level to another. A non-zero
// estimate never projects below one token.
func Project(tokens int, from models.DetailLevel, to models.DetailLevel) int {
	if tokens <= 0 {
		return 0
	}
	multiplier, ok := projectionMultipliers[to.Rank()-from.Rank()]
	if !ok {
		multiplier = 1.0
	}
	projected := int(float64(tokens) * multiplier)
	if projected < 1 {
		projected = 1
	}
	return projected
}

// EstimateWithProjections estimates content at the given detail level and
// attaches projections to the remaining levels.
func EstimateWithProjections(content string, kind models.EstimateKind, level models.DetailLevel) models.TokenEstimate {
	tokens := EstimateString(content, kind)
	estimate := models.TokenEstimate{
		Tokens:      tokens,
		Kind:        kind,
		DetailLevel: level,
	}
	for _, target := range []models.DetailLevel{models.DetailMinimal, models.DetailNormal, models.DetailDetailed} {
		if target == level {
			continue
		}
		projected := Project(tokens, level, target)
		switch target {
		case models.DetailMinimal:
			estimate.IfMinimal = &projected
		case models.DetailNormal:
			estimate.IfNormal = &projected
		case models.DetailDetailed:
			estimate.IfDetailed = &projected
		}
	}
	return estimate
}

func ratioEstimate(length int, ratio float64) int {
	if length == 0 {
		return 0
	}
	estimate := int(float64(length) * ratio)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func structuredEstimate(serializedLength int) int {
	if serializedLength == 0 {
		return 0
	}
	estimate := int(float64(serializedLength) * structuredRatio * structuredOverhead)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func (tm *tokenManager) EstimateText(text string) int {
	return EstimateText(text)
}

func (tm *tokenManager) EstimateCode(code string) int {
	return EstimateCode(code)
}

func (tm *tokenManager) EstimateStructured(payload interface{}) int {
	return EstimateStructured(payload)
}

func (tm *tokenManager) EstimateBatch(items []string, kind models.EstimateKind) int {
	return EstimateBatch(items, kind)
}

func (tm *tokenManager) Project(tokens int, from models.DetailLevel, to models.DetailLevel) int {
	return Project(tokens, from, to)
}

func (tm *tokenManager) EstimateWithProjections(content string, kind models.EstimateKind, level models.DetailLevel) models.TokenEstimate {
	return EstimateWithProjections(content, kind, level)
}

// AddServedTokens records one served response and its estimated token size.
func (tm *tokenManager) AddServedTokens(tokens int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.servedRequests++
	if tokens > 0 {
		tm.servedTokens += tokens
	}
}

// ServedTokens returns the session totals for served tokens and responses.
func (tm *tokenManager) ServedTokens() (int, int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.servedTokens, tm.servedRequests
}

// ClearServedTokens resets the session counters.
func (tm *tokenManager) ClearServedTokens() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.servedTokens = 0
	tm.servedRequests = 0
}

// DisplayServedTokens prints the session totals in a terminal box.
func (tm *tokenManager) DisplayServedTokens() {
	served, requests := tm.ServedTokens()
	tokenDetails := fmt.Sprintf("Served Tokens: %d - Responses: %d", served, requests)
	fmt.Println(lipgloss.BoxStyle.Render(tokenDetails))
}
