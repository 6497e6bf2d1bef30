package token_management

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoscoeTheDog/codectx/token_management/models"
)

func TestEstimateText(t *testing.T) {
	assert.Equal(t, 0, EstimateText(""))
	assert.Equal(t, 1, EstimateText("abc"))
	assert.Equal(t, 1, EstimateText("four"))
	assert.Equal(t, 25, EstimateText(strings.Repeat("a", 100)))
}

func TestEstimateCode(t *testing.T) {
	assert.Equal(t, 0, EstimateCode(""))
	assert.Equal(t, 1, EstimateCode("x"))

	snippet := "def add(a, b):\n    return a + b"
	require.Equal(t, 31, len(snippet))
	assert.Equal(t, 8, EstimateCode(snippet))

	assert.Equal(t, 9, EstimateCode(strings.Repeat("a", 34)))
	assert.Equal(t, 27, EstimateCode(strings.Repeat("a", 100)))
}

func TestEstimateStructured(t *testing.T) {
	payload := map[string]interface{}{"a": 1, "b": 2}
	reordered := map[string]interface{}{"b": 2, "a": 1}

	// Serialization is canonical, so key order in the literal cannot change
	// the estimate.
	assert.Equal(t, EstimateStructured(payload), EstimateStructured(reordered))

	// {"a":1,"b":2} serializes to 13 characters.
	assert.Equal(t, 3, EstimateStructured(payload))
	assert.Equal(t, 1, EstimateStructured(map[string]interface{}{}))
}

func TestEstimateStructured_HigherThanBareRatio(t *testing.T) {
	long := strings.Repeat("k", 1000)
	withOverhead := EstimateStructured(long)
	serialized := float64(1002)
	bare := int(serialized * structuredRatio)
	assert.Greater(t, withOverhead, bare)
}

func TestEstimateBatch(t *testing.T) {
	assert.Equal(t, 0, EstimateBatch(nil, models.KindText))
	assert.Equal(t, 0, EstimateBatch([]string{}, models.KindCode))

	items := []string{strings.Repeat("a", 100), strings.Repeat("b", 100), strings.Repeat("c", 100)}
	// Three 25-token texts with the batch overhead applied to the sum.
	assert.Equal(t, 82, EstimateBatch(items, models.KindText))

	single := EstimateBatch([]string{strings.Repeat("a", 100)}, models.KindText)
	assert.Equal(t, 27, single)
}

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		tokens   int
		from     models.DetailLevel
		to       models.DetailLevel
		expected int
	}{
		{"normal to detailed", 100, models.DetailNormal, models.DetailDetailed, 250},
		{"normal to minimal", 100, models.DetailNormal, models.DetailMinimal, 40},
		{"minimal to detailed", 100, models.DetailMinimal, models.DetailDetailed, 500},
		{"detailed to minimal", 100, models.DetailDetailed, models.DetailMinimal, 20},
		{"same level", 100, models.DetailNormal, models.DetailNormal, 100},
		{"small estimate never drops to zero", 1, models.DetailDetailed, models.DetailMinimal, 1},
		{"zero stays zero", 0, models.DetailNormal, models.DetailDetailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Project(tt.tokens, tt.from, tt.to))
		})
	}
}

func TestEstimateWithProjections(t *testing.T) {
	content := strings.Repeat("a", 400)
	estimate := EstimateWithProjections(content, models.KindCode, models.DetailNormal)

	assert.Equal(t, 108, estimate.Tokens)
	assert.Equal(t, models.DetailNormal, estimate.DetailLevel)
	assert.Nil(t, estimate.IfNormal)
	require.NotNil(t, estimate.IfMinimal)
	require.NotNil(t, estimate.IfDetailed)
	assert.Equal(t, 43, *estimate.IfMinimal)
	assert.Equal(t, 270, *estimate.IfDetailed)
	assert.Less(t, *estimate.IfMinimal, estimate.Tokens)
	assert.Greater(t, *estimate.IfDetailed, estimate.Tokens)
}

func TestEstimateWithProjections_OwnLevelOmitted(t *testing.T) {
	estimate := EstimateWithProjections("content", models.KindText, models.DetailDetailed)
	assert.Nil(t, estimate.IfDetailed)
	assert.NotNil(t, estimate.IfMinimal)
	assert.NotNil(t, estimate.IfNormal)
}

func TestParseDetailLevel(t *testing.T) {
	level, err := models.ParseDetailLevel("detailed")
	require.NoError(t, err)
	assert.Equal(t, models.DetailDetailed, level)

	level, err = models.ParseDetailLevel("")
	require.NoError(t, err)
	assert.Equal(t, models.DetailNormal, level)

	_, err = models.ParseDetailLevel("verbose")
	assert.Error(t, err)
}

func TestParseEstimateKind(t *testing.T) {
	kind, err := models.ParseEstimateKind("structured")
	require.NoError(t, err)
	assert.Equal(t, models.KindStructured, kind)

	kind, err = models.ParseEstimateKind("")
	require.NoError(t, err)
	assert.Equal(t, models.KindCode, kind)

	_, err = models.ParseEstimateKind("binary")
	assert.Error(t, err)
}

func TestTokenManager_ServedAccounting(t *testing.T) {
	tm := NewTokenManager()

	tm.AddServedTokens(120)
	tm.AddServedTokens(30)
	served, requests := tm.ServedTokens()
	assert.Equal(t, 150, served)
	assert.Equal(t, 2, requests)

	tm.ClearServedTokens()
	served, requests = tm.ServedTokens()
	assert.Equal(t, 0, served)
	assert.Equal(t, 0, requests)
}

func TestTokenManager_ConcurrentAdds(t *testing.T) {
	tm := NewTokenManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.AddServedTokens(10)
		}()
	}
	wg.Wait()

	served, requests := tm.ServedTokens()
	assert.Equal(t, 500, served)
	assert.Equal(t, 50, requests)
}
