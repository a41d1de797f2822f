package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceWeights_Sum(t *testing.T) {
	w := SourceWeights{CodeHost: 0.7, ModelHub: 0.1, Discussion: 0.2}
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.True(t, w.Normalized())

	skewed := SourceWeights{CodeHost: 0.7, ModelHub: 0.1, Discussion: 0.1}
	assert.False(t, skewed.Normalized())
}

func TestSourceWeights_For(t *testing.T) {
	w := SourceWeights{CodeHost: 0.5, ModelHub: 0.3, Discussion: 0.2}
	assert.Equal(t, 0.5, w.For(SourceCodeHost))
	assert.Equal(t, 0.3, w.For(SourceModelHub))
	assert.Equal(t, 0.2, w.For(SourceDiscussion))
	assert.Equal(t, 0.0, w.For(Source("wiki")))
}

func TestDefaultSourceWeights(t *testing.T) {
	w := DefaultSourceWeights()
	assert.Equal(t, 0.4, w.CodeHost)
	assert.Equal(t, 0.2, w.ModelHub)
	assert.Equal(t, 0.4, w.Discussion)
	assert.True(t, w.Normalized())
}

func TestIntentCategory_Valid(t *testing.T) {
	for _, c := range IntentCategories {
		assert.True(t, c.Valid(), "category %s should be valid", c)
	}
	assert.False(t, IntentCategory("navel_gazing").Valid())
}
