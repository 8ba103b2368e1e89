package service

import (
	"math"
	"testing"
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/stretchr/testify/assert"
)

var engineNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newestFirst builds ratings one minute apart, the first being the most recent.
func newestFirst(scores ...int) []models.Rating {
	out := make([]models.Rating, len(scores))
	for i, s := range scores {
		out[i] = models.Rating{
			LocationID: "loc-1",
			Score:      s,
			CreatedAt:  engineNow.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name     string
		scores   []int
		expected float64
	}{
		{"empty input", nil, 0},
		{"single rating", []int{4}, 4.0},
		{"two ratings newest dominates", []int{5, 1}, 3.1},
		{"all equal", []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}, 3.0},
		{"recent five outweighs older ones", []int{5, 1, 1, 1, 5}, 2.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeightedScore(newestFirst(tt.scores...), DefaultWindow))
		})
	}
}

func TestWeightedScore_DecayDominance(t *testing.T) {
	score := WeightedScore(newestFirst(5, 1, 1, 1, 5), DefaultWindow)
	assert.Greater(t, score, 1.5)
	assert.Less(t, score, 5.0)
}

func TestWeightedScore_OnlyWindowCounts(t *testing.T) {
	recent := []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
	withOld := append(append([]int{}, recent...), 1, 1, 1, 1, 1)

	assert.Equal(t,
		WeightedScore(newestFirst(recent...), DefaultWindow),
		WeightedScore(newestFirst(withOld...), DefaultWindow))
}

func TestWeightedScore_BoundedByInputs(t *testing.T) {
	inputs := [][]int{
		{1, 5}, {5, 1}, {2, 3, 4}, {1, 1, 1, 5, 5, 5, 2, 2, 2, 4, 4},
	}
	for _, scores := range inputs {
		lo, hi := 5, 1
		for _, s := range scores {
			lo = min(lo, s)
			hi = max(hi, s)
		}
		score := WeightedScore(newestFirst(scores...), DefaultWindow)
		assert.GreaterOrEqual(t, score, float64(lo), "%v", scores)
		assert.LessOrEqual(t, score, float64(hi), "%v", scores)
	}
}

func TestWeightedScore_MovingMaxToFrontNeverLowers(t *testing.T) {
	before := WeightedScore(newestFirst(2, 3, 5, 1), DefaultWindow)
	after := WeightedScore(newestFirst(5, 2, 3, 1), DefaultWindow)
	assert.GreaterOrEqual(t, after, before)
}

func TestWeightedScore_OneDecimal(t *testing.T) {
	score := WeightedScore(newestFirst(5, 4, 2, 1, 3, 2), DefaultWindow)
	assert.Equal(t, score, math.Round(score*10)/10)
}

func TestTimeDecayedWeight(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{"just now", 0, 1.0},
		{"exactly one hour", time.Hour, 1.0},
		{"one half life", 24 * time.Hour, 0.5},
		{"two half lives", 48 * time.Hour, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TimeDecayedWeight(engineNow.Add(-tt.age), engineNow), 1e-9)
		})
	}

	t.Run("monotonic past the fresh window", func(t *testing.T) {
		prev := TimeDecayedWeight(engineNow.Add(-2*time.Hour), engineNow)
		for h := 3; h < 100; h++ {
			w := TimeDecayedWeight(engineNow.Add(-time.Duration(h)*time.Hour), engineNow)
			assert.Less(t, w, prev)
			prev = w
		}
	})
}

func TestAdvancedWeightedScore(t *testing.T) {
	t.Run("fresh ratings match positional score", func(t *testing.T) {
		ratings := newestFirst(5, 1, 3)
		assert.Equal(t,
			WeightedScore(ratings, DefaultWindow),
			AdvancedWeightedScore(ratings, DefaultWindow, engineNow))
	})

	t.Run("old ratings lose weight", func(t *testing.T) {
		ratings := []models.Rating{
			{Score: 5, CreatedAt: engineNow},
			{Score: 1, CreatedAt: engineNow.Add(-72 * time.Hour)},
		}
		assert.Greater(t,
			AdvancedWeightedScore(ratings, DefaultWindow, engineNow),
			WeightedScore(ratings, DefaultWindow))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, AdvancedWeightedScore(nil, DefaultWindow, engineNow))
	})

	t.Run("underflowed weights fall back to position", func(t *testing.T) {
		ratings := []models.Rating{
			{Score: 5, CreatedAt: engineNow.Add(-100000 * time.Hour)},
			{Score: 1, CreatedAt: engineNow.Add(-100001 * time.Hour)},
		}
		assert.Equal(t, 3.1, AdvancedWeightedScore(ratings, DefaultWindow, engineNow))
	})
}

func TestScoreEngine_Options(t *testing.T) {
	e := NewScoreEngine(WithWindow(3), WithEngineClock(func() time.Time { return engineNow }))
	assert.Equal(t, 3, e.Window())
	assert.Equal(t, WeightedScore(newestFirst(5, 5, 5), 3), e.WeightedScore(newestFirst(5, 5, 5, 1, 1)))

	assert.Equal(t, DefaultWindow, NewScoreEngine(WithWindow(0)).Window())
}

func BenchmarkWeightedScore(b *testing.B) {
	ratings := newestFirst(5, 4, 3, 2, 1, 5, 4, 3, 2, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WeightedScore(ratings, DefaultWindow)
	}
}

func BenchmarkAdvancedWeightedScore(b *testing.B) {
	ratings := newestFirst(5, 4, 3, 2, 1, 5, 4, 3, 2, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AdvancedWeightedScore(ratings, DefaultWindow, engineNow)
	}
}
