package service

import (
	"math"
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
)

const (
	// DefaultWindow is how many of the most recent ratings feed a score.
	DefaultWindow = 10

	positionDecay = 0.9
	freshAge      = time.Hour
	halfLifeHours = 24.0
)

// ScoreEngine turns a newest-first rating window into one freshness score.
type ScoreEngine struct {
	window int
	now    func() time.Time
}

type EngineOption func(*ScoreEngine)

func WithWindow(n int) EngineOption {
	return func(e *ScoreEngine) {
		if n > 0 {
			e.window = n
		}
	}
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *ScoreEngine) { e.now = now }
}

func NewScoreEngine(opts ...EngineOption) *ScoreEngine {
	e := &ScoreEngine{window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ScoreEngine) Window() int { return e.window }

func (e *ScoreEngine) WeightedScore(ratings []models.Rating) float64 {
	return WeightedScore(ratings, e.window)
}

func (e *ScoreEngine) AdvancedWeightedScore(ratings []models.Rating) float64 {
	return AdvancedWeightedScore(ratings, e.window, e.now())
}

// WeightedScore averages at most window ratings, weighting the i-th most
// recent by 0.9^i, rounded to one decimal. An empty input returns 0, which no
// real score can equal.
func WeightedScore(ratings []models.Rating, window int) float64 {
	return weightedAverage(ratings, window, func(int, models.Rating) float64 { return 1 })
}

// AdvancedWeightedScore multiplies the positional weight by the rating's
// time decay relative to now.
func AdvancedWeightedScore(ratings []models.Rating, window int, now time.Time) float64 {
	return weightedAverage(ratings, window, func(_ int, r models.Rating) float64 {
		return TimeDecayedWeight(r.CreatedAt, now)
	})
}

// TimeDecayedWeight is 1 for ratings up to an hour old, then halves every
// 24 hours of age.
func TimeDecayedWeight(ts, now time.Time) float64 {
	age := now.Sub(ts)
	if age <= freshAge {
		return 1.0
	}
	return math.Pow(0.5, age.Hours()/halfLifeHours)
}

func weightedAverage(ratings []models.Rating, window int, extra func(int, models.Rating) float64) float64 {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(ratings) > window {
		ratings = ratings[:window]
	}
	if len(ratings) == 0 {
		return 0
	}

	var sum, weights float64
	w := 1.0
	for i, r := range ratings {
		weight := w * extra(i, r)
		sum += float64(r.Score) * weight
		weights += weight
		w *= positionDecay
	}
	if weights == 0 {
		// every decayed weight underflowed; position alone still orders them
		return WeightedScore(ratings, window)
	}
	return roundTo(sum/weights, 1)
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
