package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
)

type TimePeriod string

const (
	PeriodMorning   TimePeriod = "morning"
	PeriodLunch     TimePeriod = "lunch"
	PeriodAfternoon TimePeriod = "afternoon"
	PeriodEvening   TimePeriod = "evening"
)

// Periods lists every period in enumeration order; ties in rankings keep it.
var Periods = []TimePeriod{PeriodMorning, PeriodLunch, PeriodAfternoon, PeriodEvening}

var periodRanges = map[TimePeriod]string{
	PeriodMorning:   "6:00 AM - 11:00 AM",
	PeriodLunch:     "11:00 AM - 3:00 PM",
	PeriodAfternoon: "3:00 PM - 7:00 PM",
	PeriodEvening:   "7:00 PM - 6:00 AM",
}

// TimeRange is the human-readable label of a period.
func (p TimePeriod) TimeRange() string { return periodRanges[p] }

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

const (
	highConfidenceSamples   = 20
	mediumConfidenceSamples = 10

	DefaultAnalysisDays = 30
)

type TimeRecommendation struct {
	Period       TimePeriod `json:"period"`
	AverageScore float64    `json:"average_score"`
	Confidence   Confidence `json:"confidence"`
	SampleSize   int        `json:"sample_size"`
	TimeRange    string     `json:"time_range"`
}

type HistoricalAnalysis struct {
	TimeRecommendations  []TimeRecommendation `json:"time_recommendations"`
	BestPeriod           *TimePeriod          `json:"best_period,omitempty"`
	WorstPeriod          *TimePeriod          `json:"worst_period,omitempty"`
	TotalAnalyzedRatings int                  `json:"total_analyzed_ratings"`
	HasReliableData      bool                 `json:"has_reliable_data"`
}

// TemporalAnalyzer buckets ratings by time of day in a fixed time zone.
type TemporalAnalyzer struct {
	loc *time.Location
	now func() time.Time
}

type AnalyzerOption func(*TemporalAnalyzer)

func WithLocation(loc *time.Location) AnalyzerOption {
	return func(a *TemporalAnalyzer) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *TemporalAnalyzer) { a.now = now }
}

func NewTemporalAnalyzer(opts ...AnalyzerOption) *TemporalAnalyzer {
	a := &TemporalAnalyzer{loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CategorizeByPeriod maps the local hour of ts to its period. Evening wraps
// past midnight up to 05:59.
func (a *TemporalAnalyzer) CategorizeByPeriod(ts time.Time) TimePeriod {
	return PeriodForHour(ts.In(a.loc).Hour())
}

func PeriodForHour(hour int) TimePeriod {
	switch {
	case hour >= 6 && hour < 11:
		return PeriodMorning
	case hour >= 11 && hour < 15:
		return PeriodLunch
	case hour >= 15 && hour < 19:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

func ConfidenceFor(sampleSize int) Confidence {
	switch {
	case sampleSize >= highConfidenceSamples:
		return ConfidenceHigh
	case sampleSize >= mediumConfidenceSamples:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// GroupByPeriod always returns all four periods, empty ones included.
func (a *TemporalAnalyzer) GroupByPeriod(ratings []models.Rating) map[TimePeriod][]models.Rating {
	grouped := make(map[TimePeriod][]models.Rating, len(Periods))
	for _, p := range Periods {
		grouped[p] = []models.Rating{}
	}
	for _, r := range ratings {
		p := a.CategorizeByPeriod(r.CreatedAt)
		grouped[p] = append(grouped[p], r)
	}
	return grouped
}

// BuildRecommendations ranks non-empty periods by average score, highest
// first.
func BuildRecommendations(grouped map[TimePeriod][]models.Rating) []TimeRecommendation {
	recs := make([]TimeRecommendation, 0, len(Periods))
	for _, p := range Periods {
		ratings := grouped[p]
		if len(ratings) == 0 {
			continue
		}
		total := 0
		for _, r := range ratings {
			total += r.Score
		}
		recs = append(recs, TimeRecommendation{
			Period:       p,
			AverageScore: roundTo(float64(total)/float64(len(ratings)), 2),
			Confidence:   ConfidenceFor(len(ratings)),
			SampleSize:   len(ratings),
			TimeRange:    p.TimeRange(),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].AverageScore > recs[j].AverageScore
	})
	return recs
}

// FilterByDateRange keeps ratings from the last days days.
func (a *TemporalAnalyzer) FilterByDateRange(ratings []models.Rating, days int) []models.Rating {
	if days <= 0 {
		days = DefaultAnalysisDays
	}
	cutoff := a.now().Add(-time.Duration(days) * 24 * time.Hour)

	out := make([]models.Rating, 0, len(ratings))
	for _, r := range ratings {
		if !r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Analyze ranks every input rating by period. The data is reliable only
// when the top-ranked period has at least medium confidence; best and worst
// periods are set only then.
func (a *TemporalAnalyzer) Analyze(ratings []models.Rating) HistoricalAnalysis {
	recs := BuildRecommendations(a.GroupByPeriod(ratings))

	analysis := HistoricalAnalysis{
		TimeRecommendations:  recs,
		TotalAnalyzedRatings: len(ratings),
	}
	if len(recs) == 0 || recs[0].Confidence == ConfidenceLow {
		return analysis
	}

	best := recs[0].Period
	worst := recs[len(recs)-1].Period
	analysis.BestPeriod = &best
	analysis.WorstPeriod = &worst
	analysis.HasReliableData = true
	return analysis
}

func OptimalTimingMessage(analysis HistoricalAnalysis) string {
	if !analysis.HasReliableData {
		return "Not enough data for time recommendations"
	}
	if analysis.BestPeriod == nil || len(analysis.TimeRecommendations) == 0 {
		return "Unable to determine optimal timing"
	}
	top := analysis.TimeRecommendations[0]
	return fmt.Sprintf("Best time: %s (%s) - Avg: %s/5",
		top.Period, top.TimeRange, strconv.FormatFloat(top.AverageScore, 'f', -1, 64))
}
