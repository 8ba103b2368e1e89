package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/metrics"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/pkg/cache"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	submitMessage         = "Rating submitted successfully"
	submitDegradedMessage = "Rating submitted; updated score is temporarily unavailable"
)

type Options struct {
	DefaultRadiusMeters int
	ResultLimit         int
	AnalysisDays        int
	MaxAnalyzedRatings  int
	PopularWindow       time.Duration
	PopularLimit        int
	StatsWindow         time.Duration
	RecentActivity      int
}

func DefaultOptions() Options {
	return Options{
		DefaultRadiusMeters: 5000,
		ResultLimit:         20,
		AnalysisDays:        DefaultAnalysisDays,
		MaxAnalyzedRatings:  1000,
		PopularWindow:       7 * 24 * time.Hour,
		PopularLimit:        50,
		StatsWindow:         7 * 24 * time.Hour,
		RecentActivity:      5,
	}
}

// RatingService serves the derived views of the rating ledger through the
// cache coordinator, recomputing on a miss.
type RatingService struct {
	ledger   RatingLedger
	scoring  *ScoringService
	analyzer *TemporalAnalyzer
	cache    ViewCache
	opts     Options
	sf       singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
}

func NewRatingService(ledger RatingLedger, scoring *ScoringService, analyzer *TemporalAnalyzer, views ViewCache, opts Options, logger *zap.Logger) *RatingService {
	if ledger == nil || scoring == nil || views == nil {
		panic("nil dependency provided to NewRatingService")
	}
	if analyzer == nil {
		analyzer = NewTemporalAnalyzer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.DefaultRadiusMeters <= 0 {
		opts.DefaultRadiusMeters = def.DefaultRadiusMeters
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = def.ResultLimit
	}
	if opts.AnalysisDays <= 0 {
		opts.AnalysisDays = def.AnalysisDays
	}
	if opts.MaxAnalyzedRatings <= 0 {
		opts.MaxAnalyzedRatings = def.MaxAnalyzedRatings
	}
	if opts.PopularWindow <= 0 {
		opts.PopularWindow = def.PopularWindow
	}
	if opts.PopularLimit <= 0 {
		opts.PopularLimit = def.PopularLimit
	}
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = def.StatsWindow
	}
	if opts.RecentActivity <= 0 {
		opts.RecentActivity = def.RecentActivity
	}
	return &RatingService{
		ledger:   ledger,
		scoring:  scoring,
		analyzer: analyzer,
		cache:    views,
		opts:     opts,
		now:      analyzer.now,
		logger:   logger.Named("rating-service"),
	}
}

// SubmitRating appends a rating, invalidates the location's cached views and
// returns the recomputed score. If the score cannot be recomputed after a
// successful append, the rating is still returned with a nil score.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (SubmitRatingResult, error) {
	req.LocationID = strings.TrimSpace(req.LocationID)
	if err := validateStruct(req); err != nil {
		return SubmitRatingResult{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	rating, err := s.ledger.Append(dbCtx, req.LocationID, req.Score, req.SubmitterID)
	cancel()
	if err != nil {
		return SubmitRatingResult{}, ledgerError("append rating", err)
	}
	metrics.RatingsSubmitted.Inc()

	s.cache.InvalidateLocation(ctx, req.LocationID)

	result := SubmitRatingResult{Rating: rating, Message: submitMessage}

	snapshot, err := cachecoord.Refresh(ctx, s.cache, cachecoord.ScoreKey(req.LocationID), s.cache.TTL(cachecoord.ViewScore),
		func(ctx context.Context) (ScoreSnapshot, error) {
			return s.scoring.LocationScore(ctx, req.LocationID)
		})
	if err != nil {
		s.logger.Warn("score recompute after submit failed",
			zap.String("location_id", req.LocationID),
			zap.String("rating_id", rating.ID),
			zap.Error(err))
		result.Message = submitDegradedMessage
		return result, nil
	}

	result.NewLocationScore = &snapshot
	s.logger.Info("rating submitted",
		zap.String("location_id", req.LocationID),
		zap.Int("score", req.Score),
		zap.Float64("new_score", snapshot.WeightedScore))
	return result, nil
}

// LocationScore serves the score view.
func (s *RatingService) LocationScore(ctx context.Context, locationID string) (ScoreSnapshot, error) {
	if err := requireID(locationID); err != nil {
		return ScoreSnapshot{}, err
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.ScoreKey(locationID), s.cache.TTL(cachecoord.ViewScore),
		func(ctx context.Context) (ScoreSnapshot, error) {
			return s.scoring.LocationScore(ctx, locationID)
		})
}

// LocationDetail serves the detail view.
func (s *RatingService) LocationDetail(ctx context.Context, locationID string) (LocationDetail, error) {
	if err := requireID(locationID); err != nil {
		return LocationDetail{}, err
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.LocationKey(locationID), s.cache.TTL(cachecoord.ViewDetail),
		func(ctx context.Context) (LocationDetail, error) {
			return s.computeDetail(ctx, locationID)
		})
}

// LocationDetails serves many detail views with one multi-get; misses are
// recomputed and written back in one pipelined multi-set. Unknown ids are
// skipped.
func (s *RatingService) LocationDetails(ctx context.Context, ids []string) ([]LocationDetail, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cachecoord.LocationKey(id)
	}
	hits := cachecoord.DecodeMany[LocationDetail](s.cache.GetMany(ctx, keys))

	out := make([]LocationDetail, 0, len(ids))
	var fills []cache.Entry
	for i, id := range ids {
		if d, ok := hits[keys[i]]; ok {
			out = append(out, d)
			continue
		}
		d, err := s.computeDetail(ctx, id)
		if errors.Is(err, ErrLocationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		fills = append(fills, cache.Entry{Key: keys[i], Value: d, TTL: s.cache.TTL(cachecoord.ViewDetail)})
	}
	s.cache.SetMany(ctx, fills)
	return out, nil
}

// RefreshLocationDetails recomputes detail views and overwrites them in one
// pipelined write. It returns how many were written and every error met.
func (s *RatingService) RefreshLocationDetails(ctx context.Context, ids []string) (int, error) {
	var (
		entries []cache.Entry
		errs    error
	)
	for _, id := range ids {
		d, err := s.computeDetail(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrLocationNotFound) {
				errs = multierr.Append(errs, err)
			}
			continue
		}
		entries = append(entries, cache.Entry{Key: cachecoord.LocationKey(id), Value: d, TTL: s.cache.TTL(cachecoord.ViewDetail)})
	}
	if len(entries) > 0 && !s.cache.SetMany(ctx, entries) {
		return 0, errs
	}
	return len(entries), errs
}

func (s *RatingService) computeDetail(ctx context.Context, locationID string) (LocationDetail, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	loc, err := s.ledger.GetLocation(dbCtx, locationID)
	if err != nil {
		return LocationDetail{}, ledgerError("location detail", err)
	}
	engine := s.scoring.Engine()
	ratings, err := s.ledger.Query(dbCtx, locationID, engine.Window())
	if err != nil {
		return LocationDetail{}, ledgerError("location detail", err)
	}
	totals, err := s.ledger.Totals(dbCtx, locationID)
	if err != nil {
		return LocationDetail{}, ledgerError("location detail", err)
	}

	detail := LocationDetail{
		Location:     loc,
		Status:       ScoreUnrated,
		TotalRatings: totals.TotalRatings,
		LastRatedAt:  totals.LastRatedAt,
		ComputedAt:   s.now().UTC(),
	}
	if len(ratings) > 0 {
		detail.Status = ScoreRated
		detail.FreshnessScore = engine.WeightedScore(ratings)
		detail.RecencyAdjustedScore = engine.AdvancedWeightedScore(ratings)
	}
	return detail, nil
}

// RatingSummary serves the summary view.
func (s *RatingService) RatingSummary(ctx context.Context, locationID string) (RatingSummary, error) {
	if err := requireID(locationID); err != nil {
		return RatingSummary{}, err
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.SummaryKey(locationID), s.cache.TTL(cachecoord.ViewSummary),
		func(ctx context.Context) (RatingSummary, error) {
			return s.computeSummary(ctx, locationID)
		})
}

func (s *RatingService) computeSummary(ctx context.Context, locationID string) (RatingSummary, error) {
	score, err := s.LocationScore(ctx, locationID)
	if err != nil {
		return RatingSummary{}, err
	}

	analysis, ratings, err := s.analysisFor(ctx, locationID)
	if err != nil {
		return RatingSummary{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	totals, err := s.ledger.Totals(dbCtx, locationID)
	if err != nil {
		return RatingSummary{}, ledgerError("rating summary", err)
	}

	recent := ratings
	if len(recent) > s.opts.RecentActivity {
		recent = recent[:s.opts.RecentActivity]
	}
	activity := make([]RatingActivity, len(recent))
	for i, r := range recent {
		activity[i] = RatingActivity{Score: r.Score, CreatedAt: r.CreatedAt}
	}

	return RatingSummary{
		LocationID:        locationID,
		CurrentScore:      score,
		TotalRatings:      totals.TotalRatings,
		LastRated:         totals.LastRatedAt,
		OptimalTimes:      analysis.TimeRecommendations,
		RecentActivity:    activity,
		ScoreDistribution: totals.Distribution,
	}, nil
}

// TimeAnalysis serves the time-of-day analysis view.
func (s *RatingService) TimeAnalysis(ctx context.Context, locationID string) (TimeAnalysisView, error) {
	if err := requireID(locationID); err != nil {
		return TimeAnalysisView{}, err
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.TimeKey(locationID), s.cache.TTL(cachecoord.ViewTimeAnalysis),
		func(ctx context.Context) (TimeAnalysisView, error) {
			analysis, _, err := s.analysisFor(ctx, locationID)
			if err != nil {
				return TimeAnalysisView{}, err
			}
			return TimeAnalysisView{
				LocationID: locationID,
				WindowDays: s.opts.AnalysisDays,
				Analysis:   analysis,
				Message:    OptimalTimingMessage(analysis),
			}, nil
		})
}

// analysisFor loads the location's newest ratings, analyses the ones inside
// the analysis window and also returns the unfiltered newest-first list.
func (s *RatingService) analysisFor(ctx context.Context, locationID string) (HistoricalAnalysis, []models.Rating, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.ledger.GetLocation(dbCtx, locationID); err != nil {
		return HistoricalAnalysis{}, nil, ledgerError("time analysis", err)
	}
	ratings, err := s.ledger.Query(dbCtx, locationID, s.opts.MaxAnalyzedRatings)
	if err != nil {
		return HistoricalAnalysis{}, nil, ledgerError("time analysis", err)
	}
	windowed := s.analyzer.FilterByDateRange(ratings, s.opts.AnalysisDays)
	return s.analyzer.Analyze(windowed), ratings, nil
}

// NearbyLocations serves the radius search view. A zero radius uses the
// configured default.
func (s *RatingService) NearbyLocations(ctx context.Context, q NearbyQuery) ([]NearbyResult, error) {
	q, err := s.normalizeNearby(q)
	if err != nil {
		return nil, err
	}
	key := cachecoord.NearbyKey(q.Latitude, q.Longitude, q.RadiusMeters)
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, key, s.cache.TTL(cachecoord.ViewNearby),
		func(ctx context.Context) ([]NearbyResult, error) {
			return s.computeNearby(ctx, q)
		})
}

// RefreshNearby recomputes and overwrites one radius search.
func (s *RatingService) RefreshNearby(ctx context.Context, q NearbyQuery) (int, error) {
	q, err := s.normalizeNearby(q)
	if err != nil {
		return 0, err
	}
	key := cachecoord.NearbyKey(q.Latitude, q.Longitude, q.RadiusMeters)
	results, err := cachecoord.Refresh(ctx, s.cache, key, s.cache.TTL(cachecoord.ViewNearby),
		func(ctx context.Context) ([]NearbyResult, error) {
			return s.computeNearby(ctx, q)
		})
	return len(results), err
}

func (s *RatingService) normalizeNearby(q NearbyQuery) (NearbyQuery, error) {
	if q.RadiusMeters == 0 {
		q.RadiusMeters = s.opts.DefaultRadiusMeters
	}
	if err := validateStruct(q); err != nil {
		return NearbyQuery{}, err
	}
	return q, nil
}

func (s *RatingService) computeNearby(ctx context.Context, q NearbyQuery) ([]NearbyResult, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	locs, err := s.ledger.NearbyLocations(dbCtx, q.Latitude, q.Longitude, float64(q.RadiusMeters), s.opts.ResultLimit)
	cancel()
	if err != nil {
		return nil, ledgerError("nearby locations", err)
	}

	ids := make([]string, len(locs))
	for i, l := range locs {
		ids[i] = l.ID
	}
	scores, err := s.scoresFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyResult, len(locs))
	for i, l := range locs {
		results[i] = NearbyResult{
			Location:       l.Location,
			DistanceMeters: l.DistanceMeters,
			Score:          scores[l.ID],
		}
	}
	return results, nil
}

// scoresFor reads score views in bulk and recomputes the misses.
func (s *RatingService) scoresFor(ctx context.Context, ids []string) (map[string]ScoreSnapshot, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cachecoord.ScoreKey(id)
	}
	hits := cachecoord.DecodeMany[ScoreSnapshot](s.cache.GetMany(ctx, keys))

	out := make(map[string]ScoreSnapshot, len(ids))
	var fills []cache.Entry
	for i, id := range ids {
		if snap, ok := hits[keys[i]]; ok {
			out[id] = snap
			continue
		}
		snap, err := s.scoring.LocationScore(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = snap
		fills = append(fills, cache.Entry{Key: keys[i], Value: snap, TTL: s.cache.TTL(cachecoord.ViewScore)})
	}
	s.cache.SetMany(ctx, fills)
	return out, nil
}

// SearchLocations serves the text search view.
func (s *RatingService) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.SearchKey(query), s.cache.TTL(cachecoord.ViewSearch),
		func(ctx context.Context) ([]models.Location, error) {
			dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
			defer cancel()
			locs, err := s.ledger.SearchLocations(dbCtx, query, s.opts.ResultLimit)
			if err != nil {
				return nil, ledgerError("search locations", err)
			}
			if locs == nil {
				locs = []models.Location{}
			}
			return locs, nil
		})
}

// PopularLocations serves the popularity view: locations by rating count
// over the popular window, then by average score.
func (s *RatingService) PopularLocations(ctx context.Context) ([]models.LocationActivity, error) {
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.PopularLocationsKey, s.cache.TTL(cachecoord.ViewPopular),
		func(ctx context.Context) ([]models.LocationActivity, error) {
			dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
			defer cancel()
			popular, err := s.ledger.PopularLocations(dbCtx, s.now().Add(-s.opts.PopularWindow), s.opts.PopularLimit)
			if err != nil {
				return nil, ledgerError("popular locations", err)
			}
			if popular == nil {
				popular = []models.LocationActivity{}
			}
			return popular, nil
		})
}

// TopLocations reads the warmed hot:locations ranking, falling back to the
// popularity view when the ranking is absent.
func (s *RatingService) TopLocations(ctx context.Context, n int) ([]RankedLocation, error) {
	if n <= 0 {
		n = s.opts.ResultLimit
	}
	if top := s.cache.TopN(ctx, cachecoord.HotLocationsKey, n); len(top) > 0 {
		out := make([]RankedLocation, len(top))
		for i, m := range top {
			out[i] = RankedLocation{LocationID: m.Member, Score: m.Score}
		}
		return out, nil
	}

	popular, err := s.PopularLocations(ctx)
	if err != nil {
		return nil, err
	}
	if len(popular) > n {
		popular = popular[:n]
	}
	out := make([]RankedLocation, len(popular))
	for i, a := range popular {
		out[i] = RankedLocation{LocationID: a.LocationID, Score: RankScore(a)}
	}
	return out, nil
}

// RankScore orders locations by rating count, then average score.
func RankScore(a models.LocationActivity) float64 {
	return roundTo(float64(a.RatingCount)+a.AverageScore/10, 2)
}

// LocationStats serves the recent-activity stats view.
func (s *RatingService) LocationStats(ctx context.Context, locationID string) (LocationStats, error) {
	if err := requireID(locationID); err != nil {
		return LocationStats{}, err
	}
	return cachecoord.FindAndCache(ctx, s.cache, &s.sf, cachecoord.StatsKey(locationID), s.cache.TTL(cachecoord.ViewStats),
		func(ctx context.Context) (LocationStats, error) {
			return s.computeStats(ctx, locationID)
		})
}

// RefreshLocationStats recomputes stats views and overwrites them in one
// pipelined write.
func (s *RatingService) RefreshLocationStats(ctx context.Context, ids []string) (int, error) {
	var (
		entries []cache.Entry
		errs    error
	)
	for _, id := range ids {
		st, err := s.computeStats(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		entries = append(entries, cache.Entry{Key: cachecoord.StatsKey(id), Value: st, TTL: s.cache.TTL(cachecoord.ViewStats)})
	}
	if len(entries) > 0 && !s.cache.SetMany(ctx, entries) {
		return 0, errs
	}
	return len(entries), errs
}

func (s *RatingService) computeStats(ctx context.Context, locationID string) (LocationStats, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	recent, err := s.ledger.QuerySince(dbCtx, locationID, s.now().Add(-s.opts.StatsWindow))
	cancel()
	if err != nil {
		return LocationStats{}, ledgerError("location stats", err)
	}

	score, err := s.scoring.LocationScore(ctx, locationID)
	if err != nil {
		return LocationStats{}, err
	}

	stats := LocationStats{
		LocationID:    locationID,
		RatingCount7d: len(recent),
		Score:         score,
		ComputedAt:    s.now().UTC(),
	}
	if len(recent) > 0 {
		total := 0
		for _, r := range recent {
			total += r.Score
		}
		stats.AverageScore7d = roundTo(float64(total)/float64(len(recent)), 2)
	}
	return stats, nil
}

// UserPreferences reads preferences kept only in the cache tier. The bool is
// false when none are stored or the tier is unavailable.
func (s *RatingService) UserPreferences(ctx context.Context, userID string) (map[string]any, bool, error) {
	if err := requireID(userID); err != nil {
		return nil, false, err
	}
	var prefs map[string]any
	if !s.cache.Get(ctx, cachecoord.UserPrefsKey(userID), &prefs) {
		return nil, false, nil
	}
	return prefs, true, nil
}

// SaveUserPreferences stores preferences with the user-prefs TTL and reports
// whether the write landed.
func (s *RatingService) SaveUserPreferences(ctx context.Context, userID string, prefs map[string]any) (bool, error) {
	if err := requireID(userID); err != nil {
		return false, err
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	return s.cache.Set(ctx, cachecoord.UserPrefsKey(userID), prefs, s.cache.TTL(cachecoord.ViewUserPrefs)), nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	return nil
}
