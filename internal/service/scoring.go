package service

import (
	"context"
	"time"

	"github.com/godilite/freshness-server/internal/metrics"
	"go.uber.org/zap"
)

const (
	dbTimeout = 1 * time.Second
)

// ScoringService computes location scores from the ledger.
type ScoringService struct {
	ledger RatingLedger
	engine *ScoreEngine
	now    func() time.Time
	logger *zap.Logger
}

func NewScoringService(ledger RatingLedger, engine *ScoreEngine, logger *zap.Logger) *ScoringService {
	if ledger == nil {
		panic("ledger must not be nil")
	}
	if engine == nil {
		engine = NewScoreEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{
		ledger: ledger,
		engine: engine,
		now:    engine.now,
		logger: logger,
	}
}

func (s *ScoringService) Engine() *ScoreEngine { return s.engine }

// LocationScore recomputes the weighted score of a location. A location
// without ratings yields an Unrated snapshot; a ledger failure yields an
// error wrapping ErrStorageFailure.
func (s *ScoringService) LocationScore(ctx context.Context, locationID string) (ScoreSnapshot, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	ratings, err := s.ledger.Query(dbCtx, locationID, s.engine.Window())
	if err != nil {
		metrics.ScoreComputations.WithLabelValues("error").Inc()
		s.logger.Error("failed to load rating window", zap.String("location_id", locationID), zap.Error(err))
		return ScoreSnapshot{}, ledgerError("score", err)
	}

	snapshot := ScoreSnapshot{
		LocationID:  locationID,
		Status:      ScoreUnrated,
		RatingCount: len(ratings),
		ComputedAt:  s.now().UTC(),
	}
	if len(ratings) == 0 {
		metrics.ScoreComputations.WithLabelValues("unrated").Inc()
		return snapshot, nil
	}

	snapshot.Status = ScoreRated
	snapshot.WeightedScore = s.engine.WeightedScore(ratings)
	metrics.ScoreComputations.WithLabelValues("rated").Inc()

	s.logger.Debug("computed location score",
		zap.String("location_id", locationID),
		zap.Float64("score", snapshot.WeightedScore),
		zap.Int("window", len(ratings)))

	return snapshot, nil
}
