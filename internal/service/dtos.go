package service

import (
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
)

type ScoreStatus string

const (
	// ScoreRated means Score holds a real weighted score in [1,5].
	ScoreRated ScoreStatus = "rated"
	// ScoreUnrated means the location has no ratings yet; Score is 0.
	ScoreUnrated ScoreStatus = "unrated"
)

// ScoreSnapshot is a derived score. It is only ever cached, never stored.
type ScoreSnapshot struct {
	LocationID    string      `json:"location_id"`
	Status        ScoreStatus `json:"status"`
	WeightedScore float64     `json:"weighted_score"`
	RatingCount   int         `json:"rating_count"`
	ComputedAt    time.Time   `json:"computed_at"`
}

func (s ScoreSnapshot) Rated() bool { return s.Status == ScoreRated }

type SubmitRatingRequest struct {
	LocationID  string  `json:"location_id" validate:"required,max=128"`
	Score       int     `json:"score" validate:"min=1,max=5"`
	SubmitterID *string `json:"submitter_id,omitempty" validate:"omitempty,max=128"`
}

type SubmitRatingResult struct {
	Rating           models.Rating  `json:"rating"`
	NewLocationScore *ScoreSnapshot `json:"new_location_score,omitempty"`
	Message          string         `json:"message"`
}

type LocationDetail struct {
	Location             models.Location `json:"location"`
	Status               ScoreStatus     `json:"status"`
	FreshnessScore       float64         `json:"freshness_score"`
	RecencyAdjustedScore float64         `json:"recency_adjusted_score"`
	TotalRatings         int64           `json:"total_ratings"`
	LastRatedAt          *time.Time      `json:"last_rated_at,omitempty"`
	ComputedAt           time.Time       `json:"computed_at"`
}

type RatingActivity struct {
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummary struct {
	LocationID        string               `json:"location_id"`
	CurrentScore      ScoreSnapshot        `json:"current_score"`
	TotalRatings      int64                `json:"total_ratings"`
	LastRated         *time.Time           `json:"last_rated,omitempty"`
	OptimalTimes      []TimeRecommendation `json:"optimal_times"`
	RecentActivity    []RatingActivity     `json:"recent_activity"`
	ScoreDistribution map[int]int64        `json:"score_distribution"`
}

type TimeAnalysisView struct {
	LocationID string             `json:"location_id"`
	WindowDays int                `json:"window_days"`
	Analysis   HistoricalAnalysis `json:"analysis"`
	Message    string             `json:"message"`
}

type NearbyQuery struct {
	Latitude     float64 `json:"latitude" validate:"latitude"`
	Longitude    float64 `json:"longitude" validate:"longitude"`
	RadiusMeters int     `json:"radius_meters" validate:"gte=0,lte=50000"`
}

type NearbyResult struct {
	Location       models.Location `json:"location"`
	DistanceMeters float64         `json:"distance_meters"`
	Score          ScoreSnapshot   `json:"score"`
}

type LocationStats struct {
	LocationID     string        `json:"location_id"`
	RatingCount7d  int           `json:"rating_count_7d"`
	AverageScore7d float64       `json:"average_score_7d"`
	Score          ScoreSnapshot `json:"score"`
	ComputedAt     time.Time     `json:"computed_at"`
}

type RankedLocation struct {
	LocationID string  `json:"location_id"`
	Score      float64 `json:"score"`
}
