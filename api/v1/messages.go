package v1

import "time"

type SubmitRatingRequest struct {
	LocationID  string  `json:"location_id"`
	Score       int     `json:"score"`
	SubmitterID *string `json:"submitter_id,omitempty"`
}

type Rating struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"location_id"`
	Score       int       `json:"score"`
	SubmitterID *string   `json:"submitter_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LocationScore is a computed score. Status is "rated" or "unrated"; an
// unrated location reports WeightedScore 0.
type LocationScore struct {
	LocationID    string    `json:"location_id"`
	Status        string    `json:"status"`
	WeightedScore float64   `json:"weighted_score"`
	RatingCount   int       `json:"rating_count"`
	ComputedAt    time.Time `json:"computed_at"`
}

type SubmitRatingResponse struct {
	Rating           Rating         `json:"rating"`
	NewLocationScore *LocationScore `json:"new_location_score,omitempty"`
	Message          string         `json:"message"`
}

type LocationRequest struct {
	LocationID string `json:"location_id"`
}

type LocationsRequest struct {
	LocationIDs []string `json:"location_ids"`
}

type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

type LocationDetail struct {
	Location             Location   `json:"location"`
	Status               string     `json:"status"`
	FreshnessScore       float64    `json:"freshness_score"`
	RecencyAdjustedScore float64    `json:"recency_adjusted_score"`
	TotalRatings         int64      `json:"total_ratings"`
	LastRatedAt          *time.Time `json:"last_rated_at,omitempty"`
	ComputedAt           time.Time  `json:"computed_at"`
}

type LocationsResponse struct {
	Locations []LocationDetail `json:"locations"`
}

type TimeRecommendation struct {
	Period       string  `json:"period"`
	AverageScore float64 `json:"average_score"`
	Confidence   string  `json:"confidence"`
	SampleSize   int     `json:"sample_size"`
	TimeRange    string  `json:"time_range"`
}

type RatingActivity struct {
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummary struct {
	LocationID        string               `json:"location_id"`
	CurrentScore      LocationScore        `json:"current_score"`
	TotalRatings      int64                `json:"total_ratings"`
	LastRated         *time.Time           `json:"last_rated,omitempty"`
	OptimalTimes      []TimeRecommendation `json:"optimal_times"`
	RecentActivity    []RatingActivity     `json:"recent_activity"`
	ScoreDistribution map[int]int64        `json:"score_distribution"`
}

type TimeAnalysis struct {
	LocationID           string               `json:"location_id"`
	WindowDays           int                  `json:"window_days"`
	TimeRecommendations  []TimeRecommendation `json:"time_recommendations"`
	BestPeriod           string               `json:"best_period,omitempty"`
	WorstPeriod          string               `json:"worst_period,omitempty"`
	TotalAnalyzedRatings int                  `json:"total_analyzed_ratings"`
	HasReliableData      bool                 `json:"has_reliable_data"`
	Message              string               `json:"message"`
}

type LocationStats struct {
	LocationID     string        `json:"location_id"`
	RatingCount7d  int           `json:"rating_count_7d"`
	AverageScore7d float64       `json:"average_score_7d"`
	Score          LocationScore `json:"score"`
	ComputedAt     time.Time     `json:"computed_at"`
}

// NearbyRequest searches around a point. RadiusMeters 0 uses the server
// default.
type NearbyRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"radius_meters"`
}

type NearbyLocation struct {
	Location       Location      `json:"location"`
	DistanceMeters float64       `json:"distance_meters"`
	Score          LocationScore `json:"score"`
}

type NearbyResponse struct {
	Locations []NearbyLocation `json:"locations"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Locations []Location `json:"locations"`
}

// PopularRequest asks for the top ranked locations. Limit 0 uses the server
// default.
type PopularRequest struct {
	Limit int `json:"limit"`
}

type RankedLocation struct {
	LocationID string  `json:"location_id"`
	Score      float64 `json:"score"`
}

type PopularResponse struct {
	Locations []RankedLocation `json:"locations"`
}

type UserPreferencesRequest struct {
	UserID string `json:"user_id"`
}

type UserPreferencesResponse struct {
	UserID      string         `json:"user_id"`
	Found       bool           `json:"found"`
	Preferences map[string]any `json:"preferences"`
}

type SetUserPreferencesRequest struct {
	UserID      string         `json:"user_id"`
	Preferences map[string]any `json:"preferences"`
}

type SetUserPreferencesResponse struct {
	UserID string `json:"user_id"`
	Stored bool   `json:"stored"`
}
