package models

import "time"

// Rating is one immutable submission for a location.
type Rating struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"location_id"`
	Score       int       `json:"score"`
	SubmitterID *string   `json:"submitter_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// NearbyLocation is a location matched by a radius query.
type NearbyLocation struct {
	Location
	DistanceMeters float64 `json:"distance_meters"`
}

// LocationActivity aggregates ratings of one location inside a time window.
type LocationActivity struct {
	LocationID   string  `json:"location_id"`
	RatingCount  int64   `json:"rating_count"`
	AverageScore float64 `json:"average_score"`
}

// LocationTotals holds all-time counters for one location.
type LocationTotals struct {
	LocationID   string        `json:"location_id"`
	TotalRatings int64         `json:"total_ratings"`
	LastRatedAt  *time.Time    `json:"last_rated_at,omitempty"`
	Distribution map[int]int64 `json:"distribution"`
}
