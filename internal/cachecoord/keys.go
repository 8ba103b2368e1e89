package cachecoord

import (
	"fmt"
	"strings"
	"time"
)

const (
	PopularLocationsKey = "popular:locations"
	HotLocationsKey     = "hot:locations"
	NearbyPattern       = "nearby:*"
)

func NearbyKey(lat, lng float64, radiusMeters int) string {
	return fmt.Sprintf("nearby:%.4f:%.4f:%d", lat, lng, radiusMeters)
}

func LocationKey(id string) string { return "location:" + id }
func ScoreKey(id string) string    { return "score:" + id }
func SummaryKey(id string) string  { return "summary:" + id }
func TimeKey(id string) string     { return "time:" + id }
func StatsKey(id string) string    { return "stats:" + id }

func UserPrefsKey(userID string) string {
	return "user:" + userID + ":prefs"
}

// SearchKey lowercases the query and joins its words with underscores.
func SearchKey(query string) string {
	return "search:" + strings.Join(strings.Fields(strings.ToLower(query)), "_")
}

// View names a family of cached derived views sharing a TTL band.
type View int

const (
	ViewNearby View = iota
	ViewDetail
	ViewScore
	ViewSummary
	ViewTimeAnalysis
	ViewPopular
	ViewSearch
	ViewUserPrefs
	ViewStats
)

// TTLs holds one expiry per view.
type TTLs struct {
	Nearby       time.Duration
	Detail       time.Duration
	Score        time.Duration
	Summary      time.Duration
	TimeAnalysis time.Duration
	Popular      time.Duration
	Search       time.Duration
	UserPrefs    time.Duration
	Stats        time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Nearby:       300 * time.Second,
		Detail:       600 * time.Second,
		Score:        60 * time.Second,
		Summary:      300 * time.Second,
		TimeAnalysis: 3600 * time.Second,
		Popular:      1800 * time.Second,
		Search:       180 * time.Second,
		UserPrefs:    86400 * time.Second,
		Stats:        600 * time.Second,
	}
}

func (t TTLs) For(v View) time.Duration {
	switch v {
	case ViewNearby:
		return t.Nearby
	case ViewDetail:
		return t.Detail
	case ViewScore:
		return t.Score
	case ViewSummary:
		return t.Summary
	case ViewTimeAnalysis:
		return t.TimeAnalysis
	case ViewPopular:
		return t.Popular
	case ViewSearch:
		return t.Search
	case ViewUserPrefs:
		return t.UserPrefs
	case ViewStats:
		return t.Stats
	default:
		return 0
	}
}

// withDefaults fills zero bands from DefaultTTLs.
func (t TTLs) withDefaults() TTLs {
	d := DefaultTTLs()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.Nearby, d.Nearby)
	fill(&t.Detail, d.Detail)
	fill(&t.Score, d.Score)
	fill(&t.Summary, d.Summary)
	fill(&t.TimeAnalysis, d.TimeAnalysis)
	fill(&t.Popular, d.Popular)
	fill(&t.Search, d.Search)
	fill(&t.UserPrefs, d.UserPrefs)
	fill(&t.Stats, d.Stats)
	return t
}
