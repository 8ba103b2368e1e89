package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/google/uuid"
)

var (
	ErrInvalidScore      = errors.New("rating score must be between 1 and 5")
	ErrLocationNotFound  = errors.New("location not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

const (
	MinScore = 1
	MaxScore = 5

	earthRadiusMeters = 6_371_000.0
	metersPerDegree   = 111_320.0
)

// RatingRepository is the SQLite-backed rating ledger. Ratings are append-only.
type RatingRepository struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*RatingRepository)

// WithClock overrides the time source used to stamp new ratings.
func WithClock(now func() time.Time) Option {
	return func(r *RatingRepository) { r.now = now }
}

func NewRatingRepository(db *sql.DB, opts ...Option) *RatingRepository {
	r := &RatingRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateLocation inserts a location, generating an id when none is set.
func (s *RatingRepository) CreateLocation(ctx context.Context, loc models.Location) (models.Location, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return models.Location{}, ErrInvalidCoordinate
	}
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = s.now()
	}
	loc.CreatedAt = loc.CreatedAt.UTC()

	const query = `INSERT INTO locations (id, name, address, latitude, longitude, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, loc.ID, loc.Name, loc.Address, loc.Latitude, loc.Longitude, loc.CreatedAt); err != nil {
		return models.Location{}, fmt.Errorf("insert location: %w", err)
	}
	return loc, nil
}

func (s *RatingRepository) GetLocation(ctx context.Context, id string) (models.Location, error) {
	const query = `SELECT id, name, address, latitude, longitude, created_at FROM locations WHERE id = ?`

	var loc models.Location
	err := s.db.QueryRowContext(ctx, query, id).Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Location{}, ErrLocationNotFound
		}
		return models.Location{}, fmt.Errorf("query GetLocation: %w", err)
	}
	return loc, nil
}

// Append validates and stores a new rating.
func (s *RatingRepository) Append(ctx context.Context, locationID string, score int, submitterID *string) (models.Rating, error) {
	if score < MinScore || score > MaxScore {
		return models.Rating{}, ErrInvalidScore
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM locations WHERE id = ?`, locationID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Rating{}, ErrLocationNotFound
		}
		return models.Rating{}, fmt.Errorf("query location for Append: %w", err)
	}

	rating := models.Rating{
		ID:          uuid.NewString(),
		LocationID:  locationID,
		Score:       score,
		SubmitterID: submitterID,
		CreatedAt:   s.now().UTC(),
	}

	const query = `INSERT INTO ratings (id, location_id, score, submitter_id, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, rating.ID, rating.LocationID, rating.Score, rating.SubmitterID, rating.CreatedAt); err != nil {
		return models.Rating{}, fmt.Errorf("insert rating: %w", err)
	}
	return rating, nil
}

// Query returns up to limit ratings for a location, newest first. A limit
// of zero or less returns all of them. Equal timestamps keep insertion order
// reversed.
func (s *RatingRepository) Query(ctx context.Context, locationID string, limit int) ([]models.Rating, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
		SELECT id, location_id, score, submitter_id, created_at
		FROM ratings
		WHERE location_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	return scanRatings(rows)
}

// QuerySince returns every rating created at or after since, newest first.
func (s *RatingRepository) QuerySince(ctx context.Context, locationID string, since time.Time) ([]models.Rating, error) {
	const query = `
		SELECT id, location_id, score, submitter_id, created_at
		FROM ratings
		WHERE location_id = ? AND created_at >= ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query, locationID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query ratings since: %w", err)
	}
	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]models.Rating, error) {
	defer rows.Close()

	var results []models.Rating
	for rows.Next() {
		var (
			r         models.Rating
			submitter sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.LocationID, &r.Score, &submitter, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		if submitter.Valid {
			v := submitter.String
			r.SubmitterID = &v
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return results, nil
}

// Totals returns the all-time count, last rating time and score histogram.
func (s *RatingRepository) Totals(ctx context.Context, locationID string) (models.LocationTotals, error) {
	totals := models.LocationTotals{
		LocationID:   locationID,
		Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	rows, err := s.db.QueryContext(ctx, `SELECT score, COUNT(*) FROM ratings WHERE location_id = ? GROUP BY score`, locationID)
	if err != nil {
		return models.LocationTotals{}, fmt.Errorf("query Totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			score int
			count int64
		)
		if err := rows.Scan(&score, &count); err != nil {
			return models.LocationTotals{}, fmt.Errorf("scan Totals row: %w", err)
		}
		totals.Distribution[score] = count
		totals.TotalRatings += count
	}
	if err := rows.Err(); err != nil {
		return models.LocationTotals{}, fmt.Errorf("iterate Totals: %w", err)
	}

	if totals.TotalRatings == 0 {
		return totals, nil
	}

	var last time.Time
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM ratings WHERE location_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		locationID,
	).Scan(&last)
	if err != nil {
		return models.LocationTotals{}, fmt.Errorf("query last rating: %w", err)
	}
	totals.LastRatedAt = &last
	return totals, nil
}

// NearbyLocations returns locations within radiusMeters, nearest first.
func (s *RatingRepository) NearbyLocations(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]models.NearbyLocation, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radiusMeters <= 0 {
		return nil, ErrInvalidCoordinate
	}

	dLat := radiusMeters / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = math.Min(180, radiusMeters/(metersPerDegree*cosLat))
	}

	const query = `
		SELECT id, name, address, latitude, longitude, created_at
		FROM locations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
	`
	rows, err := s.db.QueryContext(ctx, query, lat-dLat, lat+dLat, lng-dLng, lng+dLng)
	if err != nil {
		return nil, fmt.Errorf("query NearbyLocations: %w", err)
	}
	defer rows.Close()

	var results []models.NearbyLocation
	for rows.Next() {
		var n models.NearbyLocation
		if err := rows.Scan(&n.ID, &n.Name, &n.Address, &n.Latitude, &n.Longitude, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan NearbyLocations row: %w", err)
		}
		n.DistanceMeters = Haversine(lat, lng, n.Latitude, n.Longitude)
		if n.DistanceMeters <= radiusMeters {
			results = append(results, n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate NearbyLocations: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchLocations matches query against name and address, case-insensitively.
func (s *RatingRepository) SearchLocations(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	const stmt = `
		SELECT id, name, address, latitude, longitude, created_at
		FROM locations
		WHERE lower(name) LIKE ? OR lower(address) LIKE ?
		ORDER BY name, id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, stmt, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query SearchLocations: %w", err)
	}
	defer rows.Close()

	var results []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan SearchLocations row: %w", err)
		}
		results = append(results, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate SearchLocations: %w", err)
	}
	return results, nil
}

// PopularLocations ranks locations by rating count since the given time,
// then by average score.
func (s *RatingRepository) PopularLocations(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error) {
	return s.activity(ctx, "PopularLocations", since, 1, limit)
}

// ActiveLocations is PopularLocations restricted to locations with at least
// minRatings ratings in the window.
func (s *RatingRepository) ActiveLocations(ctx context.Context, since time.Time, minRatings, limit int) ([]models.LocationActivity, error) {
	return s.activity(ctx, "ActiveLocations", since, minRatings, limit)
}

func (s *RatingRepository) activity(ctx context.Context, op string, since time.Time, minRatings, limit int) ([]models.LocationActivity, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
		SELECT location_id, COUNT(*) AS rating_count, AVG(CAST(score AS REAL)) AS average_score
		FROM ratings
		WHERE created_at >= ?
		GROUP BY location_id
		HAVING COUNT(*) >= ?
		ORDER BY rating_count DESC, average_score DESC, location_id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, since.UTC(), minRatings, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	defer rows.Close()

	var results []models.LocationActivity
	for rows.Next() {
		var a models.LocationActivity
		if err := rows.Scan(&a.LocationID, &a.RatingCount, &a.AverageScore); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return results, nil
}

// RecentlyRatedLocations lists location ids rated since the given time, most
// recently rated first.
func (s *RatingRepository) RecentlyRatedLocations(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
		SELECT location_id
		FROM ratings
		WHERE created_at >= ?
		GROUP BY location_id
		ORDER BY MAX(created_at) DESC, location_id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query RecentlyRatedLocations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan RecentlyRatedLocations row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate RecentlyRatedLocations: %w", err)
	}
	return ids, nil
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
