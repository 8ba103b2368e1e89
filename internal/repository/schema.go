package repository

// Schema creates the ledger tables. Statements are idempotent.
var Schema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations(id),
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
		submitter_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_location_created ON ratings (location_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_created ON ratings (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_lat_lng ON locations (latitude, longitude)`,
}
