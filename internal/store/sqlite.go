package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/avm-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS transactions (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	area_en             TEXT,
	prop_type_en        TEXT,
	prop_sb_type_en     TEXT,
	rooms_en            TEXT,
	trans_value         REAL,
	actual_area         TEXT,
	instance_date       DATETIME,
	project_en          TEXT,
	is_offplan_en       TEXT,
	is_free_hold_en     TEXT,
	usage_en            TEXT,
	nearest_metro_en    TEXT,
	nearest_mall_en     TEXT,
	nearest_landmark_en TEXT,
	esg_score           INTEGER,
	flip_score          INTEGER
);

CREATE INDEX IF NOT EXISTS idx_transactions_area ON transactions(area_en);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(instance_date);

CREATE TABLE IF NOT EXISTS leases (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	area_en           TEXT,
	prop_type_en      TEXT,
	prop_sb_type_en   TEXT,
	annual_amount     REAL,
	actual_area       REAL,
	registration_date DATETIME,
	project_en        TEXT
);

CREATE INDEX IF NOT EXISTS idx_leases_area ON leases(area_en);

CREATE TABLE IF NOT EXISTS area_coordinates (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	area_name               TEXT NOT NULL UNIQUE,
	latitude                REAL,
	longitude               REAL,
	distance_to_metro_km    REAL,
	distance_to_beach_km    REAL,
	distance_to_mall_km     REAL,
	distance_to_school_km   REAL,
	distance_to_business_km REAL,
	neighborhood_score      REAL
);

CREATE TABLE IF NOT EXISTS amenities (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS project_premiums (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	project_name       TEXT NOT NULL UNIQUE,
	premium_percentage REAL NOT NULL DEFAULT 0,
	tier               TEXT NOT NULL DEFAULT 'none',
	transaction_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS property_location_cache (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	area_name            TEXT NOT NULL,
	property_type        TEXT NOT NULL,
	bedrooms             TEXT NOT NULL DEFAULT '',
	metro_premium        REAL NOT NULL DEFAULT 0,
	beach_premium        REAL NOT NULL DEFAULT 0,
	mall_premium         REAL NOT NULL DEFAULT 0,
	school_premium       REAL NOT NULL DEFAULT 0,
	business_premium     REAL NOT NULL DEFAULT 0,
	neighborhood_premium REAL NOT NULL DEFAULT 0,
	total_premium        REAL NOT NULL DEFAULT 0,
	confidence           REAL NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL,
	cache_hits           INTEGER NOT NULL DEFAULT 0,
	last_accessed        DATETIME,
	UNIQUE (area_name, property_type, bedrooms)
);

CREATE INDEX IF NOT EXISTS idx_location_cache_created ON property_location_cache(created_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SearchComparables(ctx context.Context, filter ComparableFilter) ([]model.Transaction, error) {
	q, args := comparableQuery(sqliteDialect, filter)
	return s.queryTransactions(ctx, "search comparables", q, args)
}

func (s *SQLiteStore) ListSales(ctx context.Context, filter MarketFilter) ([]model.Transaction, error) {
	q, args := salesQuery(sqliteDialect, filter)
	txs, err := s.queryTransactions(ctx, "list sales", q, args)
	if err != nil {
		return nil, err
	}
	return parsedOnly(txs), nil
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, op, q string, args []any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: "+op)
	}
	defer rows.Close() //nolint:errcheck

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan transaction")
		}
		txs = append(txs, t)
	}
	return txs, eris.Wrap(rows.Err(), "sqlite: "+op+" iterate")
}

func (s *SQLiteStore) ListLeases(ctx context.Context, filter MarketFilter) ([]model.LeaseRecord, error) {
	q, args := leasesQuery(sqliteDialect, filter)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leases")
	}
	defer rows.Close() //nolint:errcheck

	var leases []model.LeaseRecord
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lease")
		}
		leases = append(leases, l)
	}
	return leases, eris.Wrap(rows.Err(), "sqlite: list leases iterate")
}

func (s *SQLiteStore) GetAreaCoordinate(ctx context.Context, area string) (*model.AreaCoordinate, error) {
	a, err := scanAreaCoordinate(s.db.QueryRowContext(ctx,
		`SELECT area_name, latitude, longitude, distance_to_metro_km, distance_to_beach_km,
		        distance_to_mall_km, distance_to_school_km, distance_to_business_km, neighborhood_score
		 FROM area_coordinates WHERE LOWER(area_name) = LOWER(?) LIMIT 1`,
		model.NormalizeArea(area),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get area coordinate %s", area)
	}
	return a, nil
}

func (s *SQLiteStore) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, latitude, longitude FROM amenities WHERE active = 1 ORDER BY type, name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list amenities")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Amenity
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan amenity")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list amenities iterate")
}

func (s *SQLiteStore) GetProjectPremium(ctx context.Context, name string) (*model.ProjectPremium, error) {
	var p model.ProjectPremium
	err := s.db.QueryRowContext(ctx,
		`SELECT project_name, premium_percentage, tier, transaction_count
		 FROM project_premiums WHERE LOWER(project_name) = LOWER(?) LIMIT 1`,
		name,
	).Scan(&p.ProjectName, &p.PremiumPercentage, &p.Tier, &p.TransactionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get project premium %s", name)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjectsByTier(ctx context.Context, tier, exclude string, limit int) ([]model.ProjectPremium, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_name, premium_percentage, tier, transaction_count
		 FROM project_premiums WHERE tier = ? AND LOWER(project_name) <> LOWER(?)
		 ORDER BY transaction_count DESC, premium_percentage DESC LIMIT ?`,
		tier, exclude, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list projects by tier %s", tier)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ProjectPremium
	for rows.Next() {
		var p model.ProjectPremium
		if err := rows.Scan(&p.ProjectName, &p.PremiumPercentage, &p.Tier, &p.TransactionCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project premium")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) GetLocationPremium(ctx context.Context, key model.CacheKey, maxAge time.Duration) (*model.LocationCacheEntry, error) {
	e, err := scanLocationEntry(s.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+`
		 FROM property_location_cache
		 WHERE area_name = ? AND property_type = ? AND bedrooms = ? AND created_at > ?`,
		key.Area, key.PropertyType, key.Bedrooms, cutoff(maxAge),
	), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get location premium")
	}
	return e, nil
}

func (s *SQLiteStore) RecordCacheHit(ctx context.Context, key model.CacheKey) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE property_location_cache SET cache_hits = cache_hits + 1, last_accessed = ?
		 WHERE area_name = ? AND property_type = ? AND bedrooms = ?`,
		time.Now().UTC(), key.Area, key.PropertyType, key.Bedrooms,
	)
	return eris.Wrap(err, "sqlite: record cache hit")
}

func (s *SQLiteStore) UpsertLocationPremium(ctx context.Context, key model.CacheKey, p model.LocationPremium) error {
	return s.upsertLocationPremiumAt(ctx, key, p, time.Now().UTC())
}

func (s *SQLiteStore) upsertLocationPremiumAt(ctx context.Context, key model.CacheKey, p model.LocationPremium, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO property_location_cache
		 (area_name, property_type, bedrooms, metro_premium, beach_premium, mall_premium, school_premium,
		  business_premium, neighborhood_premium, total_premium, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (area_name, property_type, bedrooms) DO UPDATE SET
		  metro_premium = excluded.metro_premium, beach_premium = excluded.beach_premium,
		  mall_premium = excluded.mall_premium, school_premium = excluded.school_premium,
		  business_premium = excluded.business_premium, neighborhood_premium = excluded.neighborhood_premium,
		  total_premium = excluded.total_premium, confidence = excluded.confidence,
		  created_at = excluded.created_at`,
		key.Area, key.PropertyType, key.Bedrooms,
		p.Metro, p.Beach, p.Mall, p.School, p.Business, p.Neighborhood, p.Total, p.Confidence,
		at,
	)
	return eris.Wrap(err, "sqlite: upsert location premium")
}

func (s *SQLiteStore) CacheStats(ctx context.Context, maxAge time.Duration) (*model.CacheStats, error) {
	var st model.CacheStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN created_at > ? THEN 1 ELSE 0 END), 0), COALESCE(SUM(cache_hits), 0)
		 FROM property_location_cache`,
		cutoff(maxAge),
	).Scan(&st.Entries, &st.FreshEntries, &st.TotalHits)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats")
	}
	return &st, nil
}

func (s *SQLiteStore) PruneLocationCache(ctx context.Context, maxAge time.Duration) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM property_location_cache WHERE created_at <= ?`,
		cutoff(maxAge),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune location cache")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune rows affected")
	}
	return int(n), nil
}
