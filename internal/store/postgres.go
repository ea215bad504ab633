package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/db"
	"github.com/sells-group/avm-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS transactions (
	id                  BIGSERIAL PRIMARY KEY,
	area_en             TEXT,
	prop_type_en        TEXT,
	prop_sb_type_en     TEXT,
	rooms_en            TEXT,
	trans_value         NUMERIC,
	actual_area         TEXT,
	instance_date       TIMESTAMPTZ,
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

CREATE INDEX IF NOT EXISTS idx_transactions_area ON transactions(LOWER(area_en));
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(LOWER(prop_type_en));
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(instance_date DESC);

CREATE TABLE IF NOT EXISTS leases (
	id                BIGSERIAL PRIMARY KEY,
	area_en           TEXT,
	prop_type_en      TEXT,
	prop_sb_type_en   TEXT,
	annual_amount     NUMERIC,
	actual_area       NUMERIC,
	registration_date TIMESTAMPTZ,
	project_en        TEXT
);

CREATE INDEX IF NOT EXISTS idx_leases_area ON leases(LOWER(area_en));
CREATE INDEX IF NOT EXISTS idx_leases_date ON leases(registration_date DESC);

CREATE TABLE IF NOT EXISTS area_coordinates (
	id                      BIGSERIAL PRIMARY KEY,
	area_name               TEXT NOT NULL UNIQUE,
	latitude                DOUBLE PRECISION,
	longitude               DOUBLE PRECISION,
	distance_to_metro_km    DOUBLE PRECISION,
	distance_to_beach_km    DOUBLE PRECISION,
	distance_to_mall_km     DOUBLE PRECISION,
	distance_to_school_km   DOUBLE PRECISION,
	distance_to_business_km DOUBLE PRECISION,
	neighborhood_score      DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS amenities (
	id        BIGSERIAL PRIMARY KEY,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	active    BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_amenities_type ON amenities(type);

CREATE TABLE IF NOT EXISTS project_premiums (
	id                 BIGSERIAL PRIMARY KEY,
	project_name       TEXT NOT NULL UNIQUE,
	premium_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	tier               TEXT NOT NULL DEFAULT 'none',
	transaction_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_project_premiums_name ON project_premiums(LOWER(project_name));

CREATE TABLE IF NOT EXISTS property_location_cache (
	id                   BIGSERIAL PRIMARY KEY,
	area_name            TEXT NOT NULL,
	property_type        TEXT NOT NULL,
	bedrooms             TEXT NOT NULL DEFAULT '',
	metro_premium        DOUBLE PRECISION NOT NULL DEFAULT 0,
	beach_premium        DOUBLE PRECISION NOT NULL DEFAULT 0,
	mall_premium         DOUBLE PRECISION NOT NULL DEFAULT 0,
	school_premium       DOUBLE PRECISION NOT NULL DEFAULT 0,
	business_premium     DOUBLE PRECISION NOT NULL DEFAULT 0,
	neighborhood_premium DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_premium        DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence           DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	cache_hits           INTEGER NOT NULL DEFAULT 0,
	last_accessed        TIMESTAMPTZ,
	UNIQUE (area_name, property_type, bedrooms)
);

CREATE INDEX IF NOT EXISTS idx_location_cache_created ON property_location_cache(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SearchComparables(ctx context.Context, filter ComparableFilter) ([]model.Transaction, error) {
	sql, args := comparableQuery(postgresDialect, filter)
	return s.queryTransactions(ctx, "search comparables", sql, args)
}

func (s *PostgresStore) ListSales(ctx context.Context, filter MarketFilter) ([]model.Transaction, error) {
	sql, args := salesQuery(postgresDialect, filter)
	txs, err := s.queryTransactions(ctx, "list sales", sql, args)
	if err != nil {
		return nil, err
	}
	return parsedOnly(txs), nil
}

func (s *PostgresStore) queryTransactions(ctx context.Context, op, sql string, args []any) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: "+op)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan transaction")
		}
		txs = append(txs, t)
	}
	return txs, eris.Wrap(rows.Err(), "postgres: "+op+" iterate")
}

func (s *PostgresStore) ListLeases(ctx context.Context, filter MarketFilter) ([]model.LeaseRecord, error) {
	sql, args := leasesQuery(postgresDialect, filter)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leases")
	}
	defer rows.Close()

	var leases []model.LeaseRecord
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lease")
		}
		leases = append(leases, l)
	}
	return leases, eris.Wrap(rows.Err(), "postgres: list leases iterate")
}

func (s *PostgresStore) GetAreaCoordinate(ctx context.Context, area string) (*model.AreaCoordinate, error) {
	a, err := scanAreaCoordinate(s.pool.QueryRow(ctx,
		`SELECT area_name, latitude, longitude, distance_to_metro_km, distance_to_beach_km,
		        distance_to_mall_km, distance_to_school_km, distance_to_business_km, neighborhood_score
		 FROM area_coordinates WHERE LOWER(area_name) = LOWER($1) LIMIT 1`,
		model.NormalizeArea(area),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get area coordinate %s", area)
	}
	return a, nil
}

func (s *PostgresStore) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, type, latitude, longitude FROM amenities WHERE active ORDER BY type, name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list amenities")
	}
	defer rows.Close()

	var out []model.Amenity
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan amenity")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list amenities iterate")
}

func (s *PostgresStore) GetProjectPremium(ctx context.Context, name string) (*model.ProjectPremium, error) {
	var p model.ProjectPremium
	err := s.pool.QueryRow(ctx,
		`SELECT project_name, premium_percentage, tier, transaction_count
		 FROM project_premiums WHERE LOWER(project_name) = LOWER($1) LIMIT 1`,
		name,
	).Scan(&p.ProjectName, &p.PremiumPercentage, &p.Tier, &p.TransactionCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get project premium %s", name)
	}
	return &p, nil
}

func (s *PostgresStore) ListProjectsByTier(ctx context.Context, tier, exclude string, limit int) ([]model.ProjectPremium, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT project_name, premium_percentage, tier, transaction_count
		 FROM project_premiums WHERE tier = $1 AND LOWER(project_name) <> LOWER($2)
		 ORDER BY transaction_count DESC, premium_percentage DESC LIMIT $3`,
		tier, exclude, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list projects by tier %s", tier)
	}
	defer rows.Close()

	var out []model.ProjectPremium
	for rows.Next() {
		var p model.ProjectPremium
		if err := rows.Scan(&p.ProjectName, &p.PremiumPercentage, &p.Tier, &p.TransactionCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project premium")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) GetLocationPremium(ctx context.Context, key model.CacheKey, maxAge time.Duration) (*model.LocationCacheEntry, error) {
	e, err := scanLocationEntry(s.pool.QueryRow(ctx,
		`SELECT `+locationColumns+`
		 FROM property_location_cache
		 WHERE area_name = $1 AND property_type = $2 AND bedrooms = $3 AND created_at > $4`,
		key.Area, key.PropertyType, key.Bedrooms, cutoff(maxAge),
	), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get location premium")
	}
	return e, nil
}

func (s *PostgresStore) RecordCacheHit(ctx context.Context, key model.CacheKey) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE property_location_cache SET cache_hits = cache_hits + 1, last_accessed = $4
		 WHERE area_name = $1 AND property_type = $2 AND bedrooms = $3`,
		key.Area, key.PropertyType, key.Bedrooms, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: record cache hit")
}

func (s *PostgresStore) UpsertLocationPremium(ctx context.Context, key model.CacheKey, p model.LocationPremium) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO property_location_cache
		 (area_name, property_type, bedrooms, metro_premium, beach_premium, mall_premium, school_premium,
		  business_premium, neighborhood_premium, total_premium, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (area_name, property_type, bedrooms) DO UPDATE SET
		  metro_premium = EXCLUDED.metro_premium, beach_premium = EXCLUDED.beach_premium,
		  mall_premium = EXCLUDED.mall_premium, school_premium = EXCLUDED.school_premium,
		  business_premium = EXCLUDED.business_premium, neighborhood_premium = EXCLUDED.neighborhood_premium,
		  total_premium = EXCLUDED.total_premium, confidence = EXCLUDED.confidence,
		  created_at = EXCLUDED.created_at`,
		key.Area, key.PropertyType, key.Bedrooms,
		p.Metro, p.Beach, p.Mall, p.School, p.Business, p.Neighborhood, p.Total, p.Confidence,
		time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: upsert location premium")
}

func (s *PostgresStore) CacheStats(ctx context.Context, maxAge time.Duration) (*model.CacheStats, error) {
	var st model.CacheStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at > $1), COALESCE(SUM(cache_hits), 0)
		 FROM property_location_cache`,
		cutoff(maxAge),
	).Scan(&st.Entries, &st.FreshEntries, &st.TotalHits)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: cache stats")
	}
	return &st, nil
}

func (s *PostgresStore) PruneLocationCache(ctx context.Context, maxAge time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM property_location_cache WHERE created_at <= $1`,
		cutoff(maxAge),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune location cache")
	}
	return int(tag.RowsAffected()), nil
}

// parsedOnly drops rows whose stored size is not a plain number.
func parsedOnly(txs []model.Transaction) []model.Transaction {
	out := txs[:0]
	for _, t := range txs {
		if t.ParseSize() {
			out = append(out, t)
		}
	}
	return out
}
