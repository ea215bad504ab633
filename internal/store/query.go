package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/avm-cli/internal/model"
)

// dialect holds the SQL fragments that differ between Postgres and SQLite.
type dialect struct {
	bind func(n int) string
	// areaNum yields actual_area as a number, or NULL when the stored text
	// is not a plain decimal.
	areaNum    string
	roomsSixUp string
}

var postgresDialect = dialect{
	bind:       func(n int) string { return "$" + strconv.Itoa(n) },
	areaNum:    `(CASE WHEN actual_area ~ '^[0-9]+\.?[0-9]*$' THEN CAST(actual_area AS NUMERIC) END)`,
	roomsSixUp: `(rooms_en ~ '^[6-9]' OR rooms_en ~ '^[1-9][0-9]')`,
}

var sqliteDialect = dialect{
	bind:       func(int) string { return "?" },
	areaNum:    `(CASE WHEN actual_area GLOB '[0-9]*' AND actual_area NOT GLOB '*[^0-9.]*' THEN CAST(actual_area AS REAL) END)`,
	roomsSixUp: `CAST(rooms_en AS INTEGER) >= 6`,
}

// query accumulates WHERE conditions and their bound arguments.
type query struct {
	d     dialect
	where []string
	args  []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return q.d.bind(len(q.args))
}

func (q *query) and(cond string) {
	q.where = append(q.where, cond)
}

func (q *query) whereClause() string {
	return "WHERE " + strings.Join(q.where, "\n\tAND ")
}

func likeContains(s string) string {
	return "%" + model.NormalizeArea(s) + "%"
}

const transactionColumns = `area_en, prop_type_en, COALESCE(prop_sb_type_en, ''), COALESCE(rooms_en, ''),
	trans_value, actual_area, instance_date, COALESCE(project_en, ''),
	COALESCE(is_offplan_en, ''), COALESCE(is_free_hold_en, ''), COALESCE(usage_en, ''),
	COALESCE(nearest_metro_en, ''), COALESCE(nearest_mall_en, ''), COALESCE(nearest_landmark_en, '')`

const leaseColumns = `area_en, prop_type_en, COALESCE(prop_sb_type_en, ''), annual_amount, actual_area,
	registration_date, COALESCE(project_en, '')`

// comparableQuery builds the ranked candidate search. Rows matching area and
// type rank first, then area only, then type only; ties break on size
// distance and recency.
func comparableQuery(d dialect, f ComparableFilter) (string, []any) {
	q := &query{d: d}
	q.and("trans_value > 0")
	q.and("actual_area IS NOT NULL")
	q.and(d.areaNum + " > 0")
	q.and("area_en IS NOT NULL")
	q.and("prop_type_en IS NOT NULL")

	switch b := strings.TrimSpace(f.Bedrooms); b {
	case "":
	case model.BedroomsStudio:
		q.and("LOWER(rooms_en) LIKE '%studio%'")
	case model.BedroomsSixOrMore:
		q.and(d.roomsSixUp)
	default:
		q.and("(rooms_en = " + q.arg(b) + " OR rooms_en LIKE " + q.arg(b+" %") + " OR rooms_en LIKE " + q.arg("%"+b+" B/R%") + ")")
	}
	if f.DevelopmentStatus != "" {
		q.and("is_offplan_en = " + q.arg(f.DevelopmentStatus))
	}
	if f.MinESGScore != nil {
		q.and("esg_score >= " + q.arg(*f.MinESGScore))
	}
	if f.MinFlipScore != nil {
		q.and("flip_score >= " + q.arg(*f.MinFlipScore))
	}

	lo, hi := f.SizeRange()
	area := likeContains(f.Area)
	q.and("(LOWER(area_en) LIKE " + q.arg(area) +
		" OR (LOWER(prop_type_en) = LOWER(" + q.arg(f.PropertyType) + ") AND " +
		d.areaNum + " BETWEEN " + q.arg(lo) + " AND " + q.arg(hi) + "))")

	rank := "CASE WHEN LOWER(area_en) LIKE " + q.arg(area) +
		" AND LOWER(prop_type_en) = LOWER(" + q.arg(f.PropertyType) + ") THEN 1" +
		" WHEN LOWER(area_en) LIKE " + q.arg(area) + " THEN 2" +
		" WHEN LOWER(prop_type_en) = LOWER(" + q.arg(f.PropertyType) + ") THEN 3" +
		" ELSE 4 END"

	limit := f.Limit
	if limit <= 0 {
		limit = defaultComparableLimit
	}

	sql := "SELECT " + transactionColumns + "\nFROM " + model.Sale.Table() + "\n" + q.whereClause() +
		"\nORDER BY " + rank + ",\n\tABS(" + d.areaNum + " - " + q.arg(f.Size) + "),\n\tinstance_date DESC" +
		"\nLIMIT " + q.arg(limit)
	return sql, q.args
}

// fromSegment closes a market query over seg: the since bound, then the
// FROM, WHERE, ORDER BY and LIMIT tail with newest records first.
func (q *query) fromSegment(seg model.Segment, since time.Time, limit int) string {
	if !since.IsZero() {
		q.and(seg.DateColumn() + " >= " + q.arg(since.UTC()))
	}
	return "\nFROM " + seg.Table() + "\n" + q.whereClause() +
		"\nORDER BY " + seg.DateColumn() + " DESC\nLIMIT " + q.arg(marketLimit(limit))
}

// salesQuery lists recent sales by area, type, size band and date.
func salesQuery(d dialect, f MarketFilter) (string, []any) {
	q := &query{d: d}
	q.and(model.Sale.PriceColumn() + " > 0")
	q.and(d.areaNum + " > 0")
	if f.Area != "" {
		q.and("LOWER(area_en) LIKE " + q.arg(likeContains(f.Area)))
	}
	if f.PropertyType != "" {
		q.and("LOWER(prop_type_en) = LOWER(" + q.arg(f.PropertyType) + ")")
	}
	if f.MinSize > 0 {
		q.and(d.areaNum + " >= " + q.arg(f.MinSize))
	}
	if f.MaxSize > 0 {
		q.and(d.areaNum + " <= " + q.arg(f.MaxSize))
	}
	return "SELECT " + transactionColumns + q.fromSegment(model.Sale, f.Since, f.Limit), q.args
}

// leasesQuery lists recent leases. The type matches the main type or any
// sub-type containing it.
func leasesQuery(d dialect, f MarketFilter) (string, []any) {
	q := &query{d: d}
	q.and(model.Lease.PriceColumn() + " > 0")
	q.and("actual_area > 0")
	if f.Area != "" {
		q.and("LOWER(area_en) LIKE " + q.arg(likeContains(f.Area)))
	}
	if f.PropertyType != "" {
		q.and("(LOWER(prop_type_en) = LOWER(" + q.arg(f.PropertyType) + ") OR LOWER(prop_sb_type_en) LIKE " + q.arg(likeContains(f.PropertyType)) + ")")
	}
	if f.MinSize > 0 {
		q.and("actual_area >= " + q.arg(f.MinSize))
	}
	if f.MaxSize > 0 {
		q.and("actual_area <= " + q.arg(f.MaxSize))
	}
	return "SELECT " + leaseColumns + q.fromSegment(model.Lease, f.Since, f.Limit), q.args
}

func marketLimit(n int) int {
	if n <= 0 {
		return defaultMarketLimit
	}
	return n
}

// rowScanner is satisfied by pgx.Rows, pgx.Row, *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc rowScanner) (model.Transaction, error) {
	var t model.Transaction
	err := sc.Scan(&t.AreaName, &t.PropertyType, &t.SubType, &t.Rooms,
		&t.Price, &t.RawSize, &t.Date, &t.Project,
		&t.OffPlan, &t.FreeHold, &t.Usage,
		&t.NearestMetro, &t.NearestMall, &t.NearestLandmark)
	return t, err
}

func scanLease(sc rowScanner) (model.LeaseRecord, error) {
	var l model.LeaseRecord
	err := sc.Scan(&l.AreaName, &l.PropertyType, &l.SubType, &l.AnnualRent, &l.Size, &l.Registered, &l.Project)
	return l, err
}

func scanAreaCoordinate(sc rowScanner) (*model.AreaCoordinate, error) {
	var a model.AreaCoordinate
	err := sc.Scan(&a.AreaName, &a.Latitude, &a.Longitude,
		&a.MetroKM, &a.BeachKM, &a.MallKM, &a.SchoolKM, &a.BusinessKM, &a.NeighborhoodScore)
	return &a, err
}

func scanAmenity(sc rowScanner) (model.Amenity, error) {
	var a model.Amenity
	var kind string
	err := sc.Scan(&a.Name, &kind, &a.Latitude, &a.Longitude)
	a.Kind = model.AmenityKind(kind)
	return a, err
}

func scanLocationEntry(sc rowScanner, key model.CacheKey) (*model.LocationCacheEntry, error) {
	e := model.LocationCacheEntry{Key: key}
	p := &e.Premium
	err := sc.Scan(&p.Metro, &p.Beach, &p.Mall, &p.School, &p.Business, &p.Neighborhood,
		&p.Total, &p.Confidence, &e.CreatedAt, &e.CacheHits, &e.LastAccessed)
	return &e, err
}

// cutoff is the oldest creation time still inside maxAge.
func cutoff(maxAge time.Duration) time.Time {
	return time.Now().UTC().Add(-maxAge)
}

const locationColumns = `metro_premium, beach_premium, mall_premium, school_premium, business_premium,
	neighborhood_premium, total_premium, confidence, created_at, cache_hits, last_accessed`
