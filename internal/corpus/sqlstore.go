package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Dialect selects placeholder and DDL syntax for SQLStore.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore reads the postcodes table through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	source  string
	logger  *slog.Logger

	digestOnce sync.Once
	digest     string
}

// SQLOption configures a SQLStore.
type SQLOption func(*SQLStore)

// WithSource records the database file the store was opened from so Stats
// can report its size and fingerprint.
func WithSource(path string) SQLOption {
	return func(s *SQLStore) {
		s.source = path
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) SQLOption {
	return func(s *SQLStore) {
		s.logger = logger
	}
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect, opts ...SQLOption) *SQLStore {
	s := &SQLStore{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

var selectColumns = strings.Join(Columns, ", ")

func (s *SQLStore) Lookup(ctx context.Context, postcode string) (*Record, error) {
	key := Key(postcode)
	if key == "" {
		return nil, nil
	}
	records, err := s.query(ctx, "lookup",
		"SELECT "+selectColumns+" FROM postcodes WHERE pc_compact = ? LIMIT 1", key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (s *SQLStore) CoordinateBearing(ctx context.Context) ([]Record, error) {
	return s.query(ctx, "coordinate snapshot",
		"SELECT "+selectColumns+" FROM postcodes WHERE latitude IS NOT NULL AND longitude IS NOT NULL ORDER BY pc_compact")
}

// Search matches compact postcodes by prefix. LIKE wildcards in the prefix
// are escaped so they match literally.
func (s *SQLStore) Search(ctx context.Context, prefix string, limit int) ([]Record, error) {
	prefix = Key(prefix)
	if prefix == "" || limit <= 0 {
		return nil, nil
	}
	return s.query(ctx, "search",
		"SELECT "+selectColumns+` FROM postcodes WHERE pc_compact LIKE ? ESCAPE '\' ORDER BY pc_compact LIMIT ?`,
		escapeLike(prefix)+"%", limit)
}

func (s *SQLStore) ByOutcode(ctx context.Context, outcode string) ([]Record, error) {
	outcode = Key(outcode)
	if outcode == "" {
		return nil, nil
	}
	return s.query(ctx, "outcode",
		"SELECT "+selectColumns+" FROM postcodes WHERE outcode = ? ORDER BY pc_compact", outcode)
}

// ByArea lists records in an administrative area. The column name comes from
// the AreaType allow-list, never from the caller.
func (s *SQLStore) ByArea(ctx context.Context, area AreaType, value string, limit int) ([]Record, error) {
	column, ok := ParseAreaType(string(area))
	if !ok || value == "" || limit <= 0 {
		return nil, nil
	}
	return s.query(ctx, "area",
		"SELECT "+selectColumns+" FROM postcodes WHERE "+string(column)+" = ? ORDER BY pc_compact LIMIT ?",
		value, limit)
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{CountryBreakdown: map[string]int{}, Backend: s.dialect.String(), Source: s.source}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL THEN 1 END)
		   FROM postcodes`)
	if err := row.Scan(&st.TotalPostcodes, &st.WithCoordinates); err != nil {
		return Stats{}, unavailable("stats", err)
	}
	st.CoveragePercent = coverage(st.WithCoordinates, st.TotalPostcodes)

	rows, err := s.db.QueryContext(ctx,
		"SELECT country, COUNT(*) FROM postcodes WHERE country IS NOT NULL GROUP BY country ORDER BY country")
	if err != nil {
		return Stats{}, unavailable("stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var country string
		var n int
		if err := rows.Scan(&country, &n); err != nil {
			return Stats{}, unavailable("stats", err)
		}
		st.CountryBreakdown[country] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, unavailable("stats", err)
	}

	if s.source != "" {
		if info, err := os.Stat(s.source); err == nil {
			st.SourceSizeBytes = info.Size()
		}
		st.SourceFingerprint = s.fingerprint()
	}
	return st, nil
}

// fingerprint hashes the database file once; it is immutable while served.
func (s *SQLStore) fingerprint() string {
	s.digestOnce.Do(func() {
		digest, err := Fingerprint(s.source)
		if err != nil {
			s.logger.Warn("fingerprint failed", "source", s.source, "error", err)
			return
		}
		s.digest = digest
	})
	return s.digest
}

func (s *SQLStore) query(ctx context.Context, op, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	values := make([]sql.NullString, len(Columns))
	dest := make([]any, len(Columns))
	for i := range values {
		dest[i] = &values[i]
	}

	var out []Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, unavailable(op, err)
		}
		var b recordBuilder
		for i, v := range values {
			if v.Valid {
				b.set(Columns[i], v.String)
			}
		}
		out = append(out, b.build())
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CreateSchema creates the postcodes table and its indexes if missing.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	floatType := "REAL"
	if s.dialect == Postgres {
		floatType = "DOUBLE PRECISION"
	}

	var cols []string
	for _, c := range Columns {
		typ := "TEXT"
		switch c {
		case "postcode":
			typ = "TEXT PRIMARY KEY"
		case "pc_compact":
			typ = "TEXT NOT NULL"
		case "latitude", "longitude":
			typ = floatType
		case "eastings", "northings", "coordinate_quality":
			typ = "INTEGER"
		}
		cols = append(cols, c+" "+typ)
	}

	stmts := []string{
		"CREATE TABLE IF NOT EXISTS postcodes (" + strings.Join(cols, ", ") + ")",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_postcodes_compact ON postcodes (pc_compact)",
		"CREATE INDEX IF NOT EXISTS idx_postcodes_outcode ON postcodes (outcode)",
		"CREATE INDEX IF NOT EXISTS idx_postcodes_district ON postcodes (district)",
		"CREATE INDEX IF NOT EXISTS idx_postcodes_location ON postcodes (latitude, longitude)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Insert writes records in a single transaction.
func (s *SQLStore) Insert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		"INSERT INTO postcodes ("+selectColumns+") VALUES ("+placeholders+")"))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.values()...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Postcode, err)
		}
	}
	return tx.Commit()
}
