// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore persists embedded records in a SQLite file and
// answers k-nearest-neighbor queries through a sqlite-vec vec0 virtual
// table. Items are immutable once inserted and keyed by rowid, which
// follows insertion order.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/screening-engine/pkg/types"
)

const (
	tableName = "items"
	metaTable = "store_meta"

	// DefaultDimension matches the embedding model used for screening.
	DefaultDimension = 1024

	// MaxK is the largest k a vec0 KNN query accepts.
	MaxK = 4096
)

var (
	// ErrSchemaExists is returned by InitSchema when the store already has
	// its table.
	ErrSchemaExists = errors.New("vector store schema already exists")

	// ErrNoSchema is returned when the store has not been initialized.
	ErrNoSchema = errors.New("vector store schema not initialized")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the store dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

func init() {
	sqlite_vec.Auto()
}

// Item is one stored record: its vector, a label derived from the title,
// and the text that was embedded.
type Item struct {
	ID      int64
	Vector  []float32
	Label   string
	Content string
}

// Match is a query hit.
type Match struct {
	ID       int64
	Label    string
	Content  string
	Distance float64
}

// Store is a single-writer handle on a vector store file.
type Store struct {
	db        *sql.DB
	path      string
	dimension int
	metric    types.DistanceMetric
	ready     bool
}

// Open opens or creates the database at cfg.Path. When the file already
// holds a schema, the persisted dimension and metric take precedence over
// cfg.
func Open(ctx context.Context, cfg types.VectorStoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("vector store path is empty")
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	metric := cfg.Metric
	if metric == "" {
		metric = types.MetricL2
	}
	if err := checkMetric(metric); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: cfg.Path, dimension: dim, metric: metric}
	if err := s.loadMeta(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func checkMetric(m types.DistanceMetric) error {
	if m != types.MetricL2 && m != types.MetricCosine {
		return fmt.Errorf("unsupported distance metric %q (want %s or %s)", m, types.MetricL2, types.MetricCosine)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dimension returns the vector length the store accepts.
func (s *Store) Dimension() int {
	return s.dimension
}

// Metric returns the configured distance metric.
func (s *Store) Metric() types.DistanceMetric {
	return s.metric
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) loadMeta(ctx context.Context) error {
	ok, err := s.tableExists(ctx, tableName)
	if err != nil || !ok {
		return err
	}
	s.ready = true

	hasMeta, err := s.tableExists(ctx, metaTable)
	if err != nil || !hasMeta {
		return err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM `+metaTable)
	if err != nil {
		return fmt.Errorf("reading store metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning store metadata: %w", err)
		}
		switch key {
		case "dimension":
			d, err := strconv.Atoi(value)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid stored dimension %q", value)
			}
			s.dimension = d
		case "metric":
			m := types.DistanceMetric(value)
			if err := checkMetric(m); err != nil {
				return fmt.Errorf("invalid stored metric: %w", err)
			}
			s.metric = m
		}
	}
	return rows.Err()
}

// InitSchema creates the vec0 table and the metadata table in a single
// transaction. It returns ErrSchemaExists, and changes nothing, when the
// table is already present.
func (s *Store) InitSchema(ctx context.Context) error {
	exists, err := s.tableExists(ctx, tableName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", s.path, ErrSchemaExists)
	}

	column := fmt.Sprintf("embedding float[%d]", s.dimension)
	if s.metric == types.MetricCosine {
		column += " distance_metric=cosine"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		fmt.Sprintf(`CREATE VIRTUAL TABLE %s USING vec0(%s, +label TEXT, +content TEXT)`, tableName, column),
		`CREATE TABLE ` + metaTable + ` (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	for key, value := range map[string]string{
		"dimension": strconv.Itoa(s.dimension),
		"metric":    string(s.metric),
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+metaTable+` (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("writing store metadata: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	s.ready = true
	return nil
}

func (s *Store) checkVector(v []float32) error {
	if len(v) != s.dimension {
		return fmt.Errorf("%w: got %d, store expects %d", ErrDimensionMismatch, len(v), s.dimension)
	}
	return nil
}

// Insert appends item and returns its rowid. The write is committed before
// Insert returns.
func (s *Store) Insert(ctx context.Context, item Item) (int64, error) {
	if err := s.checkVector(item.Vector); err != nil {
		return 0, err
	}
	if !s.ready {
		return 0, ErrNoSchema
	}

	blob, err := sqlite_vec.SerializeFloat32(item.Vector)
	if err != nil {
		return 0, fmt.Errorf("serializing vector: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+tableName+` (embedding, label, content) VALUES (?, ?, ?)`,
		blob, item.Label, item.Content,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item %q: %w", item.Label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading rowid: %w", err)
	}
	return id, nil
}

// Query returns up to k items nearest to v, by ascending distance with
// ties broken by ascending rowid, including ties that straddle the k-th
// position. k larger than the stored count returns every item; k above
// MaxK is clamped.
func (s *Store) Query(ctx context.Context, v []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > MaxK {
		k = MaxK
	}
	if err := s.checkVector(v); err != nil {
		return nil, err
	}
	if !s.ready {
		return nil, ErrNoSchema
	}

	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil, fmt.Errorf("serializing vector: %w", err)
	}
	matches, err := s.knn(ctx, blob, k)
	if err != nil {
		return nil, err
	}
	if len(matches) < k {
		return matches, nil
	}

	// vec0 picks arbitrarily among rows tied at the k-th distance, so widen
	// the search until the tie group is complete before cutting to k.
	boundary := matches[k-1].Distance
	limit := -1
	for fetch := k; matches[len(matches)-1].Distance <= boundary; {
		if limit < 0 {
			n, err := s.Count(ctx)
			if err != nil {
				return nil, err
			}
			limit = min(n, MaxK)
		}
		if fetch >= limit {
			break
		}
		fetch = min(fetch*2, limit)
		if matches, err = s.knn(ctx, blob, fetch); err != nil {
			return nil, err
		}
		if len(matches) < fetch {
			break
		}
	}
	return matches[:k], nil
}

// knn runs one vec0 KNN pass and returns its rows sorted by distance, then
// rowid.
func (s *Store) knn(ctx context.Context, blob []byte, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid, label, content, distance FROM `+tableName+`
		 WHERE embedding MATCH ? AND k = ?
		 ORDER BY distance`,
		blob, k,
	)
	if err != nil {
		return nil, fmt.Errorf("querying nearest neighbors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var label, content sql.NullString
		if err := rows.Scan(&m.ID, &label, &content, &m.Distance); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.Label, m.Content = label.String, content.String
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.ready {
		return 0, ErrNoSchema
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+tableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// Get returns the item stored under id, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id int64) (Item, error) {
	if !s.ready {
		return Item{}, ErrNoSchema
	}
	var (
		blob           []byte
		label, content sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding, label, content FROM `+tableName+` WHERE rowid = ?`, id,
	).Scan(&blob, &label, &content)
	if err != nil {
		return Item{}, fmt.Errorf("reading item %d: %w", id, err)
	}
	vec, err := decodeFloat32(blob)
	if err != nil {
		return Item{}, fmt.Errorf("decoding item %d: %w", id, err)
	}
	return Item{ID: id, Vector: vec, Label: label.String, Content: content.String}, nil
}

// decodeFloat32 reverses sqlite_vec.SerializeFloat32 (little-endian).
func decodeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
