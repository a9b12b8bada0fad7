// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/screening-engine/pkg/types"
)

func openTestStore(t *testing.T, cfg types.VectorStoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "rag.db")
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 3})
	require.NoError(t, s.InitSchema(ctx))

	for _, it := range []Item{
		{Vector: []float32{1, 0, 0}, Label: "A", Content: "A surgery outcomes"},
		{Vector: []float32{0, 1, 0}, Label: "B", Content: "B [abstract not available]"},
		{Vector: []float32{1, 0, 0}, Label: "C", Content: "C duplicate of A"},
	} {
		_, err := s.Insert(ctx, it)
		require.NoError(t, err)
	}
	return s
}

func labels(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Label
	}
	return out
}

func TestOpen_Defaults(t *testing.T) {
	s := openTestStore(t, types.VectorStoreConfig{})
	assert.Equal(t, DefaultDimension, s.Dimension())
	assert.Equal(t, types.MetricL2, s.Metric())
}

func TestOpen_RejectsUnknownMetric(t *testing.T) {
	_, err := Open(context.Background(), types.VectorStoreConfig{
		Path:   filepath.Join(t.TempDir(), "rag.db"),
		Metric: "manhattan",
	})
	assert.Error(t, err)
}

func TestInitSchema_Twice(t *testing.T) {
	s := seededStore(t)
	err := s.InitSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaExists))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInsert_BeforeSchema(t *testing.T) {
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 3})
	_, err := s.Insert(context.Background(), Item{Vector: []float32{1, 2, 3}})
	assert.True(t, errors.Is(err, ErrNoSchema))

	_, err = s.Query(context.Background(), []float32{1, 2, 3}, 1)
	assert.True(t, errors.Is(err, ErrNoSchema))
}

func TestInsert_DimensionMismatchLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	_, err := s.Insert(ctx, Item{Vector: []float32{1, 2}, Label: "short"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Query(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, labels(got))
}

func TestInsert_RowidsFollowInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 2})
	require.NoError(t, s.InitSchema(ctx))

	first, err := s.Insert(ctx, Item{Vector: []float32{1, 1}, Label: "first"})
	require.NoError(t, err)
	second, err := s.Insert(ctx, Item{Vector: []float32{2, 2}, Label: "second"})
	require.NoError(t, err)
	assert.Less(t, first, second)

	item, err := s.Get(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, item.Vector)
	assert.Equal(t, "second", item.Label)

	_, err = s.Get(ctx, second+100)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestQuery_OrderAndTies(t *testing.T) {
	s := seededStore(t)
	got, err := s.Query(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"A", "C", "B"}, labels(got))
	assert.InDelta(t, 0, got[0].Distance, 1e-6)
	assert.InDelta(t, 0, got[1].Distance, 1e-6)
	assert.Less(t, got[0].ID, got[1].ID)
	assert.InDelta(t, 1.41421, got[2].Distance, 1e-4)
	assert.Equal(t, "B [abstract not available]", got[2].Content)
}

func TestQuery_KLargerThanCount(t *testing.T) {
	s := seededStore(t)
	got, err := s.Query(context.Background(), []float32{0, 0, 1}, 5)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}

func TestQuery_Deterministic(t *testing.T) {
	s := seededStore(t)
	q := []float32{0.3, 0.6, 0.1}
	first, err := s.Query(context.Background(), q, 2)
	require.NoError(t, err)
	second, err := s.Query(context.Background(), q, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestQuery_InvalidArguments(t *testing.T) {
	s := seededStore(t)
	_, err := s.Query(context.Background(), []float32{1, 0, 0}, 0)
	assert.Error(t, err)

	_, err = s.Query(context.Background(), []float32{1, 0}, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestReopen_UsesPersistedSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rag.db")

	s, err := Open(ctx, types.VectorStoreConfig{Path: path, Dimension: 4, Metric: types.MetricCosine})
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	_, err = s.Insert(ctx, Item{Vector: []float32{1, 0, 0, 0}, Label: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, types.VectorStoreConfig{Path: path})
	assert.Equal(t, 4, reopened.Dimension())
	assert.Equal(t, types.MetricCosine, reopened.Metric())

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.True(t, errors.Is(reopened.InitSchema(ctx), ErrSchemaExists))
}

func TestReopen_RejectsUnknownStoredMetric(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rag.db")

	s, err := Open(ctx, types.VectorStoreConfig{Path: path, Dimension: 2})
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	_, err = s.db.ExecContext(ctx, `UPDATE `+metaTable+` SET value = 'manhattan' WHERE key = 'metric'`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, types.VectorStoreConfig{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manhattan")
}

func TestQuery_TiesAcrossKPreferEarliest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 2})
	require.NoError(t, s.InitSchema(ctx))

	const total = 300
	for i := 0; i < total; i++ {
		_, err := s.Insert(ctx, Item{Vector: []float32{1, 1}, Label: fmt.Sprintf("dup-%d", i+1)})
		require.NoError(t, err)
	}

	for _, k := range []int{1, 2, 5, 50, total} {
		got, err := s.Query(ctx, []float32{0, 0}, k)
		require.NoError(t, err)
		require.Len(t, got, k, "k=%d", k)
		for i, m := range got {
			assert.Equal(t, int64(i+1), m.ID, "k=%d position %d", k, i)
		}
	}
}

func TestQuery_TieGroupBehindCloserItems(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 2})
	require.NoError(t, s.InitSchema(ctx))

	// rowids 1..20 tied at distance 2, then one closer item and one farther.
	for i := 0; i < 20; i++ {
		_, err := s.Insert(ctx, Item{Vector: []float32{2, 0}, Label: "tied"})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, Item{Vector: []float32{1, 0}, Label: "near"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Item{Vector: []float32{5, 0}, Label: "far"})
	require.NoError(t, err)

	got, err := s.Query(ctx, []float32{0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, int64(21), got[0].ID)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[1].ID, got[2].ID, got[3].ID})
}

func TestCosineMetric(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, types.VectorStoreConfig{Dimension: 2, Metric: types.MetricCosine})
	require.NoError(t, s.InitSchema(ctx))

	_, err := s.Insert(ctx, Item{Vector: []float32{10, 0}, Label: "same direction"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Item{Vector: []float32{0, 1}, Label: "orthogonal"})
	require.NoError(t, err)

	got, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"same direction", "orthogonal"}, labels(got))
	assert.InDelta(t, 0, got[0].Distance, 1e-6)
	assert.InDelta(t, 1, got[1].Distance, 1e-6)
}
