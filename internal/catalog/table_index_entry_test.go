package catalog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIndexEntry(t *testing.T) *TableIndexEntry {
	t.Helper()
	dir := t.TempDir()
	meta := newTableIndexMeta("idx")
	base := &IndexBase{IndexName: "idx", IndexType: IndexFullText, ColumnNames: []string{"body"}}
	e, err := NewTableIndexEntry(meta, dir, base, &ColumnDef{Name: "body", LogicType: LogicVarchar}, 1000, 1, 1)
	require.NoError(t, err)
	return e
}

func TestGetOrCreateSegmentUniqueIDs(t *testing.T) {
	e := newTestIndexEntry(t)
	store := &TxnIndexStore{}

	s1, created1 := e.GetOrCreateSegment(1, store)
	require.True(t, created1)
	s2, created2 := e.GetOrCreateSegment(1, store)
	require.False(t, created2)
	require.Same(t, s1, s2)

	require.Equal(t, []uint64{1}, store.NewSegmentIDs)
}

func TestPickCleanupBySegmentsMatchesIntersection(t *testing.T) {
	e := newTestIndexEntry(t)
	store := &TxnIndexStore{}
	for _, id := range []uint64{1, 2, 3, 4, 5} {
		e.GetOrCreateSegment(id, store)
	}

	removed := e.PickCleanupBySegments([]uint64{2, 4, 99}, nil)
	require.ElementsMatch(t, []uint64{2, 4}, removed)

	e.mu.RLock()
	_, has2 := e.segments[2]
	_, has4 := e.segments[4]
	_, has1 := e.segments[1]
	e.mu.RUnlock()
	require.False(t, has2)
	require.False(t, has4)
	require.True(t, has1)
}

func TestRollbackCreateIndexRemovesNewSegments(t *testing.T) {
	e := newTestIndexEntry(t)
	store := &TxnIndexStore{}
	e.GetOrCreateSegment(7, store)

	require.NoError(t, e.RollbackCreateIndex(store))

	e.mu.RLock()
	_, ok := e.segments[7]
	e.mu.RUnlock()
	require.False(t, ok)
}

func TestCommitCreateIndexMonotonicCommitTS(t *testing.T) {
	e := newTestIndexEntry(t)
	store := &TxnIndexStore{}
	e.GetOrCreateSegment(1, store)

	table := NewTableEntry("db", "t", nil, 1, 0)
	require.NoError(t, e.CommitCreateIndex(store, 42, true, table))
	require.GreaterOrEqual(t, e.CommitTS(), int64(42))
}

type fakeBlockIterator struct {
	rowCount int
	done     bool
}

func (it *fakeBlockIterator) Next() (RowBlock, bool) {
	if it.done {
		return RowBlock{}, false
	}
	it.done = true
	return RowBlock{RowIDs: []uint64{1}, Vectors: [][]float32{{1, 2, 3}}}, true
}

func (it *fakeBlockIterator) RowCount() int { return it.rowCount }

func TestCreateIndexPrepareRejectsIVFFlatOnNonFloat32Column(t *testing.T) {
	dir := t.TempDir()
	meta := newTableIndexMeta("idx")
	base := &IndexBase{IndexName: "idx", IndexType: IndexIVFFlat, ColumnNames: []string{"vec"}}
	col := &ColumnDef{Name: "vec", LogicType: LogicEmbedding, EmbeddingDim: 3, ElemType: ElemInt8}
	e, err := NewTableIndexEntry(meta, dir, base, col, 1000, 1, 1)
	require.NoError(t, err)

	store := &TxnIndexStore{}
	table := NewTableEntry("db", "t", nil, 1, 0)
	it := &fakeBlockIterator{rowCount: 1}

	err = e.CreateIndexPrepare(table, map[uint64]BlockIterator{1: it}, store, false, false, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "float32")
}

func TestCleanupRemovesIndexDir(t *testing.T) {
	e := newTestIndexEntry(t)
	require.NoError(t, os.MkdirAll(e.indexDir, 0o755))

	require.NoError(t, e.Cleanup())
	_, err := os.Stat(e.indexDir)
	require.True(t, os.IsNotExist(err))
	require.True(t, e.Deleted())

	// idempotent
	require.NoError(t, e.Cleanup())
}
