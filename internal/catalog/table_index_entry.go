package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/infinidb-io/infinidb/internal/fulltext"
)

// TableIndexEntry is one logical version of a table's index: the main
// MVCC unit for index DDL (spec §3.1, §4.3).
type TableIndexEntry struct {
	BaseEntry

	meta        *TableIndexMeta // non-owning back-reference
	indexDir    string
	indexBase   *IndexBase
	columnDef   *ColumnDef
	partCapacity int

	mu          sync.RWMutex // guards segments/lastSegment/commit_ts
	segments    map[uint64]*SegmentIndexEntry
	lastSegment *SegmentIndexEntry

	// byte_slice_pool / buffer_pool (spec §3.1, §3.4): owned here,
	// borrowed by every PostingWriter built against this index.
	bytePool   *fulltext.BytePool
	bufferPool *fulltext.BytePool
}

func (e *TableIndexEntry) base() *BaseEntry { return &e.BaseEntry }

// IndexDir returns the on-disk directory this index version owns.
func (e *TableIndexEntry) IndexDir() string { return e.indexDir }

// IndexBase returns the index's immutable type/column/parameter spec.
func (e *TableIndexEntry) IndexBase() *IndexBase { return e.indexBase }

// NewTableIndexEntry is the ordinary create path (spec §3.3). It
// enforces invariant 5 (single-column indexes only) at create time.
func NewTableIndexEntry(meta *TableIndexMeta, indexDir string, base *IndexBase, col *ColumnDef, partCapacity int, txnID uint64, beginTS int64) (*TableIndexEntry, error) {
	if base != nil {
		if err := base.Validate(); err != nil {
			return nil, err
		}
	}
	return &TableIndexEntry{
		BaseEntry:    NewBaseEntry(KindTableIndex, txnID, beginTS),
		meta:         meta,
		indexDir:     indexDir,
		indexBase:    base,
		columnDef:    col,
		partCapacity: partCapacity,
		segments:     make(map[uint64]*SegmentIndexEntry),
		bytePool:     fulltext.NewBytePool(),
		bufferPool:   fulltext.NewBytePool(),
	}, nil
}

// ReplayTableIndexEntry is the catalog-replay constructor: commit_ts is
// the exact recovered timestamp, not one derived at replay time
// (spec §4.3 Deserialize).
func ReplayTableIndexEntry(meta *TableIndexMeta, indexDir string, base *IndexBase, col *ColumnDef, partCapacity int, txnID uint64, beginTS, commitTS int64, deleted bool) (*TableIndexEntry, error) {
	e, err := NewTableIndexEntry(meta, indexDir, base, col, partCapacity, txnID, beginTS)
	if err != nil {
		return nil, err
	}
	if commitTS != 0 {
		e.Commit(commitTS)
	}
	if deleted {
		e.SetDeleted()
	}
	return e, nil
}

// GetOrCreateSegment returns the existing segment, or creates and
// registers a new one, serialized by the entry's write lock
// (spec §4.3, invariant 3: segment_id unique within parent).
func (e *TableIndexEntry) GetOrCreateSegment(segmentID uint64, store *TxnIndexStore) (*SegmentIndexEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.segments[segmentID]; ok {
		return s, false
	}
	s := NewSegmentIndexEntry(segmentID, e)
	e.segments[segmentID] = s
	if store != nil {
		store.Record(segmentID)
	}
	return s, true
}

// registerSegment is SegmentIndexEntry.PopulateEntirely's completion
// hook for the offline build path, where the segment wasn't created
// through GetOrCreateSegment up front.
func (e *TableIndexEntry) registerSegment(s *SegmentIndexEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.segments[s.SegmentID] = s
}

// segmentLocked looks up a segment while already holding e.mu.
func (e *TableIndexEntry) segmentLocked(id uint64) (*SegmentIndexEntry, bool) {
	s, ok := e.segments[id]
	return s, ok
}

// CommitCreateIndex stamps commit_ts on every new segment (unless
// replaying) and on the entry itself if not already committed; for
// full-text indexes it also advances the table's monotonic full-text
// segment timestamp (spec §4.3).
func (e *TableIndexEntry) CommitCreateIndex(store *TxnIndexStore, commitTS int64, isReplay bool, table *TableEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := append([]uint64(nil), store.NewSegmentIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] }) // deterministic recovery order (spec §5)

	for _, id := range ids {
		s, ok := e.segmentLocked(id)
		if !ok {
			return Unrecoverablef("commit_create_index: segment %d missing from index_by_segment", id)
		}
		if !isReplay {
			if err := s.SaveIndexFile(); err != nil {
				return err
			}
		}
		s.Commit(commitTS)
	}

	if !e.IsCommitted() {
		e.Commit(commitTS)
	}

	if e.indexBase.IndexType == IndexFullText && table != nil {
		table.AdvanceFullTextSegmentTS(commitTS)
	}
	return nil
}

// RollbackCreateIndex cleans each new segment and removes it; any
// missing id is an unrecoverable internal error (spec §4.3).
func (e *TableIndexEntry) RollbackCreateIndex(store *TxnIndexStore) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range store.NewSegmentIDs {
		s, ok := e.segmentLocked(id)
		if !ok {
			return Unrecoverablef("rollback_create_index: segment %d missing from index_by_segment", id)
		}
		if err := s.Cleanup(); err != nil {
			return err
		}
		delete(e.segments, id)
		if e.lastSegment == s {
			e.lastSegment = nil
		}
	}
	return nil
}

// PopulateEntirely is full-text only; other index types are no-ops
// (spec §4.3).
func (e *TableIndexEntry) PopulateEntirely(segmentID uint64, it BlockIterator, store *TxnIndexStore) error {
	if e.indexBase.IndexType != IndexFullText {
		return nil
	}
	s, _ := e.GetOrCreateSegment(segmentID, store)
	return s.PopulateEntirely(it)
}

// CreateIndexPrepare iterates every segment's blocks, builds (or
// backfills) each SegmentIndexEntry, and sets last_segment to the
// table's current unsealed segment (spec §4.3).
func (e *TableIndexEntry) CreateIndexPrepare(table *TableEntry, segments map[uint64]BlockIterator, store *TxnIndexStore, isReplay, checkTS bool, snapshotTS int64) error {
	unsealed := table.UnsealedSegment()

	ids := make([]uint64, 0, len(segments))
	for id := range segments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		it := segments[id]
		s, _ := e.GetOrCreateSegment(id, store)
		if err := s.CreateIndexPrepare(it, snapshotTS, checkTS); err != nil {
			return fmt.Errorf("create_index_prepare segment %d: %w", id, err)
		}
		if id == unsealed {
			e.mu.Lock()
			e.lastSegment = s
			e.mu.Unlock()
		}
	}
	_ = isReplay
	return nil
}

// CreateIndexDo fans out to every segment entry, carrying the shared
// progress counter; returns the first failure (spec §4.3).
func (e *TableIndexEntry) CreateIndexDo(progressCounter *uint64) error {
	e.mu.RLock()
	segs := make([]*SegmentIndexEntry, 0, len(e.segments))
	for _, s := range e.segments {
		segs = append(segs, s)
	}
	e.mu.RUnlock()

	for _, s := range segs {
		if err := s.CreateIndexDo(progressCounter); err != nil {
			return err
		}
	}
	return nil
}

// MemIndexCommit delegates to last_segment.
func (e *TableIndexEntry) MemIndexCommit() (*ChunkIndexEntry, error) {
	e.mu.RLock()
	s := e.lastSegment
	e.mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	return s.MemIndexCommit()
}

// MemIndexDump delegates to last_segment.
func (e *TableIndexEntry) MemIndexDump(spill bool) (*ChunkIndexEntry, error) {
	e.mu.RLock()
	s := e.lastSegment
	e.mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	return s.MemIndexDump(spill)
}

// PickCleanupBySegments removes segment entries whose ids are in
// sortedIDs and hands them to scanner for async deletion (spec §4.3,
// §8: "the segment ids removed ... exactly equal S ∩
// index_by_segment.keys()").
func (e *TableIndexEntry) PickCleanupBySegments(sortedIDs []uint64, scanner func(*SegmentIndexEntry)) []uint64 {
	want := roaring64.New()
	for _, id := range sortedIDs {
		want.Add(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var removed []uint64
	for id, s := range e.segments {
		if !want.Contains(id) {
			continue
		}
		delete(e.segments, id)
		if e.lastSegment == s {
			e.lastSegment = nil
		}
		removed = append(removed, id)
		if scanner != nil {
			scanner(s)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

// Cleanup deletes the full on-disk directory after per-segment
// cleanup; skipped when the entry is already tombstoned, leaving
// artifacts to the replay path (spec §4.3).
func (e *TableIndexEntry) Cleanup() error {
	if e.Deleted() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.segments {
		if err := s.Cleanup(); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(e.indexDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cleanup index dir %s: %w", e.indexDir, err)
	}
	e.SetDeleted()
	return nil
}
