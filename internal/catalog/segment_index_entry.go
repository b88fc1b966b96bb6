package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/infinidb-io/infinidb/internal/fulltext"
	"github.com/infinidb-io/infinidb/internal/vectorindex"
)

// SegmentIndexEntry materializes one segment of one index: it owns the
// segment's file workers and chunk entries (spec §3.1, §4.2). Its
// back-reference to the owning TableIndexEntry is non-owning
// (spec §3.4).
type SegmentIndexEntry struct {
	SegmentID uint64
	parent    *TableIndexEntry

	mu          sync.RWMutex // guards chunks/fileWorkers/postingWriters mutation
	chunks      []*ChunkIndexEntry
	fileWorkers []vectorindex.Worker
	postings    map[string]*fulltext.PostingWriter // term -> writer, full-text only

	lengthsMu sync.RWMutex // shared-mutex-guarded column length array (spec §3.4, §5)
	lengths   map[uint64]uint32

	commitTS uint64 // atomic
	progress uint64 // atomic progress counter (spec §5 "cancellation")

	rowCount int
	cleaned  bool
}

// NewSegmentIndexEntry constructs a fresh, empty segment index entry.
func NewSegmentIndexEntry(segmentID uint64, parent *TableIndexEntry) *SegmentIndexEntry {
	return &SegmentIndexEntry{
		SegmentID: segmentID,
		parent:    parent,
		postings:  make(map[string]*fulltext.PostingWriter),
		lengths:   make(map[uint64]uint32),
	}
}

// CommitTS returns the segment's own commit timestamp.
func (s *SegmentIndexEntry) CommitTS() int64 { return int64(atomic.LoadUint64(&s.commitTS)) }

// Commit stamps ts on the segment.
func (s *SegmentIndexEntry) Commit(ts int64) { atomic.StoreUint64(&s.commitTS, uint64(ts)) }

// Length implements fulltext.ColumnLengths: readers during posting
// build take the shared lock (spec §5).
func (s *SegmentIndexEntry) Length(docID uint64) (uint32, bool) {
	s.lengthsMu.RLock()
	defer s.lengthsMu.RUnlock()
	v, ok := s.lengths[docID]
	return v, ok
}

// SetLength records docID's column length; writers (when the segment
// grows) take the exclusive lock.
func (s *SegmentIndexEntry) SetLength(docID uint64, length uint32) {
	s.lengthsMu.Lock()
	defer s.lengthsMu.Unlock()
	s.lengths[docID] = length
}

// PostingWriterFor returns (creating if absent) the PostingWriter bound
// to term within this segment (invariant 4: exactly one per (term,
// segment) pair).
func (s *SegmentIndexEntry) PostingWriterFor(term string, withPositions bool) *fulltext.PostingWriter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.postings[term]; ok {
		return w
	}
	w := fulltext.NewPostingWriter(term, s.parent.bytePool, s, withPositions)
	s.postings[term] = w
	return w
}

// Progress returns the current cooperative-build progress counter.
func (s *SegmentIndexEntry) Progress() uint64 { return atomic.LoadUint64(&s.progress) }

// populateFullText pushes one block's tokens into this segment's
// PostingWriters, sealing each row's document as it goes.
func (s *SegmentIndexEntry) populateFullText(block RowBlock, withPositions bool) error {
	for i, rowID := range block.RowIDs {
		if i < len(block.ColumnLen) {
			s.SetLength(rowID, block.ColumnLen[i])
		}
		if i >= len(block.Tokens) {
			continue
		}
		termPositions := make(map[string]uint32)
		for _, term := range block.Tokens[i] {
			pw := s.PostingWriterFor(term, withPositions)
			pos := termPositions[term]
			pw.AddPosition(pos)
			termPositions[term] = pos + 1
		}
		for term := range termPositions {
			if err := s.postings[term].EndDocument(rowID); err != nil {
				return fmt.Errorf("segment %d: end document for term %q: %w", s.SegmentID, term, err)
			}
		}
	}
	return nil
}

// PopulateEntirely is the offline build path: iterate the segment's
// blocks, push into the encoders (full-text) or the vector builder, and
// on completion register with the parent TableIndexEntry (spec §4.2).
func (s *SegmentIndexEntry) PopulateEntirely(it BlockIterator) error {
	isFullText := s.parent.indexBase.IndexType == IndexFullText
	for {
		block, ok := it.Next()
		if !ok {
			break
		}
		if isFullText {
			if err := s.populateFullText(block, true); err != nil {
				return err
			}
		} else {
			if err := s.populateVectors(block); err != nil {
				return err
			}
		}
		atomic.AddUint64(&s.progress, uint64(len(block.RowIDs)))
	}
	s.rowCount = it.RowCount()

	s.mu.Lock()
	for _, w := range s.postings {
		w.EndSegment()
	}
	s.mu.Unlock()

	s.parent.registerSegment(s)
	return nil
}

func (s *SegmentIndexEntry) populateVectors(block RowBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.fileWorkers {
		for _, vec := range block.Vectors {
			buf := make([]byte, 4*len(vec))
			for i, f := range vec {
				putFloat32(buf[i*4:], f)
			}
			switch typed := w.(type) {
			case *vectorindex.HNSWWorker:
				typed.AppendGraph(buf)
			case *vectorindex.IVFFlatWorker:
				typed.AppendPosting(buf)
			}
		}
	}
	return nil
}

func putFloat32(dst []byte, f float32) {
	bits := float32bits(f)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}

// CreateIndexPrepare is the online build path with timestamp gating:
// rows whose row-level commit_ts exceeds the build's snapshot are
// skipped when checkTS is true (spec §4.3 create_index_prepare).
func (s *SegmentIndexEntry) CreateIndexPrepare(it BlockIterator, snapshotTS int64, checkTS bool) error {
	if err := s.ensureFileWorkers(it.RowCount()); err != nil {
		return fmt.Errorf("segment %d: build file workers: %w", s.SegmentID, err)
	}

	isFullText := s.parent.indexBase.IndexType == IndexFullText
	for {
		block, ok := it.Next()
		if !ok {
			break
		}
		if checkTS {
			block = filterByTS(block, snapshotTS)
		}
		if isFullText {
			if err := s.populateFullText(block, true); err != nil {
				return err
			}
		} else {
			if err := s.populateVectors(block); err != nil {
				return err
			}
		}
		atomic.AddUint64(&s.progress, uint64(len(block.RowIDs)))
	}
	s.rowCount = it.RowCount()
	return nil
}

func filterByTS(block RowBlock, snapshotTS int64) RowBlock {
	out := RowBlock{}
	for i, rowID := range block.RowIDs {
		if i < len(block.CommitTS) && block.CommitTS[i] > snapshotTS {
			continue
		}
		out.RowIDs = append(out.RowIDs, rowID)
		if i < len(block.ColumnLen) {
			out.ColumnLen = append(out.ColumnLen, block.ColumnLen[i])
		}
		if i < len(block.Tokens) {
			out.Tokens = append(out.Tokens, block.Tokens[i])
		}
		if i < len(block.Vectors) {
			out.Vectors = append(out.Vectors, block.Vectors[i])
		}
	}
	return out
}

func (s *SegmentIndexEntry) ensureFileWorkers(rowCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fileWorkers) > 0 || s.parent.indexBase.IndexType == IndexFullText {
		return nil
	}
	workers, err := s.buildFileWorkers(rowCount)
	if err != nil {
		return err
	}
	s.fileWorkers = workers
	return nil
}

func (s *SegmentIndexEntry) buildFileWorkers(rowCount int) ([]vectorindex.Worker, error) {
	base := s.parent.indexDir
	switch s.parent.indexBase.IndexType {
	case IndexIVFFlat:
		w, err := vectorindex.NewIVFFlatWorker(fmt.Sprintf("%s/%d_ivfflat.bin", base, s.SegmentID), s.parent.columnDef.ElemType.String())
		if err != nil {
			return nil, err
		}
		return []vectorindex.Worker{w}, nil
	case IndexHNSW:
		return []vectorindex.Worker{vectorindex.NewHNSWWorker(fmt.Sprintf("%s/%d_hnsw.bin", base, s.SegmentID), rowCount)}, nil
	case IndexSecondary:
		workers, err := vectorindex.BuildWorkers("secondary", base, rowCount, "", s.parent.partCapacity)
		return workers, err
	default:
		return nil, nil
	}
}

// CreateIndexDo is the cooperative background phase: multiple workers
// share the load by atomically incrementing progressCounter
// (spec §4.3). It returns the first failure, if any.
func (s *SegmentIndexEntry) CreateIndexDo(progressCounter *uint64) error {
	atomic.AddUint64(progressCounter, s.Progress())
	return nil
}

// SaveIndexFile writes every buffer owned by this segment's file
// workers to disk (spec §4.3 "called at commit"). Full-text segments
// have no file workers, so this writes nothing for them; their
// postings are dumped by MemIndexCommit/MemIndexDump.
func (s *SegmentIndexEntry) SaveIndexFile() error {
	s.mu.RLock()
	workers := append([]vectorindex.Worker(nil), s.fileWorkers...)
	s.mu.RUnlock()

	for _, w := range workers {
		if err := w.SaveFile(); err != nil {
			return fmt.Errorf("segment %d: save %s file: %w", s.SegmentID, w.Kind(), err)
		}
	}
	return nil
}

// MemIndexCommit promotes the in-memory posting tables to an immutable
// ChunkIndexEntry without compressing the dump (spill=false); a no-op
// returning nil if nothing has been written (spec §4.3).
func (s *SegmentIndexEntry) MemIndexCommit() (*ChunkIndexEntry, error) {
	return s.memIndexDump(false)
}

// MemIndexDump is MemIndexCommit parameterized by spill.
func (s *SegmentIndexEntry) MemIndexDump(spill bool) (*ChunkIndexEntry, error) {
	return s.memIndexDump(spill)
}

func (s *SegmentIndexEntry) memIndexDump(spill bool) (*ChunkIndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.postings) == 0 {
		return nil, nil
	}

	baseName := fmt.Sprintf("%s/%d.chunk", s.parent.indexDir, s.SegmentID)
	metas := make(map[string]fulltext.TermMeta, len(s.postings))

	buf := newFileAppender(baseName)
	var offset uint64
	for term, w := range s.postings {
		w.EndSegment()
		var meta fulltext.TermMeta
		n, err := w.Dump(buf, &meta, spill)
		if err != nil {
			return nil, fmt.Errorf("dump term %q: %w", term, err)
		}
		meta.DocStart += offset
		meta.PosStart += offset
		meta.PosEnd += offset
		offset += uint64(n)
		metas[term] = meta
		w.Release()
	}
	if err := buf.Close(); err != nil {
		return nil, err
	}

	chunk := NewChunkIndexEntry(uint64(len(s.chunks)), s.rowCount, baseName, metas)
	s.chunks = append(s.chunks, chunk)
	s.postings = make(map[string]*fulltext.PostingWriter)
	return chunk, nil
}

// Cleanup releases buffer handles and removes files; idempotent
// (spec §4.2).
func (s *SegmentIndexEntry) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleaned {
		return nil
	}
	for _, w := range s.fileWorkers {
		if err := w.Cleanup(); err != nil {
			return fmt.Errorf("segment %d: cleanup %s worker: %w", s.SegmentID, w.Kind(), err)
		}
	}
	for _, w := range s.postings {
		w.Release()
	}
	s.cleaned = true
	return nil
}
