package catalog

import "github.com/infinidb-io/infinidb/internal/fulltext"

// ChunkIndexEntry is a single immutable memory-dumped chunk within a
// segment's index — one generation of memtable flush (spec §3.1,
// glossary "ChunkIndexEntry").
type ChunkIndexEntry struct {
	ChunkID  uint64
	RowCount int
	// TermMetas maps term -> offsets within the dumped posting file
	// this chunk materializes (full-text indexes only).
	TermMetas map[string]fulltext.TermMeta
	BaseName  string // on-disk file this chunk's postings were dumped to
}

// NewChunkIndexEntry wraps a just-dumped memtable generation.
func NewChunkIndexEntry(chunkID uint64, rowCount int, baseName string, metas map[string]fulltext.TermMeta) *ChunkIndexEntry {
	return &ChunkIndexEntry{ChunkID: chunkID, RowCount: rowCount, BaseName: baseName, TermMetas: metas}
}
