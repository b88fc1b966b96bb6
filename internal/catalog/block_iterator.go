package catalog

// RowBlock is one batch of rows handed to index population by the
// (out-of-scope, spec §1) physical storage layer. Only the columns an
// index build actually consumes are modeled here.
type RowBlock struct {
	RowIDs    []uint64
	CommitTS  []int64     // per-row commit timestamp, for create_index_prepare's check_ts gating
	Tokens    [][]string  // per-row token stream, full-text indexes only
	ColumnLen []uint32    // per-row indexed-column length, full-text payload
	Vectors   [][]float32 // per-row embedding, vector indexes only
}

// BlockIterator is the read-only contract index population consumes
// physical segment storage through (spec §1 "Physical data-block
// storage ... consumed read-only through a block-iterator interface").
// The block storage implementation itself is out of scope.
type BlockIterator interface {
	// Next returns the next block, or ok=false once exhausted.
	Next() (RowBlock, bool)
	// RowCount is the total row count of the segment being iterated,
	// needed upfront for HNSW's max_element and Secondary's part count.
	RowCount() int
}
