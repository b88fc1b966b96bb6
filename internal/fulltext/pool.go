// Package fulltext implements the posting-writer build path for
// full-text indexing (spec §4.1): pooled byte-slice allocation, doc/
// position run encoders, and the per-term PostingWriter that
// coordinates them.
package fulltext

import "sync"

// defaultSliceSize is the chunk size handed out by BytePool; encoders
// chain multiple chunks rather than growing one slice, so a live
// in-memory decoder can walk the chain without racing a reallocation.
const defaultSliceSize = 4096

// BytePool is the pooled byte-slice allocator shared by every
// PostingWriter built against one TableIndexEntry (spec §3.1 "two
// pools used by full-text posting builders", §3.4 "PostingWriter ...
// borrows the pools"). It outlives every PostingWriter that borrows
// from it (invariant 4).
type BytePool struct {
	pool sync.Pool
}

// NewBytePool constructs an empty pool.
func NewBytePool() *BytePool {
	return &BytePool{pool: sync.Pool{New: func() interface{} {
		b := make([]byte, 0, defaultSliceSize)
		return &b
	}}}
}

// Get returns a zero-length slice with at least defaultSliceSize
// capacity, either recycled or freshly allocated.
func (p *BytePool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// Put returns a slice to the pool for reuse. Callers must not retain
// b after calling Put.
func (p *BytePool) Put(b *[]byte) {
	p.pool.Put(b)
}

// chunkChain is the append-only linked list of pooled byte slices an
// encoder writes into. It supports both a borrowed BytePool and the
// default allocator (create_in_memory_decoder's "pool? / otherwise the
// default allocator").
type chunkChain struct {
	pool   *BytePool
	chunks []*[]byte
	length int // total bytes across all chunks
}

func newChunkChain(pool *BytePool) *chunkChain {
	return &chunkChain{pool: pool}
}

func (c *chunkChain) alloc() *[]byte {
	if c.pool != nil {
		return c.pool.Get()
	}
	b := make([]byte, 0, defaultSliceSize)
	return &b
}

// Write appends b, spilling into additional pooled chunks as needed.
func (c *chunkChain) Write(b []byte) {
	for len(b) > 0 {
		if len(c.chunks) == 0 || cap(*c.chunks[len(c.chunks)-1]) == len(*c.chunks[len(c.chunks)-1]) {
			c.chunks = append(c.chunks, c.alloc())
		}
		cur := c.chunks[len(c.chunks)-1]
		room := cap(*cur) - len(*cur)
		n := len(b)
		if n > room {
			n = room
		}
		*cur = append(*cur, b[:n]...)
		b = b[n:]
		c.length += n
	}
}

// Bytes flattens the chain into one contiguous slice. Used by dump and
// by load's counterpart; live decoders should prefer Chunks to avoid
// the copy while the chain is still being written.
func (c *chunkChain) Bytes() []byte {
	out := make([]byte, 0, c.length)
	for _, chunk := range c.chunks {
		out = append(out, *chunk...)
	}
	return out
}

// Chunks exposes the live chunk list for create_in_memory_decoder,
// which must read directly from the encoder's byte-slice chain rather
// than taking a snapshot (spec §4.1).
func (c *chunkChain) Chunks() []*[]byte { return c.chunks }

// Len returns the total byte count written so far.
func (c *chunkChain) Len() int { return c.length }

// Release returns every owned chunk to the pool. Call once the chain
// is no longer needed by any decoder.
func (c *chunkChain) Release() {
	if c.pool == nil {
		return
	}
	for _, chunk := range c.chunks {
		c.pool.Put(chunk)
	}
	c.chunks = nil
}
