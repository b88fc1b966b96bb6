package fulltext

import "encoding/binary"

// PositionListEncoder buffers per-document positions, delta-encoded,
// as the second stream aligned by document (spec §4.1 "Position
// encoder: analogous [to the doc-list encoder] but buffers per-document
// positions").
type PositionListEncoder struct {
	chain    *chunkChain
	pending  []uint32 // positions recorded for the document in progress
	lastPos  uint32
	docCount int
}

// NewPositionListEncoder creates an encoder borrowing pool (nil for the
// default allocator).
func NewPositionListEncoder(pool *BytePool) *PositionListEncoder {
	return &PositionListEncoder{chain: newChunkChain(pool)}
}

// AddPosition records one occurrence at pos in the document currently
// being built.
func (e *PositionListEncoder) AddPosition(pos uint32) {
	e.pending = append(e.pending, pos)
}

// End seals the current document's position block: a uvarint count
// followed by delta-encoded uvarint positions, and resets for the next
// document.
func (e *PositionListEncoder) End() {
	var buf [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(buf[:], uint64(len(e.pending)))
	e.chain.Write(buf[:n])

	var last uint32
	for _, p := range e.pending {
		delta := p - last
		n = binary.PutUvarint(buf[:], uint64(delta))
		e.chain.Write(buf[:n])
		last = p
	}

	e.pending = e.pending[:0]
	e.docCount++
}

// Flush is a no-op; every End call writes through. See
// DocListEncoder.Flush for why this method exists at all.
func (e *PositionListEncoder) Flush() {}

// DumpLength returns total bytes the encoder would write on Dump.
func (e *PositionListEncoder) DumpLength() int { return e.chain.Len() }

// Bytes flattens the position stream for Dump.
func (e *PositionListEncoder) Bytes() []byte { return e.chain.Bytes() }

// Chunks exposes the live chain for create_in_memory_decoder.
func (e *PositionListEncoder) Chunks() []*[]byte { return e.chain.Chunks() }

// Release returns pooled chunks once no decoder needs them.
func (e *PositionListEncoder) Release() { e.chain.Release() }
