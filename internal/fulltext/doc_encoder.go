package fulltext

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// skipInterval is K in "skip entries are emitted every K documents"
// (spec §4.1). A package-level constant mirrors the teacher's
// convention of naming build tuning as constants rather than threading
// a config value through every encoder call.
const skipInterval = 128

// skipEntry records one skip-list checkpoint: docID is the document
// sealed at byteOffset, prevDocID/hasPrev is the decode baseline a
// reader must restore before resuming delta decoding from that offset
// (mirrors last_doc_id_in_prev_record in inmem_doc_list_decoder.cpp's
// SkipTo).
type skipEntry struct {
	docID      uint64
	prevDocID  uint64
	hasPrev    bool
	byteOffset int
}

// DocListEncoder builds the compressed (doc_id_delta, tf, payload?)
// stream for one term within one segment (spec §4.1 "doc-list encoder").
// Doc ids must be strictly increasing across End calls.
type DocListEncoder struct {
	chain   *chunkChain
	hasLast bool
	lastDoc uint64
	count   int
	skips   []skipEntry

	curTF      uint32
	withPayload bool
}

// NewDocListEncoder creates an encoder borrowing pool (nil for the
// default allocator).
func NewDocListEncoder(pool *BytePool, withPayload bool) *DocListEncoder {
	return &DocListEncoder{chain: newChunkChain(pool), withPayload: withPayload}
}

// AddPosition increments the in-progress term frequency for the
// document currently being built (spec §4.1 "add_position").
func (e *DocListEncoder) AddPosition() { e.curTF++ }

// End seals docID's entry into the block buffer: delta-encodes against
// the previous doc id, writes tf, and resets the running tf counter
// (spec §4.1 "end_document ... moves current into the block buffer and
// resets"). docID must strictly increase; a non-monotonic call is a
// precondition failure per the teacher's convention of panicking on
// programmer-bug input rather than returning an error for it.
func (e *DocListEncoder) End(docID uint64, payload uint32) {
	if e.hasLast && docID <= e.lastDoc {
		panic(fmt.Sprintf("fulltext: non-monotonic end_document: got %d after %d", docID, e.lastDoc))
	}

	if e.count%skipInterval == 0 {
		e.skips = append(e.skips, skipEntry{docID: docID, prevDocID: e.lastDoc, hasPrev: e.hasLast, byteOffset: e.chain.Len()})
	}

	var delta uint64
	if e.hasLast {
		delta = docID - e.lastDoc
	} else {
		delta = docID
	}

	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], delta)
	e.chain.Write(buf[:n])

	n = binary.PutUvarint(buf[:], uint64(e.curTF))
	e.chain.Write(buf[:n])

	if e.withPayload {
		n = binary.PutUvarint(buf[:], uint64(payload))
		e.chain.Write(buf[:n])
	}

	e.lastDoc = docID
	e.hasLast = true
	e.count++
	e.curTF = 0
}

// Flush is a no-op for the in-memory encoder: every End call already
// writes through to the chunk chain. Present so PostingWriter.EndSegment
// has a single call to make regardless of encoder internals changing.
func (e *DocListEncoder) Flush() {}

// Len returns the number of sealed documents.
func (e *DocListEncoder) Len() int { return e.count }

// skipTableBytes serializes the skip list built so far: uvarint count,
// then per entry a has-prev flag byte and three uvarints (prevDocID,
// docID, byteOffset). Computed on demand rather than maintained
// incrementally since Dump/DumpLength are called once per segment
// build, not per document.
func (e *DocListEncoder) skipTableBytes() []byte {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(tmp[:], uint64(len(e.skips)))
	buf.Write(tmp[:n])
	for _, s := range e.skips {
		if s.hasPrev {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		n = binary.PutUvarint(tmp[:], s.prevDocID)
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], s.docID)
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(s.byteOffset))
		buf.Write(tmp[:n])
	}
	return buf.Bytes()
}

// DumpLength returns total bytes the encoder would write on DumpBytes.
func (e *DocListEncoder) DumpLength() int {
	return len(e.skipTableBytes()) + e.chain.Len()
}

// Bytes flattens the posting body (without the skip table) — the
// stream NewDocListDecoder reads directly, with no skip-ahead support.
func (e *DocListEncoder) Bytes() []byte { return e.chain.Bytes() }

// DumpBytes serializes the skip table followed by the posting body,
// the layout PostingWriter.Dump persists and NewDumpedDocListDecoder
// reverses (spec §4.1 "block skip-list metadata").
func (e *DocListEncoder) DumpBytes() []byte {
	return append(e.skipTableBytes(), e.chain.Bytes()...)
}

// Chunks exposes the live chain for create_in_memory_decoder.
func (e *DocListEncoder) Chunks() []*[]byte { return e.chain.Chunks() }

// Release returns pooled chunks once no decoder needs them.
func (e *DocListEncoder) Release() { e.chain.Release() }
