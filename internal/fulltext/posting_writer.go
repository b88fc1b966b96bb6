package fulltext

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// ColumnLengths is the per-segment, shared-mutex-guarded column length
// array PostingWriter.EndDocument reads from (spec §3.4). Concrete
// implementations live in the owning segment; fulltext only depends on
// the read contract.
type ColumnLengths interface {
	Length(docID uint64) (uint32, bool)
}

// PostingWriter is the per-term, per-segment posting-list builder
// (spec §4.1, invariant 4: bound to exactly one (term, segment) pair).
type PostingWriter struct {
	term    string
	lengths ColumnLengths

	doc *DocListEncoder
	pos *PositionListEncoder // nil when positions are disabled

	df      uint32 // document frequency: number of documents sealed
	totalTF uint64
	curTF   uint32

	ended bool
}

// NewPostingWriter constructs a writer for term within one segment.
// pool is the segment's byte-slice pool (borrowed, spec invariant 4);
// withPositions enables the position stream.
func NewPostingWriter(term string, pool *BytePool, lengths ColumnLengths, withPositions bool) *PostingWriter {
	w := &PostingWriter{
		term:    term,
		lengths: lengths,
		doc:     NewDocListEncoder(pool, false),
	}
	if withPositions {
		w.pos = NewPositionListEncoder(pool)
	}
	return w
}

// AddPosition records one occurrence at pos in the current document
// (spec §4.1 "add_position").
func (w *PostingWriter) AddPosition(pos uint32) {
	w.curTF++
	if w.pos != nil {
		w.pos.AddPosition(pos)
	}
}

// EndDocument closes the current document, reads its column length
// from the shared length array, and seals it into the doc-list (and,
// if enabled, position) encoder (spec §4.1 "end_document").
func (w *PostingWriter) EndDocument(docID uint64) error {
	payload, ok := w.lengths.Length(docID)
	if !ok {
		return fmt.Errorf("fulltext: no column length recorded for doc %d", docID)
	}

	w.doc.End(docID, payload)
	if w.pos != nil {
		w.pos.End()
	}

	w.df++
	w.totalTF += uint64(w.curTF)
	w.curTF = 0
	return nil
}

// CurrentTF returns the in-progress term frequency for the document
// being built.
func (w *PostingWriter) CurrentTF() uint32 { return w.curTF }

// SetCurrentTF overrides the in-progress term frequency, used by
// scorers replaying a partially-built document.
func (w *PostingWriter) SetCurrentTF(tf uint32) { w.curTF = tf }

// DF returns the document frequency accumulated so far.
func (w *PostingWriter) DF() uint32 { return w.df }

// TotalTF returns the cumulative term frequency across all sealed
// documents.
func (w *PostingWriter) TotalTF() uint64 { return w.totalTF }

// EndSegment flushes both encoders; required before Dump (spec §4.1).
func (w *PostingWriter) EndSegment() {
	w.doc.Flush()
	if w.pos != nil {
		w.pos.Flush()
	}
	w.ended = true
}

// DumpLength returns the total bytes Dump would write with spill=false:
// each block's 9-byte header plus its raw payload. With spill=true the
// payloads are snappy-compressed, so Dump's byte count can differ.
func (w *PostingWriter) DumpLength() int {
	n := 9 + w.doc.DumpLength()
	if w.pos != nil {
		n += 9 + w.pos.DumpLength()
	}
	return n
}

// Dump writes the doc list then, if present, the position list
// sequentially, recording byte offsets in meta. spill selects a
// disk-backed (snappy-compressed) vs in-memory (raw) dump format
// (spec §4.1).
func (w *PostingWriter) Dump(wr io.Writer, meta *TermMeta, spill bool) (int64, error) {
	if !w.ended {
		return 0, fmt.Errorf("fulltext: Dump called before EndSegment for term %q", w.term)
	}

	var written int64
	cw := &countingWriter{w: wr}

	meta.DocStart = uint64(written)
	if err := writeBlock(cw, w.doc.DumpBytes(), spill); err != nil {
		return cw.n, err
	}
	written = cw.n

	if w.pos != nil {
		meta.PosStart = uint64(written)
		if err := writeBlock(cw, w.pos.Bytes(), spill); err != nil {
			return cw.n, err
		}
		written = cw.n
		meta.PosEnd = uint64(written)
	} else {
		meta.PosStart = uint64(written)
		meta.PosEnd = uint64(written)
	}

	return written, nil
}

// writeBlock writes a length-prefixed block, snappy-compressing the
// payload when spill is set.
func writeBlock(w io.Writer, payload []byte, spill bool) error {
	flag := byte(0)
	if spill {
		payload = snappy.Encode(nil, payload)
		flag = 1
	}

	var hdr [9]byte
	hdr[0] = flag
	binary.LittleEndian.PutUint64(hdr[1:], uint64(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readBlock is Dump's inverse for one block.
func readBlock(r io.Reader) ([]byte, error) {
	var hdr [9]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(hdr[1:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if hdr[0] == 1 {
		return snappy.Decode(nil, buf)
	}
	return buf, nil
}

// Load is the inverse of Dump for recovery: it reads the doc list and
// (if present) position list back into fresh decoders.
func Load(r io.Reader, withPositions, withPayload bool) (*DocListDecoder, *PositionListDecoder, error) {
	docBytes, err := readBlock(r)
	if err != nil {
		return nil, nil, fmt.Errorf("load doc list: %w", err)
	}
	docDec, err := NewDumpedDocListDecoder(docBytes, withPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("load doc list: %w", err)
	}

	if !withPositions {
		return docDec, nil, nil
	}

	posBytes, err := readBlock(r)
	if err != nil {
		return nil, nil, fmt.Errorf("load position list: %w", err)
	}
	return docDec, NewPositionListDecoder(posBytes), nil
}

// CreateInMemoryDocDecoder produces a decoder reading directly from the
// encoder's live byte-slice chain — used by queries that race with
// ongoing builds (spec §4.1 "create_in_memory_decoder"). Its lifetime
// must not exceed w's.
func (w *PostingWriter) CreateInMemoryDocDecoder() *DocListDecoder {
	return NewLiveDocListDecoder(w.doc)
}

// CreateInMemoryPositionDecoder is CreateInMemoryDocDecoder's position-
// stream counterpart; returns nil if positions are disabled.
func (w *PostingWriter) CreateInMemoryPositionDecoder() *PositionListDecoder {
	if w.pos == nil {
		return nil
	}
	return NewLivePositionListDecoder(w.pos)
}

// Release returns both encoders' pooled chunks.
func (w *PostingWriter) Release() {
	w.doc.Release()
	if w.pos != nil {
		w.pos.Release()
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
