package fulltext

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// chunkReader adapts a live chunk chain ([]*[]byte) into an io.ByteReader
// without flattening it into one contiguous buffer, so
// create_in_memory_decoder can read concurrently with an in-progress
// build (spec §4.1).
type chunkReader struct {
	chunks    []*[]byte
	chunkIdx  int
	byteIdx   int
}

func newChunkReader(chunks []*[]byte) *chunkReader {
	return &chunkReader{chunks: chunks}
}

func (r *chunkReader) ReadByte() (byte, error) {
	for r.chunkIdx < len(r.chunks) {
		cur := *r.chunks[r.chunkIdx]
		if r.byteIdx < len(cur) {
			b := cur[r.byteIdx]
			r.byteIdx++
			return b, nil
		}
		r.chunkIdx++
		r.byteIdx = 0
	}
	return 0, io.EOF
}

// Seek jumps to an absolute byte offset into the chain. Every chunk but
// the last is always filled to defaultSliceSize before a new one is
// allocated (chunkChain.Write), so the target chunk/offset pair is
// computable directly instead of walking from the start.
func (r *chunkReader) Seek(offset int) {
	r.chunkIdx = offset / defaultSliceSize
	r.byteIdx = offset % defaultSliceSize
}

// PostingEntry is one decoded document entry from a doc-list stream.
type PostingEntry struct {
	DocID   uint64
	TF      uint32
	Payload uint32
}

// DocListDecoder reads the (doc_id_delta, tf, payload?) stream produced
// by DocListEncoder, either from a live chunk chain or from a dumped
// byte buffer loaded via Load.
type DocListDecoder struct {
	r           io.ByteReader
	seek        func(offset int)
	skips       []skipEntry
	lastDoc     uint64
	hasLast     bool
	withPayload bool
}

// NewLiveDocListDecoder implements create_in_memory_decoder for the
// doc-list stream: it reads straight from enc's live chunk chain and
// carries a snapshot of its skip list, so SkipTo can jump ahead while a
// build is still in progress (spec §4.1 "create_in_memory_decoder").
// Lifetime: the returned decoder must not outlive enc.
func NewLiveDocListDecoder(enc *DocListEncoder) *DocListDecoder {
	cr := newChunkReader(enc.Chunks())
	return &DocListDecoder{
		r:           cr,
		seek:        cr.Seek,
		skips:       append([]skipEntry(nil), enc.skips...),
		withPayload: enc.withPayload,
	}
}

// NewDocListDecoder builds a decoder directly over a raw posting body
// (DocListEncoder.Bytes' output, with no skip table prefix). SkipTo is
// a no-op on a decoder built this way.
func NewDocListDecoder(buf []byte, withPayload bool) *DocListDecoder {
	br := bytes.NewReader(buf)
	return &DocListDecoder{
		r:           br,
		seek:        func(offset int) { br.Seek(int64(offset), io.SeekStart) },
		withPayload: withPayload,
	}
}

// NewDumpedDocListDecoder builds a decoder over DocListEncoder.DumpBytes'
// output: it parses the skip table prefix first, then decodes the
// remaining posting body, enabling SkipTo on recovered segments the same
// way NewLiveDocListDecoder does for in-progress ones.
func NewDumpedDocListDecoder(buf []byte, withPayload bool) (*DocListDecoder, error) {
	skips, body, err := parseSkipTable(buf)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(body)
	return &DocListDecoder{
		r:           br,
		seek:        func(offset int) { br.Seek(int64(offset), io.SeekStart) },
		skips:       skips,
		withPayload: withPayload,
	}, nil
}

func parseSkipTable(buf []byte) ([]skipEntry, []byte, error) {
	r := bytes.NewReader(buf)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, nil, fmt.Errorf("decode skip table count: %w", err)
	}

	skips := make([]skipEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		hasPrevByte, err := r.ReadByte()
		if err != nil {
			return nil, nil, fmt.Errorf("decode skip entry flag: %w", err)
		}
		prevDocID, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, nil, fmt.Errorf("decode skip entry prevDocID: %w", err)
		}
		docID, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, nil, fmt.Errorf("decode skip entry docID: %w", err)
		}
		offset, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, nil, fmt.Errorf("decode skip entry offset: %w", err)
		}
		skips = append(skips, skipEntry{docID: docID, prevDocID: prevDocID, hasPrev: hasPrevByte == 1, byteOffset: int(offset)})
	}
	body := buf[len(buf)-r.Len():]
	return skips, body, nil
}

// SkipTo jumps the decoder ahead to the skip-list entry nearest
// targetDocID without passing it, restoring the delta-decode baseline
// the jump requires (spec §4.1 "block skip-list metadata"; mirrors
// InMemDocListDecoder::DecodeDocBuffer's skiplist_reader_->SkipTo path).
// Returns false — a no-op — when the decoder carries no skip table or
// every entry's docID exceeds targetDocID, matching the no-skip-list
// fallback in the same C++ method.
func (d *DocListDecoder) SkipTo(targetDocID uint64) bool {
	best := -1
	for i, s := range d.skips {
		if s.docID > targetDocID {
			break
		}
		best = i
	}
	if best < 0 {
		return false
	}

	s := d.skips[best]
	d.seek(s.byteOffset)
	d.lastDoc = s.prevDocID
	d.hasLast = s.hasPrev
	return true
}

// Next decodes the next entry, or returns ok=false at end of stream.
func (d *DocListDecoder) Next() (PostingEntry, bool, error) {
	delta, err := binary.ReadUvarint(d.r)
	if err == io.EOF {
		return PostingEntry{}, false, nil
	}
	if err != nil {
		return PostingEntry{}, false, fmt.Errorf("decode doc delta: %w", err)
	}

	var docID uint64
	if d.hasLast {
		docID = d.lastDoc + delta
	} else {
		docID = delta
	}
	d.lastDoc = docID
	d.hasLast = true

	tf, err := binary.ReadUvarint(d.r)
	if err != nil {
		return PostingEntry{}, false, fmt.Errorf("decode tf: %w", err)
	}

	var payload uint64
	if d.withPayload {
		payload, err = binary.ReadUvarint(d.r)
		if err != nil {
			return PostingEntry{}, false, fmt.Errorf("decode payload: %w", err)
		}
	}

	return PostingEntry{DocID: docID, TF: uint32(tf), Payload: uint32(payload)}, true, nil
}

// PositionListDecoder reads the per-document position blocks produced
// by PositionListEncoder.
type PositionListDecoder struct {
	r io.ByteReader
}

// NewLivePositionListDecoder implements create_in_memory_decoder for
// the position stream.
func NewLivePositionListDecoder(enc *PositionListEncoder) *PositionListDecoder {
	return &PositionListDecoder{r: newChunkReader(enc.Chunks())}
}

// NewPositionListDecoder builds a decoder over a persisted byte buffer.
func NewPositionListDecoder(buf []byte) *PositionListDecoder {
	return &PositionListDecoder{r: bytes.NewReader(buf)}
}

// Next decodes the next document's position list, or ok=false at EOF.
func (d *PositionListDecoder) Next() ([]uint32, bool, error) {
	count, err := binary.ReadUvarint(d.r)
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("decode position count: %w", err)
	}

	positions := make([]uint32, 0, count)
	var last uint32
	for i := uint64(0); i < count; i++ {
		delta, err := binary.ReadUvarint(d.r)
		if err != nil {
			return nil, false, fmt.Errorf("decode position delta: %w", err)
		}
		last += uint32(delta)
		positions = append(positions, last)
	}
	return positions, true, nil
}
