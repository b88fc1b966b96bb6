package fulltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocListEncoderRoundTrip(t *testing.T) {
	enc := NewDocListEncoder(nil, true)
	docs := []uint64{1, 3, 4, 10, 500}
	tfs := []uint32{1, 2, 1, 5, 3}
	payloads := []uint32{10, 20, 30, 40, 50}

	for i, d := range docs {
		for j := uint32(0); j < tfs[i]; j++ {
			enc.AddPosition()
		}
		enc.End(d, payloads[i])
	}

	require.Equal(t, len(docs), enc.Len())

	dec := NewDocListDecoder(enc.Bytes(), true)
	for i, want := range docs {
		entry, ok, err := dec.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, entry.DocID)
		require.Equal(t, tfs[i], entry.TF)
		require.Equal(t, payloads[i], entry.Payload)
	}
	_, ok, err := dec.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDocListEncoderDumpLengthMatchesDumpBytes(t *testing.T) {
	enc := NewDocListEncoder(nil, false)
	for docID := uint64(1); docID <= 300; docID++ {
		enc.End(docID, 0)
	}
	require.Equal(t, enc.DumpLength(), len(enc.DumpBytes()))
}

func TestDocListEncoderSkipTableRoundTripsThroughDump(t *testing.T) {
	enc := NewDocListEncoder(nil, false)
	for docID := uint64(1); docID <= 300; docID++ {
		enc.End(docID, 0)
	}

	dumped := enc.DumpBytes()
	dec, err := NewDumpedDocListDecoder(dumped, false)
	require.NoError(t, err)

	for docID := uint64(1); docID <= 300; docID++ {
		entry, ok, err := dec.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, docID, entry.DocID)
	}
	_, ok, err := dec.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDocListDecoderSkipToJumpsAheadAndResumesCorrectly(t *testing.T) {
	enc := NewDocListEncoder(nil, false)
	for docID := uint64(1); docID <= 300; docID++ {
		enc.End(docID, 0)
	}

	dec, err := NewDumpedDocListDecoder(enc.DumpBytes(), false)
	require.NoError(t, err)

	require.True(t, dec.SkipTo(200))
	entry, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.LessOrEqual(t, entry.DocID, uint64(200))

	// Linear scan from here must still reach every later doc id in order.
	last := entry.DocID
	for {
		entry, ok, err := dec.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.Greater(t, entry.DocID, last)
		last = entry.DocID
	}
	require.Equal(t, uint64(300), last)
}

func TestDocListDecoderSkipToBeforeFirstEntryIsNoOp(t *testing.T) {
	enc := NewDocListEncoder(nil, false)
	enc.End(50, 0)
	enc.End(60, 0)

	dec := NewLiveDocListDecoder(enc)
	require.False(t, dec.SkipTo(10))

	entry, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(50), entry.DocID)
}

func TestDocListEncoderRejectsNonMonotonic(t *testing.T) {
	enc := NewDocListEncoder(nil, false)
	enc.End(5, 0)
	require.Panics(t, func() { enc.End(5, 0) })
	require.Panics(t, func() { enc.End(3, 0) })
}

func TestPositionListEncoderRoundTrip(t *testing.T) {
	enc := NewPositionListEncoder(nil)
	docsPositions := [][]uint32{
		{0, 5, 9},
		{1},
		{2, 2 + 100, 2 + 100 + 7},
	}
	for _, positions := range docsPositions {
		for _, p := range positions {
			enc.AddPosition(p)
		}
		enc.End()
	}

	dec := NewPositionListDecoder(enc.Bytes())
	for _, want := range docsPositions {
		got, ok, err := dec.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok, err := dec.Next()
	require.NoError(t, err)
	require.False(t, ok)
}
