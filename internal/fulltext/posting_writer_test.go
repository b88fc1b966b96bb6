package fulltext

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLengths struct {
	m map[uint64]uint32
}

func (f *fakeLengths) Length(docID uint64) (uint32, bool) {
	v, ok := f.m[docID]
	return v, ok
}

func TestPostingWriterDumpLoadRoundTrip(t *testing.T) {
	lengths := &fakeLengths{m: map[uint64]uint32{1: 3, 2: 4, 5: 2}}
	pool := NewBytePool()

	for _, spill := range []bool{false, true} {
		w := NewPostingWriter("hello", pool, lengths, true)

		w.AddPosition(0)
		w.AddPosition(4)
		require.NoError(t, w.EndDocument(1))

		w.AddPosition(1)
		require.NoError(t, w.EndDocument(2))

		w.AddPosition(0)
		w.AddPosition(1)
		w.AddPosition(9)
		require.NoError(t, w.EndDocument(5))

		w.EndSegment()
		require.Equal(t, uint32(3), w.DF())
		require.Equal(t, uint64(6), w.TotalTF())

		var buf bytes.Buffer
		var meta TermMeta
		_, err := w.Dump(&buf, &meta, spill)
		require.NoError(t, err)

		docDec, posDec, err := Load(&buf, true, false)
		require.NoError(t, err)

		wantDocs := []uint64{1, 2, 5}
		wantTFs := []uint32{2, 1, 3}
		for i := range wantDocs {
			entry, ok, err := docDec.Next()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, wantDocs[i], entry.DocID)
			require.Equal(t, wantTFs[i], entry.TF)
		}

		wantPositions := [][]uint32{{0, 4}, {1}, {0, 1, 9}}
		for _, want := range wantPositions {
			got, ok, err := posDec.Next()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, want, got)
		}

		w.Release()
	}
}

func TestPostingWriterEndDocumentMissingLength(t *testing.T) {
	lengths := &fakeLengths{m: map[uint64]uint32{}}
	w := NewPostingWriter("term", nil, lengths, false)
	require.Error(t, w.EndDocument(1))
}
