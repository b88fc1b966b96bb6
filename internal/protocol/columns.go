package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodePODColumn packs a fixed-width POD column as one contiguous
// buffer, width bytes per row, no per-row framing (spec §4.5/§6.1).
func EncodePODColumn(rows [][]byte, width int) ([]byte, error) {
	out := make([]byte, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d: expected %d bytes, got %d", i, width, len(r))
		}
		out = append(out, r...)
	}
	return out, nil
}

// EncodeVarcharColumn packs a varchar column as a sequence of
// 4-byte length-prefixed rows (spec §4.5/§6.1).
func EncodeVarcharColumn(rows []string) []byte {
	size := 0
	for _, r := range rows {
		size += 4 + len(r)
	}
	out := make([]byte, 0, size)
	var lenBuf [4]byte
	for _, r := range rows {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(r)))
		out = append(out, lenBuf[:]...)
		out = append(out, r...)
	}
	return out
}

// DecodeVarcharColumn is EncodeVarcharColumn's inverse.
func DecodeVarcharColumn(buf []byte) ([]string, error) {
	var rows []string
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, fmt.Errorf("truncated varchar length prefix")
		}
		n := binary.LittleEndian.Uint32(buf[0:4])
		buf = buf[4:]
		if uint32(len(buf)) < n {
			return nil, fmt.Errorf("truncated varchar payload")
		}
		rows = append(rows, string(buf[:n]))
		buf = buf[n:]
	}
	return rows, nil
}

// EncodeEmbeddingColumn packs dim-width float32 embedding rows as one
// contiguous buffer, matching the POD-buffer convention but keyed by
// vector dimension rather than a byte width (spec §4.5/§6.1).
func EncodeEmbeddingColumn(rows [][]float32, dim int) ([]byte, error) {
	out := make([]byte, 0, len(rows)*dim*4)
	var f [4]byte
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("row %d: expected dim %d, got %d", i, dim, len(r))
		}
		for _, v := range r {
			binary.LittleEndian.PutUint32(f[:], math.Float32bits(v))
			out = append(out, f[:]...)
		}
	}
	return out, nil
}

// DecodeEmbeddingColumn is EncodeEmbeddingColumn's inverse.
func DecodeEmbeddingColumn(buf []byte, dim int) ([][]float32, error) {
	rowBytes := dim * 4
	if len(buf)%rowBytes != 0 {
		return nil, fmt.Errorf("embedding buffer length %d not a multiple of row size %d", len(buf), rowBytes)
	}
	rows := make([][]float32, 0, len(buf)/rowBytes)
	for off := 0; off < len(buf); off += rowBytes {
		row := make([]float32, dim)
		for i := 0; i < dim; i++ {
			bits := binary.LittleEndian.Uint32(buf[off+i*4 : off+i*4+4])
			row[i] = math.Float32frombits(bits)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
