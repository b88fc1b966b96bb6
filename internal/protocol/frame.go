// Package protocol implements the wire framing and result encoding
// the RPC boundary speaks (spec §6.1). Grounded on the teacher's
// server/protocol/encoder.go packet-header convention, generalized
// from MySQL's 3-byte-length+sequence header to this engine's verbs.
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/infinidb-io/infinidb/internal/catalog"
)

// Verb identifies which RPC operation a frame carries (spec §6.1).
type Verb uint8

const (
	VerbConnect Verb = iota
	VerbDisconnect
	VerbCreateDatabase
	VerbDropDatabase
	VerbListDatabases
	VerbCreateTable
	VerbDropTable
	VerbListTables
	VerbCreateIndex
	VerbDropIndex
	VerbListIndexes
	VerbInsert
	VerbSelect
	VerbDelete
	VerbUpdate
	VerbExplain
	VerbUploadFileChunk
	VerbPing
)

// header is the fixed 5-byte frame prefix: 4-byte little-endian
// payload length, 1-byte verb (spec §6.1; teacher's addPacketHeader
// generalized from a 3-byte length to 4, since payloads here can
// exceed 16MiB of embedding data).
const headerSize = 5

// EncodeFrame wraps payload with the length+verb header.
func EncodeFrame(verb Verb, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(payload)))
	out[4] = byte(verb)
	copy(out[headerSize:], payload)
	return out
}

// DecodeFrame splits a full frame into its verb and payload.
func DecodeFrame(buf []byte) (Verb, []byte, error) {
	if len(buf) < headerSize {
		return 0, nil, fmt.Errorf("frame too short: %d bytes", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf[0:4])
	if int(n) != len(buf)-headerSize {
		return 0, nil, fmt.Errorf("frame length mismatch: header says %d, got %d", n, len(buf)-headerSize)
	}
	return Verb(buf[4]), buf[headerSize:], nil
}

// EncodeStatus is the single generic Status-to-wire encoding used by
// every response, replacing what would otherwise be a near-duplicate
// per-verb encoder (spec §9 "model once as a generic operation").
// Layout: 4-byte code, 4-byte message length, message bytes.
func EncodeStatus(st catalog.Status) []byte {
	msg := []byte(st.Message)
	out := make([]byte, 8+len(msg))
	binary.LittleEndian.PutUint32(out[0:4], uint32(st.Code))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(msg)))
	copy(out[8:], msg)
	return out
}

// DecodeStatus is EncodeStatus's inverse.
func DecodeStatus(buf []byte) (catalog.Status, error) {
	if len(buf) < 8 {
		return catalog.Status{}, fmt.Errorf("status frame too short")
	}
	code := catalog.Code(binary.LittleEndian.Uint32(buf[0:4]))
	n := binary.LittleEndian.Uint32(buf[4:8])
	if int(n) > len(buf)-8 {
		return catalog.Status{}, fmt.Errorf("status message length mismatch")
	}
	return catalog.Status{Code: code, Message: string(buf[8 : 8+n])}, nil
}
