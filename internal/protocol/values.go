package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// valueTag discriminates EncodeValue's self-delimiting wire rows, used
// wherever insert/select/delete/update carry loosely typed field
// values rather than a single fixed-width column buffer (spec §6.1).
type valueTag byte

const (
	valueNull valueTag = iota
	valueInt64
	valueFloat64
	valueString
	valueEmbedding
)

// EncodeValue serializes one field value, tagged so DecodeValue can
// recover its Go type without external column metadata.
func EncodeValue(v interface{}) []byte {
	switch t := v.(type) {
	case nil:
		return []byte{byte(valueNull)}
	case int64:
		out := make([]byte, 9)
		out[0] = byte(valueInt64)
		binary.LittleEndian.PutUint64(out[1:], uint64(t))
		return out
	case int:
		return EncodeValue(int64(t))
	case float64:
		out := make([]byte, 9)
		out[0] = byte(valueFloat64)
		binary.LittleEndian.PutUint64(out[1:], math.Float64bits(t))
		return out
	case string:
		out := make([]byte, 5+len(t))
		out[0] = byte(valueString)
		binary.LittleEndian.PutUint32(out[1:5], uint32(len(t)))
		copy(out[5:], t)
		return out
	case []float32:
		out := make([]byte, 5+4*len(t))
		out[0] = byte(valueEmbedding)
		binary.LittleEndian.PutUint32(out[1:5], uint32(len(t)))
		for i, f := range t {
			binary.LittleEndian.PutUint32(out[5+i*4:9+i*4], math.Float32bits(f))
		}
		return out
	default:
		return []byte{byte(valueNull)}
	}
}

// DecodeValue is EncodeValue's inverse; it returns the decoded value
// and the number of bytes consumed from buf's head.
func DecodeValue(buf []byte) (interface{}, int, error) {
	if len(buf) < 1 {
		return nil, 0, fmt.Errorf("empty value buffer")
	}
	switch valueTag(buf[0]) {
	case valueNull:
		return nil, 1, nil
	case valueInt64:
		if len(buf) < 9 {
			return nil, 0, fmt.Errorf("truncated int64 value")
		}
		return int64(binary.LittleEndian.Uint64(buf[1:9])), 9, nil
	case valueFloat64:
		if len(buf) < 9 {
			return nil, 0, fmt.Errorf("truncated float64 value")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[1:9])), 9, nil
	case valueString:
		if len(buf) < 5 {
			return nil, 0, fmt.Errorf("truncated string value header")
		}
		n := binary.LittleEndian.Uint32(buf[1:5])
		if uint32(len(buf)-5) < n {
			return nil, 0, fmt.Errorf("truncated string value body")
		}
		return string(buf[5 : 5+n]), int(5 + n), nil
	case valueEmbedding:
		if len(buf) < 5 {
			return nil, 0, fmt.Errorf("truncated embedding value header")
		}
		n := binary.LittleEndian.Uint32(buf[1:5])
		need := int(n) * 4
		if len(buf)-5 < need {
			return nil, 0, fmt.Errorf("truncated embedding value body")
		}
		vec := make([]float32, n)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[5+i*4 : 9+i*4]))
		}
		return vec, 5 + need, nil
	default:
		return nil, 0, fmt.Errorf("unknown value tag %d", buf[0])
	}
}
