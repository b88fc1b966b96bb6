package protocol

import (
	"encoding/binary"
	"fmt"
)

// cursor is a small forward-only byte reader used to decode the
// fixed-field request payloads below; each Decode* function is this
// type's only caller (spec §6.1, grounded on the teacher's packet
// reader that walks a request buffer field by field).
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) string() (string, error) {
	if len(c.buf)-c.off < 4 {
		return "", fmt.Errorf("truncated string length")
	}
	n := binary.LittleEndian.Uint32(c.buf[c.off : c.off+4])
	c.off += 4
	if uint32(len(c.buf)-c.off) < n {
		return "", fmt.Errorf("truncated string body")
	}
	s := string(c.buf[c.off : c.off+int(n)])
	c.off += int(n)
	return s, nil
}

func (c *cursor) u32() (uint32, error) {
	if len(c.buf)-c.off < 4 {
		return 0, fmt.Errorf("truncated uint32")
	}
	v := binary.LittleEndian.Uint32(c.buf[c.off : c.off+4])
	c.off += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) u64() (uint64, error) {
	if len(c.buf)-c.off < 8 {
		return 0, fmt.Errorf("truncated uint64")
	}
	v := binary.LittleEndian.Uint64(c.buf[c.off : c.off+8])
	c.off += 8
	return v, nil
}

func (c *cursor) i64() (int64, error) {
	v, err := c.u64()
	return int64(v), err
}

func (c *cursor) byteVal() (byte, error) {
	if len(c.buf)-c.off < 1 {
		return 0, fmt.Errorf("truncated byte")
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if len(c.buf)-c.off < n {
		return nil, fmt.Errorf("truncated %d-byte field", n)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// value decodes one EncodeValue-tagged field, advancing past it.
func (c *cursor) value() (interface{}, error) {
	v, n, err := DecodeValue(c.buf[c.off:])
	if err != nil {
		return nil, err
	}
	c.off += n
	return v, nil
}

func putString(out []byte, s string) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	out = append(out, lenBuf[:]...)
	return append(out, s...)
}

func putU32(out []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(out, b[:]...)
}

func putU64(out []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(out, b[:]...)
}

// ConnectRequest is VerbConnect's payload: the user and database names
// encoded as two length-prefixed strings.
type ConnectRequest struct {
	User     string
	Database string
}

func EncodeConnectRequest(r ConnectRequest) []byte {
	out := putString(nil, r.User)
	return putString(out, r.Database)
}

func DecodeConnectRequest(buf []byte) (ConnectRequest, error) {
	c := &cursor{buf: buf}
	user, err := c.string()
	if err != nil {
		return ConnectRequest{}, err
	}
	db, err := c.string()
	if err != nil {
		return ConnectRequest{}, err
	}
	return ConnectRequest{User: user, Database: db}, nil
}

// ConflictRequest is the common name+conflict+txn_id shape shared by
// CreateDatabase and DropDatabase.
type ConflictRequest struct {
	Name     string
	Conflict int32
	TxnID    uint64
}

func EncodeConflictRequest(r ConflictRequest) []byte {
	out := putString(nil, r.Name)
	out = putU32(out, uint32(r.Conflict))
	return putU64(out, r.TxnID)
}

func DecodeConflictRequest(buf []byte) (ConflictRequest, error) {
	c := &cursor{buf: buf}
	name, err := c.string()
	if err != nil {
		return ConflictRequest{}, err
	}
	conflict, err := c.i32()
	if err != nil {
		return ConflictRequest{}, err
	}
	txnID, err := c.u64()
	if err != nil {
		return ConflictRequest{}, err
	}
	return ConflictRequest{Name: name, Conflict: conflict, TxnID: txnID}, nil
}

// ColumnSpec is one CreateTable column definition on the wire.
type ColumnSpec struct {
	Name         string
	LogicType    int32
	ElemType     int32
	EmbeddingDim int32
	Nullable     bool
}

// CreateTableRequest is VerbCreateTable's payload.
type CreateTableRequest struct {
	Database string
	Table    string
	Columns  []ColumnSpec
	Conflict int32
	TxnID    uint64
}

func EncodeCreateTableRequest(r CreateTableRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putU32(out, uint32(len(r.Columns)))
	for _, col := range r.Columns {
		out = putString(out, col.Name)
		out = putU32(out, uint32(col.LogicType))
		out = putU32(out, uint32(col.ElemType))
		out = putU32(out, uint32(col.EmbeddingDim))
		if col.Nullable {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	out = putU32(out, uint32(r.Conflict))
	return putU64(out, r.TxnID)
}

func DecodeCreateTableRequest(buf []byte) (CreateTableRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return CreateTableRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return CreateTableRequest{}, err
	}
	count, err := c.u32()
	if err != nil {
		return CreateTableRequest{}, err
	}
	cols := make([]ColumnSpec, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := c.string()
		if err != nil {
			return CreateTableRequest{}, err
		}
		logicType, err := c.i32()
		if err != nil {
			return CreateTableRequest{}, err
		}
		elemType, err := c.i32()
		if err != nil {
			return CreateTableRequest{}, err
		}
		dim, err := c.i32()
		if err != nil {
			return CreateTableRequest{}, err
		}
		nullableByte, err := c.byteVal()
		if err != nil {
			return CreateTableRequest{}, err
		}
		cols = append(cols, ColumnSpec{Name: name, LogicType: logicType, ElemType: elemType, EmbeddingDim: dim, Nullable: nullableByte == 1})
	}
	conflict, err := c.i32()
	if err != nil {
		return CreateTableRequest{}, err
	}
	txnID, err := c.u64()
	if err != nil {
		return CreateTableRequest{}, err
	}
	return CreateTableRequest{Database: database, Table: table, Columns: cols, Conflict: conflict, TxnID: txnID}, nil
}

// TableConflictRequest is the common database+table+conflict+txn_id
// shape shared by DropTable.
type TableConflictRequest struct {
	Database string
	Table    string
	Conflict int32
	TxnID    uint64
}

func EncodeTableConflictRequest(r TableConflictRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putU32(out, uint32(r.Conflict))
	return putU64(out, r.TxnID)
}

func DecodeTableConflictRequest(buf []byte) (TableConflictRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return TableConflictRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return TableConflictRequest{}, err
	}
	conflict, err := c.i32()
	if err != nil {
		return TableConflictRequest{}, err
	}
	txnID, err := c.u64()
	if err != nil {
		return TableConflictRequest{}, err
	}
	return TableConflictRequest{Database: database, Table: table, Conflict: conflict, TxnID: txnID}, nil
}

// DatabaseRequest is the plain "database name" payload ListTables uses.
type DatabaseRequest struct {
	Database string
}

func EncodeDatabaseRequest(r DatabaseRequest) []byte {
	return putString(nil, r.Database)
}

func DecodeDatabaseRequest(buf []byte) (DatabaseRequest, error) {
	c := &cursor{buf: buf}
	db, err := c.string()
	if err != nil {
		return DatabaseRequest{}, err
	}
	return DatabaseRequest{Database: db}, nil
}

// DatabaseTableRequest is the plain "database, table" payload
// ListIndexes uses.
type DatabaseTableRequest struct {
	Database string
	Table    string
}

func EncodeDatabaseTableRequest(r DatabaseTableRequest) []byte {
	out := putString(nil, r.Database)
	return putString(out, r.Table)
}

func DecodeDatabaseTableRequest(buf []byte) (DatabaseTableRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return DatabaseTableRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return DatabaseTableRequest{}, err
	}
	return DatabaseTableRequest{Database: database, Table: table}, nil
}

// CreateIndexRequest is VerbCreateIndex's payload.
type CreateIndexRequest struct {
	Database     string
	Table        string
	IndexName    string
	IndexType    int32
	Column       string
	PartCapacity int32
	Parameters   map[string]string
	Conflict     int32
	TxnID        uint64
}

func EncodeCreateIndexRequest(r CreateIndexRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putString(out, r.IndexName)
	out = putU32(out, uint32(r.IndexType))
	out = putString(out, r.Column)
	out = putU32(out, uint32(r.PartCapacity))
	out = putU32(out, uint32(len(r.Parameters)))
	for k, v := range r.Parameters {
		out = putString(out, k)
		out = putString(out, v)
	}
	out = putU32(out, uint32(r.Conflict))
	return putU64(out, r.TxnID)
}

func DecodeCreateIndexRequest(buf []byte) (CreateIndexRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	indexName, err := c.string()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	indexType, err := c.i32()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	column, err := c.string()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	partCapacity, err := c.i32()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	paramCount, err := c.u32()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	params := make(map[string]string, paramCount)
	for i := uint32(0); i < paramCount; i++ {
		k, err := c.string()
		if err != nil {
			return CreateIndexRequest{}, err
		}
		v, err := c.string()
		if err != nil {
			return CreateIndexRequest{}, err
		}
		params[k] = v
	}
	conflict, err := c.i32()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	txnID, err := c.u64()
	if err != nil {
		return CreateIndexRequest{}, err
	}
	return CreateIndexRequest{
		Database: database, Table: table, IndexName: indexName, IndexType: indexType,
		Column: column, PartCapacity: partCapacity, Parameters: params, Conflict: conflict, TxnID: txnID,
	}, nil
}

// IndexConflictRequest is VerbDropIndex's payload.
type IndexConflictRequest struct {
	Database  string
	Table     string
	IndexName string
	Conflict  int32
	TxnID     uint64
}

func EncodeIndexConflictRequest(r IndexConflictRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putString(out, r.IndexName)
	out = putU32(out, uint32(r.Conflict))
	return putU64(out, r.TxnID)
}

func DecodeIndexConflictRequest(buf []byte) (IndexConflictRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return IndexConflictRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return IndexConflictRequest{}, err
	}
	indexName, err := c.string()
	if err != nil {
		return IndexConflictRequest{}, err
	}
	conflict, err := c.i32()
	if err != nil {
		return IndexConflictRequest{}, err
	}
	txnID, err := c.u64()
	if err != nil {
		return IndexConflictRequest{}, err
	}
	return IndexConflictRequest{Database: database, Table: table, IndexName: indexName, Conflict: conflict, TxnID: txnID}, nil
}

// InsertRequest is VerbInsert's payload: a database/table target plus
// a self-delimiting, tagged field map (spec §4.5 "insert").
type InsertRequest struct {
	Database string
	Table    string
	Fields   map[string]interface{}
}

func EncodeInsertRequest(r InsertRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putU32(out, uint32(len(r.Fields)))
	for k, v := range r.Fields {
		out = putString(out, k)
		out = append(out, EncodeValue(v)...)
	}
	return out
}

func DecodeInsertRequest(buf []byte) (InsertRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return InsertRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return InsertRequest{}, err
	}
	count, err := c.u32()
	if err != nil {
		return InsertRequest{}, err
	}
	fields := make(map[string]interface{}, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.string()
		if err != nil {
			return InsertRequest{}, err
		}
		v, err := c.value()
		if err != nil {
			return InsertRequest{}, err
		}
		fields[k] = v
	}
	return InsertRequest{Database: database, Table: table, Fields: fields}, nil
}

// SelectRequest is VerbSelect's payload: target plus the requested
// column name list.
type SelectRequest struct {
	Database string
	Table    string
	Columns  []string
}

func EncodeSelectRequest(r SelectRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putU32(out, uint32(len(r.Columns)))
	for _, col := range r.Columns {
		out = putString(out, col)
	}
	return out
}

func DecodeSelectRequest(buf []byte) (SelectRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return SelectRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return SelectRequest{}, err
	}
	count, err := c.u32()
	if err != nil {
		return SelectRequest{}, err
	}
	cols := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		col, err := c.string()
		if err != nil {
			return SelectRequest{}, err
		}
		cols = append(cols, col)
	}
	return SelectRequest{Database: database, Table: table, Columns: cols}, nil
}

// DeleteRequest is VerbDelete's payload: target plus an equality
// predicate on one column (spec §4.5 "delete").
type DeleteRequest struct {
	Database string
	Table    string
	Column   string
	Value    interface{}
}

func EncodeDeleteRequest(r DeleteRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putString(out, r.Column)
	return append(out, EncodeValue(r.Value)...)
}

func DecodeDeleteRequest(buf []byte) (DeleteRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return DeleteRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return DeleteRequest{}, err
	}
	column, err := c.string()
	if err != nil {
		return DeleteRequest{}, err
	}
	value, err := c.value()
	if err != nil {
		return DeleteRequest{}, err
	}
	return DeleteRequest{Database: database, Table: table, Column: column, Value: value}, nil
}

// UpdateRequest is VerbUpdate's payload: target, an equality predicate
// on one column, and the field map to apply to matching rows
// (spec §4.5 "update").
type UpdateRequest struct {
	Database string
	Table    string
	Column   string
	Value    interface{}
	Updates  map[string]interface{}
}

func EncodeUpdateRequest(r UpdateRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putString(out, r.Column)
	out = append(out, EncodeValue(r.Value)...)
	out = putU32(out, uint32(len(r.Updates)))
	for k, v := range r.Updates {
		out = putString(out, k)
		out = append(out, EncodeValue(v)...)
	}
	return out
}

func DecodeUpdateRequest(buf []byte) (UpdateRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return UpdateRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return UpdateRequest{}, err
	}
	column, err := c.string()
	if err != nil {
		return UpdateRequest{}, err
	}
	value, err := c.value()
	if err != nil {
		return UpdateRequest{}, err
	}
	count, err := c.u32()
	if err != nil {
		return UpdateRequest{}, err
	}
	updates := make(map[string]interface{}, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.string()
		if err != nil {
			return UpdateRequest{}, err
		}
		v, err := c.value()
		if err != nil {
			return UpdateRequest{}, err
		}
		updates[k] = v
	}
	return UpdateRequest{Database: database, Table: table, Column: column, Value: value, Updates: updates}, nil
}

// ExplainRequest is VerbExplain's payload.
type ExplainRequest struct {
	Database    string
	Table       string
	ExplainType int32
}

func EncodeExplainRequest(r ExplainRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	return putU32(out, uint32(r.ExplainType))
}

func DecodeExplainRequest(buf []byte) (ExplainRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return ExplainRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return ExplainRequest{}, err
	}
	explainType, err := c.i32()
	if err != nil {
		return ExplainRequest{}, err
	}
	return ExplainRequest{Database: database, Table: table, ExplainType: explainType}, nil
}

// UploadFileChunkRequest is VerbUploadFileChunk's payload: the staging
// target, the chunk's sequence index (for the resume/dedup path), and
// the raw chunk bytes (spec §6.1 upload_file_chunk).
type UploadFileChunkRequest struct {
	Database   string
	Table      string
	Name       string
	ChunkIndex int64
	Chunk      []byte
}

func EncodeUploadFileChunkRequest(r UploadFileChunkRequest) []byte {
	out := putString(nil, r.Database)
	out = putString(out, r.Table)
	out = putString(out, r.Name)
	out = putU64(out, uint64(r.ChunkIndex))
	out = putU32(out, uint32(len(r.Chunk)))
	return append(out, r.Chunk...)
}

func DecodeUploadFileChunkRequest(buf []byte) (UploadFileChunkRequest, error) {
	c := &cursor{buf: buf}
	database, err := c.string()
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	table, err := c.string()
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	name, err := c.string()
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	chunkIndex, err := c.i64()
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	n, err := c.u32()
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	chunk, err := c.bytes(int(n))
	if err != nil {
		return UploadFileChunkRequest{}, err
	}
	return UploadFileChunkRequest{Database: database, Table: table, Name: name, ChunkIndex: chunkIndex, Chunk: append([]byte(nil), chunk...)}, nil
}
