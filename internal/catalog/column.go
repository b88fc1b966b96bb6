package catalog

// LogicType mirrors the wire LogicType enum (spec §6.1).
type LogicType int

const (
	LogicBoolean LogicType = iota
	LogicTinyInt
	LogicSmallInt
	LogicInteger
	LogicBigInt
	LogicHugeInt
	LogicDecimal
	LogicFloat
	LogicDouble
	LogicEmbedding
	LogicVarchar
)

// ElementType mirrors the wire ElementType enum, used for embedding
// columns and vector-index file workers (spec §6.1).
type ElementType int

const (
	ElemBit ElementType = iota
	ElemInt8
	ElemInt16
	ElemInt32
	ElemInt64
	ElemFloat32
	ElemFloat64
)

// String names the element type the way vector-index file workers key
// their supported-type checks (e.g. IVFFlatWorker, spec §4.2).
func (e ElementType) String() string {
	switch e {
	case ElemBit:
		return "bit"
	case ElemInt8:
		return "int8"
	case ElemInt16:
		return "int16"
	case ElemInt32:
		return "int32"
	case ElemInt64:
		return "int64"
	case ElemFloat32:
		return "float32"
	case ElemFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// Size returns the element's storage width in bytes, used to size the
// contiguous embedding-column wire buffer (spec §4.5 "Embedding columns").
func (e ElementType) Size() int {
	switch e {
	case ElemInt8, ElemBit:
		return 1
	case ElemInt16:
		return 2
	case ElemInt32, ElemFloat32:
		return 4
	case ElemInt64, ElemFloat64:
		return 8
	default:
		return 0
	}
}

// ColumnDef is a single table column definition. EmbeddingDim/ElemType
// are only meaningful when LogicType == LogicEmbedding.
type ColumnDef struct {
	Name         string
	LogicType    LogicType
	EmbeddingDim int
	ElemType     ElementType
	Nullable     bool
}

// Size returns the fixed per-row wire width of a column: the POD width
// for scalar types, element size times dimension for embeddings, and 0
// for varchar (spec §4.5 "POD columns": column_data_type.size() * row_count).
func (c *ColumnDef) Size() int {
	switch c.LogicType {
	case LogicBoolean, LogicTinyInt:
		return 1
	case LogicSmallInt:
		return 2
	case LogicInteger, LogicFloat:
		return 4
	case LogicBigInt, LogicDouble, LogicHugeInt, LogicDecimal:
		return 8
	case LogicEmbedding:
		return c.ElemType.Size() * c.EmbeddingDim
	default:
		return 0 // Varchar is not fixed-width
	}
}
