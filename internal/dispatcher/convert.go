// Package dispatcher maps RPC verbs onto catalog/engine operations
// (spec §6, §4.5). Grounded on the teacher's
// server/dispatcher/message_handler.go verb switch, adapted from a
// MySQL wire-protocol switch to this engine's typed verb set.
package dispatcher

import (
	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/expr"
	"github.com/infinidb-io/infinidb/internal/protocol"
)

// Every wire-to-internal enum conversion below follows the same
// shape: an unrecognized wire value returns its matching Invalid*
// status rather than panicking, so a malformed request degrades to an
// ordinary error response (spec §4.5, §6.1).

// ConvertCreateConflict maps a wire Conflict.create value to
// catalog.CreateConflict.
func ConvertCreateConflict(wire int32) (catalog.CreateConflict, catalog.Status) {
	cc := catalog.CreateConflict(wire)
	switch cc {
	case catalog.CreateIgnore, catalog.CreateError, catalog.CreateReplace:
		return cc, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidConflictType, "unknown create conflict policy %d", wire)
}

// ConvertDropConflict maps a wire Conflict.drop value to
// catalog.DropConflict.
func ConvertDropConflict(wire int32) (catalog.DropConflict, catalog.Status) {
	dc := catalog.DropConflict(wire)
	switch dc {
	case catalog.DropIgnore, catalog.DropError:
		return dc, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidConflictType, "unknown drop conflict policy %d", wire)
}

// ConvertLogicType maps a wire column-type value to catalog.LogicType.
func ConvertLogicType(wire int32) (catalog.LogicType, catalog.Status) {
	lt := catalog.LogicType(wire)
	switch lt {
	case catalog.LogicBoolean, catalog.LogicTinyInt, catalog.LogicSmallInt, catalog.LogicInteger,
		catalog.LogicBigInt, catalog.LogicHugeInt, catalog.LogicDecimal, catalog.LogicFloat,
		catalog.LogicDouble, catalog.LogicEmbedding, catalog.LogicVarchar:
		return lt, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidDataType, "unknown logic type %d", wire)
}

// ConvertElementType maps a wire embedding-element-type value to
// catalog.ElementType.
func ConvertElementType(wire int32) (catalog.ElementType, catalog.Status) {
	et := catalog.ElementType(wire)
	switch et {
	case catalog.ElemBit, catalog.ElemInt8, catalog.ElemInt16, catalog.ElemInt32, catalog.ElemInt64,
		catalog.ElemFloat32, catalog.ElemFloat64:
		return et, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidEmbeddingDataType, "unknown embedding element type %d", wire)
}

// ConvertIndexType maps a wire index-type value to catalog.IndexType.
func ConvertIndexType(wire int32) (catalog.IndexType, catalog.Status) {
	it := catalog.IndexType(wire)
	switch it {
	case catalog.IndexIVFFlat, catalog.IndexHNSW, catalog.IndexFullText, catalog.IndexSecondary:
		return it, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidIndexType, "unknown index type %d", wire)
}

// ConvertKnnDistance maps a wire distance-function value to
// catalog.KnnDistance.
func ConvertKnnDistance(wire int32) (catalog.KnnDistance, catalog.Status) {
	kd := catalog.KnnDistance(wire)
	switch kd {
	case catalog.DistanceL2, catalog.DistanceCosine, catalog.DistanceInnerProduct, catalog.DistanceHamming:
		return kd, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidKnnDistanceType, "unknown knn distance %d", wire)
}

// CopyFileType is the wire enum for bulk-import source formats
// (spec §6.1 upload_file_chunk).
type CopyFileType int32

const (
	CopyFileCSV CopyFileType = iota
	CopyFileJSON
	CopyFileParquet
)

// ConvertCopyFileType validates a wire import-format value.
func ConvertCopyFileType(wire int32) (CopyFileType, catalog.Status) {
	ft := CopyFileType(wire)
	switch ft {
	case CopyFileCSV, CopyFileJSON, CopyFileParquet:
		return ft, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.ImportFileFormatError, "unknown import file type %d", wire)
}

// ExplainType is the wire enum for query-plan introspection detail
// (spec §6.1 explain).
type ExplainType int32

const (
	ExplainLogical ExplainType = iota
	ExplainPhysical
	ExplainAnalyze
)

// ConvertExplainType validates a wire explain-type value.
func ConvertExplainType(wire int32) (ExplainType, catalog.Status) {
	et := ExplainType(wire)
	switch et {
	case ExplainLogical, ExplainPhysical, ExplainAnalyze:
		return et, catalog.OkStatus
	}
	return 0, catalog.NewStatus(catalog.InvalidParameterValue, "unknown explain type %d", wire)
}

// knnDistanceName names a validated KnnDistance the way ParsedExpr's
// Knn node carries it: as a string, not the wire enum.
func knnDistanceName(d catalog.KnnDistance) string {
	switch d {
	case catalog.DistanceL2:
		return "l2"
	case catalog.DistanceCosine:
		return "cosine"
	case catalog.DistanceInnerProduct:
		return "inner_product"
	case catalog.DistanceHamming:
		return "hamming"
	}
	return "unknown"
}

// ConvertParsedExpr converts one wire expression tree node into an
// expr.ParsedExpr, recursing into Function args. A child that fails
// to convert aborts the whole tree immediately rather than returning
// a partially built node (grounded on the original's
// GetParsedExprFromProto early-return-on-failure shape in
// thrift_server.cpp's Select/Explain handlers).
func ConvertParsedExpr(wire protocol.WireExpr) (*expr.ParsedExpr, catalog.Status) {
	switch wire.Kind {
	case protocol.ExprColumn:
		return expr.Column(wire.ColumnName), catalog.OkStatus

	case protocol.ExprConstant:
		switch wire.ConstKind {
		case protocol.ConstBoolean:
			return &expr.ParsedExpr{Kind: expr.KindConstant, ConstKind: expr.ConstBoolean, BoolValue: wire.BoolValue}, catalog.OkStatus
		case protocol.ConstInteger:
			return expr.ConstantInt(wire.IntValue), catalog.OkStatus
		case protocol.ConstDouble:
			return expr.ConstantDouble(wire.DoubleValue), catalog.OkStatus
		case protocol.ConstString:
			return &expr.ParsedExpr{Kind: expr.KindConstant, ConstKind: expr.ConstString, StrValue: wire.StrValue}, catalog.OkStatus
		case protocol.ConstEmbedding:
			return &expr.ParsedExpr{Kind: expr.KindConstant, ConstKind: expr.ConstEmbedding, EmbValue: wire.EmbValue}, catalog.OkStatus
		}
		return nil, catalog.NewStatus(catalog.InvalidConstantType, "unknown constant kind %d", wire.ConstKind)

	case protocol.ExprFunction:
		args := make([]*expr.ParsedExpr, 0, len(wire.Args))
		for _, child := range wire.Args {
			arg, st := ConvertParsedExpr(child)
			if st.Code != catalog.Ok {
				return nil, st
			}
			args = append(args, arg)
		}
		return &expr.ParsedExpr{Kind: expr.KindFunction, FuncName: wire.FuncName, Args: args}, catalog.OkStatus

	case protocol.ExprKnn:
		distance, st := ConvertKnnDistance(wire.KnnDistance)
		if st.Code != catalog.Ok {
			return nil, st
		}
		return expr.Knn(wire.KnnColumn, wire.KnnQuery, knnDistanceName(distance), wire.KnnTopN), catalog.OkStatus

	case protocol.ExprMatch:
		return expr.Match(wire.MatchColumns, wire.MatchQuery, wire.MatchOptions), catalog.OkStatus

	case protocol.ExprFusion:
		return expr.Fusion(wire.FusionMethod, wire.FusionArgs), catalog.OkStatus
	}
	return nil, catalog.NewStatus(catalog.InvalidParameterValue, "unknown expr kind %d", wire.Kind)
}

// ConvertSearchExpr converts a wire search_expr clause into an
// expr.SearchExpr, flattening knn_exprs then match_exprs then the
// optional fusion node into one list — the same accumulation order
// SearchExpr::SetExprs uses in the original's Select/Explain handlers.
func ConvertSearchExpr(wire protocol.WireSearchExpr) (*expr.SearchExpr, catalog.Status) {
	total := len(wire.KnnExprs) + len(wire.MatchExprs)
	if wire.FusionExpr != nil {
		total++
	}
	exprs := make([]*expr.ParsedExpr, 0, total)

	for _, k := range wire.KnnExprs {
		converted, st := ConvertParsedExpr(k)
		if st.Code != catalog.Ok {
			return nil, st
		}
		exprs = append(exprs, converted)
	}
	for _, m := range wire.MatchExprs {
		converted, st := ConvertParsedExpr(m)
		if st.Code != catalog.Ok {
			return nil, st
		}
		exprs = append(exprs, converted)
	}
	if wire.FusionExpr != nil {
		converted, st := ConvertParsedExpr(*wire.FusionExpr)
		if st.Code != catalog.Ok {
			return nil, st
		}
		exprs = append(exprs, converted)
	}

	se := &expr.SearchExpr{}
	se.SetExprs(exprs)
	return se, catalog.OkStatus
}
