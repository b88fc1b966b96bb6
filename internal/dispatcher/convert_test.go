package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/expr"
	"github.com/infinidb-io/infinidb/internal/protocol"
)

func TestConvertCreateConflictRejectsUnknown(t *testing.T) {
	_, st := ConvertCreateConflict(99)
	require.Equal(t, catalog.InvalidConflictType, st.Code)
}

func TestConvertCreateConflictAccepted(t *testing.T) {
	cc, st := ConvertCreateConflict(int32(catalog.CreateReplace))
	require.Equal(t, catalog.Ok, st.Code)
	require.Equal(t, catalog.CreateReplace, cc)
}

func TestConvertLogicTypeRejectsUnknown(t *testing.T) {
	_, st := ConvertLogicType(999)
	require.Equal(t, catalog.InvalidDataType, st.Code)
}

func TestConvertIndexTypeAccepted(t *testing.T) {
	it, st := ConvertIndexType(int32(catalog.IndexHNSW))
	require.Equal(t, catalog.Ok, st.Code)
	require.Equal(t, catalog.IndexHNSW, it)
}

func TestConvertKnnDistanceRejectsUnknown(t *testing.T) {
	_, st := ConvertKnnDistance(-1)
	require.Equal(t, catalog.InvalidKnnDistanceType, st.Code)
}

func TestConvertCopyFileTypeRejectsUnknown(t *testing.T) {
	_, st := ConvertCopyFileType(42)
	require.Equal(t, catalog.ImportFileFormatError, st.Code)
}

func TestConvertParsedExprColumn(t *testing.T) {
	got, st := ConvertParsedExpr(protocol.WireExpr{Kind: protocol.ExprColumn, ColumnName: "name"})
	require.Equal(t, catalog.Ok, st.Code)
	require.Equal(t, expr.Column("name"), got)
}

func TestConvertParsedExprFunctionRecursesIntoArgs(t *testing.T) {
	wire := protocol.WireExpr{
		Kind:     protocol.ExprFunction,
		FuncName: "add",
		Args: []protocol.WireExpr{
			{Kind: protocol.ExprConstant, ConstKind: protocol.ConstInteger, IntValue: 1},
			{Kind: protocol.ExprColumn, ColumnName: "x"},
		},
	}
	got, st := ConvertParsedExpr(wire)
	require.Equal(t, catalog.Ok, st.Code)
	require.Equal(t, expr.KindFunction, got.Kind)
	require.Len(t, got.Args, 2)
	require.Equal(t, expr.ConstantInt(1), got.Args[0])
	require.Equal(t, expr.Column("x"), got.Args[1])
}

func TestConvertParsedExprFunctionAbortsOnBadChild(t *testing.T) {
	wire := protocol.WireExpr{
		Kind:     protocol.ExprFunction,
		FuncName: "add",
		Args: []protocol.WireExpr{
			{Kind: protocol.ExprKnn, KnnDistance: -1},
		},
	}
	_, st := ConvertParsedExpr(wire)
	require.Equal(t, catalog.InvalidKnnDistanceType, st.Code)
}

func TestConvertParsedExprKnn(t *testing.T) {
	wire := protocol.WireExpr{
		Kind:        protocol.ExprKnn,
		KnnColumn:   "vec",
		KnnQuery:    []float32{1, 2, 3},
		KnnDistance: int32(catalog.DistanceCosine),
		KnnTopN:     10,
	}
	got, st := ConvertParsedExpr(wire)
	require.Equal(t, catalog.Ok, st.Code)
	require.Equal(t, expr.KindKnn, got.Kind)
	require.Equal(t, "cosine", got.KnnDistance)
	require.Equal(t, int64(10), got.KnnTopN)
}

func TestConvertParsedExprKnnRejectsUnknownDistance(t *testing.T) {
	_, st := ConvertParsedExpr(protocol.WireExpr{Kind: protocol.ExprKnn, KnnDistance: -1})
	require.Equal(t, catalog.InvalidKnnDistanceType, st.Code)
}

func TestConvertSearchExprFlattensKnnMatchFusion(t *testing.T) {
	wire := protocol.WireSearchExpr{
		KnnExprs:   []protocol.WireExpr{{Kind: protocol.ExprKnn, KnnColumn: "vec", KnnDistance: int32(catalog.DistanceL2)}},
		MatchExprs: []protocol.WireExpr{{Kind: protocol.ExprMatch, MatchColumns: []string{"body"}, MatchQuery: "hello"}},
		FusionExpr: &protocol.WireExpr{Kind: protocol.ExprFusion, FusionMethod: "rrf"},
	}
	got, st := ConvertSearchExpr(wire)
	require.Equal(t, catalog.Ok, st.Code)
	require.Len(t, got.Exprs, 3)
	require.Equal(t, expr.KindKnn, got.Exprs[0].Kind)
	require.Equal(t, expr.KindMatch, got.Exprs[1].Kind)
	require.Equal(t, expr.KindFusion, got.Exprs[2].Kind)
}

func TestConvertSearchExprPropagatesChildError(t *testing.T) {
	wire := protocol.WireSearchExpr{
		KnnExprs: []protocol.WireExpr{{Kind: protocol.ExprKnn, KnnDistance: -1}},
	}
	_, st := ConvertSearchExpr(wire)
	require.Equal(t, catalog.InvalidKnnDistanceType, st.Code)
}
