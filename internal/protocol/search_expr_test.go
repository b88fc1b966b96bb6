package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExprRoundTripColumn(t *testing.T) {
	e := WireExpr{Kind: ExprColumn, ColumnName: "name"}
	got, err := DecodeExpr(EncodeExpr(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestExprRoundTripConstants(t *testing.T) {
	cases := []WireExpr{
		{Kind: ExprConstant, ConstKind: ConstBoolean, BoolValue: true},
		{Kind: ExprConstant, ConstKind: ConstInteger, IntValue: -7},
		{Kind: ExprConstant, ConstKind: ConstDouble, DoubleValue: 3.5},
		{Kind: ExprConstant, ConstKind: ConstString, StrValue: "hi"},
		{Kind: ExprConstant, ConstKind: ConstEmbedding, EmbValue: []float32{1, 2, 3}},
	}
	for _, e := range cases {
		got, err := DecodeExpr(EncodeExpr(e))
		require.NoError(t, err)
		require.Equal(t, e, got)
	}
}

func TestExprRoundTripFunctionNested(t *testing.T) {
	e := WireExpr{
		Kind:     ExprFunction,
		FuncName: "add",
		Args: []WireExpr{
			{Kind: ExprConstant, ConstKind: ConstInteger, IntValue: 1},
			{Kind: ExprColumn, ColumnName: "x"},
		},
	}
	got, err := DecodeExpr(EncodeExpr(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestExprRoundTripKnn(t *testing.T) {
	e := WireExpr{Kind: ExprKnn, KnnColumn: "vec", KnnQuery: []float32{1, 2, 3}, KnnDistance: 2, KnnTopN: 10}
	got, err := DecodeExpr(EncodeExpr(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestExprRoundTripMatch(t *testing.T) {
	e := WireExpr{Kind: ExprMatch, MatchColumns: []string{"title", "body"}, MatchQuery: "hello world", MatchOptions: "bm25"}
	got, err := DecodeExpr(EncodeExpr(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestExprRoundTripFusion(t *testing.T) {
	e := WireExpr{Kind: ExprFusion, FusionMethod: "rrf", FusionArgs: map[string]string{"k": "60"}}
	got, err := DecodeExpr(EncodeExpr(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestSearchExprRoundTripWithFusion(t *testing.T) {
	s := WireSearchExpr{
		KnnExprs:   []WireExpr{{Kind: ExprKnn, KnnColumn: "vec", KnnQuery: []float32{1, 2}, KnnDistance: 0, KnnTopN: 5}},
		MatchExprs: []WireExpr{{Kind: ExprMatch, MatchColumns: []string{"body"}, MatchQuery: "q"}},
		FusionExpr: &WireExpr{Kind: ExprFusion, FusionMethod: "rrf"},
	}
	got, err := DecodeSearchExpr(EncodeSearchExpr(s))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSearchExprRoundTripWithoutFusion(t *testing.T) {
	s := WireSearchExpr{KnnExprs: []WireExpr{{Kind: ExprKnn, KnnColumn: "vec"}}}
	got, err := DecodeSearchExpr(EncodeSearchExpr(s))
	require.NoError(t, err)
	require.Nil(t, got.FusionExpr)
	require.Equal(t, s.KnnExprs, got.KnnExprs)
}

func TestDecodeExprRejectsUnknownKind(t *testing.T) {
	_, err := DecodeExpr(EncodeExpr(WireExpr{Kind: ExprKind(99)}))
	require.Error(t, err)
}
