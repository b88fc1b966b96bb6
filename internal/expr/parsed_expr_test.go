package expr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFunctionOwnsArgsInline(t *testing.T) {
	e := Function("add", Column("a"), ConstantInt(1))
	require.Equal(t, KindFunction, e.Kind)
	require.Len(t, e.Args, 2)
	require.Equal(t, KindColumn, e.Args[0].Kind)
	require.Equal(t, "a", e.Args[0].ColumnName)
	require.Equal(t, KindConstant, e.Args[1].Kind)
	require.Equal(t, int64(1), e.Args[1].IntValue)
}

func TestConstantDecimalCarriesValue(t *testing.T) {
	d := decimal.NewFromFloat(3.14)
	e := ConstantDecimal(d)
	require.Equal(t, ConstDecimal, e.ConstKind)
	require.True(t, d.Equal(e.DecValue))
}

func TestKnnNode(t *testing.T) {
	e := Knn("embedding", []float32{1, 2, 3}, "cosine", 5)
	require.Equal(t, KindKnn, e.Kind)
	require.Equal(t, int64(5), e.KnnTopN)
	require.Equal(t, []float32{1, 2, 3}, e.KnnQuery)
}

func TestFusionNode(t *testing.T) {
	e := Fusion("rrf", map[string]string{"k": "60"})
	require.Equal(t, KindFusion, e.Kind)
	require.Equal(t, "60", e.FusionArgs["k"])
}

func TestSearchExprSetExprsFlattensInOrder(t *testing.T) {
	knn := Knn("embedding", []float32{1, 2, 3}, "cosine", 5)
	match := Match([]string{"body"}, "hello", "")
	fusion := Fusion("rrf", nil)

	var s SearchExpr
	s.SetExprs([]*ParsedExpr{knn, match, fusion})

	require.Len(t, s.Exprs, 3)
	require.Equal(t, KindKnn, s.Exprs[0].Kind)
	require.Equal(t, KindMatch, s.Exprs[1].Kind)
	require.Equal(t, KindFusion, s.Exprs[2].Kind)
}
