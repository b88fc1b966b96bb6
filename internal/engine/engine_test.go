package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()
	return New(cfg)
}

func TestConnectListDisconnect(t *testing.T) {
	e := newTestEngine(t)

	sess, st := e.Connect("alice", "default")
	require.Equal(t, catalog.Ok, st.Code)
	require.Contains(t, e.Sess.List(), sess.ID)

	require.Equal(t, catalog.Ok, e.Disconnect(sess.ID).Code)
	require.NotContains(t, e.Sess.List(), sess.ID)
}

func TestCreateDatabaseIgnoreThenErrorTwice(t *testing.T) {
	e := newTestEngine(t)

	require.Equal(t, catalog.Ok, e.CreateDatabase("shop", catalog.CreateIgnore, 1).Code)
	require.Equal(t, catalog.Ok, e.CreateDatabase("shop", catalog.CreateIgnore, 2).Code)

	require.Equal(t, catalog.Ok, e.CreateDatabase("shop2", catalog.CreateError, 3).Code)
	require.NotEqual(t, catalog.Ok, e.CreateDatabase("shop2", catalog.CreateError, 4).Code)
}

func TestInsertThenSelectPODAndEmbedding(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, catalog.Ok, e.CreateDatabase("db", catalog.CreateIgnore, 1).Code)

	cols := []*catalog.ColumnDef{
		{Name: "id", LogicType: catalog.LogicInteger},
		{Name: "vec", LogicType: catalog.LogicEmbedding, ElemType: catalog.ElemFloat32, EmbeddingDim: 3},
	}
	require.Equal(t, catalog.Ok, e.CreateTable("db", "t", cols, catalog.CreateIgnore, 2).Code)

	require.Equal(t, catalog.Ok, e.Insert("db", "t", map[string]interface{}{
		"id": int32(1), "vec": []float32{1, 0, 0},
	}).Code)
	require.Equal(t, catalog.Ok, e.Insert("db", "t", map[string]interface{}{
		"id": int32(2), "vec": []float32{0, 1, 0},
	}).Code)

	res, st := e.Select("db", "t", []string{"id", "vec"})
	require.Equal(t, catalog.Ok, st.Code)
	require.Len(t, res.Values["id"], 2)
	require.Equal(t, int32(1), res.Values["id"][0])
}

func TestKnnTopOne(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, catalog.Ok, e.CreateDatabase("db", catalog.CreateIgnore, 1).Code)
	cols := []*catalog.ColumnDef{
		{Name: "vec", LogicType: catalog.LogicEmbedding, ElemType: catalog.ElemFloat32, EmbeddingDim: 2},
	}
	require.Equal(t, catalog.Ok, e.CreateTable("db", "t", cols, catalog.CreateIgnore, 2).Code)

	require.Equal(t, catalog.Ok, e.Insert("db", "t", map[string]interface{}{"vec": []float32{10, 10}}).Code)
	require.Equal(t, catalog.Ok, e.Insert("db", "t", map[string]interface{}{"vec": []float32{0, 0}}).Code)
	require.Equal(t, catalog.Ok, e.Insert("db", "t", map[string]interface{}{"vec": []float32{1, 1}}).Code)

	results, st := e.Knn("db", "t", "vec", []float32{0, 0}, catalog.DistanceL2, 1)
	require.Equal(t, catalog.Ok, st.Code)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].RowIndex)
}

func TestKnnRejectsDimMismatch(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, catalog.Ok, e.CreateDatabase("db", catalog.CreateIgnore, 1).Code)
	cols := []*catalog.ColumnDef{
		{Name: "vec", LogicType: catalog.LogicEmbedding, ElemType: catalog.ElemFloat32, EmbeddingDim: 4},
	}
	require.Equal(t, catalog.Ok, e.CreateTable("db", "t", cols, catalog.CreateIgnore, 2).Code)

	_, st := e.Knn("db", "t", "vec", []float32{1, 2}, catalog.DistanceL2, 1)
	require.Equal(t, catalog.InvalidParameterValue, st.Code)
}
