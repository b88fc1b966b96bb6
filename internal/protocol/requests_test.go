package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []interface{}{
		nil,
		int64(-42),
		3.14,
		"hello",
		[]float32{1, 2, 3},
	}
	for _, v := range cases {
		buf := EncodeValue(v)
		got, n, err := DecodeValue(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestConnectRequestRoundTrip(t *testing.T) {
	req := ConnectRequest{User: "alice", Database: "default"}
	got, err := DecodeConnectRequest(EncodeConnectRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestCreateTableRequestRoundTrip(t *testing.T) {
	req := CreateTableRequest{
		Database: "shop",
		Table:    "items",
		Columns: []ColumnSpec{
			{Name: "id", LogicType: 3},
			{Name: "vec", LogicType: 8, ElemType: 5, EmbeddingDim: 4, Nullable: true},
		},
		Conflict: 1,
		TxnID:    7,
	}
	got, err := DecodeCreateTableRequest(EncodeCreateTableRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestCreateIndexRequestRoundTrip(t *testing.T) {
	req := CreateIndexRequest{
		Database: "shop", Table: "items", IndexName: "idx", IndexType: 0,
		Column: "vec", PartCapacity: 100, Parameters: map[string]string{"nlist": "16"},
		Conflict: 1, TxnID: 9,
	}
	got, err := DecodeCreateIndexRequest(EncodeCreateIndexRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestInsertRequestRoundTrip(t *testing.T) {
	req := InsertRequest{
		Database: "shop", Table: "items",
		Fields: map[string]interface{}{"id": int64(1), "name": "widget"},
	}
	got, err := DecodeInsertRequest(EncodeInsertRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestSelectRequestRoundTrip(t *testing.T) {
	req := SelectRequest{Database: "shop", Table: "items", Columns: []string{"id", "name"}}
	got, err := DecodeSelectRequest(EncodeSelectRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestDeleteRequestRoundTrip(t *testing.T) {
	req := DeleteRequest{Database: "shop", Table: "items", Column: "id", Value: int64(1)}
	got, err := DecodeDeleteRequest(EncodeDeleteRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestUpdateRequestRoundTrip(t *testing.T) {
	req := UpdateRequest{
		Database: "shop", Table: "items", Column: "id", Value: int64(1),
		Updates: map[string]interface{}{"name": "new-name"},
	}
	got, err := DecodeUpdateRequest(EncodeUpdateRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestUploadFileChunkRequestRoundTrip(t *testing.T) {
	req := UploadFileChunkRequest{Database: "shop", Table: "items", Name: "data.csv", ChunkIndex: 2, Chunk: []byte("a,b,c\n")}
	got, err := DecodeUploadFileChunkRequest(EncodeUploadFileChunkRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestDecodeRequestsRejectTruncatedPayload(t *testing.T) {
	_, err := DecodeConnectRequest([]byte{1, 2})
	require.Error(t, err)

	_, err = DecodeCreateTableRequest(nil)
	require.Error(t, err)

	_, err = DecodeInsertRequest([]byte{0, 0, 0})
	require.Error(t, err)
}
