package dispatcher

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinidb-io/infinidb/internal/catalog"
)

func TestValidateCSVDelimiterRejectsMultiByte(t *testing.T) {
	st := ValidateCSVDelimiter(",,")
	require.Equal(t, catalog.InvalidParameterValue, st.Code)
}

func TestValidateCSVDelimiterAcceptsSingleByte(t *testing.T) {
	st := ValidateCSVDelimiter(";")
	require.Equal(t, catalog.Ok, st.Code)
}

func TestUploadFileChunkSkipsCompletedFirstChunk(t *testing.T) {
	u := &UploadState{TempDir: t.TempDir(), DB: "d", Table: "t", Name: "f.csv"}

	st := UploadFileChunk(u, 0, []byte("first"))
	require.Equal(t, catalog.Ok, st.Code)

	// Retry of chunk 0 must not duplicate the already-written bytes.
	st = UploadFileChunk(u, 0, []byte("first"))
	require.Equal(t, catalog.Ok, st.Code)

	path, st := FinalizeUpload(u)
	require.Equal(t, catalog.Ok, st.Code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first", string(data))
}

func TestUploadFileChunkAppendsSubsequentChunks(t *testing.T) {
	u := &UploadState{TempDir: t.TempDir(), DB: "d", Table: "t", Name: "f.csv"}
	require.Equal(t, catalog.Ok, UploadFileChunk(u, 0, []byte("a")).Code)
	require.Equal(t, catalog.Ok, UploadFileChunk(u, 1, []byte("b")).Code)

	path, st := FinalizeUpload(u)
	require.Equal(t, catalog.Ok, st.Code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ab", string(data))
}
