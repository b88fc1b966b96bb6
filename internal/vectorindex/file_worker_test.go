package vectorindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHNSWWorkerSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewHNSWWorker(filepath.Join(dir, "hnsw.bin"), 1000)
	w.AppendGraph([]byte("graph-bytes"))

	require.NoError(t, w.SaveFile())
	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	require.Equal(t, "graph-bytes", string(data))
}

func TestIVFFlatWorkerRejectsNonFloat32(t *testing.T) {
	_, err := NewIVFFlatWorker("path", "int8")
	require.Error(t, err)
}

func TestIVFFlatWorkerCompressesOnSave(t *testing.T) {
	dir := t.TempDir()
	w, err := NewIVFFlatWorker(filepath.Join(dir, "ivfflat.bin"), "float32")
	require.NoError(t, err)

	payload := make([]byte, 4096)
	w.AppendPosting(payload)
	require.NoError(t, w.SaveFile())

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	require.Less(t, len(data), len(payload))
}

func TestWorkerCleanupRemovesFile(t *testing.T) {
	dir := t.TempDir()
	w := NewHNSWWorker(filepath.Join(dir, "hnsw.bin"), 10)
	w.AppendGraph([]byte("x"))
	require.NoError(t, w.SaveFile())

	require.NoError(t, w.Cleanup())
	_, err := os.Stat(w.Path())
	require.True(t, os.IsNotExist(err))
}

func TestWorkerCleanupIdempotentWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	w := NewHNSWWorker(filepath.Join(dir, "hnsw.bin"), 10)
	require.NoError(t, w.Cleanup())
	require.NoError(t, w.Cleanup())
}

func TestBuildWorkersSecondarySplitsIntoParts(t *testing.T) {
	dir := t.TempDir()
	workers, err := BuildWorkers("secondary", dir, 250, "", 100)
	require.NoError(t, err)
	// 1 header + ceil(250/100) = 3 parts
	require.Len(t, workers, 4)
	require.Equal(t, KindSecondary, workers[0].Kind())
}

func TestBuildWorkersFullTextReturnsNoWorkers(t *testing.T) {
	workers, err := BuildWorkers("fulltext", "dir", 100, "", 0)
	require.NoError(t, err)
	require.Nil(t, workers)
}

func TestBuildWorkersUnknownIndexTypeErrors(t *testing.T) {
	_, err := BuildWorkers("bogus", "dir", 100, "", 0)
	require.Error(t, err)
}
