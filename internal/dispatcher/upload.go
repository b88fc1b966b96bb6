package dispatcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/infinidb-io/infinidb/internal/catalog"
)

// UploadState tracks one in-progress chunked bulk import (spec §6.1
// upload_file_chunk). Only a retried chunk 0 is deduplicated (see
// UploadFileChunk); a retried later chunk is appended again.
type UploadState struct {
	TempDir string
	DB      string
	Table   string
	Name    string
}

// tempPath derives the on-disk staging path as
// <temp_dir>_<db>_<table>_<name> (spec §6.1).
func (u *UploadState) tempPath() string {
	return fmt.Sprintf("%s_%s_%s_%s", u.TempDir, u.DB, u.Table, u.Name)
}

// ValidateCSVDelimiter enforces the single-character delimiter
// constraint on CSV imports (spec §6.1 upload_file_chunk).
func ValidateCSVDelimiter(delimiter string) catalog.Status {
	if len(delimiter) != 1 {
		return catalog.NewStatus(catalog.InvalidParameterValue, "csv delimiter must be exactly one byte, got %q", delimiter)
	}
	return catalog.OkStatus
}

// UploadFileChunk appends chunk to the staging file for (db, table,
// name) (spec §6.1). For chunk 0 it returns Ok without writing when the
// staging file already exists and is non-empty; it does not compare the
// file's size with the upload's total size, and never truncates or
// recreates the file. Every other chunk is appended unconditionally.
func UploadFileChunk(u *UploadState, chunkIndex int64, chunk []byte) catalog.Status {
	path := u.tempPath()

	if chunkIndex == 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			// Chunk 0 already landed from a prior attempt: short-circuit
			// rather than reopen with O_TRUNC and lose it.
			return catalog.OkStatus
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return catalog.NewStatus(catalog.Unrecoverable, "mkdir staging dir: %v", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return catalog.NewStatus(catalog.Unrecoverable, "open staging file: %v", err)
	}
	defer f.Close()

	if _, err := f.Write(chunk); err != nil {
		return catalog.NewStatus(catalog.Unrecoverable, "write chunk: %v", err)
	}
	return catalog.OkStatus
}

// FinalizeUpload returns the completed staging file's path for the
// import pipeline to consume. The staging file is left in place.
func FinalizeUpload(u *UploadState) (string, catalog.Status) {
	path := u.tempPath()
	if _, err := os.Stat(path); err != nil {
		return "", catalog.NewStatus(catalog.ImportFileFormatError, "staged file missing: %v", err)
	}
	return path, catalog.OkStatus
}
