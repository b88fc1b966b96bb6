package catalog

import (
	"math"
	"os"
)

func float32bits(f float32) uint32 { return math.Float32bits(f) }

// fileAppender is a minimal io.WriteCloser over an os.File, used by
// SegmentIndexEntry.memIndexDump to stream multiple terms' Dump output
// into one chunk file.
type fileAppender struct {
	path string
	f    *os.File
	err  error
}

func newFileAppender(path string) *fileAppender {
	f, err := os.Create(path)
	return &fileAppender{path: path, f: f, err: err}
}

func (a *fileAppender) Write(p []byte) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	return a.f.Write(p)
}

func (a *fileAppender) Close() error {
	if a.err != nil {
		return a.err
	}
	return a.f.Close()
}
