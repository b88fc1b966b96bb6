package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// TableIndexMeta is the ordered history of TableIndexEntry versions for
// one (table, index_name) (spec §3.1).
type TableIndexMeta struct {
	*history[*TableIndexEntry]
}

func newTableIndexMeta(name string) *TableIndexMeta {
	return &TableIndexMeta{history: newHistory[*TableIndexEntry](name)}
}

// IndexDirFor computes `<table_dir>/<index_name>`, appending a short
// uuid-derived disambiguation suffix whenever this meta's history
// already holds any version, dropped or not (e.g. a Replace create) —
// spec §4.3 "Index-directory naming".
func (m *TableIndexMeta) IndexDirFor(tableDir string) string {
	existing := m.All()
	if len(existing) == 0 {
		return filepath.Join(tableDir, m.name)
	}
	suffix := uuid.New().String()[:8]
	return filepath.Join(tableDir, fmt.Sprintf("%s_%s", m.name, suffix))
}
