package catalog

import "sync"

// TableEntry is one versioned existence of a table: its column set plus
// a name→history map of its indexes (spec §3.1).
type TableEntry struct {
	BaseEntry
	DBName  string
	Name    string
	Columns []*ColumnDef

	indexMu sync.RWMutex
	indexes map[string]*TableIndexMeta // index name -> version history

	// ftMu/fullTextSegmentTS implement spec §4.3/§5: "the table's
	// monotonic full-text segment timestamp ... advances via a
	// dedicated mutex on the table."
	ftMu               sync.Mutex
	fullTextSegmentTS  int64

	// unsealedSegmentID is the segment id currently accepting appends
	// for this table (glossary: "Unsealed segment"); TableIndexEntry's
	// create_index_prepare reads this to set last_segment.
	unsealedSegmentID uint64
}

func (t *TableEntry) base() *BaseEntry { return &t.BaseEntry }

// NewTableEntry starts an uncommitted table entry.
func NewTableEntry(dbName, name string, cols []*ColumnDef, txnID uint64, beginTS int64) *TableEntry {
	return &TableEntry{
		BaseEntry: NewBaseEntry(KindTable, txnID, beginTS),
		DBName:    dbName,
		Name:      name,
		Columns:   cols,
		indexes:   make(map[string]*TableIndexMeta),
	}
}

// ColumnByName finds a column definition by name.
func (t *TableEntry) ColumnByName(name string) (*ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// IndexMeta looks up (creating if absent) the version history for an
// index name on this table.
func (t *TableEntry) IndexMeta(name string, create bool) (*TableIndexMeta, bool) {
	t.indexMu.RLock()
	m, ok := t.indexes[name]
	t.indexMu.RUnlock()
	if ok || !create {
		return m, ok
	}

	t.indexMu.Lock()
	defer t.indexMu.Unlock()
	if m, ok = t.indexes[name]; ok {
		return m, true
	}
	m = newTableIndexMeta(name)
	t.indexes[name] = m
	return m, true
}

// IndexNames lists every index name with a meta entry on this table.
func (t *TableEntry) IndexNames() []string {
	t.indexMu.RLock()
	defer t.indexMu.RUnlock()
	names := make([]string, 0, len(t.indexes))
	for n := range t.indexes {
		names = append(names, n)
	}
	return names
}

// SetUnsealedSegment records which segment id is currently appendable;
// TableIndexEntry.create_index_prepare consults this to bind last_segment.
func (t *TableEntry) SetUnsealedSegment(id uint64) { t.unsealedSegmentID = id }

// UnsealedSegment returns the table's current unsealed segment id.
func (t *TableEntry) UnsealedSegment() uint64 { return t.unsealedSegmentID }

// AdvanceFullTextSegmentTS monotonically bumps the table's full-text
// segment timestamp and returns the new value. Called from
// TableIndexEntry.CommitCreateIndex for full-text indexes (spec §4.3).
func (t *TableEntry) AdvanceFullTextSegmentTS(candidate int64) int64 {
	t.ftMu.Lock()
	defer t.ftMu.Unlock()
	if candidate > t.fullTextSegmentTS {
		t.fullTextSegmentTS = candidate
	}
	return t.fullTextSegmentTS
}

// FullTextSegmentTS reads the table's current full-text segment
// timestamp.
func (t *TableEntry) FullTextSegmentTS() int64 {
	t.ftMu.Lock()
	defer t.ftMu.Unlock()
	return t.fullTextSegmentTS
}

// TableMeta is the name→history mapping for one table name within a
// database (spec §4.4).
type TableMeta struct {
	*history[*TableEntry]
}

func newTableMeta(name string) *TableMeta {
	return &TableMeta{history: newHistory[*TableEntry](name)}
}
