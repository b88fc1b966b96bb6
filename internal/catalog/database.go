package catalog

import "sync"

// DatabaseEntry is one versioned existence of a database name (spec §3.1).
type DatabaseEntry struct {
	BaseEntry
	Name string

	tables sync.Map // string table name -> *TableMeta
}

func (d *DatabaseEntry) base() *BaseEntry { return &d.BaseEntry }

// NewDatabaseEntry starts an uncommitted database entry.
func NewDatabaseEntry(name string, txnID uint64, beginTS int64) *DatabaseEntry {
	return &DatabaseEntry{BaseEntry: NewBaseEntry(KindDatabase, txnID, beginTS), Name: name}
}

// TableMeta looks up (creating if absent) the per-table meta for name.
// Table metas live for the lifetime of the owning DatabaseEntry, not a
// single version of it, mirroring the teacher's "create on first touch"
// catalog population.
func (d *DatabaseEntry) TableMeta(name string, create bool) (*TableMeta, bool) {
	if v, ok := d.tables.Load(name); ok {
		return v.(*TableMeta), true
	}
	if !create {
		return nil, false
	}
	tm := newTableMeta(name)
	actual, _ := d.tables.LoadOrStore(name, tm)
	return actual.(*TableMeta), true
}

// DropTableMeta removes a table's meta entirely once every version in
// its history is dropped and cleaned up.
func (d *DatabaseEntry) DropTableMeta(name string) {
	d.tables.Delete(name)
}

// TableNames lists every table name with a meta entry (visible or not —
// callers filter by visibility themselves).
func (d *DatabaseEntry) TableNames() []string {
	var names []string
	d.tables.Range(func(k, _ interface{}) bool {
		names = append(names, k.(string))
		return true
	})
	return names
}

// DatabaseMeta is the name→history mapping for one database name across
// create/drop cycles (spec §4.4).
type DatabaseMeta struct {
	*history[*DatabaseEntry]
}

func newDatabaseMeta(name string) *DatabaseMeta {
	return &DatabaseMeta{history: newHistory[*DatabaseEntry](name)}
}
