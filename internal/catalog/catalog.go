package catalog

import (
	"path/filepath"
	"sort"
	"sync"
)

// Catalog is the process-wide root of the catalog / index-entry layer:
// a name→history mapping of databases, each owning its own tables and
// their indexes (spec §4.4). DDL verbs all follow the same pattern:
// take the meta's write lock, append a new entry, return it for the
// caller to commit.
type Catalog struct {
	mu   sync.RWMutex
	dbs  map[string]*DatabaseMeta
	root string // base data directory, for index_dir derivation
}

// NewCatalog seeds the "default" database, matching the teacher-pack
// convention that a fresh server always has one (spec §8 scenario 1).
func NewCatalog(dataDir string, txnID uint64, beginTS, commitTS int64) *Catalog {
	c := &Catalog{dbs: make(map[string]*DatabaseMeta), root: dataDir}
	meta := newDatabaseMeta("default")
	entry := NewDatabaseEntry("default", txnID, beginTS)
	entry.Commit(commitTS)
	meta.Append(entry)
	c.dbs["default"] = meta
	return c
}

func (c *Catalog) dbMeta(name string, create bool) (*DatabaseMeta, bool) {
	c.mu.RLock()
	m, ok := c.dbs[name]
	c.mu.RUnlock()
	if ok || !create {
		return m, ok
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok = c.dbs[name]; ok {
		return m, true
	}
	m = newDatabaseMeta(name)
	c.dbs[name] = m
	return m, true
}

// CreateDatabase applies the create-path conflict policy (spec §4.4).
func (c *Catalog) CreateDatabase(name string, conflict CreateConflict, txnID uint64, beginTS int64) (*DatabaseEntry, Status) {
	meta, _ := c.dbMeta(name, true)

	if existing, ok := meta.Visible(beginTS, txnID); ok && !existing.Deleted() {
		switch conflict {
		case CreateIgnore:
			return existing, OkStatus
		case CreateError:
			return nil, NewStatus(NotSupport, "database %q already exists", name)
		case CreateReplace:
			// fall through: append a new entry; the old one stays
			// visible until this one commits with a later commit_ts.
		}
	}

	entry := NewDatabaseEntry(name, txnID, beginTS)
	meta.Append(entry)
	return entry, OkStatus
}

// DropDatabase applies the drop-path conflict policy.
func (c *Catalog) DropDatabase(name string, conflict DropConflict, txnID uint64, beginTS int64) (*DatabaseEntry, Status) {
	meta, ok := c.dbMeta(name, false)
	if !ok {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "database %q does not exist", name)
	}

	existing, visible := meta.Visible(beginTS, txnID)
	if !visible || existing.Deleted() {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "database %q does not exist", name)
	}

	entry := NewDatabaseEntry(name, txnID, beginTS)
	entry.SetDeleted()
	meta.Append(entry)
	return entry, OkStatus
}

// GetDatabase returns the version of name visible at (readTS, readTxnID).
func (c *Catalog) GetDatabase(name string, readTS int64, readTxnID uint64) (*DatabaseEntry, Status) {
	meta, ok := c.dbMeta(name, false)
	if !ok {
		return nil, NewStatus(NotSupport, "database %q does not exist", name)
	}
	e, visible := meta.Visible(readTS, readTxnID)
	if !visible || e.Deleted() {
		return nil, NewStatus(NotSupport, "database %q does not exist", name)
	}
	return e, OkStatus
}

// ListDatabases lists every database name visible at (readTS, readTxnID).
func (c *Catalog) ListDatabases(readTS int64, readTxnID uint64) []string {
	c.mu.RLock()
	metas := make([]*DatabaseMeta, 0, len(c.dbs))
	for _, m := range c.dbs {
		metas = append(metas, m)
	}
	c.mu.RUnlock()

	var names []string
	for _, m := range metas {
		if e, ok := m.Visible(readTS, readTxnID); ok && !e.Deleted() {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

// CreateTable creates a table inside db, following the same conflict
// pattern as CreateDatabase.
func (c *Catalog) CreateTable(db *DatabaseEntry, tableName string, cols []*ColumnDef, conflict CreateConflict, txnID uint64, beginTS int64) (*TableEntry, Status) {
	meta, _ := db.TableMeta(tableName, true)

	if existing, ok := meta.Visible(beginTS, txnID); ok && !existing.Deleted() {
		switch conflict {
		case CreateIgnore:
			return existing, OkStatus
		case CreateError:
			return nil, NewStatus(NotSupport, "table %q already exists", tableName)
		case CreateReplace:
		}
	}

	entry := NewTableEntry(db.Name, tableName, cols, txnID, beginTS)
	meta.Append(entry)
	return entry, OkStatus
}

// DropTable tombstones tableName inside db.
func (c *Catalog) DropTable(db *DatabaseEntry, tableName string, conflict DropConflict, txnID uint64, beginTS int64) (*TableEntry, Status) {
	meta, ok := db.TableMeta(tableName, false)
	if !ok {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "table %q does not exist", tableName)
	}

	existing, visible := meta.Visible(beginTS, txnID)
	if !visible || existing.Deleted() {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "table %q does not exist", tableName)
	}

	entry := NewTableEntry(db.Name, tableName, existing.Columns, txnID, beginTS)
	entry.SetDeleted()
	meta.Append(entry)
	return entry, OkStatus
}

// GetTable returns the version of tableName inside db visible at
// (readTS, readTxnID).
func (c *Catalog) GetTable(db *DatabaseEntry, tableName string, readTS int64, readTxnID uint64) (*TableEntry, Status) {
	meta, ok := db.TableMeta(tableName, false)
	if !ok {
		return nil, NewStatus(NotSupport, "table %q does not exist", tableName)
	}
	e, visible := meta.Visible(readTS, readTxnID)
	if !visible || e.Deleted() {
		return nil, NewStatus(NotSupport, "table %q does not exist", tableName)
	}
	return e, OkStatus
}

// ListTables lists every table visible inside db at (readTS, readTxnID).
func (c *Catalog) ListTables(db *DatabaseEntry, readTS int64, readTxnID uint64) []string {
	var names []string
	for _, name := range db.TableNames() {
		meta, ok := db.TableMeta(name, false)
		if !ok {
			continue
		}
		if e, visible := meta.Visible(readTS, readTxnID); visible && !e.Deleted() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CreateIndex creates a new TableIndexEntry version for (table,
// indexName), deriving its on-disk directory from TableIndexMeta
// (spec §4.3 "Index-directory naming").
func (c *Catalog) CreateIndex(tableDirBase string, table *TableEntry, indexName string, base *IndexBase, col *ColumnDef, partCapacity int, conflict CreateConflict, txnID uint64, beginTS int64) (*TableIndexEntry, Status) {
	meta, _ := table.IndexMeta(indexName, true)

	if existing, ok := meta.Visible(beginTS, txnID); ok && !existing.Deleted() {
		switch conflict {
		case CreateIgnore:
			return existing, OkStatus
		case CreateError:
			return nil, NewStatus(NotSupport, "index %q already exists", indexName)
		case CreateReplace:
		}
	}

	if err := base.Validate(); err != nil {
		return nil, NewStatus(InvalidIndexType, "%v", err)
	}

	tableDir := filepath.Join(tableDirBase, table.DBName, table.Name)
	dir := meta.IndexDirFor(tableDir)

	entry, err := NewTableIndexEntry(meta, dir, base, col, partCapacity, txnID, beginTS)
	if err != nil {
		return nil, NewStatus(InvalidIndexType, "%v", err)
	}
	meta.Append(entry)
	return entry, OkStatus
}

// DropIndex tombstones indexName on table.
func (c *Catalog) DropIndex(table *TableEntry, indexName string, conflict DropConflict, txnID uint64, beginTS int64) (*TableIndexEntry, Status) {
	meta, ok := table.IndexMeta(indexName, false)
	if !ok {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "index %q does not exist", indexName)
	}

	existing, visible := meta.Visible(beginTS, txnID)
	if !visible || existing.Deleted() {
		if conflict == DropIgnore {
			return nil, OkStatus
		}
		return nil, NewStatus(NotSupport, "index %q does not exist", indexName)
	}

	entry, err := NewTableIndexEntry(meta, existing.indexDir, existing.indexBase, existing.columnDef, existing.partCapacity, txnID, beginTS)
	if err != nil {
		return nil, NewStatus(InvalidIndexType, "%v", err)
	}
	entry.SetDeleted()
	meta.Append(entry)
	return entry, OkStatus
}

// GetIndex returns the version of indexName on table visible at
// (readTS, readTxnID) — invariant 1.
func (c *Catalog) GetIndex(table *TableEntry, indexName string, readTS int64, readTxnID uint64) (*TableIndexEntry, Status) {
	meta, ok := table.IndexMeta(indexName, false)
	if !ok {
		return nil, NewStatus(NotSupport, "index %q does not exist", indexName)
	}
	e, visible := meta.Visible(readTS, readTxnID)
	if !visible || e.Deleted() {
		return nil, NewStatus(NotSupport, "index %q does not exist", indexName)
	}
	return e, OkStatus
}

// ListIndexes lists every index visible on table at (readTS, readTxnID).
func (c *Catalog) ListIndexes(table *TableEntry, readTS int64, readTxnID uint64) []string {
	var names []string
	for _, name := range table.IndexNames() {
		meta, ok := table.IndexMeta(name, false)
		if !ok {
			continue
		}
		if e, visible := meta.Visible(readTS, readTxnID); visible && !e.Deleted() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
