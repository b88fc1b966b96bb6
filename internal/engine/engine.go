// Package engine is the facade tying the catalog, session table, and
// row storage together behind the operations the RPC dispatcher calls
// (spec §4.5, §8). Grounded on the teacher's SQLDispatcher/session
// pairing in server/dispatcher and server/session, generalized from a
// SQL-statement dispatch surface to this engine's typed verb set.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/config"
	"github.com/infinidb-io/infinidb/internal/session"
)

// Engine owns the catalog and every table's row storage, plus a
// monotonic timestamp oracle driving MVCC begin/commit stamps.
type Engine struct {
	Catalog *catalog.Catalog
	Sess    *session.Manager
	cfg     *config.Cfg

	ts atomic.Int64

	mu     sync.RWMutex
	tables map[string]*rowStore // keyed by "db.table"
}

// New builds an Engine from cfg, seeding the catalog the way
// catalog.NewCatalog seeds "default" (spec §8 scenario 1).
func New(cfg *config.Cfg) *Engine {
	e := &Engine{
		cfg:    cfg,
		tables: make(map[string]*rowStore),
	}
	e.Catalog = catalog.NewCatalog(cfg.DataDir, 0, 0, e.nextTS())
	e.Sess = session.NewManager(cfg.MaxSessions, cfg.SessionTimeoutDuration)
	return e
}

func (e *Engine) nextTS() int64 { return e.ts.Add(1) }

func tableKey(db, table string) string { return db + "." + table }

// Handle is the per-session engine view; it satisfies session.Handle
// so Manager.Disconnect can tear it down uniformly.
type Handle struct {
	engine   *Engine
	txnID    uint64
	Database string
}

// Close releases any session-scoped resources. Nothing is pinned
// today, but the hook exists so a future open-cursor/prepared-plan
// cache has somewhere to unwind (spec §4.5 "disconnect ... tears down
// the handle").
func (h *Handle) Close() error { return nil }

// NewHandle allocates a fresh handle for a just-connected session,
// with its own txn id for MVCC own-write visibility.
func (e *Engine) NewHandle(database string) *Handle {
	return &Handle{engine: e, txnID: uint64(e.nextTS()), Database: database}
}

// Connect registers a new session against a freshly minted handle
// (spec §4.5, §8 scenario 1).
func (e *Engine) Connect(user, database string) (*session.Session, catalog.Status) {
	h := e.NewHandle(database)
	return e.Sess.Connect(user, database, h)
}

// Disconnect tears down sess (spec §4.5, §8 scenario 1).
func (e *Engine) Disconnect(id uint64) catalog.Status {
	return e.Sess.Disconnect(id)
}

// CreateDatabase creates db under conflict policy, committing
// immediately — single-statement DDL has no separate commit phase at
// this layer (spec §4.4, §8 scenario 2).
func (e *Engine) CreateDatabase(name string, conflict catalog.CreateConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	entry, st := e.Catalog.CreateDatabase(name, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}
	return catalog.OkStatus
}

// DropDatabase drops db under conflict policy.
func (e *Engine) DropDatabase(name string, conflict catalog.DropConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	entry, st := e.Catalog.DropDatabase(name, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if entry != nil && !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}
	return catalog.OkStatus
}

// ListDatabases lists every database visible right now.
func (e *Engine) ListDatabases() []string {
	return e.Catalog.ListDatabases(e.nextTS(), 0)
}

// CreateTable creates table inside database under conflict policy,
// and allocates its row store.
func (e *Engine) CreateTable(database, table string, cols []*catalog.ColumnDef, conflict catalog.CreateConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	entry, st := e.Catalog.CreateTable(db, table, cols, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}

	e.mu.Lock()
	key := tableKey(database, table)
	if _, exists := e.tables[key]; !exists {
		e.tables[key] = newRowStore(cols)
	}
	e.mu.Unlock()
	return catalog.OkStatus
}

// DropTable drops table inside database.
func (e *Engine) DropTable(database, table string, conflict catalog.DropConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	entry, st := e.Catalog.DropTable(db, table, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if entry != nil && !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}

	e.mu.Lock()
	delete(e.tables, tableKey(database, table))
	e.mu.Unlock()
	return catalog.OkStatus
}

// ListTables lists every table visible inside database right now.
func (e *Engine) ListTables(database string) ([]string, catalog.Status) {
	ts := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, ts, 0)
	if st.Code != catalog.Ok {
		return nil, st
	}
	return e.Catalog.ListTables(db, ts, 0), catalog.OkStatus
}

// ListIndexes lists every index visible on database.table right now.
func (e *Engine) ListIndexes(database, table string) ([]string, catalog.Status) {
	ts := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, ts, 0)
	if st.Code != catalog.Ok {
		return nil, st
	}
	tbl, st := e.Catalog.GetTable(db, table, ts, 0)
	if st.Code != catalog.Ok {
		return nil, st
	}
	return e.Catalog.ListIndexes(tbl, ts, 0), catalog.OkStatus
}

// Insert appends row to database.table's store (spec §8 "insert-then
// select with POD and embedding columns").
func (e *Engine) Insert(database, table string, row map[string]interface{}) catalog.Status {
	e.mu.RLock()
	rs, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	rs.insert(row)
	return catalog.OkStatus
}

// SelectResult carries column values keyed by name, in row order.
type SelectResult struct {
	Columns []string
	Values  map[string][]interface{}
}

// Select returns the requested columns from database.table.
func (e *Engine) Select(database, table string, columns []string) (*SelectResult, catalog.Status) {
	e.mu.RLock()
	rs, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return nil, catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	if len(columns) == 0 {
		return nil, catalog.NewStatus(catalog.EmptySelectFields, "select requires at least one column")
	}
	for _, name := range columns {
		if rs.column(name) == nil {
			return nil, catalog.NewStatus(catalog.ColumnCountMismatch, "unknown column %q", name)
		}
	}
	return &SelectResult{Columns: columns, Values: rs.selectColumns(columns)}, catalog.OkStatus
}

// Delete removes every row of database.table whose column equals
// matchValue (spec §8 "delete-then-select").
func (e *Engine) Delete(database, table, column string, matchValue interface{}) (int, catalog.Status) {
	e.mu.RLock()
	rs, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return 0, catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	if rs.column(column) == nil {
		return 0, catalog.NewStatus(catalog.ColumnCountMismatch, "unknown column %q", column)
	}
	return rs.deleteWhere(column, matchValue), catalog.OkStatus
}

// Update rewrites every row of database.table whose column equals
// matchValue with the given column/value pairs.
func (e *Engine) Update(database, table, column string, matchValue interface{}, updates map[string]interface{}) (int, catalog.Status) {
	e.mu.RLock()
	rs, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return 0, catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	if rs.column(column) == nil {
		return 0, catalog.NewStatus(catalog.ColumnCountMismatch, "unknown column %q", column)
	}
	for name := range updates {
		if rs.column(name) == nil {
			return 0, catalog.NewStatus(catalog.ColumnCountMismatch, "unknown column %q", name)
		}
	}
	return rs.updateWhere(column, matchValue, updates), catalog.OkStatus
}

// CreateIndex builds indexName on database.table.column and commits
// its catalog entry immediately, mirroring CreateDatabase's
// single-statement DDL (spec §4.3).
func (e *Engine) CreateIndex(database, table, indexName string, base *catalog.IndexBase, col *catalog.ColumnDef, partCapacity int, conflict catalog.CreateConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	tbl, st := e.Catalog.GetTable(db, table, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	entry, st := e.Catalog.CreateIndex(e.cfg.DataDir, tbl, indexName, base, col, partCapacity, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if entry != nil && !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}
	return catalog.OkStatus
}

// DropIndex drops indexName on database.table.
func (e *Engine) DropIndex(database, table, indexName string, conflict catalog.DropConflict, txnID uint64) catalog.Status {
	begin := e.nextTS()
	db, st := e.Catalog.GetDatabase(database, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	tbl, st := e.Catalog.GetTable(db, table, begin, txnID)
	if st.Code != catalog.Ok {
		return st
	}
	entry, st := e.Catalog.DropIndex(tbl, indexName, conflict, txnID, begin)
	if st.Code != catalog.Ok {
		return st
	}
	if entry != nil && !entry.IsCommitted() {
		entry.Commit(e.nextTS())
	}
	return catalog.OkStatus
}

// KnnResult is one ranked row index + distance from a KNN search.
type KnnResult struct {
	RowIndex int
	Distance float32
}

// Knn runs a nearest-neighbor scan over column in database.table,
// returning the topN closest rows by distance (spec §4.2, §8 "KNN
// top-1 search").
func (e *Engine) Knn(database, table, column string, query []float32, distance catalog.KnnDistance, topN int64) ([]KnnResult, catalog.Status) {
	e.mu.RLock()
	rs, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return nil, catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	col := rs.column(column)
	if col == nil || col.LogicType != catalog.LogicEmbedding {
		return nil, catalog.NewStatus(catalog.InvalidDataType, "%q is not an embedding column", column)
	}
	if col.EmbeddingDim != len(query) {
		return nil, catalog.NewStatus(catalog.InvalidParameterValue, "query dim %d does not match column dim %d", len(query), col.EmbeddingDim)
	}

	raw := rs.knn(column, query, distance, topN)
	out := make([]KnnResult, len(raw))
	for i, r := range raw {
		out[i] = KnnResult{RowIndex: r.RowIndex, Distance: r.Distance}
	}
	return out, catalog.OkStatus
}

// Explain is a stub plan-description op sufficient to validate a
// request shape without running execution (spec §6.1 explain).
func (e *Engine) Explain(database, table string, detail string) (string, catalog.Status) {
	e.mu.RLock()
	_, ok := e.tables[tableKey(database, table)]
	e.mu.RUnlock()
	if !ok {
		return "", catalog.NewStatus(catalog.NotSupport, "table %s.%s does not exist", database, table)
	}
	return fmt.Sprintf("scan(%s.%s) detail=%s", database, table, detail), catalog.OkStatus
}
