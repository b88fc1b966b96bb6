package catalog

import "sync/atomic"

// EntryKind tags what a BaseEntry materializes — a database, a table, or
// an index version — for diagnostics and checkpoint encoding.
type EntryKind int

const (
	KindDatabase EntryKind = iota
	KindTable
	KindTableIndex
)

// BaseEntry is the common MVCC record embedded by every catalog node:
// commit_ts == 0 means uncommitted, deletion is a tombstone flag rather
// than physical removal (spec §3.1).
type BaseEntry struct {
	EntryKind EntryKind
	TxnID     uint64
	BeginTS   int64

	commitTS int64 // atomic; 0 == uncommitted
	deleted  int32 // atomic bool
}

// NewBaseEntry starts an uncommitted entry for txnID at beginTS.
func NewBaseEntry(kind EntryKind, txnID uint64, beginTS int64) BaseEntry {
	return BaseEntry{EntryKind: kind, TxnID: txnID, BeginTS: beginTS}
}

// CommitTS returns the current commit timestamp (0 if uncommitted).
func (e *BaseEntry) CommitTS() int64 { return atomic.LoadInt64(&e.commitTS) }

// Commit stamps ts as the commit timestamp. Called at most once under
// the owning entry's write lock; subsequent reads see it immediately via
// the atomic load in CommitTS.
func (e *BaseEntry) Commit(ts int64) { atomic.StoreInt64(&e.commitTS, ts) }

// IsCommitted reports whether Commit has been called.
func (e *BaseEntry) IsCommitted() bool { return e.CommitTS() != 0 }

// Deleted reports the tombstone flag.
func (e *BaseEntry) Deleted() bool { return atomic.LoadInt32(&e.deleted) != 0 }

// SetDeleted tombstones the entry. Physical cleanup is a separate step.
func (e *BaseEntry) SetDeleted() { atomic.StoreInt32(&e.deleted, 1) }

// VisibleAt implements spec §4.4's visibility rule:
//
//	visible ⟺ begin_ts ≤ read_ts AND (commit_ts != 0 AND commit_ts ≤ read_ts)
//	          OR entry belongs to read_txn_id (own writes)
//
// Deletedness is the caller's concern: among visible entries the newest
// commit_ts wins, and if that entry is deleted the object does not exist
// at read_ts.
func (e *BaseEntry) VisibleAt(readTS int64, readTxnID uint64) bool {
	if e.TxnID == readTxnID {
		return true
	}
	if e.BeginTS > readTS {
		return false
	}
	ct := e.CommitTS()
	return ct != 0 && ct <= readTS
}
