package catalog

// TxnIndexStore tracks the segment ids a single transaction added to a
// TableIndexEntry, so commit/rollback know which segments are "new"
// (spec §4.3 commit_create_index / rollback_create_index).
type TxnIndexStore struct {
	NewSegmentIDs []uint64
}

// Record appends a newly created segment id.
func (s *TxnIndexStore) Record(id uint64) { s.NewSegmentIDs = append(s.NewSegmentIDs, id) }
