package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// checkpointSchema is the fixed JSON Schema a TableIndexEntry
// checkpoint document must satisfy before Deserialize runs — catches a
// corrupt catalog checkpoint with a diagnosable error instead of a
// panic deep in replay (SPEC_FULL §3.5).
const checkpointSchema = `{
  "type": "object",
  "required": ["txn_id", "begin_ts", "commit_ts", "deleted"],
  "properties": {
    "txn_id": {"type": "integer"},
    "begin_ts": {"type": "integer"},
    "commit_ts": {"type": "integer"},
    "deleted": {"type": "boolean"},
    "index_dir": {"type": "string"},
    "index_base": {
      "type": "object",
      "required": ["index_name", "index_type", "column_names"],
      "properties": {
        "index_name": {"type": "string"},
        "index_type": {"type": "integer"},
        "column_names": {"type": "array", "items": {"type": "string"}},
        "parameters": {"type": "object"}
      }
    },
    "segment_indexes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["segment_id", "commit_ts"],
        "properties": {
          "segment_id": {"type": "integer"},
          "commit_ts": {"type": "integer"},
          "row_count": {"type": "integer"}
        }
      }
    }
  }
}`

var checkpointSchemaLoader = gojsonschema.NewStringLoader(checkpointSchema)

// IndexBaseDoc is IndexBase's checkpoint representation.
type IndexBaseDoc struct {
	IndexName   string            `json:"index_name"`
	IndexType   IndexType         `json:"index_type"`
	ColumnNames []string          `json:"column_names"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// SegmentDoc is one SegmentIndexEntry's checkpoint representation.
type SegmentDoc struct {
	SegmentID uint64 `json:"segment_id"`
	CommitTS  int64  `json:"commit_ts"`
	RowCount  int    `json:"row_count"`
}

// CheckpointDoc is TableIndexEntry's persistent JSON-shaped document
// (spec §4.3 Serialize, §6.2).
type CheckpointDoc struct {
	TxnID          uint64        `json:"txn_id"`
	BeginTS        int64         `json:"begin_ts"`
	CommitTS       int64         `json:"commit_ts"`
	Deleted        bool          `json:"deleted"`
	IndexDir       string        `json:"index_dir,omitempty"`
	IndexBase      *IndexBaseDoc `json:"index_base,omitempty"`
	SegmentIndexes []SegmentDoc  `json:"segment_indexes,omitempty"`
}

// Serialize snapshots e to a CheckpointDoc. Only segments whose
// commit_ts is non-zero and at most maxCommitTS are included, so a
// checkpoint taken mid-build never references a segment that isn't
// durable yet. Tombstoned entries omit payload entirely.
func (e *TableIndexEntry) Serialize(maxCommitTS int64) *CheckpointDoc {
	doc := &CheckpointDoc{
		TxnID:    e.TxnID,
		BeginTS:  e.BeginTS,
		CommitTS: e.CommitTS(),
		Deleted:  e.Deleted(),
	}
	if doc.Deleted {
		return doc
	}

	doc.IndexDir = e.indexDir
	doc.IndexBase = &IndexBaseDoc{
		IndexName:   e.indexBase.IndexName,
		IndexType:   e.indexBase.IndexType,
		ColumnNames: e.indexBase.ColumnNames,
		Parameters:  e.indexBase.Parameters,
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for id, s := range e.segments {
		ts := s.CommitTS()
		if ts == 0 || ts > maxCommitTS {
			continue
		}
		doc.SegmentIndexes = append(doc.SegmentIndexes, SegmentDoc{
			SegmentID: id,
			CommitTS:  ts,
			RowCount:  s.rowCount,
		})
	}
	return doc
}

// MarshalCheckpoint encodes doc as JSON. It does not validate;
// schema validation happens on the read side, in UnmarshalCheckpoint.
func MarshalCheckpoint(doc *CheckpointDoc) ([]byte, error) {
	return json.Marshal(doc)
}

// UnmarshalCheckpoint validates raw against checkpointSchema before
// decoding it into a CheckpointDoc.
func UnmarshalCheckpoint(raw []byte) (*CheckpointDoc, error) {
	result, err := gojsonschema.Validate(checkpointSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate checkpoint: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid checkpoint document: %v", result.Errors())
	}

	var doc CheckpointDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &doc, nil
}

// Deserialize is Serialize's inverse: it always uses the replay
// constructor so commit_ts is the exact recovered timestamp rather than
// one derived at replay time (spec §4.3).
func Deserialize(doc *CheckpointDoc, meta *TableIndexMeta, partCapacity int) (*TableIndexEntry, error) {
	if doc.Deleted {
		return ReplayTableIndexEntry(meta, "", nil, nil, partCapacity, doc.TxnID, doc.BeginTS, doc.CommitTS, true)
	}

	base := &IndexBase{
		IndexName:   doc.IndexBase.IndexName,
		IndexType:   doc.IndexBase.IndexType,
		ColumnNames: doc.IndexBase.ColumnNames,
		Parameters:  doc.IndexBase.Parameters,
	}

	e, err := ReplayTableIndexEntry(meta, doc.IndexDir, base, nil, partCapacity, doc.TxnID, doc.BeginTS, doc.CommitTS, false)
	if err != nil {
		return nil, err
	}

	for _, sd := range doc.SegmentIndexes {
		s := NewSegmentIndexEntry(sd.SegmentID, e)
		s.Commit(sd.CommitTS)
		s.rowCount = sd.RowCount
		e.segments[sd.SegmentID] = s
	}
	return e, nil
}
