package engine

import (
	"math"
	"sort"
	"sync"

	"github.com/infinidb-io/infinidb/internal/catalog"
)

// rowStore is the minimal in-memory row backing used to exercise
// insert/select/knn end to end; physical storage and the block
// iterator it would feed are out of scope (see
// internal/catalog/block_iterator.go).
type rowStore struct {
	mu      sync.RWMutex
	columns []*catalog.ColumnDef
	rows    []map[string]interface{}
}

func newRowStore(cols []*catalog.ColumnDef) *rowStore {
	return &rowStore{columns: cols}
}

func (s *rowStore) insert(row map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
}

// deleteWhere removes every row whose column value equals matchValue,
// returning the count removed.
func (s *rowStore) deleteWhere(column string, matchValue interface{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	removed := 0
	for _, r := range s.rows {
		if valuesEqual(r[column], matchValue) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return removed
}

// updateWhere sets every column in updates on each row whose column
// value equals matchValue, returning the count updated.
func (s *rowStore) updateWhere(column string, matchValue interface{}, updates map[string]interface{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, r := range s.rows {
		if !valuesEqual(r[column], matchValue) {
			continue
		}
		for k, v := range updates {
			r[k] = v
		}
		updated++
	}
	return updated
}

func valuesEqual(a, b interface{}) bool {
	af, aok := a.([]float32)
	bf, bok := b.([]float32)
	if aok || bok {
		if !aok || !bok || len(af) != len(bf) {
			return false
		}
		for i := range af {
			if af[i] != bf[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

func (s *rowStore) column(name string) *catalog.ColumnDef {
	for _, c := range s.columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// selectColumns returns, per requested column name, the row values in
// insertion order (the wire encoder in internal/protocol then packs
// each by its logic type).
func (s *rowStore) selectColumns(names []string) map[string][]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]interface{}, len(names))
	for _, name := range names {
		vals := make([]interface{}, len(s.rows))
		for i, r := range s.rows {
			vals[i] = r[name]
		}
		out[name] = vals
	}
	return out
}

// knnResult is one ranked match from a KNN scan.
type knnResult struct {
	RowIndex int
	Distance float32
}

// knn performs a brute-force nearest-neighbor scan over an embedding
// column, standing in for an IVFFlat/HNSW index lookup (spec §4.2,
// §8 scenario: KNN top-1 search returns the closest row first).
func (s *rowStore) knn(column string, query []float32, distance catalog.KnnDistance, topN int64) []knnResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]knnResult, 0, len(s.rows))
	for i, r := range s.rows {
		v, ok := r[column].([]float32)
		if !ok || len(v) != len(query) {
			continue
		}
		results = append(results, knnResult{RowIndex: i, Distance: vectorDistance(distance, query, v)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if int64(len(results)) > topN && topN > 0 {
		results = results[:topN]
	}
	return results
}

func vectorDistance(kind catalog.KnnDistance, a, b []float32) float32 {
	switch kind {
	case catalog.DistanceCosine:
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
	case catalog.DistanceInnerProduct:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return float32(-dot)
	case catalog.DistanceHamming:
		var diff int
		for i := range a {
			if a[i] != b[i] {
				diff++
			}
		}
		return float32(diff)
	default: // DistanceL2
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum))
	}
}
