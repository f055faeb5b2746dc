package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/komaroffalex/2019-highload-dht/internal/record"
)

// ErrNotFound is returned by Get when the key has no entry.
var ErrNotFound = errors.New("storage: key not found")

// Engine is the ordered key/value store the coordinator persists to.
// Implementations must be safe for concurrent use; get/upsert/remove on
// the same key must be linearizable, and a Range iterator observes a
// point-in-time snapshot of the keys visible when it was created.
type Engine interface {
	Get(key []byte) ([]byte, error)
	Upsert(key, value []byte) error
	Remove(key []byte) error
	// Range returns an iterator over [from, to). A nil to means open-ended.
	Range(from, to []byte) (Iterator, error)
	Compact() error
	Close() error
}

// Iterator walks an ordered snapshot of (key, value) pairs. Callers must
// call Close when done, even after exhausting Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Close() error
}

// memEngine is an in-memory Engine: a map for point lookups plus a
// sorted key index kept in step with it, so Range can binary-search a
// start point instead of scanning and sorting on every call.
type memEngine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	sorted []string
	closed bool
}

// NewMemoryEngine returns an Engine backed by an in-memory sorted map.
func NewMemoryEngine() Engine {
	return &memEngine{data: make(map[string][]byte)}
}

func (e *memEngine) Get(key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (e *memEngine) Upsert(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := string(key)
	stored := make([]byte, len(value))
	copy(stored, value)
	if _, exists := e.data[k]; !exists {
		e.insertSorted(k)
	}
	e.data[k] = stored
	return nil
}

func (e *memEngine) Remove(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := string(key)
	if _, exists := e.data[k]; !exists {
		return nil
	}
	delete(e.data, k)
	e.removeSorted(k)
	return nil
}

func (e *memEngine) Range(from, to []byte) (Iterator, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := sort.SearchStrings(e.sorted, string(from))
	end := len(e.sorted)
	if to != nil {
		end = sort.SearchStrings(e.sorted, string(to))
	}
	if start > end {
		start = end
	}

	keys := make([]string, end-start)
	copy(keys, e.sorted[start:end])
	values := make([][]byte, len(keys))
	for i, k := range keys {
		v := e.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		values[i] = cp
	}
	return &sliceIterator{keys: keys, values: values, pos: -1}, nil
}

// Compact is a no-op for the in-memory engine: there is no stale
// on-disk structure to reclaim, and it must never drop tombstones.
func (e *memEngine) Compact() error {
	return nil
}

func (e *memEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.data = nil
	e.sorted = nil
	return nil
}

func (e *memEngine) insertSorted(k string) {
	i := sort.SearchStrings(e.sorted, k)
	e.sorted = append(e.sorted, "")
	copy(e.sorted[i+1:], e.sorted[i:])
	e.sorted[i] = k
}

func (e *memEngine) removeSorted(k string) {
	i := sort.SearchStrings(e.sorted, k)
	if i < len(e.sorted) && e.sorted[i] == k {
		e.sorted = append(e.sorted[:i], e.sorted[i+1:]...)
	}
}

type sliceIterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *sliceIterator) Key() []byte   { return []byte(it.keys[it.pos]) }
func (it *sliceIterator) Value() []byte { return it.values[it.pos] }
func (it *sliceIterator) Close() error  { return nil }

// GetTS reads and decodes the timestamped record at key, returning
// record.AbsentRecord if the engine reports ErrNotFound.
func GetTS(e Engine, key []byte) (record.Record, error) {
	raw, err := e.Get(key)
	if errors.Is(err, ErrNotFound) {
		return record.AbsentRecord, nil
	}
	if err != nil {
		return record.Record{}, err
	}
	return record.Decode(raw), nil
}

// PutTS encodes a VALUE record stamped with ts and upserts it.
func PutTS(e Engine, key, value []byte, ts int64) error {
	return e.Upsert(key, record.ValueRecord(value, ts).Encode())
}

// DeleteTS encodes a DELETED tombstone stamped with ts and upserts it.
// It never calls Remove: the tombstone must survive so later merges see it.
func DeleteTS(e Engine, key []byte, ts int64) error {
	return e.Upsert(key, record.Tombstone(ts).Encode())
}
