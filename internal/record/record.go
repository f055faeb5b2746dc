package record

import "encoding/binary"

// Tag identifies what kind of record this is: a live value, a tombstone
// left behind by a delete, or the in-memory stand-in for "nothing here".
type Tag int8

const (
	// Deleted marks a tombstone: the key existed once and was removed.
	Deleted Tag = -1
	// Absent is never persisted. It is what a failed/missing lookup decodes to.
	Absent Tag = 0
	// Value marks a live record carrying client bytes.
	Value Tag = 1
)

const headerSize = 9 // 1 tag byte + 8 timestamp bytes

// Record is the unit the coordinator stores locally and exchanges with
// peers: a tag, the millisecond timestamp the coordinator stamped it with,
// and the value bytes (only meaningful when Tag == Value).
type Record struct {
	Tag       Tag
	Timestamp int64
	Val       []byte
}

// AbsentRecord is the canonical "not found" record: Absent tag, timestamp -1.
var AbsentRecord = Record{Tag: Absent, Timestamp: -1}

// Tombstone builds a DELETED record stamped with t.
func Tombstone(t int64) Record {
	return Record{Tag: Deleted, Timestamp: t}
}

// ValueRecord builds a VALUE record carrying v, stamped with t.
func ValueRecord(v []byte, t int64) Record {
	return Record{Tag: Value, Timestamp: t, Val: v}
}

// IsValue reports whether r carries a live value.
func (r Record) IsValue() bool { return r.Tag == Value }

// IsDeleted reports whether r is a tombstone.
func (r Record) IsDeleted() bool { return r.Tag == Deleted }

// IsAbsent reports whether r represents "nothing here".
func (r Record) IsAbsent() bool { return r.Tag == Absent }

// Encode produces the on-disk/on-wire form: tag byte, big-endian int64
// timestamp, and the value bytes when Tag == Value.
func (r Record) Encode() []byte {
	n := headerSize
	if r.Tag == Value {
		n += len(r.Val)
	}
	out := make([]byte, n)
	out[0] = byte(r.Tag)
	binary.BigEndian.PutUint64(out[1:headerSize], uint64(r.Timestamp))
	if r.Tag == Value {
		copy(out[headerSize:], r.Val)
	}
	return out
}

// Decode parses the layout Encode produces. A nil or empty input decodes to
// AbsentRecord, matching the in-memory meaning of "engine returned not found".
// Any other input shorter than the fixed header also decodes to Absent,
// since a torn or truncated record carries no trustworthy timestamp.
func Decode(b []byte) Record {
	if len(b) == 0 {
		return AbsentRecord
	}
	if len(b) < headerSize {
		return AbsentRecord
	}
	tag := Tag(int8(b[0]))
	ts := int64(binary.BigEndian.Uint64(b[1:headerSize]))
	switch tag {
	case Value:
		val := make([]byte, len(b)-headerSize)
		copy(val, b[headerSize:])
		return Record{Tag: Value, Timestamp: ts, Val: val}
	case Deleted:
		return Record{Tag: Deleted, Timestamp: ts}
	default:
		return Record{Tag: Absent, Timestamp: ts}
	}
}

// Merge reduces a list of records drawn from replica answers to the single
// record the coordinator should act on: the entry with the highest
// timestamp, breaking ties by preferring VALUE over DELETED over ABSENT.
// An empty list, or a list containing only ABSENT entries, merges to
// AbsentRecord.
//
// Merge is built as an explicit left-to-right reduction rather than a sort,
// so that merge([a, b, c]) == merge(merge([a, b]), c) holds regardless of
// input order — associativity only needs to survive the tie-break rule, not
// a total order on Record itself.
func Merge(records []Record) Record {
	best := AbsentRecord
	seen := false
	for _, r := range records {
		if r.IsAbsent() {
			continue
		}
		if !seen {
			best = r
			seen = true
			continue
		}
		best = pick(best, r)
	}
	return best
}

// pick returns whichever of a, b wins the merge tie-break: higher timestamp,
// then VALUE over DELETED (ABSENT never reaches here since callers filter it).
func pick(a, b Record) Record {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp > b.Timestamp {
			return a
		}
		return b
	}
	if a.Tag == Value {
		return a
	}
	if b.Tag == Value {
		return b
	}
	return a
}
