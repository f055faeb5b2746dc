// Package storage is the coordinator's local persistence facade: an
// ordered byte-keyed, byte-valued engine with point get/upsert/remove,
// an ordered range scan, and compaction, plus a thin layer of
// timestamped wrappers built on internal/record.
//
// The engine itself is the one component this system treats as an
// external collaborator — on a real deployment it would be backed by
// an embedded ordered KV library. This package ships an in-memory
// implementation that satisfies the same Engine interface, which is
// enough to drive the coordinator and its tests; swapping in a
// persistent engine later means implementing Engine, not touching any
// caller.
package storage
