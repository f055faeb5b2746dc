// Package record implements the timestamped record format the coordinator
// persists to and exchanges with its replicas: a single tag byte, an 8-byte
// big-endian timestamp, and an optional value, plus the last-writer-wins
// merge rule used to reduce a set of replica answers to one record.
//
// The wire/on-disk layout is fixed for the lifetime of a data directory:
// there is no version byte and no schema evolution story. Treat any change
// to Encode/Decode as a breaking change to both storage and replication.
package record
