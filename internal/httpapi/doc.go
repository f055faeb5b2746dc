// Package httpapi is the node's HTTP surface: /v0/status, /v0/entity
// (GET/PUT/DELETE, dispatched through the coordinator), and /v0/entities
// (a chunked ordered range scan served directly from the local engine).
//
// The dispatcher's job stops at parsing and validating request
// parameters — the proxy flag, the replica factor, the entity key — and
// handing off to internal/coordinator. It holds no domain logic of its
// own.
package httpapi
