// Package transport is the coordinator's peer-to-peer HTTP client: a
// single client shared across every outbound sub-request, with a short
// dial timeout so a dead peer fails fast and a per-call deadline applied
// by the caller via context, not baked into the client itself.
//
// Every request this package sends carries X-OK-Proxy: True, marking it
// as inter-coordinator traffic so the receiving node skips its own
// quorum fan-out and answers from local state only.
package transport
