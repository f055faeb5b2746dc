package cluster

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Topology is the fixed, ordered list of node addresses a coordinator
// routes against, plus which of those addresses is this process.
//
// Node order matters: every node in the cluster must construct Topology
// from the same ordered list (CLUSTER_NODES is positional config, not a
// set) so that Placement agrees across the fleet.
type Topology struct {
	Nodes []string
	Self  string
}

// NewTopology builds a Topology from an ordered, non-empty list of node
// addresses and the address of the local node. self must appear in
// nodes.
func NewTopology(nodes []string, self string) (Topology, error) {
	if len(nodes) == 0 {
		return Topology{}, fmt.Errorf("cluster: empty node list")
	}
	if !slices.Contains(nodes, self) {
		return Topology{}, fmt.Errorf("cluster: self %q not present in node list %v", self, nodes)
	}
	cp := make([]string, len(nodes))
	copy(cp, nodes)
	return Topology{Nodes: cp, Self: self}, nil
}

// N is the cluster size.
func (t Topology) N() int { return len(t.Nodes) }

// SelfIndex returns the position of Self within Nodes.
func (t Topology) SelfIndex() int {
	return slices.Index(t.Nodes, t.Self)
}

// Placement returns the count nodes that hold replicas of key, in
// ascending preference order: the key's owner first, then the next
// count-1 nodes walking the ring. count is clamped to N.
func (t Topology) Placement(key []byte, count int) []string {
	n := t.N()
	if n == 0 {
		return nil
	}
	if count > n {
		count = n
	}
	start := int(javaStringHash(key) & 0x7FFFFFFF) % n
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = t.Nodes[(start+i)%n]
	}
	return out
}

// Owner returns the single node that owns key under single-owner
// routing (the degenerate N=1 / no-RF path).
func (t Topology) Owner(key []byte) string {
	n := t.N()
	if n == 0 {
		return ""
	}
	start := int(javaStringHash(key) & 0x7FFFFFFF) % n
	return t.Nodes[start]
}

// Ports extracts the numeric ":port" suffix from every node address.
// Addresses without a parseable trailing port are skipped.
func (t Topology) Ports() []int {
	seen := make(map[int]struct{}, len(t.Nodes))
	out := make([]int, 0, len(t.Nodes))
	for _, addr := range t.Nodes {
		idx := strings.LastIndex(addr, ":")
		if idx < 0 || idx == len(addr)-1 {
			continue
		}
		p, err := strconv.Atoi(addr[idx+1:])
		if err != nil {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// javaStringHash reproduces java.lang.String#hashCode over raw bytes:
// h starts at 0, and h = 31*h + b for every byte b, with int32 overflow
// wrapping the way Java's int arithmetic does. This must stay
// bit-for-bit identical across every client and node that places keys.
func javaStringHash(b []byte) int32 {
	var h int32
	for _, c := range b {
		h = 31*h + int32(c)
	}
	return h
}
