// Package cluster describes the fixed set of nodes a coordinator knows
// about: which node a key is placed on, which nodes hold its replicas,
// and how a request's replica factor (ack/from) is parsed and validated
// against the node count.
//
// The topology is immutable for the process lifetime. There is no
// membership protocol, no rebalancing, and no health tracking: every
// node named in CLUSTER_NODES is assumed reachable, and placement is a
// pure function of the key and the node list.
package cluster
