// Package coordinator turns one parsed entity request into one HTTP
// response: it derives the replica list from the cluster topology (or
// collapses to the local node alone when the request is itself a proxied
// sub-request), fans the operation out to every replica concurrently,
// tallies acknowledgements, and — for GET — merges the replicas' answers
// with the timestamped-record merge rule.
//
// No sub-request is retried and no "losing" sub-request is cancelled
// once the ack threshold is reached; its result is simply discarded once
// every goroutine in the fan-out has reported into its own result slot.
package coordinator
