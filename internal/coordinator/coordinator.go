package coordinator

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/komaroffalex/2019-highload-dht/internal/cluster"
	"github.com/komaroffalex/2019-highload-dht/internal/record"
	"github.com/komaroffalex/2019-highload-dht/internal/storage"
	"github.com/komaroffalex/2019-highload-dht/internal/transport"
)

const peerDeadline = 5 * time.Second

// Method names the coordinator dispatches on.
type Method string

const (
	Get    Method = "GET"
	Put    Method = "PUT"
	Delete Method = "DELETE"
)

// Request is one parsed entity operation handed to the coordinator.
type Request struct {
	Method  Method
	Key     []byte
	Body    []byte // PUT only
	RF      cluster.ReplicaFactor
	Proxied bool
}

// Response is the single response the coordinator produces per request.
type Response struct {
	Status int
	Body   []byte
}

// Coordinator fans entity requests out across the replica set and
// reduces the answers to one response.
type Coordinator struct {
	Topology  cluster.Topology
	Engine    storage.Engine
	Transport *transport.Client

	// now is overridable in tests; defaults to the wall clock in
	// milliseconds, the unit spec.md's timestamped records use.
	now func() int64
}

// New builds a Coordinator over the given topology, local engine, and
// peer transport.
func New(topo cluster.Topology, engine storage.Engine, tr *transport.Client) *Coordinator {
	return &Coordinator{
		Topology:  topo,
		Engine:    engine,
		Transport: tr,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Handle dispatches req to the right method handler. Every call is tagged
// with a trace ID purely for log correlation across the fan-out goroutines
// it spawns; the ID never leaves the process.
func (c *Coordinator) Handle(ctx context.Context, req Request) Response {
	traceID := uuid.NewString()
	log.Printf("trace=%s method=%s key=%q proxied=%v", traceID, req.Method, req.Key, req.Proxied)

	var resp Response
	switch req.Method {
	case Get:
		resp = c.handleGet(ctx, req)
	case Put:
		resp = c.handlePut(ctx, req)
	case Delete:
		resp = c.handleDelete(ctx, req)
	default:
		resp = Response{Status: http.StatusMethodNotAllowed}
	}

	log.Printf("trace=%s status=%d", traceID, resp.Status)
	return resp
}

// replicas derives the fan-out target list and the ack threshold to
// apply against it. A proxied request always targets the local node
// alone; the ack/from pair it carried from upstream no longer applies
// once the replica list has collapsed to a single entry, so the
// effective factor becomes 1/1.
func (c *Coordinator) replicas(req Request) ([]string, cluster.ReplicaFactor) {
	if req.Proxied {
		return []string{c.Topology.Self}, cluster.ReplicaFactor{Ack: 1, From: 1}
	}
	return c.Topology.Placement(req.Key, req.RF.From), req.RF
}

func peerURL(node string, path string) string {
	return node + path
}

func entityPath(key []byte) string {
	return "/v0/entity?id=" + url.QueryEscape(string(key))
}

type getOutcome struct {
	acked bool
	rec   record.Record
}

func (c *Coordinator) handleGet(ctx context.Context, req Request) Response {
	replicas, rf := c.replicas(req)
	outcomes := make([]getOutcome, len(replicas))

	var wg sync.WaitGroup
	for i, node := range replicas {
		wg.Add(1)
		go func(i int, node string) {
			defer wg.Done()
			outcomes[i] = c.getOne(ctx, node, req.Key)
		}(i, node)
	}
	wg.Wait()

	ackCount := 0
	var records []record.Record
	for _, o := range outcomes {
		if !o.acked {
			continue
		}
		ackCount++
		records = append(records, o.rec)
	}

	if ackCount < rf.Ack {
		return Response{Status: http.StatusGatewayTimeout}
	}

	merged := record.Merge(records)
	switch merged.Tag {
	case record.Value:
		if req.Proxied && len(replicas) == 1 {
			return Response{Status: http.StatusOK, Body: merged.Encode()}
		}
		return Response{Status: http.StatusOK, Body: merged.Val}
	case record.Deleted:
		return Response{Status: http.StatusNotFound, Body: merged.Encode()}
	default:
		return Response{Status: http.StatusNotFound}
	}
}

// getOne executes a single GET sub-request, local or remote. A 5xx
// status or a transport-level failure contributes no ack; anything else
// that produced a response — including a peer we failed to decode —
// acks, with the unreadable case simply decoding to ABSENT via
// record.Decode's own leniency.
func (c *Coordinator) getOne(ctx context.Context, node string, key []byte) getOutcome {
	if node == c.Topology.Self {
		rec, err := storage.GetTS(c.Engine, key)
		if err != nil {
			return getOutcome{}
		}
		return getOutcome{acked: true, rec: rec}
	}

	reqCtx, cancel := context.WithTimeout(ctx, peerDeadline)
	defer cancel()
	resp, err := c.Transport.Get(reqCtx, peerURL(node, entityPath(key)))
	if err != nil || resp.Status >= http.StatusInternalServerError {
		return getOutcome{}
	}
	return getOutcome{acked: true, rec: record.Decode(resp.Body)}
}

func (c *Coordinator) handlePut(ctx context.Context, req Request) Response {
	replicas, rf := c.replicas(req)
	ts := c.now()
	acks := make([]bool, len(replicas))

	var wg sync.WaitGroup
	for i, node := range replicas {
		wg.Add(1)
		go func(i int, node string) {
			defer wg.Done()
			acks[i] = c.putOne(ctx, node, req.Key, req.Body, ts)
		}(i, node)
	}
	wg.Wait()

	if countTrue(acks) < rf.Ack {
		return Response{Status: http.StatusGatewayTimeout}
	}
	return Response{Status: http.StatusCreated}
}

func (c *Coordinator) putOne(ctx context.Context, node string, key, value []byte, ts int64) bool {
	if node == c.Topology.Self {
		return storage.PutTS(c.Engine, key, value, ts) == nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, peerDeadline)
	defer cancel()
	resp, err := c.Transport.Put(reqCtx, peerURL(node, entityPath(key)), value)
	return err == nil && resp.Status == http.StatusCreated
}

func (c *Coordinator) handleDelete(ctx context.Context, req Request) Response {
	replicas, rf := c.replicas(req)
	ts := c.now()
	acks := make([]bool, len(replicas))

	var wg sync.WaitGroup
	for i, node := range replicas {
		wg.Add(1)
		go func(i int, node string) {
			defer wg.Done()
			acks[i] = c.deleteOne(ctx, node, req.Key, ts)
		}(i, node)
	}
	wg.Wait()

	if countTrue(acks) < rf.Ack {
		return Response{Status: http.StatusGatewayTimeout}
	}
	return Response{Status: http.StatusAccepted}
}

func (c *Coordinator) deleteOne(ctx context.Context, node string, key []byte, ts int64) bool {
	if node == c.Topology.Self {
		return storage.DeleteTS(c.Engine, key, ts) == nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, peerDeadline)
	defer cancel()
	resp, err := c.Transport.Delete(reqCtx, peerURL(node, entityPath(key)))
	return err == nil && resp.Status == http.StatusAccepted
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
