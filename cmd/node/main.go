// Command node runs a single node of the distributed key-value store.
//
// Every node runs the same binary: there is no separate coordinator
// process. Each node serves the HTTP API directly and, depending on a
// given key's placement, acts as coordinator for some requests and as
// a plain replica for others.
//
// Configuration (environment variables):
//   - NODE_ID: this node's address in CLUSTER_NODES (required)
//   - NODE_LISTEN: local listen address (default ":8081")
//   - CLUSTER_NODES: comma-separated list of all node addresses, including
//     this one (required)
//
// Example usage:
//
//	CLUSTER_NODES=http://10.0.0.1:8081,http://10.0.0.2:8081,http://10.0.0.3:8081 \
//	NODE_ID=http://10.0.0.1:8081 \
//	NODE_LISTEN=:8081 \
//	./node
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/komaroffalex/2019-highload-dht/internal/cluster"
	"github.com/komaroffalex/2019-highload-dht/internal/coordinator"
	"github.com/komaroffalex/2019-highload-dht/internal/httpapi"
	"github.com/komaroffalex/2019-highload-dht/internal/storage"
	"github.com/komaroffalex/2019-highload-dht/internal/transport"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	nodeID := mustGetenv("NODE_ID")
	listen := getenv("NODE_LISTEN", ":8081")
	nodesEnv := mustGetenv("CLUSTER_NODES")

	nodes := splitNodes(nodesEnv)
	topo, err := cluster.NewTopology(nodes, nodeID)
	if err != nil {
		logFatal("bad topology: %v", err)
		return
	}

	engine := storage.NewMemoryEngine()
	tr := transport.New()
	coord := coordinator.New(topo, engine, tr)
	handler := httpapi.New(&httpapi.Dispatcher{
		Topology:    topo,
		Coordinator: coord,
		Engine:      engine,
	})

	s := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("node[%s] listening on %s (cluster: %v)", nodeID, listen, nodes)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := engine.Close(); err != nil {
		log.Printf("engine close error: %v", err)
	}
	log.Println("node stopped")
}

func splitNodes(raw string) []string {
	parts := strings.Split(raw, ",")
	nodes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nodes = append(nodes, p)
		}
	}
	return nodes
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}
