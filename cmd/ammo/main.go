// Command ammo emits synthetic HTTP/1.1 requests against the key-value
// store's wire format, for feeding into an external load-testing tool.
//
// Usage:
//
//	ammo [-target url] <mode> <count>
//
// mode is one of: puts_unique, puts_overwrite, gets_existing, gets_latest,
// mixed. Each emitted request is framed as:
//
//	<size> <verb>\n<request>\r\n
//
// where size is the byte length of <request> (the raw HTTP/1.1 request
// text, including its own trailing blank line) and verb is the
// lowercase HTTP method.
package main

import (
	"bytes"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/komaroffalex/2019-highload-dht/internal/cluster"
)

const valueLength = 512
const defaultTarget = "http://127.0.0.1:8080"

func main() {
	target := flag.String("target", "", "informational target URL for this ammo run (not emitted in request text); defaults to CLUSTER_NODES' first address, or "+defaultTarget)
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: ammo [-target url] <mode> <count>")
		os.Exit(1)
	}

	mode := args[0]
	count, err := parseCount(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad count: %v\n", err)
		os.Exit(1)
	}

	log.SetOutput(os.Stderr)
	resolvedTarget := resolveTarget(*target)
	log.Printf("ammo target=%s mode=%s count=%d", resolvedTarget, mode, count)

	g := &generator{out: os.Stdout}
	if err := g.run(mode, count); err != nil {
		fmt.Fprintf(os.Stderr, "ammo: %v\n", err)
		os.Exit(1)
	}
}

// resolveTarget honors an explicit -target; otherwise, if CLUSTER_NODES is
// set, it builds a Topology from it purely to log the cluster's listen
// ports (useful when pointing ammo at a locally running cluster without
// repeating the address by hand) and targets the first node in the list.
// Falling back further, it uses defaultTarget. The resolved target is
// informational only — the emitted request lines are always
// origin-relative, per the wire format's own framing.
func resolveTarget(explicit string) string {
	if explicit != "" {
		return explicit
	}

	nodesEnv := os.Getenv("CLUSTER_NODES")
	if nodesEnv == "" {
		return defaultTarget
	}

	var nodes []string
	for _, n := range strings.Split(nodesEnv, ",") {
		if n = strings.TrimSpace(n); n != "" {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return defaultTarget
	}

	topo, err := cluster.NewTopology(nodes, nodes[0])
	if err != nil {
		return defaultTarget
	}
	log.Printf("cluster ports: %v", topo.Ports())
	return nodes[0]
}

func parseCount(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("count must be non-negative, got %d", n)
	}
	return n, nil
}

// generator tracks the synthetic key pool a single ammo run builds up, so
// that gets_existing/gets_latest/puts_overwrite can reference keys a prior
// step in the same run already produced.
type generator struct {
	out    io.Writer
	pool   []string
	latest string
}

func (g *generator) run(mode string, count int) error {
	switch mode {
	case "puts_unique":
		for i := 0; i < count; i++ {
			if err := g.putUnique(); err != nil {
				return err
			}
		}
	case "puts_overwrite":
		g.seedPool(1)
		for i := 0; i < count; i++ {
			if err := g.putOverwrite(); err != nil {
				return err
			}
		}
	case "gets_existing":
		g.seedPool(count)
		for i := 0; i < count; i++ {
			if err := g.getExisting(); err != nil {
				return err
			}
		}
	case "gets_latest":
		g.seedPool(1)
		for i := 0; i < count; i++ {
			if err := g.getLatest(); err != nil {
				return err
			}
		}
	case "mixed":
		g.seedPool(1)
		for i := 0; i < count; i++ {
			if err := g.mixedStep(i); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported mode: %s", mode)
	}
	return nil
}

// seedPool ensures the pool holds at least n keys, generating fresh ones
// as needed. It does not emit any requests.
func (g *generator) seedPool(n int) {
	for len(g.pool) < n {
		key := randomKey()
		g.pool = append(g.pool, key)
		g.latest = key
	}
}

func (g *generator) putUnique() error {
	key := randomKey()
	g.pool = append(g.pool, key)
	g.latest = key
	return g.emitPut(key, randomValue())
}

func (g *generator) putOverwrite() error {
	key := g.pool[randIndex(len(g.pool))]
	g.latest = key
	return g.emitPut(key, randomValue())
}

func (g *generator) getExisting() error {
	key := g.pool[randIndex(len(g.pool))]
	return g.emitGet(key)
}

func (g *generator) getLatest() error {
	return g.emitGet(g.latest)
}

// mixedStep interleaves PUT/GET/DELETE in a fixed weighted rotation: 4
// parts new-key PUT, 2 parts overwrite PUT, 2 parts existing-key GET, 1
// part latest-key GET, 1 part existing-key DELETE, out of every 10 steps.
func (g *generator) mixedStep(i int) error {
	switch i % 10 {
	case 0, 1, 2, 3:
		return g.putUnique()
	case 4, 5:
		return g.putOverwrite()
	case 6, 7:
		return g.getExisting()
	case 8:
		return g.getLatest()
	default:
		key := g.pool[randIndex(len(g.pool))]
		return g.emitDelete(key)
	}
}

func (g *generator) emitPut(key string, value []byte) error {
	var req bytes.Buffer
	fmt.Fprintf(&req, "PUT /v0/entity?id=%s HTTP/1.1\r\n", url.QueryEscape(key))
	fmt.Fprintf(&req, "Content-Length: %d\r\n", len(value))
	req.WriteString("\r\n")
	req.Write(value)
	return g.writeFrame("put", req.Bytes())
}

func (g *generator) emitGet(key string) error {
	var req bytes.Buffer
	fmt.Fprintf(&req, "GET /v0/entity?id=%s HTTP/1.1\r\n", url.QueryEscape(key))
	req.WriteString("\r\n")
	return g.writeFrame("get", req.Bytes())
}

func (g *generator) emitDelete(key string) error {
	var req bytes.Buffer
	fmt.Fprintf(&req, "DELETE /v0/entity?id=%s HTTP/1.1\r\n", url.QueryEscape(key))
	req.WriteString("\r\n")
	return g.writeFrame("delete", req.Bytes())
}

func (g *generator) writeFrame(verb string, request []byte) error {
	if _, err := fmt.Fprintf(g.out, "%d %s\n", len(request), verb); err != nil {
		return err
	}
	if _, err := g.out.Write(request); err != nil {
		return err
	}
	_, err := io.WriteString(g.out, "\r\n")
	return err
}

func randomKey() string {
	return uuid.NewString()
}

func randomValue() []byte {
	value := make([]byte, valueLength)
	_, _ = rand.Read(value)
	return value
}

// randIndex returns a uniform random index in [0, n). n must be positive.
func randIndex(n int) int {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
