package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/komaroffalex/2019-highload-dht/internal/cluster"
	"github.com/komaroffalex/2019-highload-dht/internal/coordinator"
	"github.com/komaroffalex/2019-highload-dht/internal/record"
	"github.com/komaroffalex/2019-highload-dht/internal/storage"
)

// ProxyHeader mirrors transport.ProxyHeader; duplicated here (rather
// than imported) to keep this package's only coupling to the peer
// transport being the header name, not the client type.
const ProxyHeader = "X-OK-Proxy"

// Dispatcher wires the four HTTP routes onto a Coordinator and the
// local engine.
type Dispatcher struct {
	Topology    cluster.Topology
	Coordinator *coordinator.Coordinator
	Engine      storage.Engine
}

// New builds a chi router exposing /v0/status, /v0/entity, /v0/entities.
func New(d *Dispatcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/v0/status", d.status)

	r.Get("/v0/entity", d.entity)
	r.Put("/v0/entity", d.entity)
	r.Delete("/v0/entity", d.entity)

	r.Get("/v0/entities", d.entities)

	return r
}

func (d *Dispatcher) status(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (d *Dispatcher) entity(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	rf, err := cluster.ParseRF(r.URL.Query().Get("replicas"), d.Topology.N())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var method coordinator.Method
	var body []byte
	switch r.Method {
	case http.MethodGet:
		method = coordinator.Get
	case http.MethodPut:
		method = coordinator.Put
		body, err = io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "cannot read body", http.StatusBadRequest)
			return
		}
	case http.MethodDelete:
		method = coordinator.Delete
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req := coordinator.Request{
		Method:  method,
		Key:     []byte(id),
		Body:    body,
		RF:      rf,
		Proxied: r.Header.Get(ProxyHeader) != "",
	}
	resp := d.Coordinator.Handle(r.Context(), req)
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

// entities streams the ordered [start, end) range from the local engine
// as one HTTP chunk per live key: "key\nvalue". Tombstones are not
// surfaced; a deleted key simply does not appear in the scan.
func (d *Dispatcher) entities(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	if start == "" {
		http.Error(w, "missing start", http.StatusBadRequest)
		return
	}
	end := r.URL.Query().Get("end")

	var endBytes []byte
	if end != "" {
		endBytes = []byte(end)
	}

	it, err := d.Engine.Range([]byte(start), endBytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer it.Close()

	flusher, _ := w.(http.Flusher)
	w.WriteHeader(http.StatusOK)

	for it.Next() {
		rec := record.Decode(it.Value())
		if !rec.IsValue() {
			continue
		}
		fmt.Fprintf(w, "%s\n%s", it.Key(), rec.Val)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
