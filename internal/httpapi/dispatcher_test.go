package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komaroffalex/2019-highload-dht/internal/cluster"
	"github.com/komaroffalex/2019-highload-dht/internal/coordinator"
	"github.com/komaroffalex/2019-highload-dht/internal/storage"
	"github.com/komaroffalex/2019-highload-dht/internal/transport"
)

func newTestDispatcher(t *testing.T) (http.Handler, storage.Engine) {
	t.Helper()
	topo, err := cluster.NewTopology([]string{"self"}, "self")
	require.NoError(t, err)
	engine := storage.NewMemoryEngine()
	coord := coordinator.New(topo, engine, transport.New())
	return New(&Dispatcher{Topology: topo, Coordinator: coord, Engine: engine}), engine
}

func TestStatusReturnsOK(t *testing.T) {
	h, _ := newTestDispatcher(t)
	req := httptest.NewRequest(http.MethodGet, "/v0/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestEntityMissingIDReturns400(t *testing.T) {
	h, _ := newTestDispatcher(t)
	req := httptest.NewRequest(http.MethodGet, "/v0/entity", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntityPutThenGetRoundTrip(t *testing.T) {
	h, _ := newTestDispatcher(t)

	putReq := httptest.NewRequest(http.MethodPut, "/v0/entity?id=k1", bytes.NewReader([]byte("hello")))
	putW := httptest.NewRecorder()
	h.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusCreated, putW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/v0/entity?id=k1", nil)
	getW := httptest.NewRecorder()
	h.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
	assert.Equal(t, "hello", getW.Body.String())
}

func TestEntityDeleteThenGetReturns404(t *testing.T) {
	h, _ := newTestDispatcher(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/v0/entity?id=k1", bytes.NewReader([]byte("v"))))

	delW := httptest.NewRecorder()
	h.ServeHTTP(delW, httptest.NewRequest(http.MethodDelete, "/v0/entity?id=k1", nil))
	assert.Equal(t, http.StatusAccepted, delW.Code)

	getW := httptest.NewRecorder()
	h.ServeHTTP(getW, httptest.NewRequest(http.MethodGet, "/v0/entity?id=k1", nil))
	assert.Equal(t, http.StatusNotFound, getW.Code)
}

func TestEntityBadRFReturns400(t *testing.T) {
	h, _ := newTestDispatcher(t)
	req := httptest.NewRequest(http.MethodGet, "/v0/entity?id=k1&replicas=5/1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntityUnsupportedMethodReturns405(t *testing.T) {
	h, _ := newTestDispatcher(t)
	req := httptest.NewRequest(http.MethodPost, "/v0/entity?id=k1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEntitiesMissingStartReturns400(t *testing.T) {
	h, _ := newTestDispatcher(t)
	req := httptest.NewRequest(http.MethodGet, "/v0/entities", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntitiesStreamsOrderedRangeExclusiveEnd(t *testing.T) {
	h, _ := newTestDispatcher(t)
	for _, k := range []string{"a", "aa", "ab", "ac", "b", "c", "cc", "d"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/v0/entity?id="+k, bytes.NewReader([]byte("v-"+k))))
	}

	req := httptest.NewRequest(http.MethodGet, "/v0/entities?start=aa&end=cc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aa\nv-aa"+"ab\nv-ab"+"ac\nv-ac"+"b\nv-b"+"c\nv-c", w.Body.String())
}

func TestEntitiesSkipsDeletedKeys(t *testing.T) {
	h, _ := newTestDispatcher(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/v0/entity?id=a", bytes.NewReader([]byte("va"))))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/v0/entity?id=b", bytes.NewReader([]byte("vb"))))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/v0/entity?id=a", nil))

	req := httptest.NewRequest(http.MethodGet, "/v0/entities?start=a", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "b\nvb", w.Body.String())
}
