package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopologyRequiresSelfInNodes(t *testing.T) {
	_, err := NewTopology([]string{"a:1", "b:2"}, "c:3")
	require.Error(t, err)
}

func TestNewTopologyRejectsEmpty(t *testing.T) {
	_, err := NewTopology(nil, "a:1")
	require.Error(t, err)
}

func TestJavaStringHashKnownValues(t *testing.T) {
	// java.lang.String("a").hashCode() == 97, "abc".hashCode() == 96354.
	assert.Equal(t, int32(97), javaStringHash([]byte("a")))
	assert.Equal(t, int32(96354), javaStringHash([]byte("abc")))
	assert.Equal(t, int32(0), javaStringHash([]byte("")))
}

func TestPlacementReturnsContiguousNodes(t *testing.T) {
	topo, err := NewTopology([]string{"n0", "n1", "n2", "n3"}, "n0")
	require.NoError(t, err)

	key := []byte("some-key")
	placement := topo.Placement(key, 2)
	require.Len(t, placement, 2)

	owner := topo.Owner(key)
	assert.Equal(t, owner, placement[0])

	start := -1
	for i, n := range topo.Nodes {
		if n == owner {
			start = i
			break
		}
	}
	require.NotEqual(t, -1, start)
	assert.Equal(t, topo.Nodes[(start+1)%4], placement[1])
}

func TestPlacementIsDeterministic(t *testing.T) {
	topo, _ := NewTopology([]string{"n0", "n1", "n2"}, "n0")
	key := []byte("stable-key")
	first := topo.Placement(key, 3)
	second := topo.Placement(key, 3)
	assert.Equal(t, first, second)
}

func TestPlacementClampsCountToN(t *testing.T) {
	topo, _ := NewTopology([]string{"n0", "n1"}, "n0")
	placement := topo.Placement([]byte("k"), 10)
	assert.Len(t, placement, 2)
}

func TestPortsExtractsNumericSuffix(t *testing.T) {
	topo, _ := NewTopology([]string{"http://host-a:8080", "http://host-b:8081"}, "http://host-a:8080")
	assert.Equal(t, []int{8080, 8081}, topo.Ports())
}

func TestPortsSkipsUnparseable(t *testing.T) {
	topo, _ := NewTopology([]string{"http://host-a", "http://host-b:8081"}, "http://host-a")
	assert.Equal(t, []int{8081}, topo.Ports())
}

func TestSelfIndex(t *testing.T) {
	topo, _ := NewTopology([]string{"n0", "n1", "n2"}, "n1")
	assert.Equal(t, 1, topo.SelfIndex())
}
