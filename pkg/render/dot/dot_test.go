package dot

import (
	"strings"
	"testing"

	"github.com/topoviz/topoviz/pkg/topo"
)

func buildTree(t *testing.T) *topo.Tree {
	t.Helper()
	tree, err := topo.Build(map[string]topo.Vertex{
		"net":     {ID: "net", Type: topo.TypeNetwork, Group: true},
		"cluster": {ID: "cluster", Type: topo.TypeCluster, ParentID: "net", Group: true},
		"dev-1":   {ID: "dev-1", Type: topo.TypeDevice, ParentID: "cluster", Attrs: map[string]any{"os": "linux"}},
		"dev-2":   {ID: "dev-2", Type: topo.TypeDevice, ParentID: "net"},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tree
}

func TestToDOT_NestsClusters(t *testing.T) {
	out := ToDOT(buildTree(t), nil, Options{})

	netIdx := strings.Index(out, `subgraph "cluster_net"`)
	clusterIdx := strings.Index(out, `subgraph "cluster_cluster"`)
	leafIdx := strings.Index(out, `"dev-1"`)
	if netIdx < 0 || clusterIdx < 0 || leafIdx < 0 {
		t.Fatalf("missing cluster or leaf declarations:\n%s", out)
	}
	if !(netIdx < clusterIdx && clusterIdx < leafIdx) {
		t.Error("nesting order wrong: inner cluster should appear inside outer")
	}
}

func TestToDOT_EmitsEdges(t *testing.T) {
	edges := []topo.Edge{{From: "dev-1", To: "dev-2"}}
	out := ToDOT(buildTree(t), edges, Options{})
	if !strings.Contains(out, `"dev-1" -> "dev-2";`) {
		t.Errorf("edge missing:\n%s", out)
	}
}

func TestToDOT_DetailedLabels(t *testing.T) {
	out := ToDOT(buildTree(t), nil, Options{Detailed: true})
	if !strings.Contains(out, "os: linux") {
		t.Error("detailed label should include attributes")
	}
}

func TestToDOT_VirtualRootNotEmitted(t *testing.T) {
	tree, err := topo.Build(map[string]topo.Vertex{
		"a": {ID: "a", Type: topo.TypeDevice},
		"b": {ID: "b", Type: topo.TypeDevice},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	out := ToDOT(tree, nil, Options{})
	if strings.Contains(out, topo.VirtualRootID) {
		t.Error("virtual root leaked into DOT output")
	}
	if !strings.Contains(out, `"a"`) || !strings.Contains(out, `"b"`) {
		t.Error("roots adopted by the virtual root missing from output")
	}
}
