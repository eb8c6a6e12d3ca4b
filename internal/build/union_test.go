package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
)

func TestUnionGraphsMergesNodesAndEdges(t *testing.T) {
	a := backend.NewArray()
	repoA := graph.NodeData{Name: "repoA"}
	a.AddNode(graph.KindRepository, repoA)
	fnA := graph.NodeData{Name: "Handler", File: "a/handler.go"}
	a.AddNodeWithParent(graph.KindFile, graph.NodeData{Name: "handler.go", File: "a/handler.go"}, graph.KindRepository, "")
	a.AddNodeWithParent(graph.KindFunction, fnA, graph.KindFile, "a/handler.go")

	b := backend.NewArray()
	repoB := graph.NodeData{Name: "repoB"}
	b.AddNode(graph.KindRepository, repoB)
	test := graph.NodeData{Name: "it calls Handler", File: "b/e2e.spec.ts", Body: "Handler"}
	b.AddNode(graph.KindE2eTest, test)

	union := UnionGraphs(a, b)

	nodes, _ := union.GraphSize()
	assert.Equal(t, 5, nodes)

	found := union.FindNodesByType(graph.KindFunction)
	require.Len(t, found, 1)
	assert.Equal(t, "Handler", found[0].Name)
}

func TestUnionGraphsPanicsOnEmptyInput(t *testing.T) {
	assert.Panics(t, func() {
		UnionGraphs()
	})
}
