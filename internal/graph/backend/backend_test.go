package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/graph"
)

func constructors() map[string]func() Backend {
	return map[string]func() Backend{
		"array": func() Backend { return NewArray() },
		"map":   func() Backend { return NewMap() },
	}
}

// seedFixture builds a small, deterministic graph: a repository containing
// one file, which contains one function that calls another function.
func seedFixture(b Backend) {
	repo := graph.NodeData{Name: "repo", File: ""}
	b.AddNode(graph.KindRepository, repo)

	file := graph.NodeData{Name: "main.go", File: "main.go"}
	b.AddNodeWithParent(graph.KindFile, file, graph.KindRepository, "")

	main := graph.NodeData{Name: "main", File: "main.go", Start: 3, End: 10, Body: "func main() {}"}
	b.AddNodeWithParent(graph.KindFunction, main, graph.KindFile, "main.go")

	helper := graph.NodeData{Name: "helper", File: "main.go", Start: 12, End: 14, Body: "func helper() {}"}
	b.AddNodeWithParent(graph.KindFunction, helper, graph.KindFile, "main.go")

	b.AddEdge(graph.Calls(graph.KindFunction, main, graph.KindFunction, helper, 5, 5, ""))
}

func nodeKeySet(b Backend) map[string]bool {
	out := map[string]bool{}
	for _, n := range b.AllNodes() {
		out[n.Key()] = true
	}
	return out
}

func edgeKeySet(b Backend) map[string]bool {
	out := map[string]bool{}
	for _, e := range b.AllEdges() {
		out[e.Identity()] = true
	}
	return out
}

func TestBackendEquivalence(t *testing.T) {
	cons := constructors()
	results := map[string]Backend{}
	for name, newBackend := range cons {
		b := newBackend()
		seedFixture(b)
		results[name] = b
	}

	var referenceNodes, referenceEdges map[string]bool
	for name, b := range results {
		nodes := nodeKeySet(b)
		edges := edgeKeySet(b)
		if referenceNodes == nil {
			referenceNodes, referenceEdges = nodes, edges
			continue
		}
		assert.Equal(t, referenceNodes, nodes, "node key set mismatch for backend %q", name)
		assert.Equal(t, referenceEdges, edges, "edge key set mismatch for backend %q", name)
	}
}

func TestBackendIdempotence(t *testing.T) {
	for name, newBackend := range constructors() {
		t.Run(name, func(t *testing.T) {
			b := newBackend()
			seedFixture(b)
			nodesBefore, edgesBefore := b.GraphSize()

			seedFixture(b)
			nodesAfter, edgesAfter := b.GraphSize()

			assert.Equal(t, nodesBefore, nodesAfter)
			assert.Equal(t, edgesBefore, edgesAfter)
		})
	}
}

func TestArrayBackendRenameRewritesEdges(t *testing.T) {
	b := NewArray()
	ep := graph.NodeData{Name: "people", File: "routes.rb", Start: 2, End: 2}
	b.AddNode(graph.KindEndpoint, ep)
	fn := graph.NodeData{Name: "index", File: "controller.rb", Start: 1, End: 3}
	b.AddNode(graph.KindFunction, fn)
	b.AddEdge(graph.Handler(ep, fn))

	renamed, ok := b.RenameNode(graph.KindEndpoint, "people", "routes.rb", 2, "api/people")
	require.True(t, ok)
	assert.Equal(t, "api/people", renamed.Name)

	edges := b.AllEdges()
	require.Len(t, edges, 1)
	assert.Equal(t, renamed.Key(graph.KindEndpoint), edges[0].SourceKey)
}

func TestMapBackendFindNodesByTypeOrdersByKey(t *testing.T) {
	b := NewMap()
	b.AddNode(graph.KindFunction, graph.NodeData{Name: "zeta", File: "a.go"})
	b.AddNode(graph.KindFunction, graph.NodeData{Name: "alpha", File: "a.go"})
	found := b.FindNodesByType(graph.KindFunction)
	require.Len(t, found, 2)
	assert.Equal(t, "alpha", found[0].Name)
	assert.Equal(t, "zeta", found[1].Name)
}

func TestCreateFilteredGraphKeepsOnlyAllowedFiles(t *testing.T) {
	for name, newBackend := range constructors() {
		t.Run(name, func(t *testing.T) {
			b := newBackend()
			seedFixture(b)
			other := graph.NodeData{Name: "other.go", File: "other.go"}
			b.AddNodeWithParent(graph.KindFile, other, graph.KindRepository, "")

			filtered := b.CreateFilteredGraph(map[string]bool{"main.go": true})
			nodes := filtered.AllNodes()
			for _, n := range nodes {
				if n.Kind == graph.KindRepository {
					continue
				}
				assert.Equal(t, "main.go", n.Data.File)
			}
		})
	}
}

func TestFilterOutNodesWithoutChildren(t *testing.T) {
	b := NewArray()
	b.AddNode(graph.KindClass, graph.NodeData{Name: "Widget", File: "w.go"})
	b.AddNode(graph.KindClass, graph.NodeData{Name: "Lonely", File: "w.go"})

	fn := graph.NodeData{Name: "Render", File: "w.go"}
	fn.Meta = graph.NewMeta()
	fn.Meta.Set("operand", "Widget")
	b.AddNode(graph.KindFunction, fn)

	b.FilterOutNodesWithoutChildren(graph.KindClass, graph.KindFunction, "operand")

	classes := b.FindNodesByType(graph.KindClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "Widget", classes[0].Name)
}
