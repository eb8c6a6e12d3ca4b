package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
)

func TestFilterKeepsOnlyAllowedFiles(t *testing.T) {
	bk := backend.NewArray()
	bk.AddNode(graph.KindRepository, graph.NodeData{Name: "repo"})
	bk.AddNodeWithParent(graph.KindFile, graph.NodeData{Name: "a.go", File: "a.go"}, graph.KindRepository, "")
	bk.AddNodeWithParent(graph.KindFile, graph.NodeData{Name: "b.go", File: "b.go"}, graph.KindRepository, "")
	fn := graph.NodeData{Name: "DoThing", File: "a.go"}
	bk.AddNodeWithParent(graph.KindFunction, fn, graph.KindFile, "a.go")
	other := graph.NodeData{Name: "OtherThing", File: "b.go"}
	bk.AddNodeWithParent(graph.KindFunction, other, graph.KindFile, "b.go")

	filtered := Filter(bk, []string{"a.go"})

	for _, n := range filtered.AllNodes() {
		if n.Kind == graph.KindRepository {
			continue
		}
		assert.Equal(t, "a.go", n.Data.File)
	}
}

func TestFilterNormalizesFilePaths(t *testing.T) {
	bk := backend.NewArray()
	bk.AddNode(graph.KindRepository, graph.NodeData{Name: "repo"})
	bk.AddNodeWithParent(graph.KindFile, graph.NodeData{Name: "a.go", File: "a.go"}, graph.KindRepository, "")

	// A leading "/" (as a caller might pass from an absolute diff path)
	// should normalize the same way graph.NormalizeFile does internally.
	filtered := Filter(bk, []string{"/a.go"})

	nodes := filtered.AllNodes()
	var found bool
	for _, n := range nodes {
		if n.Kind == graph.KindFile && n.Data.File == "a.go" {
			found = true
		}
	}
	assert.True(t, found, "expected a.go to survive filtering with a /-prefixed allowed path")
}
