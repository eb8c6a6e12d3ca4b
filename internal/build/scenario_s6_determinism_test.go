package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
)

// TestBuildIsDeterministic builds the same repository twice and checks the
// two graphs carry identical node/edge identity-key sets, matching the
// determinism guarantee repeated merges of the same inputs must satisfy.
func TestBuildIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "go.mod", "module example.com/widget\n\ngo 1.23\n\nrequire github.com/google/uuid v1.6.0\n")
	writeTestFile(t, root, "widget.go", `package widget

func Helper() int {
	return 1
}

func Caller() int {
	return Helper()
}
`)

	build := func() (nodeKeys, edgeKeys map[string]bool) {
		reg := lang.NewRegistry(golang.New())
		b := New(Options{Root: root, RepoName: "widget", Registry: reg, Config: config.Default()})
		bk, err := b.Build(context.Background())
		require.NoError(t, err)

		nodeKeys = map[string]bool{}
		for _, n := range bk.AllNodes() {
			nodeKeys[n.Key()] = true
		}
		edgeKeys = map[string]bool{}
		for _, e := range bk.AllEdges() {
			edgeKeys[e.Identity()] = true
		}
		return nodeKeys, edgeKeys
	}

	nodes1, edges1 := build()
	nodes2, edges2 := build()

	assert.Equal(t, nodes1, nodes2)
	assert.Equal(t, edges1, edges2)
}
