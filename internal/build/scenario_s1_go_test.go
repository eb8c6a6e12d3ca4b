package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// TestBuildGoScenario exercises the full pipeline over a small, real Go
// repository: a go.mod declaring one dependency, and a package where one
// function calls another. It asserts the two ambient-stack details that
// are easy to regress silently: Library extraction bypasses tree-sitter
// entirely, and a Calls edge is scoped to the function whose body the call
// site actually falls within.
func TestBuildGoScenario(t *testing.T) {
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
	writeTestFile(t, root, "db.go", `package widget

type Person struct {
	Name string
}

type database struct {
	conn string
}

func (d *database) GetPerson() {}

func (d *database) CreatePerson() {}
`)
	writeTestFile(t, root, "router.go", `package widget

func NewRouter(r Router, d *database) {
	r.Get("/person/{id}", GetPerson)
	r.Post("/person", CreatePerson)
}

func GetPerson() {}

func CreatePerson() {}
`)

	reg := lang.NewRegistry(golang.New())
	b := New(Options{
		Root:     root,
		RepoName: "widget",
		Registry: reg,
		Config:   config.Default(),
	})

	bk, err := b.Build(context.Background())
	require.NoError(t, err)

	libs := bk.FindNodesByType(graph.KindLibrary)
	require.Len(t, libs, 1)
	assert.Equal(t, "github.com/google/uuid", libs[0].Name)
	version, ok := libs[0].Meta.Get("version")
	require.True(t, ok)
	assert.Equal(t, "v1.6.0", version)

	fns := bk.FindNodesByType(graph.KindFunction)
	require.Len(t, fns, 7)

	caller, ok := bk.FindNodeByNameInFile(graph.KindFunction, "Caller", filepath.Join(root, "widget.go"))
	require.True(t, ok)
	helper, ok := bk.FindNodeByNameInFile(graph.KindFunction, "Helper", filepath.Join(root, "widget.go"))
	require.True(t, ok)

	assert.True(t, bk.HasEdge(caller.Key(graph.KindFunction), helper.Key(graph.KindFunction), graph.EdgeCalls))
	assert.False(t, bk.HasEdge(helper.Key(graph.KindFunction), helper.Key(graph.KindFunction), graph.EdgeCalls),
		"Helper's own body does not call itself, so no self-edge should exist")

	// Structs double as data models; the clean step drops only the Class
	// side of a struct no method takes as its receiver.
	classes := bk.FindNodesByType(graph.KindClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "database", classes[0].Name)
	models := bk.FindNodesByType(graph.KindDataModel)
	modelNames := map[string]bool{}
	for _, m := range models {
		modelNames[m.Name] = true
	}
	assert.True(t, modelNames["Person"])

	endpoints := bk.FindNodesByType(graph.KindEndpoint)
	require.Len(t, endpoints, 2)
	byName := map[string]graph.NodeData{}
	for _, ep := range endpoints {
		byName[ep.Name] = ep
	}
	getEP, ok := byName["/person/{id}"]
	require.True(t, ok)
	verb, _ := getEP.Meta.Get("verb")
	assert.Equal(t, "Get", verb)

	getPerson, ok := bk.FindNodeByNameInFile(graph.KindFunction, "GetPerson", filepath.Join(root, "router.go"))
	require.True(t, ok)
	assert.True(t, bk.HasEdge(getEP.Key(graph.KindEndpoint), getPerson.Key(graph.KindFunction), graph.EdgeHandler))

	postEP, ok := byName["/person"]
	require.True(t, ok)
	createPerson, ok := bk.FindNodeByNameInFile(graph.KindFunction, "CreatePerson", filepath.Join(root, "router.go"))
	require.True(t, ok)
	assert.True(t, bk.HasEdge(postEP.Key(graph.KindEndpoint), createPerson.Key(graph.KindFunction), graph.EdgeHandler))
}
