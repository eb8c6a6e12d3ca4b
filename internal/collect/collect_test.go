package collect

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
)

func newGoContext(t *testing.T, bk backend.Backend, file, src string) *Context {
	t.Helper()
	a := golang.New()
	parser := sitter.NewParser()
	parser.SetLanguage(a.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	return &Context{
		Backend: bk,
		Adapter: lang.Adapter(a),
		File:    file,
		Src:     []byte(src),
		Root:    tree.RootNode(),
		Finders: NewFinders(bk),
	}
}

// TestImportsMergePreservesLineOffsets checks the merged Import body
// contract: line k of the body is original-file line start+k, with blank
// lines standing in for the non-import lines between two statements.
func TestImportsMergePreservesLineOffsets(t *testing.T) {
	src := `package main

import "fmt"

import "strings"
`
	bk := backend.New("array")
	bk.AddNode(graph.KindFile, graph.NodeData{Name: "main.go", File: "main.go"})
	c := newGoContext(t, bk, "main.go", src)

	out := c.Imports()
	require.Len(t, out, 1, "one merged Import node per file")
	imp := out[0]

	assert.Equal(t, 2, imp.Start)
	assert.Equal(t, 4, imp.End)

	lines := strings.Split(imp.Body, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `import "fmt"`, lines[0])
	assert.Equal(t, "", lines[1], "the non-import line between statements stays blank")
	assert.Equal(t, `import "strings"`, lines[2])

	assert.Equal(t, []string{"fmt", "strings"}, ImportPaths(imp))
}

func TestFunctionsRecordOperandMeta(t *testing.T) {
	src := `package db

type Store struct{}

func (s *Store) Get() {}
`
	bk := backend.New("array")
	bk.AddNode(graph.KindFile, graph.NodeData{Name: "db.go", File: "db.go"})
	c := newGoContext(t, bk, "db.go", src)

	c.Classes()
	fns := c.Functions()
	require.Len(t, fns, 1)

	operand, ok := fns[0].Meta.Get("operand")
	require.True(t, ok)
	assert.Equal(t, "Store", operand)

	classes := bk.FindNodesByName(graph.KindClass, "Store")
	require.Len(t, classes, 1)
	assert.True(t, bk.HasEdge(
		classes[0].Key(graph.KindClass), fns[0].Key(graph.KindFunction), graph.EdgeOperand))
}

func TestDuplicateEndpointCollapsesByNameFileVerb(t *testing.T) {
	seen := map[string]bool{}
	assert.False(t, duplicateEndpoint(seen, "/people", "routes.rb", "GET"))
	assert.True(t, duplicateEndpoint(seen, "/people", "routes.rb", "GET"))
	assert.False(t, duplicateEndpoint(seen, "/people", "routes.rb", "POST"),
		"a different verb is a different endpoint")
	assert.False(t, duplicateEndpoint(seen, "/people", "other.rb", "GET"),
		"a different file is a different endpoint")
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "people", trimQuotes(`"people"`))
	assert.Equal(t, "people", trimQuotes("'people'"))
	assert.Equal(t, "people", trimQuotes(":people"))
	assert.Equal(t, "people", trimQuotes("people"))
}
