// Package collect implements the twelve collection phases (§4.4 a-m):
// one file per phase, each following the query-match -> formatter ->
// graph-insert shape original_source/ast/src/lang/parse/collect.rs and
// format.rs use, adapted onto the Go Adapter/Backend contracts.
package collect

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
	"github.com/codekg/graphbuild/internal/lang"
)

// Context is the per-file state every collector phase needs: the parsed
// tree, the adapter driving it, and the backend matches are inserted
// into. It is not safe for concurrent use -- callers run phases for one
// file sequentially (§5: collection is sequential; only parsing is
// pooled).
type Context struct {
	Backend backend.Backend
	Adapter lang.Adapter
	File    string
	Src     []byte
	Root    *sitter.Node
	Finders lang.Finders

	// SkipBody honors DEV_SKIP_FILE_CONTENT (§6): when set, Function/Test
	// nodes are inserted with an empty Body instead of their captured text.
	SkipBody bool
}

// NewFinders builds the read-only lookup surface collectors and hooks
// share, backed by b but never exposing writes (§4.1 aliasing
// discipline).
func NewFinders(b backend.Backend) lang.Finders {
	return lang.Finders{
		ByNameInFile: func(kind graph.NodeKind, name, file string) (graph.NodeData, bool) {
			return b.FindNodeByNameInFile(kind, name, file)
		},
		ByNameFileSuffix: func(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool) {
			return b.FindNodeByNameAndFileEndWith(kind, name, suffix)
		},
		ByName: func(kind graph.NodeKind, name string) []graph.NodeData {
			return b.FindNodesByName(kind, name)
		},
		InRange: func(kind graph.NodeKind, row int, file string) (graph.NodeData, bool) {
			return b.FindNodeInRange(kind, row, file)
		},
	}
}

// matches runs every query registered for phase and concatenates results
// in query-registration order, then cursor order within each query (§5
// ordering guarantee).
func (c *Context) matches(phase string) []lang.Match {
	var out []lang.Match
	for _, name := range c.Adapter.QueryNames(phase) {
		out = append(out, lang.RunQuery(c.Adapter, name, c.Root, c.Src)...)
	}
	return out
}

func nodeData(name, file string, start, end int, body string) graph.NodeData {
	return graph.NodeData{Name: name, File: file, Start: start, End: end, Body: body}
}
