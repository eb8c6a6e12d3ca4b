package build

import (
	"github.com/codekg/graphbuild/internal/graph/backend"
	"github.com/codekg/graphbuild/internal/link"
)

// UnionGraphs merges N per-repo backends into one, by kind, relying on
// identity-key dedup: every node and edge from every input is replayed
// through AddNode/AddEdge on a fresh backend of the first input's kind.
// Grounded on original_source/ast/src/repo.rs's multi-repo driver, which
// runs one Builder per repo and then needs exactly this generalization to
// combine their graphs before linking runs. Panics if backends is empty --
// there is no backend kind to build the union from. A union of remote
// backends materializes in memory (backend.New only constructs the
// in-memory kinds): the combined graph is consumed by the linker and the
// output writer in-process, and standing up a second remote database just
// to hold the union would need connection parameters this function does
// not have.
func UnionGraphs(backends ...backend.Backend) backend.Backend {
	if len(backends) == 0 {
		panic("build: UnionGraphs called with no backends")
	}
	out := backend.New(backends[0].Kind())
	for _, bk := range backends {
		for _, n := range bk.AllNodes() {
			out.AddNode(n.Kind, n.Data)
		}
	}
	for _, bk := range backends {
		for _, e := range bk.AllEdges() {
			out.AddEdge(e)
		}
	}
	return out
}

// LinkAll runs every cross-cutting linking pass over a (possibly unioned)
// graph: test-to-endpoint/page/function edges, then frontend Request ->
// backend Endpoint matching. This is the step spec.md §4.6 describes as
// running "once all per-repo graphs are built (and, in multi-repo builds,
// unioned)" -- it is deliberately not called from Builder.Build, matching
// builder.rs where these passes run as a separate step from
// build_graph_inner.
func LinkAll(bk backend.Backend) {
	link.LinkTests(bk)
	link.LinkAPINodes(bk)
}
