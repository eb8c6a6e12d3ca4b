// Package backend implements the pluggable graph storage abstraction of
// §4.3: an append-only array backend, an ordered-map backend, and a remote
// property-graph (Neo4j) backend, all satisfying the same Backend interface
// and required to produce identical externally observable graphs (§8).
package backend

import "github.com/codekg/graphbuild/internal/graph"

// Backend is the abstract graph storage contract every implementation must
// satisfy. Methods that read return copies of NodeData, never references
// into backend-internal storage, so callers cannot mutate state through a
// query result (the only sanctioned node mutations are the two rewrites
// named in §3's lifecycle, both performed through backend methods).
type Backend interface {
	// AddNode inserts a new node or, if one with the same identity key
	// already exists, merges into it: union Meta, keep the longer Body.
	// Returns the resulting (post-merge) NodeData.
	AddNode(kind graph.NodeKind, data graph.NodeData) graph.NodeData

	// AddNodeWithParent is AddNode plus an auto-inserted Contains edge from
	// the unique (parentKind, file==parentFile) node, if one exists.
	AddNodeWithParent(kind graph.NodeKind, data graph.NodeData, parentKind graph.NodeKind, parentFile string) graph.NodeData

	// AddEdge inserts edge if its identity key is new; no-op otherwise.
	AddEdge(edge graph.Edge)

	FindNodesByName(kind graph.NodeKind, name string) []graph.NodeData
	FindNodeByNameInFile(kind graph.NodeKind, name, file string) (graph.NodeData, bool)
	FindNodeByNameAndFileEndWith(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool)
	FindNodesByFileEndsWith(kind graph.NodeKind, suffix string) []graph.NodeData
	FindNodesByType(kind graph.NodeKind) []graph.NodeData
	FindNodeInRange(kind graph.NodeKind, row int, file string) (graph.NodeData, bool)
	FindNodeAt(kind graph.NodeKind, file string, line int) (graph.NodeData, bool)

	// FindSourceEdgeByNameAndFile returns the source node key of an edge of
	// kind with the given (name, file) target.
	FindSourceEdgeByNameAndFile(kind graph.EdgeKind, targetName, targetFile string) (string, bool)

	HasEdge(sourceKey, targetKey string, kind graph.EdgeKind) bool
	CountEdgesOfType(kind graph.EdgeKind) int
	GraphSize() (nodes int, edges int)

	// AllNodes and AllEdges enumerate the full graph in deterministic order,
	// used for dump/serialization and for the Linker and Revision Filter,
	// which must see every node regardless of backend implementation.
	AllNodes() []graph.Node
	AllEdges() []graph.Edge

	// RenameNode rewrites a node's Name in place (the only sanctioned
	// mutation besides merge-on-insert) and rewrites every edge whose
	// source or target key referenced the old (kind, oldName, file, start) identity,
	// per the endpoint-group rewrite described in §4.4.j/§9.
	RenameNode(kind graph.NodeKind, oldName, file string, start int, newName string) (graph.NodeData, bool)

	// PrefixPaths concatenates root to every node's File field. One-shot,
	// applied once at pipeline end (§4.5 step 7).
	PrefixPaths(root string)

	// CreateFilteredGraph returns a new backend of the same kind, restricted
	// to nodes whose File is in allowed (plus Repository) and edges whose
	// source or target file is in allowed (§4.7).
	CreateFilteredGraph(allowed map[string]bool) Backend

	// FilterOutNodesWithoutChildren deletes parentKind nodes that no
	// childKind node declares as its parent via meta[childMetaKey], and all
	// edges touching removed nodes (§4.4.m "clean" step).
	FilterOutNodesWithoutChildren(parentKind, childKind graph.NodeKind, childMetaKey string)

	// Kind identifies which concrete implementation this is, for
	// diagnostics and for UnionGraphs to build a fresh backend of the same
	// kind.
	Kind() string
}

// New constructs a backend by name ("array", "map", or "remote"). Remote
// backends require additional connection parameters and are constructed
// directly via NewRemote; New only covers the two in-memory kinds.
func New(kind string) Backend {
	switch kind {
	case "map":
		return NewMap()
	default:
		return NewArray()
	}
}
