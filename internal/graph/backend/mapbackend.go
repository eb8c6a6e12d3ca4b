package backend

import (
	"sort"
	"strings"

	"github.com/codekg/graphbuild/internal/graph"
)

// MapBackend is the ordered-map backend (§4.3.2): nodes keyed by identity
// string, edges keyed by (src, dst, kind). Prefix scans over the
// lexicographic key order implement "find by kind" faster than a linear
// scan for repositories where that matters; functionally it must behave
// identically to ArrayBackend (§8 backend equivalence).
type MapBackend struct {
	nodes map[string]graph.Node
	edges map[string]graph.Edge
}

// NewMap constructs an empty MapBackend.
func NewMap() *MapBackend {
	return &MapBackend{
		nodes: map[string]graph.Node{},
		edges: map[string]graph.Edge{},
	}
}

func (b *MapBackend) Kind() string { return "map" }

func (b *MapBackend) AddNode(kind graph.NodeKind, data graph.NodeData) graph.NodeData {
	key := data.Key(kind)
	if existing, ok := b.nodes[key]; ok {
		merged := mergeNodeData(existing.Data, data)
		b.nodes[key] = graph.Node{Kind: kind, Data: merged}
		return merged
	}
	b.nodes[key] = graph.Node{Kind: kind, Data: data}
	return data
}

func (b *MapBackend) AddNodeWithParent(kind graph.NodeKind, data graph.NodeData, parentKind graph.NodeKind, parentFile string) graph.NodeData {
	result := b.AddNode(kind, data)
	for _, n := range b.nodes {
		if n.Kind == parentKind && n.Data.File == parentFile {
			b.AddEdge(graph.Contains(parentKind, n.Data, kind, result))
			break
		}
	}
	return result
}

func (b *MapBackend) AddEdge(edge graph.Edge) {
	id := edge.Identity()
	if _, ok := b.edges[id]; ok {
		return
	}
	b.edges[id] = edge
}

// sortedKeys returns the backend's node keys in lexicographic order, the
// mechanism the spec calls "prefix scans over the lexicographic key order".
func (b *MapBackend) sortedKeys() []string {
	keys := make([]string, 0, len(b.nodes))
	for k := range b.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *MapBackend) FindNodesByName(kind graph.NodeKind, name string) []graph.NodeData {
	var out []graph.NodeData
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && n.Data.Name == name {
			out = append(out, n.Data)
		}
	}
	return out
}

func (b *MapBackend) FindNodeByNameInFile(kind graph.NodeKind, name, file string) (graph.NodeData, bool) {
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && n.Data.Name == name && n.Data.File == file {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *MapBackend) FindNodeByNameAndFileEndWith(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool) {
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && n.Data.Name == name && strings.HasSuffix(n.Data.File, suffix) {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *MapBackend) FindNodesByFileEndsWith(kind graph.NodeKind, suffix string) []graph.NodeData {
	var out []graph.NodeData
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && strings.HasSuffix(n.Data.File, suffix) {
			out = append(out, n.Data)
		}
	}
	return out
}

func (b *MapBackend) FindNodesByType(kind graph.NodeKind) []graph.NodeData {
	prefix := string(kind) + "\x1f"
	var out []graph.NodeData
	for _, k := range b.sortedKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, b.nodes[k].Data)
	}
	return out
}

func (b *MapBackend) FindNodeInRange(kind graph.NodeKind, row int, file string) (graph.NodeData, bool) {
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && n.Data.File == file && n.Data.Start <= row && row <= n.Data.End {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *MapBackend) FindNodeAt(kind graph.NodeKind, file string, line int) (graph.NodeData, bool) {
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == kind && n.Data.File == file && n.Data.Start == line {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *MapBackend) FindSourceEdgeByNameAndFile(kind graph.EdgeKind, targetName, targetFile string) (string, bool) {
	keys := make([]string, 0, len(b.edges))
	for k := range b.edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := b.edges[k]
		if e.Kind != kind {
			continue
		}
		if n, ok := b.nodes[e.TargetKey]; ok && n.Data.Name == targetName && n.Data.File == targetFile {
			return e.SourceKey, true
		}
	}
	return "", false
}

func (b *MapBackend) HasEdge(sourceKey, targetKey string, kind graph.EdgeKind) bool {
	for _, e := range b.edges {
		if e.Kind == kind && e.SourceKey == sourceKey && e.TargetKey == targetKey {
			return true
		}
	}
	return false
}

func (b *MapBackend) CountEdgesOfType(kind graph.EdgeKind) int {
	n := 0
	for _, e := range b.edges {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (b *MapBackend) GraphSize() (int, int) {
	return len(b.nodes), len(b.edges)
}

func (b *MapBackend) AllNodes() []graph.Node {
	out := make([]graph.Node, 0, len(b.nodes))
	for _, k := range b.sortedKeys() {
		out = append(out, b.nodes[k])
	}
	return out
}

func (b *MapBackend) AllEdges() []graph.Edge {
	keys := make([]string, 0, len(b.edges))
	for k := range b.edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]graph.Edge, 0, len(keys))
	for _, k := range keys {
		out = append(out, b.edges[k])
	}
	return out
}

func (b *MapBackend) RenameNode(kind graph.NodeKind, oldName, file string, start int, newName string) (graph.NodeData, bool) {
	oldKey := graph.Key(kind, oldName, file, start)
	node, ok := b.nodes[oldKey]
	if !ok {
		return graph.NodeData{}, false
	}
	node.Data.Name = newName
	newKey := node.Data.Key(kind)
	delete(b.nodes, oldKey)
	b.nodes[newKey] = node

	for id, e := range b.edges {
		changed := false
		if e.SourceKey == oldKey {
			e.SourceKey = newKey
			changed = true
		}
		if e.TargetKey == oldKey {
			e.TargetKey = newKey
			changed = true
		}
		if changed {
			delete(b.edges, id)
			b.edges[e.Identity()] = e
		}
	}
	return node.Data, true
}

// PrefixPaths prefixes every non-empty File field with root, rekeying
// nodes and rewriting edge endpoints to the new keys in the same pass
// (node identity keys embed the file).
func (b *MapBackend) PrefixPaths(root string) {
	root = strings.TrimSuffix(root, "/")
	rekey := make(map[string]string, len(b.nodes))
	newNodes := make(map[string]graph.Node, len(b.nodes))
	for oldKey, n := range b.nodes {
		if n.Data.File != "" {
			n.Data.File = root + "/" + n.Data.File
		}
		newKey := n.Data.Key(n.Kind)
		rekey[oldKey] = newKey
		newNodes[newKey] = n
	}
	b.nodes = newNodes

	newEdges := make(map[string]graph.Edge, len(b.edges))
	for _, e := range b.edges {
		if k, ok := rekey[e.SourceKey]; ok {
			e.SourceKey = k
		}
		if k, ok := rekey[e.TargetKey]; ok {
			e.TargetKey = k
		}
		newEdges[e.Identity()] = e
	}
	b.edges = newEdges
}

func (b *MapBackend) CreateFilteredGraph(allowed map[string]bool) Backend {
	out := NewMap()
	for _, k := range b.sortedKeys() {
		n := b.nodes[k]
		if n.Kind == graph.KindRepository || allowed[n.Data.File] {
			out.AddNode(n.Kind, n.Data)
		}
	}
	for _, e := range b.AllEdges() {
		srcNode, srcOK := b.nodes[e.SourceKey]
		dstNode, dstOK := b.nodes[e.TargetKey]
		if !srcOK || !dstOK {
			continue
		}
		if allowed[srcNode.Data.File] || allowed[dstNode.Data.File] {
			out.AddEdge(e)
		}
	}
	return out
}

func (b *MapBackend) FilterOutNodesWithoutChildren(parentKind, childKind graph.NodeKind, childMetaKey string) {
	declared := map[string]bool{}
	for _, n := range b.nodes {
		if n.Kind != childKind {
			continue
		}
		if v, ok := n.Data.Meta.Get(childMetaKey); ok {
			declared[v] = true
		}
	}
	removedKeys := map[string]bool{}
	for k, n := range b.nodes {
		if n.Kind == parentKind && !declared[n.Data.Name] {
			removedKeys[k] = true
		}
	}
	for k := range removedKeys {
		delete(b.nodes, k)
	}
	for id, e := range b.edges {
		if removedKeys[e.SourceKey] || removedKeys[e.TargetKey] {
			delete(b.edges, id)
		}
	}
}
