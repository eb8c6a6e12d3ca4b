package backend

import (
	"strings"

	"github.com/codekg/graphbuild/internal/graph"
)

// ArrayBackend is the append-only array backend (§4.3.1): two slices of
// nodes and edges plus string-set indexes for dedup. All queries are linear
// scans -- adequate for small-to-medium repositories and trivial to reason
// about, which is why it is the default for fixture-sized builds and tests.
type ArrayBackend struct {
	nodes    []graph.Node
	edges    []graph.Edge
	nodeIdx  map[string]int // identity key -> index into nodes
	edgeKeys map[string]int // edge identity -> index into edges
}

// NewArray constructs an empty ArrayBackend.
func NewArray() *ArrayBackend {
	return &ArrayBackend{
		nodeIdx:  map[string]int{},
		edgeKeys: map[string]int{},
	}
}

func (b *ArrayBackend) Kind() string { return "array" }

func (b *ArrayBackend) AddNode(kind graph.NodeKind, data graph.NodeData) graph.NodeData {
	key := data.Key(kind)
	if idx, ok := b.nodeIdx[key]; ok {
		merged := mergeNodeData(b.nodes[idx].Data, data)
		b.nodes[idx].Data = merged
		return merged
	}
	b.nodeIdx[key] = len(b.nodes)
	b.nodes = append(b.nodes, graph.Node{Kind: kind, Data: data})
	return data
}

func mergeNodeData(existing, incoming graph.NodeData) graph.NodeData {
	out := existing
	if len(incoming.Body) > len(out.Body) {
		out.Body = incoming.Body
	}
	if out.Meta == nil {
		out.Meta = graph.NewMeta()
	}
	out.Meta.MergeFrom(incoming.Meta)
	if out.Hash == nil {
		out.Hash = incoming.Hash
	}
	if out.DataType == "" {
		out.DataType = incoming.DataType
	}
	if out.Docs == "" {
		out.Docs = incoming.Docs
	}
	return out
}

func (b *ArrayBackend) AddNodeWithParent(kind graph.NodeKind, data graph.NodeData, parentKind graph.NodeKind, parentFile string) graph.NodeData {
	result := b.AddNode(kind, data)
	for _, n := range b.nodes {
		if n.Kind == parentKind && n.Data.File == parentFile {
			b.AddEdge(graph.Contains(parentKind, n.Data, kind, result))
			break
		}
	}
	return result
}

func (b *ArrayBackend) AddEdge(edge graph.Edge) {
	id := edge.Identity()
	if _, ok := b.edgeKeys[id]; ok {
		return
	}
	b.edgeKeys[id] = len(b.edges)
	b.edges = append(b.edges, edge)
}

func (b *ArrayBackend) FindNodesByName(kind graph.NodeKind, name string) []graph.NodeData {
	var out []graph.NodeData
	for _, n := range b.nodes {
		if n.Kind == kind && n.Data.Name == name {
			out = append(out, n.Data)
		}
	}
	return out
}

func (b *ArrayBackend) FindNodeByNameInFile(kind graph.NodeKind, name, file string) (graph.NodeData, bool) {
	for _, n := range b.nodes {
		if n.Kind == kind && n.Data.Name == name && n.Data.File == file {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *ArrayBackend) FindNodeByNameAndFileEndWith(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool) {
	for _, n := range b.nodes {
		if n.Kind == kind && n.Data.Name == name && strings.HasSuffix(n.Data.File, suffix) {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *ArrayBackend) FindNodesByFileEndsWith(kind graph.NodeKind, suffix string) []graph.NodeData {
	var out []graph.NodeData
	for _, n := range b.nodes {
		if n.Kind == kind && strings.HasSuffix(n.Data.File, suffix) {
			out = append(out, n.Data)
		}
	}
	return out
}

func (b *ArrayBackend) FindNodesByType(kind graph.NodeKind) []graph.NodeData {
	var out []graph.NodeData
	for _, n := range b.nodes {
		if n.Kind == kind {
			out = append(out, n.Data)
		}
	}
	return out
}

func (b *ArrayBackend) FindNodeInRange(kind graph.NodeKind, row int, file string) (graph.NodeData, bool) {
	for _, n := range b.nodes {
		if n.Kind == kind && n.Data.File == file && n.Data.Start <= row && row <= n.Data.End {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *ArrayBackend) FindNodeAt(kind graph.NodeKind, file string, line int) (graph.NodeData, bool) {
	for _, n := range b.nodes {
		if n.Kind == kind && n.Data.File == file && n.Data.Start == line {
			return n.Data, true
		}
	}
	return graph.NodeData{}, false
}

func (b *ArrayBackend) FindSourceEdgeByNameAndFile(kind graph.EdgeKind, targetName, targetFile string) (string, bool) {
	for _, e := range b.edges {
		if e.Kind != kind {
			continue
		}
		if n, ok := b.nodeByKey(e.TargetKey); ok && n.Data.Name == targetName && n.Data.File == targetFile {
			return e.SourceKey, true
		}
	}
	return "", false
}

func (b *ArrayBackend) nodeByKey(key string) (graph.Node, bool) {
	if idx, ok := b.nodeIdx[key]; ok {
		return b.nodes[idx], true
	}
	return graph.Node{}, false
}

func (b *ArrayBackend) HasEdge(sourceKey, targetKey string, kind graph.EdgeKind) bool {
	for _, e := range b.edges {
		if e.Kind == kind && e.SourceKey == sourceKey && e.TargetKey == targetKey {
			return true
		}
	}
	return false
}

func (b *ArrayBackend) CountEdgesOfType(kind graph.EdgeKind) int {
	n := 0
	for _, e := range b.edges {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (b *ArrayBackend) GraphSize() (int, int) {
	return len(b.nodes), len(b.edges)
}

func (b *ArrayBackend) AllNodes() []graph.Node {
	out := make([]graph.Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

func (b *ArrayBackend) AllEdges() []graph.Edge {
	out := make([]graph.Edge, len(b.edges))
	copy(out, b.edges)
	return out
}

func (b *ArrayBackend) RenameNode(kind graph.NodeKind, oldName, file string, start int, newName string) (graph.NodeData, bool) {
	oldKey := graph.Key(kind, oldName, file, start)
	idx, ok := b.nodeIdx[oldKey]
	if !ok {
		return graph.NodeData{}, false
	}
	node := b.nodes[idx]
	node.Data.Name = newName
	newKey := node.Data.Key(kind)

	delete(b.nodeIdx, oldKey)
	b.nodeIdx[newKey] = idx
	b.nodes[idx] = node

	for i, e := range b.edges {
		if e.SourceKey == oldKey {
			b.edges[i].SourceKey = newKey
		}
		if e.TargetKey == oldKey {
			b.edges[i].TargetKey = newKey
		}
	}
	return node.Data, true
}

// PrefixPaths prefixes every non-empty File field with root. Node identity
// keys embed the file, so every node is rekeyed and every edge endpoint is
// rewritten to the new key in the same pass.
func (b *ArrayBackend) PrefixPaths(root string) {
	root = strings.TrimSuffix(root, "/")
	rekey := make(map[string]string, len(b.nodes))
	b.nodeIdx = map[string]int{}
	for i := range b.nodes {
		oldKey := b.nodes[i].Data.Key(b.nodes[i].Kind)
		if b.nodes[i].Data.File != "" {
			b.nodes[i].Data.File = root + "/" + b.nodes[i].Data.File
		}
		newKey := b.nodes[i].Data.Key(b.nodes[i].Kind)
		rekey[oldKey] = newKey
		b.nodeIdx[newKey] = i
	}
	b.edgeKeys = map[string]int{}
	for i := range b.edges {
		if k, ok := rekey[b.edges[i].SourceKey]; ok {
			b.edges[i].SourceKey = k
		}
		if k, ok := rekey[b.edges[i].TargetKey]; ok {
			b.edges[i].TargetKey = k
		}
		b.edgeKeys[b.edges[i].Identity()] = i
	}
}

func (b *ArrayBackend) CreateFilteredGraph(allowed map[string]bool) Backend {
	out := NewArray()
	for _, n := range b.nodes {
		if n.Kind == graph.KindRepository || allowed[n.Data.File] {
			out.AddNode(n.Kind, n.Data)
		}
	}
	for _, e := range b.edges {
		srcNode, srcOK := b.nodeByKey(e.SourceKey)
		dstNode, dstOK := b.nodeByKey(e.TargetKey)
		if !srcOK || !dstOK {
			continue
		}
		if allowed[srcNode.Data.File] || allowed[dstNode.Data.File] {
			out.AddEdge(e)
		}
	}
	return out
}

func (b *ArrayBackend) FilterOutNodesWithoutChildren(parentKind, childKind graph.NodeKind, childMetaKey string) {
	declared := map[string]bool{}
	for _, n := range b.nodes {
		if n.Kind != childKind {
			continue
		}
		if v, ok := n.Data.Meta.Get(childMetaKey); ok {
			declared[v] = true
		}
	}
	keep := make([]graph.Node, 0, len(b.nodes))
	removedKeys := map[string]bool{}
	for _, n := range b.nodes {
		if n.Kind == parentKind && !declared[n.Data.Name] {
			removedKeys[n.Data.Key(n.Kind)] = true
			continue
		}
		keep = append(keep, n)
	}
	b.nodes = keep
	b.nodeIdx = map[string]int{}
	for i, n := range b.nodes {
		b.nodeIdx[n.Data.Key(n.Kind)] = i
	}

	keepEdges := make([]graph.Edge, 0, len(b.edges))
	b.edgeKeys = map[string]int{}
	for _, e := range b.edges {
		if removedKeys[e.SourceKey] || removedKeys[e.TargetKey] {
			continue
		}
		b.edgeKeys[e.Identity()] = len(keepEdges)
		keepEdges = append(keepEdges, e)
	}
	b.edges = keepEdges
}
