package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codekg/graphbuild/internal/graph"
)

const remoteBatchSize = 256

// uidNamespace seeds the deterministic surrogate ids the remote backend
// attaches to nodes (§5: "if the remote backend needs a surrogate id, it
// is derived from the identity key or a deterministic seed", never
// random). A fixed namespace plus the identity key as the name input make
// uuid.NewSHA1 stable across runs.
var uidNamespace = uuid.MustParse("6f6e1e2c-6b9e-4f26-9b7f-1f6a5f0d6a41")

// surrogateID derives a deterministic UUID from a node's identity key, for
// callers (downstream Cypher exports, cross-referencing) that want a
// fixed-width id instead of the variable-length key string.
func surrogateID(key string) string {
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}

// RemoteConfig carries the connection parameters for the remote
// property-graph backend. When zero-valued, callers should fall back to
// environment variables (§6: "Remote backend reads connection parameters
// from environment variables when no config is supplied").
type RemoteConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// RemoteBackend implements Backend against an external Neo4j graph
// database (§4.3.3). Every node/edge carries its identity key as a `key`
// property used for MERGE -- the driver never generates a surrogate id, so
// re-running the pipeline against the same database is idempotent and
// deterministic (§5).
type RemoteBackend struct {
	driver   neo4j.DriverWithContext
	database string
	ctx      context.Context
}

// NewRemote opens a driver connection and verifies connectivity with a 5s
// timeout, per §5's "database-connection ready check" cancellation rule. On
// timeout the build aborts with a FatalConfig-class error (§7).
func NewRemote(ctx context.Context, cfg RemoteConfig) (*RemoteBackend, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("remote backend: open driver: %w", err)
	}
	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(readyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("remote backend: not ready within 5s: %w", err)
	}
	return &RemoteBackend{driver: driver, database: cfg.Database, ctx: ctx}, nil
}

func (b *RemoteBackend) Kind() string { return "remote" }

func (b *RemoteBackend) session() neo4j.SessionWithContext {
	return b.driver.NewSession(b.ctx, neo4j.SessionConfig{DatabaseName: b.database})
}

// nodeProps flattens a NodeData (plus Meta) into a Cypher parameter map.
func nodeProps(kind graph.NodeKind, data graph.NodeData) map[string]any {
	key := data.Key(kind)
	props := map[string]any{
		"key":       key,
		"uid":       surrogateID(key),
		"kind":      string(kind),
		"name":      data.Name,
		"file":      data.File,
		"start":     data.Start,
		"end":       data.End,
		"body":      data.Body,
		"data_type": data.DataType,
		"docs":      data.Docs,
	}
	if data.Hash != nil {
		props["hash"] = int64(*data.Hash)
	}
	for _, k := range data.Meta.Keys() {
		v, _ := data.Meta.Get(k)
		props["meta_"+k] = v
	}
	return props
}

func (b *RemoteBackend) AddNode(kind graph.NodeKind, data graph.NodeData) graph.NodeData {
	existing, ok := b.findByKey(data.Key(kind))
	merged := data
	if ok {
		merged = mergeNodeData(existing, data)
	}
	b.writeBatch([]string{
		"MERGE (n:Node {key: $key}) SET n += $props",
	}, []map[string]any{nodeProps(kind, merged)})
	return merged
}

func (b *RemoteBackend) AddNodeWithParent(kind graph.NodeKind, data graph.NodeData, parentKind graph.NodeKind, parentFile string) graph.NodeData {
	result := b.AddNode(kind, data)
	if parent, ok := b.findParent(parentKind, parentFile); ok {
		b.AddEdge(graph.Contains(parentKind, parent, kind, result))
	}
	return result
}

func (b *RemoteBackend) findParent(kind graph.NodeKind, file string) (graph.NodeData, bool) {
	ctx := b.ctx
	session := b.session()
	defer session.Close(ctx)
	res, err := session.Run(ctx, "MATCH (n:Node {kind: $kind, file: $file}) RETURN n LIMIT 1",
		map[string]any{"kind": string(kind), "file": file})
	if err != nil {
		return graph.NodeData{}, false
	}
	record, err := res.Single(ctx)
	if err != nil {
		return graph.NodeData{}, false
	}
	return recordToNodeData(record), true
}

func (b *RemoteBackend) findByKey(key string) (graph.NodeData, bool) {
	ctx := b.ctx
	session := b.session()
	defer session.Close(ctx)
	res, err := session.Run(ctx, "MATCH (n:Node {key: $key}) RETURN n LIMIT 1", map[string]any{"key": key})
	if err != nil {
		return graph.NodeData{}, false
	}
	record, err := res.Single(ctx)
	if err != nil {
		return graph.NodeData{}, false
	}
	return recordToNodeData(record), true
}

func recordToNodeData(record *neo4j.Record) graph.NodeData {
	raw, _ := record.Get("n")
	node, _ := raw.(neo4j.Node)
	props := node.Props
	data := graph.NodeData{
		Name: stringProp(props, "name"),
		File: stringProp(props, "file"),
	}
	if v, ok := props["start"].(int64); ok {
		data.Start = int(v)
	}
	if v, ok := props["end"].(int64); ok {
		data.End = int(v)
	}
	data.Body = stringProp(props, "body")
	data.DataType = stringProp(props, "data_type")
	data.Docs = stringProp(props, "docs")
	data.Meta = graph.NewMeta()
	for k, v := range props {
		if s, ok := v.(string); ok {
			if name, found := trimMetaPrefix(k); found {
				data.Meta.Set(name, s)
			}
		}
	}
	return data
}

func trimMetaPrefix(k string) (string, bool) {
	const prefix = "meta_"
	if len(k) > len(prefix) && k[:len(prefix)] == prefix {
		return k[len(prefix):], true
	}
	return "", false
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func (b *RemoteBackend) AddEdge(edge graph.Edge) {
	if b.HasEdge(edge.SourceKey, edge.TargetKey, edge.Kind) {
		return
	}
	props := map[string]any{
		"source":     edge.SourceKey,
		"target":     edge.TargetKey,
		"kind":       string(edge.Kind),
		"call_start": -1,
		"call_end":   -1,
		"operand":    "",
	}
	if edge.Calls != nil {
		props["call_start"] = edge.Calls.CallStart
		props["call_end"] = edge.Calls.CallEnd
		props["operand"] = edge.Calls.Operand
	}
	b.writeBatch([]string{
		`MATCH (s:Node {key: $source}), (t:Node {key: $target})
		 MERGE (s)-[r:REL {kind: $kind, call_start: $call_start, call_end: $call_end}]->(t)
		 SET r.operand = $operand`,
	}, []map[string]any{props})
}

// writeBatch executes statements in groups of <=256 inside an explicit
// transaction (§4.3), rolling back and surfacing a BackendWrite-class error
// (§7) on any failure rather than leaving a partially committed batch.
func (b *RemoteBackend) writeBatch(statements []string, params []map[string]any) {
	ctx := b.ctx
	session := b.session()
	defer session.Close(ctx)

	_, _ = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i := 0; i < len(params); i += remoteBatchSize {
			end := i + remoteBatchSize
			if end > len(params) {
				end = len(params)
			}
			for j := i; j < end; j++ {
				stmt := statements[0]
				if j < len(statements) {
					stmt = statements[j]
				}
				if _, err := tx.Run(ctx, stmt, params[j]); err != nil {
					return nil, fmt.Errorf("remote backend: batch write: %w", err)
				}
			}
		}
		return nil, nil
	})
}

func (b *RemoteBackend) query(cypher string, params map[string]any) []*neo4j.Record {
	ctx := b.ctx
	session := b.session()
	defer session.Close(ctx)
	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil
	}
	return records
}

func (b *RemoteBackend) FindNodesByName(kind graph.NodeKind, name string) []graph.NodeData {
	records := b.query("MATCH (n:Node {kind: $kind, name: $name}) RETURN n ORDER BY n.key",
		map[string]any{"kind": string(kind), "name": name})
	out := make([]graph.NodeData, 0, len(records))
	for _, r := range records {
		out = append(out, recordToNodeData(r))
	}
	return out
}

func (b *RemoteBackend) FindNodeByNameInFile(kind graph.NodeKind, name, file string) (graph.NodeData, bool) {
	records := b.query("MATCH (n:Node {kind: $kind, name: $name, file: $file}) RETURN n LIMIT 1",
		map[string]any{"kind": string(kind), "name": name, "file": file})
	if len(records) == 0 {
		return graph.NodeData{}, false
	}
	return recordToNodeData(records[0]), true
}

func (b *RemoteBackend) FindNodeByNameAndFileEndWith(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool) {
	records := b.query("MATCH (n:Node {kind: $kind, name: $name}) WHERE n.file ENDS WITH $suffix RETURN n LIMIT 1",
		map[string]any{"kind": string(kind), "name": name, "suffix": suffix})
	if len(records) == 0 {
		return graph.NodeData{}, false
	}
	return recordToNodeData(records[0]), true
}

func (b *RemoteBackend) FindNodesByFileEndsWith(kind graph.NodeKind, suffix string) []graph.NodeData {
	records := b.query("MATCH (n:Node {kind: $kind}) WHERE n.file ENDS WITH $suffix RETURN n ORDER BY n.key",
		map[string]any{"kind": string(kind), "suffix": suffix})
	out := make([]graph.NodeData, 0, len(records))
	for _, r := range records {
		out = append(out, recordToNodeData(r))
	}
	return out
}

func (b *RemoteBackend) FindNodesByType(kind graph.NodeKind) []graph.NodeData {
	records := b.query("MATCH (n:Node {kind: $kind}) RETURN n ORDER BY n.key", map[string]any{"kind": string(kind)})
	out := make([]graph.NodeData, 0, len(records))
	for _, r := range records {
		out = append(out, recordToNodeData(r))
	}
	return out
}

func (b *RemoteBackend) FindNodeInRange(kind graph.NodeKind, row int, file string) (graph.NodeData, bool) {
	records := b.query("MATCH (n:Node {kind: $kind, file: $file}) WHERE n.start <= $row AND n.end >= $row RETURN n LIMIT 1",
		map[string]any{"kind": string(kind), "file": file, "row": row})
	if len(records) == 0 {
		return graph.NodeData{}, false
	}
	return recordToNodeData(records[0]), true
}

func (b *RemoteBackend) FindNodeAt(kind graph.NodeKind, file string, line int) (graph.NodeData, bool) {
	records := b.query("MATCH (n:Node {kind: $kind, file: $file, start: $line}) RETURN n LIMIT 1",
		map[string]any{"kind": string(kind), "file": file, "line": line})
	if len(records) == 0 {
		return graph.NodeData{}, false
	}
	return recordToNodeData(records[0]), true
}

func (b *RemoteBackend) FindSourceEdgeByNameAndFile(kind graph.EdgeKind, targetName, targetFile string) (string, bool) {
	records := b.query(`MATCH (s:Node)-[r:REL {kind: $kind}]->(t:Node {name: $name, file: $file})
		 RETURN s.key AS key LIMIT 1`, map[string]any{"kind": string(kind), "name": targetName, "file": targetFile})
	if len(records) == 0 {
		return "", false
	}
	v, _ := records[0].Get("key")
	s, _ := v.(string)
	return s, s != ""
}

func (b *RemoteBackend) HasEdge(sourceKey, targetKey string, kind graph.EdgeKind) bool {
	records := b.query(`MATCH (:Node {key: $source})-[r:REL {kind: $kind}]->(:Node {key: $target}) RETURN count(r) AS c`,
		map[string]any{"source": sourceKey, "target": targetKey, "kind": string(kind)})
	if len(records) == 0 {
		return false
	}
	v, _ := records[0].Get("c")
	c, _ := v.(int64)
	return c > 0
}

func (b *RemoteBackend) CountEdgesOfType(kind graph.EdgeKind) int {
	records := b.query("MATCH ()-[r:REL {kind: $kind}]->() RETURN count(r) AS c", map[string]any{"kind": string(kind)})
	if len(records) == 0 {
		return 0
	}
	v, _ := records[0].Get("c")
	c, _ := v.(int64)
	return int(c)
}

func (b *RemoteBackend) GraphSize() (int, int) {
	records := b.query("MATCH (n:Node) RETURN count(n) AS c", nil)
	nodes := 0
	if len(records) > 0 {
		v, _ := records[0].Get("c")
		n, _ := v.(int64)
		nodes = int(n)
	}
	records = b.query("MATCH ()-[r:REL]->() RETURN count(r) AS c", nil)
	edges := 0
	if len(records) > 0 {
		v, _ := records[0].Get("c")
		n, _ := v.(int64)
		edges = int(n)
	}
	return nodes, edges
}

func (b *RemoteBackend) AllNodes() []graph.Node {
	records := b.query("MATCH (n:Node) RETURN n, n.kind AS kind ORDER BY n.key", nil)
	out := make([]graph.Node, 0, len(records))
	for _, r := range records {
		kindVal, _ := r.Get("kind")
		kind, _ := kindVal.(string)
		out = append(out, graph.Node{Kind: graph.NodeKind(kind), Data: recordToNodeData(r)})
	}
	return out
}

func (b *RemoteBackend) AllEdges() []graph.Edge {
	records := b.query("MATCH (s:Node)-[r:REL]->(t:Node) RETURN s.key AS s, t.key AS t, r.kind AS kind, r.call_start AS cs, r.call_end AS ce, r.operand AS op ORDER BY s.key, t.key, r.kind", nil)
	out := make([]graph.Edge, 0, len(records))
	for _, r := range records {
		sv, _ := r.Get("s")
		tv, _ := r.Get("t")
		kv, _ := r.Get("kind")
		e := graph.Edge{SourceKey: sv.(string), TargetKey: tv.(string), Kind: graph.EdgeKind(kv.(string))}
		if cs, ok := r.Get("cs"); ok {
			if csv, ok := cs.(int64); ok && csv >= 0 {
				ce, _ := r.Get("ce")
				cev, _ := ce.(int64)
				op, _ := r.Get("op")
				ops, _ := op.(string)
				e.Calls = &graph.CallsMeta{CallStart: int(csv), CallEnd: int(cev), Operand: ops}
			}
		}
		out = append(out, e)
	}
	return out
}

func (b *RemoteBackend) RenameNode(kind graph.NodeKind, oldName, file string, start int, newName string) (graph.NodeData, bool) {
	oldKey := graph.Key(kind, oldName, file, start)
	existing, ok := b.findByKey(oldKey)
	if !ok {
		return graph.NodeData{}, false
	}
	existing.Name = newName
	newKey := existing.Key(kind)
	// Relationships attach to the node itself, so rewriting the key
	// property is enough: AllEdges/HasEdge read endpoint keys back off the
	// nodes, never off a copy stored on the relationship.
	b.writeBatch([]string{
		"MATCH (n:Node {key: $oldKey}) SET n.key = $newKey, n.name = $name",
	}, []map[string]any{{"oldKey": oldKey, "newKey": newKey, "name": newName}})
	return existing, true
}

// PrefixPaths recomputes each node's key Go-side (sanitization and
// lowercasing are not expressible in a portable Cypher one-liner) and
// batches one SET per affected node.
func (b *RemoteBackend) PrefixPaths(root string) {
	root = strings.TrimSuffix(root, "/")
	var stmts []string
	var params []map[string]any
	for _, n := range b.AllNodes() {
		if n.Data.File == "" {
			continue
		}
		oldKey := n.Key()
		n.Data.File = root + "/" + n.Data.File
		stmts = append(stmts, "MATCH (n:Node {key: $oldKey}) SET n.key = $newKey, n.file = $file, n.uid = $uid")
		params = append(params, map[string]any{
			"oldKey": oldKey, "newKey": n.Key(), "file": n.Data.File, "uid": surrogateID(n.Key()),
		})
	}
	b.writeBatch(stmts, params)
}

func (b *RemoteBackend) CreateFilteredGraph(allowed map[string]bool) Backend {
	// The remote backend filters by re-materializing into a fresh in-memory
	// ArrayBackend: the revision filter is used for fast incremental builds
	// where standing up a second remote database per revision would be
	// wasteful, and the filtered result is typically consumed in-process.
	out := NewArray()
	fileByKey := map[string]string{}
	for _, n := range b.AllNodes() {
		fileByKey[n.Key()] = n.Data.File
		if n.Kind == graph.KindRepository || allowed[n.Data.File] {
			out.AddNode(n.Kind, n.Data)
		}
	}
	for _, e := range b.AllEdges() {
		srcFile, srcOK := fileByKey[e.SourceKey]
		dstFile, dstOK := fileByKey[e.TargetKey]
		if !srcOK || !dstOK {
			continue
		}
		if allowed[srcFile] || allowed[dstFile] {
			out.AddEdge(e)
		}
	}
	return out
}

func (b *RemoteBackend) FilterOutNodesWithoutChildren(parentKind, childKind graph.NodeKind, childMetaKey string) {
	records := b.query("MATCH (n:Node {kind: $kind}) RETURN n.meta_"+childMetaKey+" AS v",
		map[string]any{"kind": string(childKind)})
	declared := map[string]bool{}
	for _, r := range records {
		v, _ := r.Get("v")
		if s, ok := v.(string); ok {
			declared[s] = true
		}
	}
	for _, n := range b.FindNodesByType(parentKind) {
		if !declared[n.Name] {
			b.writeBatch([]string{
				`MATCH (n:Node {key: $key}) DETACH DELETE n`,
			}, []map[string]any{{"key": n.Key(parentKind)}})
		}
	}
}

// Close releases the underlying driver.
func (b *RemoteBackend) Close() error {
	return b.driver.Close(b.ctx)
}
