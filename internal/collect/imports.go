package collect

import (
	"strings"

	"github.com/codekg/graphbuild/internal/graph"
)

// importSpan is one matched import statement's line range.
type importSpan struct {
	start, end int
}

// Imports is phase (b): one Import node per file, whose body is the
// concatenation of every matched import statement with blank lines
// inserted between them so that line k of the body is original-file line
// start+k. Raw paths are resolved through the adapter's ResolveImportPath
// hook when set (Go import paths need no rewriting; Ruby/JS relative
// requires do) and recorded in meta["paths"], one per line, for the
// import-edge and library-linking passes that run after every file has
// been collected.
func (c *Context) Imports() []graph.NodeData {
	hooks := c.Adapter.Hooks()
	var spans []importSpan
	var paths []string
	first, last := -1, 0
	for _, m := range c.matches("imports") {
		pathCap, ok := m.Get("import-path")
		if !ok {
			continue
		}
		raw := trimQuotes(pathCap.Text(c.Src))
		if hooks.ResolveImportPath != nil {
			raw = hooks.ResolveImportPath(raw)
		}
		paths = append(paths, raw)

		start, end := pathCap.StartLine(), pathCap.EndLine()
		if stmt, ok := m.Get("import"); ok {
			start, end = stmt.StartLine(), stmt.EndLine()
		}
		spans = append(spans, importSpan{start, end})
		if first == -1 || start < first {
			first = start
		}
		if end > last {
			last = end
		}
	}
	if len(paths) == 0 {
		return nil
	}

	body := ""
	if !c.SkipBody {
		body = importBody(c.Src, spans, first, last)
	}
	data := nodeData(c.File, c.File, first, last, body)
	graph.MetaOf(&data).Set("paths", strings.Join(paths, "\n"))
	node := c.Backend.AddNodeWithParent(graph.KindImport, data, graph.KindFile, c.File)
	return []graph.NodeData{node}
}

// importBody reconstructs the merged import body: result line k is source
// line first+k when that line falls inside some import statement's range,
// and blank otherwise. Line-based tooling pointed at the body can keep
// addressing the original file without an offset table.
func importBody(src []byte, spans []importSpan, first, last int) string {
	lines := strings.Split(string(src), "\n")
	out := make([]string, 0, last-first+1)
	for ln := first; ln <= last; ln++ {
		kept := ""
		for _, s := range spans {
			if ln >= s.start && ln <= s.end && ln < len(lines) {
				kept = lines[ln]
				break
			}
		}
		out = append(out, kept)
	}
	return strings.Join(out, "\n")
}

// ImportPaths returns the resolved import paths an Imports pass recorded
// on a node, in source order.
func ImportPaths(imp graph.NodeData) []string {
	joined, ok := imp.Meta.Get("paths")
	if !ok || joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}

// LinkImportedLibraries emits Imports edges from each file's Import node
// to the matching Library node, once libraries for the whole repository
// are known (the pass runs after every file's libraries phase).
func (c *Context) LinkImportedLibraries(imports []graph.NodeData, libraries []graph.NodeData) {
	byName := map[string]graph.NodeData{}
	for _, l := range libraries {
		byName[l.Name] = l
	}
	for _, imp := range imports {
		for _, p := range ImportPaths(imp) {
			if lib, ok := byName[p]; ok {
				c.Backend.AddEdge(graph.Imports(graph.KindImport, imp, graph.KindLibrary, lib))
			}
		}
	}
}
