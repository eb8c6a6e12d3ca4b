package collect

import "github.com/codekg/graphbuild/internal/graph"

// requestsWithin is phase (h)'s request_finder sub-item: runs the
// adapter's "requests" query (a frontend fetch/HTTP-call expression)
// scoped to enclosing's body and turns each match into a Request node
// plus a Calls edge enclosing->Request (§4.4.h.2). The Linker later
// resolves these against backend Endpoint nodes by normalized path+verb
// (§4.6). Adapters that register no "requests" query (Go, Ruby) make this
// a no-op, matching their languages having no client-side HTTP calls to
// find.
func (c *Context) requestsWithin(enclosing graph.NodeData) []graph.NodeData {
	var out []graph.NodeData
	for _, m := range c.matches("requests") {
		pathCap, ok := m.Get("request-path")
		if !ok {
			continue
		}
		if pathCap.StartLine() < enclosing.Start || pathCap.StartLine() > enclosing.End {
			continue
		}
		name := trimQuotes(pathCap.Text(c.Src))

		anchor, hasAnchor := m.Get("request")
		start, end := pathCap.StartLine(), pathCap.EndLine()
		if hasAnchor {
			start, end = anchor.StartLine(), anchor.EndLine()
		}

		verb := "GET"
		if v, ok := m.Get("request-verb-value"); ok {
			verb = trimQuotes(v.Text(c.Src))
		}

		data := nodeData(name, c.File, start, end, "")
		graph.MetaOf(&data).Set("verb", verb)
		req := c.Backend.AddNodeWithParent(graph.KindRequest, data, graph.KindFile, c.File)
		out = append(out, req)

		c.Backend.AddEdge(graph.Calls(graph.KindFunction, enclosing, graph.KindRequest, req, start, end, ""))
	}
	return out
}
