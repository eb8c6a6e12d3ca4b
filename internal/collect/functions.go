package collect

import "github.com/codekg/graphbuild/internal/graph"

// Functions is phase (h): function/method declarations as Function nodes
// (or Test nodes when the adapter's IsTestFile hook says so), each scanned
// for contained requests (requestsWithin, §4.4.h.2), plus an Operand edge
// back to the owning Class for methods, via the receiver capture or the
// FindFunctionParent hook (§4.1). The parent's name is also recorded in
// meta["operand"], which the clean phase reads to drop classes no
// function belongs to.
func (c *Context) Functions() []graph.NodeData {
	hooks := c.Adapter.Hooks()
	isTest := c.Adapter.IsTestFileDefault(c.File)
	if hooks.IsTestFile != nil {
		isTest = hooks.IsTestFile(c.File, string(c.Src))
	}
	kind := graph.KindFunction
	if isTest {
		kind = graph.KindTest
		if hooks.IsE2ETestFile != nil && hooks.IsE2ETestFile(c.File) {
			kind = graph.KindE2eTest
		}
	}

	var out []graph.NodeData
	for _, m := range c.matches("functions") {
		nameCap, ok := m.Get("function-name")
		if !ok {
			continue
		}
		bodyText := ""
		if !c.SkipBody {
			if b, ok := m.Get("function-body"); ok {
				bodyText = b.Text(c.Src)
			}
		}
		anchor, hasAnchor := m.Get("function")
		if !hasAnchor {
			// Some queries (e.g. Go's method_declaration) anchor the whole
			// declaration under a different capture name than "function".
			anchor, hasAnchor = m.Get("method")
		}
		start, end := nameCap.StartLine(), nameCap.EndLine()
		if hasAnchor {
			start, end = anchor.StartLine(), anchor.EndLine()
		}

		parentName := ""
		if recv, ok := m.Get("method-receiver-type"); ok {
			parentName = recv.Text(c.Src)
		} else if hooks.FindFunctionParent != nil && hasAnchor {
			if name, ok := hooks.FindFunctionParent(anchor.Node, c.Src, c.File); ok {
				parentName = name
			}
		}

		data := nodeData(nameCap.Text(c.Src), c.File, start, end, bodyText)
		if parentName != "" {
			graph.MetaOf(&data).Set("operand", parentName)
		}
		node := c.Backend.AddNodeWithParent(kind, data, graph.KindFile, c.File)
		out = append(out, node)

		if kind == graph.KindFunction {
			c.requestsWithin(node)

			if parentName != "" {
				if parent, ok := c.Finders.ByNameInFile(graph.KindClass, parentName, c.File); ok {
					c.Backend.AddEdge(graph.OperandEdge(graph.KindClass, parent, graph.KindFunction, node))
				}
			}
		}
	}
	return out
}
