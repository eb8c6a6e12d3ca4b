package collect

import "github.com/codekg/graphbuild/internal/graph"

// Variables is phase (c): package/module-level Var nodes (var/const in Go,
// constants in Ruby). Function-local variables are out of scope (§3 Var
// invariants: only top-level bindings are tracked).
func (c *Context) Variables() []graph.NodeData {
	var out []graph.NodeData
	for _, m := range c.matches("variables") {
		cap, ok := m.Get("var-name")
		if !ok {
			cap, ok = m.Get("const-name")
		}
		if !ok {
			continue
		}
		data := nodeData(cap.Text(c.Src), c.File, cap.StartLine(), cap.EndLine(), "")
		node := c.Backend.AddNodeWithParent(graph.KindVar, data, graph.KindFile, c.File)
		out = append(out, node)
	}
	return out
}
