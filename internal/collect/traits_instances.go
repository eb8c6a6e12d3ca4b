package collect

import "github.com/codekg/graphbuild/internal/graph"

// Traits is phase (f1): interface/module declarations as Trait nodes.
func (c *Context) Traits() []graph.NodeData {
	var out []graph.NodeData
	for _, m := range c.matches("traits") {
		nameCap, ok := m.Get("trait-name")
		if !ok {
			nameCap, ok = m.Get("class-name") // Go interfaces share the type_declaration shape.
		}
		if !ok {
			continue
		}
		data := nodeData(nameCap.Text(c.Src), c.File, nameCap.StartLine(), nameCap.EndLine(), "")
		node := c.Backend.AddNodeWithParent(graph.KindTrait, data, graph.KindFile, c.File)
		out = append(out, node)
	}
	return out
}

// Instances is phase (f2): variable declarations whose initializer is a
// constructor call (`x := &Widget{}`, `x = Widget.new`), linked to their
// Class via an Of edge. Uses the adapter's FindTraitOperand hook when the
// instance's type cannot be read directly off the declaration (Go's
// `var x Widget` vs a trait-typed field needing dataflow).
func (c *Context) Instances() []graph.NodeData {
	var out []graph.NodeData
	hooks := c.Adapter.Hooks()
	for _, m := range c.matches("instances") {
		nameCap, ok := m.Get("instance-name")
		if !ok {
			continue
		}
		classCap, ok := m.Get("instance-class")
		className := ""
		if ok {
			className = classCap.Text(c.Src)
		} else if hooks.FindTraitOperand != nil {
			if t, ok := hooks.FindTraitOperand(nameCap.Text(c.Src), c.File, nameCap.StartLine()); ok {
				className = t
			}
		}
		if className == "" {
			continue
		}
		data := nodeData(nameCap.Text(c.Src), c.File, nameCap.StartLine(), nameCap.EndLine(), "")
		node := c.Backend.AddNodeWithParent(graph.KindInstance, data, graph.KindFile, c.File)
		out = append(out, node)

		if classes := c.Finders.ByName(graph.KindClass, className); len(classes) > 0 {
			c.Backend.AddEdge(graph.Of(node, classes[0]))
		}
	}
	return out
}
