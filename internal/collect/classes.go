package collect

import "github.com/codekg/graphbuild/internal/graph"

// Classes is phase (d), first pass (collect_classes): Class nodes only,
// with the parent/superclass name the match captured stashed in Meta for
// the second pass. Parent resolution, module inclusion, and association
// edges all run in LinkClassHierarchy once every file's classes exist --
// a superclass, included module, or associated model is frequently
// declared in a different file than the class referencing it, so
// resolving inline at match time would miss anything not yet inserted
// (§4.4.d's "after all classes are inserted" rule).
func (c *Context) Classes() []graph.NodeData {
	var out []graph.NodeData
	for _, m := range c.matches("classes") {
		nameCap, ok := m.Get("class-name")
		if !ok {
			continue
		}
		anchor, hasAnchor := m.Get("class")
		start, end := nameCap.StartLine(), nameCap.EndLine()
		if hasAnchor {
			start, end = anchor.StartLine(), anchor.EndLine()
		}
		bodyText := ""
		if !c.SkipBody {
			if b, ok := m.Get("class-body"); ok {
				bodyText = b.Text(c.Src)
			}
		}
		data := nodeData(nameCap.Text(c.Src), c.File, start, end, bodyText)
		if parentCap, ok := m.Get("class-parent"); ok {
			graph.MetaOf(&data).Set("parent", parentCap.Text(c.Src))
		}
		node := c.Backend.AddNodeWithParent(graph.KindClass, data, graph.KindFile, c.File)
		out = append(out, node)
	}
	return out
}

// LinkClassHierarchy is phase (d)'s second pass: class_inherits (the
// ParentOf edge from a Meta-stashed parent name), class_includes (an
// Imports Class->Class edge for each `include Module` inside the class
// body), and the association-edge scan (belongs_to/has_many and friends,
// converted to a target class name via the adapter's
// ConvertAssociationToName hook) -- all run once per class, against every
// context so a declaration in a sibling file still resolves.
func LinkClassHierarchy(contexts []*Context, classes []graph.NodeData) {
	byFile := map[string]*Context{}
	for _, cctx := range contexts {
		byFile[cctx.File] = cctx
	}

	for _, cls := range classes {
		cctx, ok := byFile[cls.File]
		if !ok {
			continue
		}
		if parentName, ok := cls.Meta.Get("parent"); ok {
			linkClassParent(cctx, cls, parentName)
		}
		linkClassIncludes(cctx, cls)
		linkClassAssociations(cctx, cls)
	}
}

func linkClassParent(c *Context, cls graph.NodeData, parentName string) {
	if parent, ok := c.Finders.ByNameInFile(graph.KindClass, parentName, c.File); ok {
		c.Backend.AddEdge(graph.ParentOf(parent, cls))
		return
	}
	if parents := c.Finders.ByName(graph.KindClass, parentName); len(parents) > 0 {
		c.Backend.AddEdge(graph.ParentOf(parents[0], cls))
	}
}

// linkClassIncludes scans cls's body for `include Module` calls (the
// class_includes query, §4.4.d) and records an Imports Class->Class edge
// to each module that resolves to a known Class/Trait node, matching
// original_source's treatment of Ruby module inclusion as an import
// rather than an OPERAND relation.
func linkClassIncludes(c *Context, cls graph.NodeData) {
	for _, m := range c.matches("class_includes") {
		nameCap, ok := m.Get("include-name")
		if !ok {
			continue
		}
		if nameCap.StartLine() < cls.Start || nameCap.StartLine() > cls.End {
			continue
		}
		moduleName := nameCap.Text(c.Src)
		if target, ok := c.Finders.ByNameInFile(graph.KindClass, moduleName, c.File); ok {
			c.Backend.AddEdge(graph.Imports(graph.KindClass, cls, graph.KindClass, target))
			continue
		}
		if targets := c.Finders.ByName(graph.KindClass, moduleName); len(targets) > 0 {
			c.Backend.AddEdge(graph.Imports(graph.KindClass, cls, graph.KindClass, targets[0]))
		}
	}
}

// linkClassAssociations scans cls's body for belongs_to/has_many/etc.
// declarations (the class_associations query, §4.4.d) and records an
// Operand edge to the associated model's class -- a data relationship,
// not an inheritance one, so it shares ParentOf's reciprocal Imports
// neighbor rather than overloading it -- converting the Rails symbol
// (`:orders`, `:author`) to a class name via the adapter's
// ConvertAssociationToName hook (nil means the language has no
// association convention to scan for).
func linkClassAssociations(c *Context, cls graph.NodeData) {
	hooks := c.Adapter.Hooks()
	if hooks.ConvertAssociationToName == nil {
		return
	}
	for _, m := range c.matches("class_associations") {
		typeCap, ok := m.Get("assoc-type")
		if !ok {
			continue
		}
		if typeCap.StartLine() < cls.Start || typeCap.StartLine() > cls.End {
			continue
		}
		targetCap, ok := m.Get("assoc-target")
		if !ok {
			continue
		}
		className := hooks.ConvertAssociationToName(typeCap.Text(c.Src), trimQuotes(targetCap.Text(c.Src)))
		if target, ok := c.Finders.ByNameInFile(graph.KindClass, className, c.File); ok {
			c.Backend.AddEdge(graph.OperandEdge(graph.KindClass, cls, graph.KindClass, target))
			continue
		}
		if targets := c.Finders.ByName(graph.KindClass, className); len(targets) > 0 {
			c.Backend.AddEdge(graph.OperandEdge(graph.KindClass, cls, graph.KindClass, targets[0]))
		}
	}
}
