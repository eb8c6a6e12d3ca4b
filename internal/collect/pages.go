package collect

import (
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
)

// Pages is phase (i): route registrations as Page nodes, named after the
// matched route-path (e.g. `<Route path="/people">` -> Page "/people"),
// with a Renders edge to the component the route mounts (§4.4.i). A file
// with no "routes" query matches (no adapter-level router convention, or a
// plain component file) falls back to one Page per generic JSX tag,
// named after the file, which is the shape a template/component file
// without its own route table takes. §9's "synthetic zero-range pages"
// decision keeps start=0,end=0 placeholder pages (Angular templateUrl
// targets resolved through ExtraPageFinder) in the graph rather than
// filtering them.
func (c *Context) Pages() []graph.NodeData {
	hooks := c.Adapter.Hooks()

	if hooks.ExtraPageFinder != nil {
		if targetKind, targetName, targetFile, ok := hooks.ExtraPageFinder(c.File, c.Finders); ok {
			data := nodeData(c.File, c.File, 0, 0, "")
			page := c.Backend.AddNodeWithParent(graph.KindPage, data, graph.KindFile, c.File)
			out := []graph.NodeData{page}
			if target, ok := c.Finders.ByNameFileSuffix(targetKind, targetName, targetFile); ok {
				c.Backend.AddEdge(graph.Renders(page, targetKind, target))
			}
			return out
		}
	}

	routes := c.matches("routes")
	if len(routes) == 0 {
		return c.pagesFromGenericTags(c.matches("pages"))
	}

	tags := c.matches("pages")
	var out []graph.NodeData
	for _, m := range routes {
		pathCap, ok := m.Get("route-path")
		if !ok {
			continue
		}
		name := trimQuotes(pathCap.Text(c.Src))

		anchor, hasAnchor := m.Get("route")
		start, end := pathCap.StartLine(), pathCap.EndLine()
		if hasAnchor {
			start, end = anchor.StartLine(), anchor.EndLine()
		}

		data := nodeData(name, c.File, start, end, "")
		page := c.Backend.AddNodeWithParent(graph.KindPage, data, graph.KindFile, c.File)
		out = append(out, page)

		if component, ok := componentAt(tags, c.Src, start, end); ok {
			if target := c.Finders.ByName(graph.KindClass, component); len(target) > 0 {
				c.Backend.AddEdge(graph.Renders(page, graph.KindClass, target[0]))
			} else if target := c.Finders.ByName(graph.KindFunction, component); len(target) > 0 {
				c.Backend.AddEdge(graph.Renders(page, graph.KindFunction, target[0]))
			}
		}
	}
	return out
}

// componentAt finds a generic JSX tag whose source line falls inside
// [start, end] and isn't the route element itself, correlating a
// `<Route path="..." element={<Component />} />` match's rendered
// component by position instead of a single nested query -- the route and
// generic-tag queries are independently matched, so the route element
// itself also shows up in tags; skip it by name.
func componentAt(tags []lang.Match, src []byte, start, end int) (string, bool) {
	for _, m := range tags {
		tagCap, ok := m.Get("jsx-tag")
		if !ok {
			continue
		}
		if tagCap.StartLine() < start || tagCap.StartLine() > end {
			continue
		}
		if name := tagCap.Text(src); name != "Route" {
			return name, true
		}
	}
	return "", false
}

// pagesFromGenericTags is the no-router-convention fallback: one Page per
// JSX tag, named after the file, with a Renders edge to the same-named
// Class/Function if one exists.
func (c *Context) pagesFromGenericTags(tags []lang.Match) []graph.NodeData {
	var out []graph.NodeData
	for _, m := range tags {
		tagCap, ok := m.Get("jsx-tag")
		if !ok {
			continue
		}
		anchor, _ := m.Get("jsx")
		start, end := tagCap.StartLine(), tagCap.EndLine()
		if anchor.Node != nil {
			start, end = anchor.StartLine(), anchor.EndLine()
		}
		data := nodeData(c.File, c.File, start, end, tagCap.Text(c.Src))
		page := c.Backend.AddNodeWithParent(graph.KindPage, data, graph.KindFile, c.File)
		out = append(out, page)

		tagName := tagCap.Text(c.Src)
		if target := c.Finders.ByName(graph.KindClass, tagName); len(target) > 0 {
			c.Backend.AddEdge(graph.Renders(page, graph.KindClass, target[0]))
		} else if target := c.Finders.ByName(graph.KindFunction, tagName); len(target) > 0 {
			c.Backend.AddEdge(graph.Renders(page, graph.KindFunction, target[0]))
		}
	}
	return out
}
