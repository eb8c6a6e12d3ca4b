package collect

import "github.com/codekg/graphbuild/internal/graph"

// Libraries is phase (a): dependency declarations matched by the adapter's
// "libraries" queries (Ruby's Gemfile `gem` calls; go.mod requires and
// package.json deps are parsed by internal/build instead). Grounded on
// original_source/ast/src/lang/parse/collect.rs's NodeType::Library arm,
// one NodeData per match via format_library.
func (c *Context) Libraries() []graph.NodeData {
	var out []graph.NodeData
	for _, m := range c.matches("libraries") {
		name, ok := m.Get("library-name")
		if !ok {
			continue
		}
		nameText := trimQuotes(name.Text(c.Src))
		version := ""
		if v, ok := m.Get("library-version"); ok {
			version = trimQuotes(v.Text(c.Src))
		}
		data := nodeData(nameText, c.File, name.StartLine(), name.EndLine(), "")
		if version != "" {
			graph.MetaOf(&data).Set("version", version)
		}
		node := c.Backend.AddNode(graph.KindLibrary, data)
		out = append(out, node)
	}
	return out
}

// trimQuotes strips a matching pair of quote characters, or a single
// leading `:` (a Ruby symbol literal, e.g. `:people`).
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	if len(s) >= 1 && s[0] == ':' {
		return s[1:]
	}
	return s
}
