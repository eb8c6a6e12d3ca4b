package collect

import (
	"context"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lsp"
)

// Calls is phase (l): call-expression matches become Calls edges between
// the enclosing function and the callee, tried in order until one
// resolves (§4.4.k): a direct class-instantiation shortcut for adapters
// that set DirectClassCalls (Ruby's `Person.new`), the LSP bridge's
// GotoDefinition on the call name (retried through GotoImplementations
// when the definition lands on a trait/interface method rather than a
// concrete one), then a same-file name lookup, then a by-name lookup
// across the repository. A definition the LSP resolves outside this
// repository (the adapter's IsLibFile hook) is recorded as a Uses edge
// into a synthesized Library node instead of a dangling Calls edge, with
// Hover supplying the node's description. Honors DEV_SKIP_CALLS by simply
// not being invoked (the Builder decides that, per §6).
func (c *Context) Calls(ctx context.Context, kind graph.NodeKind, enclosing graph.NodeData, bridge *lsp.Bridge) []graph.Edge {
	hooks := c.Adapter.Hooks()
	var out []graph.Edge
	for _, m := range c.matches("calls") {
		nameCap, ok := m.Get("call-name")
		if !ok {
			continue
		}
		if nameCap.StartLine() < enclosing.Start || nameCap.StartLine() > enclosing.End {
			continue // call site outside enclosing's body: belongs to a different function
		}
		calleeName := nameCap.Text(c.Src)
		operand := ""
		if op, ok := m.Get("call-operand"); ok {
			operand = op.Text(c.Src)
		}
		anchor, _ := m.Get("call")
		callStart, callEnd := nameCap.StartLine(), nameCap.EndLine()
		if anchor.Node != nil {
			callStart, callEnd = anchor.StartLine(), anchor.EndLine()
		}

		if hooks.DirectClassCalls && isConstantName(operand) {
			if edge, ok := c.resolveDirectClassCall(kind, enclosing, operand, callStart, callEnd); ok {
				out = append(out, edge)
				continue
			}
		}

		if edge, ok := c.resolveCallViaLSP(ctx, bridge, hooks, kind, enclosing, nameCap, callStart, callEnd, operand); ok {
			out = append(out, edge)
			continue
		}

		if edge, ok := c.resolveCallByName(kind, enclosing, calleeName, callStart, callEnd, operand); ok {
			out = append(out, edge)
		}
	}
	return out
}

// isConstantName reports whether operand looks like a Ruby constant
// (class/module reference) rather than a variable or self: an
// upper-cased first letter, same convention the grammar itself uses to
// distinguish `constant` nodes from `identifier` nodes.
func isConstantName(operand string) bool {
	return operand != "" && operand[0] >= 'A' && operand[0] <= 'Z'
}

// resolveDirectClassCall is direct_class_calls (§4.4.k): a call whose
// operand is itself a known Class (Ruby's `Person.new`, `Order.find`)
// resolves straight to that class instead of going through function-name
// lookup, which would otherwise either miss entirely or match an
// unrelated same-named method on a different class.
func (c *Context) resolveDirectClassCall(kind graph.NodeKind, enclosing graph.NodeData, operand string, start, end int) (graph.Edge, bool) {
	if callee, ok := c.Finders.ByNameInFile(graph.KindClass, operand, c.File); ok {
		edge := graph.Calls(kind, enclosing, graph.KindClass, callee, start, end, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}
	if classes := c.Finders.ByName(graph.KindClass, operand); len(classes) > 0 {
		edge := graph.Calls(kind, enclosing, graph.KindClass, classes[0], start, end, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}
	return graph.Edge{}, false
}

// resolveCallViaLSP is the primary resolution path (§4.4.k): GotoDefinition
// on the call name, landing either on a Function this collector already
// knows (matched by line range, since the LSP answers in source
// coordinates rather than node identity), on a library symbol (handed off
// to resolveLibraryCall), or on a trait/interface method -- in which case
// GotoImplementations is retried once against the same position to reach
// the concrete override.
func (c *Context) resolveCallViaLSP(ctx context.Context, bridge *lsp.Bridge, hooks lang.Hooks, kind graph.NodeKind, enclosing graph.NodeData, nameCap lang.Capture, callStart, callEnd int, operand string) (graph.Edge, bool) {
	if bridge == nil || nameCap.Node == nil {
		return graph.Edge{}, false
	}
	pos := lsp.Position{File: c.File, Line: nameCap.StartLine(), Col: int(nameCap.Node.StartPoint().Column)}

	def, err := bridge.GotoDefinition(ctx, pos)
	if err != nil || def == nil {
		return graph.Edge{}, false
	}
	if hooks.IsLibFile != nil && hooks.IsLibFile(def.File) {
		return c.resolveLibraryCall(ctx, bridge, kind, enclosing, *def, operand)
	}
	if callee, ok := c.Finders.InRange(graph.KindFunction, def.Line, def.File); ok {
		edge := graph.Calls(kind, enclosing, graph.KindFunction, callee, callStart, callEnd, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}

	impl, err := bridge.GotoImplementations(ctx, pos)
	if err != nil || impl == nil {
		return graph.Edge{}, false
	}
	if hooks.IsLibFile != nil && hooks.IsLibFile(impl.File) {
		return c.resolveLibraryCall(ctx, bridge, kind, enclosing, *impl, operand)
	}
	if callee, ok := c.Finders.InRange(graph.KindFunction, impl.Line, impl.File); ok {
		edge := graph.Calls(kind, enclosing, graph.KindFunction, callee, callStart, callEnd, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}
	return graph.Edge{}, false
}

// resolveLibraryCall synthesizes a Library node for a call the LSP resolved
// outside this repository and records a Uses edge to it, with Hover's text
// kept as the node's description -- the only place this collector learns
// what an external symbol actually is, since there is no source to read.
func (c *Context) resolveLibraryCall(ctx context.Context, bridge *lsp.Bridge, kind graph.NodeKind, enclosing graph.NodeData, def lsp.Position, operand string) (graph.Edge, bool) {
	name := operand
	if name == "" {
		name = def.File
	}
	hover, _ := bridge.Hover(ctx, def)
	data := graph.NodeData{Name: name, File: def.File, Docs: hover}
	lib := c.Backend.AddNodeWithParent(graph.KindLibrary, data, graph.KindFile, c.File)
	edge := graph.Uses(kind, enclosing, graph.KindLibrary, lib)
	c.Backend.AddEdge(edge)
	return edge, true
}

// resolveCallByName is the syntax-only fallback used when no bridge is
// running or the LSP round trip didn't resolve: same-file lookup first,
// then the first same-named Function anywhere in the repository.
func (c *Context) resolveCallByName(kind graph.NodeKind, enclosing graph.NodeData, calleeName string, callStart, callEnd int, operand string) (graph.Edge, bool) {
	if callee, ok := c.Finders.ByNameInFile(graph.KindFunction, calleeName, c.File); ok {
		edge := graph.Calls(kind, enclosing, graph.KindFunction, callee, callStart, callEnd, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}
	if callees := c.Finders.ByName(graph.KindFunction, calleeName); len(callees) > 0 {
		edge := graph.Calls(kind, enclosing, graph.KindFunction, callees[0], callStart, callEnd, operand)
		c.Backend.AddEdge(edge)
		return edge, true
	}
	return graph.Edge{}, false
}
