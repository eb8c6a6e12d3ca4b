package collect

import (
	"context"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lsp"
)

// Endpoints is phase (j), first pass (collect_endpoints): direct route
// registrations (a single verb+path per match, e.g. `get "/people"` or a Go
// router's `r.Get(...)`) as Endpoint nodes plus a Handler edge to their
// implementing Function, resolved via the LSP bridge's GotoDefinition on
// the handler identifier (§4.2). Route-group declarations (Rails
// `resources :people`) are handled separately by EndpointGroups, the
// second pass §4.4.j calls process_endpoint_groups.
func (c *Context) Endpoints(ctx context.Context, bridge *lsp.Bridge) []graph.NodeData {
	hooks := c.Adapter.Hooks()
	if hooks.EndpointPathFilter != nil && !hooks.EndpointPathFilter(c.File) {
		return nil
	}

	var out []graph.NodeData
	seen := map[string]bool{}
	for _, m := range c.matches("endpoints") {
		pathCap, hasPath := m.Get("route-path")
		nameCap, hasName := m.Get("route-name")
		var name string
		switch {
		case hasPath:
			name = trimQuotes(pathCap.Text(c.Src))
		case hasName:
			name = trimQuotes(nameCap.Text(c.Src))
		default:
			continue
		}

		anchor, _ := m.Get("route")
		start, end := 0, 0
		if anchor.Node != nil {
			start, end = anchor.StartLine(), anchor.EndLine()
		}
		verb := "GET"
		if hooks.AddEndpointVerb != nil {
			if v := hooks.AddEndpointVerb(m, c.Src); v != "" {
				verb = v
			}
		}

		data := nodeData(name, c.File, start, end, "")
		graph.MetaOf(&data).Set("verb", verb)
		if hooks.UpdateEndpoint != nil {
			hooks.UpdateEndpoint(&data, m, c.Src)
		}
		if duplicateEndpoint(seen, name, c.File, verb) {
			continue
		}
		ep := c.Backend.AddNodeWithParent(graph.KindEndpoint, data, graph.KindFile, c.File)
		out = append(out, ep)

		functionName, handlerFile, ok := c.resolveHandler(ctx, bridge, m)
		if !ok {
			// No bridge, or the definition didn't resolve: fall back to the
			// handler identifier's name against the graph, same-file first,
			// mirroring the no-LSP call-resolution rule of §4.4.k.
			handlerCap, has := m.Get("route-handler")
			if !has {
				continue
			}
			functionName, handlerFile = handlerCap.Text(c.Src), c.File
		}
		if fn, ok := c.Finders.ByNameFileSuffix(graph.KindFunction, functionName, handlerFile); ok {
			c.Backend.AddEdge(graph.Handler(ep, fn))
		} else if fns := c.Finders.ByName(graph.KindFunction, functionName); len(fns) > 0 {
			c.Backend.AddEdge(graph.Handler(ep, fns[0]))
		}
	}
	return out
}

// resolveHandler finds the function implementing a directly-declared
// endpoint via a GotoDefinition on the handler identifier through the LSP
// bridge (§4.2). Returns ok=false when the bridge is unavailable or the
// definition doesn't resolve; Endpoints then falls back to looking the
// handler identifier up by name in the graph.
func (c *Context) resolveHandler(ctx context.Context, bridge *lsp.Bridge, m lang.Match) (string, string, bool) {
	handlerCap, ok := m.Get("route-handler")
	if !ok || bridge == nil {
		return "", "", false
	}
	pos := lsp.Position{File: c.File, Line: handlerCap.StartLine(), Col: 0}
	target, err := bridge.GotoDefinition(ctx, pos)
	if err != nil || target == nil {
		return "", "", false
	}
	return handlerCap.Text(c.Src), target.File, true
}

// namespaceSpan is one `namespace :name do ... end` block's line range,
// read once per file so EndpointGroups can test a resource declaration's
// containment without re-running the query per match.
type namespaceSpan struct {
	name       string
	start, end int
}

// EndpointGroups is phase (j), second pass (process_endpoint_groups):
// route-group declarations (Rails `resources :people`) expand to their
// full CRUD action set via the adapter's ExpandEndpoint hook, one Endpoint
// node per action, with the handler resolved directly by convention (no
// LSP round trip needed -- the action name is the controller method
// name). A resource group nested inside a `namespace :api do ... end`
// block gets its name, and every edge that already referenced it,
// rewritten with the namespace prefix via Backend.RenameNode -- the
// rewrite the group query alone can't express, since the namespace's
// extent is only known once its whole do-block has matched.
func (c *Context) EndpointGroups() []graph.NodeData {
	hooks := c.Adapter.Hooks()
	if hooks.ExpandEndpoint == nil {
		return nil
	}
	if hooks.EndpointPathFilter != nil && !hooks.EndpointPathFilter(c.File) {
		return nil
	}

	var namespaces []namespaceSpan
	for _, m := range c.matches("endpoint_namespaces") {
		nameCap, ok := m.Get("namespace-name")
		if !ok {
			continue
		}
		body, ok := m.Get("namespace-body")
		if !ok {
			continue
		}
		namespaces = append(namespaces, namespaceSpan{
			name:  trimQuotes(nameCap.Text(c.Src)),
			start: body.StartLine(),
			end:   body.EndLine(),
		})
	}

	var out []graph.NodeData
	seen := map[string]bool{}
	// Seed with the explicit routes Endpoints already collected from this
	// file, so a resources action that repeats one of them is skipped.
	for _, ep := range c.Backend.FindNodesByFileEndsWith(graph.KindEndpoint, c.File) {
		if ep.File != c.File {
			continue
		}
		verb, _ := ep.Meta.Get("verb")
		duplicateEndpoint(seen, ep.Name, ep.File, verb)
	}
	for _, m := range c.matches("endpoint_groups") {
		nameCap, ok := m.Get("route-name")
		if !ok {
			continue
		}
		actions := hooks.ExpandEndpoint(m, c.Src)
		if len(actions) == 0 {
			continue
		}
		groupName := trimQuotes(nameCap.Text(c.Src))
		basePath := "/" + groupName

		anchor, _ := m.Get("route")
		start, end := nameCap.StartLine(), nameCap.EndLine()
		if anchor.Node != nil {
			start, end = anchor.StartLine(), anchor.EndLine()
		}

		prefix := ""
		for _, ns := range namespaces {
			if start >= ns.start && start <= ns.end {
				prefix += "/" + ns.name
			}
		}

		for idx, action := range actions {
			name := basePath + action.PathSuffix
			if duplicateEndpoint(seen, prefix+name, c.File, action.Verb) {
				continue
			}
			// Node identity excludes verb, and several CRUD actions share a
			// path suffix (index/create both "", show/update/destroy both
			// "/:id"); offsetting start by the action's position keeps each
			// action's Endpoint node distinct instead of merging into one.
			actionStart, actionEnd := start+idx, end+idx
			data := nodeData(name, c.File, actionStart, actionEnd, "")
			graph.MetaOf(&data).Set("verb", action.Verb)
			graph.MetaOf(&data).Set("group", groupName)
			ep := c.Backend.AddNodeWithParent(graph.KindEndpoint, data, graph.KindFile, c.File)
			out = append(out, ep)

			if fn, ok := c.Finders.ByNameFileSuffix(graph.KindFunction, action.Action, "controllers"); ok {
				c.Backend.AddEdge(graph.Handler(ep, fn))
			} else if fns := c.Finders.ByName(graph.KindFunction, action.Action); len(fns) > 0 {
				c.Backend.AddEdge(graph.Handler(ep, fns[0]))
			}

			if prefix != "" {
				if renamed, ok := c.Backend.RenameNode(graph.KindEndpoint, ep.Name, ep.File, ep.Start, prefix+ep.Name); ok {
					out[len(out)-1] = renamed
				}
			}
		}
	}
	return out
}

// duplicateEndpoint reports whether (name, file, verb) is already in seen,
// recording it if not. Rails routes commonly redeclare the same
// action (e.g. a `resources` collection block paired with an explicit
// `get` for the same path) and §4.4.j's duplicate-endpoint rule collapses
// those to one node instead of two with an identical (name, file) but
// different start line.
func duplicateEndpoint(seen map[string]bool, name, file, verb string) bool {
	key := name + "\x00" + file + "\x00" + verb
	if seen[key] {
		return true
	}
	seen[key] = true
	return false
}
