// Package lang defines the Grammar Adapter contract (§4.1): the
// language-specific capability set the core pipeline dispatches through,
// kept deliberately thin so each language's idioms live behind focused
// overrides rather than leaking into the collectors.
package lang

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codekg/graphbuild/internal/graph"
)

// Capture is one named binding out of a tree-sitter query match, carrying
// enough of the underlying node to let formatters read text/position
// without re-walking the tree.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Match is one query match: a set of captures plus the node that anchors it.
type Match struct {
	Captures []Capture
}

// Get returns the first capture named `name` in this match, if any.
func (m Match) Get(name string) (Capture, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c, true
		}
	}
	return Capture{}, false
}

// All returns every capture named `name` in this match.
func (m Match) All(name string) []Capture {
	var out []Capture
	for _, c := range m.Captures {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the capture's source text.
func (c Capture) Text(src []byte) string {
	if c.Node == nil {
		return ""
	}
	return string(src[c.Node.StartByte():c.Node.EndByte()])
}

// StartLine and EndLine return zero-indexed line numbers (§3: `start`,
// `end` are zero-indexed).
func (c Capture) StartLine() int {
	if c.Node == nil {
		return 0
	}
	return int(c.Node.StartPoint().Row)
}

func (c Capture) EndLine() int {
	if c.Node == nil {
		return 0
	}
	return int(c.Node.EndPoint().Row)
}

// Finders is the small capability struct §9 recommends in place of deep
// closure chains: read-only graph lookups a formatter needs, backed by the
// Backend but never exposing write access or the backend type itself (the
// aliasing discipline the design note calls for).
type Finders struct {
	ByNameInFile       func(kind graph.NodeKind, name, file string) (graph.NodeData, bool)
	ByNameFileSuffix   func(kind graph.NodeKind, name, suffix string) (graph.NodeData, bool)
	ByName             func(kind graph.NodeKind, name string) []graph.NodeData
	InRange            func(kind graph.NodeKind, row int, file string) (graph.NodeData, bool)
}

// CleanRule is one §4.4.m clean-phase directive: delete ParentKind nodes
// that no ChildKind node names in meta[ChildMetaKey]. The canonical use is
// Go's "a struct no method declares as its receiver is not a class".
type CleanRule struct {
	ParentKind   graph.NodeKind
	ChildKind    graph.NodeKind
	ChildMetaKey string
}

// ResourceAction is one CRUD action a route-group match (Rails
// `resources :people`) expands to: the path suffix appended to the group's
// base path (empty for the collection root), the HTTP verb, and the
// controller action name the group's controller must implement.
type ResourceAction struct {
	PathSuffix string
	Verb       string
	Action     string
}

// Hooks is the full set of imperative, defaulted-no-op behavior overrides
// §4.1 lists. A language Adapter embeds Hooks and only sets the fields it
// needs; every field left nil behaves as the documented default.
type Hooks struct {
	// EndpointPathFilter/DataModelPathFilter: skip files whose path does not
	// contain the filter substring. nil means "no filter" (process every
	// file).
	EndpointPathFilter  func(file string) bool
	DataModelPathFilter func(file string) bool

	IsTestFile   func(file, body string) bool
	// IsE2ETestFile marks files whose tests drive a running app end to end
	// (Cypress/Playwright specs); their functions become E2eTest nodes,
	// which the linker matches to frontend functions by shared test ids.
	IsE2ETestFile func(file string) bool
	IsRouterFile  func(file string) bool
	IsExtraPage   func(file string) bool

	// ExpandEndpoint turns one route-group match (Rails `resources :people`)
	// into the set of concrete CRUD actions it stands for, each carrying the
	// path suffix/verb/controller-action triple the collector needs to
	// build one Endpoint per action and resolve its handler without an LSP
	// round trip (§4.4.j's process_endpoint_groups pass).
	ExpandEndpoint func(m Match, src []byte) []ResourceAction

	// ExtraPageFinder maps a template/view file straight to its backing
	// function/class without running a query (Angular templateUrl, Rails
	// views).
	ExtraPageFinder func(file string, finders Finders) (targetKind graph.NodeKind, targetName, targetFile string, ok bool)

	ComponentSelectorToTemplateMap func() map[string]string

	// AddEndpointVerb infers a verb from the match when the grammar did not
	// capture one directly (falls back to the call name).
	AddEndpointVerb func(m Match, src []byte) string

	// UpdateEndpoint lets an adapter tweak an endpoint's data right before
	// insertion (e.g. Rails CRUD expansion sets meta["group"]).
	UpdateEndpoint func(ep *graph.NodeData, m Match, src []byte)

	FindFunctionParent func(fnNode *sitter.Node, src []byte, file string) (name string, ok bool)
	FindTraitOperand   func(fnName string, file string, line int) (traitName string, ok bool)
	FindEndpointParents func(ep graph.NodeData, finders Finders) []string

	DataModelWithinFinder func(body []byte) []string

	ConvertAssociationToName func(associationType, target string) string

	ResolveImportPath func(raw string) string
	ResolveImportName func(raw string) string

	IsLibFile     func(path string) bool
	IsComponent   func(n *sitter.Node) bool
	IsPackageFile func(name string) bool

	DirectClassCalls bool

	UseIntegrationTestFinder bool
	IntegrationTestEdgeFinder func(m Match, src []byte, finders Finders) (targetName, targetFile string, ok bool)

	UseDataModelWithinFinder bool

	// CleanGraph lists the clean-phase rules the Builder applies for this
	// language after every collection phase has run (§4.4.m).
	CleanGraph []CleanRule
}

// Adapter is the contract every supported language satisfies (§4.1).
type Adapter interface {
	// Name is the language identifier stored on Language nodes.
	Name() string
	Extensions() []string
	PkgFiles() []string
	SkipDirs() []string
	GetLanguage() *sitter.Language

	// Query returns the compiled query registered under name, or false if
	// the adapter does not define one (not an error: "a query that
	// produces no matches is not an error", §4.1, extended here to "a
	// query that isn't defined").
	Query(name string) (*sitter.Query, bool)

	// QueryNames returns every query name the adapter registers for a given
	// logical phase (some phases, like endpoint_finder, may have more than
	// one).
	QueryNames(phase string) []string

	Hooks() Hooks

	IsTestFileDefault(file string) bool
}

// BaseAdapter provides the Hooks{} zero value and common helpers; language
// adapters embed it so the Adapter interface's optional behavior is
// well-defined (a nil hook means the default; call sites check a hook for
// nil before calling it).
type BaseAdapter struct {
	hooks   Hooks
	queries map[string]string
	lang    *sitter.Language
}

func (b *BaseAdapter) Hooks() Hooks { return b.hooks }

func (b *BaseAdapter) SetHooks(h Hooks) { b.hooks = h }

func (b *BaseAdapter) GetLanguage() *sitter.Language { return b.lang }

func (b *BaseAdapter) SetLanguage(l *sitter.Language) { b.lang = l }

func (b *BaseAdapter) RegisterQuery(name, source string) {
	if b.queries == nil {
		b.queries = map[string]string{}
	}
	b.queries[name] = source
}

func (b *BaseAdapter) Query(name string) (*sitter.Query, bool) {
	src, ok := b.queries[name]
	if !ok {
		return nil, false
	}
	q, err := sitter.NewQuery([]byte(src), b.lang)
	if err != nil {
		// A query that fails to parse is a programmer error (§4.1
		// "fail-fast"): the adapter shipped an invalid query string.
		panic("lang: invalid query " + name + ": " + err.Error())
	}
	return q, true
}

func (b *BaseAdapter) IsTestFileDefault(file string) bool { return false }

// RunQuery executes a named query against root and returns the resulting
// matches in tree-sitter cursor order (§5 ordering guarantee).
func RunQuery(a Adapter, name string, root *sitter.Node, src []byte) []Match {
	q, ok := a.Query(name)
	if !ok {
		return nil
	}
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q, root)
	var matches []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		// Predicates (#eq?, #match?) are not applied by NextMatch itself;
		// FilterPredicates strips the captures of a match that fails them.
		m = cursor.FilterPredicates(m, src)
		if len(m.Captures) == 0 {
			continue
		}
		match := Match{}
		for _, c := range m.Captures {
			match.Captures = append(match.Captures, Capture{
				Name: q.CaptureNameForId(c.Index),
				Node: c.Node,
			})
		}
		matches = append(matches, match)
	}
	return matches
}
