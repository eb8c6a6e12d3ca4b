// Package reactjs is the Grammar Adapter for JSX/TSX React components
// (§4.1), grounded on viant-linager's inspector/jsx package (which walks
// the same javascript/typescript tree-sitter grammar) generalized from a
// manual node-type switch into the query-driven shape the other adapters
// use.
package reactjs

import (
	sitter "github.com/smacker/go-tree-sitter"
	tstsx "github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
)

const (
	QueryImport        = "import"
	QueryFunctionComp  = "function_component"
	QueryClassComp     = "class_component"
	QueryJSXElement    = "jsx_element"
	QueryCall          = "call"
	QueryComponentCall = "component_call"
	QueryRouteElement  = "route_element"
	QueryRequest       = "request"
)

// Adapter is the React (JSX/TSX) language adapter.
type Adapter struct {
	lang.BaseAdapter
}

func New() *Adapter {
	a := &Adapter{}
	a.SetLanguage(tstsx.GetLanguage())

	a.RegisterQuery(QueryImport, `(import_statement source: (string) @import-path) @import`)
	a.RegisterQuery(QueryFunctionComp, `[
		(function_declaration name: (identifier) @function-name body: (statement_block) @function-body) @function
		(lexical_declaration (variable_declarator
			name: (identifier) @function-name
			value: (arrow_function body: (_) @function-body))) @function
	]`)
	a.RegisterQuery(QueryClassComp, `(class_declaration
		name: (type_identifier) @class-name
		(class_heritage (extends_clause value: (_) @class-extends))?
		body: (class_body) @class-body) @class`)
	a.RegisterQuery(QueryJSXElement, `[
		(jsx_element open_tag: (jsx_opening_element name: (_) @jsx-tag)) @jsx
		(jsx_self_closing_element name: (_) @jsx-tag) @jsx
	]`)
	a.RegisterQuery(QueryCall, `(call_expression
		function: [(identifier) @call-name (member_expression object: (_) @call-operand property: (property_identifier) @call-name)]
		arguments: (arguments) @call-args) @call`)
	// Rendering <Widget /> is how a component invokes another, so JSX
	// component tags feed the calls phase alongside plain call expressions.
	// Lower-cased intrinsic tags (div, button) never resolve to a Function
	// node and drop out in resolution.
	a.RegisterQuery(QueryComponentCall, `(jsx_self_closing_element
		name: (identifier) @call-name) @call`)
	// <Route path="/people" element={<People />} /> (react-router idiom).
	a.RegisterQuery(QueryRouteElement, `(jsx_self_closing_element
		name: (identifier) @route-tag
		(#eq? @route-tag "Route")
		(jsx_attribute
			(property_identifier) @route-attr-name
			(#eq? @route-attr-name "path")
			(string) @route-path)) @route`)
	// fetch("/people") / fetch("/person", { method: "POST" }).
	a.RegisterQuery(QueryRequest, `(call_expression
		function: (identifier) @request-verb (#eq? @request-verb "fetch")
		arguments: (arguments
			. (string) @request-path
			(object (pair
				key: (property_identifier) @request-method-key (#eq? @request-method-key "method")
				value: (string) @request-verb-value))?)) @request`)

	a.SetHooks(lang.Hooks{
		IsTestFile: func(file, _ string) bool {
			return contains(file, ".test.") || contains(file, ".spec.") || contains(file, ".cy.")
		},
		IsE2ETestFile: func(file string) bool {
			return contains(file, ".cy.") || contains(file, "e2e/") || contains(file, "cypress/")
		},
		IsRouterFile: func(file string) bool {
			return contains(file, "routes") || contains(file, "router")
		},
		IsComponent: func(n *sitter.Node) bool {
			return n != nil && n.Type() == "class_declaration"
		},
		ExtraPageFinder: func(file string, finders lang.Finders) (graph.NodeKind, string, string, bool) {
			return "", "", "", false
		},
	})
	return a
}

func contains(s, sub string) bool {
	return len(sub) == 0 || indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

func (a *Adapter) Name() string         { return "reactjs" }
func (a *Adapter) Extensions() []string { return []string{".jsx", ".tsx"} }
func (a *Adapter) PkgFiles() []string   { return []string{"package.json"} }
func (a *Adapter) SkipDirs() []string   { return []string{"node_modules", ".git", "dist", "build"} }

func (a *Adapter) QueryNames(phase string) []string {
	switch phase {
	case "libraries":
		// package.json is JSON, not JSX/TSX: internal/build parses it
		// directly via encoding/json instead of a tree-sitter query.
		return nil
	case "imports":
		return []string{QueryImport}
	case "classes":
		return []string{QueryClassComp}
	case "functions":
		return []string{QueryFunctionComp}
	case "pages":
		return []string{QueryJSXElement}
	case "routes":
		return []string{QueryRouteElement}
	case "requests":
		return []string{QueryRequest}
	case "calls":
		return []string{QueryCall, QueryComponentCall}
	default:
		return nil
	}
}
