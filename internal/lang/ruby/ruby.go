// Package ruby is the Grammar Adapter for Ruby/Rails source (§4.1),
// grounded on original_source/ast/src/lang/queries/ruby.rs -- the query
// shapes and find_function_parent/data_model/endpoint-finder hooks are
// carried over from there, expressed as tree-sitter queries and the Hooks
// struct the other two adapters use instead of Rust trait methods.
package ruby

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsruby "github.com/smacker/go-tree-sitter/ruby"

	"github.com/codekg/graphbuild/internal/lang"
)

const (
	QueryLibrary       = "library"
	QueryClass         = "class"
	QueryFunction      = "function"
	QueryCall          = "call"
	QueryDataModel     = "data_model"
	QueryRouteGroup    = "route_group"
	QueryRouteVerb     = "route_verb"
	QueryRouteNamespace = "route_namespace"
	QueryInclude       = "include"
	QueryAssociation   = "association"
)

// resourceActions is the standard Rails `resources` CRUD expansion: the
// seven actions a single `resources :people` declaration stands for, with
// their path suffix (relative to the resource's base path) and verb.
var resourceActions = []lang.ResourceAction{
	{PathSuffix: "", Verb: "GET", Action: "index"},
	{PathSuffix: "/new", Verb: "GET", Action: "new"},
	{PathSuffix: "", Verb: "POST", Action: "create"},
	{PathSuffix: "/:id", Verb: "GET", Action: "show"},
	{PathSuffix: "/:id/edit", Verb: "GET", Action: "edit"},
	{PathSuffix: "/:id", Verb: "PATCH", Action: "update"},
	{PathSuffix: "/:id", Verb: "DELETE", Action: "destroy"},
}

// Adapter is the Ruby language adapter.
type Adapter struct {
	lang.BaseAdapter
}

func New() *Adapter {
	a := &Adapter{}
	a.SetLanguage(tsruby.GetLanguage())

	a.RegisterQuery(QueryLibrary, `(call
		method: (identifier) @gem (#eq? @gem "gem")
		arguments: (argument_list . (string) @library-name (string)? @library-version)) @library`)

	a.RegisterQuery(QueryClass, `[
		(class
			name: [(constant) (scope_resolution)] @class-name
			(superclass (constant) @class-parent)?) @class
		(module name: [(constant) (scope_resolution)] @class-name) @class
	]`)

	a.RegisterQuery(QueryFunction, `[
		(method name: (identifier) @function-name body: (body_statement)? @function-body) @function
		(singleton_method name: (identifier) @function-name body: (body_statement)? @function-body) @function
	]`)

	a.RegisterQuery(QueryCall, `(call
		receiver: [(identifier) (constant) (call)] @call-operand
		method: (identifier) @call-name
		arguments: (argument_list) @call-args) @call`)

	// ActiveRecord::Schema create_table blocks, grounded on ruby.rs's
	// data_model_query.
	a.RegisterQuery(QueryDataModel, `(call
		receiver: [
			(element_reference object: (scope_resolution scope: (constant) @schema-scope name: (constant) @schema-name))
			(scope_resolution scope: (constant) @schema-scope name: (constant) @schema-name)
		]
		block: (do_block (body_statement
			(call method: (identifier) @create-table (#eq? @create-table "create_table")
				arguments: (argument_list (string) @data-model-name)) @data-model))) @data-model-schema`)

	// config/routes.rb: resources :people / get "path" => "controller#action".
	a.RegisterQuery(QueryRouteGroup, `(call
		method: (identifier) @route-verb (#eq? @route-verb "resources")
		arguments: (argument_list . (simple_symbol) @route-name)) @route`)
	a.RegisterQuery(QueryRouteVerb, `(call
		method: (identifier) @route-verb
		(#match? @route-verb "^(get|post|put|patch|delete)$")
		arguments: (argument_list . (string) @route-path)) @route`)
	// namespace :api do ... end: every resources/route declared in its block
	// gets the namespace name prepended to its path (§4.4.j).
	a.RegisterQuery(QueryRouteNamespace, `(call
		method: (identifier) @namespace-verb (#eq? @namespace-verb "namespace")
		arguments: (argument_list . (simple_symbol) @namespace-name)
		block: (do_block) @namespace-body) @namespace`)

	// include Module, inside a class/module body (§4.4.d's class_includes).
	a.RegisterQuery(QueryInclude, `(call
		method: (identifier) @include-verb (#eq? @include-verb "include")
		arguments: (argument_list . (constant) @include-name)) @include`)

	// belongs_to/has_one/has_many/has_and_belongs_to_many associations,
	// inside a class body (§4.4.d's association-edge scan).
	a.RegisterQuery(QueryAssociation, `(call
		method: (identifier) @assoc-type
		(#match? @assoc-type "^(belongs_to|has_one|has_many|has_and_belongs_to_many)$")
		arguments: (argument_list . (simple_symbol) @assoc-target)) @assoc`)

	a.SetHooks(lang.Hooks{
		EndpointPathFilter: func(file string) bool {
			return hasSuffix(file, "routes.rb")
		},
		DataModelPathFilter: func(file string) bool {
			return contains(file, "schema.rb") || contains(file, "db/migrate")
		},
		IsTestFile: func(file, _ string) bool {
			return contains(file, "_spec.rb") || contains(file, "_test.rb")
		},
		IsRouterFile: func(file string) bool {
			return hasSuffix(file, "routes.rb")
		},
		ExpandEndpoint: func(m lang.Match, src []byte) []lang.ResourceAction {
			if _, ok := m.Get("route-name"); !ok {
				return nil
			}
			return resourceActions
		},
		FindFunctionParent: func(fnNode *sitter.Node, src []byte, file string) (string, bool) {
			for n := fnNode; n != nil; n = n.Parent() {
				if n.Type() == "class" {
					for i := 0; i < int(n.NamedChildCount()); i++ {
						c := n.NamedChild(i)
						if c.Type() == "constant" || c.Type() == "scope_resolution" {
							return string(src[c.StartByte():c.EndByte()]), true
						}
					}
				}
			}
			return "", false
		},
		ConvertAssociationToName: func(associationType, target string) string {
			switch associationType {
			case "belongs_to", "has_one":
				return capitalize(target)
			default:
				return capitalize(singularize(target))
			}
		},
		AddEndpointVerb: func(m lang.Match, src []byte) string {
			if c, ok := m.Get("route-verb"); ok {
				return upper(c.Text(src))
			}
			return "GET"
		},
		// `Person.new`, `Order.find(id)`: a call whose receiver is a
		// constant names a class directly, so it resolves there instead of
		// going through the (often ambiguous) method-name lookup every
		// other call uses (§4.4.k's direct_class_calls).
		DirectClassCalls: true,
		// A definition solargraph resolves under the gem home rather than
		// the app tree is a library symbol, not a class this repository
		// declares.
		IsLibFile: func(path string) bool {
			return contains(path, "/gems/") || contains(path, "/ruby/")
		},
	})
	return a
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func contains(s, sub string) bool {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return true
		}
	}
	return false
}

// singularize strips the common Rails-association plural suffixes off an
// already-symbol-trimmed target name (e.g. "orders" -> "order",
// "categories" -> "category"). It is deliberately a simple heuristic, not a
// full inflector: Rails model names in the corpus this is grounded on never
// need more than these three cases.
func singularize(s string) string {
	switch {
	case hasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case hasSuffix(s, "ses"):
		return s[:len(s)-2]
	case hasSuffix(s, "s") && !hasSuffix(s, "ss"):
		return s[:len(s)-1]
	default:
		return s
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 32
	}
	return string(b)
}

func (a *Adapter) Name() string         { return "ruby" }
func (a *Adapter) Extensions() []string { return []string{".rb"} }
func (a *Adapter) PkgFiles() []string   { return []string{"Gemfile"} }
func (a *Adapter) SkipDirs() []string   { return []string{".git", "vendor", "tmp", "log"} }

func (a *Adapter) QueryNames(phase string) []string {
	switch phase {
	case "libraries":
		return []string{QueryLibrary}
	case "classes":
		return []string{QueryClass}
	case "functions":
		return []string{QueryFunction}
	case "datamodels":
		return []string{QueryDataModel}
	case "endpoints":
		return []string{QueryRouteVerb}
	case "endpoint_groups":
		return []string{QueryRouteGroup}
	case "endpoint_namespaces":
		return []string{QueryRouteNamespace}
	case "class_includes":
		return []string{QueryInclude}
	case "class_associations":
		return []string{QueryAssociation}
	case "calls":
		return []string{QueryCall}
	default:
		return nil
	}
}
