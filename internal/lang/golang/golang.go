// Package golang is the Grammar Adapter for Go source (§4.1), grounded on
// viant-linager's inspector/golang tree-sitter queries
// (inspector/golang/inspector_tree_sitter.go): one query per declaration
// kind, kept intentionally shallow so the collectors do the structural
// work instead of the grammar.
package golang

import (
	tsgolang "github.com/smacker/go-tree-sitter/golang"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
)

const (
	QueryPackage    = "package"
	QueryImport     = "import"
	QueryFunction   = "function"
	QueryMethod     = "method"
	QueryTypeStruct = "type_struct"
	QueryTypeIface  = "type_interface"
	QueryDataModel  = "data_model"
	QueryVar        = "var"
	QueryConst      = "const"
	QueryInstance   = "instance"
	QueryCall       = "call"
	QueryRoute      = "route"
)

// Adapter is the Go language adapter.
type Adapter struct {
	lang.BaseAdapter
}

// New builds the Go adapter with its query set registered.
func New() *Adapter {
	a := &Adapter{}
	a.SetLanguage(tsgolang.GetLanguage())

	a.RegisterQuery(QueryPackage, `(package_clause (package_identifier) @package)`)
	a.RegisterQuery(QueryImport, `(import_spec path: (interpreted_string_literal) @import-path) @import`)
	a.RegisterQuery(QueryFunction, `(function_declaration
		name: (identifier) @function-name
		parameters: (parameter_list) @function-params
		body: (block) @function-body) @function`)
	a.RegisterQuery(QueryMethod, `(method_declaration
		receiver: (parameter_list
			(parameter_declaration type: [(pointer_type (type_identifier) @method-receiver-type) (type_identifier) @method-receiver-type]))
		name: (field_identifier) @function-name
		body: (block) @function-body) @method`)
	a.RegisterQuery(QueryTypeStruct, `(type_declaration (type_spec
		name: (type_identifier) @class-name
		type: (struct_type) @class-body)) @class`)
	a.RegisterQuery(QueryTypeIface, `(type_declaration (type_spec
		name: (type_identifier) @trait-name
		type: (interface_type) @trait-body)) @trait`)
	// Structs double as data models: the persistence/API shapes a Go
	// service declares. The clean phase later drops the Class side of any
	// struct no method takes as its receiver; the DataModel side stays.
	a.RegisterQuery(QueryDataModel, `(type_declaration (type_spec
		name: (type_identifier) @data-model-name
		type: (struct_type) @data-model-body)) @data-model`)
	// Wrapped in source_file so only package-level declarations match;
	// function-local bindings are out of scope.
	a.RegisterQuery(QueryVar, `(source_file (var_declaration (var_spec name: (identifier) @var-name)) @var)`)
	a.RegisterQuery(QueryConst, `(source_file (const_declaration (const_spec name: (identifier) @const-name)) @const)`)
	a.RegisterQuery(QueryInstance, `(source_file (var_declaration (var_spec
		name: (identifier) @instance-name
		value: (expression_list [
			(composite_literal type: (type_identifier) @instance-class)
			(unary_expression operand: (composite_literal type: (type_identifier) @instance-class))
		]))) @instance)`)
	a.RegisterQuery(QueryCall, `(call_expression
		function: [(identifier) @call-name (selector_expression operand: (_) @call-operand field: (field_identifier) @call-name)]
		arguments: (argument_list) @call-args) @call`)
	// Route registration as seen in chi/gorilla-mux-style routers: r.Get("/path", handler).
	a.RegisterQuery(QueryRoute, `(call_expression
		function: (selector_expression
			operand: (_) @route-operand
			field: (field_identifier) @route-verb)
		(#match? @route-verb "^(Get|Post|Put|Patch|Delete|Head|Options)$")
		arguments: (argument_list
			. (interpreted_string_literal) @route-path
			. (identifier) @route-handler)) @route`)

	a.SetHooks(lang.Hooks{
		IsTestFile: func(file, _ string) bool {
			return hasSuffix(file, "_test.go")
		},
		IsRouterFile: func(file string) bool {
			return hasSuffix(file, "router.go") || hasSuffix(file, "routes.go")
		},
		ResolveImportPath: func(raw string) string {
			return trimQuotes(raw)
		},
		AddEndpointVerb: func(m lang.Match, src []byte) string {
			if c, ok := m.Get("route-verb"); ok {
				return c.Text(src)
			}
			return ""
		},
		// A definition the LSP resolves under the module cache or GOROOT is
		// a library symbol, not repository code: gopls answers with the
		// on-disk path it actually parsed, which always lives outside the
		// repository root for a dependency.
		IsLibFile: func(path string) bool {
			return contains(path, "/pkg/mod/") || contains(path, "/go/src/") || contains(path, "/goroot/")
		},
		CleanGraph: []lang.CleanRule{
			{ParentKind: graph.KindClass, ChildKind: graph.KindFunction, ChildMetaKey: "operand"},
		},
	})
	return a
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
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

func (a *Adapter) Name() string          { return "go" }
func (a *Adapter) Extensions() []string  { return []string{".go"} }
func (a *Adapter) PkgFiles() []string    { return []string{"go.mod"} }
func (a *Adapter) SkipDirs() []string    { return []string{"vendor", ".git", "testdata"} }

func (a *Adapter) QueryNames(phase string) []string {
	switch phase {
	case "libraries":
		// go.mod isn't valid Go source, so no query here: internal/build
		// parses go.mod directly via golang.org/x/mod/modfile instead.
		return nil
	case "imports":
		return []string{QueryImport}
	case "variables":
		return []string{QueryVar, QueryConst}
	case "classes":
		return []string{QueryTypeStruct}
	case "traits":
		return []string{QueryTypeIface}
	case "datamodels":
		return []string{QueryDataModel}
	case "instances":
		return []string{QueryInstance}
	case "functions":
		return []string{QueryFunction, QueryMethod}
	case "endpoints":
		return []string{QueryRoute}
	case "calls":
		return []string{QueryCall}
	default:
		return nil
	}
}
