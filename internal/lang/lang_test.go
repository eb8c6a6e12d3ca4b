package lang_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
	"github.com/codekg/graphbuild/internal/lang/reactjs"
	"github.com/codekg/graphbuild/internal/lang/ruby"
)

func parse(t *testing.T, a lang.Adapter, src string) (*sitter.Node, []byte) {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(a.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	return tree.RootNode(), []byte(src)
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	reg := lang.NewRegistry(golang.New(), reactjs.New(), ruby.New())

	a, err := reg.For("internal/build/builder.go")
	require.NoError(t, err)
	assert.Equal(t, "go", a.Name())

	a, err = reg.For("src/App.tsx")
	require.NoError(t, err)
	assert.Equal(t, "reactjs", a.Name())

	a, err = reg.For("app/models/user.rb")
	require.NoError(t, err)
	assert.Equal(t, "ruby", a.Name())

	_, err = reg.For("README.md")
	assert.ErrorAs(t, err, &lang.ErrUnsupportedLanguage{})
}

func TestRegistryForPkgFile(t *testing.T) {
	reg := lang.NewRegistry(golang.New(), reactjs.New(), ruby.New())
	a, ok := reg.ForPkgFile("go.mod")
	require.True(t, ok)
	assert.Equal(t, "go", a.Name())

	_, ok = reg.ForPkgFile("Cargo.toml")
	assert.False(t, ok)
}

func TestGoFunctionQueryFindsFunctions(t *testing.T) {
	a := golang.New()
	src := `package main

func main() {
	helper()
}

func helper() {}
`
	root, srcBytes := parse(t, a, src)
	matches := lang.RunQuery(a, golang.QueryFunction, root, srcBytes)
	require.Len(t, matches, 2)

	names := map[string]bool{}
	for _, m := range matches {
		c, ok := m.Get("function-name")
		require.True(t, ok)
		names[c.Text(srcBytes)] = true
	}
	assert.True(t, names["main"])
	assert.True(t, names["helper"])
}

func TestGoCallQueryFindsOperandCalls(t *testing.T) {
	a := golang.New()
	src := `package main

func main() {
	fmt.Println("hi")
}
`
	root, srcBytes := parse(t, a, src)
	matches := lang.RunQuery(a, golang.QueryCall, root, srcBytes)
	require.Len(t, matches, 1)
	name, ok := matches[0].Get("call-name")
	require.True(t, ok)
	assert.Equal(t, "Println", name.Text(srcBytes))
	operand, ok := matches[0].Get("call-operand")
	require.True(t, ok)
	assert.Equal(t, "fmt", operand.Text(srcBytes))
}

func TestRubyClassQueryFindsSuperclass(t *testing.T) {
	a := ruby.New()
	src := `class PeopleController < ApplicationController
  def index
  end
end
`
	root, srcBytes := parse(t, a, src)
	matches := lang.RunQuery(a, ruby.QueryClass, root, srcBytes)
	require.Len(t, matches, 1)
	name, ok := matches[0].Get("class-name")
	require.True(t, ok)
	assert.Equal(t, "PeopleController", name.Text(srcBytes))
	parent, ok := matches[0].Get("class-parent")
	require.True(t, ok)
	assert.Equal(t, "ApplicationController", parent.Text(srcBytes))
}

func TestRubyHooksExpandEndpointExpandsResources(t *testing.T) {
	a := ruby.New()
	hooks := a.Hooks()
	require.NotNil(t, hooks.ExpandEndpoint)

	src := `resources :people`
	root, srcBytes := parse(t, a, src)
	matches := lang.RunQuery(a, ruby.QueryRouteGroup, root, srcBytes)
	require.Len(t, matches, 1)

	actions := hooks.ExpandEndpoint(matches[0], srcBytes)
	require.Len(t, actions, 7)
}

func TestReactJSXElementQueryFindsTags(t *testing.T) {
	a := reactjs.New()
	src := `function App() {
	return <People />;
}
`
	root, srcBytes := parse(t, a, src)
	matches := lang.RunQuery(a, reactjs.QueryJSXElement, root, srcBytes)
	require.Len(t, matches, 1)
	tag, ok := matches[0].Get("jsx-tag")
	require.True(t, ok)
	assert.Equal(t, "People", tag.Text(srcBytes))
}

func TestQueryNamesCoverKeyPhases(t *testing.T) {
	for _, a := range []lang.Adapter{golang.New(), reactjs.New(), ruby.New()} {
		assert.NotEmpty(t, a.QueryNames("functions"), a.Name())
		assert.NotEmpty(t, a.QueryNames("calls"), a.Name())
	}
}
