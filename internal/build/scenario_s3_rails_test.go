package build

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/ruby"
)

// TestBuildRailsScenario exercises the endpoint-group expansion: a single
// `resources :people` inside `namespace :api` expands to the seven CRUD
// endpoints, each wired by a Handler edge to the matching controller
// method and renamed with the namespace prefix.
func TestBuildRailsScenario(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "config/routes.rb", `Rails.application.routes.draw do
  namespace :api do
    resources :people
  end
end
`)
	writeTestFile(t, root, "app/controllers/people_controller.rb", `class PeopleController < ApplicationController
  def index
  end

  def show
  end

  def new
  end

  def create
  end

  def edit
  end

  def update
  end

  def destroy
  end
end
`)

	reg := lang.NewRegistry(ruby.New())
	b := New(Options{Root: root, RepoName: "backend", Registry: reg, Config: config.Default()})
	bk, err := b.Build(context.Background())
	require.NoError(t, err)

	endpoints := bk.FindNodesByType(graph.KindEndpoint)
	require.Len(t, endpoints, 7)
	for _, ep := range endpoints {
		assert.True(t, strings.HasPrefix(ep.Name, "/api/people"),
			"endpoint %q should carry the namespace prefix", ep.Name)
	}

	assert.Equal(t, 7, bk.CountEdgesOfType(graph.EdgeHandler))

	// Spot-check one expanded action end to end: DELETE /api/people/:id is
	// handled by PeopleController#destroy.
	var deleteEP *graph.NodeData
	for i, ep := range endpoints {
		v, _ := ep.Meta.Get("verb")
		if ep.Name == "/api/people/:id" && v == "DELETE" {
			deleteEP = &endpoints[i]
		}
	}
	require.NotNil(t, deleteEP, "expected a DELETE /api/people/:id endpoint")

	destroyFns := bk.FindNodesByName(graph.KindFunction, "destroy")
	require.Len(t, destroyFns, 1)
	assert.True(t, bk.HasEdge(
		deleteEP.Key(graph.KindEndpoint), destroyFns[0].Key(graph.KindFunction), graph.EdgeHandler))

	// The controller methods keep their Operand edge back to the class.
	classes := bk.FindNodesByName(graph.KindClass, "PeopleController")
	require.Len(t, classes, 1)
	assert.True(t, bk.HasEdge(
		classes[0].Key(graph.KindClass), destroyFns[0].Key(graph.KindFunction), graph.EdgeOperand))
}
