package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/reactjs"
)

// TestBuildReactScenario exercises the pipeline over a small React
// frontend: two react-router routes, two fetch calls, and one component
// rendered by another. Asserts the Page/Renders extraction from the route
// table, Request nodes with their verbs, and the component-render Calls
// edge.
func TestBuildReactScenario(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "package.json", `{
  "dependencies": {
    "react": "^18.2.0",
    "react-router-dom": "^6.22.0"
  }
}
`)
	writeTestFile(t, root, "src/People.tsx", `import React from "react";

export function People() {
  const load = () => fetch("/people");
  return <ul data-testid="people-list" />;
}
`)
	writeTestFile(t, root, "src/SubmitButton.tsx", `import React from "react";

export function SubmitButton() {
  return <input type="submit" />;
}
`)
	writeTestFile(t, root, "src/NewPerson.tsx", `import React from "react";
import { SubmitButton } from "./SubmitButton";

export function NewPerson() {
  const submit = () => fetch("/person", { method: "POST" });
  return (
    <form>
      <SubmitButton />
    </form>
  );
}
`)
	writeTestFile(t, root, "src/routes.tsx", `import React from "react";
import { People } from "./People";
import { NewPerson } from "./NewPerson";

export const AppRoutes = () => (
  <Routes>
    <Route path="/people" element={<People />} />
    <Route path="/new-person" element={<NewPerson />} />
  </Routes>
);
`)

	reg := lang.NewRegistry(reactjs.New())
	b := New(Options{Root: root, RepoName: "frontend", Registry: reg, Config: config.Default()})
	bk, err := b.Build(context.Background())
	require.NoError(t, err)

	pages := bk.FindNodesByType(graph.KindPage)
	require.Len(t, pages, 2)
	pageNames := map[string]bool{}
	for _, p := range pages {
		pageNames[p.Name] = true
	}
	assert.True(t, pageNames["/people"])
	assert.True(t, pageNames["/new-person"])

	peopleFns := bk.FindNodesByName(graph.KindFunction, "People")
	require.Len(t, peopleFns, 1)
	newPersonFns := bk.FindNodesByName(graph.KindFunction, "NewPerson")
	require.Len(t, newPersonFns, 1)

	peoplePage := bk.FindNodesByName(graph.KindPage, "/people")
	require.Len(t, peoplePage, 1)
	newPersonPage := bk.FindNodesByName(graph.KindPage, "/new-person")
	require.Len(t, newPersonPage, 1)

	assert.True(t, bk.HasEdge(
		peoplePage[0].Key(graph.KindPage), peopleFns[0].Key(graph.KindFunction), graph.EdgeRenders))
	assert.True(t, bk.HasEdge(
		newPersonPage[0].Key(graph.KindPage), newPersonFns[0].Key(graph.KindFunction), graph.EdgeRenders))

	requests := bk.FindNodesByType(graph.KindRequest)
	require.Len(t, requests, 2)
	verbs := map[string]string{}
	for _, r := range requests {
		v, ok := r.Meta.Get("verb")
		require.True(t, ok)
		verbs[r.Name] = v
	}
	assert.Equal(t, "GET", verbs["/people"])
	assert.Equal(t, "POST", verbs["/person"])

	submitFns := bk.FindNodesByName(graph.KindFunction, "SubmitButton")
	require.Len(t, submitFns, 1)
	assert.True(t, bk.HasEdge(
		newPersonFns[0].Key(graph.KindFunction), submitFns[0].Key(graph.KindFunction), graph.EdgeCalls),
		"rendering <SubmitButton /> records a Calls edge from the enclosing component")

	libs := bk.FindNodesByType(graph.KindLibrary)
	libNames := map[string]bool{}
	for _, l := range libs {
		libNames[l.Name] = true
	}
	assert.True(t, libNames["react-router-dom"], "package.json dependencies become Library nodes")
}
