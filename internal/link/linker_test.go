package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
)

func TestNormalizeFrontendPath(t *testing.T) {
	got, ok := NormalizeFrontendPath("${ROOT}/api/user/${id}")
	require.True(t, ok)
	assert.Equal(t, "/api/user/:param", got)

	got, ok = NormalizeFrontendPath("${SOME_CONSTANT}/user/${id}")
	require.True(t, ok)
	assert.Equal(t, "/user/:param", got)

	_, ok = NormalizeFrontendPath("${ENDPOINTS.something}")
	assert.False(t, ok)
}

func TestNormalizeBackendPath(t *testing.T) {
	cases := []struct{ in, want string }{
		// Express.js/Rails
		{"api/users/:id", "/api/users/:param"},
		{"/users/:userId/posts/:postId", "/users/:param/posts/:param"},
		// Flask/FastAPI
		{"/api/users/<id>", "/api/users/:param"},
		{"/api/users/<int:id>", "/api/users/:param"},
		// Go/Rust
		{"/api/users/{id}", "/api/users/:param"},
		{"/users/{userId}/posts/{postId}", "/users/:param/posts/:param"},
		// Optional parameters
		{"/api/users/(id)", "/api/users/:param"},
		{"/api/users/{id?}", "/api/users/:param"},
		// Trailing slashes
		{"/api/users/", "/api/users"},
		{"/", "/"},
	}
	for _, c := range cases {
		got, ok := NormalizeBackendPath(c.in)
		require.True(t, ok)
		assert.Equal(t, c.want, got, "input: %s", c.in)
	}
}

func TestPathsMatch(t *testing.T) {
	assert.True(t, PathsMatch("/api/user/:param", "/api/user/:id"))
	assert.True(t, PathsMatch("/api/users/123", "/api/users/:id"))
	assert.False(t, PathsMatch("/api/user/:param", "/api/posts/:id"))
	assert.False(t, PathsMatch("/user/:param", "/api/user/:id"))
	assert.False(t, PathsMatch("/api/user/:param/extra", "/api/user/:id"))
}

func TestLinkAPINodes(t *testing.T) {
	bk := backend.NewArray()

	req1 := graph.NodeData{Name: "api/user/${id}", File: "src/components/User.tsx"}
	graph.MetaOf(&req1).Set("verb", "GET")
	bk.AddNode(graph.KindRequest, req1)

	endpoint1 := graph.NodeData{Name: "/api/user/:id", File: "src/routes/user.ts"}
	graph.MetaOf(&endpoint1).Set("verb", "GET")
	bk.AddNode(graph.KindEndpoint, endpoint1)

	// Non-matching pair: same-shaped path, different verb.
	req2 := graph.NodeData{Name: "/api/posts/${id}", File: "src/components/Post.tsx"}
	graph.MetaOf(&req2).Set("verb", "POST")
	bk.AddNode(graph.KindRequest, req2)

	endpoint2 := graph.NodeData{Name: "/api/posts/:id", File: "src/routes/posts.ts"}
	graph.MetaOf(&endpoint2).Set("verb", "GET")
	bk.AddNode(graph.KindEndpoint, endpoint2)

	LinkAPINodes(bk)

	_, edges := bk.GraphSize()
	assert.Equal(t, 1, edges)
}

func TestLinkIntegrationTests(t *testing.T) {
	bk := backend.NewArray()
	ep := graph.NodeData{Name: "CreateUser", File: "routes.go"}
	bk.AddNode(graph.KindEndpoint, ep)
	test := graph.NodeData{Name: "TestCreateUser", File: "routes_test.go", Body: "resp := client.Post(CreateUser(...))"}
	bk.AddNode(graph.KindTest, test)

	LinkIntegrationTests(bk)

	_, edges := bk.GraphSize()
	assert.Equal(t, 1, edges)
}

func TestLinkE2ETestsSharedTestID(t *testing.T) {
	bk := backend.NewArray()
	e2e := graph.NodeData{
		Name: "logs in",
		File: "e2e/login.spec.ts",
		Body: `cy.get(getByTestId('login-button')).click()`,
	}
	bk.AddNode(graph.KindE2eTest, e2e)

	fn := graph.NodeData{
		Name: "LoginButton",
		File: "src/components/LoginButton.tsx",
		Body: `<button data-testid="login-button">Log in</button>`,
	}
	bk.AddNode(graph.KindFunction, fn)

	unrelatedFn := graph.NodeData{
		Name: "Footer",
		File: "src/components/Footer.tsx",
		Body: `<div data-testid="footer">...</div>`,
	}
	bk.AddNode(graph.KindFunction, unrelatedFn)

	LinkE2ETests(bk)

	edges := bk.AllEdges()
	require.Len(t, edges, 1)
	assert.Equal(t, fn.Key(graph.KindFunction), edges[0].TargetKey)
}
