// Package link implements the cross-cutting linking passes that run after
// a repository (or union of repositories) has been built: integration
// tests to the endpoints their bodies mention, end-to-end tests to the
// pages and frontend functions they exercise, and frontend Request nodes
// to the backend Endpoint nodes they call. Grounded on
// original_source/ast/src/lang/linker.rs, ported function-for-function.
package link

import (
	"path"
	"regexp"
	"strings"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
)

// LinkTests runs every test-linking pass in the order linker.rs's
// link_tests does: integration tests, then e2e-to-page, then e2e-to-frontend-function.
func LinkTests(bk backend.Backend) {
	LinkIntegrationTests(bk)
	LinkE2ETestsPages(bk)
	LinkE2ETests(bk)
}

// LinkIntegrationTests adds a Calls edge from every Test node, whatever its
// file, to every Endpoint whose name appears, case-insensitively, in the
// test's body. It is the coarse substring-containment fallback to the
// Builder's UseIntegrationTestFinder pass; E2eTest nodes are not considered.
func LinkIntegrationTests(bk backend.Backend) {
	tests := bk.FindNodesByType(graph.KindTest)
	if len(tests) == 0 {
		return
	}
	endpoints := bk.FindNodesByType(graph.KindEndpoint)
	if len(endpoints) == 0 {
		return
	}
	for _, t := range tests {
		bodyLC := strings.ToLower(t.Body)
		for _, ep := range endpoints {
			if strings.Contains(bodyLC, strings.ToLower(ep.Name)) {
				bk.AddEdge(graph.Calls(graph.KindTest, t, graph.KindEndpoint, ep, 0, 0, ""))
			}
		}
	}
}

// LinkE2ETestsPages adds a Calls edge from each E2eTest to every Page whose
// name appears, case-insensitively, in the test's body.
func LinkE2ETestsPages(bk backend.Backend) {
	tests := bk.FindNodesByType(graph.KindE2eTest)
	if len(tests) == 0 {
		return
	}
	pages := bk.FindNodesByType(graph.KindPage)
	if len(pages) == 0 {
		return
	}
	for _, t := range tests {
		bodyLC := strings.ToLower(t.Body)
		for _, p := range pages {
			if strings.Contains(bodyLC, strings.ToLower(p.Name)) {
				bk.AddEdge(graph.Calls(graph.KindE2eTest, t, graph.KindPage, p, 0, 0, ""))
			}
		}
	}
}

// langInfo is the small per-extension table linker.rs reads off its
// PROGRAMMING_LANGUAGES registry: whether a test-id regex applies and
// whether the language counts as frontend for e2e linking.
type langInfo struct {
	testIDRegex *regexp.Regexp
	isFrontend  bool
}

var languagesByExt = map[string]langInfo{
	".tsx": {testIDRegex: dataTestIDRegex, isFrontend: true},
	".jsx": {testIDRegex: dataTestIDRegex, isFrontend: true},
	".ts":  {testIDRegex: dataTestIDRegex, isFrontend: true},
	".js":  {testIDRegex: dataTestIDRegex, isFrontend: true},
}

// dataTestIDRegex matches the `data-testid="..."` / `getByTestId('...')`
// idiom most React/Cypress/Playwright suites converge on.
var dataTestIDRegex = regexp.MustCompile(`data-testid=["']([^"']+)["']|getByTestId\(["']([^"']+)["']\)`)

func inferLang(file string) (langInfo, bool) {
	info, ok := languagesByExt[strings.ToLower(path.Ext(file))]
	return info, ok
}

// extractTestIDs pulls every test-id capture out of content for the given
// language, returning nil (not an error) when the language defines no
// test-id convention.
func extractTestIDs(content string, info langInfo) []string {
	if info.testIDRegex == nil {
		return nil
	}
	var ids []string
	for _, m := range info.testIDRegex.FindAllStringSubmatch(content, -1) {
		for _, g := range m[1:] {
			if g != "" {
				ids = append(ids, g)
				break
			}
		}
	}
	return ids
}

// LinkE2ETests adds a Calls edge from each E2eTest to every frontend
// Function whose body shares at least one test-id with the test's body.
func LinkE2ETests(bk backend.Backend) {
	type withIDs struct {
		node graph.NodeData
		ids  []string
	}
	var e2eTests, frontendFns []withIDs

	for _, n := range bk.FindNodesByType(graph.KindE2eTest) {
		if info, ok := inferLang(n.File); ok {
			if ids := extractTestIDs(n.Body, info); len(ids) > 0 {
				e2eTests = append(e2eTests, withIDs{n, ids})
			}
		}
	}
	for _, n := range bk.FindNodesByType(graph.KindFunction) {
		info, ok := inferLang(n.File)
		if !ok || !info.isFrontend {
			continue
		}
		if ids := extractTestIDs(n.Body, info); len(ids) > 0 {
			frontendFns = append(frontendFns, withIDs{n, ids})
		}
	}

	for _, t := range e2eTests {
		for _, f := range frontendFns {
			if shareID(t.ids, f.ids) {
				bk.AddEdge(graph.Calls(graph.KindE2eTest, t.node, graph.KindFunction, f.node, 0, 0, ""))
			}
		}
	}
}

func shareID(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if set[id] {
			return true
		}
	}
	return false
}

// LinkAPINodes matches frontend Request nodes to backend Endpoint nodes by
// normalized path and verb, adding a Calls edge per match.
func LinkAPINodes(bk backend.Backend) {
	type pathed struct {
		node graph.NodeData
		path string
	}
	var requests []pathed
	for _, n := range bk.FindNodesByType(graph.KindRequest) {
		if p, ok := NormalizeFrontendPath(n.Name); ok {
			requests = append(requests, pathed{n, p})
		}
	}
	var endpoints []pathed
	for _, n := range bk.FindNodesByType(graph.KindEndpoint) {
		if p, ok := NormalizeBackendPath(n.Name); ok {
			endpoints = append(endpoints, pathed{n, p})
		}
	}

	for _, req := range requests {
		for _, ep := range endpoints {
			if PathsMatch(req.path, ep.path) && VerbsMatch(req.node, ep.node) {
				bk.AddEdge(graph.Calls(graph.KindRequest, req.node, graph.KindEndpoint, ep.node, 0, 0, ""))
			}
		}
	}
}

var templateExprRe = regexp.MustCompile(`\$\{[^}]+\}`)

// NormalizeFrontendPath strips a leading template prefix (`${ROOT}/...`)
// and rewrites remaining `${var}` expressions to `:param`. Returns
// ok=false for a path that is entirely one template literal (nothing left
// to match against).
func NormalizeFrontendPath(p string) (string, bool) {
	if strings.HasPrefix(p, "${") && strings.HasSuffix(p, "}") && !strings.Contains(p[2:], "${") {
		return "", false
	}
	pathPart := p
	if strings.HasPrefix(p, "${") {
		if idx := strings.Index(p, "}"); idx >= 0 {
			pathPart = p[idx+1:]
		} else {
			return "", false
		}
	}
	normalized := templateExprRe.ReplaceAllString(pathPart, ":param")
	normalized = strings.TrimPrefix(normalized, "/")
	return "/" + normalized, true
}

var backendPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<[^>]*:?[^>]+>`),     // Flask/FastAPI <type:param> or <param>
	regexp.MustCompile(`:[^/]+`),             // Express/Rails :param
	regexp.MustCompile(`\{[^}]+\}`),          // Go/Rust {param} (also covers {param?})
	regexp.MustCompile(`\([^)]+\)`),          // optional-parameter (param)
	regexp.MustCompile(`\[\.\.\.[^\]]+\]`),   // Next.js catch-all [...param]
	regexp.MustCompile(`\[[^\]]+\]`),         // Next.js [param]
}

// NormalizeBackendPath rewrites every framework's parameter syntax to
// `:param` and ensures a single leading slash with no trailing slash
// (except for the bare root path).
func NormalizeBackendPath(p string) (string, bool) {
	normalized := p
	for _, re := range backendPatterns {
		normalized = re.ReplaceAllString(normalized, ":param")
	}
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = normalized[:len(normalized)-1]
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return normalized, true
}

// VerbsMatch reports whether req and endpoint carry the same HTTP verb in
// meta["verb"], case-insensitively. Either side missing a verb is not a
// match.
func VerbsMatch(req, endpoint graph.NodeData) bool {
	if req.Meta == nil || endpoint.Meta == nil {
		return false
	}
	reqVerb, ok1 := req.Meta.Get("verb")
	epVerb, ok2 := endpoint.Meta.Get("verb")
	if !ok1 || !ok2 {
		return false
	}
	return strings.EqualFold(reqVerb, epVerb)
}

// PathsMatch reports whether two normalized paths denote the same route:
// equal segment counts, the `/api` prefix must agree between the two, and
// every segment either matches exactly or at least one side is a `:param`
// placeholder.
func PathsMatch(frontendPath, backendPath string) bool {
	fSegs := splitSegments(frontendPath)
	bSegs := splitSegments(backendPath)
	if len(fSegs) != len(bSegs) {
		return false
	}
	fIsAPI := len(fSegs) > 0 && fSegs[0] == "api"
	bIsAPI := len(bSegs) > 0 && bSegs[0] == "api"
	if (fIsAPI || bIsAPI) && fIsAPI != bIsAPI {
		return false
	}
	for i := range fSegs {
		f, b := fSegs[i], bSegs[i]
		fParam, bParam := strings.HasPrefix(f, ":"), strings.HasPrefix(b, ":")
		if f == b || fParam || bParam {
			continue
		}
		return false
	}
	return true
}

func splitSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
