// Package build drives the fixed-order pipeline that turns a scanned
// repository into a populated graph: enumerate files, parse each one in a
// bounded worker pool, then run every collection phase sequentially over
// the backend (collection itself is never parallel -- phases read back
// what earlier phases wrote). Grounded on
// original_source/ast/src/builder.rs's Builder::build_graph_inner phase
// order.
package build

import (
	"context"
	"encoding/json"
	"path"
	"runtime"
	"sort"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/sirupsen/logrus"

	"github.com/codekg/graphbuild/internal/builderrors"
	"github.com/codekg/graphbuild/internal/collect"
	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lsp"
	"github.com/codekg/graphbuild/internal/metrics"
	"github.com/codekg/graphbuild/internal/obslog"
	"github.com/codekg/graphbuild/internal/progressui"
	"github.com/codekg/graphbuild/internal/repo"
	"github.com/codekg/graphbuild/internal/revision"
)

// Options configures one Build call.
type Options struct {
	Root       string
	RepoName   string
	Registry   *lang.Registry
	Config     config.Config
	Logger     *logrus.Logger
	Progress   progressui.Config
	LSPManager *lsp.Manager

	// Revisions, when non-nil, restricts the final graph to these
	// repository-relative files via internal/revision (§4.7).
	Revisions []string
}

// Builder runs the fixed-order phase pipeline over one repository.
type Builder struct {
	opts Options
	log  *logrus.Logger
}

// New builds a Builder. A nil Logger gets obslog's default.
func New(opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = obslog.New()
	}
	return &Builder{opts: opts, log: opts.Logger}
}

// parsedFile is the output of the bounded parse pool: one entry per
// enumerated file, regardless of whether it ended up parseable.
type parsedFile struct {
	file      string
	src       []byte
	hash      *uint64
	root      *sitter.Node
	adapter   lang.Adapter
	isGoMod   bool
	isPkgJSON bool
}

// Build runs the entire pipeline for one repository rooted at
// opts.Root, returning the populated backend.
func (b *Builder) Build(ctx context.Context) (backend.Backend, error) {
	started := time.Now()
	b.log.WithField("root", b.opts.Root).Info("build: starting")

	fileCfg, err := repo.LoadFileConfig(b.opts.Root)
	if err != nil {
		return nil, builderrors.New(builderrors.ClassFatalConfig, "reading .ast.json", b.opts.Root, err)
	}
	scan, err := repo.Enumerate(b.opts.Root, b.opts.Registry, fileCfg)
	if err != nil {
		return nil, builderrors.New(builderrors.ClassFatalConfig, "enumerating repository", b.opts.Root, err)
	}

	bk, err := b.newBackend(ctx)
	if err != nil {
		return nil, err
	}

	bk.AddNode(graph.KindRepository, graph.NodeData{Name: b.opts.RepoName})
	metrics.IncNode(string(graph.KindRepository))

	for _, a := range b.opts.Registry.All() {
		bk.AddNodeWithParent(graph.KindLanguage, graph.NodeData{Name: a.Name()}, graph.KindRepository, "")
		metrics.IncNode(string(graph.KindLanguage))
	}

	files := b.parseFiles(ctx, scan.Files)
	b.buildTree(bk, scan, files)

	skip := b.opts.Config.ResolveSkipFlags()

	bar := progressui.NewPhaseBar(b.opts.Progress, len(files), "collect")

	finders := collect.NewFinders(bk)
	var contexts []*collect.Context
	var libraries, allImports, allClasses, allModels []graph.NodeData

	phase := func(name string, fn func()) {
		t := time.Now()
		fn()
		metrics.ObservePhaseDuration(name, time.Since(t).Seconds())
		b.log.WithField("phase", name).WithField("elapsed", time.Since(t)).Debug("build: phase done")
	}

	phase("libraries", func() {
		for _, pf := range files {
			switch {
			case pf.isGoMod:
				libraries = append(libraries, b.collectGoModLibraries(bk, pf)...)
			case pf.isPkgJSON:
				libraries = append(libraries, b.collectPackageJSONLibraries(bk, pf)...)
			case pf.adapter != nil && pf.root != nil:
				cctx := &collect.Context{
					Backend: bk, Adapter: pf.adapter, File: pf.file, Src: pf.src, Root: pf.root,
					Finders: finders, SkipBody: skip.SkipFileContent,
				}
				contexts = append(contexts, cctx)
				libraries = append(libraries, cctx.Libraries()...)
			}
			metrics.IncPhaseFiles("libraries")
		}
	})

	phase("imports", func() {
		for _, cctx := range contexts {
			allImports = append(allImports, cctx.Imports()...)
		}
	})

	phase("variables", func() {
		for _, cctx := range contexts {
			cctx.Variables()
		}
	})

	phase("classes", func() {
		for _, cctx := range contexts {
			allClasses = append(allClasses, cctx.Classes()...)
		}
		collect.LinkClassHierarchy(contexts, allClasses)
	})

	phase("instances_traits", func() {
		for _, cctx := range contexts {
			cctx.Instances()
			cctx.Traits()
		}
	})

	phase("datamodels", func() {
		for _, cctx := range contexts {
			allModels = append(allModels, cctx.DataModels()...)
		}
		// LinkDataModelAssociations reads its adapter's DataModelWithinFinder
		// hook, so it needs a real per-language Context; run it once per
		// distinct adapter present rather than once globally.
		seen := map[string]bool{}
		for _, cctx := range contexts {
			name := cctx.Adapter.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			cctx.LinkDataModelAssociations(allClasses, allModels)
		}
	})

	phase("functions", func() {
		for _, cctx := range contexts {
			cctx.Functions()
			progressui.Advance(bar)
		}
	})

	phase("pages", func() {
		for _, cctx := range contexts {
			hooks := cctx.Adapter.Hooks()
			if hooks.IsRouterFile != nil && !hooks.IsRouterFile(cctx.File) {
				continue
			}
			cctx.Pages()
		}
	})

	if b.opts.LSPManager != nil {
		phase("lsp_didopen", func() {
			for _, cctx := range contexts {
				bridge, err := b.opts.LSPManager.Bridge(ctx, b.opts.Root, cctx.Adapter.Name())
				if err != nil {
					continue // no server configured for this language: Resolve-class degrade
				}
				if err := bridge.DidOpen(ctx, cctx.File, string(cctx.Src), cctx.Adapter.Name()); err != nil {
					b.log.WithError(err).WithField("file", cctx.File).Warn("lsp DidOpen failed")
				}
			}
		})
	}

	phase("endpoints", func() {
		for _, cctx := range contexts {
			hooks := cctx.Adapter.Hooks()
			if hooks.EndpointPathFilter != nil && !hooks.EndpointPathFilter(cctx.File) {
				continue
			}
			var bridge *lsp.Bridge
			if b.opts.LSPManager != nil {
				bridge, _ = b.opts.LSPManager.Bridge(ctx, b.opts.Root, cctx.Adapter.Name())
			}
			cctx.Endpoints(ctx, bridge)
		}
		// process_endpoint_groups: a second pass over the same files, since
		// a route-group declaration (Rails `resources`) needs every sibling
		// route in its file collected first to know whether it falls inside
		// a namespace block (§4.4.j).
		for _, cctx := range contexts {
			cctx.EndpointGroups()
		}
	})

	phase("import_edges", func() {
		b.linkImportEdges(bk, allImports)
	})

	if len(libraries) > 0 {
		linker := &collect.Context{Backend: bk}
		linker.LinkImportedLibraries(allImports, libraries)
	}

	phase("integration_tests", func() {
		for _, cctx := range contexts {
			hooks := cctx.Adapter.Hooks()
			if !hooks.UseIntegrationTestFinder || hooks.IntegrationTestEdgeFinder == nil {
				continue
			}
			isTest := cctx.Adapter.IsTestFileDefault(cctx.File)
			if hooks.IsTestFile != nil {
				isTest = hooks.IsTestFile(cctx.File, string(cctx.Src))
			}
			if !isTest {
				continue
			}
			for _, m := range lang.RunQuery(cctx.Adapter, "call", cctx.Root, cctx.Src) {
				targetName, targetFile, ok := hooks.IntegrationTestEdgeFinder(m, cctx.Src, finders)
				if !ok || len(m.Captures) == 0 {
					continue
				}
				line := m.Captures[0].StartLine()
				if ep, ok := bk.FindNodeByNameAndFileEndWith(graph.KindEndpoint, targetName, targetFile); ok {
					if test, ok := bk.FindNodeInRange(graph.KindTest, line, cctx.File); ok {
						bk.AddEdge(graph.Calls(graph.KindTest, test, graph.KindEndpoint, ep, line, line, ""))
					}
				}
			}
		}
	})

	if !skip.SkipCalls {
		phase("calls", func() {
			for _, cctx := range contexts {
				var bridge *lsp.Bridge
				if b.opts.LSPManager != nil {
					bridge, _ = b.opts.LSPManager.Bridge(ctx, b.opts.Root, cctx.Adapter.Name())
				}
				for _, fn := range bk.FindNodesByFileEndsWith(graph.KindFunction, cctx.File) {
					cctx.Calls(ctx, graph.KindFunction, fn, bridge)
				}
				for _, fn := range bk.FindNodesByFileEndsWith(graph.KindTest, cctx.File) {
					cctx.Calls(ctx, graph.KindTest, fn, bridge)
				}
			}
		})
	} else {
		b.log.Info("build: DEV_SKIP_CALLS set, skipping call resolution")
	}

	phase("clean", func() {
		seen := map[string]bool{}
		for _, cctx := range contexts {
			name := cctx.Adapter.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			for _, rule := range cctx.Adapter.Hooks().CleanGraph {
				bk.FilterOutNodesWithoutChildren(rule.ParentKind, rule.ChildKind, rule.ChildMetaKey)
			}
		}
	})

	if b.opts.Revisions != nil {
		bk = revision.Filter(bk, b.opts.Revisions)
	}

	bk.PrefixPaths(b.opts.Root)

	nodes, edges := bk.GraphSize()
	b.log.WithField("nodes", nodes).WithField("edges", edges).
		WithField("elapsed", time.Since(started)).Info("build: done")

	return bk, nil
}

func (b *Builder) newBackend(ctx context.Context) (backend.Backend, error) {
	switch b.opts.Config.Backend {
	case config.BackendRemote:
		rc := b.opts.Config.ResolveRemote()
		bk, err := backend.NewRemote(ctx, backend.RemoteConfig{
			URI: rc.URI, Username: rc.Username, Password: rc.Password, Database: rc.Database,
		})
		if err != nil {
			return nil, builderrors.New(builderrors.ClassFatalConfig, "connecting to remote backend", "", err)
		}
		return bk, nil
	case config.BackendMap:
		return backend.New("map"), nil
	default:
		return backend.New("array"), nil
	}
}

// buildTree inserts Directory and File nodes, wiring each to its parent
// Directory (or the Repository for top-level entries) via
// AddNodeWithParent's parent-file lookup. File nodes carry the content
// hash computed during parsing (§3/§5), looked up by position since files
// is parallel to scan.Files.
func (b *Builder) buildTree(bk backend.Backend, scan repo.Scan, files []parsedFile) {
	for _, dir := range scan.Dirs {
		parentKind, parentFile := graph.KindDirectory, path.Dir(dir)
		if parentFile == "." {
			parentKind, parentFile = graph.KindRepository, ""
		}
		bk.AddNodeWithParent(graph.KindDirectory, graph.NodeData{Name: dir, File: dir}, parentKind, parentFile)
		metrics.IncNode(string(graph.KindDirectory))
	}
	for i, file := range scan.Files {
		dir := path.Dir(file)
		parentKind, parentFile := graph.KindDirectory, dir
		if dir == "." {
			parentKind, parentFile = graph.KindRepository, ""
		}
		data := graph.NodeData{Name: file, File: file}
		if i < len(files) {
			data.Hash = files[i].hash
		}
		bk.AddNodeWithParent(graph.KindFile, data, parentKind, parentFile)
		metrics.IncNode(string(graph.KindFile))
	}
}

// parseFiles reads and tree-sitter-parses every enumerated file through a
// worker pool bounded to NumCPU (§5: parsing is the only parallel stage;
// collection that follows stays sequential). golang.org/x/sync/errgroup's
// SetLimit caps concurrency without a manual semaphore.
func (b *Builder) parseFiles(ctx context.Context, fileList []string) []parsedFile {
	reader := repo.NewReader(b.opts.Root)
	results := make([]parsedFile, len(fileList))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range fileList {
		i, file := i, file
		g.Go(func() error {
			results[i] = b.parseOne(gctx, reader, file)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (b *Builder) parseOne(ctx context.Context, reader *repo.Reader, file string) parsedFile {
	pf := parsedFile{file: file}
	src, err := reader.Read(ctx, file)
	if err != nil {
		b.log.WithError(err).WithField("file", file).Warn("build: reading file")
		return pf
	}
	if src != nil {
		if h, err := graph.ContentHash(src); err == nil {
			pf.hash = &h
		}
	}
	base := path.Base(file)
	switch base {
	case "go.mod":
		pf.isGoMod, pf.src = true, src
		return pf
	case "package.json":
		pf.isPkgJSON, pf.src = true, src
		return pf
	}

	adapter, ok := b.opts.Registry.ForPkgFile(base)
	if !ok {
		adapter, err = b.opts.Registry.For(file)
		if err != nil {
			return pf // unsupported language: File node only, no collection phases run
		}
	}
	pf.adapter, pf.src = adapter, src
	if src == nil {
		return pf // oversized file (§6): File node only, no body
	}

	parser := sitter.NewParser()
	parser.SetLanguage(adapter.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		b.log.WithError(err).WithField("file", file).Warn("build: parse error")
		return pf
	}
	pf.root = tree.RootNode()
	return pf
}

// collectGoModLibraries parses go.mod directly via golang.org/x/mod/modfile
// -- go.mod is not valid Go source, so no tree-sitter query can read it.
func (b *Builder) collectGoModLibraries(bk backend.Backend, pf parsedFile) []graph.NodeData {
	if pf.src == nil {
		return nil
	}
	mf, err := modfile.Parse(pf.file, pf.src, nil)
	if err != nil {
		b.log.WithError(err).WithField("file", pf.file).Warn("build: parsing go.mod")
		return nil
	}
	var out []graph.NodeData
	for _, req := range mf.Require {
		data := graph.NodeData{Name: req.Mod.Path, File: pf.file}
		graph.MetaOf(&data).Set("version", req.Mod.Version)
		if req.Indirect {
			graph.MetaOf(&data).Set("indirect", "true")
		}
		node := bk.AddNodeWithParent(graph.KindLibrary, data, graph.KindFile, pf.file)
		out = append(out, node)
		metrics.IncNode(string(graph.KindLibrary))
	}
	return out
}

type packageJSONDeps struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// collectPackageJSONLibraries parses package.json directly via
// encoding/json -- it's JSON, not JSX/TSX source, so no tree-sitter query
// applies either.
func (b *Builder) collectPackageJSONLibraries(bk backend.Backend, pf parsedFile) []graph.NodeData {
	if pf.src == nil {
		return nil
	}
	var pkg packageJSONDeps
	if err := json.Unmarshal(pf.src, &pkg); err != nil {
		b.log.WithError(err).WithField("file", pf.file).Warn("build: parsing package.json")
		return nil
	}
	var out []graph.NodeData
	add := func(deps map[string]string) {
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			data := graph.NodeData{Name: name, File: pf.file}
			graph.MetaOf(&data).Set("version", deps[name])
			node := bk.AddNodeWithParent(graph.KindLibrary, data, graph.KindFile, pf.file)
			out = append(out, node)
			metrics.IncNode(string(graph.KindLibrary))
		}
	}
	add(pkg.Dependencies)
	add(pkg.DevDependencies)
	return out
}

// linkImportEdges resolves each imported path recorded on a file's Import
// node to a same-named Function/Class/DataModel/Var already in the graph
// and records an Imports edge from the owning File. A simplification of
// original_source/ast/src/builder.rs's collect_import_edges, which asks the
// LSP for the imported symbol's definition file; name-based lookup covers
// the common case (an import whose last path segment matches a declared
// symbol) without a second LSP round trip per import.
func (b *Builder) linkImportEdges(bk backend.Backend, imports []graph.NodeData) {
	for _, imp := range imports {
		owningFile, ok := bk.FindNodeByNameInFile(graph.KindFile, imp.File, imp.File)
		if !ok {
			continue
		}
		for _, p := range collect.ImportPaths(imp) {
			symbol := lastSegment(p)
			if symbol == "" {
				continue
			}
			if targets := bk.FindNodesByName(graph.KindFunction, symbol); len(targets) > 0 {
				bk.AddEdge(graph.Imports(graph.KindFile, owningFile, graph.KindFunction, targets[0]))
				continue
			}
			if targets := bk.FindNodesByName(graph.KindClass, symbol); len(targets) > 0 {
				bk.AddEdge(graph.Imports(graph.KindFile, owningFile, graph.KindClass, targets[0]))
				continue
			}
			if targets := bk.FindNodesByName(graph.KindDataModel, symbol); len(targets) > 0 {
				bk.AddEdge(graph.Imports(graph.KindFile, owningFile, graph.KindDataModel, targets[0]))
				continue
			}
			if targets := bk.FindNodesByName(graph.KindVar, symbol); len(targets) > 0 {
				bk.AddEdge(graph.Imports(graph.KindFile, owningFile, graph.KindVar, targets[0]))
			}
		}
	}
}

func lastSegment(importPath string) string {
	s := importPath
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}
