package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codekg/graphbuild/internal/build"
	"github.com/codekg/graphbuild/internal/config"
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
	"github.com/codekg/graphbuild/internal/lang"
	"github.com/codekg/graphbuild/internal/lang/golang"
	"github.com/codekg/graphbuild/internal/lang/reactjs"
	"github.com/codekg/graphbuild/internal/lang/ruby"
	"github.com/codekg/graphbuild/internal/lsp"
	"github.com/codekg/graphbuild/internal/obslog"
	"github.com/codekg/graphbuild/internal/progressui"
)

// commonFlags are the flags build/diff/dump all take.
type commonFlags struct {
	configPath string
	backend    string
	output     string
	quiet      bool
	noColor    bool
	noLSP      bool
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "graphbuild.yaml", "path to the build config file")
	cmd.Flags().StringVar(&f.backend, "backend", "", "override the configured backend (array|map|remote)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write JSON output here instead of stdout")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "disable progress bars")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&f.noLSP, "no-lsp", false, "skip LSP-backed resolution (handler/call lookups degrade gracefully)")
}

func defaultRegistry() *lang.Registry {
	return lang.NewRegistry(golang.New(), reactjs.New(), ruby.New())
}

// buildOne runs the full pipeline over one repository root.
func buildOne(ctx context.Context, root string, f commonFlags, revisions []string) (backend.Backend, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.backend != "" {
		cfg.Backend = config.Backend(f.backend)
	}

	logger := obslog.New()
	progress := progressui.Auto(f.quiet, f.noColor)

	var mgr *lsp.Manager
	if !f.noLSP {
		mgr = lsp.NewManager(cfg.LSPServerCommands())
		defer mgr.StopAll()
	}

	builder := build.New(build.Options{
		Root:       root,
		RepoName:   filepath.Base(root),
		Registry:   defaultRegistry(),
		Config:     cfg,
		Logger:     logger,
		Progress:   progress,
		LSPManager: mgr,
		Revisions:  revisions,
	})
	return builder.Build(ctx)
}

// buildRoots builds every root independently, unions the graphs when there
// is more than one root, and runs the linking passes
// (internal/build.LinkAll) once over the result, matching original_source/ast/src/repo.rs's
// multi-repo driver where linking runs once over the combined graph rather
// than once per repo.
func buildRoots(ctx context.Context, roots []string, f commonFlags, revisions []string) (backend.Backend, error) {
	if len(roots) == 1 {
		bk, err := buildOne(ctx, roots[0], f, revisions)
		if err != nil {
			return nil, err
		}
		build.LinkAll(bk)
		return bk, nil
	}

	built := make([]backend.Backend, 0, len(roots))
	for _, root := range roots {
		bk, err := buildOne(ctx, root, f, revisions)
		if err != nil {
			return nil, err
		}
		built = append(built, bk)
	}
	union := build.UnionGraphs(built...)
	build.LinkAll(union)
	return union, nil
}

// writeJSON serializes nodes then edges, per spec.md §6's "nodes precede
// edges" output ordering invariant.
func writeJSON(out string, bk backend.Backend) error {
	var w io.Writer = os.Stdout
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	doc := struct {
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{Nodes: bk.AllNodes(), Edges: bk.AllEdges()}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
