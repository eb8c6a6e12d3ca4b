// Package repo enumerates a repository's directory tree the way
// original_source/ast/src/repo.rs's Repo::collect does: hidden
// directories and each language's skip-dirs are pruned, the remaining
// files are filtered to the registry's extensions plus known package
// file names, and an optional .ast.json widens or narrows that set
// (§6). File content is read through github.com/viant/afs, grounded on
// viant-linager's fs.DownloadWithURL idiom (inspector/info/document.go).
package repo

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"

	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/lang"
)

// MaxFileSize is the size ceiling past which a file becomes a File node
// with an empty body instead of being read (§6).
const MaxFileSize = 100_000

// configFileName is the per-repo override file spec.md §6 describes.
const configFileName = ".ast.json"

// FileConfig is the .ast.json shape: three optional string-array fields,
// nothing else (§6).
type FileConfig struct {
	SkipDirs         []string `json:"skip_dirs"`
	OnlyIncludeFiles []string `json:"only_include_files"`
	SkipFileEnds     []string `json:"skip_file_ends"`
}

// LoadFileConfig reads root/.ast.json if present. A missing file is not an
// error; a malformed one is FatalConfig (§7) and surfaces as an error the
// Builder aborts on.
func LoadFileConfig(root string) (FileConfig, error) {
	data, err := os.ReadFile(filepath.Join(root, configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// Scan is the result of enumerating a repository: sorted, root-relative,
// forward-slash file paths and the set of intermediate directory paths
// those files live under (§4.5 step 2: "file set is sorted for
// determinism").
type Scan struct {
	Files []string
	Dirs  []string
}

// Enumerate walks root, applying hidden-directory exclusion, the
// registry's union of language skip-dirs, and the FileConfig overrides,
// and keeps files whose extension the registry recognizes or whose name
// is a known package file (§6).
func Enumerate(root string, reg *lang.Registry, cfg FileConfig) (Scan, error) {
	skipDirs := map[string]bool{}
	for _, d := range reg.SkipDirs() {
		skipDirs[d] = true
	}
	for _, d := range cfg.SkipDirs {
		skipDirs[d] = true
	}

	var files []string
	dirSet := map[string]bool{}

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = graph.NormalizeFile(filepath.ToSlash(rel))
		name := d.Name()
		if d.IsDir() {
			if isHidden(name) || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) {
			return nil
		}
		if name == configFileName {
			return nil
		}
		if skipEnd(name, cfg.SkipFileEnds) {
			return nil
		}
		if !onlyIncluded(rel, cfg.OnlyIncludeFiles) {
			return nil
		}
		if !keepFile(name, reg) {
			return nil
		}
		files = append(files, rel)
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirSet[dir] = true
		}
		return nil
	})
	if err != nil {
		return Scan{}, err
	}

	sort.Strings(files)
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return Scan{Files: files, Dirs: dirs}, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

func skipEnd(name string, ends []string) bool {
	for _, e := range ends {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func onlyIncluded(rel string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if strings.Contains(rel, o) {
			return true
		}
	}
	return false
}

func keepFile(name string, reg *lang.Registry) bool {
	if _, ok := reg.ForPkgFile(name); ok {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, a := range reg.All() {
		for _, e := range a.Extensions() {
			if e == ext {
				return true
			}
		}
	}
	return false
}

// Reader reads file content through afs, applying the MaxFileSize ceiling
// (§6): oversized files come back as an empty body rather than an error so
// the caller can still create a File node for them.
type Reader struct {
	fs   afs.Service
	root string
}

// NewReader builds a Reader rooted at root.
func NewReader(root string) *Reader {
	return &Reader{fs: afs.New(), root: root}
}

// Read returns rel's content relative to the reader's root. Binary or
// unreadable files are a FileIO-class condition (§7): the caller logs and
// treats the body as empty rather than aborting.
func (r *Reader) Read(ctx context.Context, rel string) ([]byte, error) {
	info, err := os.Stat(filepath.Join(r.root, rel))
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, nil
	}
	location := path.Join(r.root, rel)
	return r.fs.DownloadWithURL(ctx, location)
}
