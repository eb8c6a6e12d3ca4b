// Package revision implements the revision filter (§4.7): restricting a
// built graph to a caller-supplied set of files, the way `graphbuild diff`
// scopes a full repository build down to the files a changeset actually
// touched. Grounded on original_source/ast/src/filter.rs's filter_by_revs,
// itself a thin pass over Backend.CreateFilteredGraph.
package revision

import (
	"github.com/codekg/graphbuild/internal/graph"
	"github.com/codekg/graphbuild/internal/graph/backend"
)

// Filter returns a new backend of the same kind as bk, restricted to nodes
// whose File is in files (plus the Repository node) and edges whose
// source or target file is in files.
func Filter(bk backend.Backend, files []string) backend.Backend {
	allowed := make(map[string]bool, len(files))
	for _, f := range files {
		allowed[graph.NormalizeFile(f)] = true
	}
	return bk.CreateFilteredGraph(allowed)
}
