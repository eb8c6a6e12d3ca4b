// Command graphbuild builds a code knowledge graph over one or more
// repositories and writes it out as JSON, optionally scoped to the files
// a changeset touched. Grounded on rohankatakam-coderisk's
// cmd/process-repo + cmd/crisk-init cobra-command-per-verb layout and
// kraklabs-cie/cmd/cie's flag/config wiring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphbuild",
		Short: "Build a code knowledge graph over one or more repositories",
	}
	root.AddCommand(newBuildCmd(), newDiffCmd(), newDumpCmd())
	return root
}
