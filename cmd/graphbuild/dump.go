package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codekg/graphbuild/internal/graph"
)

func newDumpCmd() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "dump <repo-root> [more-repo-roots...]",
		Short: "Build a graph and print a human-readable node/edge count summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bk, err := buildRoots(cmd.Context(), args, f, nil)
			if err != nil {
				return err
			}

			nodes, edges := bk.GraphSize()
			bold := color.New(color.Bold)
			if f.noColor {
				color.NoColor = true
			}
			bold.Fprintf(os.Stdout, "graph: %d nodes, %d edges\n\n", nodes, edges)

			byKind := map[graph.NodeKind]int{}
			for _, n := range bk.AllNodes() {
				byKind[n.Kind]++
			}
			kinds := make([]string, 0, len(byKind))
			for k := range byKind {
				kinds = append(kinds, string(k))
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				fmt.Fprintf(os.Stdout, "  %-12s %d\n", k, byKind[graph.NodeKind(k)])
			}

			fmt.Fprintln(os.Stdout)
			byEdgeKind := map[graph.EdgeKind]int{}
			for _, e := range bk.AllEdges() {
				byEdgeKind[e.Kind]++
			}
			edgeKinds := make([]string, 0, len(byEdgeKind))
			for k := range byEdgeKind {
				edgeKinds = append(edgeKinds, string(k))
			}
			sort.Strings(edgeKinds)
			for _, k := range edgeKinds {
				fmt.Fprintf(os.Stdout, "  %-12s %d\n", k, byEdgeKind[graph.EdgeKind(k)])
			}
			return nil
		},
	}
	addCommonFlags(cmd, &f)
	return cmd
}
