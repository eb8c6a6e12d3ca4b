package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var f commonFlags
	var filesFlag []string
	var filesFrom string
	cmd := &cobra.Command{
		Use:   "diff <repo-root> [more-repo-roots...]",
		Short: "Build a graph scoped to a changeset's files (§4.7 revision filter)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revisions := append([]string(nil), filesFlag...)
			if filesFrom != "" {
				lines, err := readLines(filesFrom)
				if err != nil {
					return err
				}
				revisions = append(revisions, lines...)
			}
			bk, err := buildRoots(cmd.Context(), args, f, revisions)
			if err != nil {
				return err
			}
			return writeJSON(f.output, bk)
		},
	}
	addCommonFlags(cmd, &f)
	cmd.Flags().StringSliceVar(&filesFlag, "file", nil, "a changed file to scope the graph to (repeatable)")
	cmd.Flags().StringVar(&filesFrom, "files-from", "", "path to a newline-separated list of changed files (- for stdin)")
	return cmd
}

func readLines(path string) ([]string, error) {
	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
