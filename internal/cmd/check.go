package cmd

import (
	"sort"
	"sync"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/evaldown/evaldown/internal/snippet"
)

func checkCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "check [flags] <file>...",
		Aliases: []string{"c"},
		Short:   "Validate output-block pairing without executing anything",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			type violation struct {
				path    string
				pos     int
				offset  int
				message string
			}

			var (
				mu   sync.Mutex
				rows []violation
			)

			results := processFiles(args, func(path string) fileResult {
				result := fileResult{path: path}

				src, err := readMarkdown(path)
				if err != nil {
					result.err = err

					return result
				}

				snips, err := snippet.FromMarkdown(src, snippet.ExtractOptions{Marker: opts.marker})
				if err != nil {
					result.err = err

					return result
				}

				result.blocks = snips.Len()

				violations := snips.Check()
				if len(violations) == 0 {
					return result
				}

				positions := make([]int, 0, len(violations))
				for pos := range violations {
					positions = append(positions, pos)
				}

				sort.Ints(positions)

				mu.Lock()
				defer mu.Unlock()

				for _, pos := range positions {
					block, _ := snips.Get(pos)
					rows = append(rows, violation{
						path:    path,
						pos:     pos,
						offset:  block.Index,
						message: violations[pos].Error(),
					})
				}

				result.err = &snippet.FileError{Errors: violations}

				return result
			})

			if len(rows) > 0 {
				sort.Slice(rows, func(i, j int) bool {
					if rows[i].path != rows[j].path {
						return rows[i].path < rows[j].path
					}

					return rows[i].pos < rows[j].pos
				})

				tbl := table.New("File", "Block", "Offset", "Problem").WithWriter(opts.stdout)
				for _, row := range rows {
					tbl.AddRow(row.path, row.pos, row.offset, row.message)
				}

				tbl.Print()
			}

			return batchError(results)
		},

		DisableAutoGenTag: true,
	}

	return cmd
}
