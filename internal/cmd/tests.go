package cmd

import (
	"encoding/json"
	"sync"

	"github.com/spf13/cobra"

	"github.com/evaldown/evaldown/internal/snippet"
)

func testsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "tests [flags] <file>...",
		Aliases: []string{"t"},
		Short:   "Emit code/output fixtures as JSON",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var (
				mu       sync.Mutex
				fixtures = make(map[string][]snippet.Test, len(args))
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

				tests, err := snips.GetTests()
				if err != nil {
					result.err = err

					return result
				}

				mu.Lock()
				fixtures[path] = tests
				mu.Unlock()

				return result
			})

			if err := batchError(results); err != nil {
				return err
			}

			enc := json.NewEncoder(opts.stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(fixtures)
		},

		DisableAutoGenTag: true,
	}

	return cmd
}
