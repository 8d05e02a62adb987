// Package cmd wires the snippet pipeline into a command line tool: it walks
// the given documents, drives extraction and evaluation per file, and writes
// results back out. Per-file failures never halt the rest of a batch.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evaldown/evaldown/internal/snippet"
)

type options struct {
	marker string
	langs  []string
	debug  bool
	filter filterFunc

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{ //nolint:exhaustruct
		Use:           "evaldown",
		Short:         "Evaluate fenced code blocks in Markdown documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if opts.debug {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

			var err error

			opts.filter, err = newFilter(opts.langs)

			return err
		},

		DisableAutoGenTag: true,
	}

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.marker, "marker", snippet.DefaultMarker, "directive comment marker token")
	pf.StringSliceVarP(&opts.langs, "lang", "l", []string{"*"}, "only evaluate blocks whose language matches the glob(s)")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(evalCmd(opts), checkCmd(opts), testsCmd(opts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)

		return 1
	}

	return 0
}
