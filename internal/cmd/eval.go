package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/liamg/memoryfs"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/evaldown/evaldown/internal/engine"
	"github.com/evaldown/evaldown/internal/render"
	"github.com/evaldown/evaldown/internal/snippet"
)

const fileMode = fs.FileMode(0o644)

func evalCmd(opts *options) *cobra.Command {
	var (
		update       bool
		dryRun       bool
		capture      string
		preamblePath string
		tsconfig     string
		pwd          string
		globals      []string
	)

	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "eval [flags] <file>...",
		Aliases: []string{"e"},
		Short:   "Evaluate executable blocks and splice their output into the document",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var preamble string

			if preamblePath != "" {
				data, err := os.ReadFile(preamblePath)
				if err != nil {
					return fmt.Errorf("reading preamble: %w", err)
				}

				preamble = string(data)
			}

			fileGlobals, err := parseGlobals(globals)
			if err != nil {
				return err
			}

			runner := &evalRunner{
				opts:        opts,
				update:      update,
				dryRun:      dryRun,
				capture:     engine.CaptureMode(capture),
				preamble:    preamble,
				tsconfig:    tsconfig,
				pwd:         pwd,
				fileGlobals: fileGlobals,
				stage:       memoryfs.New(),
			}

			results := processFiles(args, func(path string) fileResult {
				return runner.file(cmd, path)
			})

			tbl := table.New("File", "Blocks", "Outputs", "Status").WithWriter(opts.stdout)

			for _, result := range results {
				status := "ok"
				if result.err != nil {
					status = result.err.Error()
				}

				tbl.AddRow(result.path, result.blocks, result.outputs, status)
			}

			tbl.Print()

			if dryRun {
				runner.listStaged()
			}

			return batchError(results)
		},

		DisableAutoGenTag: true,
	}

	cmd.Flags().BoolVar(&update, "update", false, "write updated documents back to disk")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "stage updated documents in memory and list them instead of writing")
	cmd.Flags().StringVar(&capture, "capture", string(engine.CaptureReturn), "run-level capture mode: return, console or nowrap")
	cmd.Flags().StringVar(&preamblePath, "preamble", "", "file whose contents execute in scope before the first block")
	cmd.Flags().StringVar(&tsconfig, "tsconfig", "", "TypeScript project descriptor for typescript blocks")
	cmd.Flags().StringVar(&pwd, "pwd", "", "working directory for relative requires and shell blocks")
	cmd.Flags().StringArrayVarP(&globals, "global", "g", nil, "name=value binding injected into the evaluation scope")

	return cmd
}

type evalRunner struct {
	opts        *options
	update      bool
	dryRun      bool
	capture     engine.CaptureMode
	preamble    string
	tsconfig    string
	pwd         string
	fileGlobals map[string]interface{}

	mu    sync.Mutex
	stage *memoryfs.FS
}

func (r *evalRunner) file(cmd *cobra.Command, path string) fileResult {
	result := fileResult{path: path}

	src, err := readMarkdown(path)
	if err != nil {
		result.err = err

		return result
	}

	snips, err := snippet.FromMarkdown(src, snippet.ExtractOptions{Marker: r.opts.marker})
	if err != nil {
		result.err = err

		return result
	}

	result.blocks = snips.Len()

	for _, block := range snips.Blocks() {
		if snippet.IsExecutable(block.Lang) && !r.opts.filter(block.Lang) {
			block.Flags["evaluate"] = false
		}
	}

	eng, err := engine.New(engine.Options{
		Capture:      r.capture,
		TsconfigPath: r.tsconfig,
		Preamble:     r.preamble,
		PwdPath:      r.workdir(path),
		FileGlobals:  r.fileGlobals,
	})
	if err != nil {
		result.err = err

		return result
	}

	// An evaluation failure still leaves error-kind output on the failed
	// block; render whatever was captured before giving up on the file.
	result.err = snips.Evaluate(cmd.Context(), eng)

	for _, block := range snips.Blocks() {
		if block.Output != nil {
			result.outputs++
		}
	}

	rendered := render.Document(src, snips.Blocks())

	if werr := r.write(path, rendered); werr != nil && result.err == nil {
		result.err = werr
	}

	return result
}

func (r *evalRunner) workdir(path string) string {
	if r.pwd != "" {
		return r.pwd
	}

	return filepath.Dir(path)
}

func (r *evalRunner) write(path string, rendered []byte) error {
	switch {
	case r.dryRun:
		r.mu.Lock()
		defer r.mu.Unlock()

		staged := filepath.ToSlash(filepath.Clean(path))
		staged = strings.TrimPrefix(staged, "/")

		if dir := filepath.Dir(staged); dir != "." {
			if err := r.stage.MkdirAll(dir, fs.FileMode(0o755)); err != nil {
				return err
			}
		}

		return r.stage.WriteFile(staged, rendered, fileMode)
	case r.update:
		return os.WriteFile(path, rendered, fileMode)
	}

	return nil
}

func (r *evalRunner) listStaged() {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = fs.WalkDir(r.stage, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}

		slog.Info("staged document", "path", path, "bytes", info.Size())

		return nil
	})
}

// parseGlobals turns name=value pairs into the bindings injected before the
// first block runs.
func parseGlobals(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	globals := make(map[string]interface{}, len(pairs))

	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid global %q, want name=value", pair)
		}

		globals[name] = value
	}

	return globals, nil
}
