package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/evaldown/evaldown/internal/snippet"
)

// CaptureMode selects how a block's execution is turned into output.
type CaptureMode string

const (
	// CaptureReturn records the code's completion (or returned) value.
	CaptureReturn CaptureMode = "return"
	// CaptureConsole records the lines written to the intercepted console.
	CaptureConsole CaptureMode = "console"
	// CaptureNoWrap executes raw statements and records nothing; used for
	// declarations meant to persist verbatim into the shared scope.
	CaptureNoWrap CaptureMode = "nowrap"
)

var (
	// ErrTranspileConflict is returned by New when both a tsconfig and a
	// generic transpile function are supplied.
	ErrTranspileConflict = errors.New("tsconfig and a transpile function are mutually exclusive")

	// ErrTsconfigRequired is returned when a typescript block is evaluated
	// without a tsconfig.
	ErrTsconfigRequired = errors.New("typescript snippets require a tsconfig")

	errNeverSettled = errors.New("asynchronous result never settled")
)

// Options configures an evaluation run.
type Options struct {
	// Capture is the run-level capture mode; per-block flags override it.
	// Defaults to CaptureReturn.
	Capture CaptureMode

	// TranspileFn rewrites non-TypeScript executable code before execution.
	TranspileFn TranspileFunc

	// TsconfigPath points at the TypeScript project descriptor. Required for
	// typescript blocks, rejected together with TranspileFn.
	TsconfigPath string

	// FileGlobals are bound into the shared scope before the first block.
	FileGlobals map[string]interface{}

	// Preamble is executed once in the shared scope before the first block;
	// declarations only, no output capture.
	Preamble string

	// PwdPath is the working directory for relative requires and for shell
	// snippets.
	PwdPath string

	// InspectDepth bounds nesting when pretty-printing compound values.
	// Defaults to 3.
	InspectDepth int
}

// Context is the isolated state one document's blocks execute against.
// Declarations made by one block remain visible to subsequent blocks, so a
// Context must not be shared between documents.
type Context struct {
	opts        Options
	loop        *eventloop.EventLoop
	console     *Console
	shell       *shellRunner
	tsconfigRaw string
	started     bool
}

// New builds a Context. It verifies up front that the two transpilation
// paths were not both requested.
func New(opts Options) (*Context, error) {
	if opts.TsconfigPath != "" && opts.TranspileFn != nil {
		return nil, ErrTranspileConflict
	}

	if opts.Capture == "" {
		opts.Capture = CaptureReturn
	}

	if opts.InspectDepth == 0 {
		opts.InspectDepth = defaultInspectDepth
	}

	registryOpts := []require.Option{}
	if opts.PwdPath != "" {
		registryOpts = append(registryOpts, require.WithGlobalFolders(opts.PwdPath))
	}

	registry := require.NewRegistry(registryOpts...)

	return &Context{
		opts:    opts,
		console: newConsole(opts.InspectDepth),
		loop: eventloop.NewEventLoop(
			eventloop.EnableConsole(false),
			eventloop.WithRegistry(registry),
		),
	}, nil
}

// Evaluate runs every due block in document order. Each block runs to
// completion, awaited result included, before the next begins. A block that
// fails gets an error-kind output and aborts the remaining blocks, since they
// may depend on declarations it never made; all failures come back aggregated
// in a snippet.FileError.
func (c *Context) Evaluate(ctx context.Context, blocks []*snippet.Block) error {
	if err := c.start(); err != nil {
		return err
	}

	failures := make(map[int]error)

	for pos, block := range blocks {
		if !block.ShouldEvaluate() {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.runBlock(ctx, pos, block); err != nil {
			failures[pos] = &snippet.ProcessingError{Pos: pos, Err: err}
			block.Output = &snippet.Output{
				Kind: snippet.KindError,
				Text: errorText(err, block),
			}

			break
		}
	}

	if len(failures) > 0 {
		return &snippet.FileError{Errors: failures}
	}

	return nil
}

// start binds globals and the console into the shared scope and executes the
// preamble, once per Context.
func (c *Context) start() error {
	if c.started {
		return nil
	}

	c.started = true

	if c.opts.TsconfigPath != "" {
		raw, err := os.ReadFile(c.opts.TsconfigPath)
		if err != nil {
			return fmt.Errorf("reading tsconfig: %w", err)
		}

		c.tsconfigRaw = string(raw)
	}

	var err error

	c.loop.Run(func(vm *goja.Runtime) {
		if err = c.console.bind(vm); err != nil {
			return
		}

		for name, value := range c.opts.FileGlobals {
			if err = vm.Set(name, value); err != nil {
				return
			}
		}

		if c.opts.Preamble != "" {
			_, err = vm.RunScript("preamble.js", c.opts.Preamble)
		}
	})

	if err != nil {
		return fmt.Errorf("preamble: %w", err)
	}

	return nil
}

func (c *Context) runBlock(ctx context.Context, pos int, block *snippet.Block) error {
	if block.Lang == "sh" {
		return c.runShell(ctx, block)
	}

	code := block.Code

	switch {
	case block.Lang == "typescript":
		if c.opts.TsconfigPath == "" {
			return ErrTsconfigRequired
		}

		transpiled, err := transpileTypeScript(code, c.tsconfigRaw)
		if err != nil {
			return err
		}

		block.Transpiled = transpiled
		code = transpiled
	case c.opts.TranspileFn != nil:
		transpiled, err := c.opts.TranspileFn(code)
		if err != nil {
			return err
		}

		block.Transpiled = transpiled
		code = transpiled
	}

	mode := c.captureMode(block)

	prog, err := compileSnippet(fmt.Sprintf("snippet-%d.js", pos), code, mode != CaptureNoWrap)
	if err != nil {
		return err
	}

	c.console.Reset()

	var (
		value  goja.Value
		runErr error
	)

	// Run returns once the job queue has drained, so timers and promise
	// reactions scheduled by the block have finished by the time it does.
	c.loop.Run(func(vm *goja.Runtime) {
		value, runErr = vm.RunProgram(prog)
	})

	if runErr != nil {
		return runErr
	}

	value, err = settle(value)
	if err != nil {
		return err
	}

	switch mode {
	case CaptureNoWrap:
		return nil
	case CaptureConsole:
		if c.console.Len() == 0 {
			return nil
		}

		block.Output = &snippet.Output{Kind: snippet.KindConsole, Text: c.console.String()}
	default:
		if value == nil || goja.IsUndefined(value) {
			// No return value means no output record; the absence is
			// meaningful for pairing.
			return nil
		}

		block.Output = &snippet.Output{
			Kind: snippet.KindResult,
			Text: inspect(value, c.opts.InspectDepth),
		}
	}

	return nil
}

func (c *Context) runShell(ctx context.Context, block *snippet.Block) error {
	if c.shell == nil {
		shell, err := newShellRunner(c.opts.PwdPath)
		if err != nil {
			return err
		}

		c.shell = shell
	}

	text, err := c.shell.run(ctx, block.Code)
	if err != nil {
		return err
	}

	if text != "" {
		block.Output = &snippet.Output{Kind: snippet.KindConsole, Text: text}
	}

	return nil
}

func (c *Context) captureMode(block *snippet.Block) CaptureMode {
	switch {
	case block.Flags.Bool("nowrap"):
		return CaptureNoWrap
	case block.Flags.Bool("console"):
		return CaptureConsole
	case block.Flags.Bool("return"):
		return CaptureReturn
	}

	return c.opts.Capture
}

// compileSnippet compiles code as a program so its top-level declarations
// persist in the shared scope. Code using a top-level return cannot compile
// as a program; when wrapping is allowed it is retried as an immediately
// invoked function whose call result becomes the completion value.
func compileSnippet(name, code string, allowWrap bool) (*goja.Program, error) {
	prog, err := goja.Compile(name, code, false)
	if err == nil {
		return prog, nil
	}

	if !allowWrap {
		return nil, err
	}

	wrapped, werr := goja.Compile(name, "(function() {\n"+code+"\n})()", false)
	if werr != nil {
		// Report the original error; the wrapper didn't help.
		return nil, err
	}

	return wrapped, nil
}

// settle unwraps a promise completion value. The job queue has already
// drained, so a still-pending promise will never settle.
func settle(value goja.Value) (goja.Value, error) {
	if value == nil {
		return nil, nil
	}

	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return value, nil
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("promise rejected: %s", promise.Result().String())
	default:
		return nil, errNeverSettled
	}
}

// errorText renders a failed block's error as its output text, normalizing
// stack frames when the block asked for it.
func errorText(err error, block *snippet.Block) string {
	text := err.Error()

	var exc *goja.Exception
	if errors.As(err, &exc) {
		text = exc.String()
	}

	if block.Flags.Bool("cleanStackTrace") {
		text = CleanStackTrace(text)
	}

	return text
}
