package engine

import (
	"strings"

	"github.com/dop251/goja"
)

var (
	capturedMethods = []string{"log", "info", "warn", "error", "debug"}
	stubbedMethods  = []string{
		"trace", "dir", "table", "time", "timeEnd", "timeLog",
		"group", "groupEnd", "count", "countReset", "assert",
	}
)

// Console is a drop-in console replacement bound into the evaluation scope.
// Each accepted call records one line: every argument is inspected, strings
// becoming quoted literals, and the results joined with spaces. Methods the
// capture doesn't understand are stubbed to no-ops rather than throwing.
// Buffering state stays behind this struct; only the method surface is
// visible to evaluated code.
type Console struct {
	lines []string
	depth int
}

func newConsole(depth int) *Console {
	return &Console{depth: depth}
}

func (c *Console) bind(vm *goja.Runtime) error {
	obj := vm.NewObject()

	record := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = inspect(arg, c.depth)
		}

		c.lines = append(c.lines, strings.Join(parts, " "))

		return goja.Undefined()
	}

	noop := func(goja.FunctionCall) goja.Value {
		return goja.Undefined()
	}

	for _, name := range capturedMethods {
		if err := obj.Set(name, record); err != nil {
			return err
		}
	}

	for _, name := range stubbedMethods {
		if err := obj.Set(name, noop); err != nil {
			return err
		}
	}

	return vm.Set("console", obj)
}

// Reset drops all recorded lines, ready for the next block.
func (c *Console) Reset() {
	c.lines = c.lines[:0]
}

// Len returns the number of recorded lines.
func (c *Console) Len() int {
	return len(c.lines)
}

// String serializes the recorded lines joined with single newlines. Zero
// lines serialize to the empty string.
func (c *Console) String() string {
	return strings.Join(c.lines, "\n")
}
