package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shellRunner executes sh snippets. The interpreter instance persists across
// blocks, so variables and functions declared by one block stay visible to
// the next, mirroring the continuity of the JavaScript scope.
type shellRunner struct {
	parser *syntax.Parser
	runner *interp.Runner
	out    bytes.Buffer
}

func newShellRunner(dir string) (*shellRunner, error) {
	r := &shellRunner{parser: syntax.NewParser()}

	runner, err := interp.New(interp.Dir(dir), interp.StdIO(nil, &r.out, &r.out))
	if err != nil {
		return nil, err
	}

	r.runner = runner

	return r, nil
}

// run executes one snippet and returns its combined stdout/stderr with the
// trailing newline trimmed. A non-zero exit status is a block failure.
func (r *shellRunner) run(ctx context.Context, code string) (string, error) {
	file, err := r.parser.Parse(strings.NewReader(code), "")
	if err != nil {
		return "", err
	}

	r.out.Reset()

	err = r.runner.Run(ctx, file)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return "", fmt.Errorf("command exited with %d", status)
		}

		return "", err
	}

	return strings.TrimRight(r.out.String(), "\n"), nil
}
