package snippet

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEvaluatedTwice is returned when Evaluate is invoked a second time on the
// same collection.
var ErrEvaluatedTwice = errors.New("snippets have already been evaluated")

// ErrOutOfRange is returned by Get for a position outside the collection.
var ErrOutOfRange = errors.New("no snippet at that position")

// ProcessingError records the failure of a single block, identified by its
// position in the collection, without losing the original cause.
type ProcessingError struct {
	Pos int
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("snippet %d: %v", e.Pos, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// FileError aggregates every per-block failure of one evaluation run, keyed
// by block position. No single failing block hides its siblings' errors.
type FileError struct {
	Errors map[int]error
}

func (e *FileError) Error() string {
	positions := make([]int, 0, len(e.Errors))
	for pos := range e.Errors {
		positions = append(positions, pos)
	}

	sort.Ints(positions)

	var sb strings.Builder

	fmt.Fprintf(&sb, "%d snippet(s) failed", len(e.Errors))

	for _, pos := range positions {
		fmt.Fprintf(&sb, "\n  %v", e.Errors[pos])
	}

	return sb.String()
}

// SourceFileError marks a document that could not be read at all, as opposed
// to one that failed during extraction or evaluation.
type SourceFileError struct {
	Path string
	Err  error
}

func (e *SourceFileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *SourceFileError) Unwrap() error {
	return e.Err
}
