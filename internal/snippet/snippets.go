package snippet

import (
	"context"
	"errors"
	"fmt"
)

// Pairing violations reported by Check and GetTests. The two cases are kept
// distinct so callers can tell a stray output block from one whose code block
// was hidden.
var (
	ErrNoMatchingCode = errors.New("no matching code block")
	ErrHiddenCode     = errors.New("cannot match hidden code block")
)

// Evaluator executes a sequence of blocks in document order, writing Output
// and Transpiled back onto each executable block. The engine package provides
// the implementation.
type Evaluator interface {
	Evaluate(ctx context.Context, blocks []*Block) error
}

// Test is one code/output fixture produced by GetTests, ready to feed into an
// assertion-based runner.
type Test struct {
	Code   string `json:"code"`
	Flags  Flags  `json:"flags"`
	Output string `json:"output"`
}

// Snippets is the ordered collection of blocks extracted from one document.
type Snippets struct {
	blocks    []*Block
	evaluated bool
}

// FromMarkdown extracts all fenced code blocks from source and returns them
// as a collection. This is the primary entry point.
func FromMarkdown(source []byte, opts ExtractOptions) (*Snippets, error) {
	blocks, err := Extract(source, opts)
	if err != nil {
		return nil, err
	}

	return New(blocks), nil
}

// New wraps an already extracted block sequence.
func New(blocks []*Block) *Snippets {
	return &Snippets{blocks: blocks}
}

// Len returns the number of blocks.
func (s *Snippets) Len() int {
	return len(s.blocks)
}

// Blocks returns the underlying sequence in document order.
func (s *Snippets) Blocks() []*Block {
	return s.blocks
}

// Get returns the block at position pos.
func (s *Snippets) Get(pos int) (*Block, error) {
	if pos < 0 || pos >= len(s.blocks) {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, pos, len(s.blocks))
	}

	return s.blocks[pos], nil
}

// Check validates pairing consistency without executing anything: every
// output block must directly follow an executable, non-hidden code block.
// Violations come back as data, keyed by block position; deciding what to do
// with them is the caller's business.
func (s *Snippets) Check() map[int]error {
	violations := make(map[int]error)

	for pos, block := range s.blocks {
		if !block.IsOutput() {
			continue
		}

		if err := s.pairable(pos); err != nil {
			violations[pos] = &ProcessingError{Pos: pos, Err: err}
		}
	}

	return violations
}

func (s *Snippets) pairable(pos int) error {
	if pos == 0 {
		return ErrNoMatchingCode
	}

	prev := s.blocks[pos-1]

	if !IsExecutable(prev.Lang) {
		return ErrNoMatchingCode
	}

	if prev.Hidden() {
		return ErrHiddenCode
	}

	return nil
}

// GetTests folds each executable block together with its directly following
// output block, if any, into a fixture. Unlike Check it refuses to proceed
// past a pairing violation.
func (s *Snippets) GetTests() ([]Test, error) {
	var tests []Test

	for pos, block := range s.blocks {
		if block.IsOutput() {
			if err := s.pairable(pos); err != nil {
				return nil, &ProcessingError{Pos: pos, Err: err}
			}

			continue
		}

		if !IsExecutable(block.Lang) {
			continue
		}

		test := Test{Code: block.Code, Flags: block.Flags}

		if pos+1 < len(s.blocks) && s.blocks[pos+1].IsOutput() {
			test.Output = s.blocks[pos+1].Code
		}

		tests = append(tests, test)
	}

	return tests, nil
}

// Evaluate runs every executable block, in order, through the supplied
// evaluator. A collection may be evaluated at most once; the guard keeps a
// second run from silently re-mutating the shared scope the first one built.
func (s *Snippets) Evaluate(ctx context.Context, ev Evaluator) error {
	if s.evaluated {
		return ErrEvaluatedTwice
	}

	s.evaluated = true

	return ev.Evaluate(ctx, s.blocks)
}
