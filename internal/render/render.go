// Package render splices evaluation results back into Markdown source:
// captured output replaces or fills a following ```output fence, and hidden
// blocks disappear from the rendered document.
package render

import (
	"bytes"

	"github.com/evaldown/evaldown/internal/snippet"
)

type edit struct {
	start int
	stop  int
	text  []byte
}

// Document returns the updated document for an evaluated block sequence. The
// original source is left untouched; offsets recorded at extraction time
// drive the splice, so blocks must come from this exact source.
func Document(source []byte, blocks []*snippet.Block) []byte {
	var edits []edit

	for i, block := range blocks {
		if block.IsOutput() {
			continue
		}

		if block.Hidden() {
			stop := block.End
			if i+1 < len(blocks) && blocks[i+1].IsOutput() {
				stop = blocks[i+1].End
			}

			edits = append(edits, edit{start: block.Index, stop: stop})

			continue
		}

		if !snippet.IsExecutable(block.Lang) || block.Output == nil {
			continue
		}

		fence := outputFence(block.Output.Text)

		if i+1 < len(blocks) && blocks[i+1].IsOutput() {
			paired := blocks[i+1]
			edits = append(edits, edit{start: paired.Index, stop: paired.End, text: fence})
		} else {
			insert := append([]byte("\n"), fence...)
			edits = append(edits, edit{start: block.End, stop: block.End, text: insert})
		}
	}

	return splice(source, edits)
}

func outputFence(text string) []byte {
	var buff bytes.Buffer

	buff.WriteString("```" + snippet.OutputLang + "\n")
	buff.WriteString(text)
	buff.WriteString("\n```\n")

	return buff.Bytes()
}

// splice applies edits, which arrive in ascending document order and never
// overlap, in a single pass over the source.
func splice(source []byte, edits []edit) []byte {
	var buff bytes.Buffer

	idx := 0

	for _, e := range edits {
		buff.Write(source[idx:e.start])
		buff.Write(e.text)
		idx = e.stop
	}

	buff.Write(source[idx:])

	return buff.Bytes()
}
