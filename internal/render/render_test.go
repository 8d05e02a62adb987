package render

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/evaldown/evaldown/internal/snippet"
)

func extract(t *testing.T, source []byte) []*snippet.Block {
	t.Helper()

	blocks, err := snippet.Extract(source, snippet.ExtractOptions{})
	require.NoError(t, err)

	return blocks
}

func TestDocumentGolden(t *testing.T) {
	source, err := os.ReadFile("testdata/render/basic.md")
	require.NoError(t, err)

	blocks := extract(t, source)
	require.Len(t, blocks, 4)

	// Simulated evaluation results; the engine writes these in real runs.
	blocks[0].Output = &snippet.Output{Kind: snippet.KindResult, Text: "2"}
	blocks[3].Output = &snippet.Output{Kind: snippet.KindConsole, Text: "'hi'"}

	golden.Assert(t, string(Document(source, blocks)), "render/basic.golden.md")
}

func TestDocumentReplacesExistingOutputFence(t *testing.T) {
	source := []byte("```js\nreturn 2;\n```\n\n```output\nstale\n```\n")

	blocks := extract(t, source)
	blocks[0].Output = &snippet.Output{Kind: snippet.KindResult, Text: "2"}

	updated := Document(source, blocks)
	require.Equal(t, "```js\nreturn 2;\n```\n\n```output\n2\n```\n", string(updated))
}

func TestDocumentInsertsMissingOutputFence(t *testing.T) {
	source := []byte("```js\nreturn 2;\n```\n")

	blocks := extract(t, source)
	blocks[0].Output = &snippet.Output{Kind: snippet.KindResult, Text: "2"}

	updated := Document(source, blocks)
	require.Equal(t, "```js\nreturn 2;\n```\n\n```output\n2\n```\n", string(updated))
}

func TestDocumentRemovesHiddenBlocks(t *testing.T) {
	source := []byte("before\n\n```js#hide:true\nvar secret = 1;\n```\n\nafter\n")

	blocks := extract(t, source)
	blocks[0].Output = &snippet.Output{Kind: snippet.KindResult, Text: "1"}

	updated := Document(source, blocks)
	require.Equal(t, "before\n\n\nafter\n", string(updated))
}

func TestDocumentLeavesUnevaluatedBlocksAlone(t *testing.T) {
	source := []byte("```js#evaluate:false\nvar x = 1;\n```\n\n```text\nprose\n```\n")

	blocks := extract(t, source)

	updated := Document(source, blocks)
	require.Equal(t, string(source), string(updated))
}

func TestDocumentErrorOutputIsRenderedToo(t *testing.T) {
	source := []byte("```js\nthrow new Error(\"boom\")\n```\n")

	blocks := extract(t, source)
	blocks[0].Output = &snippet.Output{Kind: snippet.KindError, Text: "Error: boom"}

	updated := Document(source, blocks)
	require.Contains(t, string(updated), "```output\nError: boom\n```\n")
}
