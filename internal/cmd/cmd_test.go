package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		lang     string
		matches  bool
	}{
		{"wildcard matches everything", []string{"*"}, "javascript", true},
		{"exact match", []string{"javascript"}, "javascript", true},
		{"exact mismatch", []string{"javascript"}, "sh", false},
		{"prefix glob", []string{"java*"}, "javascript", true},
		{"any of several", []string{"sh", "typescript"}, "typescript", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := newFilter(tc.patterns)
			require.NoError(t, err)
			require.Equal(t, tc.matches, filter(tc.lang))
		})
	}
}

func TestNewFilterRejectsBadPattern(t *testing.T) {
	_, err := newFilter([]string{"[unterminated"})
	require.Error(t, err)
}

func TestParseGlobals(t *testing.T) {
	globals, err := parseGlobals([]string{"name=doc", "answer=42"})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"name": "doc", "answer": "42"}, globals)

	_, err = parseGlobals([]string{"missing-separator"})
	require.Error(t, err)

	globals, err = parseGlobals(nil)
	require.NoError(t, err)
	require.Nil(t, globals)
}

func TestReadMarkdownEnforcesExtension(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("# hi\n"), 0o644))

	_, err := readMarkdown(path)
	require.ErrorContains(t, err, "not a markdown file")

	path = filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# hi\n"), 0o644))

	src, err := readMarkdown(path)
	require.NoError(t, err)
	require.Equal(t, "# hi\n", string(src))
}

func TestProcessFilesKeepsGoingPastFailures(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.md")
	require.NoError(t, os.WriteFile(good, []byte("```js\nreturn 2;\n```\n"), 0o644))

	missing := filepath.Join(dir, "missing.md")

	results := processFiles([]string{missing, good}, func(path string) fileResult {
		result := fileResult{path: path}

		if _, err := readMarkdown(path); err != nil {
			result.err = err
		}

		return result
	})

	require.Len(t, results, 2)
	require.Error(t, results[1].err, "missing file fails")
	require.NoError(t, results[0].err, "sibling file is unaffected")

	require.Error(t, batchError(results))
}

func TestEvalCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()

	doc := filepath.Join(dir, "doc.md")
	source := "```js\nreturn 1 + 1;\n```\n"
	require.NoError(t, os.WriteFile(doc, []byte(source), 0o644))

	var stdout, stderr bytes.Buffer

	code := Execute([]string{"eval", "--update", doc}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	updated, err := os.ReadFile(doc)
	require.NoError(t, err)
	require.Equal(t, source+"\n```output\n2\n```\n", string(updated))
}

func TestCheckCommandReportsViolations(t *testing.T) {
	dir := t.TempDir()

	doc := filepath.Join(dir, "orphan.md")
	require.NoError(t, os.WriteFile(doc, []byte("```output\n2\n```\n"), 0o644))

	var stdout, stderr bytes.Buffer

	code := Execute([]string{"check", doc}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stdout.String(), "no matching code block")
}

func TestTestsCommandEmitsFixtures(t *testing.T) {
	dir := t.TempDir()

	doc := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(doc, []byte("```js\nreturn 2;\n```\n\n```output\n2\n```\n"), 0o644))

	var stdout, stderr bytes.Buffer

	code := Execute([]string{"tests", doc}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	require.Contains(t, stdout.String(), `"code": "return 2;"`)
	require.Contains(t, stdout.String(), `"output": "2"`)
}
