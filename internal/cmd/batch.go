package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/evaldown/evaldown/internal/snippet"
)

const maxWorkers = 4

type fileResult struct {
	path    string
	blocks  int
	outputs int
	err     error
}

// processFiles fans the given paths out over a small worker pool. Each file
// is independent, so a failing document only shows up in its own result and
// never halts its siblings. Results come back sorted by path.
func processFiles(paths []string, fn func(path string) fileResult) []fileResult {
	jobs := make(chan string, len(paths))
	out := make(chan fileResult, len(paths))

	var wg sync.WaitGroup

	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for path := range jobs {
				out <- fn(path)
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}

	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]fileResult, 0, len(paths))
	for result := range out {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	return results
}

// readMarkdown loads one source document, enforcing the extension for real.
func readMarkdown(path string) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return nil, fmt.Errorf("%s: not a markdown file", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &snippet.SourceFileError{Path: path, Err: err}
	}

	return src, nil
}

func batchError(results []fileResult) error {
	failed := 0

	for _, result := range results {
		if result.err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}

	return nil
}
