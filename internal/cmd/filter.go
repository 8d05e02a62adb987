package cmd

import (
	"github.com/gobwas/glob"
)

type filterFunc func(lang string) bool

// newFilter compiles language glob patterns into a match predicate.
func newFilter(patterns []string) (filterFunc, error) {
	globs := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}

		globs = append(globs, g)
	}

	return func(lang string) bool {
		for _, g := range globs {
			if g.Match(lang) {
				return true
			}
		}

		return false
	}, nil
}
