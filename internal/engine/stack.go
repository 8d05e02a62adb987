package engine

import "regexp"

// Frames look like "file.js:3:10", "/abs/dir/mod.ts:12:4" or, with a program
// counter suffix, "snippet-0.js:1:7(4)". The placeholder uses x:y rather than
// digits, so cleaning is idempotent.
var reStackFrame = regexp.MustCompile(`[^\s():]+:\d+:\d+(?:\(\d+\))?`)

// CleanStackTrace rewrites every path:line:column segment of a stack trace to
// the normalized placeholder /path/to/file.js:x:y, so captured error output
// stays stable across machines.
func CleanStackTrace(text string) string {
	return reStackFrame.ReplaceAllString(text, "/path/to/file.js:x:y")
}
