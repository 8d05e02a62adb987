// Package snippet extracts fenced code blocks from Markdown documents,
// resolves their processing flags and pairs executable blocks with their
// expected-output blocks.
package snippet

import "fmt"

// Output kinds recorded on a block after evaluation.
const (
	KindResult  = "result"
	KindConsole = "console"
	KindError   = "error"
)

// Output is the captured result of evaluating one block.
type Output struct {
	Kind string
	Text string
}

// Block is one fenced code region of a Markdown document.
//
// Index is the byte offset of the fence's opening marker within the source,
// or of the directive comment when one immediately precedes the fence. End is
// the byte offset just past the closing fence line. Output and Transpiled are
// empty until the block has been evaluated and are written exactly once.
type Block struct {
	Lang       string
	Flags      Flags
	Index      int
	End        int
	Code       string
	Output     *Output
	Transpiled string
}

// Flags holds the processing directives attached to a block. Values are
// either bool or string.
type Flags map[string]interface{}

// Bool returns the flag value as a boolean. Missing keys and string values
// other than "true" report false.
func (f Flags) Bool(name string) bool {
	if f == nil {
		return false
	}

	value, has := f[name]
	if !has {
		return false
	}

	if b, ok := value.(bool); ok {
		return b
	}

	return value == "true"
}

// String returns the flag value as a string, or "" if the key is missing.
func (f Flags) String(name string) string {
	if f == nil {
		return ""
	}

	value, has := f[name]
	if !has {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// ShouldEvaluate reports whether the block is due for execution: the language
// must be executable and the evaluate flag, which defaults to true, must not
// have been forced off.
func (b *Block) ShouldEvaluate() bool {
	if !IsExecutable(b.Lang) {
		return false
	}

	value, has := b.Flags["evaluate"]
	if !has {
		return true
	}

	if bv, ok := value.(bool); ok {
		return bv
	}

	return value == "true"
}

// Hidden reports whether the block is excluded from rendered output.
func (b *Block) Hidden() bool {
	return b.Flags.Bool("hide")
}

// OutputLang is the language tag marking a block as expected output rather
// than executable code.
const OutputLang = "output"

// IsOutput reports whether the block holds expected output for the block
// preceding it.
func (b *Block) IsOutput() bool {
	return b.Lang == OutputLang
}

var languageAliases = map[string]string{
	"js":    "javascript",
	"ts":    "typescript",
	"bash":  "sh",
	"shell": "sh",
}

var executableLanguages = map[string]bool{
	"javascript": true,
	"typescript": true,
	"sh":         true,
}

// NormalizeLang maps language tag aliases onto their canonical name
// (js -> javascript, ts -> typescript, bash/shell -> sh).
func NormalizeLang(lang string) string {
	if canonical, has := languageAliases[lang]; has {
		return canonical
	}

	return lang
}

// IsExecutable reports whether blocks of the given (normalized) language are
// executed during evaluation.
func IsExecutable(lang string) bool {
	return executableLanguages[lang]
}
