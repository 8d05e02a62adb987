package snippet

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultMarker is the token opening a directive comment: <!-- evaldown ... -->.
const DefaultMarker = "evaldown"

// ExtractOptions configures extraction.
type ExtractOptions struct {
	// Marker overrides the directive comment token. Empty means DefaultMarker.
	Marker string
}

var reComment = regexp.MustCompile(`^\s*<!--\s*(.*?)\s*-->\s*$`)

// Extract walks a Markdown document and returns every fenced code block in
// document order.
//
// Each block's language is normalized and its flags are resolved from up to
// three sources, lowest precedence first: info string meta ({k=v ...} or a
// JSON object after the language tag), a directive comment immediately above
// the fence, and the "#k:v,..." suffix on the language tag itself. A
// directive comment also moves the block's Index
// up to the comment's own offset so renderers can re-anchor including it.
func Extract(source []byte, opts ExtractOptions) ([]*Block, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	parser := goldmark.DefaultParser()
	reader := text.NewReader(source)
	root := parser.Parse(reader).OwnerDocument()

	var blocks []*Block

	err := ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || node.Kind() != ast.KindFencedCodeBlock {
			return ast.WalkContinue, nil
		}

		fcb, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		block, berr := extractBlock(fcb, source, marker)
		if berr != nil {
			return ast.WalkStop, berr
		}

		if block != nil {
			blocks = append(blocks, block)
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

func extractBlock(fcb *ast.FencedCodeBlock, source []byte, marker string) (*Block, error) {
	index, ok := fenceStart(fcb, source)
	if !ok {
		// An empty fence with no info string has no locatable content.
		return nil, nil
	}

	lang, flags, err := extractInfo(fcb, source)
	if err != nil {
		return nil, err
	}

	if commentFlags, commentIndex, found := directiveAbove(fcb, source, marker); found {
		flags = merge(commentFlags, flags)
		index = commentIndex
	}

	if IsExecutable(lang) {
		if _, has := flags["evaluate"]; !has {
			flags["evaluate"] = true
		}
	}

	return &Block{
		Lang:  lang,
		Flags: flags,
		Index: index,
		End:   fenceEnd(fcb, source),
		Code:  extractCode(fcb, source),
	}, nil
}

func extractCode(fcb *ast.FencedCodeBlock, source []byte) string {
	var buff bytes.Buffer

	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buff.Write(seg.Value(source))
	}

	return strings.TrimSuffix(buff.String(), "\n")
}

// extractInfo splits the fence info string into the normalized language, the
// "#" flag suffix and any trailing meta, and folds the latter two into one
// Flags mapping with the suffix winning.
func extractInfo(fcb *ast.FencedCodeBlock, source []byte) (string, Flags, error) {
	if fcb.Info == nil {
		return "", Flags{}, nil
	}

	info := strings.TrimSpace(string(fcb.Info.Text(source)))

	tag := info
	rest := ""

	if i := strings.IndexAny(info, " \t"); i >= 0 {
		tag, rest = info[:i], strings.TrimSpace(info[i+1:])
	}

	lang := tag
	suffix := ""

	if l, s, found := strings.Cut(tag, "#"); found {
		lang, suffix = l, s
	}

	flags := Flags{}

	if rest != "" {
		meta, err := parseMeta([]byte(rest))
		if err != nil {
			return "", nil, err
		}

		flags = merge(flags, meta)
	}

	if suffix != "" {
		flags = merge(flags, ParseFlags(suffix))
	}

	return NormalizeLang(lang), flags, nil
}

// directiveAbove inspects the node immediately above the fence for a single
// HTML comment carrying flag directives. The marker token, when present, is
// stripped; a comment whose body yields no k:v pairs is not a directive. A
// comment applies only to the fence directly following it.
func directiveAbove(fcb *ast.FencedCodeBlock, source []byte, marker string) (Flags, int, bool) {
	prev, ok := fcb.PreviousSibling().(*ast.HTMLBlock)
	if !ok || prev.HTMLBlockType != ast.HTMLBlockType2 {
		return nil, 0, false
	}

	lines := prev.Lines()
	if lines.Len() != 1 {
		return nil, 0, false
	}

	seg := lines.At(0)

	m := reComment.FindSubmatch(seg.Value(source))
	if m == nil {
		return nil, 0, false
	}

	body := string(m[1])
	marked := false

	if rest, found := strings.CutPrefix(body, marker); found && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		body = strings.TrimSpace(rest)
		marked = true
	}

	flags := ParseFlags(body)
	if len(flags) == 0 {
		return nil, 0, false
	}

	// Without the marker token the comment could just as well be prose
	// (<!-- TODO: fix this -->). Values with interior whitespace only occur
	// in prose, so they disqualify an unmarked comment.
	if !marked {
		for _, value := range flags {
			if s, ok := value.(string); ok && strings.ContainsAny(s, " \t") {
				return nil, 0, false
			}
		}
	}

	return flags, lineStart(source, seg.Start), true
}

// fenceStart returns the byte offset of the fence's opening marker.
func fenceStart(fcb *ast.FencedCodeBlock, source []byte) (int, bool) {
	if fcb.Info != nil {
		return lineStart(source, fcb.Info.Segment.Start), true
	}

	lines := fcb.Lines()
	if lines.Len() == 0 {
		return 0, false
	}

	first := lineStart(source, lines.At(0).Start)
	if first == 0 {
		return 0, true
	}

	return lineStart(source, first-1), true
}

// fenceEnd returns the byte offset just past the closing fence line.
func fenceEnd(fcb *ast.FencedCodeBlock, source []byte) int {
	var from int

	if lines := fcb.Lines(); lines.Len() > 0 {
		from = lines.At(lines.Len() - 1).Stop
	} else if fcb.Info != nil {
		from = nextLine(source, fcb.Info.Segment.Stop)
	}

	return nextLine(source, from)
}

// lineStart returns the offset of the first byte of the line containing off.
func lineStart(source []byte, off int) int {
	if off > len(source) {
		off = len(source)
	}

	if i := bytes.LastIndexByte(source[:off], '\n'); i >= 0 {
		return i + 1
	}

	return 0
}

// nextLine returns the offset just past the newline terminating the line that
// begins at or contains off, or len(source) for the final unterminated line.
func nextLine(source []byte, off int) int {
	if off >= len(source) {
		return len(source)
	}

	if i := bytes.IndexByte(source[off:], '\n'); i >= 0 {
		return off + i + 1
	}

	return len(source)
}
