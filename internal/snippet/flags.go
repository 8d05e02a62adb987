package snippet

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

// ParseFlags reads a comma-separated "key:value" directive list into a Flags
// mapping. Whitespace around keys, colons and values is trimmed; bare
// true/false values are coerced to booleans, everything else stays a string.
// Malformed entries are skipped rather than reported: this is a best-effort
// directive reader, not a strict grammar.
func ParseFlags(text string) Flags {
	flags := make(Flags)

	for _, entry := range strings.Split(text, ",") {
		key, value, found := strings.Cut(entry, ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "" {
			continue
		}

		switch value {
		case "true":
			flags[key] = true
		case "false":
			flags[key] = false
		default:
			flags[key] = value
		}
	}

	return flags
}

var (
	reJSON     = regexp.MustCompile(`^\s*{\s*["}]`)
	reBrackets = regexp.MustCompile(`^\s*{(.*)}$`)
)

// parseMeta reads the whitespace-separated remainder of a fence info string:
// either a JSON object or a braced list of k=v words. This is the lowest
// precedence flag source; both the directive comment and the "#" fence suffix
// override it key by key.
func parseMeta(input []byte) (Flags, error) {
	if len(input) == 0 {
		return Flags{}, nil
	}

	if reJSON.Match(input) {
		var flags Flags

		err := json.Unmarshal(input, &flags)
		if err != nil {
			return nil, err
		}

		return flags, nil
	}

	if subs := reBrackets.FindSubmatch(input); subs != nil {
		input = subs[1]
	}

	words, err := shlex.Split(string(input))
	if err != nil {
		return nil, err
	}

	flags := make(Flags)

	for _, word := range words {
		if key, value, found := strings.Cut(word, "="); found {
			switch value {
			case "true":
				flags[key] = true
			case "false":
				flags[key] = false
			default:
				flags[key] = value
			}
		}
	}

	return flags, nil
}

// merge overlays src onto dst, later write wins. dst may be nil.
func merge(dst, src Flags) Flags {
	if dst == nil {
		dst = make(Flags, len(src))
	}

	for key, value := range src {
		dst[key] = value
	}

	return dst
}
