package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledPattern is a compiled glob that matches a single entry name.
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	dirOnly  bool // trailing "/": never matches a file
}

// compilePattern converts a glob into a matcher for bare entry names.
// A leading "/" is accepted and ignored so that rules written for the source
// root keep working, and a trailing "/" marks a directory-only rule. Any other
// "/" is rejected because only names are matched.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}

	if strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern %q", cp.original)
	}
	if strings.Contains(pattern, "/") {
		return nil, fmt.Errorf("pattern %q contains a path separator; only entry names are matched", cp.original)
	}

	re, err := regexp.Compile("^" + globToRegex(pattern) + "$")
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", cp.original, err)
	}
	cp.re = re
	return cp, nil
}

// match tests a regular file's name. Directories are never offered to the
// chain, so directory-only rules do not match.
func (cp *compiledPattern) match(name string) bool {
	if cp.dirOnly {
		return false
	}
	return cp.re.MatchString(name)
}

func (cp *compiledPattern) String() string {
	return cp.original
}

// globToRegex converts a glob pattern to a regex string.
//
//nolint:gocyclo,revive // cognitive-complexity: character-by-character glob parser
func globToRegex(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			// "**" is accepted for rsync compatibility; within one name it
			// means the same as "*".
			for i < len(pattern) && pattern[i] == '*' {
				i++
			}
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				cls := pattern[i+1 : j]
				if strings.HasPrefix(cls, "!") {
					cls = "^" + cls[1:]
				}
				b.WriteString("[" + cls + "]")
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '.', '(', ')', '+', '{', '}', '^', '$', '|', '\\', ']':
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
