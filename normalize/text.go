package normalize

import (
	"os"
	"path/filepath"
	"strings"
)

var escapes = map[byte]byte{
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
	'0':  0,
}

// unquote strips one pair of matching single or double quotes.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != '"' && first != '\'') {
		return s, false
	}
	return s[1 : len(s)-1], true
}

// unescape resolves backslash escapes in a single pass. Unknown escapes and a
// trailing lone backslash are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		if r, ok := escapes[s[i+1]]; ok {
			b.WriteByte(r)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// expandUser replaces a leading "~" with the home directory. "~user" forms are
// left alone, as is the input when the home directory is unknown.
func expandUser(s string) string {
	if s == "" || s[0] != '~' {
		return s
	}
	if s != "~" && !strings.HasPrefix(s, "~/") && !strings.HasPrefix(s, `~\`) {
		return s
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return s
	}
	if s == "~" {
		return home
	}
	return filepath.Join(home, s[2:])
}
