package envfile

// godotenv expands $NAME and ${NAME} in unquoted and double-quoted values
// while parsing. References are resolved later against the whole source
// chain, so every unescaped '$' outside single quotes is escaped first and
// godotenv hands the reference back verbatim.

const (
	scanKey = iota
	scanComment
	scanGap
	scanUnquoted
	scanSingle
	scanDouble
)

// escapeReferences rewrites src so that godotenv leaves '$' references in
// values untouched. Keys, comments and single-quoted values are copied as is.
func escapeReferences(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/16)
	state := scanKey
	var prev byte

	for _, c := range src {
		switch state {
		case scanKey:
			switch c {
			case '#':
				state = scanComment
			case '=', ':':
				state = scanGap
			}
		case scanComment:
			if c == '\n' {
				state = scanKey
			}
		case scanGap:
			switch c {
			case ' ', '\t':
			case '\n':
				state = scanKey
			case '\'':
				state = scanSingle
			case '"':
				state = scanDouble
			default:
				state = scanUnquoted
				if c == '$' {
					out = append(out, '\\')
				}
			}
		case scanUnquoted:
			switch {
			case c == '\n':
				state = scanKey
			case c == '$' && prev != '\\':
				out = append(out, '\\')
			}
		case scanSingle:
			if c == '\'' && prev != '\\' {
				state = scanComment
			}
		case scanDouble:
			switch {
			case c == '"' && prev != '\\':
				state = scanComment
			case c == '$' && prev != '\\':
				out = append(out, '\\')
			}
		}
		out = append(out, c)
		prev = c
	}
	return out
}
