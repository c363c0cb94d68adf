package pipeline

import "strings"

// codeFence is the opening line of a fenced code block.
type codeFence struct {
	marker byte // '`' or '~'
	length int
	indent int
	info   string
}

// openFence recognises an opening fence: at most three spaces of indent,
// then a run of three or more backticks or tildes, then an optional info
// string. The info string of a backtick fence may not contain a backtick.
func openFence(line string) (codeFence, bool) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimLeft(line, " ")
	indent := len(line) - len(trimmed)
	if indent > 3 || len(trimmed) < 3 {
		return codeFence{}, false
	}

	marker := trimmed[0]
	if marker != '`' && marker != '~' {
		return codeFence{}, false
	}
	run := len(trimmed) - len(strings.TrimLeft(trimmed, string(marker)))
	if run < 3 {
		return codeFence{}, false
	}
	info := strings.TrimSpace(trimmed[run:])
	if marker == '`' && strings.Contains(info, "`") {
		return codeFence{}, false
	}

	return codeFence{marker: marker, length: run, indent: indent, info: info}, true
}

// closedBy reports whether line ends the block: same marker character, a
// run at least as long as the opener, at most three spaces of indent and
// nothing but whitespace after the run.
func (f codeFence) closedBy(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	run := len(trimmed) - len(strings.TrimLeft(trimmed, string(f.marker)))
	if run < f.length {
		return false
	}
	return strings.TrimSpace(trimmed[run:]) == ""
}

// language is the first word of the info string, lowercased.
func (f codeFence) language() string {
	fields := strings.Fields(f.info)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// dedent removes up to the opener's indent of leading spaces from a
// content line, as Markdown renderers do.
func (f codeFence) dedent(line string) string {
	n := 0
	for n < f.indent && n < len(line) && line[n] == ' ' {
		n++
	}
	return line[n:]
}
