package review

import "strings"

// line is one source line with string contents and comments blanked out of code.
// Masking is byte-for-byte so offsets in code are offsets in text.
type line struct {
	number   int
	text     string
	code     string
	literals []string
	comment  bool
	// startsInString and endsInString mark a multi-line string crossing the line boundary.
	startsInString bool
	endsInString   bool
}

type lexState int

const (
	inCode lexState = iota
	inBlockComment
	inString
)

// splitLines splits text on "\n" and drops a trailing "\r" from every line. A final
// newline does not start another line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	for i, l := range raw {
		raw[i] = strings.TrimSuffix(l, "\r")
	}
	return raw
}

func mask(text string, lang Language) []line {
	syn := lang.syntax()
	raw := splitLines(text)
	out := make([]line, 0, len(raw))

	state := inCode
	var quote string

	for idx, src := range raw {
		ln := line{number: idx + 1, text: src, startsInString: state == inString}
		code := []byte(src)
		var literal strings.Builder
		flush := func() {
			if literal.Len() > 0 {
				ln.literals = append(ln.literals, literal.String())
				literal.Reset()
			}
		}

		i := 0
	scan:
		for i < len(src) {
			switch state {
			case inCode:
				for _, marker := range syn.lineComments {
					if strings.HasPrefix(src[i:], marker) {
						blank(code, i, len(src))
						ln.comment = true
						break scan
					}
				}
				if syn.blockOpen != "" && strings.HasPrefix(src[i:], syn.blockOpen) {
					blank(code, i, i+len(syn.blockOpen))
					ln.comment = true
					state = inBlockComment
					i += len(syn.blockOpen)
					continue
				}
				if syn.tripleQuotes && (strings.HasPrefix(src[i:], `"""`) || strings.HasPrefix(src[i:], `'''`)) {
					quote = src[i : i+3]
					state = inString
					i += 3
					continue
				}
				if syn.regexLiterals && src[i] == '/' && regexAllowed(code[:i]) {
					if end := regexEnd(src, i); end > 0 {
						blank(code, i+1, end)
						i = end + 1
						continue
					}
				}
				if strings.IndexByte(syn.quotes, src[i]) >= 0 {
					quote = src[i : i+1]
					state = inString
				}
				i++

			case inBlockComment:
				ln.comment = true
				if strings.HasPrefix(src[i:], syn.blockClose) {
					blank(code, i, i+len(syn.blockClose))
					state = inCode
					i += len(syn.blockClose)
					continue
				}
				code[i] = ' '
				i++

			case inString:
				if src[i] == '\\' && quote != "`" {
					end := min(i+2, len(src))
					literal.WriteString(src[i:end])
					blank(code, i, end)
					i = end
					continue
				}
				if strings.HasPrefix(src[i:], quote) {
					flush()
					state = inCode
					i += len(quote)
					continue
				}
				literal.WriteByte(src[i])
				code[i] = ' '
				i++
			}
		}

		flush()
		// Only template, raw and triple-quoted strings span lines.
		if state == inString && len(quote) == 1 && quote != "`" {
			state = inCode
		}
		ln.endsInString = state == inString
		ln.code = string(code)
		out = append(out, ln)
	}

	return out
}

// regexAllowed reports whether a slash after code starts a regular expression
// rather than a division.
func regexAllowed(code []byte) bool {
	prev := strings.TrimRight(string(code), " \t")
	if prev == "" {
		return true
	}
	return strings.IndexByte("(,=:[!&|?{};", prev[len(prev)-1]) >= 0
}

// regexEnd returns the index of the slash closing the literal opened at start, or -1
// when the line ends first.
func regexEnd(src string, start int) int {
	inClass := false
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return j
			}
		}
	}
	return -1
}

func blank(b []byte, from, to int) {
	for i := from; i < to; i++ {
		b[i] = ' '
	}
}
