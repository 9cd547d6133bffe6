package patch

import "strings"

// document is text split into lines with each line's terminator kept aside, so
// rewriting a line never changes how it ends.
type document struct {
	lines []string
	ends  []string
}

func parse(text string) document {
	var d document
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			line, end := text, ""
			if strings.HasSuffix(line, "\r") {
				line, end = line[:len(line)-1], "\r"
			}
			d.lines = append(d.lines, line)
			d.ends = append(d.ends, end)
			break
		}

		line, end := text[:i], "\n"
		if strings.HasSuffix(line, "\r") {
			line, end = line[:len(line)-1], "\r\n"
		}
		d.lines = append(d.lines, line)
		d.ends = append(d.ends, end)
		text = text[i+1:]
	}
	return d
}

func (d document) len() int {
	return len(d.lines)
}

// span returns lines start..end (1-based, inclusive) joined with "\n".
func (d document) span(start, end int) string {
	return strings.Join(d.lines[start-1:end], "\n")
}

func (d document) newline() string {
	for _, end := range d.ends {
		if end == "\n" || end == "\r\n" {
			return end
		}
	}
	return "\n"
}

func (d document) inRange(start, end int) bool {
	return start >= 1 && start <= end && end <= d.len()
}
