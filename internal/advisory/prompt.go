package advisory

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/utils"
)

//go:embed prompts/*.md
var promptFS embed.FS

const (
	contractPrompt       = "contract.md"
	strictContractPrompt = "contract_strict.md"

	maxFieldRunes           = 200
	maxDescriptionRunes     = 2000
	maxUserInstructionRunes = 500
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

	// neutralizer keeps user text from opening prompt sections or faking markers.
	neutralizer = strings.NewReplacer(
		"[", "(",
		"]", ")",
		"<<<", "<<",
		">>>", ">>",
		"{{", "{ {",
		"}}", "} }",
	)
)

// render fills the request's template and appends the output contract.
func render(op string, req Request, contract string) (string, error) {
	name := req.template()

	raw, err := promptFS.ReadFile("prompts/" + name)
	if err != nil {
		return "", apperr.E(op, apperr.Internal, name, fmt.Errorf("read prompt template: %w", err))
	}
	tail, err := promptFS.ReadFile("prompts/" + contract)
	if err != nil {
		return "", apperr.E(op, apperr.Internal, contract, fmt.Errorf("read prompt template: %w", err))
	}

	fields := req.fields()

	var missing []string
	filled := placeholderPattern.ReplaceAllStringFunc(string(raw), func(ph string) string {
		key := placeholderPattern.FindStringSubmatch(ph)[1]
		value, ok := fields[key]
		if !ok {
			missing = append(missing, key)
			return ph
		}
		return value
	})
	if len(missing) > 0 {
		return "", apperr.Errorf(op, apperr.Internal, name, "unfilled placeholders %v", missing)
	}

	return strings.TrimRight(filled, "\n") + "\n" + string(tail), nil
}

// sanitizeLine flattens s to one line, neutralizes prompt syntax and caps its length.
func sanitizeLine(s string, limit int) string {
	return utils.Truncate(neutralizer.Replace(utils.SingleLine(s)), limit)
}

// sanitizeBlock renders multi-line user text as a bullet list under a shared rune budget.
func sanitizeBlock(s string) string {
	var items []string
	remaining := maxUserInstructionRunes

	for _, raw := range strings.Split(s, "\n") {
		if remaining <= 0 {
			break
		}
		line := neutralizer.Replace(utils.SingleLine(raw))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > remaining {
			line = string([]rune(line)[:remaining])
		}
		remaining -= utf8.RuneCountInString(line)
		items = append(items, line)
	}

	return bulletList(items)
}

func sanitizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if line := sanitizeLine(v, maxFieldRunes); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "  - none"
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(item)
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
