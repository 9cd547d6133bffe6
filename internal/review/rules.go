package review

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	maxDecisionPoints = 10
	maxFileLines      = 500
	largeLoopLiteral  = 100000
)

type source struct {
	lang  Language
	lines []line
}

type rule struct {
	id         string
	severity   Severity
	reviewType ReviewType
	// languages restricts the rule; nil means every language.
	languages []Language
	check     func(src *source) []Finding
}

func (r rule) appliesTo(lang Language) bool {
	return r.languages == nil || slices.Contains(r.languages, lang)
}

// lineCheck inspects a single masked line. A nil fix means the finding needs judgment.
type lineCheck func(ln line) (message string, fix *string, ok bool)

func perLine(id string, severity Severity, rt ReviewType, langs []Language, fn lineCheck) rule {
	return rule{
		id:         id,
		severity:   severity,
		reviewType: rt,
		languages:  langs,
		check: func(src *source) []Finding {
			var out []Finding
			for _, ln := range src.lines {
				message, fix, ok := fn(ln)
				if !ok {
					continue
				}
				out = append(out, Finding{RuleID: id, Severity: severity, Line: ln.number, Message: message, SuggestedFix: fix})
			}
			return out
		},
	}
}

var (
	scriptLangs = []Language{JavaScript, TypeScript}
	evalLangs   = []Language{JavaScript, TypeScript, Python, PHP}
)

// registry is ordered; equal-key findings keep this order.
var registry = []rule{
	perLine("legacy-var", Warning, General, scriptLangs, checkLegacyVar),
	perLine("loose-equality", Warning, General, scriptLangs, checkLooseEquality),
	perLine("trailing-whitespace", Info, General, nil, checkTrailingWhitespace),
	perLine("tab-indentation", Info, General, []Language{Python}, checkTabIndentation),
	perLine("wildcard-import", Warning, General, []Language{Python}, checkWildcardImport),
	{id: "missing-docstring", severity: Info, reviewType: General, languages: []Language{Python}, check: checkDocstrings},
	{id: "high-complexity", severity: Warning, reviewType: General, check: checkComplexity},
	{id: "long-file", severity: Info, reviewType: General, check: checkLength},

	perLine("dynamic-html", Error, Security, scriptLangs, checkDynamicHTML),
	{id: "eval-call", severity: Error, reviewType: Security, languages: evalLangs, check: checkEval},
	perLine("sql-concat", Error, Security, nil, checkSQLConcat),
	perLine("hardcoded-secret", Warning, Security, nil, checkHardcodedSecret),

	perLine("large-literal-loop", Warning, Performance, nil, checkLargeLiteralLoop),
	perLine("unbounded-loop", Warning, Performance, nil, checkUnboundedLoop),
	perLine("sync-io", Info, Performance, scriptLangs, checkSyncIO),
}

// RuleIDs lists every registered rule in registration order.
func RuleIDs() []string {
	ids := make([]string, 0, len(registry))
	for _, r := range registry {
		ids = append(ids, r.id)
	}
	return ids
}

func fixed(s string) *string {
	return &s
}

var varKeyword = regexp.MustCompile(`(?:^|[^\w$.])(var)\s`)

func checkLegacyVar(ln line) (string, *string, bool) {
	matches := varKeyword.FindAllStringSubmatchIndex(ln.code, -1)
	if len(matches) == 0 {
		return "", nil, false
	}

	out := []byte(ln.text)
	for _, m := range matches {
		copy(out[m[2]:m[3]], "let")
	}
	return "use 'let' or 'const' instead of 'var'", fixed(string(out)), true
}

func checkLooseEquality(ln line) (string, *string, bool) {
	code := ln.code
	var at []int

	for i := 0; i+1 < len(code); i++ {
		switch {
		case code[i] == '!' && code[i+1] == '=':
			if i+2 < len(code) && code[i+2] == '=' {
				i += 2
				continue
			}
			at = append(at, i+1)
			i++
		case code[i] == '=' && code[i+1] == '=':
			if i+2 < len(code) && code[i+2] == '=' {
				i += 2
				continue
			}
			if i > 0 && strings.IndexByte("=<>", code[i-1]) >= 0 {
				i++
				continue
			}
			at = append(at, i+1)
			i++
		}
	}
	if len(at) == 0 {
		return "", nil, false
	}

	var b strings.Builder
	prev := 0
	for _, pos := range at {
		b.WriteString(ln.text[prev : pos+1])
		b.WriteByte('=')
		prev = pos + 1
	}
	b.WriteString(ln.text[prev:])

	return "use strict equality ('===' or '!==') instead of loose equality", fixed(b.String()), true
}

func checkTrailingWhitespace(ln line) (string, *string, bool) {
	trimmed := strings.TrimRight(ln.text, " \t")
	if trimmed == ln.text || ln.endsInString {
		return "", nil, false
	}
	return "trailing whitespace", fixed(trimmed), true
}

func checkTabIndentation(ln line) (string, *string, bool) {
	if ln.startsInString {
		return "", nil, false
	}
	rest := strings.TrimLeft(ln.text, " \t")
	indent := ln.text[:len(ln.text)-len(rest)]
	if !strings.Contains(indent, "\t") {
		return "", nil, false
	}
	return "indentation uses tabs; use 4 spaces", fixed(strings.ReplaceAll(indent, "\t", "    ") + rest), true
}

var wildcardImport = regexp.MustCompile(`^\s*from\s+[\w.]+\s+import\s+\*`)

func checkWildcardImport(ln line) (string, *string, bool) {
	if !wildcardImport.MatchString(ln.code) {
		return "", nil, false
	}
	return "wildcard import; import names explicitly", nil, true
}

var (
	funcDef   = regexp.MustCompile(`^\s*(async\s+)?def\s+\w+\s*\(.*\)\s*(->.*)?:\s*$`)
	docString = regexp.MustCompile(`^\s*[rRuUbB]?("""|''')`)
)

func checkDocstrings(src *source) []Finding {
	var out []Finding
	for i, ln := range src.lines {
		if !funcDef.MatchString(ln.code) {
			continue
		}

		documented := false
		for _, next := range src.lines[i+1:] {
			if strings.TrimSpace(next.text) == "" {
				continue
			}
			documented = docString.MatchString(next.text)
			break
		}
		if !documented {
			out = append(out, Finding{RuleID: "missing-docstring", Severity: Info, Line: ln.number, Message: "function has no docstring"})
		}
	}
	return out
}

var decisionPoint = regexp.MustCompile(`\b(if|elif|while|for|switch|try|catch|except)\b|&&|\|\|`)

func decisionPoints(lines []line) int {
	count := 0
	for _, ln := range lines {
		count += len(decisionPoint.FindAllStringIndex(ln.code, -1))
	}
	return count
}

func checkComplexity(src *source) []Finding {
	points := decisionPoints(src.lines)
	if points <= maxDecisionPoints || len(src.lines) == 0 {
		return nil
	}
	return []Finding{{
		RuleID:   "high-complexity",
		Severity: Warning,
		Line:     1,
		Message:  fmt.Sprintf("high cyclomatic complexity (%d decision points); consider refactoring", points),
	}}
}

func checkLength(src *source) []Finding {
	if len(src.lines) <= maxFileLines {
		return nil
	}
	return []Finding{{
		RuleID:   "long-file",
		Severity: Info,
		Line:     1,
		Message:  fmt.Sprintf("file has %d lines; consider splitting it into smaller modules", len(src.lines)),
	}}
}

var (
	htmlAssign    = regexp.MustCompile(`\.(innerHTML|outerHTML)\s*\+?=([^=]|$)`)
	documentWrite = regexp.MustCompile(`\bdocument\.write(ln)?\s*\(`)
	staticAssign  = regexp.MustCompile("^\\s*([\"'`]) *[\"'`]\\s*;?\\s*$")
	staticCall    = regexp.MustCompile("^\\s*([\"'`]) *[\"'`]\\s*\\)")
)

func interpolated(ln line) bool {
	for _, lit := range ln.literals {
		if strings.Contains(lit, "${") {
			return true
		}
	}
	return false
}

func checkDynamicHTML(ln line) (string, *string, bool) {
	if m := htmlAssign.FindStringSubmatchIndex(ln.code); m != nil {
		rhs := ln.code[m[4]:]
		if !staticAssign.MatchString(rhs) || interpolated(ln) {
			return fmt.Sprintf("dynamic content assigned to %s without escaping", ln.code[m[2]:m[3]]), nil, true
		}
	}
	if m := documentWrite.FindStringIndex(ln.code); m != nil {
		if !staticCall.MatchString(ln.code[m[1]:]) || interpolated(ln) {
			return "document.write with dynamic content", nil, true
		}
	}
	return "", nil, false
}

var evalCall = map[Language]*regexp.Regexp{
	JavaScript: regexp.MustCompile(`(?:^|[^\w$.])(eval\s*\(|new\s+Function\s*\()`),
	TypeScript: regexp.MustCompile(`(?:^|[^\w$.])(eval\s*\(|new\s+Function\s*\()`),
	Python:     regexp.MustCompile(`(?:^|[^\w.])(eval|exec)\s*\(`),
	PHP:        regexp.MustCompile(`(?:^|[^\w$>:])eval\s*\(`),
}

func checkEval(src *source) []Finding {
	pattern := evalCall[src.lang]
	var out []Finding
	for _, ln := range src.lines {
		if pattern.MatchString(ln.code) {
			out = append(out, Finding{RuleID: "eval-call", Severity: Error, Line: ln.number, Message: "dynamic code evaluation"})
		}
	}
	return out
}

var (
	sqlStatement = regexp.MustCompile(`(?i)\b(select\b.*\bfrom|insert\s+into|update\s+\S+\s+set|delete\s+from)\b`)
	sqlBuilder   = regexp.MustCompile("\\.format\\s*\\(|\\bf[\"']|Sprintf\\s*\\(|format!\\s*\\(|[\"']\\s*\\.\\s*\\$|\\$\\w+\\s*\\.\\s*[\"']")
)

func checkSQLConcat(ln line) (string, *string, bool) {
	query := false
	for _, lit := range ln.literals {
		if sqlStatement.MatchString(lit) {
			query = true
			break
		}
	}
	if !query {
		return "", nil, false
	}
	if strings.ContainsAny(ln.code, "+%") || sqlBuilder.MatchString(ln.code) || interpolated(ln) {
		return "SQL statement built from dynamic values; use parameterised queries", nil, true
	}
	return "", nil, false
}

var secretAssign = regexp.MustCompile("(?i)[\\w$]*(password|passwd|pwd|secret|api_?key|apikey|token|access_?key)[\\w$]*[\"']?\\s*(:=|=|:)\\s*[\"'`] {4,}[\"'`]")

func checkHardcodedSecret(ln line) (string, *string, bool) {
	if !secretAssign.MatchString(ln.code) {
		return "", nil, false
	}
	return "possible hardcoded credential; load it from configuration", nil, true
}

var (
	loopHead   = regexp.MustCompile(`\b(for|while)\b|\brange\s*\(`)
	intLiteral = regexp.MustCompile(`\b\d[\d_]*\b`)
)

func checkLargeLiteralLoop(ln line) (string, *string, bool) {
	if !loopHead.MatchString(ln.code) {
		return "", nil, false
	}
	for _, lit := range intLiteral.FindAllString(ln.code, -1) {
		n, err := strconv.ParseInt(strings.ReplaceAll(lit, "_", ""), 10, 64)
		if err != nil {
			continue
		}
		if n >= largeLoopLiteral {
			return fmt.Sprintf("loop bounded by large literal %d", n), nil, true
		}
	}
	return "", nil, false
}

var unboundedLoop = regexp.MustCompile(`\bwhile\s*\(\s*(true|1)\s*\)|^\s*while\s+(True|1)\s*:|\bfor\s*\(\s*;\s*;\s*\)|^\s*for\s*\{|\bloop\s*\{|\bloop\s+do\b`)

func checkUnboundedLoop(ln line) (string, *string, bool) {
	if !unboundedLoop.MatchString(ln.code) {
		return "", nil, false
	}
	return "loop has no termination condition", nil, true
}

var syncIO = regexp.MustCompile(`\b(readFileSync|writeFileSync|appendFileSync|execSync|spawnSync)\s*\(`)

func checkSyncIO(ln line) (string, *string, bool) {
	m := syncIO.FindStringSubmatch(ln.code)
	if m == nil {
		return "", nil, false
	}
	return fmt.Sprintf("%s blocks the event loop; prefer the async variant", m[1]), nil, true
}
