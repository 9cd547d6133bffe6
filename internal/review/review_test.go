package review

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/gig-assistant/internal/apperr"
)

func ids(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.RuleID)
	}
	return out
}

func TestAnalyzeLegacyBindingAndLooseEquality(t *testing.T) {
	findings, err := Analyze("var x = 1; if (x == 1) { }", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %v", findings)
	}

	first, second := findings[0], findings[1]
	if first.RuleID != "legacy-var" || first.Line != 1 || first.Severity != Warning {
		t.Fatalf("unexpected first finding: %+v", first)
	}
	if second.RuleID != "loose-equality" || second.Line != 1 || second.Severity != Warning {
		t.Fatalf("unexpected second finding: %+v", second)
	}

	if got := *first.SuggestedFix; got != "let x = 1; if (x == 1) { }" {
		t.Fatalf("unexpected legacy-var fix %q", got)
	}
	if got := *second.SuggestedFix; got != "var x = 1; if (x === 1) { }" {
		t.Fatalf("unexpected loose-equality fix %q", got)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	text := strings.Join([]string{
		"var a = 1;",
		"if (a != 2 && a == 3) { eval(a) }",
		"el.innerHTML = a;  ",
		"for (;;) { readFileSync(a) }",
	}, "\n")

	for _, rt := range []ReviewType{General, Security, Performance} {
		first, err := Analyze(text, "js", rt)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", rt, err)
		}
		second, err := Analyze(text, "js", rt)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", rt, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s: results differ between calls:\n%v\n%v", rt, first, second)
		}
	}
}

func TestAnalyzeRejectsUnknownReviewType(t *testing.T) {
	_, err := Analyze("var a;", "js", ReviewType("style"))
	if !apperr.Is(err, apperr.InvalidReviewType) {
		t.Fatalf("expected InvalidReviewType, got %v", err)
	}
}

func TestAnalyzeIgnoresStringsAndComments(t *testing.T) {
	text := "let s = \"var a == b\"; // var c == d\n/* var e\n   f == g */\nlet t = 'x != y';\n"

	findings, err := Analyze(text, "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestAnalyzeIgnoresRegexLiterals(t *testing.T) {
	findings, err := Analyze("const ok = /a==b/.test(s);\n", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings inside a regex, got %v", findings)
	}

	findings, err = Analyze("const q = /'/; var x = 1;\n", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(findings), []string{"legacy-var"}) {
		t.Fatalf("expected legacy-var after a quote in a regex, got %v", findings)
	}
	if got := *findings[0].SuggestedFix; got != "const q = /'/; let x = 1;" {
		t.Fatalf("unexpected legacy-var fix %q", got)
	}

	findings, err = Analyze("let r = a / b == c / [d][0];\n", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(findings), []string{"loose-equality"}) {
		t.Fatalf("expected division to stay code, got %v", findings)
	}
}

func TestAnalyzeOrdersBySeverityThenLine(t *testing.T) {
	text := strings.Join([]string{
		"el.innerHTML = userInput;",
		"const apiKey = \"sk-live-1234567890\";",
		"eval(code);",
		"db.query(\"SELECT * FROM users WHERE id = \" + id);",
	}, "\n")

	findings, err := Analyze(text, "javascript", Security)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"dynamic-html", "eval-call", "sql-concat", "hardcoded-secret"}
	if got := ids(findings); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, f := range findings {
		if f.HasFix() {
			t.Fatalf("security findings must not carry fixes: %+v", f)
		}
	}
}

func TestAnalyzeStaticHTMLIsNotFlagged(t *testing.T) {
	text := "el.innerHTML = \"<b>hi</b>\";\ndocument.write('ok');\nel.innerHTML = `<i>${name}</i>`;\n"

	findings, err := Analyze(text, "javascript", Security)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 || findings[0].Line != 3 {
		t.Fatalf("expected only the interpolated template to be flagged, got %v", findings)
	}
}

func TestAnalyzePython(t *testing.T) {
	text := "from os import *\ndef f(x):\n\treturn x \n"

	findings, err := Analyze(text, "python", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"wildcard-import", "missing-docstring", "trailing-whitespace", "tab-indentation"}
	if got := ids(findings); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if fix := findings[3].SuggestedFix; fix == nil || *fix != "    return x " {
		t.Fatalf("unexpected tab fix %v", fix)
	}
}

func TestAnalyzePerformance(t *testing.T) {
	text := "for i in range(1_000_000):\n    pass\nwhile True:\n    pass\nfor j in range(10):\n    pass\n"

	findings, err := Analyze(text, ".py", Performance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %v", findings)
	}
	if findings[0].RuleID != "large-literal-loop" || findings[0].Line != 1 {
		t.Fatalf("unexpected first finding %+v", findings[0])
	}
	if findings[1].RuleID != "unbounded-loop" || findings[1].Line != 3 {
		t.Fatalf("unexpected second finding %+v", findings[1])
	}
}

func TestAnalyzeSniffsLanguageWithoutHint(t *testing.T) {
	findings, err := Analyze("var a = 1;\n", "", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 || findings[0].RuleID != "legacy-var" {
		t.Fatalf("expected legacy-var for sniffed javascript, got %v", findings)
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	text := strings.Repeat("if (a) { b(); }\n", 11)

	findings, err := Analyze(text, "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 || findings[0].RuleID != "high-complexity" || findings[0].Line != 1 {
		t.Fatalf("expected high-complexity at line 1, got %v", findings)
	}
}

func TestAnalyzeKeepsCarriageReturnsOutOfFixes(t *testing.T) {
	findings, err := Analyze("var a = 1;\r\n", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 || *findings[0].SuggestedFix != "let a = 1;" {
		t.Fatalf("unexpected findings %v", findings)
	}
}

func TestAnalyzeSkipsWhitespaceInsideTemplates(t *testing.T) {
	findings, err := Analyze("const s = `a  \nb`;\n", "javascript", General)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestLanguageDetection(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"src/app.js", JavaScript},
		{"src/App.TSX", TypeScript},
		{"main.go", Go},
		{"lib.rs", Rust},
		{"README.md", Unknown},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.in); got != tt.want {
			t.Fatalf("DetectLanguage(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}

	hints := map[string]Language{
		"JavaScript": JavaScript,
		".py":        Python,
		"py":         Python,
		"c++":        Cpp,
		"rb":         Ruby,
		"cobol":      Unknown,
		"":           Unknown,
	}
	for hint, want := range hints {
		if got := NormalizeLanguage(hint); got != want {
			t.Fatalf("NormalizeLanguage(%q): expected %s, got %s", hint, want, got)
		}
	}
}

func TestMeasure(t *testing.T) {
	m := Measure("# comment\nx = 1  # trailing\n\n# another\nif x:\n    pass\n", Python)

	want := Metrics{TotalLines: 6, CodeLines: 5, CommentLines: 2, Complexity: 1, CommentRatio: 40}
	if m != want {
		t.Fatalf("expected %+v, got %+v", want, m)
	}
}

func TestQuality(t *testing.T) {
	info := Finding{Severity: Info}
	warn := Finding{Severity: Warning}

	tests := []struct {
		findings []Finding
		want     string
	}{
		{nil, "Good"},
		{[]Finding{info, info}, "Good"},
		{[]Finding{warn, info}, "Needs Improvement"},
		{[]Finding{warn, warn, {Severity: Error}}, "Poor"},
	}
	for _, tt := range tests {
		if got := Quality(tt.findings); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}
