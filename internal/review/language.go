package review

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Language identifies the syntax family used for masking and rule selection.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Java       Language = "java"
	Cpp        Language = "cpp"
	C          Language = "c"
	PHP        Language = "php"
	Ruby       Language = "ruby"
	Go         Language = "go"
	Rust       Language = "rust"
	Unknown    Language = "unknown"
)

var extensions = map[string]Language{
	".py":   Python,
	".js":   JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".jsx":  JavaScript,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".java": Java,
	".cpp":  Cpp,
	".cc":   Cpp,
	".hpp":  Cpp,
	".c":    C,
	".h":    C,
	".php":  PHP,
	".rb":   Ruby,
	".go":   Go,
	".rs":   Rust,
}

var aliases = map[string]Language{
	"py":         Python,
	"python":     Python,
	"js":         JavaScript,
	"javascript": JavaScript,
	"node":       JavaScript,
	"ts":         TypeScript,
	"typescript": TypeScript,
	"java":       Java,
	"c++":        Cpp,
	"cpp":        Cpp,
	"c":          C,
	"php":        PHP,
	"rb":         Ruby,
	"ruby":       Ruby,
	"go":         Go,
	"golang":     Go,
	"rs":         Rust,
	"rust":       Rust,
}

// DetectLanguage maps a file path to a language by its extension.
func DetectLanguage(path string) Language {
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return Unknown
}

// NormalizeLanguage accepts a language name, an alias or a file extension.
func NormalizeLanguage(hint string) Language {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return Unknown
	}
	if strings.HasPrefix(hint, ".") {
		if lang, ok := extensions[hint]; ok {
			return lang
		}
		return Unknown
	}
	if lang, ok := aliases[hint]; ok {
		return lang
	}
	if lang, ok := extensions["."+hint]; ok {
		return lang
	}
	return Unknown
}

// ResolveLanguage normalizes hint, guessing from text when hint is empty.
func ResolveLanguage(text, hint string) Language {
	if strings.TrimSpace(hint) == "" {
		return sniff(text)
	}
	return NormalizeLanguage(hint)
}

var (
	pythonSniff = regexp.MustCompile(`(?m)^\s*(def\s+\w+\s*\(.*\)\s*(->.*)?:|class\s+\w+.*:|from\s+[\w.]+\s+import\s|import\s+[\w.]+\s*$)`)
	jsSniff     = regexp.MustCompile(`(?m)(^|[;{}\s])(var|let|const)\s+[A-Za-z_$][\w$]*|\bfunction\s*[\w$]*\s*\(|=>`)
)

// sniff guesses the language of text without a hint. Only Python and JavaScript are
// recognised; anything else stays Unknown.
func sniff(text string) Language {
	switch {
	case pythonSniff.MatchString(text):
		return Python
	case jsSniff.MatchString(text):
		return JavaScript
	default:
		return Unknown
	}
}

func (l Language) scriptLike() bool {
	return l == JavaScript || l == TypeScript
}

// syntax describes the lexical elements masked before rules run.
type syntax struct {
	lineComments []string
	blockOpen    string
	blockClose   string
	quotes       string
	tripleQuotes bool
	// regexLiterals enables /.../ literals in expression position.
	regexLiterals bool
}

func (l Language) syntax() syntax {
	switch l {
	case JavaScript, TypeScript:
		return syntax{lineComments: []string{"//"}, blockOpen: "/*", blockClose: "*/", quotes: "\"'`", regexLiterals: true}
	case Go:
		return syntax{lineComments: []string{"//"}, blockOpen: "/*", blockClose: "*/", quotes: "\"'`"}
	case Java, C, Cpp:
		return syntax{lineComments: []string{"//"}, blockOpen: "/*", blockClose: "*/", quotes: "\"'"}
	case Rust:
		// Single quotes also introduce lifetimes.
		return syntax{lineComments: []string{"//"}, blockOpen: "/*", blockClose: "*/", quotes: "\""}
	case PHP:
		return syntax{lineComments: []string{"//", "#"}, blockOpen: "/*", blockClose: "*/", quotes: "\"'"}
	case Python:
		return syntax{lineComments: []string{"#"}, quotes: "\"'", tripleQuotes: true}
	case Ruby:
		return syntax{lineComments: []string{"#"}, quotes: "\"'"}
	default:
		return syntax{quotes: "\"'"}
	}
}
