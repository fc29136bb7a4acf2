package fixer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Diagnosis is the classified location of an error in program output
type Diagnosis struct {
	Language string
	File     string
	Line     int
	Column   int
	// Raw is the matched line from the error output.
	Raw string
}

// extensionLanguages maps source file extensions to languages
var extensionLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".c":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".cxx":  "cpp",
	".java": "java",
	".rs":   "rust",
	".go":   "go",
}

// LanguageForFile returns the language for a source path, if supported
func LanguageForFile(path string) (string, bool) {
	lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// commonEntrypoints are tried when the error output names no file
var commonEntrypoints = map[string][]string{
	"python":     {"main.py", "app.py", "run.py"},
	"javascript": {"index.js", "main.js", "app.js", "server.js"},
	"typescript": {"index.ts", "main.ts", "app.ts"},
	"c":          {"main.c"},
	"cpp":        {"main.cpp", "main.cc"},
	"java":       {"Main.java", "App.java"},
	"rust":       {"src/main.rs", "main.rs"},
	"go":         {"main.go"},
}

// errorPattern locates file and line references in tool output
type errorPattern struct {
	language string
	re       *regexp.Regexp
	// group indexes into the submatches; 0 means absent.
	fileIdx, lineIdx, colIdx int
}

var errorPatterns = []errorPattern{
	// Python tracebacks: File "x.py", line 3
	{"python", regexp.MustCompile(`File "([^"]+)", line (\d+)`), 1, 2, 0},
	// Node stack frames: at /app/index.js:10:5
	{"javascript", regexp.MustCompile(`at ([^\s:()]+):(\d+):(\d+)`), 1, 2, 3},
	// Node stack frames with parens: (internal/x.js:1:2)
	{"javascript", regexp.MustCompile(`\(([^)]+\.[cm]?jsx?):(\d+):(\d+)\)`), 1, 2, 3},
	// tsc diagnostics: src/app.ts(4,7): error TS2322
	{"typescript", regexp.MustCompile(`([\w./-]+\.tsx?)\((\d+),(\d+)\): error`), 1, 2, 3},
	// tsc/eslint style: src/app.ts:4:7
	{"typescript", regexp.MustCompile(`([\w./-]+\.tsx?):(\d+):(\d+)`), 1, 2, 3},
	// gcc/clang: main.c:5:10: error:
	{"c", regexp.MustCompile(`([\w./-]+\.(?:c|h)):(\d+):(\d+): (?:fatal )?error`), 1, 2, 3},
	{"cpp", regexp.MustCompile(`([\w./-]+\.(?:cc|cpp|cxx|hpp)):(\d+):(\d+): (?:fatal )?error`), 1, 2, 3},
	// javac: Main.java:7: error:
	{"java", regexp.MustCompile(`([\w./-]+\.java):(\d+): error`), 1, 2, 0},
	// rustc: --> src/main.rs:3:5
	{"rust", regexp.MustCompile(`--> ([^:]+):(\d+):(\d+)`), 1, 2, 3},
	// go build/test: ./main.go:12:2:
	{"go", regexp.MustCompile(`([\w./-]+\.go):(\d+):(\d+)`), 1, 2, 3},
	// Python error names without location, classified only.
	{"python", regexp.MustCompile(`(?:SyntaxError|IndentationError|NameError|TypeError|ValueError|ImportError|ModuleNotFoundError|AttributeError|KeyError|IndexError|ZeroDivisionError)`), 0, 0, 0},
}

// Classify scans error output for a recognizable file reference.
// The language is re-derived from the matched file's extension when
// possible, since stack traces often pass through foreign frames.
func Classify(output string) (Diagnosis, bool) {
	for _, line := range strings.Split(output, "\n") {
		for _, pattern := range errorPatterns {
			m := pattern.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			d := Diagnosis{Language: pattern.language, Raw: strings.TrimSpace(line)}
			if pattern.fileIdx > 0 {
				d.File = m[pattern.fileIdx]
				if lang, ok := LanguageForFile(d.File); ok {
					d.Language = lang
				}
			}
			if pattern.lineIdx > 0 {
				d.Line = atoi(m[pattern.lineIdx])
			}
			if pattern.colIdx > 0 {
				d.Column = atoi(m[pattern.colIdx])
			}
			return d, true
		}
	}
	return Diagnosis{}, false
}

func atoi(s string) int {
	n := 0
	for _, ch := range s {
		n = n*10 + int(ch-'0')
	}
	return n
}
