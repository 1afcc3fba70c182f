package fix

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

// lineEdit is a transform's output: replacement lines for the target (empty
// means delete it), an optional supporting import, and an optional override
// of which line the edit lands on (module-level docstrings land on line 1).
type lineEdit struct {
	at          int
	replacement []string
	importLine  string
}

type fixRule struct {
	name      string
	keywords  []string
	transform func(lines []string, idx int) (lineEdit, bool)
}

// fixRules are evaluated in order against the issue's title and
// description; the first keyword hit picks the transform.
var fixRules = []fixRule{
	{"print-to-logging", []string{"print"}, transformPrint},
	{"insert-docstring", []string{"docstring"}, transformDocstring},
	{"typed-except", []string{"except"}, transformExcept},
	{"parameterize-sql", []string{"sql", "injection"}, transformSQL},
	{"env-credential", []string{"credential", "password", "secret", "hardcoded"}, transformCredential},
	{"drop-unused-import", []string{"unused import"}, transformUnusedImport},
}

func matchRule(issue model.Issue) *fixRule {
	hay := strings.ToLower(issue.Title + " " + issue.Description)
	for i := range fixRules {
		for _, kw := range fixRules[i].keywords {
			if strings.Contains(hay, kw) {
				return &fixRules[i]
			}
		}
	}
	return nil
}

var (
	printCallRe  = regexp.MustCompile(`^(\s*)print\s*\(`)
	bareExceptRe = regexp.MustCompile(`^\s*except\s*:`)
	defClassRe   = regexp.MustCompile(`^\s*(?:def|class)\b`)
	sqlConcatRe  = regexp.MustCompile(`^(.*?)(["'])([^"']*)["']\s*\+\s*(.+?)\s*$`)
	credAssignRe = regexp.MustCompile(`^(\s*)(\w+)\s*=\s*["'].*?["'](.*)$`)
	importStmtRe = regexp.MustCompile(`^\s*(?:import|from)\s+\S`)
)

const docstringPlaceholder = `"""TODO: Add docstring."""`

func transformPrint(lines []string, idx int) (lineEdit, bool) {
	line := lines[idx]
	m := printCallRe.FindStringSubmatch(line)
	if m == nil {
		return lineEdit{}, false
	}
	indent := m[1]
	rewritten := indent + "logging.info" + line[len(indent)+len("print"):]
	return lineEdit{replacement: []string{rewritten}, importLine: "import logging"}, true
}

func transformDocstring(lines []string, idx int) (lineEdit, bool) {
	line := lines[idx]
	if defClassRe.MatchString(line) {
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		return lineEdit{replacement: []string{line, indent + "    " + docstringPlaceholder}}, true
	}
	// Module-level docstring goes before the first line of the file.
	return lineEdit{at: 1, replacement: []string{docstringPlaceholder, lines[0]}}, true
}

func transformExcept(lines []string, idx int) (lineEdit, bool) {
	line := lines[idx]
	if !bareExceptRe.MatchString(line) {
		return lineEdit{}, false
	}
	return lineEdit{replacement: []string{strings.Replace(line, "except", "except Exception", 1)}}, true
}

var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WHERE"}

func transformSQL(lines []string, idx int) (lineEdit, bool) {
	line := lines[idx]
	upper := strings.ToUpper(line)
	found := false
	for _, kw := range sqlKeywords {
		if strings.Contains(upper, kw) {
			found = true
			break
		}
	}
	if !found {
		return lineEdit{}, false
	}
	m := sqlConcatRe.FindStringSubmatch(line)
	if m == nil {
		return lineEdit{}, false
	}
	rewritten := m[1] + m[2] + m[3] + "?" + m[2] + ", (" + m[4] + ",)"
	return lineEdit{replacement: []string{rewritten}}, true
}

func transformCredential(lines []string, idx int) (lineEdit, bool) {
	line := lines[idx]
	m := credAssignRe.FindStringSubmatch(line)
	if m == nil {
		return lineEdit{}, false
	}
	rewritten := m[1] + m[2] + ` = os.environ.get("` + strings.ToUpper(m[2]) + `")` + m[3]
	return lineEdit{replacement: []string{rewritten}, importLine: "import os"}, true
}

func transformUnusedImport(lines []string, idx int) (lineEdit, bool) {
	if !importStmtRe.MatchString(lines[idx]) {
		return lineEdit{}, false
	}
	return lineEdit{replacement: []string{}}, true
}

// hasImport reports whether the module named by importLine ("import os")
// is already imported anywhere in the file.
func hasImport(lines []string, importLine string) bool {
	module := importLine[strings.LastIndex(importLine, " ")+1:]
	for _, l := range lines {
		t := strings.TrimSpace(l)
		for _, prefix := range []string{"import " + module, "from " + module} {
			if !strings.HasPrefix(t, prefix) {
				continue
			}
			rest := t[len(prefix):]
			if rest == "" || rest[0] == ' ' || rest[0] == '.' || rest[0] == ',' {
				return true
			}
		}
	}
	return false
}

// leadingImportRun returns the number of contiguous import/from lines at
// the very top of the file, which is where supporting imports insert.
func leadingImportRun(lines []string) int {
	i := 0
	for i < len(lines) && importStmtRe.MatchString(lines[i]) {
		i++
	}
	return i
}
