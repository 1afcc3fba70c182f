package analyze

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

var securityRules = []rule{
	{
		re:       regexp.MustCompile(`SELECT.*\+.*str\(`),
		typ:      "sql_injection",
		title:    "SQL injection vulnerability detected",
		desc:     "User input is directly concatenated into SQL query without proper sanitization.",
		fix:      "Use parameterized queries or prepared statements to prevent SQL injection.",
		severity: model.SeverityHigh,
	},
	{
		re:       regexp.MustCompile(`exec\(|eval\(`),
		typ:      "code_injection",
		title:    "Code injection vulnerability",
		desc:     "Dynamic code execution can be dangerous with user input.",
		fix:      "Avoid using exec() or eval() with user-provided data.",
		severity: model.SeverityCritical,
	},
	{
		re:       regexp.MustCompile(`open\([^)]*input\(`),
		typ:      "path_injection",
		title:    "File path injection",
		desc:     "User input used directly in file operations.",
		fix:      "Validate and sanitize file paths before use.",
		severity: model.SeverityHigh,
	},
	{
		re:       regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*["'][^"']+["']`),
		typ:      "hardcoded_secret",
		title:    "Hardcoded password",
		desc:     "Credentials embedded in source are exposed to anyone with repository access.",
		fix:      "Load credentials from environment variables or a secret store.",
		severity: model.SeverityCritical,
		secret:   true,
	},
	{
		re:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*=\s*["'][a-zA-Z0-9_\-]{20,}["']`),
		typ:      "hardcoded_secret",
		title:    "Hardcoded API key",
		desc:     "API keys embedded in source leak through version control.",
		fix:      "Load the key from an environment variable.",
		severity: model.SeverityCritical,
		secret:   true,
	},
	{
		re:       regexp.MustCompile(`pickle\.loads?\(`),
		typ:      "insecure_operation",
		title:    "Unsafe deserialization with pickle",
		desc:     "Unpickling untrusted data can execute arbitrary code.",
		fix:      "Use a safe serialization format such as JSON for untrusted input.",
		severity: model.SeverityHigh,
	},
	{
		re:       regexp.MustCompile(`os\.system\(|subprocess\..*shell=True`),
		typ:      "insecure_operation",
		title:    "Shell injection risk",
		desc:     "Building shell commands from program data allows command injection.",
		fix:      "Pass arguments as a list without shell=True.",
		severity: model.SeverityHigh,
	},
	{
		re:       regexp.MustCompile(`verify\s*=\s*False|ssl\._create_unverified_context`),
		typ:      "insecure_operation",
		title:    "SSL verification disabled",
		desc:     "Disabling certificate verification exposes traffic to interception.",
		fix:      "Enable certificate verification for all outbound connections.",
		severity: model.SeverityHigh,
	},
	{
		re:       regexp.MustCompile(`md5\(|sha1\(`),
		typ:      "insecure_operation",
		title:    "Weak cryptographic hash",
		desc:     "MD5 and SHA-1 are broken for security purposes.",
		fix:      "Use SHA-256 or stronger for anything security sensitive.",
		severity: model.SeverityMedium,
	},
}

var qualityRules = []rule{
	{
		re:       regexp.MustCompile(`except\s*:`),
		typ:      "broad_except",
		title:    "Exception handling is too broad",
		desc:     "Catching all exceptions can hide important errors.",
		fix:      "Catch specific exceptions like DatabaseError or ValueError instead of using bare except.",
		severity: model.SeverityMedium,
	},
	{
		re:       regexp.MustCompile(`print\s*\(`),
		typ:      "debug_print",
		title:    "Debug print statements",
		desc:     "Print statements should not be in production code.",
		fix:      "Use proper logging instead of print statements.",
		severity: model.SeverityLow,
	},
	{
		re:       regexp.MustCompile(`TODO|FIXME|HACK`),
		typ:      "todo_comment",
		title:    "TODO/FIXME comments found",
		desc:     "Unfinished work or technical debt indicators.",
		fix:      "Address TODO items before production deployment.",
		severity: model.SeverityLow,
	},
}

var performanceRules = []rule{
	{
		re:       regexp.MustCompile(`for.*in.*range\(len\(`),
		typ:      "inefficient_iteration",
		title:    "Inefficient iteration pattern",
		desc:     "Using range(len()) is less efficient and pythonic.",
		fix:      "Use enumerate() or iterate directly over the sequence.",
		severity: model.SeverityMedium,
	},
	{
		re:       regexp.MustCompile(`\.append\(.*for.*in`),
		typ:      "inefficient_append",
		title:    "Inefficient list building",
		desc:     "List comprehension would be more efficient.",
		fix:      "Consider using list comprehension instead of append in loop.",
		severity: model.SeverityLow,
	},
}

var defClassRe = regexp.MustCompile(`^\s*(def|class)\s+(\w+)`)

// missingDocstrings flags def and class statements whose body does not
// open with a docstring.
func missingDocstrings(lines []string) []model.Issue {
	var issues []model.Issue
	for i, line := range lines {
		m := defClassRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if hasDocstringAfter(lines, i) {
			continue
		}

		kind := "Function"
		if m[1] == "class" {
			kind = "Class"
		}
		ln := i + 1
		issues = append(issues, model.Issue{
			Type:        "missing_docstring",
			Severity:    model.SeverityLow.String(),
			Title:       "Missing docstring",
			Description: fmt.Sprintf("%s %q has no docstring.", kind, m[2]),
			LineNumber:  &ln,
			CodeSnippet: strings.TrimSpace(line),
			Explanation: "Add a docstring describing the behavior.",
		})
	}
	return issues
}

func hasDocstringAfter(lines []string, def int) bool {
	for j := def + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" {
			continue
		}
		return strings.HasPrefix(t, `"""`) || strings.HasPrefix(t, "'''")
	}
	return false
}

var (
	importLineRe = regexp.MustCompile(`^\s*import\s+(.+)$`)
	fromLineRe   = regexp.MustCompile(`^\s*from\s+[\w.]+\s+import\s+(.+)$`)
	nameRe       = regexp.MustCompile(`^\w+`)
)

// unusedImports flags imported names never referenced elsewhere in the
// file. Bound names come from the import form: the alias after "as", the
// leading module segment for dotted imports, or the imported symbol for
// from-imports.
func unusedImports(lines []string) []model.Issue {
	var issues []model.Issue
	for i, line := range lines {
		var clause string
		if m := importLineRe.FindStringSubmatch(line); m != nil {
			clause = m[1]
		} else if m := fromLineRe.FindStringSubmatch(line); m != nil {
			clause = m[1]
		} else {
			continue
		}

		for _, name := range boundNames(clause) {
			if usedOutside(lines, i, name) {
				continue
			}
			ln := i + 1
			issues = append(issues, model.Issue{
				Type:        "unused_import",
				Severity:    model.SeverityLow.String(),
				Title:       "Unused import detected",
				Description: fmt.Sprintf("Imported name %q is never used.", name),
				LineNumber:  &ln,
				CodeSnippet: strings.TrimSpace(line),
				Explanation: "Remove the unused import.",
			})
		}
	}
	return issues
}

// boundNames extracts the names an import clause binds, e.g.
// "os, sys" -> os, sys; "numpy as np" -> np; "os.path" -> os.
func boundNames(clause string) []string {
	var names []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "()"))
		if part == "" || part == "*" {
			continue
		}
		if _, alias, ok := strings.Cut(part, " as "); ok {
			part = strings.TrimSpace(alias)
		}
		if name := nameRe.FindString(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func usedOutside(lines []string, defLine int, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	for j, l := range lines {
		if j == defLine {
			continue
		}
		if re.MatchString(l) {
			return true
		}
	}
	return false
}
