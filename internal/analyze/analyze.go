// Package analyze implements the pattern-based analysis agents that scan
// submitted code and report issues with fix guidance.
package analyze

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

// rule matches one line-level problem.
type rule struct {
	re       *regexp.Regexp
	typ      string
	title    string
	desc     string
	fix      string
	severity model.Severity
	secret   bool // secret rules skip comments and placeholder values
}

// check is a whole-file scan for problems a single-line rule cannot see.
type check func(lines []string) []model.Issue

// Agent is one analysis pass with its own rule set, reported under its
// display name in analyzed_by.
type Agent struct {
	Name   string
	Key    string
	rules  []rule
	checks []check
}

// Agents returns the analysis agents in the order they run.
func Agents() []Agent {
	return []Agent{
		{Name: "Code Quality Analyzer", Key: "code_analyzer", rules: qualityRules, checks: []check{missingDocstrings, unusedImports}},
		{Name: "Security Vulnerability Scanner", Key: "security_agent", rules: securityRules},
		{Name: "Performance Optimizer", Key: "performance_agent", rules: performanceRules},
	}
}

// AgentByKey looks up an agent by its stable key.
func AgentByKey(key string) (Agent, bool) {
	for _, a := range Agents() {
		if a.Key == key {
			return a, true
		}
	}
	return Agent{}, false
}

var placeholderRe = regexp.MustCompile(`(?i)(example|placeholder|your[_-]|xxx|<.*>)`)

// Analyze scans the code with the agent's rules and checks. Issue IDs
// are sequential per agent.
func (a Agent) Analyze(code string) []model.Issue {
	lines := strings.Split(code, "\n")

	var issues []model.Issue
	seq := 0
	nextID := func() string {
		seq++
		return fmt.Sprintf("%s_%d", a.Key, seq)
	}

	for i, line := range lines {
		for _, r := range a.rules {
			if !r.re.MatchString(line) {
				continue
			}
			if r.secret && (isComment(line) || placeholderRe.MatchString(line)) {
				continue
			}
			ln := i + 1
			issues = append(issues, model.Issue{
				ID:          nextID(),
				Type:        r.typ,
				Severity:    r.severity.String(),
				Title:       r.title,
				Description: r.desc,
				LineNumber:  &ln,
				CodeSnippet: snippet(line, r.secret),
				Explanation: r.fix,
				Agent:       a.Name,
			})
		}
	}

	for _, c := range a.checks {
		for _, issue := range c(lines) {
			issue.ID = nextID()
			issue.Agent = a.Name
			issues = append(issues, issue)
		}
	}
	return issues
}

func isComment(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//")
}

// snippet trims the matched line; secret matches are also truncated so
// credential values do not travel in full.
func snippet(line string, secret bool) string {
	t := strings.TrimSpace(line)
	if secret {
		if r := []rune(t); len(r) > 50 {
			return string(r[:50]) + "..."
		}
	}
	return t
}
