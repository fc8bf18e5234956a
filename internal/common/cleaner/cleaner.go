package cleaner

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	lineBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
)

// Cleaner turns job page markup into plain text using Bluemonday
type Cleaner struct {
	policy *bluemonday.Policy
}

// New creates a cleaner that strips all HTML
func New() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// Text removes markup, decodes entities and normalizes whitespace.
// Line structure from <br> and </p> is kept.
func (c *Cleaner) Text(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreaks.ReplaceAllString(s, "\n")
	s = html.UnescapeString(c.policy.Sanitize(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Inline is Text collapsed onto a single line
func (c *Cleaner) Inline(s string) string {
	return strings.Join(strings.Fields(c.Text(s)), " ")
}
