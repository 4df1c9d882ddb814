// Package pattern normalizes raw error messages into canonical
// templates so that semantically identical errors with different
// literal values group together.
package pattern

import (
	"regexp"
	"sort"
	"strings"
)

// EmptyTemplate is the template assigned to empty or whitespace-only
// messages. Normalization is total: it never fails, whatever the input.
const EmptyTemplate = "<empty>"

// MaxExamples bounds the literal example messages kept per template
const MaxExamples = 5

// Token-class substitutions, applied in order. Quoted strings go first
// so digits inside quotes collapse into the string placeholder rather
// than a numeric one; UUID and hex classes go before plain digit runs
// so their digit segments are not consumed piecemeal.
var substitutions = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`'[^']*'`), "'S'"},
	{regexp.MustCompile(`"[^"]*"`), "'S'"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), "UUID"},
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "HEX"},
	{regexp.MustCompile(`\d+`), "N"},
}

// Normalize maps a raw message to its pattern template. The same input
// always yields the same template; case and whitespace outside the
// substituted token classes are preserved.
func Normalize(message string) string {
	if strings.TrimSpace(message) == "" {
		return EmptyTemplate
	}

	out := message
	for _, sub := range substitutions {
		out = sub.re.ReplaceAllString(out, sub.placeholder)
	}
	return out
}

// Group is one normalized template with its occurrence count and a
// bounded sample of the literal messages that produced it.
type Group struct {
	Template string
	Count    int
	Examples []string
}

// GroupMessages normalizes each message and groups by template,
// retaining up to MaxExamples distinct literal examples per template.
// Output is ordered by count descending, ties broken by template
// ascending so results are deterministic.
func GroupMessages(messages []string) []Group {
	type bucket struct {
		count    int
		examples []string
		seen     map[string]bool
	}

	buckets := make(map[string]*bucket)
	for _, m := range messages {
		tmpl := Normalize(m)
		b, ok := buckets[tmpl]
		if !ok {
			b = &bucket{seen: make(map[string]bool)}
			buckets[tmpl] = b
		}
		b.count++
		if len(b.examples) < MaxExamples && !b.seen[m] {
			b.examples = append(b.examples, m)
			b.seen[m] = true
		}
	}

	groups := make([]Group, 0, len(buckets))
	for tmpl, b := range buckets {
		groups = append(groups, Group{
			Template: tmpl,
			Count:    b.count,
			Examples: b.examples,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Template < groups[j].Template
	})

	return groups
}
