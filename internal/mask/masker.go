package mask

import (
	"regexp"
	"strings"
)

// markerPattern matches one placeholder marker inside a masked line or a
// template token, e.g. "<PATH>" or "<*>".
var markerPattern = regexp.MustCompile(`<[^<>]*>`)

// Rule is one recognized parameter class: every match of Pattern is replaced
// by the class marker "<NAME>". Rules are applied in declaration order, so
// earlier rules win overlapping matches.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// Marker returns the placeholder marker substituted for matches of this rule.
func (r Rule) Marker() string {
	return "<" + strings.ToUpper(r.Name) + ">"
}

// DefaultRules returns the built-in parameter classes in priority order.
// Timestamps and compound forms come before the digit run so they are not
// shredded into bare numbers.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "TIMESTAMP", Pattern: `\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`},
		{Name: "UUID", Pattern: `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`},
		{Name: "IP", Pattern: `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?`},
		{Name: "HEX", Pattern: `0x[0-9a-fA-F]+`},
		{Name: "PATH", Pattern: `(?:/[A-Za-z0-9._\-]+)+/?`},
		{Name: "DIGITS", Pattern: `\d+`},
	}
}

// Masker rewrites raw log lines into their canonical masked form. It holds no
// per-line state: every Mask call returns a fresh catalogue, which downstream
// alignment consumes destructively.
type Masker struct {
	rules []Rule
}

// New returns a Masker with the built-in rules.
func New() *Masker {
	m, err := NewWithRules(DefaultRules())
	if err != nil {
		// Built-in patterns are compile-tested; this cannot happen.
		panic(err)
	}
	return m
}

// NewWithRules compiles the given rules into a Masker, preserving order.
func NewWithRules(rules []Rule) (*Masker, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		r.re = re
		compiled = append(compiled, r)
	}
	return &Masker{rules: compiled}, nil
}

// Mask replaces every recognized variable substring with its class marker and
// records the removed substrings per class, in left-to-right order. It never
// fails: anything no rule recognizes stays literal text.
func (m *Masker) Mask(line string) (string, *Catalogue) {
	cat := NewCatalogue()
	masked := line
	for _, rule := range m.rules {
		marker := rule.Marker()
		masked = rule.re.ReplaceAllStringFunc(masked, func(match string) string {
			cat.Append(marker, match)
			return marker
		})
	}
	return masked, cat
}

// Unmask replays the catalogue back onto a masked line, consuming one queued
// value per marker in left-to-right order. Markers with no remaining value
// are left in place.
func Unmask(masked string, cat *Catalogue) string {
	return markerPattern.ReplaceAllStringFunc(masked, func(marker string) string {
		if v, ok := cat.Pop(marker); ok {
			return v
		}
		return marker
	})
}
