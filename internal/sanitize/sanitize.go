// Package sanitize derives database-safe identifiers from arbitrary
// human-readable layer and field labels.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLen matches the common relational identifier limit.
const DefaultMaxLen = 63

// Convention selects how sanitized words are joined.
type Convention int

const (
	// Snake joins words lowercased with underscores: "uso_do_solo_2024".
	Snake Convention = iota
	// Camel joins words in lower camel case: "usoDoSolo2024".
	Camel
)

// String returns the configuration-facing name of the convention.
func (c Convention) String() string {
	if c == Camel {
		return "camel"
	}
	return "snake"
}

// fallback is the identifier used when the input yields no words at all.
func (c Convention) fallback() string {
	if c == Camel {
		return "semNome"
	}
	return "sem_nome"
}

// Options controls a single sanitization.
type Options struct {
	Convention Convention
	Prefix     string // prepended unless the result already starts with it
	MaxLen     int    // 0 means DefaultMaxLen
}

// Identifier converts raw into a safe identifier: diacritics stripped, runs of
// non-alphanumerics collapsed, words joined per the convention, optional
// prefix, truncated to MaxLen. It never fails and never returns an empty
// string. Truncation happens last, so it can cut into the prefix or a
// disambiguation suffix.
func Identifier(raw string, opts Options) string {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	words := splitWords(stripDiacritics(raw))
	var name string
	if len(words) == 0 {
		name = opts.Convention.fallback()
		if opts.Prefix != "" {
			name = opts.Prefix + name
		}
		return truncate(name, maxLen)
	}

	switch opts.Convention {
	case Camel:
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			b.WriteString(capitalize(w))
		}
		name = b.String()
	default:
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		name = strings.Join(words, "_")
	}

	if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix) {
		name = opts.Prefix + name
	}
	return truncate(name, maxLen)
}

// stripDiacritics removes combining marks after canonical decomposition,
// keeping the base letters ("Área" -> "Area").
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitWords breaks s on maximal runs of characters that are not ASCII
// letters or digits.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isASCIIAlnum(r)
	})
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// capitalize uppercases the first letter and lowercases the rest.
func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
