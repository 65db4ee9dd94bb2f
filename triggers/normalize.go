package triggers

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize is the key form of an alias or message: NFC, trimmed and
// lower-cased.
func Normalize(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	// cases.Caser keeps state and is not safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}

// CleanAliases trims every alias and drops empty ones, preserving order.
func CleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		out = append(out, alias)
	}
	return out
}

// SplitAliases parses a comma separated alias list. Both the ASCII and the
// Arabic comma separate entries.
func SplitAliases(raw string) []string {
	raw = strings.ReplaceAll(raw, "،", ",")
	return CleanAliases(strings.Split(raw, ","))
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
