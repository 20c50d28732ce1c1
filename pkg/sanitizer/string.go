package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every run of Unicode whitespace,
// tabs and newlines included, into one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// Initials returns up to two upper-case initials, e.g. "Maria da Silva" -> "MD".
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		r := []rune(part)
		out = append(out, unicode.ToUpper(r[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// EscapeLike escapes the ILIKE wildcards so a search term matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
