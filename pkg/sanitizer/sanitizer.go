package sanitizer

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// SanitizeSearchTerm prepares free text for an ILIKE '%term%' lookup.
func SanitizeSearchTerm(term string) string {
	return Pipeline{TrimAndNormalize, EscapeLike}.Apply(term)
}

// SanitizeCompanyName keeps the clinic's own casing and only tidies whitespace.
func SanitizeCompanyName(name string) string {
	return Pipeline{TrimAndNormalize}.Apply(name)
}
