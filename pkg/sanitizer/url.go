package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeURL enforces https, lowercases the host, drops a leading "www."
// and utm_* parameters. Paths keep their case since storage keys are
// case-sensitive. Unparseable input returns "".
func SanitizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"):
		s = s[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		s = s[len("http://"):]
	}
	s = "https://" + s

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Host = strings.ToLower(u.Host)
	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	qClean := url.Values{}
	for k, v := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			continue
		}
		for _, val := range v {
			if val = strings.TrimSpace(val); val != "" {
				qClean.Add(k, val)
			}
		}
	}
	u.RawQuery = qClean.Encode()

	return u.String()
}
