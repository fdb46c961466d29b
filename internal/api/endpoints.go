package api

import (
	"net/url"
	"strings"
)

// Path joins segments into a request path, escaping each one.
// Path("contacts", "a/b") returns "/contacts/a%2Fb".
func Path(segments ...string) string {
	var b strings.Builder
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
