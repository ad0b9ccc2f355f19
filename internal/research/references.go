package research

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanTitle normalizes a document title: collapses internal whitespace and
// strips surrounding quotes and markdown emphasis markers.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	t = whitespaceRe.ReplaceAllString(t, " ")
	t = strings.Trim(t, `"'`)
	t = strings.Trim(t, "*_")
	return strings.TrimSpace(t)
}

// displayTitle returns a readable title for a reference, falling back to the
// URL's host and path when the curated title is empty.
func displayTitle(ref Reference) string {
	if ref.Title != "" {
		return ref.Title
	}
	t := strings.TrimPrefix(ref.URL, "https://")
	t = strings.TrimPrefix(t, "http://")
	t = strings.TrimPrefix(t, "www.")
	return strings.TrimSuffix(t, "/")
}

// FormatReferences renders the fixed references section. It returns an empty
// string when there is nothing to cite, so callers can append it
// unconditionally.
func FormatReferences(refs []Reference) string {
	if len(refs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## 参考资料\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "\n* [%s](%s)", displayTitle(ref), ref.URL)
	}
	return b.String()
}
