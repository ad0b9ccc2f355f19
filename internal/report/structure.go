// Package report inspects compiled report markdown.
package report

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// StandardSections returns the section headings a finished report carries,
// in document order.
func StandardSections() []string {
	return []string{"公司概览", "行业概览", "财务概览", "新闻", "参考资料"}
}

// SectionHeadings returns the text of every level-2 heading in doc, in
// document order.
func SectionHeadings(doc string) []string {
	root := parser.New().Parse([]byte(doc))

	var headings []string
	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		if h, ok := node.(*ast.Heading); ok && entering && h.Level == 2 {
			headings = append(headings, headingText(h))
		}
		return ast.GoToNext
	})
	return headings
}

// Title returns the text of the first level-1 heading, or "" if there is
// none.
func Title(doc string) string {
	root := parser.New().Parse([]byte(doc))

	title := ""
	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		if h, ok := node.(*ast.Heading); ok && entering && h.Level == 1 && title == "" {
			title = headingText(h)
			return ast.Terminate
		}
		return ast.GoToNext
	})
	return title
}

// HasSkeleton reports whether doc's level-2 headings are exactly the
// standard sections, in order. Reports missing sections (e.g. a placeholder
// report) fail this check.
func HasSkeleton(doc string) bool {
	got := SectionHeadings(doc)
	want := StandardSections()
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func headingText(h *ast.Heading) string {
	var b strings.Builder
	ast.WalkFunc(h, func(node ast.Node, entering bool) ast.WalkStatus {
		if t, ok := node.(*ast.Text); ok && entering {
			b.Write(t.Literal)
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}
