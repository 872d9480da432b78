// Package render converts blog post records into Blowfish-themed markdown
// documents with frontmatter.
package render

import (
	"fmt"
	"strings"

	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

// summaryLength caps the number of characters lifted from the post body into
// the frontmatter summary.
const summaryLength = 100

// Markdown renders post into a markdown document: a frontmatter header
// followed by a blank line and the verbatim body.
//
// The output is byte-stable for identical input. The publisher relies on that
// to detect unchanged posts by content hash, so nothing time- or
// environment-dependent may leak into the document.
func Markdown(post store.BlogPost, authorEmail string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", post.Title)
	fmt.Fprintf(&b, "date: %s\n", post.CreatedAt.UTC().Format("2006-01-02"))
	b.WriteString("draft: false\n")
	fmt.Fprintf(&b, "summary: \"%s...\"\n", summarize(post.Content))
	b.WriteString("showAuthor: true\n")
	b.WriteString("authors:\n")
	fmt.Fprintf(&b, "  - \"%s\"\n", authorEmail)
	b.WriteString("---\n\n")
	b.WriteString(post.Content)
	b.WriteString("\n")
	return b.String()
}

// summarize lifts the leading characters of the body, drops markdown heading
// markers and line breaks, and trims the result. Empty content yields an
// empty summary.
func summarize(content string) string {
	runes := []rune(content)
	if len(runes) > summaryLength {
		runes = runes[:summaryLength]
	}
	s := strings.ReplaceAll(string(runes), "#", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
