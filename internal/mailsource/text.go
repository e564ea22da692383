package mailsource

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "..."

// Truncate shortens text to at most limit runes, appending "..." when it cuts.
// A non-positive limit disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + ellipsis
}

// HTMLToText strips markup and returns the visible text with whitespace
// collapsed. Script and style content is dropped.
func HTMLToText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return collapseWhitespace(markup)
	}
	doc.Find("script, style, noscript, head").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
