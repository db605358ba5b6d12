package posts

import (
	"regexp"
	"strings"
)

const excerptLength = 200

var (
	codeFenceRegex  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRegex = regexp.MustCompile("`([^`]*)`")
	imageRegex      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRegex       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRegex    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	quoteRegex      = regexp.MustCompile(`(?m)^>\s?`)
	emphasisRegex   = regexp.MustCompile(`[*_~]{1,3}`)
	spaceRegex      = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text preview from a markdown body: roughly the
// first 200 characters with markup stripped, cut at a word boundary.
func Excerpt(markdown string) string {
	text := codeFenceRegex.ReplaceAllString(markdown, " ")
	text = imageRegex.ReplaceAllString(text, "")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = headingRegex.ReplaceAllString(text, "")
	text = quoteRegex.ReplaceAllString(text, "")
	text = emphasisRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}

	cut := string(runes[:excerptLength])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
