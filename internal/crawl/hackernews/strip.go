package hackernews

import (
	"strings"

	"golang.org/x/net/html"
)

// stripHTML reduces comment markup to plain text. Paragraph breaks
// become single spaces; entities are decoded by the tokenizer.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		if tt == html.TextToken {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}

			b.Write(tokenizer.Text())
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
