package telegram

import (
	"fmt"
	"strings"
	"time"
)

// markdownV2Special lists the characters Telegram requires escaped in
// MarkdownV2 text outside of entities.
const markdownV2Special = `_*[]()~` + "`" + `>#+-=|{}.!`

// EscapeMarkdownV2 backslash-escapes MarkdownV2 special characters.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatNewsMessage renders one publishable article as MarkdownV2: the
// summary, an italic local timestamp, the article URL and the category
// hashtags. A two-level category yields one hashtag per level.
func FormatNewsMessage(ts time.Time, summary, url, category string) string {
	stamp := fmt.Sprintf("_%s_", EscapeMarkdownV2(ts.Format("2006/01/02 15:04")))

	var hashtags string
	if parent, child, ok := strings.Cut(category, "/"); ok {
		hashtags = fmt.Sprintf("\\#%s \\#%s", EscapeMarkdownV2(parent), EscapeMarkdownV2(child))
	} else {
		hashtags = fmt.Sprintf("\\#%s", EscapeMarkdownV2(category))
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s",
		EscapeMarkdownV2(summary), stamp, EscapeMarkdownV2(url), hashtags)
}
