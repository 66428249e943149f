package util

import "strings"

const (
	// SeeMorePadding is the zero-width run that makes KakaoTalk fold a
	// message behind its "see more" button.
	SeeMorePadding = 500
	ZeroWidthSpace = "\u200b"
)

// ApplySeeMore puts title above a folded body. Blank text is returned
// unchanged.
func ApplySeeMore(text, title string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	title = strings.TrimSpace(title)
	body := StripLeadingHeader(text, title)

	var b strings.Builder
	b.Grow(len(title) + len(ZeroWidthSpace)*SeeMorePadding + len(body) + 1)
	b.WriteString(title)
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

// StripLeadingHeader drops header and the line breaks after it when text
// starts with it.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(header) == "" || !strings.HasPrefix(text, header) {
		return text
	}
	rest := strings.TrimPrefix(text, header)
	return strings.TrimLeft(rest, "\r\n")
}
