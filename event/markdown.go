package event

import (
	"fmt"
	"strings"
)

var markdownV2Escapes = map[rune]bool{
	'\\': true,
	'_':  true,
	'*':  true,
	'[':  true,
	']':  true,
	'(':  true,
	')':  true,
	'~':  true,
	'`':  true,
	'>':  true,
	'#':  true,
	'+':  true,
	'-':  true,
	'=':  true,
	'|':  true,
	'{':  true,
	'}':  true,
	'.':  true,
	'!':  true,
}

// EscapeMarkdownV2 escapes every character MarkdownV2 reserves, so text
// renders literally.
func EscapeMarkdownV2(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		if markdownV2Escapes[r] {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RichText builds a reply's plain text and its MarkdownV2 rendering side by
// side. Dynamic values go through Printf and are escaped; only Bold and Code
// add markup.
type RichText struct {
	plain strings.Builder
	md    strings.Builder
}

func (t *RichText) Printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	t.plain.WriteString(s)
	t.md.WriteString(EscapeMarkdownV2(s))
}

// Bold appends s, emphasized in the MarkdownV2 rendering. s must not span
// lines.
func (t *RichText) Bold(s string) {
	t.plain.WriteString(s)
	if strings.TrimSpace(s) == "" {
		t.md.WriteString(s)
		return
	}
	t.md.WriteString("*" + EscapeMarkdownV2(s) + "*")
}

// Code appends s as inline code, such as a command to type.
func (t *RichText) Code(s string) {
	t.plain.WriteString(s)
	if strings.TrimSpace(s) == "" {
		t.md.WriteString(s)
		return
	}
	// Inside code spans only the backtick and backslash are reserved.
	esc := strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(s)
	t.md.WriteString("`" + esc + "`")
}

// Reply returns the finished message with link previews disabled.
func (t *RichText) Reply() Reply {
	return Reply{Text: t.plain.String(), Markdown: t.md.String(), DisablePreview: true}
}
