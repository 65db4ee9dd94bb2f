// Package event holds the transport-neutral shapes exchanged between the
// chat runtime and the responder core.
package event

import "strings"

type ChatKind string

const (
	ChatDirect ChatKind = "direct"
	ChatGroup  ChatKind = "group"
)

type Kind string

const (
	KindText       Kind = "text"
	KindAttachment Kind = "attachment"
	KindCommand    Kind = "command"
)

// Inbound is one already-parsed message delivered to the responder.
type Inbound struct {
	SenderID       int64
	SenderName     string
	SenderUsername string
	ChatID         int64
	ChatKind       ChatKind
	MessageID      int64
	Kind           Kind

	Text          string
	AttachmentKey string
	Command       string
	Args          []string
}

func (in Inbound) IsGroup() bool {
	return in.ChatKind == ChatGroup
}

// ArgText joins the command arguments back into one string.
func (in Inbound) ArgText() string {
	return strings.TrimSpace(strings.Join(in.Args, " "))
}

// Reply is one outgoing message. An empty Text means nothing is sent.
// Markdown, when set, is a MarkdownV2 rendering of Text that transports
// prefer; Text remains the fallback.
type Reply struct {
	Text           string
	Markdown       string
	DisablePreview bool
	ReplyTo        int64
}

func Text(text string) Reply {
	return Reply{Text: text, DisablePreview: true}
}

func (r Reply) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}
