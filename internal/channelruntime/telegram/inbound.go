package telegram

import (
	"strings"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/telegramapi"
)

// EventFromUpdate converts a Telegram update into an inbound event. Updates
// from channels, bots, or without a sender are skipped, as are commands
// addressed to a different bot.
func EventFromUpdate(u telegramapi.Update, botUsername, attachmentKey string) (event.Inbound, bool) {
	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return event.Inbound{}, false
	}

	in := event.Inbound{
		SenderID:       msg.From.ID,
		SenderName:     telegramapi.DisplayName(msg.From),
		SenderUsername: strings.TrimSpace(msg.From.Username),
		ChatID:         msg.Chat.ID,
		MessageID:      msg.MessageID,
	}
	switch strings.ToLower(strings.TrimSpace(msg.Chat.Type)) {
	case "private":
		in.ChatKind = event.ChatDirect
	case "group", "supergroup":
		in.ChatKind = event.ChatGroup
	default:
		return event.Inbound{}, false
	}

	if key := attachmentKeyOf(msg, attachmentKey); key != "" {
		in.Kind = event.KindAttachment
		in.AttachmentKey = key
		return in, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return event.Inbound{}, false
	}
	rawCmd, rest := splitCommand(text)
	if cmd := normalizeSlashCommand(rawCmd); cmd != "" {
		if !addressedToBot(rawCmd, botUsername) {
			return event.Inbound{}, false
		}
		in.Kind = event.KindCommand
		in.Command = strings.TrimPrefix(cmd, "/")
		in.Args = strings.Fields(rest)
		in.Text = text
		return in, true
	}
	in.Kind = event.KindText
	in.Text = text
	return in, true
}

func attachmentKeyOf(msg *telegramapi.Message, which string) string {
	if msg.Sticker != nil {
		return pickFileKey(msg.Sticker.FileID, msg.Sticker.FileUniqueID, which)
	}
	if len(msg.Photo) == 0 {
		return ""
	}
	// Telegram lists photo sizes smallest first.
	best := msg.Photo[len(msg.Photo)-1]
	for _, p := range msg.Photo {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return pickFileKey(best.FileID, best.FileUniqueID, which)
}

func pickFileKey(fileID, uniqueID, which string) string {
	fileID = strings.TrimSpace(fileID)
	uniqueID = strings.TrimSpace(uniqueID)
	if which == AttachmentKeyFileID || uniqueID == "" {
		return fileID
	}
	return uniqueID
}

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	// Allow "/cmd@BotName" variants by stripping "@...".
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	if cmd == "/" {
		return ""
	}
	return strings.ToLower(cmd)
}

func addressedToBot(rawCmd, botUsername string) bool {
	at := strings.IndexByte(rawCmd, '@')
	if at < 0 || strings.TrimSpace(botUsername) == "" {
		return true
	}
	return strings.EqualFold(rawCmd[at+1:], strings.TrimPrefix(strings.TrimSpace(botUsername), "@"))
}
