package responder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/conversation"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

type command struct {
	privileged bool
	run        func(ctx context.Context, req request) ([]event.Reply, error)
}

func (r *Responder) commandTable() map[string]command {
	return map[string]command{
		"start":    {run: r.cmdStart},
		"help":     {run: r.cmdHelp},
		"stats":    {run: r.cmdStats},
		"list":     {run: r.cmdList},
		"search":   {run: r.cmdSearch},
		"myinfo":   {run: r.cmdMyInfo},
		"settings": {run: r.cmdSettings},
		"cancel":   {run: r.cmdCancel},
		"users":    {privileged: true, run: r.cmdUsers},
		"backup":   {privileged: true, run: r.cmdBackup},
		"ss":       {privileged: true, run: r.cmdBeginImage},
		"st":       {privileged: true, run: r.cmdBeginText},
		"del":      {privileged: true, run: r.cmdDelete},
		"delnum":   {privileged: true, run: r.cmdDeleteNumber},
	}
}

func (r *Responder) dispatchCommand(ctx context.Context, req request) ([]event.Reply, error) {
	cmd, ok := r.commands[req.in.Command]
	if !ok {
		r.logger.Debug("responder_unknown_command", "command", req.in.Command, "sender_id", req.in.SenderID)
		return nil, nil
	}
	if cmd.privileged && !req.privileged {
		r.logger.Info("responder_command_denied", "command", req.in.Command, "sender_id", req.in.SenderID, "chat_id", req.in.ChatID)
		return reply(msgAdminOnly), nil
	}
	return cmd.run(ctx, req)
}

func reply(text string) []event.Reply {
	return []event.Reply{event.Text(text)}
}

func (r *Responder) cmdBeginImage(_ context.Context, req request) ([]event.Reply, error) {
	return r.renderConversation(r.engine.BeginImage(req.in.SenderID, req.privileged)), nil
}

func (r *Responder) cmdBeginText(_ context.Context, req request) ([]event.Reply, error) {
	return r.renderConversation(r.engine.BeginText(req.in.SenderID, req.privileged, req.in.ArgText())), nil
}

func (r *Responder) cmdCancel(_ context.Context, req request) ([]event.Reply, error) {
	return r.renderConversation(r.engine.Cancel(req.in.SenderID)), nil
}

func (r *Responder) cmdDelete(_ context.Context, req request) ([]event.Reply, error) {
	return r.renderConversation(r.engine.ListForDeletion(req.in.SenderID, req.privileged)), nil
}

func (r *Responder) cmdDeleteNumber(ctx context.Context, req request) ([]event.Reply, error) {
	arg := ""
	if len(req.in.Args) > 0 {
		arg = req.in.Args[0]
	}
	result, err := r.engine.DeleteOrdinal(ctx, req.in.SenderID, req.privileged, arg)
	if err != nil {
		return nil, err
	}
	return r.renderConversation(result), nil
}

// renderConversation turns a dialogue result into messages.
func (r *Responder) renderConversation(res conversation.Result) []event.Reply {
	var out []event.Reply
	if res.Discarded.Active() && res.Step != conversation.StepCancelled {
		out = append(out, event.Text(msgDiscarded))
	}
	switch res.Step {
	case conversation.StepAskImage:
		out = append(out, event.Text(msgAskImage))
	case conversation.StepAskAliases:
		out = append(out, event.Text(msgAskAliases))
	case conversation.StepAskReply:
		if res.Flow == triggers.KindText {
			out = append(out, event.Text(fmt.Sprintf(msgAskTextReply, strings.Join(res.Aliases, ", "))))
		} else {
			out = append(out, event.Text(msgAskImageReply))
		}
	case conversation.StepImageSaved:
		out = append(out, event.Text(fmt.Sprintf(msgImageSaved, res.TriggerID, strings.Join(res.Aliases, ", "), preview(res.Reply, 50))))
	case conversation.StepTextSaved:
		out = append(out, renderTextSaved(res))
	case conversation.StepListed:
		out = append(out, renderDeleteList(res.Items))
	case conversation.StepDeleted:
		out = append(out, event.Text(fmt.Sprintf(msgDeleted, itemLabel(res.Deleted))))
	case conversation.StepCancelled:
		out = append(out, event.Text(msgCancelled))
	case conversation.StepIdle:
		out = append(out, event.Text(msgNothingPending))
	case conversation.StepDenied:
		out = append(out, event.Text(msgAdminOnly))
	case conversation.StepStaleListing:
		out = append(out, event.Text(msgDeleteStale))
	case conversation.StepNotFound:
		out = append(out, event.Text(fmt.Sprintf(msgDeleteNotFound, res.Deleted.Ordinal)))
	case conversation.StepInvalid:
		out = append(out, event.Text(hintText(res)))
	}
	return out
}

func renderTextSaved(res conversation.Result) event.Reply {
	if !res.Text.AnyAdded() {
		return event.Text(msgTextNoneAdded)
	}
	text := fmt.Sprintf(msgTextSaved, strings.Join(res.Text.Added, ", "), preview(res.Reply, 50))
	if len(res.Text.Skipped) > 0 {
		text += "\n\n" + fmt.Sprintf(msgTextSkipped, strings.Join(res.Text.Skipped, ", "))
	}
	return event.Text(text)
}

func renderDeleteList(items []triggers.DeletableItem) event.Reply {
	if len(items) == 0 {
		return event.Text(msgDeleteEmpty)
	}
	var t event.RichText
	t.Bold(msgDeleteHeader)
	t.Printf("\n\n")
	for _, item := range items {
		t.Printf("%d. %s\n", item.Ordinal, itemLabel(item))
	}
	t.Printf("\n📝 للحذف اكتب: ")
	t.Code("/delnum <الرقم>")
	t.Printf("\nمثال: ")
	t.Code("/delnum 1")
	return t.Reply()
}

func itemLabel(item triggers.DeletableItem) string {
	if item.Kind == triggers.KindImage {
		return labelImage + item.Label
	}
	return labelText + item.Label
}

func hintText(res conversation.Result) string {
	switch res.Hint {
	case conversation.HintEmptyAliases:
		if res.Flow == triggers.KindText {
			return msgEmptyAliases + "\n" + msgTextUsage
		}
		return msgEmptyAliases
	case conversation.HintEmptyReply:
		return msgEmptyReply
	case conversation.HintNoListing:
		return msgDeleteNoList
	case conversation.HintOrdinalNotNumber:
		return msgDeleteNotInt
	case conversation.HintOrdinalRange:
		return fmt.Sprintf(msgDeleteRange, res.MaxOrdinal)
	}
	return msgGenericError
}

// preview shortens s to at most n runes.
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func onOff(v bool) string {
	if v {
		return msgOn
	}
	return msgOff
}

func (r *Responder) cmdStart(_ context.Context, req request) ([]event.Reply, error) {
	name := strings.TrimSpace(req.in.SenderName)
	if name == "" {
		name = "صديقي"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👋 أهلاً %s!\n\n", name)
	fmt.Fprintf(&b, "🤖 أنا %s، أرد تلقائياً على الملصقات والكلمات المحفوظة.\n\n", r.botName())
	b.WriteString("📚 اكتب /help لعرض الأوامر المتاحة.")
	return reply(b.String()), nil
}

func (r *Responder) cmdHelp(_ context.Context, req request) ([]event.Reply, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 أوامر %s\n\n", r.botName())
	b.WriteString("👤 أوامر عامة:\n")
	b.WriteString("/start - رسالة الترحيب\n")
	b.WriteString("/help - عرض هذه القائمة\n")
	b.WriteString("/list [الصفحة] - عرض الردود المحفوظة\n")
	b.WriteString("/search كلمة - البحث في الردود\n")
	b.WriteString("/stats - الإحصائيات\n")
	b.WriteString("/myinfo - معلوماتك\n")
	b.WriteString("/settings - الإعدادات الحالية\n")
	if req.privileged {
		b.WriteString("\n👑 أوامر المشرفين:\n")
		b.WriteString("/ss - حفظ رد لملصق\n")
		b.WriteString("/st كلمة1,كلمة2 - حفظ رد نصي\n")
		b.WriteString("/del - عرض العناصر للحذف\n")
		b.WriteString("/delnum رقم - حذف عنصر\n")
		b.WriteString("/users - أكثر المستخدمين نشاطاً\n")
		b.WriteString("/backup - إنشاء نسخة احتياطية\n")
		b.WriteString("/cancel - إلغاء العملية الجارية\n")
	}
	return reply(b.String()), nil
}

func (r *Responder) cmdStats(_ context.Context, _ request) ([]event.Reply, error) {
	sum := r.reporter.Summary(r.now())
	var t event.RichText
	t.Bold("📊 إحصائيات البوت")
	t.Printf("\n\n")
	t.Printf("🕒 بدأ العمل: %s\n", sum.StartTime.Format(r.cfg.DateFormat))
	t.Printf("📅 عدد الأيام: %d\n", sum.UptimeDays)
	t.Printf("📈 المعدل اليومي: %.1f\n\n", sum.AvgFiresPerDay)
	t.Printf("🎨 ردود الملصقات: %d\n", sum.TotalImageTriggers)
	t.Printf("📝 الردود النصية: %d\n", sum.TotalTextTriggers)
	t.Printf("👥 المستخدمون: %d\n", sum.TotalSenders)
	t.Printf("🔥 إجمالي الردود: %d\n\n", sum.TotalFires)
	t.Printf("📆 اليوم: %d ملصق، %d نص\n", sum.Today.ImageFires, sum.Today.TextFires)
	if len(sum.TopSenders) > 0 {
		t.Printf("\n")
		t.Bold("🏆 أكثر المستخدمين نشاطاً:")
		t.Printf("\n")
		for i, p := range sum.TopSenders {
			t.Printf("%d. %s: %d\n", i+1, senderLabel(p), p.UsageCount)
		}
	}
	return []event.Reply{t.Reply()}, nil
}

func (r *Responder) cmdList(_ context.Context, req request) ([]event.Reply, error) {
	page := 1
	if len(req.in.Args) > 0 {
		if n, err := strconv.Atoi(req.in.Args[0]); err == nil {
			page = n
		}
	}
	res := r.reporter.List(page)
	if res.Total == 0 {
		return reply(msgListEmpty), nil
	}
	var t event.RichText
	t.Bold(fmt.Sprintf("📋 الردود المحفوظة (صفحة %d من %d، المجموع %d)", res.Page, res.Pages, res.Total))
	t.Printf("\n\n")
	offset := (res.Page - 1) * r.reporter.PageSize()
	for i, e := range res.Entries {
		t.Printf("%d. %s\n", offset+i+1, entryLine(e))
	}
	if res.Page < res.Pages {
		t.Printf("\n➡️ الصفحة التالية: ")
		t.Code(fmt.Sprintf("/list %d", res.Page+1))
	}
	return []event.Reply{t.Reply()}, nil
}

func (r *Responder) cmdSearch(_ context.Context, req request) ([]event.Reply, error) {
	query := req.in.ArgText()
	if query == "" {
		return reply(msgSearchUsage), nil
	}
	entries := r.reporter.Search(query)
	if len(entries) == 0 {
		return reply(fmt.Sprintf(msgSearchNone, query)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 نتائج البحث عن \"%s\" (%d):\n\n", query, len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entryLine(e))
	}
	return reply(b.String()), nil
}

func entryLine(e stats.Entry) string {
	icon := "📝"
	if e.Kind == triggers.KindImage {
		icon = "🎨"
	}
	return fmt.Sprintf("%s %s → %s", icon, strings.Join(e.Aliases, ", "), preview(e.Reply, 30))
}

func (r *Responder) cmdMyInfo(_ context.Context, req request) ([]event.Reply, error) {
	p := req.profile
	role := msgRoleUser
	if req.privileged {
		role = msgRoleAdmin
	}
	username := "لا يوجد"
	if p.Username != "" {
		username = "@" + p.Username
	}
	var b strings.Builder
	b.WriteString("👤 معلوماتك\n\n")
	fmt.Fprintf(&b, "🆔 المعرف: %d\n", p.ID)
	fmt.Fprintf(&b, "📛 الاسم: %s\n", p.DisplayName)
	fmt.Fprintf(&b, "🔗 اسم المستخدم: %s\n", username)
	fmt.Fprintf(&b, "📅 تاريخ الانضمام: %s\n", p.JoinedAt.Format(r.cfg.DateFormat))
	fmt.Fprintf(&b, "🔥 مرات الاستخدام: %d\n", p.UsageCount)
	fmt.Fprintf(&b, "🎨 الملصقات المحفوظة: %d\n", p.TriggersAuthoredImage)
	fmt.Fprintf(&b, "📝 النصوص المحفوظة: %d\n", p.TriggersAuthoredText)
	fmt.Fprintf(&b, "⭐ الحالة: %s", role)
	return reply(b.String()), nil
}

func (r *Responder) cmdSettings(_ context.Context, _ request) ([]event.Reply, error) {
	sum := r.reporter.Summary(r.now())
	var b strings.Builder
	b.WriteString("⚙️ الإعدادات الحالية\n\n")
	fmt.Fprintf(&b, "🤖 الردود التلقائية: %s\n", onOff(r.cfg.RepliesEnabled))
	fmt.Fprintf(&b, "🎨 ردود الملصقات: %s\n", onOff(r.cfg.ImageReplies))
	fmt.Fprintf(&b, "📝 الردود النصية: %s\n", onOff(r.cfg.TextReplies))
	fmt.Fprintf(&b, "🔎 المطابقة التقريبية: %s\n", onOff(r.cfg.Fuzzy))
	fmt.Fprintf(&b, "👑 الردود للمشرفين فقط: %s\n", onOff(r.cfg.PrivilegedOnly))
	fmt.Fprintf(&b, "🛡️ مشرفو المجموعات: %s\n", onOff(r.cfg.GroupAdmins))
	fmt.Fprintf(&b, "⏱️ تأخير الرد: %s\n", r.cfg.ReplyDelay)
	fmt.Fprintf(&b, "📋 عناصر الصفحة: %d\n", r.cfg.PageSize)
	fmt.Fprintf(&b, "🔍 نتائج البحث: %d\n\n", r.cfg.MaxResults)
	b.WriteString("💾 التخزين:\n")
	fmt.Fprintf(&b, "🎨 %d ملصق، 📝 %d نص، 👥 %d مستخدم", sum.TotalImageTriggers, sum.TotalTextTriggers, sum.TotalSenders)
	return reply(b.String()), nil
}

func (r *Responder) cmdUsers(_ context.Context, _ request) ([]event.Reply, error) {
	top := r.reporter.TopSenders(r.cfg.UsersLimit)
	if len(top) == 0 {
		return reply("👥 لا يوجد مستخدمون بعد"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👥 أكثر %d مستخدمين نشاطاً:\n\n", len(top))
	for i, p := range top {
		fmt.Fprintf(&b, "%d. %s: %d استخدام\n", i+1, senderLabel(p), p.UsageCount)
	}
	return reply(b.String()), nil
}

func senderLabel(p triggers.SenderProfile) string {
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = strconv.FormatInt(p.ID, 10)
	}
	if p.Username != "" {
		return fmt.Sprintf("%s (@%s)", name, p.Username)
	}
	return name
}

func (r *Responder) cmdBackup(ctx context.Context, req request) ([]event.Reply, error) {
	if r.backup == nil {
		return reply(msgBackupOff), nil
	}
	res, err := r.backup.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		r.logger.Error("responder_backup_failed", "sender_id", req.in.SenderID, "error", err.Error())
		return reply(msgBackupFail), nil
	}
	return reply(fmt.Sprintf(msgBackupDone, res.Dir, res.Manifest.CreatedAt.Format(r.cfg.DateFormat), res.Copied())), nil
}

func (r *Responder) botName() string {
	if strings.TrimSpace(r.cfg.BotName) == "" {
		return "البوت"
	}
	return r.cfg.BotName
}
