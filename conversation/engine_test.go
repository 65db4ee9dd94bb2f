package conversation

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/matcher"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

const (
	admin    int64 = 100
	stranger int64 = 200
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setup(t *testing.T) (*Engine, *triggers.FileStore, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := triggers.NewFileStore(t.TempDir(), triggers.Options{Now: c.Now, Logger: logger})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, obs := range []triggers.Observation{
		{ID: admin, DisplayName: "admin", Privileged: true},
		{ID: stranger, DisplayName: "guest"},
	} {
		if _, err := store.UpsertSender(context.Background(), obs); err != nil {
			t.Fatalf("UpsertSender(%d) error = %v", obs.ID, err)
		}
	}
	return New(store, Options{IdleTimeout: 10 * time.Minute, Now: c.Now, Logger: logger}), store, c
}

func text(sender int64, body string) event.Inbound {
	return event.Inbound{SenderID: sender, Kind: event.KindText, Text: body}
}

func sticker(sender int64, key string) event.Inbound {
	return event.Inbound{SenderID: sender, Kind: event.KindAttachment, AttachmentKey: key}
}

// mustHandle feeds in and fails unless the engine consumed it.
func mustHandle(t *testing.T, engine *Engine, in event.Inbound) Result {
	t.Helper()
	res, consumed, err := engine.HandleInput(context.Background(), in)
	if err != nil {
		t.Fatalf("HandleInput(%+v) error = %v", in, err)
	}
	if !consumed {
		t.Fatalf("HandleInput(%+v) consumed = false, want true", in)
	}
	return res
}

func mustDelete(t *testing.T, engine *Engine, arg string) Result {
	t.Helper()
	res, err := engine.DeleteOrdinal(context.Background(), admin, true, arg)
	if err != nil {
		t.Fatalf("DeleteOrdinal(%q) error = %v", arg, err)
	}
	return res
}

func TestImageFlowScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store, _ := setup(t)

	if res := engine.BeginImage(admin, true); res.Step != StepAskImage {
		t.Fatalf("BeginImage() step = %v, want %v", res.Step, StepAskImage)
	}
	if got := engine.Mode(admin); got != ModeAwaitingImage {
		t.Fatalf("Mode() = %v, want %v", got, ModeAwaitingImage)
	}

	if res := mustHandle(t, engine, sticker(admin, "K1")); res.Step != StepAskAliases {
		t.Fatalf("sticker step = %v, want %v", res.Step, StepAskAliases)
	}

	res := mustHandle(t, engine, text(admin, "عين,عينك"))
	if res.Step != StepAskReply || !reflect.DeepEqual(res.Aliases, []string{"عين", "عينك"}) {
		t.Fatalf("aliases result = %+v, want ask reply with [عين عينك]", res)
	}

	res = mustHandle(t, engine, text(admin, "جميلة"))
	if res.Step != StepImageSaved || res.TriggerID == "" {
		t.Fatalf("reply result = %+v, want image saved with an id", res)
	}
	if got := engine.Mode(admin); got != ModeNone {
		t.Fatalf("Mode() after save = %v, want none", got)
	}

	m := matcher.New(store, matcher.Options{})
	match, ok, err := m.MatchImage(ctx, admin, "K1")
	if err != nil || !ok || match.Reply != "جميلة" {
		t.Fatalf("MatchImage(K1) = (%+v, %v, %v), want reply جميلة", match, ok, err)
	}
	if got := store.Snapshot().Senders[0].TriggersAuthoredImage; got != 1 {
		t.Fatalf("TriggersAuthoredImage = %d, want 1", got)
	}
}

func TestTextFlowScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store, _ := setup(t)
	m := matcher.New(store, matcher.Options{Fuzzy: true})

	res := engine.BeginText(admin, true, "تحيه, سلام")
	if res.Step != StepAskReply || !reflect.DeepEqual(res.Aliases, []string{"تحيه", "سلام"}) {
		t.Fatalf("BeginText() = %+v, want ask reply with [تحيه سلام]", res)
	}

	if _, ok, err := m.MatchText(ctx, admin, "تحيه"); err != nil || ok {
		t.Fatalf("MatchText() before save = (%v, %v), want no match", ok, err)
	}

	res = mustHandle(t, engine, text(admin, "وعليكم السلام"))
	if res.Step != StepTextSaved || !reflect.DeepEqual(res.Text.Added, []string{"تحيه", "سلام"}) {
		t.Fatalf("reply result = %+v, want both aliases added", res)
	}

	match, ok, err := m.MatchText(ctx, admin, "سلام")
	if err != nil || !ok || match.Reply != "وعليكم السلام" {
		t.Fatalf("MatchText(سلام) = (%+v, %v, %v), want saved reply", match, ok, err)
	}
}

func TestBeginTextWithoutAliases(t *testing.T) {
	t.Parallel()
	engine, _, _ := setup(t)

	engine.BeginImage(admin, true)
	res := engine.BeginText(admin, true, " , ,")
	if res.Step != StepInvalid || res.Hint != HintEmptyAliases {
		t.Fatalf("BeginText() = %+v, want empty aliases hint", res)
	}
	if res.Discarded != ModeAwaitingImage {
		t.Fatalf("Discarded = %v, want %v", res.Discarded, ModeAwaitingImage)
	}
	if got := engine.Mode(admin); got != ModeNone {
		t.Fatalf("Mode() = %v, want none", got)
	}
}

func TestEmptyAliasesKeepState(t *testing.T) {
	t.Parallel()
	engine, _, _ := setup(t)

	engine.BeginImage(admin, true)
	mustHandle(t, engine, sticker(admin, "K"))

	if res := mustHandle(t, engine, text(admin, " ، , ")); res.Hint != HintEmptyAliases {
		t.Fatalf("Hint = %v, want %v", res.Hint, HintEmptyAliases)
	}
	if got := engine.Mode(admin); got != ModeAwaitingImageAliases {
		t.Fatalf("Mode() = %v, want %v", got, ModeAwaitingImageAliases)
	}
}

func TestStrayInputFallsThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, _ := setup(t)

	engine.BeginImage(admin, true)
	if _, consumed, err := engine.HandleInput(ctx, text(admin, "hello")); err != nil || consumed {
		t.Fatalf("HandleInput(text) = (%v, %v), want not consumed", consumed, err)
	}
	if got := engine.Mode(admin); got != ModeAwaitingImage {
		t.Fatalf("Mode() = %v, want %v", got, ModeAwaitingImage)
	}

	if _, consumed, err := engine.HandleInput(ctx, sticker(stranger, "K")); err != nil || consumed {
		t.Fatalf("HandleInput(stranger) = (%v, %v), want senders without a flow left alone", consumed, err)
	}
}

func TestNewFlowDiscardsOldOne(t *testing.T) {
	t.Parallel()
	engine, _, _ := setup(t)

	engine.BeginText(admin, true, "a")
	if res := engine.BeginImage(admin, true); res.Discarded != ModeAwaitingTextReply {
		t.Fatalf("Discarded = %v, want %v", res.Discarded, ModeAwaitingTextReply)
	}
	if got := engine.Mode(admin); got != ModeAwaitingImage {
		t.Fatalf("Mode() = %v, want %v", got, ModeAwaitingImage)
	}

	res := engine.Cancel(admin)
	if res.Step != StepCancelled || res.Discarded != ModeAwaitingImage {
		t.Fatalf("Cancel() = %+v, want cancelled image flow", res)
	}
	if got := engine.Cancel(admin).Step; got != StepIdle {
		t.Fatalf("Cancel() again step = %v, want %v", got, StepIdle)
	}
}

func TestUnprivilegedNeverEntersFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, _ := setup(t)

	steps := map[string]Step{
		"BeginImage":      engine.BeginImage(stranger, false).Step,
		"BeginText":       engine.BeginText(stranger, false, "a,b").Step,
		"ListForDeletion": engine.ListForDeletion(stranger, false).Step,
	}
	res, err := engine.DeleteOrdinal(ctx, stranger, false, "1")
	if err != nil {
		t.Fatalf("DeleteOrdinal() error = %v", err)
	}
	steps["DeleteOrdinal"] = res.Step
	for name, step := range steps {
		if step != StepDenied {
			t.Fatalf("%s() step = %v, want %v", name, step, StepDenied)
		}
	}
	if got := engine.Mode(stranger); got != ModeNone {
		t.Fatalf("Mode() = %v, want none", got)
	}
}

func TestIdleFlowExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, c := setup(t)

	engine.BeginText(admin, true, "late")
	c.now = c.now.Add(11 * time.Minute)
	if _, consumed, err := engine.HandleInput(ctx, text(admin, "reply")); err != nil || consumed {
		t.Fatalf("HandleInput() = (%v, %v), want expired flow to ignore input", consumed, err)
	}
	if got := engine.Mode(admin); got != ModeNone {
		t.Fatalf("Mode() = %v, want none", got)
	}
}

func TestIdleClockIgnoresUnconsumedInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, c := setup(t)

	engine.BeginImage(admin, true)
	for i := 0; i < 6; i++ {
		c.now = c.now.Add(9 * time.Minute)
		if _, consumed, err := engine.HandleInput(ctx, text(admin, "chatter")); err != nil || consumed {
			t.Fatalf("HandleInput(chatter %d) = (%v, %v), want not consumed", i, consumed, err)
		}
	}

	if _, consumed, err := engine.HandleInput(ctx, sticker(admin, "late")); err != nil || consumed {
		t.Fatalf("HandleInput(sticker) = (%v, %v), want flow expired by chatter alone", consumed, err)
	}
	if got := engine.Mode(admin); got != ModeNone {
		t.Fatalf("Mode() = %v, want none", got)
	}
}

func TestConsumedInputRefreshesIdleClock(t *testing.T) {
	t.Parallel()
	engine, _, c := setup(t)

	engine.BeginImage(admin, true)
	c.now = c.now.Add(9 * time.Minute)
	mustHandle(t, engine, sticker(admin, "K"))
	c.now = c.now.Add(9 * time.Minute)
	if res := mustHandle(t, engine, text(admin, "a")); res.Step != StepAskReply {
		t.Fatalf("aliases step = %v, want %v", res.Step, StepAskReply)
	}
}

func TestDeleteOrdinalTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store, _ := setup(t)

	if _, err := store.InsertImageTrigger(ctx, "K1", []string{"a"}, "r1", admin); err != nil {
		t.Fatalf("InsertImageTrigger() error = %v", err)
	}
	if _, err := store.InsertTextTrigger(ctx, []string{"b"}, "r2", admin); err != nil {
		t.Fatalf("InsertTextTrigger() error = %v", err)
	}

	res := engine.ListForDeletion(admin, true)
	if res.Step != StepListed || len(res.Items) != 2 {
		t.Fatalf("ListForDeletion() = %+v, want two listed items", res)
	}

	res = mustDelete(t, engine, "1")
	if res.Step != StepDeleted || res.Deleted.Kind != triggers.KindImage {
		t.Fatalf("DeleteOrdinal(1) = %+v, want image deleted", res)
	}
	if res = mustDelete(t, engine, "1"); res.Step != StepNotFound {
		t.Fatalf("DeleteOrdinal(1) again step = %v, want %v", res.Step, StepNotFound)
	}

	snap := store.Snapshot()
	if snap.Stats.TotalImageTriggers != 0 || snap.Stats.TotalTextTriggers != 1 {
		t.Fatalf("totals = %d image, %d text, want 0 and 1", snap.Stats.TotalImageTriggers, snap.Stats.TotalTextTriggers)
	}

	if res = mustDelete(t, engine, "2"); res.Step != StepDeleted {
		t.Fatalf("DeleteOrdinal(2) step = %v, want own deletes to keep the listing valid", res.Step)
	}
	if n := store.Snapshot().Stats.TotalTextTriggers; n != 0 {
		t.Fatalf("TotalTextTriggers = %d, want 0", n)
	}
}

func TestDeleteOrdinalValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store, _ := setup(t)

	if res := mustDelete(t, engine, "1"); res.Hint != HintNoListing {
		t.Fatalf("Hint without listing = %v, want %v", res.Hint, HintNoListing)
	}

	if _, err := store.InsertTextTrigger(ctx, []string{"x"}, "y", admin); err != nil {
		t.Fatalf("InsertTextTrigger() error = %v", err)
	}
	engine.ListForDeletion(admin, true)

	if res := mustDelete(t, engine, "abc"); res.Hint != HintOrdinalNotNumber {
		t.Fatalf("Hint(abc) = %v, want %v", res.Hint, HintOrdinalNotNumber)
	}
	res := mustDelete(t, engine, "5")
	if res.Hint != HintOrdinalRange || res.MaxOrdinal != 1 {
		t.Fatalf("DeleteOrdinal(5) = %+v, want range hint with max 1", res)
	}
	if n := store.Snapshot().Stats.TotalTextTriggers; n != 1 {
		t.Fatalf("TotalTextTriggers = %d, want 1", n)
	}
}

func TestDeleteOrdinalStaleAfterOtherMutation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, store, _ := setup(t)

	if _, err := store.InsertTextTrigger(ctx, []string{"first"}, "1", admin); err != nil {
		t.Fatalf("InsertTextTrigger(first) error = %v", err)
	}
	engine.ListForDeletion(admin, true)

	if _, err := store.InsertTextTrigger(ctx, []string{"second"}, "2", admin); err != nil {
		t.Fatalf("InsertTextTrigger(second) error = %v", err)
	}

	if res := mustDelete(t, engine, "1"); res.Step != StepStaleListing {
		t.Fatalf("DeleteOrdinal(1) step = %v, want %v", res.Step, StepStaleListing)
	}
	if n := store.Snapshot().Stats.TotalTextTriggers; n != 2 {
		t.Fatalf("TotalTextTriggers = %d, want 2", n)
	}
	if res := mustDelete(t, engine, "1"); res.Hint != HintNoListing {
		t.Fatalf("Hint after stale listing = %v, want %v", res.Hint, HintNoListing)
	}
}
