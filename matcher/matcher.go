// Package matcher decides whether an inbound message fires a stored trigger.
package matcher

import (
	"context"
	"regexp"
	"strings"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

type Rule string

const (
	RuleImage Rule = "image"
	RuleExact Rule = "exact"
	RuleToken Rule = "token"
	RuleFuzzy Rule = "fuzzy"
)

type Match struct {
	Reply string
	Key   string
	Rule  Rule
}

// FireRecorder is the part of the store the matcher needs.
type FireRecorder interface {
	RecordImageFire(ctx context.Context, attachmentKey string, sender int64) (string, bool, error)
	RecordTextFire(ctx context.Context, key string, sender int64) (string, bool, error)
	TextKeys() []string
}

type Options struct {
	Fuzzy bool
}

type Matcher struct {
	store FireRecorder
	opts  Options
}

func New(store FireRecorder, opts Options) *Matcher {
	return &Matcher{store: store, opts: opts}
}

// wordPattern is a run of word characters, with the Arabic block listed
// explicitly so marks inside Arabic words do not split tokens.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_\x{0600}-\x{06FF}]+`)

// Tokens splits an already normalized message into word runs, left to right.
func Tokens(normalized string) []string {
	return wordPattern.FindAllString(normalized, -1)
}

func (m *Matcher) MatchImage(ctx context.Context, sender int64, attachmentKey string) (Match, bool, error) {
	attachmentKey = strings.TrimSpace(attachmentKey)
	if attachmentKey == "" {
		return Match{}, false, nil
	}
	reply, ok, err := m.store.RecordImageFire(ctx, attachmentKey, sender)
	if err != nil || !ok {
		return Match{}, false, err
	}
	return Match{Reply: reply, Key: attachmentKey, Rule: RuleImage}, true, nil
}

// MatchText tries the whole message, then each token, then (when fuzzy is
// on) substring containment of every stored key in table order. The first
// hit wins and is recorded as a fire.
func (m *Matcher) MatchText(ctx context.Context, sender int64, raw string) (Match, bool, error) {
	normalized := triggers.Normalize(raw)
	if normalized == "" {
		return Match{}, false, nil
	}

	if match, ok, err := m.try(ctx, sender, normalized, RuleExact); ok || err != nil {
		return match, ok, err
	}
	for _, token := range Tokens(normalized) {
		if token == normalized {
			continue
		}
		if match, ok, err := m.try(ctx, sender, token, RuleToken); ok || err != nil {
			return match, ok, err
		}
	}
	if !m.opts.Fuzzy {
		return Match{}, false, nil
	}
	for _, key := range m.store.TextKeys() {
		if key == "" || !strings.Contains(normalized, key) {
			continue
		}
		// A key deleted since TextKeys was taken reports no fire; keep
		// scanning.
		if match, ok, err := m.try(ctx, sender, key, RuleFuzzy); ok || err != nil {
			return match, ok, err
		}
	}
	return Match{}, false, nil
}

func (m *Matcher) try(ctx context.Context, sender int64, key string, rule Rule) (Match, bool, error) {
	reply, ok, err := m.store.RecordTextFire(ctx, key, sender)
	if err != nil || !ok {
		return Match{}, false, err
	}
	return Match{Reply: reply, Key: key, Rule: rule}, true, nil
}
