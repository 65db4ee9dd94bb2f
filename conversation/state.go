// Package conversation runs the per-sender authoring dialogues that add and
// delete triggers.
package conversation

import (
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

type Mode string

const (
	ModeNone                 Mode = ""
	ModeAwaitingImage        Mode = "awaiting_image"
	ModeAwaitingImageAliases Mode = "awaiting_image_aliases"
	ModeAwaitingImageReply   Mode = "awaiting_image_reply"
	ModeAwaitingTextReply    Mode = "awaiting_text_reply"
)

func (m Mode) Active() bool {
	return m != ModeNone
}

// Step tells the caller what happened so it can render a message.
type Step string

const (
	StepNone         Step = ""
	StepAskImage     Step = "ask_image"
	StepAskAliases   Step = "ask_aliases"
	StepAskReply     Step = "ask_reply"
	StepImageSaved   Step = "image_saved"
	StepTextSaved    Step = "text_saved"
	StepListed       Step = "listed"
	StepDeleted      Step = "deleted"
	StepCancelled    Step = "cancelled"
	StepIdle         Step = "idle"
	StepDenied       Step = "denied"
	StepInvalid      Step = "invalid"
	StepNotFound     Step = "not_found"
	StepStaleListing Step = "stale_listing"
)

type Hint string

const (
	HintEmptyAliases     Hint = "empty_aliases"
	HintEmptyReply       Hint = "empty_reply"
	HintNoListing        Hint = "no_listing"
	HintOrdinalNotNumber Hint = "ordinal_not_number"
	HintOrdinalRange     Hint = "ordinal_range"
)

type Result struct {
	Step Step
	Hint Hint

	// Discarded is the flow abandoned by this call, if any.
	Discarded Mode
	// Flow is the kind of trigger being authored.
	Flow triggers.Kind

	Aliases    []string
	Reply      string
	TriggerID  string
	Text       triggers.TextInsertResult
	Items      []triggers.DeletableItem
	Deleted    triggers.DeletableItem
	MaxOrdinal int
}

// session is the ephemeral state of one sender.
type session struct {
	mode           Mode
	pendingKey     string
	pendingAliases []string
	touched        time.Time

	listing *listing
}

// listing pins a delete-by-number snapshot to the table generation it was
// taken at.
type listing struct {
	items      []triggers.DeletableItem
	generation uint64
	takenAt    time.Time
}

func (s *session) clearFlow() Mode {
	prev := s.mode
	s.mode = ModeNone
	s.pendingKey = ""
	s.pendingAliases = nil
	return prev
}

func (s *session) empty() bool {
	return s.mode == ModeNone && s.listing == nil
}
