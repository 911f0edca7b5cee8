package models

import (
	"time"

	"github.com/google/uuid"
)

// VoiceStatus is the lifecycle status of an ingested utterance.
//
//	RECEIVED -> REJECTED
//	RECEIVED -> PARSED -> APPLIED
//	RECEIVED -> PARSED -> REJECTED
type VoiceStatus string

const (
	VoiceReceived VoiceStatus = "RECEIVED"
	VoiceParsed   VoiceStatus = "PARSED"
	VoiceApplied  VoiceStatus = "APPLIED"
	VoiceRejected VoiceStatus = "REJECTED"
)

// CanTransition reports whether moving from s to next is a legal step.
func (s VoiceStatus) CanTransition(next VoiceStatus) bool {
	switch s {
	case VoiceReceived:
		return next == VoiceParsed || next == VoiceRejected
	case VoiceParsed:
		return next == VoiceApplied || next == VoiceRejected
	}
	return false
}

// VoiceEvent is the append-only record of one ingested utterance. Only
// Status, Intent, Error and UpdatedAt change after insertion.
type VoiceEvent struct {
	ID        uuid.UUID   `json:"id"`
	RawText   string      `json:"raw_text"`
	Locale    string      `json:"locale"`
	Status    VoiceStatus `json:"status"`
	Intent    string      `json:"intent,omitempty"`
	Error     *string     `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
