package model

import "time"

// SendLogEntry is an immutable record of one delivered message.
type SendLogEntry struct {
	ID                string    `json:"id" db:"id"`
	ProspectID        string    `json:"prospect_id" db:"prospect_id"`
	Recipient         string    `json:"recipient" db:"recipient"`
	Subject           string    `json:"subject" db:"subject"`
	Body              string    `json:"body" db:"body"`
	ThreadID          string    `json:"thread_id" db:"thread_id"`
	SequenceIndex     int       `json:"sequence_index" db:"sequence_index"`
	ProviderMessageID string    `json:"provider_message_id" db:"provider_message_id"`
	SentAt            time.Time `json:"sent_at" db:"sent_at"`
}
