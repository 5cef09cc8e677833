// Package domain holds the shared types of the assistant.
package domain

import "time"

// MessageKind classifies which payload a message carries. The kind decides
// whether Content holds a body or a caption, and whether FileID is set.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindPhoto    MessageKind = "photo"
	KindDocument MessageKind = "document"
)

// AnonymousName is the display fallback for messages without a username.
const AnonymousName = "Anonymous"

// Message is one observed chat message. ID is the Telegram message id and
// the natural key of the store: re-storing the same id replaces all fields.
// ReplyToID is informational only and may reference a row that was never
// stored.
type Message struct {
	ID        int64
	ChatID    int64
	UserID    *int64
	Username  string
	Kind      MessageKind
	Content   string
	FileID    string
	Date      time.Time
	ReplyToID *int64
	IsBot     bool
}

// DisplayName returns the username or the anonymous fallback.
func (m *Message) DisplayName() string {
	if m.Username == "" {
		return AnonymousName
	}

	return m.Username
}
