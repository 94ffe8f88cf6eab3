package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrChatNotFound = goerr.New("chat not found")
)

// ChatID is the ROWID of a row in the chat table of the message store
type ChatID int64

// MessageID is the ROWID of a row in the message table of the message store
type MessageID int64

type Chat struct {
	ID          ChatID
	Identifier  string
	DisplayName string
}

type Message struct {
	ID     MessageID
	Text   string
	SentAt time.Time
}

// Texts returns bodies of messages keeping the order
func Texts(messages []*Message) []string {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, msg.Text)
	}
	return texts
}

// EventID identifies one trigger occurrence in logs
type EventID string

// NewEventID generates a new unique EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

// IsTrigger reports whether text is exactly the trigger phrase, ignoring
// surrounding whitespace and letter case. Partial matches do not count.
func IsTrigger(text, phrase string) bool {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), phrase)
}
