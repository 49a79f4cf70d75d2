package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// chatDedupPrefixLen bounds the text prefix used in the dedup key.
const chatDedupPrefixLen = 32

// ChatMessage is one record of the conversation log.
type ChatMessage struct {
	ID        uuid.UUID `db:"id"`
	SessionID string    `db:"session_id"`
	Sender    string    `db:"sender"`
	Text      string    `db:"text"`
	MediaRef  string    `db:"media_ref"`
	CreatedAt time.Time `db:"created_at"`
}

// DedupKey identifies a message for append deduplication: session, timestamp,
// a bounded text prefix and the media reference.
func (m *ChatMessage) DedupKey() string {
	prefix := m.Text
	if len(prefix) > chatDedupPrefixLen {
		prefix = prefix[:chatDedupPrefixLen]
	}
	return fmt.Sprintf("%s|%d|%s|%s", m.SessionID, m.CreatedAt.UnixNano(), prefix, m.MediaRef)
}
