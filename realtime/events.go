package realtime

import (
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
)

// Server-pushed event types.
const (
	EventConnected      = "connected"
	EventSubscribed     = "subscribed"
	EventUnsubscribed   = "unsubscribed"
	EventError          = "error"
	EventMessageCreated = "message.created"
	EventMessagesRead   = "message.read"
	EventUnreadCount    = "unread.count"
	EventTyping         = "typing"
)

// TypingTTLMillis is the dead-man's-switch contract for typing indicators:
// receivers clear the flag when no further typing event arrives within this
// window. Events are re-broadcast per keystroke to keep the indicator alive.
const TypingTTLMillis = 2000

// Event is the outbound frame written to subscribed sockets. Targeting fields
// are used for routing and never serialized.
type Event struct {
	Type           string           `json:"type"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Message        *models.Message  `json:"message,omitempty"`
	ReadMessageIDs []uuid.UUID      `json:"read_message_ids,omitempty"`
	ReaderID       uint             `json:"reader_id,omitempty"`
	TypingUserID   uint             `json:"typing_user_id,omitempty"`
	TTLMillis      int              `json:"ttl_ms,omitempty"`
	Unread         int64            `json:"unread,omitempty"`
	Code           string           `json:"code,omitempty"`
	Error          string           `json:"error,omitempty"`

	// Routing: when TargetUserIDs is set the event goes to those user
	// topics; otherwise it fans out to the conversation room.
	TargetUserIDs []uint `json:"-"`
	ExcludeUserID uint   `json:"-"`
}
