package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversation is a 1:1 message thread. PairKey is the normalized unordered
// pair of participant ids; its unique index guarantees at most one
// conversation per pair.
type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PairKey      string    `gorm:"uniqueIndex;not null" json:"-"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationParticipant is the join row; membership gates every read and
// write on the thread.
type ConversationParticipant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// PairKeyFor normalizes an unordered user pair into the conversation key.
func PairKeyFor(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ConversationPreview is one row of the inbox listing.
type ConversationPreview struct {
	ConversationID uuid.UUID    `json:"conversation_id"`
	Participant    UserResponse `json:"participant"`
	LastMessage    *Message     `json:"last_message,omitempty"`
	UnreadCount    int64        `json:"unread_count"`
}

type StartConversationRequest struct {
	PeerID uint `json:"peer_id" binding:"required"`
}

type UnreadCountResponse struct {
	Total int64 `json:"total"`
}
