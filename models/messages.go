package models

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to exactly one conversation. ReadAt is set once by the
// recipient and the row is never edited or deleted after that.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uint       `gorm:"not null" json:"sender_id"`
	Body           string     `gorm:"not null" json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
