package models

// ConnectionStatus is the lifecycle state of a crew connection request.
type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionAccepted  ConnectionStatus = "accepted"
	ConnectionDeclined  ConnectionStatus = "declined"
	ConnectionWithdrawn ConnectionStatus = "withdrawn"
)

// Connection links two users. RequesterID asked, RecipientID answers.
// At most one non-declined row exists per unordered pair; the repo enforces
// that with a normalized pair key.
type Connection struct {
	Model
	RequesterID uint             `json:"requester_id" gorm:"not null;index"`
	RecipientID uint             `json:"recipient_id" gorm:"not null;index"`
	PairKey     string           `json:"-" gorm:"index"`
	Status      ConnectionStatus `json:"status" gorm:"type:varchar(16);default:'pending'"`
	Requester   User             `gorm:"foreignKey:RequesterID" json:"requester"`
	Recipient   User             `gorm:"foreignKey:RecipientID" json:"recipient"`
}

// CanTransition reports whether moving to next is legal. Recipients accept or
// decline, requesters withdraw, and only while the request is still pending.
func (c *Connection) CanTransition(next ConnectionStatus, actorID uint) bool {
	if c.Status != ConnectionPending {
		return false
	}
	switch next {
	case ConnectionAccepted, ConnectionDeclined:
		return actorID == c.RecipientID
	case ConnectionWithdrawn:
		return actorID == c.RequesterID
	default:
		return false
	}
}

type ConnectionRequest struct {
	RecipientID uint `json:"recipient_id" binding:"required"`
}

type ConnectionRespondRequest struct {
	Status ConnectionStatus `json:"status" binding:"required,oneof=accepted declined withdrawn"`
}
