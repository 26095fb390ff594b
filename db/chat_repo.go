package db

import (
	"time"

	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnreadRow struct {
	ConversationID uuid.UUID
	Count          int64
}

type ChatRepository interface {
	FindOrCreateConversation(userA, userB uint) (*models.Conversation, bool, error)
	FindConversationByID(id uuid.UUID) (*models.Conversation, error)
	ListConversationsForUser(userID uint) ([]models.Conversation, error)
	IsParticipant(conversationID uuid.UUID, userID uint) (bool, error)
	ParticipantIDs(conversationID uuid.UUID) ([]uint, error)
	CreateMessage(msg *models.Message) error
	ListMessages(conversationID uuid.UUID) ([]models.Message, error)
	ListMessagesForConversations(ids []uuid.UUID) ([]models.Message, error)
	MarkMessagesRead(conversationID uuid.UUID, readerID uint) ([]models.Message, error)
	UnreadTotal(userID uint) (int64, error)
	UnreadByConversation(userID uint) ([]UnreadRow, error)
}

type chatRepo struct {
	DB *gorm.DB
}

func NewChatRepo(db *GormDB) ChatRepository {
	return &chatRepo{db.DB}
}

// FindOrCreateConversation returns the single conversation for the unordered
// pair, creating it with both participant rows when absent. The pair-key
// unique index makes concurrent creates collapse onto one row.
func (r *chatRepo) FindOrCreateConversation(userA, userB uint) (*models.Conversation, bool, error) {
	pairKey := models.PairKeyFor(userA, userB)

	conv := &models.Conversation{}
	err := r.DB.Preload("Participants").Where("pair_key = ?", pairKey).First(conv).Error
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "could not look up conversation")
	}

	conv = &models.Conversation{ID: uuid.New(), PairKey: pairKey}
	txErr := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: userA},
			{ConversationID: conv.ID, UserID: userB},
		}
		return tx.Create(&participants).Error
	})
	if txErr != nil {
		// Lost a create race: the other writer owns the row now.
		if apiError.IsDuplicate(txErr) {
			existing := &models.Conversation{}
			if err := r.DB.Preload("Participants").Where("pair_key = ?", pairKey).First(existing).Error; err != nil {
				return nil, false, errors.Wrap(err, "could not re-fetch conversation")
			}
			return existing, false, nil
		}
		return nil, false, errors.Wrap(txErr, "could not create conversation")
	}

	created := &models.Conversation{}
	if err := r.DB.Preload("Participants").Where("id = ?", conv.ID).First(created).Error; err != nil {
		return nil, false, errors.Wrap(err, "could not load conversation")
	}
	return created, true, nil
}

func (r *chatRepo) FindConversationByID(id uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := r.DB.Preload("Participants").First(conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *chatRepo) ListConversationsForUser(userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.DB.Preload("Participants").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list conversations")
	}
	return convs, nil
}

func (r *chatRepo) IsParticipant(conversationID uuid.UUID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "could not check membership")
	}
	return count > 0, nil
}

func (r *chatRepo) ParticipantIDs(conversationID uuid.UUID) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list participants")
	}
	return ids, nil
}

func (r *chatRepo) CreateMessage(msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if err := r.DB.Create(msg).Error; err != nil {
		return errors.Wrap(err, "could not create message")
	}
	return nil
}

// ListMessages returns the full history oldest-first, the order a thread view
// renders in.
func (r *chatRepo) ListMessages(conversationID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list messages")
	}
	return msgs, nil
}

// ListMessagesForConversations is the one batch fetch behind the inbox
// listing: every message across the given conversations, newest first.
func (r *chatRepo) ListMessagesForConversations(ids []uuid.UUID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var msgs []models.Message
	err := r.DB.Where("conversation_id IN ?", ids).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not batch messages")
	}
	return msgs, nil
}

// MarkMessagesRead stamps read_at on every unread incoming message in one
// statement and returns the affected rows.
func (r *chatRepo) MarkMessagesRead(conversationID uuid.UUID, readerID uint) ([]models.Message, error) {
	now := time.Now()
	var updated []models.Message
	err := r.DB.Model(&updated).
		Clauses(clause.Returning{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", now).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not mark messages read")
	}
	return updated, nil
}

// UnreadTotal is the server-computed global badge count: messages addressed to
// the user with no read timestamp.
func (r *chatRepo) UnreadTotal(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.read_at IS NULL", userID, userID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "could not count unread")
	}
	return count, nil
}

func (r *chatRepo) UnreadByConversation(userID uint) ([]UnreadRow, error) {
	var rows []UnreadRow
	err := r.DB.Model(&models.Message{}).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS count").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.read_at IS NULL", userID, userID).
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not count unread by conversation")
	}
	return rows, nil
}
