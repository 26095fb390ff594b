package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/realtime"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unreadCacheTTL = 30 * time.Second

// Notifier fans realtime events out to connected clients. The hub satisfies
// it; tests swap in a recorder.
type Notifier interface {
	Publish(ev realtime.Event)
}

// ChatService holds the messaging use cases: inbox previews, thread history,
// sending, read receipts, unread badge counts and typing relay.
type ChatService interface {
	ListConversationPreviews(userID uint) ([]models.ConversationPreview, *apiError.Error)
	StartConversation(userID, peerID uint) (*models.Conversation, bool, *apiError.Error)
	GetMessages(userID uint, conversationID uuid.UUID) ([]models.Message, *apiError.Error)
	SendMessage(userID uint, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error)
	MarkConversationRead(userID uint, conversationID uuid.UUID) ([]uuid.UUID, *apiError.Error)
	UnreadTotal(userID uint) (int64, *apiError.Error)
	Typing(userID uint, conversationID uuid.UUID) *apiError.Error
	EnsureParticipant(userID uint, conversationID uuid.UUID) *apiError.Error
}

type chatService struct {
	Config   *config.Config
	chatRepo db.ChatRepository
	redis    *redis.Client
	notifier Notifier
}

// NewChatService instantiates the chat service. redisClient may be nil, which
// disables unread caching; notifier may be nil, which disables realtime
// pushes.
func NewChatService(chatRepo db.ChatRepository, redisClient *redis.Client, notifier Notifier, conf *config.Config) ChatService {
	return &chatService{
		Config:   conf,
		chatRepo: chatRepo,
		redis:    redisClient,
		notifier: notifier,
	}
}

// ListConversationPreviews builds the inbox: one row per conversation with
// the other participant, the latest message and the unread count, ordered by
// most recent message. Conversations with no messages yet sort last, keeping
// their relative order.
func (s *chatService) ListConversationPreviews(userID uint) ([]models.ConversationPreview, *apiError.Error) {
	convs, err := s.chatRepo.ListConversationsForUser(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}

	ids := make([]uuid.UUID, 0, len(convs))
	for _, conv := range convs {
		ids = append(ids, conv.ID)
	}

	msgs, err := s.chatRepo.ListMessagesForConversations(ids)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	// Messages arrive newest-first, so the first one seen per conversation is
	// its latest.
	latest := make(map[uuid.UUID]*models.Message, len(convs))
	for i := range msgs {
		msg := &msgs[i]
		if _, seen := latest[msg.ConversationID]; !seen {
			latest[msg.ConversationID] = msg
		}
	}

	unreadRows, err := s.chatRepo.UnreadByConversation(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	unread := make(map[uuid.UUID]int64, len(unreadRows))
	for _, row := range unreadRows {
		unread[row.ConversationID] = row.Count
	}

	previews := make([]models.ConversationPreview, 0, len(convs))
	for _, conv := range convs {
		preview := models.ConversationPreview{
			ConversationID: conv.ID,
			LastMessage:    latest[conv.ID],
			UnreadCount:    unread[conv.ID],
		}
		for i := range conv.Participants {
			if conv.Participants[i].ID != userID {
				preview.Participant = conv.Participants[i].ToResponse()
				break
			}
		}
		previews = append(previews, preview)
	}

	sort.SliceStable(previews, func(i, j int) bool {
		a, b := previews[i].LastMessage, previews[j].LastMessage
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return previews, nil
}

// StartConversation returns the single conversation between the caller and
// peer, creating it if this is their first exchange. The second return value
// reports whether a new conversation was created.
func (s *chatService) StartConversation(userID, peerID uint) (*models.Conversation, bool, *apiError.Error) {
	if peerID == userID {
		return nil, false, apiError.New("cannot start a conversation with yourself", http.StatusBadRequest)
	}
	if peerID == 0 {
		return nil, false, apiError.ErrBadRequest
	}

	conv, created, err := s.chatRepo.FindOrCreateConversation(userID, peerID)
	if err != nil {
		return nil, false, apiError.FromDB(err, "user not found")
	}
	return conv, created, nil
}

func (s *chatService) GetMessages(userID uint, conversationID uuid.UUID) ([]models.Message, *apiError.Error) {
	if apiErr := s.EnsureParticipant(userID, conversationID); apiErr != nil {
		return nil, apiErr
	}
	msgs, err := s.chatRepo.ListMessages(conversationID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return msgs, nil
}

// SendMessage persists a message and pushes it to the conversation room. The
// body is trimmed first; a blank message is rejected before anything is
// written.
func (s *chatService) SendMessage(userID uint, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apiError.New("message body cannot be empty", http.StatusBadRequest)
	}

	if apiErr := s.EnsureParticipant(userID, conversationID); apiErr != nil {
		return nil, apiErr
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Body:           body,
	}
	if err := s.chatRepo.CreateMessage(msg); err != nil {
		return nil, apiError.ErrInternalServerError
	}

	if s.notifier != nil {
		s.notifier.Publish(realtime.Event{
			Type:           realtime.EventMessageCreated,
			ConversationID: conversationID.String(),
			Message:        msg,
		})
	}
	s.refreshPeerBadges(conversationID, userID)
	return msg, nil
}

// MarkConversationRead stamps every unread incoming message in the thread and
// notifies the other participant so their sent messages flip to "read".
func (s *chatService) MarkConversationRead(userID uint, conversationID uuid.UUID) ([]uuid.UUID, *apiError.Error) {
	if apiErr := s.EnsureParticipant(userID, conversationID); apiErr != nil {
		return nil, apiErr
	}

	updated, err := s.chatRepo.MarkMessagesRead(conversationID, userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	if len(updated) == 0 {
		return []uuid.UUID{}, nil
	}

	ids := make([]uuid.UUID, 0, len(updated))
	for _, msg := range updated {
		ids = append(ids, msg.ID)
	}

	s.invalidateUnread(userID)
	if s.notifier != nil {
		s.notifier.Publish(realtime.Event{
			Type:           realtime.EventMessagesRead,
			ConversationID: conversationID.String(),
			ReadMessageIDs: ids,
			ReaderID:       userID,
			ExcludeUserID:  userID,
		})
		s.pushUnread(userID)
	}
	return ids, nil
}

// UnreadTotal returns the global badge count, served from a short-lived redis
// cache when available.
func (s *chatService) UnreadTotal(userID uint) (int64, *apiError.Error) {
	key := unreadCacheKey(userID)
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		cached, err := s.redis.Get(ctx, key).Result()
		cancel()
		if err == nil {
			if total, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return total, nil
			}
		}
	}

	total, err := s.chatRepo.UnreadTotal(userID)
	if err != nil {
		return 0, apiError.ErrInternalServerError
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := s.redis.Set(ctx, key, total, unreadCacheTTL).Err(); err != nil {
			log.Printf("chat: cache unread for user %d: %v", userID, err)
		}
		cancel()
	}
	return total, nil
}

// Typing relays a typing signal to the other participant. Nothing is stored;
// the event carries the TTL after which the client clears the indicator
// unless a fresh signal arrives.
func (s *chatService) Typing(userID uint, conversationID uuid.UUID) *apiError.Error {
	if apiErr := s.EnsureParticipant(userID, conversationID); apiErr != nil {
		return apiErr
	}
	if s.notifier != nil {
		s.notifier.Publish(realtime.Event{
			Type:           realtime.EventTyping,
			ConversationID: conversationID.String(),
			TypingUserID:   userID,
			TTLMillis:      realtime.TypingTTLMillis,
			ExcludeUserID:  userID,
		})
	}
	return nil
}

// EnsureParticipant gates thread access: 404 when the conversation does not
// exist, 403 when it does but the caller is not in it.
func (s *chatService) EnsureParticipant(userID uint, conversationID uuid.UUID) *apiError.Error {
	ok, err := s.chatRepo.IsParticipant(conversationID, userID)
	if err != nil {
		return apiError.ErrInternalServerError
	}
	if ok {
		return nil
	}
	if _, err := s.chatRepo.FindConversationByID(conversationID); err != nil {
		return apiError.FromDB(err, "conversation not found")
	}
	return apiError.ErrForbidden
}

// refreshPeerBadges invalidates the cached unread totals of the other
// participants and pushes them a fresh count.
func (s *chatService) refreshPeerBadges(conversationID uuid.UUID, senderID uint) {
	peers, err := s.chatRepo.ParticipantIDs(conversationID)
	if err != nil {
		log.Printf("chat: list participants of %s: %v", conversationID, err)
		return
	}
	for _, peerID := range peers {
		if peerID == senderID {
			continue
		}
		s.invalidateUnread(peerID)
		if s.notifier != nil {
			s.pushUnread(peerID)
		}
	}
}

func (s *chatService) pushUnread(userID uint) {
	total, err := s.chatRepo.UnreadTotal(userID)
	if err != nil {
		log.Printf("chat: unread total for user %d: %v", userID, err)
		return
	}
	s.notifier.Publish(realtime.Event{
		Type:          realtime.EventUnreadCount,
		Unread:        total,
		TargetUserIDs: []uint{userID},
	})
}

func (s *chatService) invalidateUnread(userID uint) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, unreadCacheKey(userID)).Err(); err != nil {
		log.Printf("chat: invalidate unread cache for user %d: %v", userID, err)
	}
}

func unreadCacheKey(userID uint) string {
	return fmt.Sprintf("unread:%d", userID)
}
