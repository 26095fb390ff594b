package services

import (
	"testing"
	"time"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/realtime"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeChatRepo struct {
	conversations map[uuid.UUID]*models.Conversation
	participants  map[uuid.UUID][]uint
	messages      []models.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		conversations: make(map[uuid.UUID]*models.Conversation),
		participants:  make(map[uuid.UUID][]uint),
	}
}

func (f *fakeChatRepo) addConversation(a, b uint) *models.Conversation {
	conv := &models.Conversation{
		ID:      uuid.New(),
		PairKey: models.PairKeyFor(a, b),
		Participants: []models.User{
			{Model: models.Model{ID: a}},
			{Model: models.Model{ID: b}},
		},
	}
	f.conversations[conv.ID] = conv
	f.participants[conv.ID] = []uint{a, b}
	return conv
}

func (f *fakeChatRepo) addMessage(convID uuid.UUID, sender uint, body string, at time.Time) models.Message {
	msg := models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       sender,
		Body:           body,
		CreatedAt:      at,
	}
	f.messages = append(f.messages, msg)
	return msg
}

func (f *fakeChatRepo) FindOrCreateConversation(userA, userB uint) (*models.Conversation, bool, error) {
	pairKey := models.PairKeyFor(userA, userB)
	for _, conv := range f.conversations {
		if conv.PairKey == pairKey {
			return conv, false, nil
		}
	}
	return f.addConversation(userA, userB), true, nil
}

func (f *fakeChatRepo) FindConversationByID(id uuid.UUID) (*models.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (f *fakeChatRepo) ListConversationsForUser(userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conv := range f.conversations {
		for _, id := range f.participants[conv.ID] {
			if id == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeChatRepo) IsParticipant(conversationID uuid.UUID, userID uint) (bool, error) {
	for _, id := range f.participants[conversationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChatRepo) ParticipantIDs(conversationID uuid.UUID) ([]uint, error) {
	return f.participants[conversationID], nil
}

func (f *fakeChatRepo) CreateMessage(msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatRepo) ListMessages(conversationID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) ListMessagesForConversations(ids []uuid.UUID) ([]models.Message, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Message
	for _, msg := range f.messages {
		if want[msg.ConversationID] {
			out = append(out, msg)
		}
	}
	// Newest first, the order the real query returns.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeChatRepo) MarkMessagesRead(conversationID uuid.UUID, readerID uint) ([]models.Message, error) {
	now := time.Now()
	var updated []models.Message
	for i := range f.messages {
		msg := &f.messages[i]
		if msg.ConversationID == conversationID && msg.SenderID != readerID && msg.ReadAt == nil {
			msg.ReadAt = &now
			updated = append(updated, *msg)
		}
	}
	return updated, nil
}

func (f *fakeChatRepo) UnreadTotal(userID uint) (int64, error) {
	var count int64
	for _, msg := range f.messages {
		if msg.SenderID == userID || msg.ReadAt != nil {
			continue
		}
		for _, id := range f.participants[msg.ConversationID] {
			if id == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeChatRepo) UnreadByConversation(userID uint) ([]db.UnreadRow, error) {
	counts := make(map[uuid.UUID]int64)
	for _, msg := range f.messages {
		if msg.SenderID == userID || msg.ReadAt != nil {
			continue
		}
		for _, id := range f.participants[msg.ConversationID] {
			if id == userID {
				counts[msg.ConversationID]++
				break
			}
		}
	}
	var rows []db.UnreadRow
	for id, count := range counts {
		rows = append(rows, db.UnreadRow{ConversationID: id, Count: count})
	}
	return rows, nil
}

type recordingNotifier struct {
	events []realtime.Event
}

func (r *recordingNotifier) Publish(ev realtime.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) byType(t string) []realtime.Event {
	var out []realtime.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newChatServiceForTest(repo db.ChatRepository, notifier Notifier) ChatService {
	return NewChatService(repo, nil, notifier, &config.Config{})
}

func TestListConversationPreviewsOrdering(t *testing.T) {
	repo := newFakeChatRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := repo.addConversation(1, 2)
	newer := repo.addConversation(1, 3)
	empty := repo.addConversation(1, 4)

	repo.addMessage(older.ID, 2, "first", base)
	repo.addMessage(older.ID, 2, "second", base.Add(time.Minute))
	repo.addMessage(newer.ID, 3, "hello", base.Add(time.Hour))

	svc := newChatServiceForTest(repo, nil)
	previews, apiErr := svc.ListConversationPreviews(1)
	require.Nil(t, apiErr)
	require.Len(t, previews, 3)

	assert.Equal(t, newer.ID, previews[0].ConversationID)
	assert.Equal(t, older.ID, previews[1].ConversationID)
	assert.Equal(t, empty.ID, previews[2].ConversationID)

	// The latest message wins the preview, not the first stored one.
	require.NotNil(t, previews[1].LastMessage)
	assert.Equal(t, "second", previews[1].LastMessage.Body)
	assert.Nil(t, previews[2].LastMessage)

	// Unread counts incoming messages only.
	assert.Equal(t, int64(2), previews[1].UnreadCount)
	assert.Equal(t, int64(1), previews[0].UnreadCount)
	assert.Equal(t, int64(0), previews[2].UnreadCount)

	// The other participant is resolved for each row.
	assert.Equal(t, uint(3), previews[0].Participant.ID)
	assert.Equal(t, uint(2), previews[1].Participant.ID)
}

func TestSendMessageRejectsWhitespaceBeforeWrite(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	notifier := &recordingNotifier{}
	svc := newChatServiceForTest(repo, notifier)

	for _, body := range []string{"", "   ", "\n\t "} {
		msg, apiErr := svc.SendMessage(1, conv.ID, body)
		require.NotNil(t, apiErr)
		assert.Equal(t, 400, apiErr.Status)
		assert.Nil(t, msg)
	}
	assert.Empty(t, repo.messages)
	assert.Empty(t, notifier.events)
}

func TestSendMessageTrimsAndNotifies(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	notifier := &recordingNotifier{}
	svc := newChatServiceForTest(repo, notifier)

	msg, apiErr := svc.SendMessage(1, conv.ID, "  hello there  ")
	require.Nil(t, apiErr)
	assert.Equal(t, "hello there", msg.Body)
	assert.Equal(t, uint(1), msg.SenderID)
	require.Len(t, repo.messages, 1)

	created := notifier.byType(realtime.EventMessageCreated)
	require.Len(t, created, 1)
	assert.Equal(t, conv.ID.String(), created[0].ConversationID)

	// The peer gets a fresh badge count on their user topic.
	unread := notifier.byType(realtime.EventUnreadCount)
	require.Len(t, unread, 1)
	assert.Equal(t, []uint{2}, unread[0].TargetUserIDs)
	assert.Equal(t, int64(1), unread[0].Unread)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	svc := newChatServiceForTest(repo, nil)

	_, apiErr := svc.SendMessage(99, conv.ID, "hi")
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	_, apiErr = svc.SendMessage(1, uuid.New(), "hi")
	require.NotNil(t, apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestMarkConversationReadBatches(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	base := time.Now()
	repo.addMessage(conv.ID, 2, "one", base)
	repo.addMessage(conv.ID, 2, "two", base.Add(time.Second))
	mine := repo.addMessage(conv.ID, 1, "mine", base.Add(2*time.Second))

	notifier := &recordingNotifier{}
	svc := newChatServiceForTest(repo, notifier)

	ids, apiErr := svc.MarkConversationRead(1, conv.ID)
	require.Nil(t, apiErr)
	assert.Len(t, ids, 2)
	assert.NotContains(t, ids, mine.ID)

	read := notifier.byType(realtime.EventMessagesRead)
	require.Len(t, read, 1)
	assert.Equal(t, uint(1), read[0].ReaderID)
	assert.Equal(t, uint(1), read[0].ExcludeUserID)
	assert.Len(t, read[0].ReadMessageIDs, 2)

	// Second pass finds nothing unread and stays silent.
	notifier.events = nil
	ids, apiErr = svc.MarkConversationRead(1, conv.ID)
	require.Nil(t, apiErr)
	assert.Empty(t, ids)
	assert.Empty(t, notifier.events)
}

func TestStartConversationIdempotent(t *testing.T) {
	repo := newFakeChatRepo()
	svc := newChatServiceForTest(repo, nil)

	conv, created, apiErr := svc.StartConversation(1, 2)
	require.Nil(t, apiErr)
	assert.True(t, created)

	again, created, apiErr := svc.StartConversation(2, 1)
	require.Nil(t, apiErr)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
}

func TestStartConversationWithSelf(t *testing.T) {
	svc := newChatServiceForTest(newFakeChatRepo(), nil)

	_, _, apiErr := svc.StartConversation(7, 7)
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestTypingRelaysToPeerOnly(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	notifier := &recordingNotifier{}
	svc := newChatServiceForTest(repo, notifier)

	require.Nil(t, svc.Typing(1, conv.ID))

	typing := notifier.byType(realtime.EventTyping)
	require.Len(t, typing, 1)
	assert.Equal(t, uint(1), typing[0].TypingUserID)
	assert.Equal(t, uint(1), typing[0].ExcludeUserID)
	assert.Equal(t, realtime.TypingTTLMillis, typing[0].TTLMillis)

	// Typing in a thread the user is not part of is refused.
	apiErr := svc.Typing(9, conv.ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

func TestUnreadTotal(t *testing.T) {
	repo := newFakeChatRepo()
	conv := repo.addConversation(1, 2)
	repo.addMessage(conv.ID, 2, "a", time.Now())
	repo.addMessage(conv.ID, 2, "b", time.Now())
	repo.addMessage(conv.ID, 1, "c", time.Now())

	svc := newChatServiceForTest(repo, nil)

	total, apiErr := svc.UnreadTotal(1)
	require.Nil(t, apiErr)
	assert.Equal(t, int64(2), total)

	total, apiErr = svc.UnreadTotal(2)
	require.Nil(t, apiErr)
	assert.Equal(t, int64(1), total)
}
