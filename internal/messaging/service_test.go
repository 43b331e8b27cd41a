package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faqih001/Threads-WebApp/internal/models"
	"github.com/Faqih001/Threads-WebApp/internal/realtime"
	"github.com/Faqih001/Threads-WebApp/pkg/apperr"
)

// fakeConversationStore is an in-memory ConversationStore.
type fakeConversationStore struct {
	mu    sync.Mutex
	convs []*models.Conversation

	findErr   error
	createErr error
	updateErr error
}

func (f *fakeConversationStore) FindByParticipants(_ context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if hasBoth(c.Participants, a, b) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationStore) CreateConversation(_ context.Context, participants []primitive.ObjectID, last models.LastMessage) (*models.Conversation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := &models.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: participants,
		LastMessage:  last,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.convs = append(f.convs, conv)
	cp := *conv
	return &cp, nil
}

func (f *fakeConversationStore) UpdateLastMessage(_ context.Context, id primitive.ObjectID, text string, sender primitive.ObjectID) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.ID == id {
			c.LastMessage = models.LastMessage{Text: text, Sender: sender}
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.New("conversation not found")
}

func (f *fakeConversationStore) MarkConversationSeen(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.ID == id {
			c.LastMessage.Seen = true
			return nil
		}
	}
	return nil
}

func (f *fakeConversationStore) ListConversationsForUser(_ context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ConversationSummary
	for _, c := range f.convs {
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, models.ConversationSummary{ID: c.ID, LastMessage: c.LastMessage})
				break
			}
		}
	}
	return out, nil
}

func hasBoth(participants []primitive.ObjectID, a, b primitive.ObjectID) bool {
	var foundA, foundB bool
	for _, p := range participants {
		if p == a {
			foundA = true
		}
		if p == b {
			foundB = true
		}
	}
	return foundA && foundB
}

// fakeMessageStore is an in-memory MessageStore.
type fakeMessageStore struct {
	mu   sync.Mutex
	msgs []*models.Message

	createErr error
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	cp := *msg
	f.msgs = append(f.msgs, &cp)
	return msg, nil
}

func (f *fakeMessageStore) ListMessages(_ context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) MarkMessagesSeen(_ context.Context, conversationID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && !m.Seen {
			m.Seen = true
			updated++
		}
	}
	return updated, nil
}

// fakeUploader resolves raw payloads to stable hosted URLs.
type fakeUploader struct {
	uploads int
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, data string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return "https://media.test/" + data, nil
}

func (f *fakeUploader) Destroy(_ context.Context, _ string) error { return nil }

// fakeNotifier records every push attempt; online controls delivery.
type notification struct {
	userID string
	event  string
	data   interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	online map[string]bool
	sent   []notification
}

func (f *fakeNotifier) Notify(userID, event string, data interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{userID: userID, event: event, data: data})
	return f.online[userID]
}

func (f *fakeNotifier) notifications() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.sent...)
}

type fixture struct {
	convs    *fakeConversationStore
	msgs     *fakeMessageStore
	uploader *fakeUploader
	notifier *fakeNotifier
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		convs:    &fakeConversationStore{},
		msgs:     &fakeMessageStore{},
		uploader: &fakeUploader{},
		notifier: &fakeNotifier{online: map[string]bool{}},
	}
	f.svc = NewService(f.convs, f.msgs, f.uploader, f.notifier, zerolog.Nop())
	return f
}

func TestSendMessageCreatesConversationOnFirstContact(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	msg, err := f.svc.SendMessage(context.Background(), alice, bob, "hello", "")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Len(t, f.convs.convs, 1)
	assert.Equal(t, f.convs.convs[0].ID, msg.ConversationID)
	assert.Equal(t, alice, msg.Sender)
	assert.Equal(t, "hello", msg.Text)
	assert.False(t, msg.Seen)
}

func TestSendMessageReusesConversationBothDirections(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, alice, bob, "one", "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, bob, alice, "two", "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, alice, bob, "three", "")
	require.NoError(t, err)

	assert.Len(t, f.convs.convs, 1, "pair must share a single conversation regardless of direction")
	assert.Len(t, f.msgs.msgs, 3)
}

func TestSendMessageTracksLastMessage(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, alice, bob, "first", "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, bob, alice, "latest", "")
	require.NoError(t, err)

	last := f.convs.convs[0].LastMessage
	assert.Equal(t, "latest", last.Text)
	assert.Equal(t, bob, last.Sender)
	assert.False(t, last.Seen, "a fresh message resets the seen flag")
}

func TestSendMessageOfflineRecipientIsStoredOnly(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	_, err := f.svc.SendMessage(context.Background(), alice, bob, "hi", "")
	require.NoError(t, err)

	// The push was attempted and refused; the message is still persisted.
	sent := f.notifier.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, bob.Hex(), sent[0].userID)
	assert.Len(t, f.msgs.msgs, 1)
}

func TestSendMessageOnlineRecipientGetsNewMessageEvent(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	f.notifier.online[bob.Hex()] = true

	msg, err := f.svc.SendMessage(context.Background(), alice, bob, "look", "base64imagedata")
	require.NoError(t, err)

	assert.Equal(t, "https://media.test/base64imagedata", msg.Img, "image resolves to a hosted URL before persisting")
	assert.Equal(t, 1, f.uploader.uploads)

	sent := f.notifier.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, realtime.EventNewMessage, sent[0].event)

	pushed, ok := sent[0].data.(*models.Message)
	require.True(t, ok)
	assert.Equal(t, msg.ID, pushed.ID)
	assert.Equal(t, "https://media.test/base64imagedata", pushed.Img)
}

func TestSendMessageUploadFailureAborts(t *testing.T) {
	f := newFixture()
	f.uploader.err = errors.New("upstream 500")
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	_, err := f.svc.SendMessage(context.Background(), alice, bob, "pic", "imagedata")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	assert.Empty(t, f.msgs.msgs, "failed upload must not persist a message")
}

func TestSendMessagePersistFailure(t *testing.T) {
	f := newFixture()
	f.msgs.createErr = errors.New("write concern failed")
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	_, err := f.svc.SendMessage(context.Background(), alice, bob, "hi", "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	assert.Empty(t, f.notifier.notifications(), "no push on failed persist")
}

func TestGetConversationMessagesUnknownPair(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetConversationMessages(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestGetConversationMessagesReturnsHistory(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, alice, bob, "one", "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, bob, alice, "two", "")
	require.NoError(t, err)

	msgs, err := f.svc.GetConversationMessages(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "two", msgs[1].Text)
}

func TestMarkMessagesSeenFlipsMessagesAndSummary(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, alice, bob, "one", "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, alice, bob, "two", "")
	require.NoError(t, err)

	conv := f.convs.convs[0]
	require.NoError(t, f.svc.MarkMessagesSeen(ctx, conv.ID.Hex(), alice.Hex()))

	for _, m := range f.msgs.msgs {
		assert.True(t, m.Seen)
	}
	assert.True(t, conv.LastMessage.Seen)

	sent := f.notifier.notifications()
	// Two newMessage pushes plus one messagesSeen receipt.
	require.Len(t, sent, 3)
	receipt := sent[2]
	assert.Equal(t, alice.Hex(), receipt.userID)
	assert.Equal(t, realtime.EventMessagesSeen, receipt.event)
	assert.Equal(t, map[string]string{"conversationId": conv.ID.Hex()}, receipt.data)
}

func TestMarkMessagesSeenIdempotent(t *testing.T) {
	f := newFixture()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, alice, bob, "hi", "")
	require.NoError(t, err)

	conv := f.convs.convs[0]
	require.NoError(t, f.svc.MarkMessagesSeen(ctx, conv.ID.Hex(), alice.Hex()))
	require.NoError(t, f.svc.MarkMessagesSeen(ctx, conv.ID.Hex(), alice.Hex()))

	assert.True(t, conv.LastMessage.Seen)
}

func TestMarkMessagesSeenInvalidID(t *testing.T) {
	f := newFixture()

	err := f.svc.MarkMessagesSeen(context.Background(), "not-an-object-id", "whoever")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}
