// Package messaging orchestrates the direct-messaging flow: find-or-create
// conversations, persist messages, keep the denormalized last-message summary
// current, and push realtime events to connected recipients.
package messaging

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/Faqih001/Threads-WebApp/internal/media"
	"github.com/Faqih001/Threads-WebApp/internal/metrics"
	"github.com/Faqih001/Threads-WebApp/internal/models"
	"github.com/Faqih001/Threads-WebApp/internal/realtime"
	"github.com/Faqih001/Threads-WebApp/internal/store"
	"github.com/Faqih001/Threads-WebApp/pkg/apperr"
)

// Notifier pushes a realtime event to a user's active connection.
// A false return means the user is offline, which is never an error.
type Notifier interface {
	Notify(userID, event string, data interface{}) bool
}

// Service is the messaging application service.
type Service struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	uploader      media.Uploader
	notifier      Notifier
	logger        zerolog.Logger
}

// NewService wires the messaging service.
func NewService(
	conversations store.ConversationStore,
	messages store.MessageStore,
	uploader media.Uploader,
	notifier Notifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		uploader:      uploader,
		notifier:      notifier,
		logger:        logger,
	}
}

// SendMessage delivers text (and optionally an image) from sender to
// recipient, creating their conversation on first contact.
//
// Empty text with no image is accepted. The message insert and the
// conversation summary update run concurrently with no transaction around
// them; a partial failure can leave one written without the other. That
// inconsistency window is a documented property of the system, kept for
// behavioral parity with the stores' semantics.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID primitive.ObjectID, text, img string) (*models.Message, error) {
	conv, err := s.conversations.FindByParticipants(ctx, senderID, recipientID)
	if err != nil {
		return nil, apperr.Internal("failed to look up conversation", err)
	}

	if conv == nil {
		conv, err = s.conversations.CreateConversation(ctx,
			[]primitive.ObjectID{senderID, recipientID},
			models.LastMessage{Text: text, Sender: senderID},
		)
		if err != nil {
			return nil, apperr.Internal("failed to create conversation", err)
		}
		metrics.ConversationsCreated.Inc()
	}

	if img != "" {
		img, err = s.uploader.Upload(ctx, img)
		if err != nil {
			return nil, apperr.Internal("failed to upload image", err)
		}
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Sender:         senderID,
		Text:           text,
		Img:            img,
	}

	// Fire both writes, await both. Both must succeed for the operation
	// to report success; there is no compensating rollback.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.messages.CreateMessage(gctx, msg)
		return err
	})
	g.Go(func() error {
		return s.conversations.UpdateLastMessage(gctx, conv.ID, text, senderID)
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("failed to persist message", err)
	}

	delivery := "stored"
	if s.notifier.Notify(recipientID.Hex(), realtime.EventNewMessage, msg) {
		delivery = "pushed"
	}
	metrics.MessagesSent.WithLabelValues(delivery).Inc()

	return msg, nil
}

// GetConversationMessages returns every message between the requester and
// the other user, oldest first. A pair that has never spoken gets NotFound,
// not an empty list.
func (s *Service) GetConversationMessages(ctx context.Context, requesterID, otherUserID primitive.ObjectID) ([]models.Message, error) {
	conv, err := s.conversations.FindByParticipants(ctx, requesterID, otherUserID)
	if err != nil {
		return nil, apperr.Internal("failed to look up conversation", err)
	}
	if conv == nil {
		return nil, apperr.NotFound("conversation not found")
	}

	messages, err := s.messages.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, apperr.Internal("failed to list messages", err)
	}
	return messages, nil
}

// ListConversations returns the user's conversation summaries, with the
// requesting user stripped from each participant list.
func (s *Service) ListConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	summaries, err := s.conversations.ListConversationsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}
	return summaries, nil
}

// MarkMessagesSeen flips every unseen message in the conversation and the
// conversation's own summary flag, then notifies notifyUserID if connected.
// The notify target is supplied by the caller (the client sends the other
// participant's id), not derived from the conversation.
//
// The operation is idempotent: a second call finds nothing unseen and
// changes no state.
func (s *Service) MarkMessagesSeen(ctx context.Context, conversationID, notifyUserID string) error {
	convID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return apperr.InvalidArg("invalid conversation id")
	}

	updated, err := s.messages.MarkMessagesSeen(ctx, convID)
	if err != nil {
		return apperr.Internal("failed to mark messages seen", err)
	}
	if err := s.conversations.MarkConversationSeen(ctx, convID); err != nil {
		return apperr.Internal("failed to mark conversation seen", err)
	}

	s.logger.Debug().
		Str("conversation_id", conversationID).
		Int64("updated", updated).
		Msg("messages marked seen")

	s.notifier.Notify(notifyUserID, realtime.EventMessagesSeen, map[string]string{
		"conversationId": conversationID,
	})
	return nil
}
