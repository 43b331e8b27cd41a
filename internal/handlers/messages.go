package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faqih001/Threads-WebApp/internal/api/middleware"
)

// SendMessageRequest is the send-message request body.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	Img         string `json:"img,omitempty"`
}

// SendMessage handles sending a direct message to another user.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender := middleware.GetUserFromContext(r.Context())
	if sender == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SendMessageRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid recipient id")
		return
	}

	msg, err := h.messaging.SendMessage(r.Context(), sender.ID, recipientID, req.Message, req.Img)
	if err != nil {
		h.AppError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, msg)
}

// GetMessages handles fetching all messages exchanged with another user,
// oldest first. A pair with no conversation yet gets a 404.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserFromContext(r.Context())
	if requester == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	otherUserID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "otherUserId"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	messages, err := h.messaging.GetConversationMessages(r.Context(), requester.ID, otherUserID)
	if err != nil {
		h.AppError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, messages)
}

// GetConversations handles listing the authenticated user's conversations.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversations, err := h.messaging.ListConversations(r.Context(), user.ID)
	if err != nil {
		h.AppError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, conversations)
}
