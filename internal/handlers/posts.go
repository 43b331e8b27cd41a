package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faqih001/Threads-WebApp/internal/api/middleware"
	"github.com/Faqih001/Threads-WebApp/internal/metrics"
	"github.com/Faqih001/Threads-WebApp/internal/models"
)

const maxPostLength = 500

// CreatePostRequest is the create-post request body.
type CreatePostRequest struct {
	PostedBy string `json:"postedBy"`
	Text     string `json:"text"`
	Img      string `json:"img,omitempty"`
}

// CreatePost handles publishing a new post, uploading its image if present.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreatePostRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PostedBy == "" || req.Text == "" {
		h.Error(w, http.StatusBadRequest, "postedBy and text fields are required")
		return
	}
	if len(req.Text) > maxPostLength {
		h.Error(w, http.StatusBadRequest, fmt.Sprintf("text must be less than %d characters", maxPostLength))
		return
	}

	postedBy, err := primitive.ObjectIDFromHex(req.PostedBy)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid postedBy id")
		return
	}

	author, err := h.users.GetUserByID(r.Context(), postedBy)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if author == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if author.ID != current.ID {
		h.Error(w, http.StatusUnauthorized, "unauthorized to create post")
		return
	}

	img := req.Img
	if img != "" {
		img, err = h.uploader.Upload(r.Context(), img)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to upload image")
			return
		}
	}

	post, err := h.posts.CreatePost(r.Context(), &models.Post{
		PostedBy: postedBy,
		Text:     req.Text,
		Img:      img,
	})
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	metrics.PostsCreated.Inc()
	h.JSON(w, http.StatusCreated, post)
}

// GetPost handles fetching a single post by id.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, post)
}

// DeletePost handles deleting a post owned by the acting user. The hosted
// image, if any, is destroyed best-effort.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	if post.PostedBy != current.ID {
		h.Error(w, http.StatusUnauthorized, "unauthorized to delete post")
		return
	}

	if post.Img != "" {
		if err := h.uploader.Destroy(r.Context(), post.Img); err != nil {
			h.logger.Warn().Err(err).Str("post_id", post.ID.Hex()).Msg("failed to destroy post image")
		}
	}

	if err := h.posts.DeletePost(r.Context(), post.ID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "post deleted successfully"})
}

// LikeUnlikePost toggles the acting user's like on a post.
func (h *Handler) LikeUnlikePost(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	if contains(post.Likes, current.ID) {
		if err := h.posts.RemoveLike(r.Context(), post.ID, current.ID); err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		h.JSON(w, http.StatusOK, map[string]string{"message": "post unliked successfully"})
		return
	}

	if err := h.posts.AddLike(r.Context(), post.ID, current.ID); err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "post liked successfully"})
}

// ReplyRequest is the reply request body.
type ReplyRequest struct {
	Text string `json:"text"`
}

// ReplyToPost appends a reply to a post, denormalizing the author's
// username and avatar onto it.
func (h *Handler) ReplyToPost(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ReplyRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text field is required")
		return
	}

	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	reply := models.Reply{
		UserID:         current.ID,
		Text:           req.Text,
		UserProfilePic: current.ProfilePic,
		Username:       current.Username,
	}
	if err := h.posts.AddReply(r.Context(), post.ID, reply); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to add reply")
		return
	}

	h.JSON(w, http.StatusOK, reply)
}

// GetFeedPosts returns posts by the users the requester follows, newest first.
func (h *Handler) GetFeedPosts(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	feed, err := h.posts.ListFeed(r.Context(), current.Following)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, feed)
}

// GetUserPosts returns a user's posts by username, newest first.
func (h *Handler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	posts, err := h.posts.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, posts)
}

// loadPost fetches the post addressed by the id URL parameter, writing the
// error response itself when the id is bad or the post is missing.
func (h *Handler) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid post id")
		return nil, false
	}

	post, err := h.posts.GetPostByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if post == nil {
		h.Error(w, http.StatusNotFound, "post not found")
		return nil, false
	}
	return post, true
}
