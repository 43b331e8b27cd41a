package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Faqih001/Threads-WebApp/internal/api/middleware"
	"github.com/Faqih001/Threads-WebApp/internal/auth"
	"github.com/Faqih001/Threads-WebApp/internal/metrics"
	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// SignupRequest is the signup request body.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles account creation and issues the session cookie.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "name, email, username and password are required")
		return
	}

	existing, err := h.users.FindUserByEmailOrUsername(r.Context(), req.Email, req.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusBadRequest, "user already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.users.CreateUser(r.Context(), &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
	})
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	if err := h.jwt.SetCookie(w, user.ID.Hex()); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue session")
		return
	}

	metrics.UsersRegistered.Inc()
	h.JSON(w, http.StatusCreated, user)
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles credential verification and issues the session cookie.
// Logging into a frozen account unfreezes it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	// Compare against an empty hash when the user is unknown so both paths
	// take comparable time and return the same error.
	storedHash := ""
	if user != nil {
		storedHash = user.Password
	}
	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)) != nil || user == nil {
		h.Error(w, http.StatusBadRequest, "invalid username or password")
		return
	}

	if user.IsFrozen {
		if err := h.users.SetFrozen(r.Context(), user.ID, false); err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		user.IsFrozen = false
	}

	if err := h.jwt.SetCookie(w, user.ID.Hex()); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue session")
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	h.JSON(w, http.StatusOK, map[string]string{"message": "user logged out successfully"})
}

// GetUserProfile handles profile lookup by username or user id.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	var (
		user *models.User
		err  error
	)
	if id, parseErr := primitive.ObjectIDFromHex(query); parseErr == nil {
		user, err = h.users.GetUserByID(r.Context(), id)
	} else {
		user, err = h.users.GetUserByUsername(r.Context(), query)
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// FollowUnfollowUser toggles the follow edge between the acting user and
// the target.
func (h *Handler) FollowUnfollowUser(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if targetID == current.ID {
		h.Error(w, http.StatusBadRequest, "you cannot follow/unfollow yourself")
		return
	}

	target, err := h.users.GetUserByID(r.Context(), targetID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if target == nil {
		h.Error(w, http.StatusBadRequest, "user not found")
		return
	}

	if contains(current.Following, targetID) {
		if err := h.users.Unfollow(r.Context(), targetID, current.ID); err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		h.JSON(w, http.StatusOK, map[string]string{"message": "user unfollowed successfully"})
		return
	}

	if err := h.users.Follow(r.Context(), targetID, current.ID); err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "user followed successfully"})
}

// UpdateUserRequest is the profile update request body. Empty fields keep
// their current values.
type UpdateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

// UpdateUser handles profile updates for the acting user. A new profile
// picture replaces the hosted asset; username and avatar changes propagate
// into the user's post replies.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if chi.URLParam(r, "id") != current.ID.Hex() {
		h.Error(w, http.StatusBadRequest, "you cannot update other user's profile")
		return
	}

	var req UpdateUserRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		current.Password = string(hashed)
	}

	if req.ProfilePic != "" {
		if current.ProfilePic != "" {
			if err := h.uploader.Destroy(r.Context(), current.ProfilePic); err != nil {
				h.logger.Warn().Err(err).Msg("failed to destroy old profile picture")
			}
		}
		uploaded, err := h.uploader.Upload(r.Context(), req.ProfilePic)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to upload profile picture")
			return
		}
		current.ProfilePic = uploaded
	}

	current.Name = orDefault(req.Name, current.Name)
	current.Email = orDefault(req.Email, current.Email)
	current.Username = orDefault(req.Username, current.Username)
	current.Bio = orDefault(req.Bio, current.Bio)

	if err := h.users.UpdateUser(r.Context(), current); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if err := h.posts.UpdateReplyAuthor(r.Context(), current.ID, current.Username, current.ProfilePic); err != nil {
		h.logger.Warn().Err(err).Msg("failed to propagate profile change into replies")
	}

	h.JSON(w, http.StatusOK, current)
}

// GetSuggestedUsers returns up to four random users the requester does not
// already follow.
func (h *Handler) GetSuggestedUsers(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sampled, err := h.users.SampleUsers(r.Context(), current.ID, 10)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	suggested := make([]models.User, 0, 4)
	for _, user := range sampled {
		if contains(current.Following, user.ID) {
			continue
		}
		suggested = append(suggested, user)
		if len(suggested) == 4 {
			break
		}
	}

	h.JSON(w, http.StatusOK, suggested)
}

// FreezeAccount freezes the acting user's account; the next login unfreezes it.
func (h *Handler) FreezeAccount(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUserFromContext(r.Context())
	if current == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.users.SetFrozen(r.Context(), current.ID, true); err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
