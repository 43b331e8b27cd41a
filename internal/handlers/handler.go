package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/auth"
	"github.com/Faqih001/Threads-WebApp/internal/media"
	"github.com/Faqih001/Threads-WebApp/internal/messaging"
	"github.com/Faqih001/Threads-WebApp/internal/store"
	"github.com/Faqih001/Threads-WebApp/pkg/apperr"
)

// Pinger is implemented by backing stores that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	users     store.UserStore
	posts     store.PostStore
	messaging *messaging.Service
	uploader  media.Uploader
	jwt       *auth.JWT
	db        Pinger
	cache     Pinger
	logger    zerolog.Logger
}

// Deps bundles the handler dependencies.
type Deps struct {
	Users     store.UserStore
	Posts     store.PostStore
	Messaging *messaging.Service
	Uploader  media.Uploader
	JWT       *auth.JWT
	DB        Pinger
	Cache     Pinger
	Logger    zerolog.Logger
}

// New creates a Handler with the given dependencies.
func New(d Deps) *Handler {
	return &Handler{
		users:     d.Users,
		posts:     d.Posts,
		messaging: d.Messaging,
		uploader:  d.Uploader,
		jwt:       d.JWT,
		db:        d.DB,
		cache:     d.Cache,
		logger:    d.Logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// AppError maps a coded application error to its HTTP response, surfacing
// the underlying message in the body.
func (h *Handler) AppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
	}
	h.Error(w, status, err.Error())
}

// maxBodyBytes caps request bodies. Images arrive base64-encoded inside
// JSON fields, so the cap has to leave room for them.
const maxBodyBytes = 50 << 20

// decode reads a JSON request body into dst, bounding how much it will read.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
