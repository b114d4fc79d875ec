package notifications

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procurehq/reqflow/internal/http/features/common"
	"github.com/procurehq/reqflow/internal/http/middleware"
	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
)

type Handler struct {
	logger        *slog.Logger
	notifications *repository.NotificationsRepository
}

func NewHandler(logger *slog.Logger, notifications *repository.NotificationsRepository) *Handler {
	return &Handler{
		logger:        logger,
		notifications: notifications,
	}
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

// List returns the current user's notifications, newest first, with the
// unread count.
// GET /v1/notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := common.Pagination(r)

	items, err := h.notifications.ListByUser(r.Context(), actor.OrganizationID, actor.UserID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	unread, err := h.notifications.CountUnread(r.Context(), actor.OrganizationID, actor.UserID)
	if err != nil {
		h.logger.Error("failed to count unread notifications", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	resp := ListResponse{
		Notifications: make([]NotificationResponse, 0, len(items)),
		UnreadCount:   unread,
		Limit:         limit,
		Offset:        offset,
	}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:        n.ID.String(),
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// MarkRead flags one notification as read. Only the recipient can flip
// the flag; anyone else gets a 404.
// POST /v1/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, actor.UserID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			httputil.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}
