package controllers

import (
	"log/slog"
	"net/http"

	"rendezvous/internal/delivery/http/helpers"
	"rendezvous/internal/delivery/http/middleware"
	"rendezvous/internal/domain"
)

// ListNotificationsSuccessResponse is the success response envelope for GET /notifications (200).
type ListNotificationsSuccessResponse struct {
	Data  []*domain.Notification `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type NotificationController struct {
	Logger *slog.Logger
	Repo   domain.NotificationRepository
}

func NewNotificationController(logger *slog.Logger, repo domain.NotificationRepository) *NotificationController {
	return &NotificationController{Logger: logger, Repo: repo}
}

// ListMine godoc
// @Summary List my notifications
// @Description Returns the authenticated user's notifications, newest first. Requires authentication.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListNotificationsSuccessResponse "data is an array of notifications"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications [get]
func (c *NotificationController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	notifications, err := c.Repo.ListByUserID(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, notifications)
}
