package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/authz"
	"github.com/outpasshq/notify/internal/engine"
	"github.com/outpasshq/notify/internal/models"
	"github.com/outpasshq/notify/internal/store"
)

type NotificationHandler struct {
	store    store.Store
	registry *engine.Registry
	logger   zerolog.Logger
}

func NewNotificationHandler(st store.Store, registry *engine.Registry, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		store:    st,
		registry: registry,
		logger:   logger.With().Str("handler", "notification").Logger(),
	}
}

// List returns the recipient's most recent inbox records from the store.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}
	h.registry.Ensure(session)

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.store.ListRecentNotifications(r.Context(), session.UserID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list notifications")
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

type createRequest struct {
	RecipientID   string                  `json:"recipient_id"`
	Type          models.NotificationType `json:"type"`
	Title         string                  `json:"title"`
	Message       string                  `json:"message"`
	SourceEventID string                  `json:"source_event_id"`
}

// Create lets a producer push an inbox record for any recipient. The record
// reaches the recipient through their inbox subscription, not through this
// request path.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RecipientID == "" {
		req.RecipientID = session.UserID
	}
	if req.Type == "" || req.Message == "" {
		http.Error(w, "type and message are required", http.StatusBadRequest)
		return
	}

	id, err := h.store.PushNotification(r.Context(), models.Notification{
		RecipientID:   req.RecipientID,
		Type:          req.Type,
		Title:         req.Title,
		Message:       req.Message,
		SourceEventID: req.SourceEventID,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to push notification")
		http.Error(w, "Failed to push notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// MarkRead flags a record read in the store and in the local history.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}

	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	if notifID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	err := h.store.UpdateNotification(r.Context(), session.UserID, notifID, map[string]interface{}{
		"read": true,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("notification_id", notifID).Msg("failed to mark notification as read")
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	if e, ok := h.registry.Get(session.UserID); ok {
		e.Tracker.History().MarkRead(notifID)
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": notifID, "status": "read"})
}

// History returns the session's bounded local history, most recent first.
func (h *NotificationHandler) History(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}
	e := h.registry.Ensure(session)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": e.Tracker.History().Items(),
		"unread":  e.Tracker.History().UnreadCount(),
	})
}

// ClearHistory empties the session's local history.
func (h *NotificationHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}
	e := h.registry.Ensure(session)
	e.Tracker.ClearHistory()

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Unread returns the unread badge count.
func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}
	e := h.registry.Ensure(session)

	writeJSON(w, http.StatusOK, map[string]int{"unread": e.Tracker.History().UnreadCount()})
}

// Stream attaches the caller's websocket to their engine's popup hub.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	session, ok := authz.SessionFromRequest(r)
	if !ok {
		http.Error(w, "Missing session context", http.StatusUnauthorized)
		return
	}
	e := h.registry.Ensure(session)
	e.Sink.Hub().ServeHTTP(w, r)
}
