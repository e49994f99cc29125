package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/udyami/marketplace/internal/modules/notification/domain"
	"github.com/udyami/marketplace/internal/modules/notification/infrastructure/websocket"
)

const defaultRemindLater = 3 * time.Hour

// Feed is the engine surface the screens use.
type Feed interface {
	Notifications() []domain.Notification
	NotificationsForRole(role domain.Role) []domain.Notification
	LatestUnread() (domain.Notification, bool)
	UnreadCount() int
	MarkAsRead(id string) error
	DismissNotification(id string) error
	RemindLater(id string, after time.Duration) error
	ClearAll()
	Jobs() []domain.JobSnapshot
	SimulatePostJob(job domain.JobSnapshot) domain.JobSnapshot
	PollNow() int
}

// FeedMessage is what websocket clients receive on connect and after every change.
type FeedMessage struct {
	Event string                `json:"event"`
	Data  []domain.Notification `json:"data"`
}

type NotificationHandler struct {
	feed   Feed
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewNotificationHandler(feed Feed, hub *websocket.Hub, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{feed: feed, hub: hub, logger: logger.With("component", "notification_http")}
}

// Register mounts the notification routes on mux.
func (h *NotificationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /notifications", h.ListNotifications)
	mux.HandleFunc("DELETE /notifications", h.ClearAll)
	mux.HandleFunc("GET /notifications/unread-count", h.UnreadCount)
	mux.HandleFunc("GET /notifications/latest", h.Latest)
	mux.HandleFunc("PATCH /notifications/{id}/read", h.MarkAsRead)
	mux.HandleFunc("PATCH /notifications/{id}/dismiss", h.Dismiss)
	mux.HandleFunc("POST /notifications/{id}/remind-later", h.RemindLater)
	mux.HandleFunc("GET /notifications/jobs", h.ListJobs)
	mux.HandleFunc("POST /notifications/jobs", h.PostJob)
	mux.HandleFunc("POST /notifications/check-reminders", h.CheckReminders)
	if h.hub != nil {
		mux.HandleFunc("GET /ws", h.Subscribe)
	}
}

func parseRole(r *http.Request) (domain.Role, bool) {
	role := domain.Role(r.URL.Query().Get("role"))
	switch role {
	case "", domain.RoleBuyer, domain.RoleSeller:
		return role, true
	}
	return "", false
}

// Subscribe streams the feed for ?role= over a websocket, starting with the
// current state.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	role, ok := parseRole(r)
	if !ok {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	initial, err := EncodeFeed(domain.VisibleFeed(h.feed.Notifications(), role))
	if err != nil {
		http.Error(w, "failed to encode notifications", http.StatusInternalServerError)
		return
	}
	websocket.ServeWs(h.hub, w, r, role, initial)
}

func EncodeFeed(feed []domain.Notification) ([]byte, error) {
	return json.Marshal(FeedMessage{Event: "notifications", Data: feed})
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	role, ok := parseRole(r)
	if !ok {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": h.feed.NotificationsForRole(role)})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.feed.UnreadCount()})
}

func (h *NotificationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	n, ok := h.feed.LatestUnread()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, "mark as read", h.feed.MarkAsRead(r.PathValue("id")))
}

func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, "dismiss", h.feed.DismissNotification(r.PathValue("id")))
}

func (h *NotificationHandler) RemindLater(w http.ResponseWriter, r *http.Request) {
	var body struct {
		After string `json:"after"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	after := defaultRemindLater
	if body.After != "" {
		d, err := time.ParseDuration(body.After)
		if err != nil || d <= 0 {
			http.Error(w, "invalid after duration", http.StatusBadRequest)
			return
		}
		after = d
	}

	err := h.feed.RemindLater(r.PathValue("id"), after)
	if errors.Is(err, domain.ErrNotReminder) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.mutation(w, "remind later", err)
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.feed.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": h.feed.Jobs()})
}

// PostJob simulates a job posting so sellers get matched without going
// through the marketplace store.
func (h *NotificationHandler) PostJob(w http.ResponseWriter, r *http.Request) {
	var job domain.JobSnapshot
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if job.Skill == "" || job.Location == "" {
		http.Error(w, "skill and location are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, h.feed.SimulatePostJob(job))
}

func (h *NotificationHandler) CheckReminders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"added": h.feed.PollNow()})
}

func (h *NotificationHandler) mutation(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotificationNotFound):
		http.Error(w, "notification not found", http.StatusNotFound)
	default:
		h.logger.Error(op+" failed", "error", err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
