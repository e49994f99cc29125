package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
)

// StatusController exposes store selection. Implemented by the hybrid coordinator.
type StatusController interface {
	DatabaseStatus() string
	UsingRemote() bool
	ReconnectToCloud(ctx context.Context) bool
	ForceInitializeLocal(ctx context.Context) error
}

// SnapshotStore keeps dataset dumps as JSON documents. Missing keys match
// fs.ErrNotExist and malformed keys match fs.ErrInvalid.
type SnapshotStore interface {
	ExportJSON(ctx context.Context, folder string, v any) (key, url string, err error)
	ReadJSON(ctx context.Context, key string, v any) error
	DownloadURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

const snapshotLinkTTL = 15 * time.Minute

type Handler struct {
	store        domain.Store
	logger       *slog.Logger
	status       StatusController
	snapshots    SnapshotStore
	onJobCreated func(ctx context.Context, job domain.Job)
}

type Option func(*Handler)

// WithStatus mounts the /status routes.
func WithStatus(sc StatusController) Option {
	return func(h *Handler) { h.status = sc }
}

// WithSnapshots mounts the /debug/snapshot routes.
func WithSnapshots(store SnapshotStore) Option {
	return func(h *Handler) { h.snapshots = store }
}

// WithJobCreatedHook is called after a job is stored, with its assigned id.
func WithJobCreatedHook(fn func(ctx context.Context, job domain.Job)) Option {
	return func(h *Handler) { h.onJobCreated = fn }
}

func NewHandler(store domain.Store, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{store: store, logger: logger.With("component", "marketplace_http")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the marketplace API relative to its mount point.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Health)

	mux.HandleFunc("POST /users", h.CreateUser)
	mux.HandleFunc("GET /users", h.ListUsers)
	mux.HandleFunc("GET /users/{id}", h.GetUser)
	mux.HandleFunc("GET /users/phone/{phone}", h.GetUserByPhone)
	mux.HandleFunc("PUT /users/{id}", h.UpdateUser)

	mux.HandleFunc("POST /jobs", h.CreateJob)
	mux.HandleFunc("GET /jobs", h.ListJobs)
	mux.HandleFunc("PUT /jobs/{id}/status", h.UpdateJobStatus)

	mux.HandleFunc("POST /sellers", h.CreateSeller)
	mux.HandleFunc("GET /sellers", h.ListSellers)
	mux.HandleFunc("GET /sellers/{id}", h.GetSeller)

	mux.HandleFunc("POST /services", h.CreateService)
	mux.HandleFunc("GET /services", h.ListServices)

	mux.HandleFunc("POST /follows", h.Follow)
	mux.HandleFunc("DELETE /follows/{sellerId}/{followerId}", h.Unfollow)
	mux.HandleFunc("GET /follows/{userId}", h.FollowedSellers)

	mux.HandleFunc("POST /notifications", h.CreateNotification)
	mux.HandleFunc("GET /notifications/{userId}", h.ListNotifications)

	mux.HandleFunc("DELETE /clear", h.ClearAll)
	mux.HandleFunc("GET /data", h.AllData)

	if h.status != nil {
		mux.HandleFunc("GET /status", h.Status)
		mux.HandleFunc("POST /status/reconnect", h.Reconnect)
		mux.HandleFunc("POST /status/force-local", h.ForceLocal)
	}
	if h.snapshots != nil {
		mux.HandleFunc("POST /debug/snapshot", h.Snapshot)
		mux.HandleFunc("GET /debug/snapshot/{key...}", h.GetSnapshot)
		mux.HandleFunc("DELETE /debug/snapshot/{key...}", h.DeleteSnapshot)
	}

	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "udyami-api"})
}

// Users

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if !decode(w, r, &u) {
		return
	}
	if u.PhoneNumber == "" {
		http.Error(w, "phoneNumber is required", http.StatusBadRequest)
		return
	}
	id, err := h.store.CreateUser(r.Context(), u)
	h.created(w, "create user", id, err)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.Users(r.Context())
	h.list(w, "list users", users, err)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.UserByID(r.Context(), r.PathValue("id"))
	h.one(w, "get user", u, err)
}

func (h *Handler) GetUserByPhone(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.UserByPhone(r.Context(), r.PathValue("phone"))
	h.one(w, "get user by phone", u, err)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if !decode(w, r, &patch) {
		return
	}
	id := r.PathValue("id")
	if err := h.store.UpdateUser(r.Context(), id, patch); err != nil {
		h.fail(w, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Jobs

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var j domain.Job
	if !decode(w, r, &j) {
		return
	}
	if j.Title == "" || j.Skill == "" {
		http.Error(w, "title and skill are required", http.StatusBadRequest)
		return
	}
	id, err := h.store.CreateJob(r.Context(), j)
	if err != nil {
		h.fail(w, "create job", err)
		return
	}
	if h.onJobCreated != nil {
		j.ID = id
		h.onJobCreated(r.Context(), j)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var (
		jobs []domain.Job
		err  error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		jobs, err = h.store.JobsByUser(r.Context(), userID)
	} else {
		jobs, err = h.store.Jobs(r.Context())
	}
	h.list(w, "list jobs", jobs, err)
}

func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.JobStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		http.Error(w, domain.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if err := h.store.UpdateJobStatus(r.Context(), id, req.Status); err != nil {
		h.fail(w, "update job status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

// Sellers

func (h *Handler) CreateSeller(w http.ResponseWriter, r *http.Request) {
	var s domain.Seller
	if !decode(w, r, &s) {
		return
	}
	id, err := h.store.CreateSeller(r.Context(), s)
	h.created(w, "create seller", id, err)
}

func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.store.Sellers(r.Context())
	h.list(w, "list sellers", sellers, err)
}

func (h *Handler) GetSeller(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.SellerByID(r.Context(), r.PathValue("id"))
	h.one(w, "get seller", s, err)
}

// Services

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var s domain.Service
	if !decode(w, r, &s) {
		return
	}
	id, err := h.store.CreateService(r.Context(), s)
	h.created(w, "create service", id, err)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	var (
		services []domain.Service
		err      error
	)
	if sellerID := r.URL.Query().Get("sellerId"); sellerID != "" {
		services, err = h.store.ServicesBySeller(r.Context(), sellerID)
	} else {
		services, err = h.store.Services(r.Context())
	}
	h.list(w, "list services", services, err)
}

// Follows

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SellerID   string `json:"sellerId"`
		FollowerID string `json:"followerId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.SellerID == "" || req.FollowerID == "" {
		http.Error(w, "sellerId and followerId are required", http.StatusBadRequest)
		return
	}
	if err := h.store.FollowSeller(r.Context(), req.FollowerID, req.SellerID); err != nil {
		h.fail(w, "follow seller", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.store.UnfollowSeller(r.Context(), r.PathValue("followerId"), r.PathValue("sellerId")); err != nil {
		h.fail(w, "unfollow seller", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FollowedSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.store.FollowedSellers(r.Context(), r.PathValue("userId"))
	h.list(w, "followed sellers", sellers, err)
}

// Notifications

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var n domain.StoredNotification
	if !decode(w, r, &n) {
		return
	}
	if n.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	id, err := h.store.CreateNotification(r.Context(), n)
	h.created(w, "create notification", id, err)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.NotificationsByUser(r.Context(), r.PathValue("userId"))
	h.list(w, "list notifications", items, err)
}

// Debug

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAllData(r.Context()); err != nil {
		h.fail(w, "clear data", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AllData(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.AllData(r.Context())
	if err != nil {
		h.fail(w, "all data", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.AllData(r.Context())
	if err != nil {
		h.fail(w, "snapshot", err)
		return
	}
	key, location, err := h.snapshots.ExportJSON(r.Context(), "snapshots", data)
	if err != nil {
		h.fail(w, "snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key, "location": location})
}

// GetSnapshot returns a stored dataset, or with ?link a temporary download URL.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if r.URL.Query().Has("link") {
		url, err := h.snapshots.DownloadURL(r.Context(), key, snapshotLinkTTL)
		if err != nil {
			h.snapshotFail(w, "snapshot link", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
		return
	}

	var data domain.Dataset
	if err := h.snapshots.ReadJSON(r.Context(), key, &data); err != nil {
		h.snapshotFail(w, "read snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Delete(r.Context(), r.PathValue("key")); err != nil {
		h.snapshotFail(w, "delete snapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) snapshotFail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "snapshot not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrInvalid):
		http.Error(w, "invalid snapshot key", http.StatusBadRequest)
	default:
		h.fail(w, op, err)
	}
}

// Store selection

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"database":  h.status.DatabaseStatus(),
		"useRemote": h.status.UsingRemote(),
	})
}

func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	ok := h.status.ReconnectToCloud(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": ok,
		"database":  h.status.DatabaseStatus(),
	})
}

func (h *Handler) ForceLocal(w http.ResponseWriter, r *http.Request) {
	if err := h.status.ForceInitializeLocal(r.Context()); err != nil {
		h.fail(w, "force local", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"database": h.status.DatabaseStatus()})
}

// helpers

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.logger.Error(op+" failed", "error", err)
	http.Error(w, "failed to "+op, http.StatusInternalServerError)
}

func (h *Handler) created(w http.ResponseWriter, op, id string, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) list(w http.ResponseWriter, op string, items any, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) one(w http.ResponseWriter, op string, item any, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
