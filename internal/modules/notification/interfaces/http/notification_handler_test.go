package http_test

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/notification/application"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
	ws "github.com/udyami/marketplace/internal/modules/notification/infrastructure/websocket"
	notificationhttp "github.com/udyami/marketplace/internal/modules/notification/interfaces/http"
)

type feedRepoStub struct {
	feed []domain.Notification
}

func (s *feedRepoStub) Load(context.Context) ([]domain.Notification, error) { return s.feed, nil }
func (s *feedRepoStub) Save(_ context.Context, feed []domain.Notification) error {
	s.feed = feed
	return nil
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMux(t *testing.T, feed ...domain.Notification) (*stdhttp.ServeMux, *application.Engine) {
	t.Helper()
	engine := application.NewEngine(&feedRepoStub{feed: feed}, domain.DefaultRoster(),
		application.WithMatchDelay(time.Millisecond),
		application.WithClock(func() time.Time { return now }),
	)
	engine.Start(context.Background())
	t.Cleanup(engine.Stop)

	mux := stdhttp.NewServeMux()
	notificationhttp.NewNotificationHandler(engine, nil, nil).Register(mux)
	return mux, engine
}

func serve(mux *stdhttp.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func sampleFeed() []domain.Notification {
	job := domain.JobSnapshot{ID: "402", Title: "Install Sink", Skill: "Plumbing", Location: "Chennai"}
	return []domain.Notification{
		domain.NewBuyerReminder(job, now),
		domain.NewSellerJobNotification(job, domain.Seller{ID: "114"}, now),
		{ID: "old", Type: domain.NotificationTypeSellerJob, Read: true},
	}
}

func TestNotificationHandler_ListAndCount(t *testing.T) {
	mux, _ := newMux(t, sampleFeed()...)

	w := serve(mux, stdhttp.MethodGet, "/notifications?role=seller", "")
	require.Equal(t, stdhttp.StatusOK, w.Code)
	var payload struct {
		Data []domain.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Data, 2)

	w = serve(mux, stdhttp.MethodGet, "/notifications", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Data, 3)

	w = serve(mux, stdhttp.MethodGet, "/notifications?role=admin", "")
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = serve(mux, stdhttp.MethodGet, "/notifications/unread-count", "")
	var count map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &count))
	assert.Equal(t, 2, count["count"])

	w = serve(mux, stdhttp.MethodGet, "/notifications/latest", "")
	require.Equal(t, stdhttp.StatusOK, w.Code)
	var latest domain.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, domain.ReminderID("402"), latest.ID)
}

func TestNotificationHandler_Mutations(t *testing.T) {
	mux, engine := newMux(t, sampleFeed()...)
	sellerID := domain.SellerJobID("402", "114")

	w := serve(mux, stdhttp.MethodPatch, "/notifications/"+sellerID+"/read", "")
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)

	w = serve(mux, stdhttp.MethodPatch, "/notifications/missing/read", "")
	assert.Equal(t, stdhttp.StatusNotFound, w.Code)

	w = serve(mux, stdhttp.MethodPatch, "/notifications/missing/dismiss", "")
	assert.Equal(t, stdhttp.StatusNotFound, w.Code)

	w = serve(mux, stdhttp.MethodPost, "/notifications/"+sellerID+"/remind-later", "")
	assert.Equal(t, stdhttp.StatusConflict, w.Code)

	w = serve(mux, stdhttp.MethodPost, "/notifications/buyer_reminder_402/remind-later", `{"after":"soon"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = serve(mux, stdhttp.MethodPost, "/notifications/buyer_reminder_402/remind-later", `{"after":"2h"}`)
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)
	assert.Zero(t, engine.UnreadCount())
	assert.Equal(t, 1, engine.CheckReminders(now.Add(2*time.Hour)))

	w = serve(mux, stdhttp.MethodPatch, "/notifications/old/dismiss", "")
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)

	w = serve(mux, stdhttp.MethodDelete, "/notifications", "")
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)
	assert.Empty(t, engine.Notifications())

	w = serve(mux, stdhttp.MethodGet, "/notifications/latest", "")
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)
}

func TestNotificationHandler_PostJobAndReminders(t *testing.T) {
	mux, engine := newMux(t)

	w := serve(mux, stdhttp.MethodPost, "/notifications/jobs", `{"title":"Paint"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = serve(mux, stdhttp.MethodPost, "/notifications/jobs", `{`)
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = serve(mux, stdhttp.MethodPost, "/notifications/jobs", `{"id":"9","title":"Paint","skill":"Painting","location":"Chennai"}`)
	require.Equal(t, stdhttp.StatusAccepted, w.Code)
	var job domain.JobSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "9", job.ID)
	assert.Equal(t, "open", job.Status)

	require.Eventually(t, func() bool { return engine.UnreadCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	w = serve(mux, stdhttp.MethodGet, "/notifications/jobs", "")
	assert.Contains(t, w.Body.String(), `"id":"9"`)

	engine.TrackJob(domain.JobSnapshot{ID: "old", PostedAt: now.Add(-25 * time.Hour)})
	w = serve(mux, stdhttp.MethodPost, "/notifications/check-reminders", "")
	var added map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, 1, added["added"])
}

type failingFeed struct {
	notificationhttp.Feed
}

func (failingFeed) MarkAsRead(string) error { return errors.New("boom") }

func TestNotificationHandler_InternalError(t *testing.T) {
	mux := stdhttp.NewServeMux()
	notificationhttp.NewNotificationHandler(failingFeed{}, nil, nil).Register(mux)

	w := serve(mux, stdhttp.MethodPatch, "/notifications/x/read", "")
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)

	// Without a hub the websocket route is not mounted.
	w = serve(mux, stdhttp.MethodGet, "/ws", "")
	assert.Equal(t, stdhttp.StatusNotFound, w.Code)
}

func TestNotificationHandler_Subscribe(t *testing.T) {
	engine := application.NewEngine(&feedRepoStub{feed: sampleFeed()}, domain.DefaultRoster())
	engine.Start(context.Background())
	defer engine.Stop()

	hub := ws.NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	mux := stdhttp.NewServeMux()
	notificationhttp.NewNotificationHandler(engine, hub, nil).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	w := serve(mux, stdhttp.MethodGet, "/ws?role=admin", "")
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?role=buyer"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg notificationhttp.FeedMessage
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "notifications", msg.Event)
	require.Len(t, msg.Data, 1)
	assert.Equal(t, domain.ReminderID("402"), msg.Data[0].ID)
}
