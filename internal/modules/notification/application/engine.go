package application

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
)

const (
	DefaultMatchDelay    = 2 * time.Second
	DefaultPollInterval  = time.Minute
	DefaultReminderAfter = 24 * time.Hour

	storeTimeout = 5 * time.Second
)

// ReminderMode decides which jobs a poll considers due for a reminder.
type ReminderMode string

const (
	// ReminderWindow only fires while the job's age is within one poll
	// interval past ReminderAfter. A poll that runs late misses the job.
	ReminderWindow ReminderMode = "window"
	// ReminderCatchUp fires on the first poll at or after ReminderAfter.
	ReminderCatchUp ReminderMode = "catch-up"
)

var notificationsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications added to the feed, by type",
	},
	[]string{"type"},
)

// Listener receives a copy of the full feed after every change.
type Listener func(feed []domain.Notification)

type Options struct {
	MatchDelay    time.Duration
	PollInterval  time.Duration
	ReminderAfter time.Duration
	ReminderMode  ReminderMode
	Clock         func() time.Time
	Logger        *slog.Logger
}

type Option func(*Options)

func WithMatchDelay(d time.Duration) Option    { return func(o *Options) { o.MatchDelay = d } }
func WithPollInterval(d time.Duration) Option  { return func(o *Options) { o.PollInterval = d } }
func WithReminderAfter(d time.Duration) Option { return func(o *Options) { o.ReminderAfter = d } }
func WithReminderMode(m ReminderMode) Option   { return func(o *Options) { o.ReminderMode = m } }
func WithClock(fn func() time.Time) Option     { return func(o *Options) { o.Clock = fn } }
func WithLogger(l *slog.Logger) Option         { return func(o *Options) { o.Logger = l } }

type listenerEntry struct {
	id int
	fn Listener
}

type followup struct {
	job domain.JobSnapshot
	due time.Time
}

// Engine owns the notification feed. It raises seller_job notifications a
// short delay after a job is posted, and buyer reminders from a periodic poll
// over the jobs it has seen.
type Engine struct {
	repo    domain.FeedRepository
	sellers domain.SellerDirectory
	opts    Options
	logger  *slog.Logger

	// broadcastMu serializes mutate so listeners never see interleaved updates.
	broadcastMu sync.Mutex

	mu            sync.Mutex
	notifications []domain.Notification
	jobs          []domain.JobSnapshot
	followups     map[string]followup
	reminded      map[string]struct{}
	listeners     []listenerEntry
	nextListener  int
	timers        map[int]*time.Timer
	nextTimer     int
	lastJobID     int64
	stopped       bool

	pollMu   sync.Mutex
	pollStop chan struct{}
	pollDone chan struct{}
}

func NewEngine(repo domain.FeedRepository, sellers domain.SellerDirectory, opts ...Option) *Engine {
	o := Options{
		MatchDelay:    DefaultMatchDelay,
		PollInterval:  DefaultPollInterval,
		ReminderAfter: DefaultReminderAfter,
		ReminderMode:  ReminderCatchUp,
		Clock:         time.Now,
		Logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}

	return &Engine{
		repo:          repo,
		sellers:       sellers,
		opts:          o,
		logger:        o.Logger.With("component", "notification_engine"),
		notifications: []domain.Notification{},
		followups:     make(map[string]followup),
		reminded:      make(map[string]struct{}),
		timers:        make(map[int]*time.Timer),
	}
}

// Start loads the persisted feed and begins polling for reminders.
// Calling Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()
	if e.pollStop != nil {
		return
	}

	e.load(ctx)

	e.mu.Lock()
	e.stopped = false
	e.mu.Unlock()

	e.pollStop = make(chan struct{})
	e.pollDone = make(chan struct{})
	go e.poll(e.pollStop, e.pollDone)
	e.logger.Info("notification engine started", "poll_interval", e.opts.PollInterval, "reminder_mode", e.opts.ReminderMode)
}

// Stop halts polling and cancels every pending seller match. Safe to call
// more than once.
func (e *Engine) Stop() {
	e.pollMu.Lock()
	if e.pollStop != nil {
		close(e.pollStop)
		<-e.pollDone
		e.pollStop, e.pollDone = nil, nil
	}
	e.pollMu.Unlock()

	e.mu.Lock()
	e.stopped = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.mu.Unlock()
}

func (e *Engine) load(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	feed, err := e.repo.Load(ctx)
	if err != nil {
		e.logger.Error("loading notifications", "error", err)
		return
	}
	if feed == nil {
		feed = []domain.Notification{}
	}
	e.mu.Lock()
	e.notifications = feed
	for _, n := range feed {
		if n.Type == domain.NotificationTypeBuyerReminder && n.JobData != nil {
			e.reminded[n.JobData.ID] = struct{}{}
		}
	}
	e.mu.Unlock()
}

func (e *Engine) poll(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.PollNow()
		}
	}
}

// Subscribe registers fn for feed updates and returns its unsubscribe func.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.mu.Lock()
	e.nextListener++
	id := e.nextListener
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = slices.DeleteFunc(e.listeners, func(l listenerEntry) bool { return l.id == id })
	}
}

// mutate applies fn to the feed under lock. When fn reports a change, every
// listener gets its own copy of the new feed and the feed is persisted.
func (e *Engine) mutate(fn func() bool) bool {
	e.broadcastMu.Lock()
	defer e.broadcastMu.Unlock()

	e.mu.Lock()
	if !fn() {
		e.mu.Unlock()
		return false
	}
	snapshot := slices.Clone(e.notifications)
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l.fn(slices.Clone(snapshot))
	}
	e.persist(snapshot)
	return true
}

func (e *Engine) persist(feed []domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.repo.Save(ctx, feed); err != nil {
		e.logger.Error("saving notifications", "error", err)
	}
}

// indexOf must be called with mu held.
func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.notifications, func(n domain.Notification) bool { return n.ID == id })
}

// prepend must be called with mu held. It reports false when id already exists.
func (e *Engine) prepend(n domain.Notification) bool {
	if e.indexOf(n.ID) >= 0 {
		return false
	}
	e.notifications = slices.Insert(e.notifications, 0, n)
	notificationsCreated.WithLabelValues(string(n.Type)).Inc()
	return true
}

func (e *Engine) Notifications() []domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.notifications)
}

// NotificationsForRole filters the feed the way each role's screen shows it.
func (e *Engine) NotificationsForRole(role domain.Role) []domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.VisibleFeed(e.notifications, role)
}

// LatestUnread returns the most recent notification that is neither read nor dismissed.
func (e *Engine) LatestUnread() (domain.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.notifications {
		if n.Unread() {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, n := range e.notifications {
		if n.Unread() {
			count++
		}
	}
	return count
}

func (e *Engine) MarkAsRead(id string) error {
	return e.update(id, func(n *domain.Notification) { n.Read = true })
}

func (e *Engine) DismissNotification(id string) error {
	return e.update(id, func(n *domain.Notification) { n.Dismissed = true })
}

func (e *Engine) update(id string, fn func(*domain.Notification)) error {
	found := e.mutate(func() bool {
		i := e.indexOf(id)
		if i < 0 {
			return false
		}
		fn(&e.notifications[i])
		return true
	})
	if !found {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (e *Engine) ClearAll() {
	e.mutate(func() bool {
		e.notifications = []domain.Notification{}
		return true
	})
}

// Jobs returns the jobs the engine is tracking for reminders.
func (e *Engine) Jobs() []domain.JobSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.jobs)
}

// TrackJob adds a job to the reminder scan without matching sellers. An
// existing job with the same id is replaced.
func (e *Engine) TrackJob(job domain.JobSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackLocked(job)
}

func (e *Engine) trackLocked(job domain.JobSnapshot) {
	if i := slices.IndexFunc(e.jobs, func(j domain.JobSnapshot) bool { return j.ID == job.ID }); i >= 0 {
		e.jobs[i] = job
		return
	}
	e.jobs = append(e.jobs, job)
}

// SimulatePostJob records a freshly posted job and schedules seller matching
// after MatchDelay. A job without an id gets the current unix-millis.
func (e *Engine) SimulatePostJob(job domain.JobSnapshot) domain.JobSnapshot {
	now := e.opts.Clock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if job.ID == "" {
		id := now.UnixMilli()
		if id <= e.lastJobID {
			id = e.lastJobID + 1
		}
		e.lastJobID = id
		job.ID = strconv.FormatInt(id, 10)
	}
	job.PostedAt = now
	job.Status = "open"
	job.Applicants = 0
	e.trackLocked(job)

	if e.stopped {
		return job
	}

	e.nextTimer++
	timerID := e.nextTimer
	e.timers[timerID] = time.AfterFunc(e.opts.MatchDelay, func() {
		e.mu.Lock()
		_, live := e.timers[timerID]
		delete(e.timers, timerID)
		e.mu.Unlock()
		if live {
			e.matchSellers(job)
		}
	})
	return job
}

func (e *Engine) matchSellers(job domain.JobSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	sellers, err := e.sellers.Sellers(ctx)
	if err != nil {
		e.logger.Error("loading sellers for matching", "job_id", job.ID, "error", err)
		return
	}

	var matches []domain.Seller
	for _, s := range sellers {
		if s.Matches(job) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return
	}

	now := e.opts.Clock()
	e.mutate(func() bool {
		added := false
		for _, s := range matches {
			if e.prepend(domain.NewSellerJobNotification(job, s, now)) {
				added = true
			}
		}
		return added
	})
	e.logger.Info("sellers matched", "job_id", job.ID, "matches", len(matches))
}

// due reports whether a job of the given age should get a reminder now.
func (e *Engine) due(age time.Duration) bool {
	if age < e.opts.ReminderAfter {
		return false
	}
	if e.opts.ReminderMode == ReminderWindow {
		return age < e.opts.ReminderAfter+e.opts.PollInterval
	}
	return true
}

// PollNow runs one reminder poll at the engine's current time.
func (e *Engine) PollNow() int {
	return e.CheckReminders(e.opts.Clock())
}

// CheckReminders runs one reminder poll at now and returns how many
// notifications it added. A job is reminded at most once for the engine's
// lifetime; clearing the feed does not make it due again.
func (e *Engine) CheckReminders(now time.Time) int {
	e.mu.Lock()
	var pending []domain.Notification
	for _, job := range e.jobs {
		if _, done := e.reminded[job.ID]; done || !e.due(now.Sub(job.PostedAt)) {
			continue
		}
		e.reminded[job.ID] = struct{}{}
		if e.indexOf(domain.ReminderID(job.ID)) < 0 {
			pending = append(pending, domain.NewBuyerReminder(job, now))
		}
	}
	for jobID, f := range e.followups {
		if !now.Before(f.due) {
			pending = append(pending, domain.NewBuyerFollowup(f.job, f.due, now))
			delete(e.followups, jobID)
		}
	}
	e.mu.Unlock()

	added := 0
	for _, n := range pending {
		if e.mutate(func() bool { return e.prepend(n) }) {
			added++
		}
	}
	return added
}

// RemindLater dismisses a buyer reminder or follow-up and schedules a
// follow-up for the same job after the given delay.
func (e *Engine) RemindLater(id string, after time.Duration) error {
	var errOut error
	e.mutate(func() bool {
		i := e.indexOf(id)
		if i < 0 {
			errOut = domain.ErrNotificationNotFound
			return false
		}
		n := &e.notifications[i]
		if n.Type != domain.NotificationTypeBuyerReminder && n.Type != domain.NotificationTypeBuyerFollowup {
			errOut = domain.ErrNotReminder
			return false
		}
		if n.JobData == nil {
			errOut = errors.New("notification has no job data")
			return false
		}
		n.Dismissed = true
		e.followups[n.JobData.ID] = followup{job: *n.JobData, due: e.opts.Clock().Add(after)}
		return true
	})
	return errOut
}
