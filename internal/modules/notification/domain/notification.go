package domain

import (
	"errors"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationTypeSellerJob     NotificationType = "seller_job"
	NotificationTypeBuyerReminder NotificationType = "buyer_reminder"
	NotificationTypeBuyerFollowup NotificationType = "buyer_followup"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// JobSnapshot is the job as it was when a notification was raised.
type JobSnapshot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Skill       string    `json:"skill"`
	BudgetMin   float64   `json:"budgetMin"`
	BudgetMax   float64   `json:"budgetMax"`
	Timeline    string    `json:"timeline,omitempty"`
	Location    string    `json:"location"`
	BuyerID     string    `json:"buyerId"`
	Status      string    `json:"status"`
	PostedAt    time.Time `json:"postedAt"`
	Applicants  int       `json:"applicants"`
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	JobData   *JobSnapshot     `json:"jobData,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	Dismissed bool             `json:"dismissed"`
}

// Unread reports whether the notification still needs the user's attention.
func (n Notification) Unread() bool {
	return !n.Read && !n.Dismissed
}

// VisibleTo reports whether the notification belongs in role's feed.
func (n Notification) VisibleTo(role Role) bool {
	if n.Dismissed {
		return false
	}
	switch role {
	case RoleSeller:
		return n.Type == NotificationTypeSellerJob
	case RoleBuyer:
		return n.Type == NotificationTypeBuyerReminder || n.Type == NotificationTypeBuyerFollowup
	}
	return false
}

// VisibleFeed keeps the notifications role's screen shows, in feed order.
// An empty role keeps everything.
func VisibleFeed(feed []Notification, role Role) []Notification {
	out := make([]Notification, 0, len(feed))
	for _, n := range feed {
		if role == "" || n.VisibleTo(role) {
			out = append(out, n)
		}
	}
	return out
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotReminder          = errors.New("notification is not a buyer reminder")
)

func SellerJobID(jobID, sellerID string) string {
	return fmt.Sprintf("seller_job_%s_%s", jobID, sellerID)
}

func ReminderID(jobID string) string {
	return "buyer_reminder_" + jobID
}

func FollowupID(jobID string, due time.Time) string {
	return fmt.Sprintf("buyer_followup_%s_%d", jobID, due.Unix())
}

func NewSellerJobNotification(job JobSnapshot, seller Seller, now time.Time) Notification {
	return Notification{
		ID:        SellerJobID(job.ID, seller.ID),
		Type:      NotificationTypeSellerJob,
		Title:     fmt.Sprintf("New job for %s in your area!", job.Skill),
		Message:   fmt.Sprintf("A buyer in %s is looking for %s work.", job.Location, job.Skill),
		JobData:   &job,
		Timestamp: now,
	}
}

func NewBuyerReminder(job JobSnapshot, now time.Time) Notification {
	return Notification{
		ID:        ReminderID(job.ID),
		Type:      NotificationTypeBuyerReminder,
		Title:     "Did you get an Udyami to fulfil your task?",
		Message:   fmt.Sprintf("It's been 24 hours since you posted \"%s\". Check if you found someone for the job.", job.Title),
		JobData:   &job,
		Timestamp: now,
	}
}

func NewBuyerFollowup(job JobSnapshot, due, now time.Time) Notification {
	return Notification{
		ID:        FollowupID(job.ID, due),
		Type:      NotificationTypeBuyerFollowup,
		Title:     "Still looking for an Udyami?",
		Message:   fmt.Sprintf("You asked us to check back about \"%s\". Did you find someone for the job?", job.Title),
		JobData:   &job,
		Timestamp: now,
	}
}
