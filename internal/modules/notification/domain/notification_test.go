package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
)

func TestSeller_MatchesIsExact(t *testing.T) {
	seller := domain.Seller{ID: "104", Skills: []string{"Plumbing", "Painting"}, Location: "Delhi"}

	tests := []struct {
		name  string
		skill string
		loc   string
		want  bool
	}{
		{"exact", "Plumbing", "Delhi", true},
		{"second skill", "Painting", "Delhi", true},
		{"skill case differs", "plumbing", "Delhi", false},
		{"location case differs", "Plumbing", "delhi", false},
		{"location substring", "Plumbing", "New Delhi", false},
		{"skill substring", "Plumb", "Delhi", false},
		{"other city", "Plumbing", "Mumbai", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seller.Matches(domain.JobSnapshot{Skill: tt.skill, Location: tt.loc}))
		})
	}
}

func TestNotification_Constructors(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	job := domain.JobSnapshot{ID: "402", Title: "Install Sink", Skill: "Plumbing", Location: "Chennai"}

	n := domain.NewSellerJobNotification(job, domain.Seller{ID: "114"}, now)
	assert.Equal(t, "seller_job_402_114", n.ID)
	assert.Equal(t, "New job for Plumbing in your area!", n.Title)
	assert.Equal(t, "A buyer in Chennai is looking for Plumbing work.", n.Message)
	assert.True(t, n.Unread())

	r := domain.NewBuyerReminder(job, now)
	assert.Equal(t, "buyer_reminder_402", r.ID)
	assert.Equal(t, "Did you get an Udyami to fulfil your task?", r.Title)
	assert.Equal(t, `It's been 24 hours since you posted "Install Sink". Check if you found someone for the job.`, r.Message)

	f := domain.NewBuyerFollowup(job, now.Add(3*time.Hour), now)
	assert.Equal(t, domain.FollowupID("402", now.Add(3*time.Hour)), f.ID)
	assert.Equal(t, domain.NotificationTypeBuyerFollowup, f.Type)
}

func TestNotification_VisibleTo(t *testing.T) {
	seller := domain.Notification{Type: domain.NotificationTypeSellerJob}
	reminder := domain.Notification{Type: domain.NotificationTypeBuyerReminder}
	followup := domain.Notification{Type: domain.NotificationTypeBuyerFollowup}
	dismissed := domain.Notification{Type: domain.NotificationTypeSellerJob, Dismissed: true}

	assert.True(t, seller.VisibleTo(domain.RoleSeller))
	assert.False(t, seller.VisibleTo(domain.RoleBuyer))
	assert.True(t, reminder.VisibleTo(domain.RoleBuyer))
	assert.True(t, followup.VisibleTo(domain.RoleBuyer))
	assert.False(t, dismissed.VisibleTo(domain.RoleSeller))
	assert.False(t, seller.VisibleTo("admin"))
}

func TestDefaultRosterAndDemoJobs(t *testing.T) {
	sellers, err := domain.DefaultRoster().Sellers(context.Background())
	require.NoError(t, err)
	assert.Len(t, sellers, 10)

	now := time.Now()
	jobs := domain.DemoJobs(now)
	require.Len(t, jobs, 5)
	assert.Equal(t, 25*time.Hour, now.Sub(jobs[0].PostedAt))
	assert.Equal(t, 29*time.Hour, now.Sub(jobs[4].PostedAt))
}

func TestVisibleFeed(t *testing.T) {
	feed := []domain.Notification{
		{ID: "a", Type: domain.NotificationTypeSellerJob},
		{ID: "b", Type: domain.NotificationTypeBuyerReminder},
		{ID: "c", Type: domain.NotificationTypeBuyerFollowup},
		{ID: "d", Type: domain.NotificationTypeSellerJob, Dismissed: true},
	}

	ids := func(ns []domain.Notification) []string {
		out := []string{}
		for _, n := range ns {
			out = append(out, n.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a"}, ids(domain.VisibleFeed(feed, domain.RoleSeller)))
	assert.Equal(t, []string{"b", "c"}, ids(domain.VisibleFeed(feed, domain.RoleBuyer)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(domain.VisibleFeed(feed, "")))
}
