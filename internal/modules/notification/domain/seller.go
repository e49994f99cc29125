package domain

import (
	"context"
	"slices"
	"time"
)

type Seller struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Skills   []string `json:"skills"`
	Location string   `json:"location"`
	Phone    string   `json:"phone,omitempty"`
}

// Matches is exact and case-sensitive on both skill and location.
func (s Seller) Matches(job JobSnapshot) bool {
	return s.Location == job.Location && slices.Contains(s.Skills, job.Skill)
}

// StaticRoster is a fixed in-memory seller list.
type StaticRoster []Seller

func (r StaticRoster) Sellers(context.Context) ([]Seller, error) {
	return slices.Clone(r), nil
}

func DefaultRoster() StaticRoster {
	return StaticRoster{
		{ID: "104", Name: "Vikram", Skills: []string{"Plumbing", "Painting"}, Location: "Delhi", Phone: "9876543214"},
		{ID: "106", Name: "Manish", Skills: []string{"Electrician", "Welding"}, Location: "Bangalore", Phone: "9876543216"},
		{ID: "108", Name: "Aman", Skills: []string{"AC Repair", "Refrigeration"}, Location: "Mumbai", Phone: "9876543218"},
		{ID: "110", Name: "Rajiv", Skills: []string{"Woodwork", "Furniture"}, Location: "Kochi", Phone: "9876543220"},
		{ID: "112", Name: "Deepak", Skills: []string{"Masonry", "Tiling"}, Location: "Indore", Phone: "9876543222"},
		{ID: "114", Name: "Painter", Skills: []string{"Painting", "Interior"}, Location: "Chennai", Phone: "9876543224"},
		{ID: "116", Name: "Gardener", Skills: []string{"Gardening", "Landscaping"}, Location: "Lucknow", Phone: "9876543226"},
		{ID: "118", Name: "Metalworker", Skills: []string{"Metalwork", "Welding"}, Location: "Kolkata", Phone: "9876543228"},
		{ID: "120", Name: "Repairman", Skills: []string{"Repair", "General Maintenance"}, Location: "Asansol", Phone: "9876543230"},
		{ID: "122", Name: "Security", Skills: []string{"CCTV", "Security Systems"}, Location: "Hyderabad", Phone: "9876543232"},
	}
}

// DemoJobs returns five open jobs posted 25 to 29 hours before now.
func DemoJobs(now time.Time) []JobSnapshot {
	ago := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour) }
	return []JobSnapshot{
		{ID: "402", Title: "Install Sink", Description: "Kitchen sink with tap", Skill: "Plumbing", BudgetMin: 1000, BudgetMax: 2500, Timeline: "2 days", Location: "Chennai", BuyerID: "103", Status: "open", Applicants: 2, PostedAt: ago(25)},
		{ID: "403", Title: "Fan Installation", Description: "Install ceiling fan", Skill: "Electrician", BudgetMin: 400, BudgetMax: 800, Timeline: "1 day", Location: "Delhi", BuyerID: "105", Status: "open", Applicants: 1, PostedAt: ago(26)},
		{ID: "404", Title: "Paint Bedroom", Description: "Repaint entire bedroom", Skill: "Painting", BudgetMin: 1500, BudgetMax: 3000, Timeline: "3 days", Location: "Lucknow", BuyerID: "107", Status: "open", Applicants: 2, PostedAt: ago(27)},
		{ID: "405", Title: "Tiling Kitchen", Description: "Backsplash wall tiling", Skill: "Tiling", BudgetMin: 2000, BudgetMax: 3500, Timeline: "2 days", Location: "Mumbai", BuyerID: "109", Status: "open", Applicants: 1, PostedAt: ago(28)},
		{ID: "406", Title: "Security Setup", Description: "Install CCTV camera", Skill: "CCTV", BudgetMin: 5000, BudgetMax: 10000, Timeline: "1 day", Location: "Kochi", BuyerID: "111", Status: "open", Applicants: 3, PostedAt: ago(29)},
	}
}
