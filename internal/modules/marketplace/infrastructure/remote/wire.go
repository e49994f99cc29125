package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
)

// flexID decodes ids sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type idResponse struct {
	ID flexID `json:"id"`
}

// wireJob is every job shape the backend has served. Legacy fields are
// snake_case buyer/budget/posted keys, a combined "budget" string and an
// applicant count instead of ids.
type wireJob struct {
	ID           flexID          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Skill        string          `json:"skill"`
	BudgetMin    *float64        `json:"budgetMin"`
	BudgetMax    *float64        `json:"budgetMax"`
	BudgetMinOld *float64        `json:"budget_min"`
	BudgetMaxOld *float64        `json:"budget_max"`
	Budget       string          `json:"budget"`
	Timeline     string          `json:"timeline"`
	Location     string          `json:"location"`
	BuyerID      flexID          `json:"buyerId"`
	BuyerIDOld   flexID          `json:"buyer_id"`
	PostedBy     string          `json:"postedBy"`
	Status       string          `json:"status"`
	PostedAt     *time.Time      `json:"postedAt"`
	PostedAtOld  *time.Time      `json:"posted_at"`
	Applicants   json.RawMessage `json:"applicants"`
	CreatedAt    *time.Time      `json:"createdAt"`
	UpdatedAt    *time.Time      `json:"updatedAt"`
}

func (w wireJob) toDomain() domain.Job {
	j := domain.Job{
		ID:          string(w.ID),
		Title:       w.Title,
		Description: w.Description,
		Skill:       w.Skill,
		Timeline:    w.Timeline,
		Location:    w.Location,
		BuyerID:     firstNonEmpty(string(w.BuyerID), string(w.BuyerIDOld)),
		PostedBy:    w.PostedBy,
		Status:      domain.JobStatus(w.Status),
		Applicants:  []string{},
	}
	if j.Status == "" {
		j.Status = domain.JobOpen
	}

	lo, hi := parseBudget(w.Budget)
	j.BudgetMin = firstFloat(w.BudgetMin, w.BudgetMinOld, lo)
	j.BudgetMax = firstFloat(w.BudgetMax, w.BudgetMaxOld, hi)

	if t := firstTime(w.PostedAt, w.PostedAtOld, w.CreatedAt); t != nil {
		j.PostedAt = *t
	}
	if w.CreatedAt != nil {
		j.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		j.UpdatedAt = *w.UpdatedAt
	}

	// A numeric applicant count carries no ids and is dropped.
	var ids []string
	if len(w.Applicants) > 0 && json.Unmarshal(w.Applicants, &ids) == nil && ids != nil {
		j.Applicants = ids
	}
	return j
}

func toDomainJobs(in []wireJob) []domain.Job {
	out := make([]domain.Job, 0, len(in))
	for _, w := range in {
		out = append(out, w.toDomain())
	}
	return out
}

// parseBudget reads the first two numbers of strings like "₹1,000 - ₹2,500".
func parseBudget(s string) (*float64, *float64) {
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	var nums []float64
	for _, f := range fields {
		if n, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, n)
		}
	}
	switch len(nums) {
	case 0:
		return nil, nil
	case 1:
		return &nums[0], &nums[0]
	default:
		return &nums[0], &nums[1]
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstTime(vals ...*time.Time) *time.Time {
	for _, v := range vals {
		if v != nil && !v.IsZero() {
			return v
		}
	}
	return nil
}

type wireDataset struct {
	Users         []domain.User               `json:"users"`
	Jobs          []wireJob                   `json:"jobs"`
	Sellers       []domain.Seller             `json:"sellers"`
	Services      []domain.Service            `json:"services"`
	Follows       []domain.Follow             `json:"follows"`
	Notifications []domain.StoredNotification `json:"notifications"`
}

func (w wireDataset) toDomain() *domain.Dataset {
	return &domain.Dataset{
		Users:         nonNil(w.Users),
		Jobs:          toDomainJobs(w.Jobs),
		Sellers:       nonNil(w.Sellers),
		Services:      nonNil(w.Services),
		Follows:       nonNil(w.Follows),
		Notifications: nonNil(w.Notifications),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
