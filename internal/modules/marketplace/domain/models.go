package domain

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobInProgress, JobCompleted, JobCancelled:
		return true
	}
	return false
}

type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Role        Role      `json:"role"`
	Language    string    `json:"language"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserPatch carries the fields UpdateUser may change. Nil fields are left as is.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	Language *string `json:"language,omitempty"`
	Location *string `json:"location,omitempty"`
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Skill       string    `json:"skill"`
	BudgetMin   float64   `json:"budgetMin"`
	BudgetMax   float64   `json:"budgetMax"`
	Timeline    string    `json:"timeline"`
	Location    string    `json:"location"`
	BuyerID     string    `json:"buyerId"`
	PostedBy    string    `json:"postedBy"`
	Status      JobStatus `json:"status"`
	PostedAt    time.Time `json:"postedAt"`
	Applicants  []string  `json:"applicants"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Seller struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Skills       []string  `json:"skills"`
	Location     string    `json:"location"`
	Phone        string    `json:"phone,omitempty"`
	Rating       float64   `json:"rating"`
	TotalRatings int       `json:"totalRatings"`
	Followers    int       `json:"followers"`
	Bio          string    `json:"bio,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	SellerID    string    `json:"sellerId"`
	Images      []string  `json:"images"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"followerId"`
	FollowingID string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StoredNotification is the per-user notification record kept by the marketplace
// store. It is distinct from the notification engine's in-memory feed.
type StoredNotification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Read      bool           `json:"read"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Dataset is the full debug dump of every collection.
type Dataset struct {
	Users         []User               `json:"users"`
	Jobs          []Job                `json:"jobs"`
	Sellers       []Seller             `json:"sellers"`
	Services      []Service            `json:"services"`
	Follows       []Follow             `json:"follows"`
	Notifications []StoredNotification `json:"notifications"`
}
