package store

import "time"

// Counter names. One sequence per entity family.
const (
	SeqCompany     = "company_id"
	SeqJob         = "job_id"
	SeqCandidate   = "candidate_id"
	SeqApplication = "application_id"
	SeqFavorite    = "favorite_id"
	SeqUser        = "user_id"
)

// Work location types.
const (
	WorkLocationOnsite = "ONSITE"
	WorkLocationHybrid = "HYBRID"
	WorkLocationRemote = "REMOTE"
)

// Application statuses, in pipeline order.
var ApplicationStatuses = []string{"APPLIED", "REVIEWING", "INTERVIEW", "OFFERED", "REJECTED", "HIRED"}

// ValidApplicationStatus reports whether s is in the status enum.
func ValidApplicationStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PayPeriodFactor returns the yearly multiplier for a pay period, or 0 for
// an unknown period.
func PayPeriodFactor(period string) float64 {
	switch period {
	case "HOURLY":
		return 2080
	case "WEEKLY":
		return 52
	case "BIWEEKLY":
		return 26
	case "MONTHLY":
		return 12
	case "YEARLY":
		return 1
	}
	return 0
}

// NormalizedSalary computes ((min+max)/2) * factor(period). Returns nil when
// either bound or the period is absent/unknown.
func NormalizedSalary(minSalary, maxSalary *float64, period string) *float64 {
	if minSalary == nil || maxSalary == nil {
		return nil
	}
	factor := PayPeriodFactor(period)
	if factor == 0 {
		return nil
	}
	v := (*minSalary + *maxSalary) / 2 * factor
	return &v
}

// Company is the stored company entity. Internal row ids are never exposed.
type Company struct {
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Country     string    `json:"country,omitempty"`
	State       string    `json:"state,omitempty"`
	City        string    `json:"city,omitempty"`
	Address     string    `json:"address,omitempty"`
	URL         string    `json:"url,omitempty"`
	SizeMin     *int64    `json:"company_size_min,omitempty"`
	SizeMax     *int64    `json:"company_size_max,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is the stored job entity.
type Job struct {
	JobID            int64      `json:"job_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	MinSalary        *float64   `json:"min_salary,omitempty"`
	MaxSalary        *float64   `json:"max_salary,omitempty"`
	PayPeriod        string     `json:"pay_period,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	ListedTime       *time.Time `json:"listed_time,omitempty"`
	WorkType         string     `json:"work_type,omitempty"`
	WorkLocationType string     `json:"work_location_type,omitempty"`
	NormalizedSalary *float64   `json:"normalized_salary,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	Country          string     `json:"country,omitempty"`
	CompanyID        int64      `json:"company_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Candidate is the stored candidate profile.
type Candidate struct {
	CandidateID int64     `json:"candidate_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	LinkedinURL string    `json:"linkedin_url,omitempty"`
	Country     string    `json:"country,omitempty"`
	State       string    `json:"state,omitempty"`
	City        string    `json:"city,omitempty"`
	Headline    string    `json:"headline,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Application links a candidate to a job; company_id is derived from the job
// at creation and immutable thereafter.
type Application struct {
	ApplicationID int64     `json:"application_id"`
	JobID         int64     `json:"job_id"`
	CandidateID   int64     `json:"candidate_id"`
	CompanyID     int64     `json:"company_id"`
	Status        string    `json:"status"`
	AppliedAt     time.Time `json:"applied_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Favorite is a candidate's saved job. (candidate_id, job_id) is unique.
type Favorite struct {
	FavoriteID  int64     `json:"favorite_id"`
	CandidateID int64     `json:"candidate_id"`
	JobID       int64     `json:"job_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeaturedCompany is a curated company listing entry.
type FeaturedCompany struct {
	CompanyID int64     `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account record; the token edge resolves it into an actor.
type User struct {
	UserID       int64
	Email        string
	PasswordHash string
	Role         string
	CompanyID    *int64
	CandidateID  *int64
	CreatedAt    time.Time
}

// JobFilter carries the storage predicates built from request parameters.
type JobFilter struct {
	Country          string
	State            string
	City             string
	WorkType         string
	WorkLocationType string
	PayPeriod        string
	CompanyID        int64
	MinSalary        *float64
	MaxSalary        *float64
	MinNormSalary    *float64
	MaxNormSalary    *float64
	ListedFrom       *time.Time
	ListedTo         *time.Time
}

// CompanyFilter carries the company list predicates.
type CompanyFilter struct {
	Country string
	State   string
	City    string
	MinSize *int64
	MaxSize *int64
}

// ApplicationFilter carries application predicates, including the ownership
// scope the filter builder injects for non-admin actors.
type ApplicationFilter struct {
	CompanyID   int64
	CandidateID int64
	JobID       int64
	Status      string
	From        *time.Time
	To          *time.Time
}

// Sort is a parsed, allow-listed sort directive.
type Sort struct {
	Field string
	Desc  bool
}

// Page is a parsed pagination window.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the row offset of the window.
func (p Page) Skip() int { return (p.Page - 1) * p.Limit }

// FilterOptions is the distinct-value payload for the job filter UI.
type FilterOptions struct {
	WorkTypes         []string `json:"work_types"`
	WorkLocationTypes []string `json:"work_location_types"`
	PayPeriods        []string `json:"pay_periods"`
}

// StatusCount is a pipeline bucket: one application status and its count.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
