package domain

import (
	"fmt"
	"strings"
	"time"
)

// Test case status values.
const (
	StatusDraft      = "draft"
	StatusActive     = "active"
	StatusBlocked    = "blocked"
	StatusDeprecated = "deprecated"
)

// Test case priority values.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Test case type values.
const (
	TypeFunctional  = "functional"
	TypePerformance = "performance"
	TypeSecurity    = "security"
	TypeRegression  = "regression"
	TypeManual      = "manual"
	TypeAutomated   = "automated"
)

// Statuses, Priorities and Types enumerate every valid value in a stable
// order. Distributions are keyed off these slices so histograms always
// carry every bucket, including empty ones.
var (
	Statuses   = []string{StatusDraft, StatusActive, StatusBlocked, StatusDeprecated}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	Types      = []string{TypeFunctional, TypePerformance, TypeSecurity, TypeRegression, TypeManual, TypeAutomated}
)

const (
	MaxTitleLength = 200
	MaxSteps       = 50
	MaxResults     = 50
	MaxTags        = 20
	MaxTagFilters  = 10
)

// TestCase is a single documented test scenario within a project.
type TestCase struct {
	ID                int64     `json:"id"`
	ProjectID         int64     `json:"project_id"`
	CreatedBy         int64     `json:"created_by"`
	UpdatedBy         *int64    `json:"updated_by"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	Type              string    `json:"type"`
	Preconditions     string    `json:"preconditions,omitempty"`
	Steps             []string  `json:"steps"`
	ExpectedResults   []string  `json:"expected_results"`
	EstimatedDuration *int      `json:"estimated_duration"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateTestCase carries the fields accepted when creating a test case.
type CreateTestCase struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Status            string   `json:"status"`
	Priority          string   `json:"priority"`
	Type              string   `json:"type"`
	Preconditions     string   `json:"preconditions"`
	Steps             []string `json:"steps"`
	ExpectedResults   []string `json:"expected_results"`
	EstimatedDuration *int     `json:"estimated_duration"`
	Tags              []string `json:"tags"`
}

// ApplyDefaults fills the enum fields left empty by the caller.
func (c *CreateTestCase) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if c.Type == "" {
		c.Type = TypeFunctional
	}
}

// Validate checks the payload against the data-model invariants.
func (c *CreateTestCase) Validate() error {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(c.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}
	if !ValidStatus(c.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}
	if !ValidPriority(c.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, c.Priority)
	}
	if !ValidType(c.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, c.Type)
	}
	if len(c.Steps) > MaxSteps {
		return fmt.Errorf("%w: maximum %d steps allowed", ErrInvalidInput, MaxSteps)
	}
	if len(c.ExpectedResults) > MaxResults {
		return fmt.Errorf("%w: maximum %d expected results allowed", ErrInvalidInput, MaxResults)
	}
	if len(c.Tags) > MaxTags {
		return fmt.Errorf("%w: maximum %d tags allowed", ErrInvalidInput, MaxTags)
	}
	if c.EstimatedDuration != nil && *c.EstimatedDuration < 0 {
		return fmt.Errorf("%w: estimated duration must be non-negative", ErrInvalidInput)
	}
	return nil
}

// UpdateTestCase is a partial update. nil means "leave unchanged"; a
// non-nil empty string or empty list clears or replaces the field
// wholesale.
type UpdateTestCase struct {
	Title             *string   `json:"title"`
	Description       *string   `json:"description"`
	Status            *string   `json:"status"`
	Priority          *string   `json:"priority"`
	Type              *string   `json:"type"`
	Preconditions     *string   `json:"preconditions"`
	Steps             *[]string `json:"steps"`
	ExpectedResults   *[]string `json:"expected_results"`
	EstimatedDuration *int      `json:"estimated_duration"`
	Tags              *[]string `json:"tags"`
}

// Validate checks only the fields that are present.
func (u *UpdateTestCase) Validate() error {
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		if len(*u.Title) > MaxTitleLength {
			return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
		}
	}
	if u.Status != nil && !ValidStatus(*u.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *u.Status)
	}
	if u.Priority != nil && !ValidPriority(*u.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *u.Priority)
	}
	if u.Type != nil && !ValidType(*u.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *u.Type)
	}
	if u.Steps != nil && len(*u.Steps) > MaxSteps {
		return fmt.Errorf("%w: maximum %d steps allowed", ErrInvalidInput, MaxSteps)
	}
	if u.ExpectedResults != nil && len(*u.ExpectedResults) > MaxResults {
		return fmt.Errorf("%w: maximum %d expected results allowed", ErrInvalidInput, MaxResults)
	}
	if u.Tags != nil && len(*u.Tags) > MaxTags {
		return fmt.Errorf("%w: maximum %d tags allowed", ErrInvalidInput, MaxTags)
	}
	if u.EstimatedDuration != nil && *u.EstimatedDuration < 0 {
		return fmt.Errorf("%w: estimated duration must be non-negative", ErrInvalidInput)
	}
	return nil
}

// SearchQuery holds the optional, conjunctive filters plus pagination for
// listing a project's test cases.
type SearchQuery struct {
	Page          int
	Size          int
	Title         string
	Status        string
	Priority      string
	Type          string
	Tags          []string
	CreatedBy     int64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Normalize applies pagination defaults and clamps size to [1,100].
func (q *SearchQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = 10
	}
	if q.Size > 100 {
		q.Size = 100
	}
}

// Validate checks the filter values that have a bounded domain.
func (q *SearchQuery) Validate() error {
	if q.Status != "" && !ValidStatus(q.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, q.Status)
	}
	if q.Priority != "" && !ValidPriority(q.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, q.Priority)
	}
	if q.Type != "" && !ValidType(q.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, q.Type)
	}
	if len(q.Tags) > MaxTagFilters {
		return fmt.Errorf("%w: maximum %d tag filters allowed", ErrInvalidInput, MaxTagFilters)
	}
	return nil
}

// Offset is the number of rows skipped before the requested page.
func (q *SearchQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// PageResult is one page of test cases plus the pagination bookkeeping
// the endpoint layer renders.
type PageResult struct {
	TestCases []TestCase `json:"test_cases"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	Size      int        `json:"size"`
	HasNext   bool       `json:"has_next"`
	HasPrev   bool       `json:"has_prev"`
}

// Stats aggregates a project's test cases. The three enum distributions
// carry every possible value, zeroes included; the creator distribution
// is sparse.
type Stats struct {
	Total                int64            `json:"total_test_cases"`
	StatusDistribution   map[string]int64 `json:"status_distribution"`
	PriorityDistribution map[string]int64 `json:"priority_distribution"`
	TypeDistribution     map[string]int64 `json:"type_distribution"`
	CreatorDistribution  map[int64]int64  `json:"creator_distribution"`
}

// BulkResult is the per-item accounting of a bulk status change. Partial
// success is the expected outcome, not an error.
type BulkResult struct {
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

func ValidStatus(s string) bool   { return contains(Statuses, s) }
func ValidPriority(p string) bool { return contains(Priorities, p) }
func ValidType(t string) bool     { return contains(Types, t) }

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
