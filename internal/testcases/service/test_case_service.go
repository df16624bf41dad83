package service

import (
	"context"
	"fmt"
	"strings"

	projdomain "github.com/testvault-io/testvault-backend/internal/projects/domain"
	"github.com/testvault-io/testvault-backend/internal/testcases/domain"
)

// TestCaseStore is the persistence surface the service orchestrates.
type TestCaseStore interface {
	Create(ctx context.Context, data *domain.CreateTestCase, projectID, createdBy int64) (*domain.TestCase, error)
	GetByID(ctx context.Context, id int64) (*domain.TestCase, error)
	GetByIDAndProject(ctx context.Context, id, projectID int64) (*domain.TestCase, error)
	ListByProject(ctx context.Context, projectID int64, query *domain.SearchQuery) ([]domain.TestCase, int64, error)
	Update(ctx context.Context, id int64, data *domain.UpdateTestCase, updatedBy int64) (*domain.TestCase, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context, projectID int64) (int64, error)
	CountByStatus(ctx context.Context, projectID int64, status string) (int64, error)
	CountByPriority(ctx context.Context, projectID int64, priority string) (int64, error)
	CountByType(ctx context.Context, projectID int64, typ string) (int64, error)
	CreatorDistribution(ctx context.Context, projectID int64) (map[int64]int64, error)
	SearchSimilar(ctx context.Context, projectID int64, tokens []string, excludeID int64) ([]domain.TestCase, error)
}

// AccessLedger decides whether a user may act on a project. A missing
// project answers false. Deliberately narrow so the grant source can
// grow beyond ownership without touching callers.
type AccessLedger interface {
	HasAccess(ctx context.Context, userID, projectID int64) (bool, error)
	Exists(ctx context.Context, projectID int64) (bool, error)
}

// UserDirectory answers whether a user id is known.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// StatsCache caches computed project stats. Implementations must treat a
// miss as (nil, false); the service works unchanged with a nil cache.
type StatsCache interface {
	Get(ctx context.Context, projectID int64) (*domain.Stats, bool)
	Set(ctx context.Context, projectID int64, stats *domain.Stats)
	Invalidate(ctx context.Context, projectID int64)
}

// TestCaseService is the only component the endpoint layer talks to for
// test cases. Every public operation authorizes against the operation's
// project before reading or mutating anything.
type TestCaseService struct {
	store  TestCaseStore
	ledger AccessLedger
	users  UserDirectory
	cache  StatsCache
}

// NewTestCaseService creates a new test case service. cache may be nil.
func NewTestCaseService(store TestCaseStore, ledger AccessLedger, users UserDirectory, cache StatsCache) *TestCaseService {
	return &TestCaseService{store: store, ledger: ledger, users: users, cache: cache}
}

// Create validates the payload and inserts a test case into the project.
func (s *TestCaseService) Create(ctx context.Context, data *domain.CreateTestCase, projectID, userID int64) (*domain.TestCase, error) {
	data.ApplyDefaults()
	if err := data.Validate(); err != nil {
		return nil, err
	}

	known, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}

	exists, err := s.ledger.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, projdomain.ErrNotFound
	}
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}

	tc, err := s.store.Create(ctx, data, projectID, userID)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, projectID)
	return tc, nil
}

// Get returns one test case, authorizing against the project it belongs
// to rather than anything caller-supplied.
func (s *TestCaseService) Get(ctx context.Context, id, userID int64) (*domain.TestCase, error) {
	tc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, tc.ProjectID); err != nil {
		return nil, err
	}
	return tc, nil
}

// List returns one filtered page of the project's test cases.
func (s *TestCaseService) List(ctx context.Context, projectID, userID int64, query *domain.SearchQuery) (*domain.PageResult, error) {
	if query == nil {
		query = &domain.SearchQuery{}
	}
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}

	items, total, err := s.store.ListByProject(ctx, projectID, query)
	if err != nil {
		return nil, err
	}
	return &domain.PageResult{
		TestCases: items,
		Total:     total,
		Page:      query.Page,
		Size:      query.Size,
		HasNext:   int64(query.Offset()+query.Size) < total,
		HasPrev:   query.Page > 1,
	}, nil
}

// Update applies a partial update; absent fields stay untouched.
func (s *TestCaseService) Update(ctx context.Context, id, userID int64, data *domain.UpdateTestCase) (*domain.TestCase, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, existing.ProjectID); err != nil {
		return nil, err
	}

	tc, err := s.store.Update(ctx, id, data, userID)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, existing.ProjectID)
	return tc, nil
}

// Delete removes a test case, reporting whether it existed.
func (s *TestCaseService) Delete(ctx context.Context, id, userID int64) (bool, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.authorize(ctx, userID, existing.ProjectID); err != nil {
		return false, err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidateStats(ctx, existing.ProjectID)
	}
	return deleted, nil
}

// Stats aggregates the project's test cases. Enum distributions carry
// every possible value, zeroes included.
func (s *TestCaseService) Stats(ctx context.Context, projectID, userID int64) (*domain.Stats, error) {
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, projectID); ok {
			return cached, nil
		}
	}

	stats, err := s.ComputeStats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, projectID, stats)
	}
	return stats, nil
}

// ComputeStats builds the aggregation without consulting the cache. The
// cron warmer calls this directly.
func (s *TestCaseService) ComputeStats(ctx context.Context, projectID int64) (*domain.Stats, error) {
	total, err := s.store.Count(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		Total:                total,
		StatusDistribution:   make(map[string]int64, len(domain.Statuses)),
		PriorityDistribution: make(map[string]int64, len(domain.Priorities)),
		TypeDistribution:     make(map[string]int64, len(domain.Types)),
	}
	for _, status := range domain.Statuses {
		n, err := s.store.CountByStatus(ctx, projectID, status)
		if err != nil {
			return nil, err
		}
		stats.StatusDistribution[status] = n
	}
	for _, priority := range domain.Priorities {
		n, err := s.store.CountByPriority(ctx, projectID, priority)
		if err != nil {
			return nil, err
		}
		stats.PriorityDistribution[priority] = n
	}
	for _, typ := range domain.Types {
		n, err := s.store.CountByType(ctx, projectID, typ)
		if err != nil {
			return nil, err
		}
		stats.TypeDistribution[typ] = n
	}

	creators, err := s.store.CreatorDistribution(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats.CreatorDistribution = creators
	return stats, nil
}

// Similar returns up to 10 test cases in the same project whose title
// shares any token (longer than two characters) with the reference test
// case's title, newest first. Coarse on purpose; the contract is "any
// token, title substring, newest first, capped at 10".
func (s *TestCaseService) Similar(ctx context.Context, id, userID int64) ([]domain.TestCase, error) {
	reference, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, reference.ProjectID); err != nil {
		return nil, err
	}

	tokens := similarityTokens(reference.Title)
	return s.store.SearchSimilar(ctx, reference.ProjectID, tokens, id)
}

// ListByStatus returns the project's test cases holding the status,
// newest first, capped at 100.
func (s *TestCaseService) ListByStatus(ctx context.Context, projectID, userID int64, status string) ([]domain.TestCase, error) {
	if !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.listByFilter(ctx, projectID, userID, &domain.SearchQuery{Status: status})
}

// ListByPriority returns the project's test cases holding the priority,
// newest first, capped at 100.
func (s *TestCaseService) ListByPriority(ctx context.Context, projectID, userID int64, priority string) ([]domain.TestCase, error) {
	if !domain.ValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, priority)
	}
	return s.listByFilter(ctx, projectID, userID, &domain.SearchQuery{Priority: priority})
}

// ListByType returns the project's test cases holding the type, newest
// first, capped at 100.
func (s *TestCaseService) ListByType(ctx context.Context, projectID, userID int64, typ string) ([]domain.TestCase, error) {
	if !domain.ValidType(typ) {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidInput, typ)
	}
	return s.listByFilter(ctx, projectID, userID, &domain.SearchQuery{Type: typ})
}

func (s *TestCaseService) listByFilter(ctx context.Context, projectID, userID int64, query *domain.SearchQuery) ([]domain.TestCase, error) {
	query.Page = 1
	query.Size = 100
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}
	items, _, err := s.store.ListByProject(ctx, projectID, query)
	return items, err
}

// BulkSetStatus applies a status to each id independently. A missing id,
// an id from another project, or a mid-batch access failure lands in the
// per-item accounting; it never aborts the batch or rolls back earlier
// successes. The call itself fails only for an unrecognized status or a
// caller with no access to the project at all.
func (s *TestCaseService) BulkSetStatus(ctx context.Context, projectID int64, ids []int64, status string, userID int64) (*domain.BulkResult, error) {
	if !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}

	result := &domain.BulkResult{Errors: []string{}}
	for _, id := range ids {
		if _, err := s.store.GetByIDAndProject(ctx, id, projectID); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("test case %d not found", id))
			continue
		}

		// Grants can be revoked mid-batch; a revocation fails the
		// remaining items without undoing earlier ones.
		ok, err := s.ledger.HasAccess(ctx, userID, projectID)
		if err != nil || !ok {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("access denied for test case %d", id))
			continue
		}

		update := &domain.UpdateTestCase{Status: &status}
		if _, err := s.store.Update(ctx, id, update, userID); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to update test case %d", id))
			continue
		}
		result.SuccessCount++
	}

	if result.SuccessCount > 0 {
		s.invalidateStats(ctx, projectID)
	}
	return result, nil
}

func (s *TestCaseService) authorize(ctx context.Context, userID, projectID int64) error {
	ok, err := s.ledger.HasAccess(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return projdomain.ErrAccessDenied
	}
	return nil
}

func (s *TestCaseService) invalidateStats(ctx context.Context, projectID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, projectID)
	}
}

// similarityTokens splits the title on whitespace, lowercases it, and
// drops tokens of length <= 2.
func similarityTokens(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 2 {
			tokens = append(tokens, field)
		}
	}
	return tokens
}
