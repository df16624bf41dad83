package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/testvault-io/testvault-backend/internal/testcases/domain"
)

// TestCaseRepository provides persistence and query operations for test
// cases. The list-valued fields travel through domain.ListCodec on every
// read and write.
type TestCaseRepository struct {
	db    *sql.DB
	codec domain.ListCodec
}

// NewTestCaseRepository creates a new test case repository.
func NewTestCaseRepository(db *sql.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

const testCaseColumns = `id, project_id, created_by, updated_by, title,
coalesce(description, ''), status, priority, type, coalesce(preconditions, ''),
coalesce(steps, ''), coalesce(expected_results, ''), estimated_duration,
coalesce(tags, ''), created_at, updated_at`

// Create inserts a new test case into the project.
func (r *TestCaseRepository) Create(ctx context.Context, data *domain.CreateTestCase, projectID, createdBy int64) (*domain.TestCase, error) {
	const q = `
INSERT INTO test_cases
  (project_id, created_by, title, description, status, priority, type,
   preconditions, steps, expected_results, estimated_duration, tags)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
RETURNING ` + testCaseColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		projectID, createdBy, data.Title, data.Description,
		data.Status, data.Priority, data.Type, data.Preconditions,
		r.codec.Encode(data.Steps), r.codec.Encode(data.ExpectedResults),
		data.EstimatedDuration, r.codec.Encode(data.Tags),
	)
	return r.scanTestCase(row)
}

// GetByID returns the test case or domain.ErrNotFound.
func (r *TestCaseRepository) GetByID(ctx context.Context, id int64) (*domain.TestCase, error) {
	const q = `SELECT ` + testCaseColumns + ` FROM test_cases WHERE id = $1;`
	tc, err := r.scanTestCase(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tc, nil
}

// GetByIDAndProject is the project-scoped lookup used for defense in
// depth: an id from another project reads as not found.
func (r *TestCaseRepository) GetByIDAndProject(ctx context.Context, id, projectID int64) (*domain.TestCase, error) {
	const q = `SELECT ` + testCaseColumns + ` FROM test_cases WHERE id = $1 AND project_id = $2;`
	tc, err := r.scanTestCase(r.db.QueryRowContext(ctx, q, id, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tc, nil
}

// ListByProject returns one page of the project's test cases matching
// the query, newest first, plus the total match count before pagination.
// Both come from the same predicate.
func (r *TestCaseRepository) ListByProject(ctx context.Context, projectID int64, query *domain.SearchQuery) ([]domain.TestCase, int64, error) {
	where, args := buildFilter(projectID, query)

	var total int64
	countQ := `SELECT count(*) FROM test_cases WHERE ` + where + `;`
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQ := fmt.Sprintf(`
SELECT `+testCaseColumns+`
FROM test_cases
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d;
`, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQ, append(args, query.Size, query.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count returns the number of test cases in the project.
func (r *TestCaseRepository) Count(ctx context.Context, projectID int64) (int64, error) {
	const q = `SELECT count(*) FROM test_cases WHERE project_id = $1;`
	var n int64
	err := r.db.QueryRowContext(ctx, q, projectID).Scan(&n)
	return n, err
}

// CountByStatus returns the number of the project's test cases holding
// the given status.
func (r *TestCaseRepository) CountByStatus(ctx context.Context, projectID int64, status string) (int64, error) {
	return r.countByColumn(ctx, projectID, "status", status)
}

// CountByPriority returns the number of the project's test cases holding
// the given priority.
func (r *TestCaseRepository) CountByPriority(ctx context.Context, projectID int64, priority string) (int64, error) {
	return r.countByColumn(ctx, projectID, "priority", priority)
}

// CountByType returns the number of the project's test cases holding the
// given type.
func (r *TestCaseRepository) CountByType(ctx context.Context, projectID int64, typ string) (int64, error) {
	return r.countByColumn(ctx, projectID, "type", typ)
}

func (r *TestCaseRepository) countByColumn(ctx context.Context, projectID int64, column, value string) (int64, error) {
	q := fmt.Sprintf(`SELECT count(*) FROM test_cases WHERE project_id = $1 AND %s = $2;`, column)
	var n int64
	err := r.db.QueryRowContext(ctx, q, projectID, value).Scan(&n)
	return n, err
}

// CreatorDistribution returns how many test cases each creator has in
// the project. Creator identity is unbounded, so only observed creators
// appear.
func (r *TestCaseRepository) CreatorDistribution(ctx context.Context, projectID int64) (map[int64]int64, error) {
	const q = `
SELECT created_by, count(*)
FROM test_cases
WHERE project_id = $1
GROUP BY created_by;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := make(map[int64]int64)
	for rows.Next() {
		var creator, n int64
		if err := rows.Scan(&creator, &n); err != nil {
			return nil, err
		}
		dist[creator] = n
	}
	return dist, rows.Err()
}

// SearchSimilar returns up to 10 of the project's test cases whose title
// contains any of the tokens (case-insensitive), newest first. Tokens
// are expected lowercased; an empty token list matches nothing.
func (r *TestCaseRepository) SearchSimilar(ctx context.Context, projectID int64, tokens []string, excludeID int64) ([]domain.TestCase, error) {
	if len(tokens) == 0 {
		return []domain.TestCase{}, nil
	}

	args := []any{projectID, excludeID}
	ors := make([]string, 0, len(tokens))
	for _, token := range tokens {
		args = append(args, token)
		ors = append(ors, fmt.Sprintf("lower(title) LIKE '%%' || $%d || '%%'", len(args)))
	}

	q := fmt.Sprintf(`
SELECT `+testCaseColumns+`
FROM test_cases
WHERE project_id = $1 AND id <> $2 AND (%s)
ORDER BY created_at DESC, id DESC
LIMIT 10;
`, strings.Join(ors, " OR "))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

// Update applies the non-nil fields of data and always refreshes
// updated_at and updated_by, even when nothing visible changed. List
// fields replace wholesale. Returns domain.ErrNotFound for a missing id.
func (r *TestCaseRepository) Update(ctx context.Context, id int64, data *domain.UpdateTestCase, updatedBy int64) (*domain.TestCase, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data.Title != nil {
		current.Title = *data.Title
	}
	if data.Description != nil {
		current.Description = *data.Description
	}
	if data.Status != nil {
		current.Status = *data.Status
	}
	if data.Priority != nil {
		current.Priority = *data.Priority
	}
	if data.Type != nil {
		current.Type = *data.Type
	}
	if data.Preconditions != nil {
		current.Preconditions = *data.Preconditions
	}
	if data.Steps != nil {
		current.Steps = *data.Steps
	}
	if data.ExpectedResults != nil {
		current.ExpectedResults = *data.ExpectedResults
	}
	if data.EstimatedDuration != nil {
		current.EstimatedDuration = data.EstimatedDuration
	}
	if data.Tags != nil {
		current.Tags = *data.Tags
	}

	const q = `
UPDATE test_cases
SET title = $2, description = NULLIF($3, ''), status = $4, priority = $5,
    type = $6, preconditions = NULLIF($7, ''), steps = $8,
    expected_results = $9, estimated_duration = $10, tags = $11,
    updated_by = $12, updated_at = now()
WHERE id = $1
RETURNING ` + testCaseColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		id, current.Title, current.Description, current.Status,
		current.Priority, current.Type, current.Preconditions,
		r.codec.Encode(current.Steps), r.codec.Encode(current.ExpectedResults),
		current.EstimatedDuration, r.codec.Encode(current.Tags), updatedBy,
	)
	tc, err := r.scanTestCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tc, nil
}

// Delete removes a test case, reporting whether a row existed.
func (r *TestCaseRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM test_cases WHERE id = $1;`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// buildFilter renders the conjunctive WHERE clause shared by the count
// and page queries. Tag filters each match the stored JSON text against
// the quoted tag, so a case must contain every requested tag.
func buildFilter(projectID int64, query *domain.SearchQuery) (string, []any) {
	conds := []string{"project_id = $1"}
	args := []any{projectID}

	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if query.Title != "" {
		add("title LIKE '%%' || $%d || '%%'", query.Title)
	}
	if query.Status != "" {
		add("status = $%d", query.Status)
	}
	if query.Priority != "" {
		add("priority = $%d", query.Priority)
	}
	if query.Type != "" {
		add("type = $%d", query.Type)
	}
	if query.CreatedBy != 0 {
		add("created_by = $%d", query.CreatedBy)
	}
	if query.CreatedAfter != nil {
		add("created_at >= $%d", *query.CreatedAfter)
	}
	if query.CreatedBefore != nil {
		add("created_at <= $%d", *query.CreatedBefore)
	}
	for _, tag := range query.Tags {
		add("tags LIKE '%%' || $%d || '%%'", `"`+tag+`"`)
	}

	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TestCaseRepository) scanTestCase(row rowScanner) (*domain.TestCase, error) {
	var (
		tc                   domain.TestCase
		updatedBy            sql.NullInt64
		duration             sql.NullInt64
		steps, results, tags string
	)
	err := row.Scan(
		&tc.ID, &tc.ProjectID, &tc.CreatedBy, &updatedBy, &tc.Title,
		&tc.Description, &tc.Status, &tc.Priority, &tc.Type, &tc.Preconditions,
		&steps, &results, &duration, &tags, &tc.CreatedAt, &tc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if updatedBy.Valid {
		tc.UpdatedBy = &updatedBy.Int64
	}
	if duration.Valid {
		minutes := int(duration.Int64)
		tc.EstimatedDuration = &minutes
	}
	tc.Steps = r.codec.Decode(steps)
	tc.ExpectedResults = r.codec.Decode(results)
	tc.Tags = r.codec.Decode(tags)
	return &tc, nil
}

func (r *TestCaseRepository) collect(rows *sql.Rows) ([]domain.TestCase, error) {
	out := make([]domain.TestCase, 0, 16)
	for rows.Next() {
		tc, err := r.scanTestCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tc)
	}
	return out, rows.Err()
}
