package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/testvault-io/testvault-backend/internal/projects/domain"
)

// ProjectRepository provides persistence operations for projects.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, coalesce(description, ''), status, owner_id, created_at, updated_at`

// Create inserts a new project owned by the given user.
func (r *ProjectRepository) Create(ctx context.Context, data *domain.CreateProject, ownerID int64) (*domain.Project, error) {
	const q = `
INSERT INTO projects (name, description, status, owner_id)
VALUES ($1, NULLIF($2, ''), $3, $4)
RETURNING ` + projectColumns + `;
`
	return scanProject(r.db.QueryRowContext(ctx, q, data.Name, data.Description, data.Status, ownerID))
}

// GetByID returns the project or domain.ErrNotFound.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByOwner returns all projects owned by the given user, newest first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields and refreshes updated_at. Returns
// domain.ErrNotFound if no such project exists.
func (r *ProjectRepository) Update(ctx context.Context, id int64, data *domain.UpdateProject) (*domain.Project, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data.Name != nil {
		current.Name = *data.Name
	}
	if data.Description != nil {
		current.Description = *data.Description
	}
	if data.Status != nil {
		current.Status = *data.Status
	}

	const q = `
UPDATE projects
SET name = $2, description = NULLIF($3, ''), status = $4, updated_at = now()
WHERE id = $1
RETURNING ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, current.Name, current.Description, current.Status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a project. Test cases go with it via the FK cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM projects WHERE id = $1;`
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

// HasAccess reports whether the user may act on the project. A missing
// project yields false, never an error. Today the only grant is
// ownership; extending the grant source means changing only this query.
func (r *ProjectRepository) HasAccess(ctx context.Context, userID, projectID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, projectID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListActiveIDs returns the ids of all active projects. The stats
// warmer uses this to decide what to pre-compute.
func (r *ProjectRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	const q = `SELECT id FROM projects WHERE status = 'active' ORDER BY id;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int64, 0, 16)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Exists reports whether the project exists at all, regardless of owner.
func (r *ProjectRepository) Exists(ctx context.Context, projectID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, projectID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
