package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo reads the users table the auth service provisions.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

var ErrNotFound = errors.New("user not found")

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Exists reports whether the user id is known.
func (r *Repo) Exists(ctx context.Context, userID int64) (bool, error) {
	const q = `select exists (select 1 from users where id = $1);`
	var ok bool
	if err := r.db.QueryRow(ctx, q, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// GetByID returns the user or ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, userID int64) (*User, error) {
	const q = `select id, username, email, created_at from users where id = $1;`
	var u User
	err := r.db.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
