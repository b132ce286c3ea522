package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
	"github.com/dukedaW/shortlinks/internal/processing/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepository struct {
	pool *pgxpool.Pool
}

func NewUsersRepository(p *db.Postgres) (*UsersRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &UsersRepository{pool: p.Pool}, nil
}

func (r *UsersRepository) Insert(ctx context.Context, email, passwordHash string) (*auth.User, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		email, passwordHash, now,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, auth.ErrEmailTaken
		}
		return nil, err
	}

	return &auth.User{ID: id, Email: email, CreatedAt: now}, nil
}

func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*auth.User, string, error) {
	var (
		user auth.User
		hash string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", auth.ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, hash, nil
}
