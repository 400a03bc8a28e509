package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (int64, error)
	LinkGoogle(ctx context.Context, id int64, googleID, picture string) error
	Remove(ctx context.Context, id int64) error
}

const userColumns = "id, google_id, email, name, profile_picture, is_active, created_at, updated_at"

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg).Scan(
		&u.ID,
		&u.GoogleID,
		&u.Email,
		&u.Name,
		&u.ProfilePicture,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (google_id, email, name, profile_picture)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// LinkGoogle attaches a Google identity to an existing user.
func (r *userRepository) LinkGoogle(ctx context.Context, id int64, googleID, picture string) error {
	query := `
		UPDATE users
		SET google_id = $1,
			profile_picture = COALESCE(NULLIF($2, ''), profile_picture),
			updated_at = NOW()
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, googleID, picture, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
