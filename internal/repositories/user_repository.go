package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	models "github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LinkAccount(ctx context.Context, id uuid.UUID, email string, passwordHash string) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

// CreateUser inserts the user row. Anonymous users carry a NULL email; a
// permanent registration with an already-taken email fails with
// DuplicateEntry.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var email any
	if user.Email != "" {
		email = user.Email
	}

	query := `
		INSERT INTO users(id, email, password_hash, anonymous, created_at, updated_at)
		VALUES($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(dbCtx, query, user.ID, email, user.PasswordHash, user.Anonymous).
		Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.DuplicateEntryError("a user with this email already exists")
		}

		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}

	query := `SELECT id, email, password_hash, anonymous, created_at, updated_at
			  FROM users
			  WHERE email = $1`

	var storedEmail sql.NullString

	err := r.DB.QueryRowContext(dbCtx, query, email).
		Scan(&user.ID, &storedEmail, &user.PasswordHash, &user.Anonymous, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("user not found")
		}

		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user.Email = storedEmail.String

	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}

	query := `
	SELECT id, email, password_hash, anonymous, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	var storedEmail sql.NullString

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&user.ID, &storedEmail, &user.PasswordHash, &user.Anonymous, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("user not found")
		}

		return nil, fmt.Errorf("failed to get user by id: %w", err)

	}

	user.Email = storedEmail.String

	return user, nil
}

// LinkAccount upgrades an anonymous user in place: the id is unchanged, so
// everything keyed by it (profile, orders, basket) survives the upgrade.
func (r *userRepository) LinkAccount(ctx context.Context, id uuid.UUID, email string, passwordHash string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{ID: id, Email: email, Anonymous: false}

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, anonymous = FALSE, updated_at = NOW()
		WHERE id = $3 AND anonymous = TRUE
		RETURNING password_hash, created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, email, passwordHash, id).
		Scan(&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.DuplicateEntryError("a user with this email already exists")
		}

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("anonymous user not found")
		}

		return nil, fmt.Errorf("failed to link account: %w", err)
	}

	return user, nil
}

func (r *userRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM users WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, id)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if deletedRows == 0 {
		return appErrors.NotFoundError("user not found")
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
