package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	repository "github.com/farmbasket/farmbasket-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserRepo(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewUserRepo(db)
	assert.NotNil(t, repo, "NewUserRepo should return a non-nil repository")
}

func TestUserRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewUserRepo(db)
	ctx := context.Background()

	insertSQL := regexp.QuoteMeta(`
		INSERT INTO users(id, email, password_hash, anonymous, created_at, updated_at)
		VALUES($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`)

	t.Run("CreateUser_Success", func(t *testing.T) {
		// Arrange
		user := &models.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			PasswordHash: "hashedpassword",
		}
		now := time.Now()

		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, user.Email, user.PasswordHash, false).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(now, now))

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		require.NoError(t, err, "CreateUser should not return an error on success")
		assert.WithinDuration(t, now, user.CreatedAt, time.Second, "User CreatedAt should be updated")
		assert.WithinDuration(t, now, user.UpdatedAt, time.Second, "User UpdatedAt should be updated")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("CreateUser_AnonymousStoresNullEmail", func(t *testing.T) {
		// Arrange
		user := &models.User{
			ID:        uuid.New(),
			Anonymous: true,
		}
		now := time.Now()

		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, nil, "", true).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(now, now))

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		require.NoError(t, err, "CreateUser should not return an error for a guest user")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("CreateUser_DuplicateEmail", func(t *testing.T) {
		// Arrange
		user := &models.User{
			ID:           uuid.New(),
			Email:        "taken@example.com",
			PasswordHash: "hashedpassword",
		}

		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, user.Email, user.PasswordHash, false).
			WillReturnError(&pq.Error{Code: "23505"})

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		require.Error(t, err, "CreateUser should fail on a duplicate email")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDuplicateEntry), "Error should carry the DuplicateEntry code")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("CreateUser_Error", func(t *testing.T) {
		// Arrange
		user := &models.User{
			ID:           uuid.New(),
			Email:        "error@example.com",
			PasswordHash: "hashedpassword",
		}
		dbError := errors.New("database insertion error")

		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, user.Email, user.PasswordHash, false).
			WillReturnError(dbError)

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		require.Error(t, err, "CreateUser should return an error")
		assert.ErrorIs(t, err, dbError, "Returned error should wrap the database error")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("GetUserByEmail_Success", func(t *testing.T) {
		// Arrange
		email := "findme@example.com"
		expectedUser := &models.User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: "hashedpassword",
			CreatedAt:    time.Now().Add(-time.Hour),
			UpdatedAt:    time.Now(),
		}

		expectedSQL := regexp.QuoteMeta(`SELECT id, email, password_hash, anonymous, created_at, updated_at
			  FROM users
			  WHERE email = $1`)

		rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "anonymous", "created_at", "updated_at"}).
			AddRow(expectedUser.ID, expectedUser.Email, expectedUser.PasswordHash, false, expectedUser.CreatedAt, expectedUser.UpdatedAt)
		mock.ExpectQuery(expectedSQL).
			WithArgs(email).
			WillReturnRows(rows)

		// Act
		user, err := repo.GetUserByEmail(ctx, email)

		// Assert
		require.NoError(t, err, "GetUserByEmail should not return an error when user is found")
		assert.Equal(t, expectedUser, user, "Returned user should match the expected user")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("GetUserByEmail_NotFound", func(t *testing.T) {
		// Arrange
		email := "notfound@example.com"

		expectedSQL := regexp.QuoteMeta(`SELECT id, email, password_hash, anonymous, created_at, updated_at
			  FROM users
			  WHERE email = $1`)

		mock.ExpectQuery(expectedSQL).
			WithArgs(email).
			WillReturnError(sql.ErrNoRows)

		// Act
		user, err := repo.GetUserByEmail(ctx, email)

		// Assert
		require.Error(t, err, "GetUserByEmail should return an error when user is not found")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound), "Error should carry the NotFound code")
		assert.Nil(t, user, "Returned user should be nil when not found")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("GetUserById_Success", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		expectedSQL := regexp.QuoteMeta(`
	SELECT id, email, password_hash, anonymous, created_at, updated_at
	FROM users
	WHERE id = $1
	`)

		// A guest user row carries a NULL email.
		rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "anonymous", "created_at", "updated_at"}).
			AddRow(userID, nil, "", true, time.Now().Add(-2*time.Hour), time.Now())
		mock.ExpectQuery(expectedSQL).
			WithArgs(userID).
			WillReturnRows(rows)

		// Act
		user, err := repo.GetUserByID(ctx, userID)

		// Assert
		require.NoError(t, err, "GetUserByID should not return an error when user is found")
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Empty(t, user.Email, "A NULL email should come back empty")
		assert.True(t, user.Anonymous)
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("GetUserById_NotFound", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		expectedSQL := regexp.QuoteMeta(`
	SELECT id, email, password_hash, anonymous, created_at, updated_at
	FROM users
	WHERE id = $1
	`)

		mock.ExpectQuery(expectedSQL).
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		// Act
		user, err := repo.GetUserByID(ctx, userID)

		// Assert
		require.Error(t, err, "GetUserByID should return an error when user is not found")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound), "Error should carry the NotFound code")
		assert.Nil(t, user, "Returned user should be nil when not found")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	linkSQL := regexp.QuoteMeta(`
		UPDATE users
		SET email = $1, password_hash = $2, anonymous = FALSE, updated_at = NOW()
		WHERE id = $3 AND anonymous = TRUE
		RETURNING password_hash, created_at, updated_at
	`)

	t.Run("LinkAccount_Success", func(t *testing.T) {
		// Arrange
		userID := uuid.New()
		email := "upgraded@example.com"
		passwordHash := "hashedpassword"
		now := time.Now()

		rows := sqlmock.NewRows([]string{"password_hash", "created_at", "updated_at"}).
			AddRow(passwordHash, now.Add(-24*time.Hour), now)
		mock.ExpectQuery(linkSQL).
			WithArgs(email, passwordHash, userID).
			WillReturnRows(rows)

		// Act
		user, err := repo.LinkAccount(ctx, userID, email, passwordHash)

		// Assert
		require.NoError(t, err, "LinkAccount should succeed for an anonymous user")
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID, "The user keeps its id across the upgrade")
		assert.Equal(t, email, user.Email)
		assert.False(t, user.Anonymous, "The user should no longer be anonymous")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("LinkAccount_AlreadyPermanent", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		mock.ExpectQuery(linkSQL).
			WithArgs("upgraded@example.com", "hashedpassword", userID).
			WillReturnError(sql.ErrNoRows)

		// Act
		user, err := repo.LinkAccount(ctx, userID, "upgraded@example.com", "hashedpassword")

		// Assert
		require.Error(t, err, "LinkAccount should fail when the user is not anonymous")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound), "Error should carry the NotFound code")
		assert.Nil(t, user, "Returned user should be nil")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("LinkAccount_EmailTaken", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		mock.ExpectQuery(linkSQL).
			WithArgs("taken@example.com", "hashedpassword", userID).
			WillReturnError(&pq.Error{Code: "23505"})

		// Act
		user, err := repo.LinkAccount(ctx, userID, "taken@example.com", "hashedpassword")

		// Assert
		require.Error(t, err, "LinkAccount should fail when the email is already registered")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDuplicateEntry), "Error should carry the DuplicateEntry code")
		assert.Nil(t, user, "Returned user should be nil")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	deleteSQL := regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)

	t.Run("DeleteUser_Success", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		mock.ExpectExec(deleteSQL).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.DeleteUser(ctx, userID)

		// Assert
		require.NoError(t, err, "DeleteUser should succeed")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("DeleteUser_NotFound", func(t *testing.T) {
		// Arrange
		userID := uuid.New()

		mock.ExpectExec(deleteSQL).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.DeleteUser(ctx, userID)

		// Assert
		require.Error(t, err, "DeleteUser should fail when no row matches")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound), "Error should carry the NotFound code")
		assert.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})
}
