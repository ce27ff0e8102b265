package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmbasket/farmbasket-backend/internal/api/handlers"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/services/mocks"
	"github.com/farmbasket/farmbasket-backend/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Anonymous(t *testing.T) {
	mockAuth := mocks.NewAuthService(t)
	handler := handlers.NewAuthHandler(mockAuth)

	t.Run("Success - Guest Session Created", func(t *testing.T) {
		// Arrange
		guestID := uuid.New()
		mockAuth.On("SignInAnonymously", mock.Anything).
			Return(&models.AuthResponse{
				Success:   true,
				Token:     "guest-token",
				ExpiresIn: 86400,
				UserID:    guestID,
				Anonymous: true,
			}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/anonymous", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.Anonymous()(w, req)

		// Assert
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.AuthResponse
		envelope := decodeData(t, w.Body.Bytes(), &resp)
		assert.True(t, envelope.Success)
		assert.Equal(t, "guest-token", resp.Token)
		assert.Equal(t, guestID, resp.UserID)
		assert.True(t, resp.Anonymous)
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		// Arrange
		mockAuth.On("SignInAnonymously", mock.Anything).
			Return(nil, errors.DatabaseError("failed to create user")).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/anonymous", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.Anonymous()(w, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, errors.ErrCodeDatabaseError, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	mockAuth := mocks.NewAuthService(t)
	handler := handlers.NewAuthHandler(mockAuth)

	t.Run("Success - Buyer Registered", func(t *testing.T) {
		// Arrange
		userID := uuid.New()
		mockAuth.On("Register", mock.Anything, mock.MatchedBy(func(r *models.RegisterRequest) bool {
			return r.Email == "anna@example.com" && r.DisplayName == "Anna"
		})).Return(&models.AuthResponse{
			Success:   true,
			Token:     "fresh-token",
			ExpiresIn: 86400,
			UserID:    userID,
		}, nil).Once()

		body, err := json.Marshal(models.RegisterRequest{
			Email:       "anna@example.com",
			Password:    "garten2026",
			DisplayName: "Anna",
		})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/register", bytes.NewBuffer(body), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Register()(w, req)

		// Assert
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.AuthResponse
		decodeData(t, w.Body.Bytes(), &resp)
		assert.Equal(t, "fresh-token", resp.Token)
		assert.Equal(t, userID, resp.UserID)
	})

	t.Run("Failure - Invalid Input", func(t *testing.T) {
		// Arrange: no password.
		body, err := json.Marshal(map[string]string{"email": "anna@example.com"})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/register", bytes.NewBuffer(body), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Register()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockAuth.AssertNotCalled(t, "Register")
	})

	t.Run("Failure - Email Already Registered", func(t *testing.T) {
		// Arrange
		mockAuth.On("Register", mock.Anything, mock.Anything).
			Return(nil, errors.DuplicateEntryError("email is already registered")).Once()

		body, err := json.Marshal(models.RegisterRequest{
			Email:       "anna@example.com",
			Password:    "garten2026",
			DisplayName: "Anna",
		})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/register", bytes.NewBuffer(body), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Register()(w, req)

		// Assert
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, errors.ErrCodeDuplicateEntry, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	mockAuth := mocks.NewAuthService(t)
	handler := handlers.NewAuthHandler(mockAuth)

	loginBody := func(t *testing.T) *bytes.Buffer {
		t.Helper()

		body, err := json.Marshal(models.LoginRequest{Email: "anna@example.com", Password: "garten2026"})
		require.NoError(t, err)

		return bytes.NewBuffer(body)
	}

	t.Run("Success - Valid Credentials", func(t *testing.T) {
		// Arrange
		userID := uuid.New()
		mockAuth.On("Login", mock.Anything, mock.MatchedBy(func(r *models.LoginRequest) bool {
			return r.Email == "anna@example.com"
		})).Return(&models.AuthResponse{Success: true, Token: "session-token", UserID: userID}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/login", loginBody(t), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Login()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		decodeData(t, w.Body.Bytes(), &resp)
		assert.Equal(t, "session-token", resp.Token)
	})

	t.Run("Failure - Wrong Password", func(t *testing.T) {
		// Arrange
		mockAuth.On("Login", mock.Anything, mock.Anything).
			Return(nil, errors.UnauthorizedError("invalid email or password")).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/login", loginBody(t), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Login()(w, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, errors.ErrCodeAuthRequired, decodeError(t, w.Body.Bytes()).Code)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		// Arrange
		mockAuth.On("Login", mock.Anything, mock.Anything).
			Return(nil, errors.TooManyRequestsError("too many login attempts")).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/login", loginBody(t), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Login()(w, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, errors.ErrCodeTooManyRequests, decodeError(t, w.Body.Bytes()).Code)
	})

	t.Run("Failure - Malformed Body", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"), nil)
		w := httptest.NewRecorder()

		// Act
		handler.Login()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockAuth.AssertNotCalled(t, "Login")
	})
}
