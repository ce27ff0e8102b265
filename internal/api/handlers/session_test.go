package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/api/handlers"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/services/mocks"
	"github.com/farmbasket/farmbasket-backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSessionHandler_Bootstrap(t *testing.T) {
	mockSession := mocks.NewSessionService(t)
	handler := handlers.NewSessionHandler(mockSession)

	result := &models.BootstrapResult{
		Anonymous: false,
		Basket:    &models.Basket{},
		Steps: []models.BootstrapProgress{
			{Step: models.StepCheckingAuth},
			{Step: models.StepComplete},
		},
	}

	t.Run("Success - Bearer Token Passed Through", func(t *testing.T) {
		// Arrange
		mockSession.On("Bootstrap", mock.Anything, "session-token").Return(result, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/session/bootstrap", nil, nil)
		req.Header.Set("Authorization", "Bearer session-token")
		w := httptest.NewRecorder()

		// Act
		handler.Bootstrap()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.BootstrapResult
		envelope := decodeData(t, w.Body.Bytes(), &resp)
		assert.True(t, envelope.Success)
		assert.False(t, resp.Anonymous)
		assert.Len(t, resp.Steps, 2)
	})

	t.Run("Success - No Token Bootstraps a Guest", func(t *testing.T) {
		// Arrange
		mockSession.On("Bootstrap", mock.Anything, "").
			Return(&models.BootstrapResult{Token: "guest-token", Anonymous: true, Basket: &models.Basket{}}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/session/bootstrap", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.Bootstrap()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.BootstrapResult
		decodeData(t, w.Body.Bytes(), &resp)
		assert.Equal(t, "guest-token", resp.Token)
		assert.True(t, resp.Anonymous)
	})

	t.Run("Success - Malformed Header Treated as No Token", func(t *testing.T) {
		// Arrange
		mockSession.On("Bootstrap", mock.Anything, "").
			Return(&models.BootstrapResult{Token: "guest-token", Anonymous: true, Basket: &models.Basket{}}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/session/bootstrap", nil, nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
		w := httptest.NewRecorder()

		// Act
		handler.Bootstrap()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failure - Sequencer Aborted", func(t *testing.T) {
		// Arrange
		mockSession.On("Bootstrap", mock.Anything, "").
			Return(nil, errors.RemoteFailureError("failed to load upcoming order")).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/session/bootstrap", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.Bootstrap()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, errors.ErrCodeRemoteFailure, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestSessionHandler_PickupDates(t *testing.T) {
	mockSession := mocks.NewSessionService(t)
	handler := handlers.NewSessionHandler(mockSession)

	t.Run("Success - Offered Dates Listed", func(t *testing.T) {
		// Arrange
		berlin, err := time.LoadLocation("Europe/Berlin")
		assert.NoError(t, err)

		pickup := time.Date(2026, 8, 28, 0, 0, 0, 0, berlin)
		mockSession.On("PickupDates").Return([]models.PickupDateOption{
			{
				PickupDate:   pickup,
				DateKey:      "20260828",
				EditDeadline: time.Date(2026, 8, 26, 18, 0, 0, 0, berlin),
			},
		}).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/pickup-dates", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.PickupDates()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var options []models.PickupDateOption
		decodeData(t, w.Body.Bytes(), &options)
		assert.Len(t, options, 1)
		assert.Equal(t, "20260828", options[0].DateKey)
		assert.True(t, options[0].PickupDate.Equal(pickup))
	})
}
