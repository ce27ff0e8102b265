package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/api/handlers"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/services/mocks"
	"github.com/farmbasket/farmbasket-backend/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// The basket handler runs against the real in-memory store; only the catalog
// lookup is mocked.
func setupBasketHandler(t *testing.T) (*handlers.BasketHandler, *mocks.ArticleReader, *basket.Store) {
	t.Helper()

	catalog := mocks.NewArticleReader(t)
	store := basket.NewStore(nil, nil)

	return handlers.NewBasketHandler(store, catalog), catalog, store
}

func weightArticle() *models.Article {
	return &models.Article{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Name:      "Gala Apples",
		Unit:      models.UnitKilogram,
		Price:     decimal.RequireFromString("3.90"),
		Available: true,
	}
}

func bunchArticle() *models.Article {
	return &models.Article{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Name:      "Leeks",
		Unit:      models.UnitBunch,
		Price:     decimal.RequireFromString("2.50"),
		Available: true,
	}
}

func addItemBody(t *testing.T, articleID uuid.UUID, quantity string, pieces int) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(models.AddItemRequest{
		ArticleID: articleID,
		Quantity:  decimal.RequireFromString(quantity),
		Pieces:    pieces,
	})
	require.NoError(t, err)

	return bytes.NewBuffer(body)
}

func TestBasketHandler_GetBasket(t *testing.T) {
	handler, _, store := setupBasketHandler(t)
	buyerID := uuid.New()

	t.Run("Success - Snapshot Returned", func(t *testing.T) {
		// Arrange
		article := weightArticle()
		store.AddItem(buyerID, models.LineItem{
			ArticleID: article.ID,
			Name:      article.Name,
			Unit:      article.Unit,
			UnitPrice: article.Price,
			Quantity:  decimal.NewFromInt(2),
		})

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/basket", nil, buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.GetBasket()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		assert.Equal(t, 1, snap.ItemCount)
		assert.True(t, snap.Total.Equal(decimal.RequireFromString("7.80")))
	})

	t.Run("Failure - Missing Claims", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/basket", nil, nil)
		w := httptest.NewRecorder()

		// Act
		handler.GetBasket()(w, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBasketHandler_AddItem(t *testing.T) {
	t.Run("Success - Line Built From Catalog", func(t *testing.T) {
		// Arrange
		handler, catalog, _ := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		catalog.On("GetArticle", mock.Anything, article.ID).Return(article, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/basket/items",
			addItemBody(t, article.ID, "1.5", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.AddItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		require.Len(t, snap.Items, 1)
		assert.Equal(t, "Gala Apples", snap.Items[0].Name)
		assert.True(t, snap.Items[0].UnitPrice.Equal(decimal.RequireFromString("3.90")))
		assert.True(t, snap.Total.Equal(decimal.RequireFromString("5.85")))
	})

	t.Run("Success - Pieces Drive Quantity For Bunch Articles", func(t *testing.T) {
		// Arrange
		handler, catalog, _ := setupBasketHandler(t)
		buyerID := uuid.New()
		article := bunchArticle()
		catalog.On("GetArticle", mock.Anything, article.ID).Return(article, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/basket/items",
			addItemBody(t, article.ID, "0", 3), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.AddItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 3, snap.Items[0].Pieces)
		assert.True(t, snap.Items[0].Quantity.Equal(decimal.NewFromInt(3)))
		assert.True(t, snap.Total.Equal(decimal.RequireFromString("7.50")))
	})

	t.Run("Failure - Unavailable Article", func(t *testing.T) {
		// Arrange
		handler, catalog, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		article.Available = false
		catalog.On("GetArticle", mock.Anything, article.ID).Return(article, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/basket/items",
			addItemBody(t, article.ID, "1", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.AddItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.ErrCodeValidation, decodeError(t, w.Body.Bytes()).Code)
		stored := store.Get(buyerID)
		assert.True(t, stored.IsEmpty())
	})

	t.Run("Failure - Unknown Article", func(t *testing.T) {
		// Arrange
		handler, catalog, _ := setupBasketHandler(t)
		buyerID := uuid.New()
		unknownID := uuid.New()
		catalog.On("GetArticle", mock.Anything, unknownID).
			Return(nil, errors.NotFoundError("article not found")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/basket/items",
			addItemBody(t, unknownID, "1", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.AddItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Failure - Zero Quantity", func(t *testing.T) {
		// Arrange
		handler, catalog, _ := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		catalog.On("GetArticle", mock.Anything, article.ID).Return(article, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/basket/items",
			addItemBody(t, article.ID, "0", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.AddItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.ErrCodeValidation, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestBasketHandler_UpdateQuantity(t *testing.T) {
	seedLine := func(store *basket.Store, buyerID uuid.UUID, article *models.Article, quantity string, pieces int) {
		store.AddItem(buyerID, models.LineItem{
			ArticleID: article.ID,
			Name:      article.Name,
			Unit:      article.Unit,
			UnitPrice: article.Price,
			Quantity:  decimal.RequireFromString(quantity),
			Pieces:    pieces,
		})
	}

	updateBody := func(t *testing.T, articleID uuid.UUID, quantity string, pieces int) *bytes.Buffer {
		t.Helper()

		body, err := json.Marshal(models.UpdateQuantityRequest{
			ArticleID: articleID,
			Quantity:  decimal.RequireFromString(quantity),
			Pieces:    pieces,
		})
		require.NoError(t, err)

		return bytes.NewBuffer(body)
	}

	t.Run("Success - Quantity Set", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		seedLine(store, buyerID, article, "2", 0)

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket/items",
			updateBody(t, article.ID, "4", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateQuantity()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		require.Len(t, snap.Items, 1)
		assert.True(t, snap.Items[0].Quantity.Equal(decimal.NewFromInt(4)))
	})

	t.Run("Success - Zero Removes The Line", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		seedLine(store, buyerID, article, "2", 0)

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket/items",
			updateBody(t, article.ID, "0", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateQuantity()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		assert.Equal(t, 0, snap.ItemCount)
	})

	t.Run("Success - Pieces Adjust a Bunch Line", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := bunchArticle()
		seedLine(store, buyerID, article, "3", 3)

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket/items",
			updateBody(t, article.ID, "0", 5), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateQuantity()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 5, snap.Items[0].Pieces)
		assert.True(t, snap.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("Failure - Article Not In Basket", func(t *testing.T) {
		// Arrange
		handler, _, _ := setupBasketHandler(t)
		buyerID := uuid.New()

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket/items",
			updateBody(t, uuid.New(), "4", 0), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateQuantity()(w, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestBasketHandler_RemoveItem(t *testing.T) {
	t.Run("Success - Line Removed", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		store.AddItem(buyerID, models.LineItem{
			ArticleID: article.ID,
			Name:      article.Name,
			Unit:      article.Unit,
			UnitPrice: article.Price,
			Quantity:  decimal.NewFromInt(1),
		})

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/basket/items/"+article.ID.String(),
			nil, buyerID, map[string]string{"articleId": article.ID.String()})
		w := httptest.NewRecorder()

		// Act
		handler.RemoveItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		assert.Equal(t, 0, snap.ItemCount)
	})

	t.Run("Failure - Invalid Article ID", func(t *testing.T) {
		// Arrange
		handler, _, _ := setupBasketHandler(t)
		buyerID := uuid.New()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/basket/items/not-a-uuid",
			nil, buyerID, map[string]string{"articleId": "not-a-uuid"})
		w := httptest.NewRecorder()

		// Act
		handler.RemoveItem()(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.ErrCodeBadRequest, decodeError(t, w.Body.Bytes()).Code)
	})
}

func TestBasketHandler_UpdateDetails(t *testing.T) {
	t.Run("Success - Pickup Date and Message Recorded", func(t *testing.T) {
		// Arrange
		handler, _, _ := setupBasketHandler(t)
		buyerID := uuid.New()
		pickup := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
		message := "Bitte klein schneiden"

		body, err := json.Marshal(models.UpdateBasketRequest{PickupDate: &pickup, Message: &message})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket",
			bytes.NewBuffer(body), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateDetails()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		require.NotNil(t, snap.PickupDate)
		assert.True(t, snap.PickupDate.Equal(pickup))
		assert.Equal(t, message, snap.Message)
	})

	t.Run("Success - Absent Fields Left Unchanged", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		store.SetMessage(buyerID, "keep me")

		pickup := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
		body, err := json.Marshal(models.UpdateBasketRequest{PickupDate: &pickup})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/basket",
			bytes.NewBuffer(body), buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.UpdateDetails()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		assert.Equal(t, "keep me", snap.Message)
		require.NotNil(t, snap.PickupDate)
		assert.True(t, snap.PickupDate.Equal(pickup))
	})
}

func TestBasketHandler_ClearBasket(t *testing.T) {
	t.Run("Success - Basket Emptied", func(t *testing.T) {
		// Arrange
		handler, _, store := setupBasketHandler(t)
		buyerID := uuid.New()
		article := weightArticle()
		store.AddItem(buyerID, models.LineItem{
			ArticleID: article.ID,
			Name:      article.Name,
			Unit:      article.Unit,
			UnitPrice: article.Price,
			Quantity:  decimal.NewFromInt(2),
		})
		store.SetMessage(buyerID, "stale note")

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/basket", nil, buyerID, nil)
		w := httptest.NewRecorder()

		// Act
		handler.ClearBasket()(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var snap models.Basket
		decodeData(t, w.Body.Bytes(), &snap)
		assert.Equal(t, 0, snap.ItemCount)
		assert.Empty(t, snap.Message)
		stored := store.Get(buyerID)
		assert.True(t, stored.IsEmpty())
	})
}
