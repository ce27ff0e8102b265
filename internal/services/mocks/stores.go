// Package mocks provides testify mocks for the service-layer interfaces,
// used by the service and handler tests.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type OrderStore struct {
	mock.Mock
}

func NewOrderStore(t *testing.T) *OrderStore {
	m := &OrderStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *OrderStore) PlaceOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)

	return args.Error(0)
}

func (m *OrderStore) LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, sellerID, dateKey, orderID)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderStore) GetOrderByID(ctx context.Context, sellerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, sellerID, orderID)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderStore) UpdateOrderArticles(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, items []models.LineItem, message string) (*models.Order, error) {
	args := m.Called(ctx, sellerID, dateKey, orderID, items, message)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderStore) UpdateOrderStatus(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, status models.OrderStatus) error {
	args := m.Called(ctx, sellerID, dateKey, orderID, status)

	return args.Error(0)
}

func (m *OrderStore) GetOpenEditableOrder(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, fromDateKey string) (*models.Order, error) {
	args := m.Called(ctx, sellerID, buyerID, fromDateKey)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderStore) ListOrdersByBuyer(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, page int, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, sellerID, buyerID, page, size)

	var orders []models.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]models.Order)
	}

	return orders, args.Int(1), args.Error(2)
}

type ProfileStore struct {
	mock.Mock
}

func NewProfileStore(t *testing.T) *ProfileStore {
	m := &ProfileStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *ProfileStore) CreateProfile(ctx context.Context, profile *models.BuyerProfile) error {
	args := m.Called(ctx, profile)

	return args.Error(0)
}

func (m *ProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error) {
	args := m.Called(ctx, id)

	var profile *models.BuyerProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*models.BuyerProfile)
	}

	return profile, args.Error(1)
}

func (m *ProfileStore) UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error) {
	args := m.Called(ctx, id, req)

	var profile *models.BuyerProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*models.BuyerProfile)
	}

	return profile, args.Error(1)
}

func (m *ProfileStore) SetContactEmail(ctx context.Context, id uuid.UUID, email string) error {
	args := m.Called(ctx, id, email)

	return args.Error(0)
}

func (m *ProfileStore) RegisterPlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string, orderID uuid.UUID) error {
	args := m.Called(ctx, buyerID, dateKey, orderID)

	return args.Error(0)
}

func (m *ProfileStore) RemovePlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string) error {
	args := m.Called(ctx, buyerID, dateKey)

	return args.Error(0)
}

func (m *ProfileStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type ArticleStore struct {
	mock.Mock
}

func NewArticleStore(t *testing.T) *ArticleStore {
	m := &ArticleStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *ArticleStore) ListArticles(ctx context.Context, sellerID uuid.UUID) ([]models.Article, error) {
	args := m.Called(ctx, sellerID)

	var articles []models.Article
	if args.Get(0) != nil {
		articles = args.Get(0).([]models.Article)
	}

	return articles, args.Error(1)
}

func (m *ArticleStore) GetArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) (*models.Article, error) {
	args := m.Called(ctx, sellerID, id)

	var article *models.Article
	if args.Get(0) != nil {
		article = args.Get(0).(*models.Article)
	}

	return article, args.Error(1)
}

func (m *ArticleStore) UpsertArticle(ctx context.Context, article *models.Article) error {
	args := m.Called(ctx, article)

	return args.Error(0)
}

func (m *ArticleStore) DeleteArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, sellerID, id)

	return args.Error(0)
}

type UserStore struct {
	mock.Mock
}

func NewUserStore(t *testing.T) *UserStore {
	m := &UserStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)

	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}

	return user, args.Error(1)
}

func (m *UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)

	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}

	return user, args.Error(1)
}

func (m *UserStore) LinkAccount(ctx context.Context, id uuid.UUID, email string, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, id, email, passwordHash)

	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}

	return user, args.Error(1)
}

func (m *UserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type LoginRateLimiter struct {
	mock.Mock
}

func NewLoginRateLimiter(t *testing.T) *LoginRateLimiter {
	m := &LoginRateLimiter{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *LoginRateLimiter) CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

type EmailSender struct {
	mock.Mock
}

func NewEmailSender(t *testing.T) *EmailSender {
	m := &EmailSender{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *EmailSender) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

type ArticleReader struct {
	mock.Mock
}

func NewArticleReader(t *testing.T) *ArticleReader {
	m := &ArticleReader{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *ArticleReader) Articles(ctx context.Context) ([]models.Article, error) {
	args := m.Called(ctx)

	var articles []models.Article
	if args.Get(0) != nil {
		articles = args.Get(0).([]models.Article)
	}

	return articles, args.Error(1)
}

func (m *ArticleReader) GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	args := m.Called(ctx, id)

	var article *models.Article
	if args.Get(0) != nil {
		article = args.Get(0).(*models.Article)
	}

	return article, args.Error(1)
}

type PriceIndexer struct {
	mock.Mock
}

func NewPriceIndexer(t *testing.T) *PriceIndexer {
	m := &PriceIndexer{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *PriceIndexer) PriceIndex(ctx context.Context) (map[uuid.UUID]models.Article, error) {
	args := m.Called(ctx)

	var index map[uuid.UUID]models.Article
	if args.Get(0) != nil {
		index = args.Get(0).(map[uuid.UUID]models.Article)
	}

	return index, args.Error(1)
}

// Cache mocks the cache.Cache interface. A Get expectation can populate the
// out-parameter through Run; see the catalog tests.
type Cache struct {
	mock.Mock
}

func NewCache(t *testing.T) *Cache {
	m := &Cache{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Cache) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	args := m.Called(ctx, key, value)

	return args.Bool(0), args.Error(1)
}

func (m *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)

	return args.Error(0)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)

	return args.Error(0)
}

func (m *Cache) Close() error {
	args := m.Called()

	return args.Error(0)
}
