package mocks

import (
	"context"
	"testing"

	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type AuthService struct {
	mock.Mock
}

func NewAuthService(t *testing.T) *AuthService {
	m := &AuthService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *AuthService) SignInAnonymously(ctx context.Context) (*models.AuthResponse, error) {
	args := m.Called(ctx)

	var resp *models.AuthResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*models.AuthResponse)
	}

	return resp, args.Error(1)
}

func (m *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)

	var resp *models.AuthResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*models.AuthResponse)
	}

	return resp, args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)

	var resp *models.AuthResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*models.AuthResponse)
	}

	return resp, args.Error(1)
}

func (m *AuthService) IssueToken(user *models.User) (string, int, error) {
	args := m.Called(user)

	return args.String(0), args.Int(1), args.Error(2)
}

func (m *AuthService) VerifyToken(tokenString string) (*models.Claims, error) {
	args := m.Called(tokenString)

	var claims *models.Claims
	if args.Get(0) != nil {
		claims = args.Get(0).(*models.Claims)
	}

	return claims, args.Error(1)
}

func (m *AuthService) ObserveAuthState() (<-chan models.AuthState, func()) {
	args := m.Called()

	var ch <-chan models.AuthState
	if args.Get(0) != nil {
		ch = args.Get(0).(<-chan models.AuthState)
	}

	var cancel func()
	if args.Get(1) != nil {
		cancel = args.Get(1).(func())
	}

	return ch, cancel
}

func (m *AuthService) PublishAuthState(state models.AuthState) {
	m.Called(state)
}

func (m *AuthService) Close() {
	m.Called()
}

type CatalogService struct {
	mock.Mock
}

func NewCatalogService(t *testing.T) *CatalogService {
	m := &CatalogService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CatalogService) Articles(ctx context.Context) ([]models.Article, error) {
	args := m.Called(ctx)

	var articles []models.Article
	if args.Get(0) != nil {
		articles = args.Get(0).([]models.Article)
	}

	return articles, args.Error(1)
}

func (m *CatalogService) GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	args := m.Called(ctx, id)

	var article *models.Article
	if args.Get(0) != nil {
		article = args.Get(0).(*models.Article)
	}

	return article, args.Error(1)
}

func (m *CatalogService) PriceIndex(ctx context.Context) (map[uuid.UUID]models.Article, error) {
	args := m.Called(ctx)

	var index map[uuid.UUID]models.Article
	if args.Get(0) != nil {
		index = args.Get(0).(map[uuid.UUID]models.Article)
	}

	return index, args.Error(1)
}

func (m *CatalogService) UpsertArticle(ctx context.Context, id *uuid.UUID, req *models.UpsertArticleRequest) (*models.Article, error) {
	args := m.Called(ctx, id, req)

	var article *models.Article
	if args.Get(0) != nil {
		article = args.Get(0).(*models.Article)
	}

	return article, args.Error(1)
}

func (m *CatalogService) RemoveArticle(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *CatalogService) Observe(ctx context.Context) (<-chan models.ArticleChangeEvent, func(), error) {
	args := m.Called(ctx)

	var ch <-chan models.ArticleChangeEvent
	if args.Get(0) != nil {
		ch = args.Get(0).(<-chan models.ArticleChangeEvent)
	}

	var cancel func()
	if args.Get(1) != nil {
		cancel = args.Get(1).(func())
	}

	return ch, cancel, args.Error(2)
}

func (m *CatalogService) Close() {
	m.Called()
}

type OrderLifecycleService struct {
	mock.Mock
}

func NewOrderLifecycleService(t *testing.T) *OrderLifecycleService {
	m := &OrderLifecycleService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *OrderLifecycleService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutOutcome, error) {
	args := m.Called(ctx, buyerID, req)

	var outcome *models.CheckoutOutcome
	if args.Get(0) != nil {
		outcome = args.Get(0).(*models.CheckoutOutcome)
	}

	return outcome, args.Error(1)
}

func (m *OrderLifecycleService) ConfirmMerge(ctx context.Context, buyerID uuid.UUID, req *models.ConfirmMergeRequest) (*models.Order, error) {
	args := m.Called(ctx, buyerID, req)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderLifecycleService) GetOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, buyerID, orderID)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderLifecycleService) ListOrders(ctx context.Context, buyerID uuid.UUID, page int, size int) (*models.OrderHistoryResponse, error) {
	args := m.Called(ctx, buyerID, page, size)

	var history *models.OrderHistoryResponse
	if args.Get(0) != nil {
		history = args.Get(0).(*models.OrderHistoryResponse)
	}

	return history, args.Error(1)
}

func (m *OrderLifecycleService) UpdateOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, buyerID, orderID)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderLifecycleService) CancelOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) error {
	args := m.Called(ctx, buyerID, orderID)

	return args.Error(0)
}

func (m *OrderLifecycleService) Reorder(ctx context.Context, buyerID uuid.UUID, req *models.ReorderRequest) (*models.Basket, error) {
	args := m.Called(ctx, buyerID, req)

	var basket *models.Basket
	if args.Get(0) != nil {
		basket = args.Get(0).(*models.Basket)
	}

	return basket, args.Error(1)
}

func (m *OrderLifecycleService) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Error(1)
}

type SessionService struct {
	mock.Mock
}

func NewSessionService(t *testing.T) *SessionService {
	m := &SessionService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *SessionService) Bootstrap(ctx context.Context, token string) (*models.BootstrapResult, error) {
	args := m.Called(ctx, token)

	var result *models.BootstrapResult
	if args.Get(0) != nil {
		result = args.Get(0).(*models.BootstrapResult)
	}

	return result, args.Error(1)
}

func (m *SessionService) PickupDates() []models.PickupDateOption {
	args := m.Called()

	var options []models.PickupDateOption
	if args.Get(0) != nil {
		options = args.Get(0).([]models.PickupDateOption)
	}

	return options
}

func (m *SessionService) ObserveBootstrap() (<-chan models.BootstrapProgress, func()) {
	args := m.Called()

	var ch <-chan models.BootstrapProgress
	if args.Get(0) != nil {
		ch = args.Get(0).(<-chan models.BootstrapProgress)
	}

	var cancel func()
	if args.Get(1) != nil {
		cancel = args.Get(1).(func())
	}

	return ch, cancel
}

func (m *SessionService) Close() {
	m.Called()
}

type AccountService struct {
	mock.Mock
}

func NewAccountService(t *testing.T) *AccountService {
	m := &AccountService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *AccountService) LinkGuestToPermanent(ctx context.Context, buyerID uuid.UUID, req *models.LinkAccountRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, buyerID, req)

	var resp *models.AuthResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*models.AuthResponse)
	}

	return resp, args.Error(1)
}

func (m *AccountService) Logout(ctx context.Context, buyerID uuid.UUID) error {
	args := m.Called(ctx, buyerID)

	return args.Error(0)
}

func (m *AccountService) DeleteAccount(ctx context.Context, buyerID uuid.UUID) (*models.CleanupReport, error) {
	args := m.Called(ctx, buyerID)

	var report *models.CleanupReport
	if args.Get(0) != nil {
		report = args.Get(0).(*models.CleanupReport)
	}

	return report, args.Error(1)
}

type ProfileService struct {
	mock.Mock
}

func NewProfileService(t *testing.T) *ProfileService {
	m := &ProfileService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *ProfileService) GetProfile(ctx context.Context, buyerID uuid.UUID) (*models.BuyerProfile, error) {
	args := m.Called(ctx, buyerID)

	var profile *models.BuyerProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*models.BuyerProfile)
	}

	return profile, args.Error(1)
}

func (m *ProfileService) UpdateProfile(ctx context.Context, buyerID uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error) {
	args := m.Called(ctx, buyerID, req)

	var profile *models.BuyerProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*models.BuyerProfile)
	}

	return profile, args.Error(1)
}
