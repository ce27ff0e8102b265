// Package service implements the shop's use cases on top of the
// repositories: auth and account lifecycle, the article catalog, the basket,
// checkout with merge reconciliation, and session bootstrap.
package service

import (
	"context"

	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/google/uuid"
)

// OrderStore is the slice of the order repository the services consume.
type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order) error
	LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error)
	GetOrderByID(ctx context.Context, sellerID uuid.UUID, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderArticles(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, items []models.LineItem, message string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, status models.OrderStatus) error
	GetOpenEditableOrder(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, fromDateKey string) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, page int, size int) ([]models.Order, int, error)
}

// ProfileStore is the slice of the profile repository the services consume.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.BuyerProfile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error)
	SetContactEmail(ctx context.Context, id uuid.UUID, email string) error
	RegisterPlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string, orderID uuid.UUID) error
	RemovePlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string) error
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}

// ArticleStore is the slice of the article repository the catalog consumes.
type ArticleStore interface {
	ListArticles(ctx context.Context, sellerID uuid.UUID) ([]models.Article, error)
	GetArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) (*models.Article, error)
	UpsertArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) error
}

// UserStore is the slice of the user repository the services consume.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LinkAccount(ctx context.Context, id uuid.UUID, email string, passwordHash string) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// LoginRateLimiter guards the login endpoint. Reports whether the attempt
// is allowed, attempts left in the window, and seconds until retry.
type LoginRateLimiter interface {
	CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error)
}

// EmailSender delivers transactional mail. Failures are logged, never
// surfaced to the buyer: an order stands whether or not its mail went out.
type EmailSender interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
}

// ArticleReader is the catalog view the basket and session services need.
type ArticleReader interface {
	Articles(ctx context.Context) ([]models.Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error)
}

// PriceIndexer serves the current catalog keyed by article ID, used to
// re-price the lines of a past order.
type PriceIndexer interface {
	PriceIndex(ctx context.Context) (map[uuid.UUID]models.Article, error)
}
