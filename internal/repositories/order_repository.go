package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/google/uuid"
)

// OrderRepository stores orders under their natural address
// (seller_id, date_key, id), mirroring the one-order-per-pickup-day model.
// The buyer snapshot and article lines are kept as JSONB documents.
type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) PlaceOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	buyer, err := json.Marshal(order.Buyer)
	if err != nil {
		return fmt.Errorf("failed to marshal buyer snapshot: %w", err)
	}

	articles, err := json.Marshal(order.Articles)
	if err != nil {
		return fmt.Errorf("failed to marshal order articles: %w", err)
	}

	query := `
		INSERT INTO orders (id, seller_id, date_key, buyer_id, buyer, pickup_date, message, articles, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`

	_, err = r.DB.ExecContext(dbCtx, query, order.ID, order.SellerID, order.DateKey, order.Buyer.BuyerID, buyer, order.PickupDate, order.Message, articles, order.Status)

	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *OrderRepository) LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{
		ID:       orderID,
		SellerID: sellerID,
		DateKey:  dateKey,
	}

	query := `
		SELECT buyer, pickup_date, message, articles, status, created_at, updated_at
		FROM orders
		WHERE seller_id = $1 AND date_key = $2 AND id = $3
	`

	var buyer, articles []byte

	err := r.DB.QueryRowContext(dbCtx, query, sellerID, dateKey, orderID).
		Scan(&buyer, &order.PickupDate, &order.Message, &articles, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("order not found")
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := unmarshalOrderDocs(order, buyer, articles); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrderArticles replaces the article list and message of an open order
// and returns the stored result. A terminal or missing order yields NotFound.
func (r *OrderRepository) UpdateOrderArticles(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, items []models.LineItem, message string) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	articles, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order articles: %w", err)
	}

	order := &models.Order{
		ID:       orderID,
		SellerID: sellerID,
		DateKey:  dateKey,
		Message:  message,
	}

	query := `
		UPDATE orders
		SET articles = $1, message = $2, updated_at = NOW()
		WHERE seller_id = $3 AND date_key = $4 AND id = $5 AND status = 'open'
		RETURNING buyer, pickup_date, status, created_at, updated_at
	`

	var buyer []byte

	err = r.DB.QueryRowContext(dbCtx, query, articles, message, sellerID, dateKey, orderID).
		Scan(&buyer, &order.PickupDate, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("open order not found")
		}

		return nil, fmt.Errorf("failed to update the order: %w", err)
	}

	if err := unmarshalOrderDocs(order, buyer, articles); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID, status models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE seller_id = $2 AND date_key = $3 AND id = $4
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, sellerID, dateKey, orderID)

	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update the order: %w", err)
	}

	if updatedRows == 0 {
		return appErrors.NotFoundError("order not found")
	}

	return nil
}

// GetOrderByID looks an order up without knowing its date key. Used where
// the caller only holds the id, e.g. order detail and cancel endpoints.
func (r *OrderRepository) GetOrderByID(ctx context.Context, sellerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{
		ID:       orderID,
		SellerID: sellerID,
	}

	query := `
		SELECT date_key, buyer, pickup_date, message, articles, status, created_at, updated_at
		FROM orders
		WHERE seller_id = $1 AND id = $2
	`

	var buyer, articles []byte

	err := r.DB.QueryRowContext(dbCtx, query, sellerID, orderID).
		Scan(&order.DateKey, &buyer, &order.PickupDate, &order.Message, &articles, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("order not found")
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := unmarshalOrderDocs(order, buyer, articles); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOpenEditableOrder returns the buyer's nearest open order on or after
// the given date key. Date keys sort lexicographically in date order.
func (r *OrderRepository) GetOpenEditableOrder(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, fromDateKey string) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{
		SellerID: sellerID,
	}

	query := `
		SELECT id, date_key, buyer, pickup_date, message, articles, status, created_at, updated_at
		FROM orders
		WHERE seller_id = $1 AND buyer_id = $2 AND status = 'open' AND date_key >= $3
		ORDER BY date_key ASC
		LIMIT 1
	`

	var buyer, articles []byte

	err := r.DB.QueryRowContext(dbCtx, query, sellerID, buyerID, fromDateKey).
		Scan(&order.ID, &order.DateKey, &buyer, &order.PickupDate, &order.Message, &articles, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("no upcoming order")
		}

		return nil, fmt.Errorf("failed to get the upcoming order: %w", err)
	}

	if err := unmarshalOrderDocs(order, buyer, articles); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersByBuyer pages through the buyer's order history, newest pickup
// date first.
func (r *OrderRepository) ListOrdersByBuyer(ctx context.Context, sellerID uuid.UUID, buyerID uuid.UUID, page int, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE seller_id = $1 AND buyer_id = $2`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, sellerID, buyerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `
		SELECT id, date_key, buyer, pickup_date, message, articles, status, created_at, updated_at
		FROM orders
		WHERE seller_id = $1 AND buyer_id = $2
		ORDER BY date_key DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.DB.QueryContext(dbCtx, query, sellerID, buyerID, size, offset)

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		order := models.Order{SellerID: sellerID}

		var buyer, articles []byte

		err := rows.Scan(&order.ID, &order.DateKey, &buyer, &order.PickupDate, &order.Message, &articles, &order.Status, &order.CreatedAt, &order.UpdatedAt)

		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		if err := unmarshalOrderDocs(&order, buyer, articles); err != nil {
			return nil, 0, err
		}

		orders = append(orders, order)

	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func unmarshalOrderDocs(order *models.Order, buyer, articles []byte) error {
	if err := json.Unmarshal(buyer, &order.Buyer); err != nil {
		return fmt.Errorf("failed to unmarshal buyer snapshot: %w", err)
	}

	if err := json.Unmarshal(articles, &order.Articles); err != nil {
		return fmt.Errorf("failed to unmarshal order articles: %w", err)
	}

	return nil
}
