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

// ProfileRepository persists buyer profiles. Favourites, the placed-order
// index, and the draft basket live in JSONB columns; the draft column is
// NULL whenever the buyer has nothing to restore.
type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *models.BuyerProfile) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	favourites, err := json.Marshal(profile.FavouriteArticleIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal favourites: %w", err)
	}

	placedOrders, err := json.Marshal(profile.PlacedOrderIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal placed order index: %w", err)
	}

	query := `
		INSERT INTO profiles (id, display_name, email, phone, favourite_article_ids, placed_order_ids, draft_basket, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, NOW(), NOW())
	`

	_, err = r.DB.ExecContext(dbCtx, query, profile.ID, profile.DisplayName, profile.Email, profile.Phone, favourites, placedOrders)

	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	profile := &models.BuyerProfile{ID: id}

	query := `
		SELECT display_name, email, phone, favourite_article_ids, placed_order_ids, draft_basket, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var favourites, placedOrders, draft []byte

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&profile.DisplayName, &profile.Email, &profile.Phone, &favourites, &placedOrders, &draft, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("profile not found")
		}

		return nil, fmt.Errorf("failed to get the profile: %w", err)
	}

	if err := json.Unmarshal(favourites, &profile.FavouriteArticleIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal favourites: %w", err)
	}

	if err := json.Unmarshal(placedOrders, &profile.PlacedOrderIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal placed order index: %w", err)
	}

	if len(draft) > 0 {
		profile.DraftBasket = &models.Basket{}
		if err := json.Unmarshal(draft, profile.DraftBasket); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft basket: %w", err)
		}
	}

	return profile, nil
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	favourites, err := json.Marshal(req.FavouriteArticleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal favourites: %w", err)
	}

	query := `
		UPDATE profiles
		SET display_name = $1, phone = $2, favourite_article_ids = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.DB.ExecContext(dbCtx, query, req.DisplayName, req.Phone, favourites, id)

	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if updatedRows == 0 {
		return nil, appErrors.NotFoundError("profile not found")
	}

	return r.GetProfile(ctx, id)
}

// SetContactEmail fills the profile's email after a guest account is linked
// to a permanent one.
func (r *ProfileRepository) SetContactEmail(ctx context.Context, id uuid.UUID, email string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE profiles SET email = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, email, id)

	if err != nil {
		return fmt.Errorf("failed to set contact email: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set contact email: %w", err)
	}

	if updatedRows == 0 {
		return appErrors.NotFoundError("profile not found")
	}

	return nil
}

// SaveDraftBasket mirrors the buyer's in-memory basket. A nil draft clears
// the column, meaning there is nothing to restore next session.
func (r *ProfileRepository) SaveDraftBasket(ctx context.Context, buyerID uuid.UUID, draft *models.Basket) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var payload any

	if draft != nil {
		data, err := json.Marshal(draft)
		if err != nil {
			return fmt.Errorf("failed to marshal draft basket: %w", err)
		}

		payload = data
	}

	query := `UPDATE profiles SET draft_basket = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, payload, buyerID)

	if err != nil {
		return fmt.Errorf("failed to save draft basket: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save draft basket: %w", err)
	}

	if updatedRows == 0 {
		return appErrors.NotFoundError("profile not found")
	}

	return nil
}

// RegisterPlacedOrder records orderID under the pickup-date key in the
// buyer's placed-order index.
func (r *ProfileRepository) RegisterPlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string, orderID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE profiles
		SET placed_order_ids = jsonb_set(COALESCE(placed_order_ids, '{}'::jsonb), ARRAY[$1], to_jsonb($2::text)), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, dateKey, orderID.String(), buyerID)

	if err != nil {
		return fmt.Errorf("failed to register placed order: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to register placed order: %w", err)
	}

	if updatedRows == 0 {
		return appErrors.NotFoundError("profile not found")
	}

	return nil
}

// RemovePlacedOrder drops the date key from the buyer's placed-order index.
// Removing an absent key succeeds.
func (r *ProfileRepository) RemovePlacedOrder(ctx context.Context, buyerID uuid.UUID, dateKey string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE profiles
		SET placed_order_ids = COALESCE(placed_order_ids, '{}'::jsonb) - $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.DB.ExecContext(dbCtx, query, dateKey, buyerID)

	if err != nil {
		return fmt.Errorf("failed to remove placed order: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove placed order: %w", err)
	}

	if updatedRows == 0 {
		return appErrors.NotFoundError("profile not found")
	}

	return nil
}

func (r *ProfileRepository) DeleteProfile(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM profiles WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, id)

	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if deletedRows == 0 {
		return appErrors.NotFoundError("profile not found")
	}

	return nil
}
