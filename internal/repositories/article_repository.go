package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/google/uuid"
)

// ArticleRepository stores the seller's produce catalog.
type ArticleRepository struct {
	DB *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{DB: db}
}

// ListArticles returns the seller's full catalog, available items first,
// alphabetically within each group.
func (r *ArticleRepository) ListArticles(ctx context.Context, sellerID uuid.UUID) ([]models.Article, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, unit, price, description, available, created_at, updated_at
		FROM articles
		WHERE seller_id = $1
		ORDER BY available DESC, name ASC
	`

	rows, err := r.DB.QueryContext(dbCtx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	defer rows.Close()

	var articles []models.Article

	for rows.Next() {

		article := models.Article{SellerID: sellerID}

		err := rows.Scan(&article.ID, &article.Name, &article.Unit, &article.Price, &article.Description, &article.Available, &article.CreatedAt, &article.UpdatedAt)

		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		articles = append(articles, article)

	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

func (r *ArticleRepository) GetArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) (*models.Article, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	article := &models.Article{ID: id, SellerID: sellerID}

	query := `
		SELECT name, unit, price, description, available, created_at, updated_at
		FROM articles
		WHERE seller_id = $1 AND id = $2
	`

	err := r.DB.QueryRowContext(dbCtx, query, sellerID, id).
		Scan(&article.Name, &article.Unit, &article.Price, &article.Description, &article.Available, &article.CreatedAt, &article.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("article not found")
		}

		return nil, fmt.Errorf("failed to get the article: %w", err)
	}

	return article, nil
}

// UpsertArticle inserts the article or, when the id already exists, updates
// it in place.
func (r *ArticleRepository) UpsertArticle(ctx context.Context, article *models.Article) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO articles (id, seller_id, name, unit, price, description, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, unit = EXCLUDED.unit, price = EXCLUDED.price,
		    description = EXCLUDED.description, available = EXCLUDED.available, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, article.ID, article.SellerID, article.Name, article.Unit, article.Price, article.Description, article.Available).
		Scan(&article.CreatedAt, &article.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}

	return nil
}

func (r *ArticleRepository) DeleteArticle(ctx context.Context, sellerID uuid.UUID, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM articles WHERE seller_id = $1 AND id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, sellerID, id)

	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	if deletedRows == 0 {
		return appErrors.NotFoundError("article not found")
	}

	return nil
}
