package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/cache"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/pubsub"
	"github.com/google/uuid"
)

// CatalogService serves the seller's article catalog. Reads go through the
// cache; writes invalidate it and are broadcast to observers so clients see
// catalog changes without polling.
type CatalogService interface {
	Articles(ctx context.Context) ([]models.Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error)
	PriceIndex(ctx context.Context) (map[uuid.UUID]models.Article, error)
	UpsertArticle(ctx context.Context, id *uuid.UUID, req *models.UpsertArticleRequest) (*models.Article, error)
	RemoveArticle(ctx context.Context, id uuid.UUID) error
	Observe(ctx context.Context) (<-chan models.ArticleChangeEvent, func(), error)
	Close()
}

type catalogService struct {
	articles ArticleStore
	cache    cache.Cache
	sellerID uuid.UUID
	cacheTTL time.Duration
	stream   *pubsub.Stream[models.ArticleChangeEvent]
}

func NewCatalogService(articles ArticleStore, articleCache cache.Cache, sellerID uuid.UUID, cacheTTL time.Duration) CatalogService {
	return &catalogService{
		articles: articles,
		cache:    articleCache,
		sellerID: sellerID,
		cacheTTL: cacheTTL,
		stream:   pubsub.NewStream[models.ArticleChangeEvent](),
	}
}

// Articles returns the full catalog, cache-first. A cache failure is logged
// and falls through to the database; it never fails the read.
func (s *catalogService) Articles(ctx context.Context) ([]models.Article, error) {

	logger := middleware.LoggerFromContext(ctx)

	var cached []models.Article

	found, err := s.cache.Get(ctx, cache.CatalogKey, &cached)
	if err != nil {
		logger.Warn("Catalog cache read failed", slog.String("error", err.Error()))
	} else if found {
		return cached, nil
	}

	articles, err := s.articles.ListArticles(ctx, s.sellerID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to load the catalog").WithError(err)
	}

	if err := s.cache.Set(ctx, cache.CatalogKey, articles, s.cacheTTL); err != nil {
		logger.Warn("Catalog cache write failed", slog.String("error", err.Error()))
	}

	return articles, nil
}

func (s *catalogService) GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {

	article, err := s.articles.GetArticle(ctx, s.sellerID, id)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.DatabaseError("Failed to load the article").WithError(err)
	}

	return article, nil
}

// PriceIndex returns the catalog keyed by article id, for re-pricing basket
// lines against current data.
func (s *catalogService) PriceIndex(ctx context.Context) (map[uuid.UUID]models.Article, error) {

	articles, err := s.Articles(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]models.Article, len(articles))
	for _, article := range articles {
		index[article.ID] = article
	}

	return index, nil
}

// UpsertArticle creates the article when id is nil and updates it in place
// otherwise. The catalog cache is invalidated and the change broadcast.
func (s *catalogService) UpsertArticle(ctx context.Context, id *uuid.UUID, req *models.UpsertArticleRequest) (*models.Article, error) {

	mode := models.ChangeAdded

	article := &models.Article{
		ID:          uuid.New(),
		SellerID:    s.sellerID,
		Name:        sanitizeText(req.Name),
		Unit:        req.Unit,
		Price:       req.Price,
		Description: sanitizeText(req.Description),
		Available:   req.Available,
	}

	if id != nil {
		if _, err := s.GetArticle(ctx, *id); err != nil {
			return nil, err
		}

		article.ID = *id
		mode = models.ChangeChanged
	}

	if err := s.articles.UpsertArticle(ctx, article); err != nil {
		return nil, appErrors.DatabaseError("Failed to save the article").WithError(err)
	}

	s.invalidateCatalog(ctx)
	s.stream.Publish(models.ArticleChangeEvent{Mode: mode, Article: *article})

	return article, nil
}

func (s *catalogService) RemoveArticle(ctx context.Context, id uuid.UUID) error {

	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return err
	}

	if err := s.articles.DeleteArticle(ctx, s.sellerID, id); err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return err
		}

		return appErrors.DatabaseError("Failed to delete the article").WithError(err)
	}

	s.invalidateCatalog(ctx)
	s.stream.Publish(models.ArticleChangeEvent{Mode: models.ChangeRemoved, Article: *article})

	return nil
}

// Observe subscribes to catalog changes with listener semantics: the current
// articles arrive first as ADDED events, then live changes in mutation
// order. A change landing between the snapshot read and the subscription
// start may be delivered twice, never lost.
func (s *catalogService) Observe(ctx context.Context) (<-chan models.ArticleChangeEvent, func(), error) {

	live, cancel := s.stream.SubscribeLive()

	articles, err := s.Articles(ctx)
	if err != nil {
		cancel()

		return nil, nil, err
	}

	out := make(chan models.ArticleChangeEvent)

	go func() {
		defer close(out)

		for _, article := range articles {
			select {
			case out <- models.ArticleChangeEvent{Mode: models.ChangeAdded, Article: article}:
			case <-ctx.Done():
				return
			}
		}

		for event := range live {
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

func (s *catalogService) Close() {
	s.stream.Close()
}

func (s *catalogService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.CatalogKey); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Catalog cache invalidation failed", slog.String("error", err.Error()))
	}
}
