package repository

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/farmbasket/farmbasket-backend/internal/config"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	_ "github.com/lib/pq"
)

type Repository struct {
	DB *sql.DB
}

func New(cfg *config.Config) (*Repository, *OrderRepository, *ProfileRepository, *ArticleRepository, UserRepository, error) {

	// otelsql wraps the pq driver so every query carries a span.
	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))

	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	postgresInstance := &Repository{DB: db}
	orderRepo := NewOrderRepository(db)
	profileRepo := NewProfileRepository(db)
	articleRepo := NewArticleRepository(db)
	userRepo := NewUserRepo(db)

	return postgresInstance, orderRepo, profileRepo, articleRepo, userRepo, nil
}

func (p *Repository) Close() error {
	return p.DB.Close()
}
