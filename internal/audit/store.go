// Package audit records issued order plans in Postgres.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

const DefaultTable = "order_plans"

type Store struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewStore(db *sql.DB, table string, log logger.Logger) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		logger: log.With(map[string]interface{}{"component": "audit"}),
	}
}

func (s *Store) Name() string {
	return "audit"
}

// EnsureSchema creates the plan table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	plan_id UUID PRIMARY KEY,
	prompt TEXT NOT NULL,
	location TEXT NOT NULL,
	platform TEXT NOT NULL,
	restaurant_name TEXT NOT NULL,
	item_name TEXT NOT NULL,
	total_price NUMERIC(10,2) NOT NULL,
	checkout_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Record inserts one row per successful plan.
func (s *Store) Record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) error {
	location := ""
	if req.Location != nil {
		location = *req.Location
	}

	query := fmt.Sprintf(`INSERT INTO %s
	(plan_id, prompt, location, platform, restaurant_name, item_name, total_price, checkout_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		result.PlanID,
		req.Prompt,
		location,
		result.Platform,
		result.RestaurantName,
		result.ItemName,
		result.TotalPrice,
		result.CheckoutURL,
		time.Unix(result.Timestamp, 0).UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert plan %s: %w", result.PlanID, err)
	}

	s.logger.Debug("plan recorded", map[string]interface{}{
		"planId": result.PlanID,
	})
	return nil
}
