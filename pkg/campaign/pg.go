package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the campaign store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) GetByID(ctx context.Context, id string) (*Campaign, error) {
	dao := new(CampaignDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return toCampaign(dao), nil
}

func (s *pgStore) AddProgress(ctx context.Context, id string, usdAmount decimal.Decimal) (*Campaign, error) {
	dao := new(CampaignDao)

	// Single statement so two concurrent credits cannot lose an increment,
	// and goal completion is decided against the post-increment total.
	err := s.db.NewUpdate().
		Model(dao).
		Set("current_amount = current_amount + ?", usdAmount).
		Set("status = CASE WHEN current_amount + ? >= goal_amount THEN ? ELSE status END", usdAmount, StatusCompleted).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add campaign progress: %w", err)
	}

	return toCampaign(dao), nil
}
