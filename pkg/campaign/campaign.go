// Package campaign tracks fundraising campaign progress. Confirmed
// donations credit a campaign's running total; a campaign whose total
// reaches its goal is automatically marked completed.
package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a campaign lookup finds no matching record.
var ErrNotFound = errors.New("campaign not found")

// Campaign statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Campaign is the domain model for a fundraising campaign. This service
// only reads it and credits progress; campaign authoring lives elsewhere.
type Campaign struct {
	ID            string
	Title         string
	GoalAmount    decimal.Decimal
	CurrentAmount decimal.Decimal
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GoalReached reports whether the running total covers the goal.
func (c *Campaign) GoalReached() bool {
	return c.CurrentAmount.GreaterThanOrEqual(c.GoalAmount)
}

// Store defines campaign persistence operations consumed by the updater.
type Store interface {
	GetByID(ctx context.Context, id string) (*Campaign, error)

	// AddProgress atomically increments current_amount and marks the
	// campaign completed when the goal is met, returning the updated row.
	AddProgress(ctx context.Context, id string, usdAmount decimal.Decimal) (*Campaign, error)
}
