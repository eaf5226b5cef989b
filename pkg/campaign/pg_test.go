package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/brightfund/donation-gateway/pkg/pgutil"
	mghelper "github.com/brightfund/donation-gateway/pkg/pgutil/migrations"
)

func setupCampaignStore(t *testing.T) (Store, *bun.DB, func()) {
	t.Helper()
	db, cleanup := pgutil.SetupTestDB(t)

	if err := mghelper.CreateSchema(context.Background(), db, &CampaignDao{}); err != nil {
		cleanup()
		t.Fatalf("failed to create schema: %v", err)
	}

	return NewStore(db), db, cleanup
}

func insertCampaign(t *testing.T, db *bun.DB, id string, goal, current string) {
	t.Helper()
	dao := &CampaignDao{
		ID:            id,
		Title:         "Clean Water Fund",
		GoalAmount:    decimal.RequireFromString(goal),
		CurrentAmount: decimal.RequireFromString(current),
		Status:        StatusActive,
	}
	if _, err := db.NewInsert().Model(dao).Exec(context.Background()); err != nil {
		t.Fatalf("failed to insert campaign: %v", err)
	}
}

func TestGetByID(t *testing.T) {
	store, db, cleanup := setupCampaignStore(t)
	defer cleanup()
	ctx := context.Background()

	insertCampaign(t, db, "1b671a64-40d5-491e-99b0-da01ff1f3341", "1000", "250")

	c, err := store.GetByID(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if c.Title != "Clean Water Fund" {
		t.Errorf("unexpected title %q", c.Title)
	}
	if !c.CurrentAmount.Equal(decimal.RequireFromString("250")) {
		t.Errorf("expected current amount 250, got %s", c.CurrentAmount)
	}
	if c.GoalReached() {
		t.Error("goal should not be reached at 250/1000")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store, _, cleanup := setupCampaignStore(t)
	defer cleanup()

	_, err := store.GetByID(context.Background(), "d87f2b4e-8f7a-4e6e-b2cb-0f0b6f9e3f11")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddProgress_Accumulates(t *testing.T) {
	store, db, cleanup := setupCampaignStore(t)
	defer cleanup()
	ctx := context.Background()

	insertCampaign(t, db, "1b671a64-40d5-491e-99b0-da01ff1f3341", "1000", "0")

	c, err := store.AddProgress(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341", decimal.RequireFromString("300"))
	if err != nil {
		t.Fatalf("AddProgress() failed: %v", err)
	}
	if !c.CurrentAmount.Equal(decimal.RequireFromString("300")) {
		t.Errorf("expected 300, got %s", c.CurrentAmount)
	}
	if c.Status != StatusActive {
		t.Errorf("expected status active, got %s", c.Status)
	}

	c, err = store.AddProgress(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341", decimal.RequireFromString("150.50"))
	if err != nil {
		t.Fatalf("AddProgress() failed: %v", err)
	}
	if !c.CurrentAmount.Equal(decimal.RequireFromString("450.50")) {
		t.Errorf("expected 450.50, got %s", c.CurrentAmount)
	}
}

func TestAddProgress_CompletesAtGoal(t *testing.T) {
	store, db, cleanup := setupCampaignStore(t)
	defer cleanup()
	ctx := context.Background()

	insertCampaign(t, db, "1b671a64-40d5-491e-99b0-da01ff1f3341", "1000", "900")

	c, err := store.AddProgress(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341", decimal.RequireFromString("100"))
	if err != nil {
		t.Fatalf("AddProgress() failed: %v", err)
	}
	if c.Status != StatusCompleted {
		t.Errorf("expected status completed at goal, got %s", c.Status)
	}
	if !c.GoalReached() {
		t.Error("expected goal reached")
	}
}

func TestAddProgress_NotFound(t *testing.T) {
	store, _, cleanup := setupCampaignStore(t)
	defer cleanup()

	_, err := store.AddProgress(context.Background(), "d87f2b4e-8f7a-4e6e-b2cb-0f0b6f9e3f11", decimal.NewFromInt(10))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
