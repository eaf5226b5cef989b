package campaign

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// CampaignDao is a data access object that maps directly to the 'campaigns'
// table in PostgreSQL.
type CampaignDao struct {
	bun.BaseModel `bun:"table:campaigns,alias:c"`

	ID            string          `bun:"id,pk,type:uuid"`
	Title         string          `bun:"title,notnull,type:varchar(300)"`
	GoalAmount    decimal.Decimal `bun:"goal_amount,notnull,type:numeric(18,2)"`
	CurrentAmount decimal.Decimal `bun:"current_amount,notnull,type:numeric(18,2)"`
	Status        string          `bun:"status,notnull,type:varchar(32),default:'active'"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toCampaign(dao *CampaignDao) *Campaign {
	return &Campaign{
		ID:            dao.ID,
		Title:         dao.Title,
		GoalAmount:    dao.GoalAmount,
		CurrentAmount: dao.CurrentAmount,
		Status:        dao.Status,
		CreatedAt:     dao.CreatedAt,
		UpdatedAt:     dao.UpdatedAt,
	}
}
