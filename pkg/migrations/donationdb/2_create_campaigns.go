package donationdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/brightfund/donation-gateway/pkg/campaign"
	mghelper "github.com/brightfund/donation-gateway/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating campaigns table...")
		if err := mghelper.CreateSchema(ctx, db, &campaign.CampaignDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &campaign.CampaignDao{}, "status")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping campaigns table...")
		return mghelper.DropTables(ctx, db, &campaign.CampaignDao{})
	})
}
