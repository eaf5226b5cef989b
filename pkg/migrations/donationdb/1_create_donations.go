package donationdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/brightfund/donation-gateway/pkg/donationstore"
	mghelper "github.com/brightfund/donation-gateway/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating donations table...")
		if err := mghelper.CreateSchema(ctx, db, &donationstore.DonationDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &donationstore.DonationDao{}, "status", "campaign_id", "tx_hash")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping donations table...")
		return mghelper.DropTables(ctx, db, &donationstore.DonationDao{})
	})
}
