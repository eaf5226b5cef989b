package campaign

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/internal/metrics"
)

// creditTimeout bounds one credit write; the caller never waits on it.
const creditTimeout = 15 * time.Second

// Updater credits confirmed donations to their campaign. Credits are
// fire-and-forget: the method signature returns nothing, so a credit
// failure cannot propagate into the donation confirmation response. It is
// logged and counted instead.
type Updater struct {
	store  Store
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewUpdater creates a campaign progress updater.
func NewUpdater(store Store, logger *zap.Logger) *Updater {
	return &Updater{
		store:  store,
		logger: logger,
	}
}

// CreditAsync adds usdAmount to the campaign's running total in the
// background. Safe to call from a request handler; the response does not
// wait for the write.
func (u *Updater) CreditAsync(campaignID string, usdAmount decimal.Decimal, donationID string) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), creditTimeout)
		defer cancel()

		updated, err := u.store.AddProgress(ctx, campaignID, usdAmount)
		if err != nil {
			metrics.CampaignCreditFailures.Inc()
			u.logger.Error("Campaign credit failed",
				zap.String("campaign_id", campaignID),
				zap.String("donation_id", donationID),
				zap.String("usd_amount", usdAmount.String()),
				zap.Error(err),
			)
			return
		}

		u.logger.Info("Campaign credited",
			zap.String("campaign_id", campaignID),
			zap.String("donation_id", donationID),
			zap.String("usd_amount", usdAmount.String()),
			zap.String("current_amount", updated.CurrentAmount.String()),
			zap.String("status", updated.Status),
		)

		if updated.Status == StatusCompleted {
			u.logger.Info("Campaign goal reached",
				zap.String("campaign_id", campaignID),
				zap.String("goal_amount", updated.GoalAmount.String()),
			)
		}
	}()
}

// Close waits for in-flight credits. Called on shutdown so a verified
// donation's credit is not dropped by process exit.
func (u *Updater) Close() {
	u.wg.Wait()
}
