package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DonationsCreated counts created donation intents by currency and network
	DonationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_created_total",
			Help: "Total number of donation intents created",
		},
		[]string{"currency", "network"},
	)

	// DonationUSDAmount tracks the USD value of created intents
	DonationUSDAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donation_usd_amount",
			Help:    "USD value of created donation intents",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"currency"},
	)

	// VerificationsTotal counts hash verification outcomes
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_verifications_total",
			Help: "Total number of transaction verifications by outcome",
		},
		[]string{"network", "outcome"},
	)

	// VerificationDuration tracks verification round-trip time
	VerificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donation_verification_duration_seconds",
			Help:    "Transaction verification duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network"},
	)

	// PriceFeedFallbacks counts price feed failures answered from the
	// reference table
	PriceFeedFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_feed_fallbacks_total",
			Help: "Total number of price feed calls served from fallback prices",
		},
	)

	// CampaignCreditFailures counts campaign progress updates that were
	// logged and dropped
	CampaignCreditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_credit_failures_total",
			Help: "Total number of failed campaign progress credits",
		},
	)
)

// VerificationsTotal outcome label values.
const (
	OutcomeCompleted    = "completed"
	OutcomeFailed       = "verification_failed"
	OutcomeManualReview = "pending_manual_verification"
)
