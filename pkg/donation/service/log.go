package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/pkg/donation"
)

const serviceName = "DonationService"

const logMessageMaxLen = 50

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the donation Service.
// It logs method entry/exit, duration, errors, and sanitized request data.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// CreateIntent wraps the service method with logging
func (ls *logService) CreateIntent(
	ctx context.Context,
	req *donation.CreateRequest,
) (resp *donation.CreateResponse, err error) {
	start := time.Now()

	ls.logger.Info("CreateIntent started",
		zap.String("service", serviceName),
		zap.String("method", "CreateIntent"),
		zap.Float64("amount_usd", req.AmountUSD),
		zap.String("currency", req.Currency),
		zap.String("network", req.Network),
		zap.String("source", truncateString(req.Source, logMessageMaxLen)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("CreateIntent failed",
				zap.String("service", serviceName),
				zap.String("method", "CreateIntent"),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CreateIntent completed",
				zap.String("service", serviceName),
				zap.String("method", "CreateIntent"),
				zap.String("donation_id", resp.DonationID),
				zap.String("crypto_amount", resp.CryptoAmount),
				zap.String("network", resp.Network),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CreateIntent(ctx, req)
}

// GetStatus wraps the service method with logging
func (ls *logService) GetStatus(
	ctx context.Context,
	donationID string,
) (resp *donation.StatusResponse, err error) {
	start := time.Now()

	ls.logger.Debug("GetStatus started",
		zap.String("service", serviceName),
		zap.String("method", "GetStatus"),
		zap.String("donation_id", donationID),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Warn("GetStatus failed",
				zap.String("service", serviceName),
				zap.String("method", "GetStatus"),
				zap.String("donation_id", donationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("GetStatus completed",
				zap.String("service", serviceName),
				zap.String("method", "GetStatus"),
				zap.String("donation_id", donationID),
				zap.String("status", resp.Status),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.GetStatus(ctx, donationID)
}

// SubmitHash wraps the service method with logging
func (ls *logService) SubmitHash(
	ctx context.Context,
	req *donation.SubmitRequest,
) (resp *donation.SubmitResponse, err error) {
	start := time.Now()

	ls.logger.Info("SubmitHash started",
		zap.String("service", serviceName),
		zap.String("method", "SubmitHash"),
		zap.String("donation_id", req.DonationID),
		zap.String("tx_hash", req.TxHash),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("SubmitHash failed",
				zap.String("service", serviceName),
				zap.String("method", "SubmitHash"),
				zap.String("donation_id", req.DonationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("SubmitHash completed",
				zap.String("service", serviceName),
				zap.String("method", "SubmitHash"),
				zap.String("donation_id", resp.DonationID),
				zap.String("status", resp.Status),
				zap.Int("confirmations", resp.Confirmations),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.SubmitHash(ctx, req)
}

// truncateString truncates a string for safe logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
