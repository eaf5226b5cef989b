// Package api implements app.Runner for the donation gateway process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/brightfund/donation-gateway/pkg/app/http"
	"github.com/brightfund/donation-gateway/pkg/campaign"
	"github.com/brightfund/donation-gateway/pkg/chainproof"
	"github.com/brightfund/donation-gateway/pkg/config"
	"github.com/brightfund/donation-gateway/pkg/currency"
	donationservice "github.com/brightfund/donation-gateway/pkg/donation/service"
	"github.com/brightfund/donation-gateway/pkg/donationstore"
	"github.com/brightfund/donation-gateway/pkg/pgutil"
	"github.com/brightfund/donation-gateway/pkg/prices"
	"github.com/brightfund/donation-gateway/pkg/wallets"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the donation gateway server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new donation gateway server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting donation gateway",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	directory, err := wallets.NewDirectory(cfg.Wallets.Addresses, cfg.Wallets.XRPDestinationTag)
	if err != nil {
		return fmt.Errorf("wallet config: %w", err)
	}

	priceClient, err := prices.New(cfg.PriceFeed.URL,
		prices.WithTimeout(cfg.PriceFeed.Timeout),
		prices.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("price feed: %w", err)
	}

	verifier, err := s.buildVerifier(logger)
	if err != nil {
		return err
	}

	donationStore := donationstore.NewStore(db)
	campaignStore := campaign.NewStore(db)
	updater := campaign.NewUpdater(campaignStore, logger)

	svc := donationservice.NewService(donationStore, verifier, priceClient, directory, updater, logger)
	router := s.setupRouter(donationservice.NewLog(svc, logger), logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Let in-flight campaign credits land before the DB closes.
	updater.Close()

	return err
}

// buildVerifier wires one verification client per configured network and
// routes by the intent's network at submit time.
func (s *Server) buildVerifier(logger *zap.Logger) (chainproof.Verifier, error) {
	byNetwork := make(map[currency.Network]chainproof.Verifier)

	for name, rpcURL := range s.cfg.Verification.EVMRPCURLs {
		net := currency.Network(name)
		if !net.IsEVM() {
			return nil, fmt.Errorf("verification config: %s is not an EVM network", name)
		}
		v, err := chainproof.NewEVMVerifier(rpcURL,
			chainproof.WithTimeout(s.cfg.Verification.Timeout),
			chainproof.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("verification config: %s: %w", name, err)
		}
		byNetwork[net] = v
		logger.Info("EVM verifier configured", zap.String("network", name))
	}

	for name, baseURL := range s.cfg.Verification.ExplorerURLs {
		net := currency.Network(name)
		if _, exists := byNetwork[net]; exists {
			return nil, fmt.Errorf("verification config: duplicate verifier for %s", name)
		}
		v, err := chainproof.NewExplorerVerifier(baseURL,
			chainproof.WithTimeout(s.cfg.Verification.Timeout),
			chainproof.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("verification config: %s: %w", name, err)
		}
		byNetwork[net] = v
		logger.Info("Explorer verifier configured", zap.String("network", name))
	}

	return chainproof.NewRouter(byNetwork), nil
}

func (s *Server) setupRouter(svc donationservice.Service, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Donation endpoints
	donationservice.RegisterRoutes(r, svc, logger)

	return r
}
