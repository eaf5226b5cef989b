package chainproof

import (
	"fmt"
	"net/http"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// Option configures verifier settings using the functional options pattern.
type Option func(*settings)

type settings struct {
	// Timeout bounds one verification call. It must stay inside the HTTP
	// router's request timeout so a slow chain never hangs a donor request.
	Timeout time.Duration `default:"30s"`

	httpClient *http.Client
	logger     *zap.Logger
}

// WithTimeout overrides the per-verification timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client (explorer verifier only).
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithLogger sets a custom logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func applyOptions(opts []Option) (settings, error) {
	var s settings
	if err := defaults.Set(&s); err != nil {
		return s, fmt.Errorf("apply default options: %w", err)
	}
	s.logger = zap.NewNop()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s, nil
}
