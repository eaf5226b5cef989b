package prices

import (
	"fmt"
	"net/http"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// Option configures client settings using the functional options pattern.
type Option func(*settings)

type settings struct {
	// Timeout bounds the whole feed call; the fallback table answers
	// anything slower.
	Timeout time.Duration `default:"10s"`

	httpClient *http.Client
	logger     *zap.Logger
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.Timeout = d }
}

// WithHTTPClient sets a custom HTTP client. The client's own timeout then
// governs the feed call.
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
