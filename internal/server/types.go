// Package server exposes the receipt pipeline over HTTP. It is stateless:
// every request carries its own image or tokens and gets one record back.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	scanner     *scanner.Scanner
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	rateLimiter *RateLimiter
	version     string
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	Timeout     time.Duration
	Version     string

	// Per-client limits; zero disables.
	RateLimitPerMinute int
	RateLimitPerDay    int
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ScanResponse is returned by the scan, capture and parse endpoints.
type ScanResponse struct {
	Success    bool            `json:"success"`
	Record     receipt.Record  `json:"record"`
	Fields     int             `json:"fields"`
	Rectified  bool            `json:"rectified"`
	Cached     bool            `json:"cached,omitempty"`
	Issues     []receipt.Issue `json:"issues,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// CaptureRequest carries a camera frame as a data URL or bare base64.
type CaptureRequest struct {
	Image string `json:"image"`
}

// ParseRequest carries recognized tokens in reading order.
type ParseRequest struct {
	Tokens []string `json:"tokens"`
}

// NewServer creates a server around s.
func NewServer(config Config, s *scanner.Scanner) (*Server, error) {
	if s == nil {
		return nil, errors.New("scanner is required")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 20
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	srv := &Server{
		scanner:     s,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeout:     config.Timeout,
		version:     config.Version,
	}
	if config.RateLimitPerMinute > 0 || config.RateLimitPerDay > 0 {
		srv.rateLimiter = NewRateLimiter(config.RateLimitPerMinute, config.RateLimitPerDay)
	}
	return srv, nil
}

// Close releases the pipeline behind the scanner.
func (s *Server) Close() error {
	if s.scanner != nil {
		return s.scanner.Pipeline().Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/receipts/scan", s.corsMiddleware(s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/v1/receipts/capture", s.corsMiddleware(s.rateLimitMiddleware(s.captureHandler)))
	mux.HandleFunc("/v1/receipts/parse", s.corsMiddleware(s.parseHandler))
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
