package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// scanHandler reads a multipart upload in field "image".
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeBodyError(w, "scan", err, "failed to parse form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		receiptRequestsTotal.WithLabelValues("scan", "bad_request").Inc()
		s.writeErrorResponse(w, http.StatusBadRequest, "bad_request", "no image file provided", 0)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeBodyError(w, "scan", err, "failed to read image data")
		return
	}
	s.scanData(w, r, "scan", data)
}

// captureHandler reads a camera frame sent as a JSON data URL.
func (s *Server) captureHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// base64 inflates by 4/3; leave headroom for the JSON envelope
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024*4/3+4096)

	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBodyError(w, "capture", err, "invalid JSON body")
		return
	}
	data, err := decodeDataURL(req.Image)
	if err != nil {
		receiptRequestsTotal.WithLabelValues("capture", "bad_request").Inc()
		s.writeErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error(), 0)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))
	s.scanData(w, r, "capture", data)
}

// parseHandler parses tokens without an image.
func (s *Server) parseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1024*1024)

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBodyError(w, "parse", err, "invalid JSON body")
		return
	}
	out := s.scanner.ParseTokens(req.Tokens)
	receiptRequestsTotal.WithLabelValues("parse", "ok").Inc()
	writeJSON(w, http.StatusOK, toScanResponse(out))
}

func (s *Server) scanData(w http.ResponseWriter, r *http.Request, kind string, data []byte) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	out, err := s.scanner.ScanBytes(ctx, data)
	if err != nil {
		s.writeScanError(w, kind, err)
		return
	}
	receiptRequestsTotal.WithLabelValues(kind, "ok").Inc()
	slog.Debug("receipt scanned", "kind", kind, "fields", out.Record.Len(), "cached", out.Cached, "duration", out.Duration)
	writeJSON(w, http.StatusOK, toScanResponse(out))
}

func toScanResponse(out *scanner.Outcome) ScanResponse {
	return ScanResponse{
		Success:    true,
		Record:     out.Record,
		Fields:     out.Record.Len(),
		Rectified:  out.Rectified,
		Cached:     out.Cached,
		Issues:     out.Issues,
		DurationMS: out.Duration.Milliseconds(),
	}
}

// writeScanError maps pipeline failures to HTTP statuses.
func (s *Server) writeScanError(w http.ResponseWriter, kind string, err error) {
	var (
		status     int
		label      string
		retryAfter time.Duration
	)
	var recErr *pipeline.RecognitionError
	switch {
	case errors.Is(err, scanner.ErrInvalidImage):
		status, label = http.StatusBadRequest, "invalid_image"
	case errors.Is(err, pipeline.ErrNoReceiptDetected):
		status, label = http.StatusUnprocessableEntity, "no_receipt"
	case errors.Is(err, pipeline.ErrRecognitionResourceExhausted):
		status, label = http.StatusServiceUnavailable, "resource_exhausted"
		if errors.As(err, &recErr) {
			retryAfter = recErr.RetryAfter
		}
	case errors.Is(err, pipeline.ErrRecognitionFailure):
		status, label = http.StatusBadGateway, "recognition_failed"
	case errors.Is(err, context.DeadlineExceeded):
		status, label = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		status, label = http.StatusServiceUnavailable, "canceled"
	default:
		status, label = http.StatusInternalServerError, "internal"
	}
	receiptRequestsTotal.WithLabelValues(kind, label).Inc()
	if status >= http.StatusInternalServerError {
		slog.Error("receipt request failed", "kind", kind, "status", status, "error", err)
	}
	s.writeErrorResponse(w, status, label, err.Error(), retryAfter)
}

// writeBodyError distinguishes oversized bodies from malformed ones.
func (s *Server) writeBodyError(w http.ResponseWriter, kind string, err error, message string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		receiptRequestsTotal.WithLabelValues(kind, "too_large").Inc()
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), 0)
		return
	}
	receiptRequestsTotal.WithLabelValues(kind, "bad_request").Inc()
	s.writeErrorResponse(w, http.StatusBadRequest, "bad_request", message, 0)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, status int, kind, message string, retryAfter time.Duration) {
	resp := ErrorResponse{Success: false, Error: message, Kind: kind}
	if secs := retryAfterSeconds(retryAfter); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		resp.RetryAfter = secs
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeDataURL accepts "data:<mime>;base64,<payload>" or a bare base64 payload.
func decodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("image is required")
	}
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, errors.New("malformed data URL")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("data URL must be base64 encoded")
		}
		if mime := strings.TrimSuffix(meta, ";base64"); mime != "" && !strings.HasPrefix(mime, "image/") {
			return nil, fmt.Errorf("unsupported media type %q", mime)
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}
