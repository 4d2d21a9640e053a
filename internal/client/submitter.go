package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

const (
	// DefaultTimeout bounds one submit round trip.
	DefaultTimeout = 45 * time.Second
	// DefaultPath is where the relay listens.
	DefaultPath = "/api/warranty"

	maxReplyBytes = 4 << 20
	// fallbackFailure is used when the relay says !ok without a reason.
	fallbackFailure = "submission failed"
)

// Result is a successful relay reply.
type Result struct {
	RequestID string
	// Upstream is the upstream body exactly as the relay echoed it.
	Upstream json.RawMessage
}

// Submitter posts submissions to a relay, one at a time.
type Submitter struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	newID      func() string

	inFlight atomic.Bool
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithHTTPClient replaces the transport. The client's own Timeout should be
// zero; the submit timeout is applied per call.
func WithHTTPClient(c *http.Client) SubmitterOption {
	return func(s *Submitter) { s.httpClient = c }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) { s.timeout = d }
}

// WithSubmitLogger attaches a logger.
func WithSubmitLogger(l *zap.Logger) SubmitterOption {
	return func(s *Submitter) { s.logger = l }
}

// NewSubmitter returns a Submitter posting to endpoint, the full relay URL.
func NewSubmitter(endpoint string, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Endpoint joins a relay base URL and DefaultPath.
func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + DefaultPath
}

// Submit validates sub and posts it. Validation failures never reach the
// network. While a call is in flight, further calls get
// ErrSubmissionInProgress.
func (s *Submitter) Submit(ctx context.Context, sub domain.Submission) (*Result, error) {
	if err := Validate(sub); err != nil {
		return nil, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	requestID := s.newID()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := s.logger.With(zap.String("request_id", requestID), zap.String("endpoint", s.endpoint))
	start := time.Now()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.transportError(ctx, callCtx, logger, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, s.transportError(ctx, callCtx, logger, err)
	}

	var envelope struct {
		OK       bool            `json:"ok"`
		Upstream json.RawMessage `json:"upstream"`
		Error    json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.Warn("relay reply is not JSON", zap.Int("status", resp.StatusCode))
		return nil, ErrBadServerResponse
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		rejection := &RelayError{Status: resp.StatusCode, Message: relayMessage(envelope.Error)}
		logger.Info("relay rejected submission", zap.Int("status", resp.StatusCode), zap.String("error", rejection.Message))
		return nil, rejection
	}

	logger.Info("submission accepted", zap.Duration("elapsed", time.Since(start)))
	return &Result{RequestID: requestID, Upstream: envelope.Upstream}, nil
}

// transportError separates our own deadline from every other failure. A
// cancelled parent context is a network error, not a timeout.
func (s *Submitter) transportError(parent, call context.Context, logger *zap.Logger, err error) error {
	if parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded) {
		logger.Warn("submission timed out", zap.Duration("timeout", s.timeout))
		return ErrTimeout
	}
	logger.Warn("submission transport failed", zap.Error(err))
	return &NetworkError{Err: err}
}

func relayMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallbackFailure
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return fallbackFailure
		}
		return text
	}
	return string(raw)
}
