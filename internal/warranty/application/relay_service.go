package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/config"
	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/metrics"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// ErrInvalidJSON is what callers see for any body that is not a JSON object.
const ErrInvalidJSON = "Invalid JSON"

// rawField wraps upstream replies that are not JSON.
const rawField = "raw"

// RelayConfig defines dependencies required by the relay service.
type RelayConfig struct {
	UpstreamURL string
	Gateway     UpstreamGateway
	Logger      *zap.Logger
	Metrics     *metrics.Relay
}

type relayService struct {
	upstreamURL string
	gateway     UpstreamGateway
	logger      *zap.Logger
	metrics     *metrics.Relay
}

// NewRelayService creates the relay use case. The upstream URL is captured
// once here and never re-read.
func NewRelayService(cfg RelayConfig) RelayService {
	return &relayService{
		upstreamURL: strings.TrimSpace(cfg.UpstreamURL),
		gateway:     cfg.Gateway,
		logger:      logging.OrNop(cfg.Logger),
		metrics:     cfg.Metrics,
	}
}

func (s *relayService) UpstreamConfigured() bool {
	return s.upstreamURL != ""
}

func (s *relayService) Relay(ctx context.Context, rawBody []byte) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("中継処理で panic が発生", zap.Any("panic", rec))
			result, err = nil, domain.NewInternalError(fmt.Errorf("%v", rec))
		}
		s.metrics.ObserveOutcome(outcomeOf(err))
	}()

	body, err := decodeObject(rawBody)
	if err != nil {
		return nil, err
	}

	domain.ApplyUpstreamCompat(body)

	if s.upstreamURL == "" {
		s.logger.Error("上流 URL が設定されていません", zap.String("key", config.UpstreamURLKey))
		return nil, domain.NewMisconfiguredError(config.UpstreamURLKey)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	started := time.Now()
	res, err := s.gateway.PostJSON(ctx, s.upstreamURL, payload)
	if err != nil {
		s.logger.Warn("上流への送信に失敗", zap.Error(err))
		return nil, domain.NewInternalError(err)
	}
	s.metrics.ObserveUpstream(res.StatusCode, time.Since(started))

	upstreamBody := parseUpstream(res.Body)

	if !res.OK() {
		message := upstreamErrorMessage(upstreamBody, res.Body)
		if message == "" {
			message = fmt.Sprintf("upstream responded with status %d", res.StatusCode)
		}
		s.logger.Warn("上流がエラーを返却",
			zap.Int("status", res.StatusCode),
			zap.String("error", message),
		)
		return nil, domain.NewUpstreamRejectedError(message)
	}

	return upstreamBody, nil
}

// decodeObject parses rawBody as exactly one JSON object, keeping numbers
// as json.Number so they reach upstream unchanged.
func decodeObject(rawBody []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(rawBody))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, domain.NewMalformedInputError(ErrInvalidJSON, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewMalformedInputError(ErrInvalidJSON, errors.New("trailing data after JSON value"))
	}

	body, ok := value.(map[string]any)
	if !ok {
		return nil, domain.NewMalformedInputError(ErrInvalidJSON, fmt.Errorf("top-level value is %T, not an object", value))
	}
	return body, nil
}

// parseUpstream returns the decoded reply, or {"raw": text} when it is not JSON.
func parseUpstream(raw []byte) any {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return map[string]any{rawField: string(raw)}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return map[string]any{rawField: string(raw)}
	}
	return value
}

// upstreamErrorMessage prefers the upstream's own "error" field, then the raw text.
func upstreamErrorMessage(parsed any, raw []byte) string {
	if obj, ok := parsed.(map[string]any); ok && domain.Truthy(obj["error"]) {
		if message, ok := obj["error"].(string); ok {
			return message
		}
		if encoded, err := json.Marshal(obj["error"]); err == nil {
			return string(encoded)
		}
	}
	return strings.TrimSpace(string(raw))
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	return string(domain.AsRelayError(err).Kind)
}
