package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sngm3741/warranty-services/api/internal/infrastructure/upstream"
	"github.com/sngm3741/warranty-services/api/internal/metrics"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// ==========================
// Test Helpers
// ==========================

type fakeGateway struct {
	calls    int
	endpoint string
	body     map[string]any
	response *upstream.Response
	err      error
	panicky  bool
}

func (g *fakeGateway) PostJSON(_ context.Context, endpoint string, body []byte) (*upstream.Response, error) {
	g.calls++
	g.endpoint = endpoint
	if g.panicky {
		panic("gateway exploded")
	}
	g.body = map[string]any{}
	if err := json.Unmarshal(body, &g.body); err != nil {
		return nil, err
	}
	return g.response, g.err
}

func newService(t *testing.T, url string, gw *fakeGateway) (RelayService, *metrics.Relay) {
	t.Helper()
	m := metrics.NewRelay(prometheus.NewRegistry())
	return NewRelayService(RelayConfig{
		UpstreamURL: url,
		Gateway:     gw,
		Logger:      zaptest.NewLogger(t),
		Metrics:     m,
	}), m
}

const validBody = `{"fullName":"A","phone":"B","email":"c@d.e","purchaseDate":"2024-01-01","evidence":{"name":"x.jpg","mimeType":"image/jpeg","content":"AAA="}}`

func requireRelayError(t *testing.T, err error, kind domain.ErrorKind) *domain.RelayError {
	t.Helper()
	require.Error(t, err)
	var relayErr *domain.RelayError
	require.True(t, errors.As(err, &relayErr), "expected *domain.RelayError, got %T", err)
	assert.Equal(t, kind, relayErr.Kind)
	return relayErr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRelay_Success(t *testing.T) {
	gw := &fakeGateway{response: &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}}
	svc, m := newService(t, "https://upstream.example/exec", gw)

	result, err := svc.Relay(context.Background(), []byte(validBody))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"ok": true}, result)
	assert.Equal(t, "https://upstream.example/exec", gw.endpoint)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamStatus.WithLabelValues("200")))
}

func TestRelay_RewritesOutboundBody(t *testing.T) {
	gw := &fakeGateway{response: &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
	svc, _ := newService(t, "https://upstream.example/exec", gw)

	_, err := svc.Relay(context.Background(), []byte(validBody))
	require.NoError(t, err)

	assert.Equal(t, "N/A", gw.body["product"])
	assert.Equal(t, "N/A", gw.body["serial"])
	assert.NotContains(t, gw.body, "evidence")
	assert.Equal(t, map[string]any{"name": "x.jpg", "mimeType": "image/jpeg", "content": "AAA="}, gw.body["file"])
	assert.Equal(t, "A", gw.body["fullName"])
}

func TestRelay_PreservesNumbersExactly(t *testing.T) {
	var captured []byte
	gw := &capturingGateway{capture: &captured}
	svc := NewRelayService(RelayConfig{UpstreamURL: "https://upstream.example/exec", Gateway: gw})

	_, err := svc.Relay(context.Background(), []byte(`{"product":"P","serial":"S","amount":12345678901234567890}`))
	require.NoError(t, err)
	assert.Contains(t, string(captured), `"amount":12345678901234567890`)
}

type capturingGateway struct {
	capture *[]byte
}

func (g *capturingGateway) PostJSON(_ context.Context, _ string, body []byte) (*upstream.Response, error) {
	*g.capture = append([]byte(nil), body...)
	return &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

func TestRelay_WrapsNonJSONUpstream(t *testing.T) {
	gw := &fakeGateway{response: &upstream.Response{StatusCode: http.StatusOK, Body: []byte("<html>done</html>")}}
	svc, _ := newService(t, "https://upstream.example/exec", gw)

	result, err := svc.Relay(context.Background(), []byte(validBody))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"raw": "<html>done</html>"}, result)
}

// ==========================
// Failure Taxonomy Tests
// ==========================

func TestRelay_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"fullName":`},
		{name: "empty", body: ``},
		{name: "array", body: `[1,2]`},
		{name: "null", body: `null`},
		{name: "number", body: `42`},
		{name: "trailing garbage", body: `{"a":1} x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc, m := newService(t, "https://upstream.example/exec", gw)

			_, err := svc.Relay(context.Background(), []byte(tt.body))
			relayErr := requireRelayError(t, err, domain.KindMalformedInput)

			assert.Equal(t, ErrInvalidJSON, relayErr.Message)
			assert.Equal(t, http.StatusBadRequest, relayErr.Status())
			assert.Zero(t, gw.calls)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(string(domain.KindMalformedInput))))
		})
	}
}

func TestRelay_MalformedInputWinsOverMissingConfig(t *testing.T) {
	svc, _ := newService(t, "", &fakeGateway{})

	_, err := svc.Relay(context.Background(), []byte(`nope`))
	requireRelayError(t, err, domain.KindMalformedInput)
}

func TestRelay_MissingUpstreamURL(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(t, "  ", gw)

	assert.False(t, svc.UpstreamConfigured())

	_, err := svc.Relay(context.Background(), []byte(validBody))
	relayErr := requireRelayError(t, err, domain.KindMisconfigured)

	assert.Equal(t, "Missing APPSCRIPT_WEB_APP_URL", relayErr.Message)
	assert.Equal(t, http.StatusInternalServerError, relayErr.Status())
	assert.Zero(t, gw.calls)
}

func TestRelay_UpstreamRejected(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "error field", status: http.StatusBadRequest, body: `{"error":"bad data"}`, expected: "bad data"},
		{name: "raw text", status: http.StatusInternalServerError, body: "Script function not found", expected: "Script function not found"},
		{name: "empty error falls back to raw", status: http.StatusBadRequest, body: `{"error":""}`, expected: `{"error":""}`},
		{name: "structured error", status: http.StatusBadRequest, body: `{"error":{"code":7}}`, expected: `{"code":7}`},
		{name: "empty body", status: http.StatusServiceUnavailable, body: "", expected: "upstream responded with status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{response: &upstream.Response{StatusCode: tt.status, Body: []byte(tt.body)}}
			svc, _ := newService(t, "https://upstream.example/exec", gw)

			_, err := svc.Relay(context.Background(), []byte(validBody))
			relayErr := requireRelayError(t, err, domain.KindUpstreamRejected)

			assert.Equal(t, tt.expected, relayErr.Message)
			assert.Equal(t, http.StatusBadGateway, relayErr.Status())
		})
	}
}

func TestRelay_TransportFailureIsInternal(t *testing.T) {
	gw := &fakeGateway{err: errors.New("dial tcp 10.0.0.1:443: connect: connection refused")}
	svc, _ := newService(t, "https://upstream.example/exec", gw)

	_, err := svc.Relay(context.Background(), []byte(validBody))
	relayErr := requireRelayError(t, err, domain.KindInternal)
	assert.Contains(t, relayErr.Message, "connection refused")
}

func TestRelay_PanicIsInternal(t *testing.T) {
	gw := &fakeGateway{panicky: true}
	svc, m := newService(t, "https://upstream.example/exec", gw)

	_, err := svc.Relay(context.Background(), []byte(validBody))
	relayErr := requireRelayError(t, err, domain.KindInternal)
	assert.Equal(t, "gateway exploded", relayErr.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(string(domain.KindInternal))))
}
