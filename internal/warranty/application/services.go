package application

import (
	"context"

	"github.com/sngm3741/warranty-services/api/internal/infrastructure/upstream"
)

// UpstreamGateway posts a JSON document to the spreadsheet backend.
// UpstreamGateway は外部スプレッドシート (Apps Script) への送信ポート。
type UpstreamGateway interface {
	PostJSON(ctx context.Context, endpoint string, body []byte) (*upstream.Response, error)
}

// RelayService forwards a raw submission body upstream.
// RelayService は受け取った JSON を互換変換して上流へ中継するユースケース。
type RelayService interface {
	// Relay returns the parsed upstream body on success. Every failure is a
	// *domain.RelayError.
	Relay(ctx context.Context, rawBody []byte) (any, error)
	// UpstreamConfigured reports whether a target URL was configured at start.
	UpstreamConfigured() bool
}
