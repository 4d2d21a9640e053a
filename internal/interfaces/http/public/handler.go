package public

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/warranty/application"
)

// WarrantyPath is the relay endpoint.
const WarrantyPath = "/api/warranty"

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         *zap.Logger
	relay          application.RelayService
	maxRequestBody int64
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         *zap.Logger
	Relay          application.RelayService
	MaxRequestBody int64
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:         logging.OrNop(cfg.Logger),
		relay:          cfg.Relay,
		maxRequestBody: cfg.MaxRequestBody,
	}
}

// Register mounts all public routes onto the router. middlewares run after
// the JSON recoverer, so a panic in any of them still yields an envelope.
func (h *Handler) Register(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	chain := append([]func(http.Handler) http.Handler{common.JSONRecoverer(h.logger)}, middlewares...)
	r.With(chain...).Post(WarrantyPath, h.warrantyRelayHandler())
}
