package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("JSON エンコードに失敗", zap.Error(err))
	}
}

// WriteEnvelope writes a relay envelope.
func WriteEnvelope(logger *zap.Logger, w http.ResponseWriter, status int, env domain.Envelope) {
	WriteJSON(logger, w, status, env)
}

// WriteError writes {"ok":false,"error":message}.
func WriteError(logger *zap.Logger, w http.ResponseWriter, status int, message string) {
	WriteEnvelope(logger, w, status, domain.Failure(message))
}
