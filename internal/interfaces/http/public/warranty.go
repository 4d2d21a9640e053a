package public

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/warranty-services/api/internal/warranty/application"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// warrantyRelayHandler は登録フォームの JSON を受け取り、上流へ中継した結果を
// {ok, upstream?, error?} の形で返す。
func (h *Handler) warrantyRelayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

		body, err := common.ReadBody(w, r, h.maxRequestBody)
		if err != nil {
			if errors.Is(err, common.ErrBodyTooLarge) {
				logger.Warn("リクエストボディが大きすぎます", zap.Int64("limit", h.maxRequestBody))
				common.WriteError(logger, w, http.StatusBadRequest, common.MsgBodyTooLarge)
				return
			}
			logger.Warn("リクエストボディの読み込みに失敗", zap.Error(err))
			common.WriteError(logger, w, http.StatusBadRequest, application.ErrInvalidJSON)
			return
		}

		upstream, err := h.relay.Relay(r.Context(), body)
		if err != nil {
			relayErr := domain.AsRelayError(err)
			common.WriteEnvelope(logger, w, relayErr.Status(), domain.Failure(relayErr.Message))
			return
		}

		common.WriteEnvelope(logger, w, http.StatusOK, domain.Success(upstream))
	}
}
