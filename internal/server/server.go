package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/config"
	"github.com/sngm3741/warranty-services/api/internal/infrastructure/upstream"
	commonhttp "github.com/sngm3741/warranty-services/api/internal/interfaces/http/common"
	pagehttp "github.com/sngm3741/warranty-services/api/internal/interfaces/http/page"
	publichttp "github.com/sngm3741/warranty-services/api/internal/interfaces/http/public"
	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/metrics"
	"github.com/sngm3741/warranty-services/api/internal/warranty/application"
)

const defaultShutdownTimeout = 10 * time.Second

// Server は HTTP サーバーのライフサイクルを管理し、中継・ページの各ハンドラへ依存注入するコンポジションルート。
// DDD の Interface 層に相当し、アプリケーションサービスをルータへ接続する責務を担う。
type Server struct {
	logger         *zap.Logger
	cfg            config.Config
	registry       *prometheus.Registry
	metrics        *metrics.Relay
	relay          application.RelayService
	limiter        *commonhttp.RateLimiter
	pages          *pagehttp.Handler
	allowedOrigins []string
}

// Option は New のテスト用差し替えポイント。
type Option func(*serverDeps)

type serverDeps struct {
	gateway application.UpstreamGateway
}

// WithGateway は上流送信ポートを差し替える。
func WithGateway(g application.UpstreamGateway) Option {
	return func(d *serverDeps) { d.gateway = g }
}

// New は設定値から依存を組み立てる。上流 URL が未設定でも起動は継続し、リクエスト単位で 500 を返す。
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	logger = logging.OrNop(logger)

	deps := serverDeps{}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.gateway == nil {
		deps.gateway = upstream.NewClient(nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewRelay(registry)

	pages, err := pagehttp.NewHandler(pagehttp.Config{Logger: logger.Named("page")})
	if err != nil {
		return nil, fmt.Errorf("page handler: %w", err)
	}

	if !cfg.UpstreamConfigured() {
		logger.Warn("上流 URL が未設定です。送信は 500 で失敗します", zap.String("key", config.UpstreamURLKey))
	}

	return &Server{
		logger:   logger,
		cfg:      cfg,
		registry: registry,
		metrics:  relayMetrics,
		relay: application.NewRelayService(application.RelayConfig{
			UpstreamURL: cfg.UpstreamURL,
			Gateway:     deps.gateway,
			Logger:      logger.Named("relay"),
			Metrics:     relayMetrics,
		}),
		limiter:        commonhttp.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		pages:          pages,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}, nil
}

// Handler はルーティングとミドルウェアを組み立てた http.Handler を返す。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		router.Use(middleware.RealIP)
	}
	router.Use(commonhttp.AccessLog(s.logger.Named("http")))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:         s.logger.Named("public"),
		Relay:          s.relay,
		MaxRequestBody: s.cfg.MaxRequestBody,
	})
	publicHandler.Register(router, s.limiter.Middleware(s.logger, s.metrics.ObserveRateLimited))

	s.pages.Register(router)
	return router
}

// Run はHTTPサーバーを起動し、ctx の終了かシグナル受信で graceful shutdown する。
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP サーバー起動", zap.String("addr", s.cfg.Addr))
		errChan <- httpServer.ListenAndServe()
	}()

	return s.waitForShutdown(ctx, httpServer, errChan)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

type healthResponse struct {
	Status             string `json:"status"`
	Time               string `json:"time"`
	UpstreamConfigured bool   `json:"upstreamConfigured"`
}

// healthHandler は監視系からのヘルスチェック要求に応える。
// 上流への疎通は確認せず、設定の有無のみを返す。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		commonhttp.WriteJSON(s.logger, w, http.StatusOK, healthResponse{
			Status:             "ok",
			Time:               time.Now().Format(time.RFC3339),
			UpstreamConfigured: s.relay.UpstreamConfigured(),
		})
	}
}

func (s *Server) waitForShutdown(ctx context.Context, httpServer *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("サーバーが異常終了", zap.Error(err))
			return err
		}
		return nil
	case sig := <-sigChan:
		s.logger.Info("シグナルを受信。サーバー停止処理を開始します", zap.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("コンテキスト終了。サーバー停止処理を開始します")
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("サーバー停止時にエラー", zap.Error(err))
		return err
	}
	return nil
}
