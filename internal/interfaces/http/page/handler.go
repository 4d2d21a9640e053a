// Package page serves the registration pages and the terms document.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/client"
	"github.com/sngm3741/warranty-services/api/internal/evidence"
	"github.com/sngm3741/warranty-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/warranty-services/api/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler renders the landing page, the registration form and the terms.
type Handler struct {
	logger    *zap.Logger
	templates *template.Template
	terms     Terms
	endpoint  string
	timeout   time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger *zap.Logger
	// Terms defaults to DefaultTerms.
	Terms *Terms
	// Endpoint is where the form posts. Defaults to client.DefaultPath.
	Endpoint string
	// SubmitTimeout is the in-page abort deadline. Defaults to client.DefaultTimeout.
	SubmitTimeout time.Duration
}

// NewHandler parses the embedded templates.
func NewHandler(cfg Config) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	h := &Handler{
		logger:    logging.OrNop(cfg.Logger),
		templates: tmpl,
		terms:     DefaultTerms,
		endpoint:  cfg.Endpoint,
		timeout:   cfg.SubmitTimeout,
	}
	if cfg.Terms != nil {
		h.terms = *cfg.Terms
	}
	if h.endpoint == "" {
		h.endpoint = client.DefaultPath
	}
	if h.timeout <= 0 {
		h.timeout = client.DefaultTimeout
	}
	return h, nil
}

// Register mounts the page routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.homeHandler())
	r.Get("/warranty", h.warrantyFormHandler())
	r.Get("/warranty/terms", h.termsHandler())
}

type homeView struct {
	Title string
}

type warrantyView struct {
	Title         string
	Endpoint      string
	TimeoutMillis int64
	Profile       evidence.Profile
	Terms         Terms
}

func (h *Handler) homeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.render(w, "home.html", homeView{Title: "i LexXa"})
	}
}

// warrantyFormHandler はフォームを描画する。画像縮小のプロファイルは ?profile= で
// 呼び出し側が選ぶ (default / compact)。
func (h *Handler) warrantyFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := evidence.ProfileByName(r.URL.Query().Get("profile"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.render(w, "warranty.html", warrantyView{
			Title:         "ลงทะเบียนรับประกันสินค้า",
			Endpoint:      h.endpoint,
			TimeoutMillis: h.timeout.Milliseconds(),
			Profile:       profile,
			Terms:         h.terms,
		})
	}
}

func (h *Handler) termsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(h.logger, w, http.StatusOK, h.terms)
	}
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("テンプレートの描画に失敗", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("ページの書き込みに失敗", zap.Error(err))
	}
}
