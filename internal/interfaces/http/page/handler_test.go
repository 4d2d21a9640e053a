package page

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRouter(t *testing.T, cfg Config) chi.Router {
	t.Helper()
	cfg.Logger = zaptest.NewLogger(t)
	h, err := NewHandler(cfg)
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHome(t *testing.T) {
	rec := get(newRouter(t, Config{}), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `href="/warranty"`)
}

func TestWarrantyForm(t *testing.T) {
	rec := get(newRouter(t, Config{}), "/warranty")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{"fullName", "address", "phone", "email", "gender", "birthday", "purchaseDate", "store", "evidence"} {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.Contains(t, body, `accept="image/*,.pdf"`)
	assert.Contains(t, body, `data-endpoint="/api/warranty"`)
	assert.Contains(t, body, `data-timeout-ms="45000"`)
	assert.Contains(t, body, `data-max-width="1200"`)
	assert.Contains(t, body, "ลูกค้าต้องลงทะเบียนภายใน 7 วันนับจากวันที่ซื้อสินค้า")
	assert.Contains(t, body, "AbortError")
}

func TestWarrantyForm_ImageFallbackChain(t *testing.T) {
	body := get(newRouter(t, Config{}), "/warranty").Body.String()

	orientedBitmap := strings.Index(body, `createImageBitmap(file, opts)`)
	fromImage := strings.Index(body, `imageOrientation: "from-image"`)
	plainBitmap := strings.Index(body, `viaBitmap(undefined)`)
	imgElement := strings.Index(body, `.catch(viaImg)`)
	require.NotEqual(t, -1, orientedBitmap)
	require.NotEqual(t, -1, fromImage)
	require.NotEqual(t, -1, plainBitmap)
	require.NotEqual(t, -1, imgElement)
	assert.Less(t, fromImage, plainBitmap)
	assert.Less(t, plainBitmap, imgElement)

	toBlob := strings.Index(body, `canvas.toBlob(`)
	toDataURL := strings.Index(body, `canvas.toDataURL("image/jpeg", q)`)
	require.NotEqual(t, -1, toBlob)
	require.NotEqual(t, -1, toDataURL)
	assert.Contains(t, body, `.catch(viaDataURL)`)
}

func TestWarrantyForm_LocksBeforeNormalizing(t *testing.T) {
	body := get(newRouter(t, Config{}), "/warranty").Body.String()

	submitHandler := strings.Index(body, `form.addEventListener("submit"`)
	require.NotEqual(t, -1, submitHandler)
	handler := body[submitHandler:]

	lock := strings.Index(handler, `loading = true; refresh();`)
	normalizeCall := strings.Index(handler, `normalize(file) :`)
	require.NotEqual(t, -1, lock)
	require.NotEqual(t, -1, normalizeCall)
	assert.Less(t, lock, normalizeCall, "the button must be locked while the image is still being prepared")
	assert.Contains(t, handler, `if (loading) return;`)
}

func TestWarrantyForm_Profile(t *testing.T) {
	r := newRouter(t, Config{})

	rec := get(r, "/warranty?profile=compact")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-max-width="1000"`)
	assert.Contains(t, rec.Body.String(), `data-max-height="1000"`)

	assert.Equal(t, http.StatusBadRequest, get(r, "/warranty?profile=huge").Code)
}

func TestTermsJSON(t *testing.T) {
	custom := Terms{Title: "T", Sections: []TermsSection{{Heading: "H", Items: []string{"one"}}}}

	tests := []struct {
		name     string
		cfg      Config
		expected Terms
	}{
		{name: "default terms", cfg: Config{}, expected: DefaultTerms},
		{name: "custom terms", cfg: Config{Terms: &custom}, expected: custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newRouter(t, tt.cfg), "/warranty/terms")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var got Terms
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}
