package evidence

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/sngm3741/warranty-services/api/internal/logging"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// Profile bounds the output of image normalization.
type Profile struct {
	MaxWidth  int
	MaxHeight int
	// Quality is the JPEG quality in (0, 1].
	Quality float64
}

var (
	// DefaultProfile suits desktop and most mobile browsers.
	DefaultProfile = Profile{MaxWidth: 1200, MaxHeight: 1200, Quality: 0.8}
	// CompactProfile is for clients that run short of memory on large bitmaps.
	CompactProfile = Profile{MaxWidth: 1000, MaxHeight: 1000, Quality: 0.8}
)

// ProfileByName resolves "default" or "compact".
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "default":
		return DefaultProfile, nil
	case "compact":
		return CompactProfile, nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q (want default or compact)", name)
}

func (p Profile) withDefaults() Profile {
	if p.MaxWidth <= 0 {
		p.MaxWidth = DefaultProfile.MaxWidth
	}
	if p.MaxHeight <= 0 {
		p.MaxHeight = DefaultProfile.MaxHeight
	}
	if p.Quality <= 0 || p.Quality > 1 {
		p.Quality = DefaultProfile.Quality
	}
	return p
}

func (p Profile) jpegQuality() int {
	q := int(math.Round(p.Quality * 100))
	return min(max(q, 1), 100)
}

// Strategy names reported by NormalizeWithReport.
const (
	StrategyResample    = "resample"
	StrategyPassthrough = "passthrough"
)

// Report describes which path produced a payload.
type Report struct {
	Strategy     string
	Decoder      string
	Encoder      string
	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
	// Reason is set when the payload fell back to pass-through.
	Reason string
}

// Normalizer runs the decode → fit → render → encode pipeline with ordered
// fallbacks at each stage. It is safe for concurrent use.
type Normalizer struct {
	decoders []Decoder
	encoders []Encoder
	logger   *zap.Logger
	surfaces surfacePool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDecoders replaces the decoder chain. Order is attempt order.
func WithDecoders(decoders ...Decoder) Option {
	return func(n *Normalizer) { n.decoders = decoders }
}

// WithEncoders replaces the encoder chain. Order is attempt order.
func WithEncoders(encoders ...Encoder) Option {
	return func(n *Normalizer) { n.encoders = encoders }
}

// WithLogger attaches a logger for fallback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// NewNormalizer returns a Normalizer with the default chains:
// oriented then plain decoding, stream then data-URL encoding.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		decoders: []Decoder{OrientedDecoder(), PlainDecoder()},
		encoders: []Encoder{StreamEncoder(), DataURLEncoder()},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = logging.OrNop(n.logger)
	return n
}

// Normalize returns a payload for f. It never fails: anything that cannot be
// re-encoded is sent as the original bytes.
func (n *Normalizer) Normalize(f File, p Profile) domain.FilePayload {
	payload, _ := n.NormalizeWithReport(f, p)
	return payload
}

// NormalizeWithReport is Normalize plus a description of the path taken.
func (n *Normalizer) NormalizeWithReport(f File, p Profile) (payload domain.FilePayload, report Report) {
	if !IsImage(f.MimeType) {
		return Passthrough(f), Report{Strategy: StrategyPassthrough, Reason: "not an image"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			n.logger.Warn("evidence normalization panicked", zap.Any("panic", rec), zap.String("file", f.Name))
			payload, report = Passthrough(f), Report{Strategy: StrategyPassthrough, Reason: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	p = p.withDefaults()

	img, decoder, err := n.decode(f.Data)
	if err != nil {
		n.logger.Debug("no decoder accepted evidence", zap.String("file", f.Name), zap.Error(err))
		return Passthrough(f), Report{Strategy: StrategyPassthrough, Reason: err.Error()}
	}

	src := img.Bounds()
	w, h := FitWithin(src.Dx(), src.Dy(), p.MaxWidth, p.MaxHeight)

	data, encoder, err := n.render(img, w, h, p.jpegQuality())
	if err != nil {
		n.logger.Debug("no encoder produced evidence", zap.String("file", f.Name), zap.Error(err))
		return Passthrough(f), Report{
			Strategy:     StrategyPassthrough,
			Decoder:      decoder,
			SourceWidth:  src.Dx(),
			SourceHeight: src.Dy(),
			Reason:       err.Error(),
		}
	}

	payload = domain.FilePayload{
		Name:     JPEGName(f.Name),
		MimeType: JPEGMIMEType,
		Content:  base64.StdEncoding.EncodeToString(data),
	}
	report = Report{
		Strategy:     StrategyResample,
		Decoder:      decoder,
		Encoder:      encoder,
		SourceWidth:  src.Dx(),
		SourceHeight: src.Dy(),
		Width:        w,
		Height:       h,
	}
	return payload, report
}

// SurfaceStats reports off-screen bitmap acquisition counts.
func (n *Normalizer) SurfaceStats() SurfaceStats {
	return n.surfaces.stats()
}

func (n *Normalizer) decode(data []byte) (image.Image, string, error) {
	lastErr := errors.New("no decoders configured")
	for _, d := range n.decoders {
		img, err := safeDecode(d, data)
		if err == nil && img != nil {
			if b := img.Bounds(); b.Dx() > 0 && b.Dy() > 0 {
				return img, d.Name(), nil
			}
			err = errEmptyImage
		}
		if err == nil {
			err = errors.New("decoder returned no image")
		}
		lastErr = fmt.Errorf("%s: %w", d.Name(), err)
		n.logger.Debug("decoder failed, trying next", zap.String("decoder", d.Name()), zap.Error(err))
	}
	return nil, "", lastErr
}

// render draws img onto a pooled surface of w×h and runs the encoder chain.
// The surface goes back to the pool on every path.
func (n *Normalizer) render(img image.Image, w, h, quality int) ([]byte, string, error) {
	surface := n.surfaces.acquire(w, h)
	defer n.surfaces.release(surface)

	draw.Draw(surface, surface.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(surface, surface.Bounds(), img, img.Bounds(), draw.Over, nil)

	lastErr := errors.New("no encoders configured")
	for _, e := range n.encoders {
		data, err := safeEncode(e, surface, quality)
		if err == nil && len(data) > 0 {
			return data, e.Name(), nil
		}
		if err == nil {
			err = errors.New("encoder returned no data")
		}
		lastErr = fmt.Errorf("%s: %w", e.Name(), err)
		n.logger.Debug("encoder failed, trying next", zap.String("encoder", e.Name()), zap.Error(err))
	}
	return nil, "", lastErr
}

func safeDecode(d Decoder, data []byte) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	return d.Decode(data)
}

func safeEncode(e Encoder, img image.Image, quality int) (data []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.Encode(img, quality)
}

// FitWithin scales (srcW, srcH) to fit inside (maxW, maxH), keeping the
// aspect ratio. It never upscales and never returns a zero dimension.
func FitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 1, 1
	}
	scale := math.Min(math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH)), 1)
	w := max(1, int(math.Round(float64(srcW)*scale)))
	h := max(1, int(math.Round(float64(srcH)*scale)))
	return w, h
}

var imageExtension = regexp.MustCompile(`(?i)\.(heic|heif|webp|png|gif|jpeg|jpg)$`)

// JPEGName strips a recognized image extension and appends ".jpg".
func JPEGName(name string) string {
	return imageExtension.ReplaceAllString(name, "") + ".jpg"
}
