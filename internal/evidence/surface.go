package evidence

import (
	"image"
	"sync"
	"sync/atomic"
)

// surfacePool hands out off-screen RGBA bitmaps and tracks that every one
// handed out comes back.
type surfacePool struct {
	pool     sync.Pool
	acquired atomic.Int64
	released atomic.Int64
}

func (p *surfacePool) acquire(w, h int) *image.RGBA {
	n := 4 * w * h
	var pix []byte
	if v, ok := p.pool.Get().(*[]byte); ok && cap(*v) >= n {
		pix = (*v)[:n]
		clear(pix)
	} else {
		pix = make([]byte, n)
	}
	p.acquired.Add(1)
	return &image.RGBA{Pix: pix, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

func (p *surfacePool) release(s *image.RGBA) {
	if s == nil {
		return
	}
	pix := s.Pix[:0]
	s.Pix = nil
	p.pool.Put(&pix)
	p.released.Add(1)
}

// SurfaceStats reports how many surfaces were acquired and released.
type SurfaceStats struct {
	Acquired int64
	Released int64
}

// Outstanding is the number of surfaces currently held.
func (s SurfaceStats) Outstanding() int64 {
	return s.Acquired - s.Released
}

func (p *surfacePool) stats() SurfaceStats {
	return SurfaceStats{Acquired: p.acquired.Load(), Released: p.released.Load()}
}
