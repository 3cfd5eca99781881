package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"
)

// DefaultFontFile is the on-disk name of the downloaded display font.
const DefaultFontFile = "NotoSerif-Bold.ttf"

// fontUserAgent is sent with the font download; some hosts reject requests
// without one.
const fontUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// ErrFontDownload is returned when the display font cannot be fetched.
var ErrFontDownload = errors.New("font download failed")

// fallbackFont is the embedded Go Bold face, used when the display font is
// missing or unreadable.
var fallbackFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gobold.TTF)
})

// FaceSource provides font faces at a given point size.
type FaceSource interface {
	Face(size float64) font.Face
}

// FontLoader resolves the display font, downloading it on demand.
type FontLoader struct {
	path   string
	url    string
	client *http.Client
	logger *slog.Logger

	// fellBack is set once the fallback warning has been logged.
	fellBack atomic.Bool
}

// FontLoaderOption configures a FontLoader.
type FontLoaderOption func(*FontLoader)

// WithHTTPClient sets the HTTP client used for the download.
func WithHTTPClient(c *http.Client) FontLoaderOption {
	return func(l *FontLoader) {
		l.client = c
	}
}

// WithFontLogger sets the logger.
func WithFontLogger(logger *slog.Logger) FontLoaderOption {
	return func(l *FontLoader) {
		l.logger = logger
	}
}

// NewFontLoader creates a loader for dir/NotoSerif-Bold.ttf fetched from url.
func NewFontLoader(dir, url string, opts ...FontLoaderOption) *FontLoader {
	l := &FontLoader{
		path:   filepath.Join(dir, DefaultFontFile),
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the local path of the display font.
func (l *FontLoader) Path() string {
	return l.path
}

// Ensure downloads the display font if it is not already on disk.
// Errors are logged and returned; rendering still works with the fallback.
func (l *FontLoader) Ensure(ctx context.Context) error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	}

	l.logger.Info("downloading hook font", "url", l.url, "path", l.path)
	if err := l.download(ctx); err != nil {
		l.logger.Warn("hook font unavailable, using fallback", "error", err)
		return err
	}
	return nil
}

func (l *FontLoader) download(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("%w: create font dir: %w", ErrFontDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFontDownload, err)
	}
	req.Header.Set("User-Agent", fontUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFontDownload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrFontDownload, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".font-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFontDownload, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write font: %w", ErrFontDownload, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrFontDownload, err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("%w: %w", ErrFontDownload, err)
	}
	return nil
}

// Face returns the display font at size points, or the embedded fallback
// when the display font cannot be loaded. The fallback is reported once per
// loader.
func (l *FontLoader) Face(size float64) font.Face {
	face, err := gg.LoadFontFace(l.path, size)
	if err == nil {
		return face
	}
	if l.fellBack.CompareAndSwap(false, true) {
		l.logger.Warn("display font not loadable, using fallback", "path", l.path, "error", err)
	}
	return FallbackFace(size)
}

// FallbackFace returns the embedded bold face at size points.
func FallbackFace(size float64) font.Face {
	f, err := fallbackFont()
	if err != nil {
		// The embedded font is known-good.
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// FallbackSource serves the embedded bold face.
type FallbackSource struct{}

// Face implements FaceSource.
func (FallbackSource) Face(size float64) font.Face {
	return FallbackFace(size)
}

// faceMeasurer measures ink bounds of strings drawn in a face.
type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) bounds(s string) fixed.Rectangle26_6 {
	b, _ := font.BoundString(m.face, s)
	return b
}

// Measure implements Measurer.
func (m faceMeasurer) Measure(s string) (int, int) {
	if s == "" {
		return 0, 0
	}
	b := m.bounds(s)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil()
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return math.Round(float64(v) / 64)
}
