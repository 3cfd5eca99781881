package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/maauso/openshorts-hooks/internal/media"
)

// Fallback frame size when a clip cannot be probed.
const (
	DefaultVideoWidth  = 1080
	DefaultVideoHeight = 1920
)

// Overlay placement ratios.
const (
	OverlayWidthRatio = 0.9
	TopOffsetRatio    = 0.20
	BottomOffsetRatio = 0.70
)

// ErrVideoNotFound is returned when the source clip does not exist.
var ErrVideoNotFound = errors.New("video not found")

// Position is the vertical anchor of a hook on the frame.
type Position string

// Supported positions.
const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

// ParsePosition maps s to a Position. Unknown values anchor at the top.
func ParsePosition(s string) Position {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case PositionCenter:
		return PositionCenter
	case PositionBottom:
		return PositionBottom
	default:
		return PositionTop
	}
}

// Size is a named text size preset.
type Size string

// Size presets.
const (
	SizeSmall  Size = "S"
	SizeMedium Size = "M"
	SizeLarge  Size = "L"
)

// ParseSize maps s to a Size. Unknown values are medium.
func ParseSize(s string) Size {
	switch Size(strings.ToUpper(strings.TrimSpace(s))) {
	case SizeSmall:
		return SizeSmall
	case SizeLarge:
		return SizeLarge
	default:
		return SizeMedium
	}
}

// Scale returns the font scale factor of the preset.
func (s Size) Scale() float64 {
	switch s {
	case SizeSmall:
		return 0.8
	case SizeLarge:
		return 1.3
	default:
		return 1.0
	}
}

// PlaceOverlay returns the top-left corner of an imgW x imgH overlay on a
// videoW x videoH frame. The overlay is always centered horizontally.
func PlaceOverlay(videoW, videoH, imgW, imgH int, pos Position) (int, int) {
	x := floorDiv(videoW-imgW, 2)

	switch pos {
	case PositionCenter:
		return x, floorDiv(videoH-imgH, 2)
	case PositionBottom:
		return x, int(float64(videoH) * BottomOffsetRatio)
	default:
		return x, int(float64(videoH) * TopOffsetRatio)
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TempFiles hands out and removes scratch file paths.
type TempFiles interface {
	TempPath(prefix, ext string) string
	CleanupTemp(ctx context.Context, paths []string) error
}

// OverlayRequest describes a hook to burn onto a clip.
type OverlayRequest struct {
	VideoPath  string
	OutputPath string
	Text       string
	Position   Position
	// Scale multiplies the base font size. Zero means 1.0.
	Scale float64
}

// Placement records where a hook was burned.
type Placement struct {
	OutputPath  string
	VideoWidth  int
	VideoHeight int
	ImageWidth  int
	ImageHeight int
	X           int
	Y           int
}

// Overlayer renders a hook card and burns it onto a video.
type Overlayer struct {
	compositor *Compositor
	processor  media.Processor
	temp       TempFiles
	logger     *slog.Logger
}

// NewOverlayer creates an Overlayer.
func NewOverlayer(compositor *Compositor, processor media.Processor, temp TempFiles, logger *slog.Logger) *Overlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Overlayer{
		compositor: compositor,
		processor:  processor,
		temp:       temp,
		logger:     logger,
	}
}

// AddHook renders req.Text at 90% of the video width and overlays it at
// req.Position. The intermediate PNG is removed on every path.
func (o *Overlayer) AddHook(ctx context.Context, req OverlayRequest) (Placement, error) {
	if _, err := os.Stat(req.VideoPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Placement{}, fmt.Errorf("%w: %s", ErrVideoNotFound, req.VideoPath)
		}
		return Placement{}, fmt.Errorf("stat video: %w", err)
	}

	scale := req.Scale
	if scale == 0 {
		scale = 1.0
	}

	videoW, videoH, err := o.processor.ProbeDimensions(ctx, req.VideoPath)
	if err != nil {
		o.logger.Warn("probe failed, assuming portrait 1080x1920",
			slog.String("video", req.VideoPath),
			slog.String("error", err.Error()),
		)
		videoW, videoH = DefaultVideoWidth, DefaultVideoHeight
	}

	imagePath := o.temp.TempPath("temp_hook_", ".png")
	defer func() {
		if err := o.temp.CleanupTemp(context.WithoutCancel(ctx), []string{imagePath}); err != nil {
			o.logger.Warn("failed to remove hook image",
				slog.String("path", imagePath),
				slog.String("error", err.Error()),
			)
		}
	}()

	card, err := o.compositor.Composite(ctx, Request{
		Text:        req.Text,
		TargetWidth: int(float64(videoW) * OverlayWidthRatio),
		Scale:       scale,
		OutputPath:  imagePath,
	})
	if err != nil {
		return Placement{}, fmt.Errorf("render hook: %w", err)
	}

	x, y := PlaceOverlay(videoW, videoH, card.Width, card.Height, req.Position)

	o.logger.Info("burning hook",
		slog.String("video", req.VideoPath),
		slog.String("position", string(req.Position)),
		slog.Int("x", x),
		slog.Int("y", y),
	)

	if err := o.processor.OverlayImage(ctx, req.VideoPath, imagePath, req.OutputPath, x, y); err != nil {
		var ffErr *media.FFmpegError
		if errors.As(err, &ffErr) {
			o.logger.Error("ffmpeg overlay failed", slog.String("stderr", ffErr.Stderr))
		}
		return Placement{}, fmt.Errorf("overlay hook: %w", err)
	}

	return Placement{
		OutputPath:  req.OutputPath,
		VideoWidth:  videoW,
		VideoHeight: videoH,
		ImageWidth:  card.Width,
		ImageHeight: card.Height,
		X:           x,
		Y:           y,
	}, nil
}
