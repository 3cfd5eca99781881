package hook

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/go-playground/validator/v10"
	"golang.org/x/image/font"
)

// Request describes a hook card to render. Empty text renders a blank card
// at the minimum width.
type Request struct {
	Text        string
	TargetWidth int     `validate:"gt=0"`
	Scale       float64 `validate:"gt=0"`
	OutputPath  string  `validate:"required"`
}

// Result describes a rendered card.
type Result struct {
	Path   string
	Width  int
	Height int
	Layout Layout
}

// Compositor renders hook cards to PNG files.
type Compositor struct {
	fonts    FaceSource
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCompositor creates a Compositor drawing with faces from fonts.
func NewCompositor(fonts FaceSource, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{
		fonts:    fonts,
		validate: validator.New(),
		logger:   logger,
	}
}

// Composite renders req.Text into a transparent PNG at req.OutputPath.
func (c *Compositor) Composite(ctx context.Context, req Request) (Result, error) {
	if err := c.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("invalid hook request: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	size := FontSize(req.TargetWidth, req.Scale)
	face := c.fonts.Face(float64(size))
	defer func() { _ = face.Close() }()

	m := faceMeasurer{face: face}
	layout := ComputeLayout(req.Text, req.TargetWidth, size, m)

	img := render(layout, face, m)
	if err := gg.SavePNG(req.OutputPath, img); err != nil {
		return Result{}, fmt.Errorf("save hook image: %w", err)
	}

	c.logger.Debug("rendered hook card",
		"path", req.OutputPath,
		"font_size", size,
		"lines", len(layout.Lines),
		"width", layout.CanvasWidth,
		"height", layout.CanvasHeight,
	)

	return Result{
		Path:   req.OutputPath,
		Width:  layout.CanvasWidth,
		Height: layout.CanvasHeight,
		Layout: layout,
	}, nil
}

// render draws the shadow, card and text for layout.
func render(layout Layout, face font.Face, m faceMeasurer) image.Image {
	inset := float64(CanvasInset)
	boxW := float64(layout.BoxWidth)
	boxH := float64(layout.BoxHeight)

	shadow := gg.NewContext(layout.CanvasWidth, layout.CanvasHeight)
	shadow.DrawRoundedRectangle(inset+ShadowOffsetX, inset+ShadowOffsetY, boxW, boxH, CornerRadius)
	shadow.SetRGBA255(0, 0, 0, ShadowAlpha)
	shadow.Fill()

	dc := gg.NewContextForImage(imaging.Blur(shadow.Image(), ShadowBlurSigma))
	dc.DrawRoundedRectangle(inset, inset, boxW, boxH, CornerRadius)
	dc.SetRGBA255(255, 255, 255, CardAlpha)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetRGB(0, 0, 0)

	y := CanvasInset + PaddingY + TextNudgeY
	for _, line := range layout.Lines {
		if line.Blank() {
			y += layout.FontSize + LineSpacing
			continue
		}

		// Align the ink box, not the pen origin, to (x, y).
		b := m.bounds(line.Text)
		x := CanvasInset + (layout.BoxWidth-line.Width)/2
		dc.DrawString(line.Text, float64(x)-fixedToFloat(b.Min.X), float64(y)-fixedToFloat(b.Min.Y))

		y += line.Height + LineSpacing
	}

	return dc.Image()
}
