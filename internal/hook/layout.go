// Package hook renders "hook" text cards for short-form videos and burns them
// onto clips.
//
// A hook card is a white rounded box with a soft drop shadow holding centered,
// word-wrapped bold serif text. Layout is pixel based: lines are wrapped
// against the measured width of the loaded font, so the card always fits the
// requested width except when a single word is wider than the usable area.
package hook

import "strings"

// Card geometry, in pixels unless noted.
const (
	PaddingX      = 30
	PaddingY      = 25
	LineSpacing   = 20
	CornerRadius  = 20
	ShadowOffsetX = 5
	ShadowOffsetY = 5
	// ShadowBlurSigma is the Gaussian blur applied to the whole canvas after
	// the shadow is drawn.
	ShadowBlurSigma = 5.0
	ShadowAlpha     = 100
	CardAlpha       = 240
	// CanvasMargin is the total extra width and height around the card,
	// split evenly between both sides, leaving room for the shadow.
	CanvasMargin = 40
	// CanvasInset is the card's offset from the canvas origin.
	CanvasInset = CanvasMargin / 2
	// TextNudgeY shifts the first line up slightly for optical balance.
	TextNudgeY = -2

	// FontSizeRatio is the base font size as a fraction of the target width.
	FontSizeRatio = 0.05
	// MinBoxWidthRatio is the narrowest card allowed, as a fraction of the
	// target width.
	MinBoxWidthRatio = 0.3
)

// Measurer reports the rendered pixel size of a string in a fixed font.
type Measurer interface {
	Measure(text string) (width, height int)
}

// Line is one wrapped line of a layout. An empty Text is a preserved blank
// line.
type Line struct {
	Text   string
	Width  int
	Height int
}

// Blank reports whether the line is an explicit empty line.
func (l Line) Blank() bool {
	return l.Text == ""
}

// Layout is the computed geometry of a hook card.
type Layout struct {
	FontSize     int
	Lines        []Line
	MaxLineWidth int
	BoxWidth     int
	BoxHeight    int
	CanvasWidth  int
	CanvasHeight int
}

// FontSize returns the font size for a card of targetWidth scaled by scale.
// The result is never below 1.
func FontSize(targetWidth int, scale float64) int {
	base := int(float64(targetWidth) * FontSizeRatio)
	size := int(float64(base) * scale)
	if size < 1 {
		return 1
	}
	return size
}

// WrapLines splits text into lines no wider than maxWidth.
//
// Explicit newlines start a new paragraph and whitespace-only paragraphs
// become a single empty line. Words are never split: a word that is wider
// than maxWidth on its own is placed alone on its line.
func WrapLines(text string, maxWidth int, m Measurer) []string {
	var lines []string

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var current []string
		for _, word := range words {
			candidate := word
			if len(current) > 0 {
				candidate = strings.Join(current, " ") + " " + word
			}

			if w, _ := m.Measure(candidate); w <= maxWidth {
				current = append(current, word)
				continue
			}

			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
				current = []string{word}
				continue
			}

			// A lone word that overflows is forced onto its own line.
			lines = append(lines, word)
			current = nil
		}

		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
	}

	return lines
}

// ComputeLayout wraps text for a card of targetWidth and derives the box and
// canvas dimensions. Blank lines take fontSize as their height.
func ComputeLayout(text string, targetWidth, fontSize int, m Measurer) Layout {
	wrapped := WrapLines(text, targetWidth-2*PaddingX, m)

	layout := Layout{
		FontSize: fontSize,
		Lines:    make([]Line, 0, len(wrapped)),
	}

	textHeight := 0
	for _, s := range wrapped {
		line := Line{Text: s, Height: fontSize}
		if s != "" {
			line.Width, line.Height = m.Measure(s)
			layout.MaxLineWidth = max(layout.MaxLineWidth, line.Width)
		}
		layout.Lines = append(layout.Lines, line)
		textHeight += line.Height
	}

	if len(layout.Lines) == 0 {
		textHeight = fontSize
	} else {
		textHeight += (len(layout.Lines) - 1) * LineSpacing
	}

	layout.BoxWidth = max(layout.MaxLineWidth+2*PaddingX, int(float64(targetWidth)*MinBoxWidthRatio))
	layout.BoxHeight = textHeight + 2*PaddingY
	layout.CanvasWidth = layout.BoxWidth + CanvasMargin
	layout.CanvasHeight = layout.BoxHeight + CanvasMargin

	return layout
}
