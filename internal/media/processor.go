// Package media provides video probing and compositing through ffmpeg.
package media

import "context"

// Processor defines the video operations needed to burn a hook onto a clip.
type Processor interface {
	// ProbeDimensions returns the pixel width and height of the first video
	// stream in path.
	ProbeDimensions(ctx context.Context, path string) (width, height int, err error)

	// OverlayImage composites the image at imagePath onto videoPath with its
	// top-left corner at (x, y) and writes the result to outputPath. Video is
	// re-encoded; audio streams are copied unchanged.
	OverlayImage(ctx context.Context, videoPath, imagePath, outputPath string, x, y int) error
}
